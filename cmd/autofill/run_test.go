package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"formfill/config"
	"formfill/services"
)

type scriptedManager struct {
	runs      []*services.RunResult
	submit    *services.SubmitResult
	startErr  error
	submitted bool
	cancelled []string
	continues int
}

func (m *scriptedManager) next() *services.RunResult {
	r := m.runs[0]
	m.runs = m.runs[1:]
	return r
}

func (m *scriptedManager) Start(context.Context, string, string, services.Profile, bool) (*services.RunResult, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	return m.next(), nil
}

func (m *scriptedManager) Continue(context.Context, string, services.Profile) (*services.RunResult, error) {
	m.continues++
	return m.next(), nil
}

func (m *scriptedManager) Submit(context.Context, string) (*services.SubmitResult, error) {
	m.submitted = true
	return m.submit, nil
}

func (m *scriptedManager) Cancel(id string) *services.CancelResult {
	m.cancelled = append(m.cancelled, id)
	return &services.CancelResult{Cancelled: true}
}

func filled(id string) *services.RunResult {
	diag := services.NewDiagnostics()
	diag.StopReason = services.StopSubmitVisible
	return &services.RunResult{SessionID: id, State: services.StateAwaitingConfirmation, Diagnostics: diag}
}

func runDrive(t *testing.T, m *scriptedManager, input string, yes bool) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := drive(context.Background(), m, bufio.NewReader(strings.NewReader(input)), &out,
		"cli", "https://docs.google.com/forms/d/e/x/viewform", services.Profile{"firstName": "Asha"}, true, yes)
	return out.String(), err
}

func TestDriveSubmitsAfterConfirmation(t *testing.T) {
	m := &scriptedManager{
		runs:   []*services.RunResult{filled("s1")},
		submit: &services.SubmitResult{Success: true, Clicked: true, Confirmed: true},
	}

	out, err := runDrive(t, m, "y\n", false)
	require.NoError(t, err)
	assert.True(t, m.submitted)
	assert.Empty(t, m.cancelled)
	assert.Contains(t, out, `"stop_reason": "submit-visible"`)
	assert.Contains(t, out, "Submitted and confirmed.")
}

func TestDriveDeclinedCancels(t *testing.T) {
	m := &scriptedManager{runs: []*services.RunResult{filled("s1")}}

	out, err := runDrive(t, m, "n\n", false)
	require.NoError(t, err)
	assert.False(t, m.submitted)
	assert.Equal(t, []string{"s1"}, m.cancelled)
	assert.Contains(t, out, "Not submitted.")
}

func TestDriveEOFCountsAsNo(t *testing.T) {
	m := &scriptedManager{runs: []*services.RunResult{filled("s1")}}

	_, err := runDrive(t, m, "", false)
	require.NoError(t, err)
	assert.False(t, m.submitted)
}

func TestDriveWaitsForLogin(t *testing.T) {
	login := &services.RunResult{SessionID: "s1", State: services.StateAwaitingLogin, NeedsLogin: true, Message: "sign in"}
	m := &scriptedManager{
		runs:   []*services.RunResult{login, login, filled("s1")},
		submit: &services.SubmitResult{Success: true, Clicked: true},
	}

	out, err := runDrive(t, m, "y\ny\n", true)
	require.NoError(t, err)
	assert.Equal(t, 2, m.continues)
	assert.True(t, m.submitted)
	assert.Contains(t, out, "no confirmation page seen")
}

func TestDriveFailures(t *testing.T) {
	t.Run("start error", func(t *testing.T) {
		m := &scriptedManager{startErr: errors.New("boom")}
		_, err := runDrive(t, m, "", true)
		assert.EqualError(t, err, "boom")
	})

	t.Run("failed run", func(t *testing.T) {
		m := &scriptedManager{runs: []*services.RunResult{{
			SessionID:   "s1",
			State:       services.StateFailed,
			Message:     "The form could not be loaded",
			Diagnostics: services.NewDiagnostics(),
		}}}
		_, err := runDrive(t, m, "", true)
		assert.EqualError(t, err, "autofill failed: The form could not be loaded")
		assert.False(t, m.submitted)
	})

	t.Run("submit control missing", func(t *testing.T) {
		m := &scriptedManager{
			runs:   []*services.RunResult{filled("s1")},
			submit: &services.SubmitResult{Success: false, Reason: "submit control not found"},
		}
		_, err := runDrive(t, m, "", true)
		assert.EqualError(t, err, "submit failed: submit control not found")
		assert.Equal(t, []string{"s1"}, m.cancelled)
	})
}

func TestLoadProfileFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"firstName":"Asha","zipCode":560001}`), 0o644))

	profile, err := loadProfile(context.Background(), config.DatabaseConfig{}, "cli", path)
	require.NoError(t, err)
	assert.Equal(t, "Asha", profile["firstName"])
	zip, ok := profile.Value("zipCode")
	require.True(t, ok)
	assert.Equal(t, "560001", zip, "numbers keep their digits")
}

func TestLoadProfileMissingFile(t *testing.T) {
	_, err := loadProfile(context.Background(), config.DatabaseConfig{}, "cli", filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "failed to open profile")
}

func TestConfirm(t *testing.T) {
	for input, want := range map[string]bool{
		"y\n":   true,
		"YES\n": true,
		" y \n": true,
		"n\n":   false,
		"\n":    false,
		"maybe": false,
		"yes":   true,
	} {
		var out bytes.Buffer
		got := confirm(bufio.NewReader(strings.NewReader(input)), &out, "? ")
		assert.Equal(t, want, got, "input %q", input)
		assert.Equal(t, "? ", out.String())
	}
}
