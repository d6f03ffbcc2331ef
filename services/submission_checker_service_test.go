package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckForSuccess(t *testing.T) {
	checker := NewSubmissionCheckerService(time.Millisecond)

	tests := []struct {
		name string
		url  string
		html string
		want bool
	}{
		{"form response url", "https://docs.google.com/forms/d/e/test/formResponse", formPageOne, true},
		{"thank you title", testFormURL, `<html><head><title>Thank you!</title></head><body></body></html>`, true},
		{"confirmation text", testFormURL, confirmationHTML, true},
		{"success class", testFormURL, `<html><body><div class="alert-success">Done</div></body></html>`, true},
		{"plain form", testFormURL, formPageOne, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := loadedPage(tt.html)
			page.url = tt.url

			ok, err := checker.CheckForSuccess(page)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestCheckForSuccessClosedPage(t *testing.T) {
	page := loadedPage(confirmationHTML)
	page.Close()

	ok, err := NewSubmissionCheckerService(0).CheckForSuccess(page)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrPageUnavailable)
}

func TestWaitForSuccess(t *testing.T) {
	checker := NewSubmissionCheckerService(time.Millisecond)

	ok, err := checker.WaitForSuccess(context.Background(), loadedPage(confirmationHTML), 10*time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.WaitForSuccess(context.Background(), loadedPage(formPageOne), 10*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "gives up after the wait")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ok, err = checker.WaitForSuccess(ctx, loadedPage(formPageOne), time.Second)
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}
