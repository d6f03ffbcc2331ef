package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProfileValueDerivesNameParts(t *testing.T) {
	p := Profile{"fullName": "Asha Devi Rao"}

	tests := []struct {
		key  string
		want string
	}{
		{"firstName", "Asha"},
		{"middleName", "Devi"},
		{"lastName", "Rao"},
		{"fullName", "Asha Devi Rao"},
	}
	for _, tt := range tests {
		value, ok := p.Value(tt.key)
		assert.True(t, ok, tt.key)
		assert.Equal(t, tt.want, value, tt.key)
	}

	_, ok := Profile{"fullName": "Asha Rao"}.Value("middleName")
	assert.False(t, ok, "two word names have no middle part")
}

func TestProfileValueBuildsFullName(t *testing.T) {
	value, ok := Profile{"firstName": "Asha", "lastName": "Rao"}.Value("fullName")
	assert.True(t, ok)
	assert.Equal(t, "Asha Rao", value)

	value, ok = Profile{"firstName": "Asha", "fullName": "Someone Else"}.Value("firstName")
	assert.True(t, ok)
	assert.Equal(t, "Asha", value, "a stored part wins over derivation")

	_, ok = Profile{}.Value("fullName")
	assert.False(t, ok)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want string
		ok   bool
	}{
		{"string", " Pune ", "Pune", true},
		{"blank string", "   ", "", false},
		{"nil", nil, "", false},
		{"json number", json.Number("8.5"), "8.5", true},
		{"whole float", float64(85), "85", true},
		{"int", 2023, "2023", true},
		{"true", true, "Yes", true},
		{"false", false, "No", true},
		{"date", time.Date(2001, 5, 4, 0, 0, 0, 0, time.UTC), "2001-05-04", true},
		{"zero time", time.Time{}, "", false},
		{"string list", []string{" Go ", "", "Rust"}, "Go, Rust", true},
		{"mixed list", []any{"Go", json.Number("3")}, "Go, 3", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, ok := formatValue(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, value)
		})
	}
}

func TestProfileValues(t *testing.T) {
	p := Profile{
		"skills":    []any{"Go", "Python"},
		"languages": "English, Hindi ,",
		"hobbies":   []string{"chess", " "},
	}

	assert.Equal(t, []string{"Go", "Python"}, p.Values("skills"))
	assert.Equal(t, []string{"English", "Hindi"}, p.Values("languages"))
	assert.Equal(t, []string{"chess"}, p.Values("hobbies"))
	assert.Nil(t, p.Values("missing"))
}

func TestSplitFullName(t *testing.T) {
	first, middle, last := splitFullName("  Asha   Devi  Kumari Rao ")
	assert.Equal(t, "Asha", first)
	assert.Equal(t, "Devi Kumari", middle)
	assert.Equal(t, "Rao", last)

	first, middle, last = splitFullName("Asha")
	assert.Equal(t, []string{"Asha", "", ""}, []string{first, middle, last})
}
