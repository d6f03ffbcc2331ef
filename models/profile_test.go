package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeProfile(t *testing.T) {
	data, err := DecodeProfile(strings.NewReader(`{
		"firstName": "Asha",
		"rollNumber": 20210012345678901,
		"cgpa": 8.5,
		"skills": ["Go", "SQL"],
		"hostelRequired": false
	}`))
	require.NoError(t, err)

	assert.Equal(t, "Asha", data["firstName"])
	assert.Equal(t, json.Number("20210012345678901"), data["rollNumber"], "long numbers keep their digits")
	assert.Equal(t, json.Number("8.5"), data["cgpa"])
	assert.Equal(t, []any{"Go", "SQL"}, data["skills"])
	assert.Equal(t, false, data["hostelRequired"])
}

func TestDecodeProfileNull(t *testing.T) {
	data, err := DecodeProfile(strings.NewReader(`null`))
	require.NoError(t, err)
	assert.NotNil(t, data)
	assert.Empty(t, data)
}

func TestDecodeProfileRejectsNonObjects(t *testing.T) {
	for _, doc := range []string{``, `[1, 2]`, `"text"`, `{"a":`} {
		_, err := DecodeProfile(strings.NewReader(doc))
		assert.Error(t, err, "document %q", doc)
	}
}
