package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ValidateKeyName(t *testing.T) {
	testCases := []struct {
		name    string
		wantErr bool
	}{
		{name: "ocp-key"},
		{name: "id_rsa.bastion"},
		{name: "", wantErr: true},
		{name: "../etc/passwd", wantErr: true},
		{name: "key;rm -rf /", wantErr: true},
		{name: "a..b", wantErr: true},
	}

	for _, tc := range testCases {
		err := ValidateKeyName(tc.name)
		if tc.wantErr {
			assert.Error(t, err, tc.name)
		} else {
			assert.NoError(t, err, tc.name)
		}
	}
}

func Test_ValidateRelease(t *testing.T) {
	assert.NoError(t, ValidateRelease("4.16.3"))
	assert.Error(t, ValidateRelease("4.16"))
	assert.Error(t, ValidateRelease("4.16.3; reboot"))
}

func Test_ValidateStream(t *testing.T) {
	assert.NoError(t, ValidateStream("4.16"))
	assert.Error(t, ValidateStream("4.16.1"))
	assert.Error(t, ValidateStream("v4.16"))
}

func Test_StreamOf(t *testing.T) {
	assert.Equal(t, "4.16", StreamOf("4.16.3"))
	assert.Equal(t, "4", StreamOf("4"))
}

func Test_SanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString(" a;b`c$() "))
}
