package clusterdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ParseCSV(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected Dataset
		wantErr  bool
		err      error
	}{
		{
			name:  "happy path",
			input: "base_domain,metadata_name,nodeip_master0\nexample.com,ocp,10.0.0.10\n",
			expected: Dataset{
				"base_domain":    "example.com",
				"metadata_name":  "ocp",
				"nodeip_master0": "10.0.0.10",
			},
		},
		{
			name:     "extra rows are ignored",
			input:    "a,b\n1,2\n3,4\n",
			expected: Dataset{"a": "1", "b": "2"},
		},
		{
			name:    "only header",
			input:   "a,b\n",
			wantErr: true,
			err:     ErrTooFewRows,
		},
		{
			name:    "empty file",
			input:   "",
			wantErr: true,
			err:     ErrTooFewRows,
		},
		{
			name:    "column mismatch",
			input:   "a,b,c\n1,2\n",
			wantErr: true,
			err:     ErrColumnMismatch,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			actual, err := ParseCSV(strings.NewReader(tc.input))
			if tc.wantErr {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, actual)
		})
	}
}

func Test_Store(t *testing.T) {
	store := NewStore(t.TempDir())

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrNotFound)

	ds := Dataset{"mac_worker0": "aa:bb:cc:dd:ee:ff", "base_domain": "lab.local"}
	require.NoError(t, store.Save(ds))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, ds, loaded)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", loaded.HostField("mac", "worker0"))
	assert.Equal(t, []string{"base_domain", "mac_worker0"}, loaded.Keys())
}
