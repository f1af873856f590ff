package qc

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSettings(t *testing.T) {
	tests := []struct {
		name   string
		format string
		data   string
		want   Settings
	}{
		{
			name:   "empty toml keeps defaults",
			format: "toml",
			data:   "",
			want:   DefaultSettings(),
		},
		{
			name:   "toml overrides",
			format: "toml",
			data:   "c_style_comments = true\nbash_comments = false\nmax_depth = 8\n",
			want:   Settings{PlainValues: true, CStyleComments: true, MaxDepth: 8},
		},
		{
			name:   "yaml overrides",
			format: "yaml",
			data:   "plain_values: false\n",
			want:   Settings{BashComments: true, MaxDepth: DefaultMaxDepth},
		},
		{
			name:   "yml extension and case",
			format: "YML",
			data:   "max_depth: 0\n",
			want:   Settings{PlainValues: true, BashComments: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSettings([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeSettings_Errors(t *testing.T) {
	tests := []struct {
		name    string
		format  string
		data    string
		message string
	}{
		{"unknown format", "json", "{}", `unsupported settings format "json"`},
		{"bad toml", "toml", "max_depth = ", "invalid toml settings"},
		{"bad yaml", "yaml", "max_depth: [", "invalid yaml settings"},
		{"wrong type", "yaml", "max_depth: deep\n", "invalid yaml settings"},
		{"negative depth", "toml", "max_depth = -1\n", "max_depth must be >= 0, got -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSettings([]byte(tt.data), tt.format)
			require.Error(t, err)
			assert.Equal(t, ErrConfig, errorCode(t, err))
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestLoadSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "qc.toml")
	require.NoError(t, os.WriteFile(path, []byte("c_style_comments = true\n"), 0o644))

	s, err := LoadSettings(path)
	require.NoError(t, err)
	assert.True(t, s.CStyleComments)
	assert.True(t, s.BashComments)

	q, err := ParseQuery("cmd a // trailing", WithSettings(s))
	require.NoError(t, err)
	assert.Equal(t, "cmd a", q.String())

	_, err = LoadSettings(filepath.Join(dir, "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)

	_, err := ParseFile("a\nb", WithLogger(logger))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"level":"debug"`)
}
