package config_test

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/firrtl/internal/config"
	"github.com/thomasrohde/firrtl/pkg/diagnostics"
)

func TestDefaults(t *testing.T) {
	conf, err := config.Load(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), conf)
	assert.Equal(t, 2, conf.Indent)
}

func TestFileOverridesDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, config.DefaultFilename, []byte("indent: 4\nlog_format: json\n"), 0o644))

	conf, err := config.Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, 4, conf.Indent)
	assert.Equal(t, config.LogJSON, conf.LogFormat)
	assert.False(t, conf.Pretty)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "conf.yaml", []byte("indent: 4\nverbose: false\n"), 0o644))
	t.Setenv("FIRRTL_INDENT", "3")
	t.Setenv("FIRRTL_VERBOSE", "true")
	t.Setenv("FIRRTL_COLOR", "false")

	conf, err := config.Load(fs, "conf.yaml")
	require.NoError(t, err)
	assert.Equal(t, 3, conf.Indent)
	assert.True(t, conf.Verbose)
	assert.False(t, conf.Color)
}

func TestEmptyFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, config.DefaultFilename, nil, 0o644))
	conf, err := config.Load(fs, "")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), conf)
}

func TestMissingExplicitFile(t *testing.T) {
	_, err := config.Load(afero.NewMemMapFs(), "nope.yaml")
	require.Error(t, err)
	var ce *config.Error
	assert.False(t, errors.As(err, &ce))
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestInvalid(t *testing.T) {
	tests := []struct {
		name string
		file string
		env  map[string]string
	}{
		{"zero indent", "indent: 0\n", nil},
		{"bad log format", "log_format: xml\n", nil},
		{"unknown key", "colour: true\n", nil},
		{"bad yaml", "indent: [\n", nil},
		{"bad env", "", map[string]string{"FIRRTL_PRETTY": "sometimes"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "c.yaml", []byte(tt.file), 0o644))

			_, err := config.Load(fs, "c.yaml")
			var ce *config.Error
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, diagnostics.EConfig, ce.Diag.Code)
		})
	}
}
