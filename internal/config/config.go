// Package config loads CLI settings.
//
// Precedence, lowest first: built-in defaults, the YAML file, FIRRTL_*
// environment variables, then command-line flags (applied by the caller).
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/thomasrohde/firrtl/pkg/diagnostics"
	"github.com/thomasrohde/firrtl/pkg/formatter"
)

// DefaultFilename is read from the working directory when no path is given.
const DefaultFilename = ".firrtl.yaml"

// EnvPrefix prefixes every environment variable Load reads.
const EnvPrefix = "firrtl"

// Log formats.
const (
	LogText = "text"
	LogJSON = "json"
)

// Config holds the CLI settings.
type Config struct {
	Indent    int    `yaml:"indent" envconfig:"indent"`
	Pretty    bool   `yaml:"pretty" envconfig:"pretty"`
	Color     bool   `yaml:"color" envconfig:"color"`
	LogFormat string `yaml:"log_format" envconfig:"log_format"`
	Verbose   bool   `yaml:"verbose" envconfig:"verbose"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Indent:    formatter.DefaultIndent,
		Color:     true,
		LogFormat: LogText,
	}
}

// Error is an invalid configuration value or file.
type Error struct {
	Diag diagnostics.Diagnostic
}

func (e *Error) Error() string {
	return e.Diag.Message
}

func invalid(format string, args ...any) error {
	return &Error{Diag: diagnostics.MakeDiag(diagnostics.EConfig, fmt.Sprintf(format, args...), nil, "")}
}

// Load builds the configuration from fs and the environment. An empty path
// reads DefaultFilename when it exists; an explicit path must exist.
func Load(fs afero.Fs, path string) (Config, error) {
	conf := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFilename
	}
	data, err := afero.ReadFile(fs, path)
	switch {
	case err == nil:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&conf); err != nil && err != io.EOF {
			return conf, invalid("config file %s: %v", path, err)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return conf, errors.Wrapf(err, "reading config file %s", path)
	}

	if err := envconfig.Process(EnvPrefix, &conf); err != nil {
		return conf, invalid("environment: %v", err)
	}
	return conf, conf.Validate()
}

// Validate rejects values the CLI cannot act on.
func (c Config) Validate() error {
	if c.Indent < 1 {
		return invalid("indent must be at least 1, got %d", c.Indent)
	}
	switch c.LogFormat {
	case LogText, LogJSON:
	default:
		return invalid("unknown log format %q, want %q or %q", c.LogFormat, LogText, LogJSON)
	}
	return nil
}
