package main

import (
	"io"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/thomasrohde/firrtl/internal/config"
	"github.com/thomasrohde/firrtl/pkg/diagnostics"
)

type rootCommand struct {
	cmd    *cobra.Command
	logger *log.Logger
	fs     afero.Fs
	stdout io.Writer
	stderr io.Writer

	configPath string
	pretty     bool
	verbose    bool
	logFmt     string
	noColor    bool

	conf config.Config
}

func newRootCommand(logger *log.Logger, fs afero.Fs, stdout, stderr io.Writer) *rootCommand {
	c := &rootCommand{
		logger: logger,
		fs:     fs,
		stdout: stdout,
		stderr: stderr,
		conf:   config.Default(),
	}
	c.cmd = &cobra.Command{
		Use:               "firrtl",
		Short:             "format, check and inspect FIRRTL circuits",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.persistentPreRunE,
	}
	c.cmd.SetOut(stdout)
	c.cmd.SetErr(stderr)
	c.cmd.PersistentFlags().AddFlagSet(c.persistentFlagSet())
	c.cmd.AddCommand(
		getFmtCmd(c),
		getCheckCmd(c),
		getDepsCmd(c),
	)
	return c
}

func (c *rootCommand) persistentFlagSet() *pflag.FlagSet {
	flags := pflag.NewFlagSet("", pflag.ContinueOnError)
	flags.StringVarP(&c.configPath, "config", "c", "", "YAML config file (default "+config.DefaultFilename+" when present)")
	flags.BoolVar(&c.pretty, "pretty", false, "print human-readable diagnostics instead of JSON")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&c.logFmt, "log-format", config.LogText, "log output format, text or json")
	flags.BoolVar(&c.noColor, "no-color", false, "disable colored output")
	return flags
}

func (c *rootCommand) persistentPreRunE(cmd *cobra.Command, _ []string) error {
	conf, err := config.Load(c.fs, c.configPath)
	if err != nil {
		return &exitError{code: exitUsage, err: err}
	}

	flags := cmd.Flags()
	if flags.Changed("pretty") {
		conf.Pretty = c.pretty
	}
	if flags.Changed("verbose") {
		conf.Verbose = c.verbose
	}
	if flags.Changed("log-format") {
		conf.LogFormat = c.logFmt
	}
	if flags.Changed("no-color") {
		conf.Color = !c.noColor
	}
	if flags.Changed("indent") {
		n, err := flags.GetInt("indent")
		if err != nil {
			return &exitError{code: exitUsage, err: err}
		}
		conf.Indent = n
	}
	if err := conf.Validate(); err != nil {
		return &exitError{code: exitUsage, err: err}
	}
	c.conf = conf

	if !conf.Color {
		color.NoColor = true
	}
	if conf.Verbose {
		c.logger.SetLevel(log.DebugLevel)
	}
	switch conf.LogFormat {
	case config.LogJSON:
		c.logger.SetFormatter(&log.JSONFormatter{})
	default:
		c.logger.SetFormatter(&log.TextFormatter{DisableColors: !conf.Color})
	}
	c.logger.WithField("config", conf).Debug("configuration loaded")
	return nil
}

// report prints diagnostics to stderr and returns the diagnostics exit error,
// or nil when there are none.
func (c *rootCommand) report(diags []diagnostics.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	switch {
	case !c.conf.Pretty:
		fprintln(c.stderr, diagnostics.FormatDiagnostics(diags, false))
	case c.conf.Color && !color.NoColor:
		for i, d := range diags {
			if i > 0 {
				fprintln(c.stderr, "")
			}
			fprintln(c.stderr, diagnostics.Colorize(d))
		}
	default:
		fprintln(c.stderr, diagnostics.FormatDiagnostics(diags, true))
	}
	return &exitError{code: exitDiagnostics}
}
