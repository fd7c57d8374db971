package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/thomasrohde/firrtl/pkg/runtime"
)

func getFmtCmd(c *rootCommand) *cobra.Command {
	var write bool
	cmd := &cobra.Command{
		Use:   "fmt [flags] FILE...",
		Short: "print circuits in canonical form",
		Long: `Print each circuit in canonical form.

Comments are not preserved. With -w the result replaces the file contents.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var diags int
			for _, file := range args {
				source, err := readFile(c.fs, file)
				if err != nil {
					return err
				}

				start := time.Now()
				rt := runtime.New(runtime.WithFilename(file), runtime.WithIndent(c.conf.Indent))
				out, err := rt.Format(source)
				if err != nil {
					var de *runtime.DiagnosticError
					if !errors.As(err, &de) {
						return err
					}
					_ = c.report(de.Diagnostics)
					diags++
					continue
				}
				c.logger.WithFields(log.Fields{
					"file":     file,
					"duration": time.Since(start),
				}).Debug("formatted")

				if !write {
					fmt.Fprint(c.stdout, out)
					continue
				}
				if out == source {
					continue
				}
				if err := writeFile(c.fs, file, out); err != nil {
					return err
				}
				c.logger.WithField("file", file).Info("rewrote file")
			}
			if diags > 0 {
				return &exitError{code: exitDiagnostics}
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to each file")
	cmd.Flags().Int("indent", 0, "spaces per nesting level (default from config, else 2)")
	return cmd
}

func readFile(fs afero.Fs, file string) (string, error) {
	data, err := afero.ReadFile(fs, file)
	if err != nil {
		return "", &exitError{code: exitIO, err: errors.Wrapf(err, "cannot read %s", file)}
	}
	return string(data), nil
}

func writeFile(fs afero.Fs, file, content string) error {
	info, err := fs.Stat(file)
	if err != nil {
		return &exitError{code: exitIO, err: errors.Wrapf(err, "cannot stat %s", file)}
	}
	if err := afero.WriteFile(fs, file, []byte(content), info.Mode().Perm()); err != nil {
		return &exitError{code: exitIO, err: errors.Wrapf(err, "cannot write %s", file)}
	}
	return nil
}
