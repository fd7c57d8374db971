package main

import (
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thomasrohde/firrtl/pkg/diagnostics"
	"github.com/thomasrohde/firrtl/pkg/runtime"
)

func getCheckCmd(c *rootCommand) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "parse and validate circuits",
		Long: `Parse and validate each circuit.

Reports structural problems, duplicate names, instances of undefined
modules and instantiation cycles. Exits with status 2 when anything is
reported.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var all []diagnostics.Diagnostic
			for _, file := range args {
				source, err := readFile(c.fs, file)
				if err != nil {
					return err
				}
				start := time.Now()
				diags := runtime.New(runtime.WithFilename(file)).Check(source)
				c.logger.WithFields(log.Fields{
					"file":        file,
					"diagnostics": len(diags),
					"duration":    time.Since(start),
				}).Debug("checked")
				all = append(all, diags...)
			}

			if err := c.report(all); err != nil {
				return err
			}
			if c.conf.Pretty {
				fprintln(c.stdout, "No errors found.")
			} else {
				fprintln(c.stdout, "[]")
			}
			return nil
		},
	}
}
