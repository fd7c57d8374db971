package main

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/thomasrohde/firrtl/pkg/moddeps"
	"github.com/thomasrohde/firrtl/pkg/runtime"
)

func getDepsCmd(c *rootCommand) *cobra.Command {
	var topo bool
	cmd := &cobra.Command{
		Use:   "deps [flags] FILE",
		Short: "list the modules each module instantiates",
		Long: `Print one line per module, "Module: Dep Dep", in circuit order.

With --topo the modules are listed leaves first instead. Instances of
undefined modules and instantiation cycles are reported as diagnostics.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := args[0]
			source, err := readFile(c.fs, file)
			if err != nil {
				return err
			}

			start := time.Now()
			g, err := runtime.New(runtime.WithFilename(file)).Dependencies(source)
			if err != nil {
				var de *runtime.DiagnosticError
				if errors.As(err, &de) {
					return c.report(de.Diagnostics)
				}
				return err
			}
			c.logger.WithFields(log.Fields{
				"file":     file,
				"modules":  len(g.Modules()),
				"duration": time.Since(start),
			}).Debug("built dependency graph")

			order := g.Modules()
			if topo {
				sorted, err := g.TopoOrder()
				if err != nil {
					return c.report(g.Problems())
				}
				order = sorted
			}
			for _, m := range order {
				fprintln(c.stdout, depsLine(g, m))
			}
			return c.report(g.Problems())
		},
	}
	cmd.Flags().BoolVar(&topo, "topo", false, "list modules after the modules they instantiate")
	return cmd
}

func depsLine(g *moddeps.Graph, module string) string {
	deps := g.Direct(module)
	if len(deps) == 0 {
		return module + ":"
	}
	return module + ": " + strings.Join(deps, " ")
}
