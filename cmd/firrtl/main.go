// Command firrtl formats, checks and inspects FIRRTL circuits.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Exit codes.
const (
	exitOK          = 0
	exitUsage       = 1
	exitDiagnostics = 2
	exitIO          = 4
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, afero.NewOsFs()))
}

// exitError ends the command with code. A nil err means the failure was
// already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func run(args []string, stdout, stderr io.Writer, fs afero.Fs) int {
	logger := &log.Logger{
		Out:       stderr,
		Formatter: new(log.TextFormatter),
		Hooks:     make(log.LevelHooks),
		Level:     log.InfoLevel,
	}

	c := newRootCommand(logger, fs, stdout, stderr)
	c.cmd.SetArgs(args)
	err := c.cmd.Execute()
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			logger.Error(ee.err)
		}
		return ee.code
	}
	logger.Error(err)
	return exitUsage
}

// fprintln panics when writing to w fails.
func fprintln(w io.Writer, a ...interface{}) {
	if _, err := fmt.Fprintln(w, a...); err != nil {
		panic(err.Error())
	}
}
