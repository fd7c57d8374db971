// Package runtime is the source-text facade over the parser, formatter,
// validator and dependency analysis.
package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/thomasrohde/firrtl/pkg/ast"
	"github.com/thomasrohde/firrtl/pkg/diagnostics"
	"github.com/thomasrohde/firrtl/pkg/formatter"
	"github.com/thomasrohde/firrtl/pkg/moddeps"
	"github.com/thomasrohde/firrtl/pkg/parser"
	"github.com/thomasrohde/firrtl/pkg/validator"
)

// DefaultFilename is used in spans when no filename is configured.
const DefaultFilename = "<input>"

// Runtime wires the components together over source text. It holds no
// mutable state and is safe for concurrent use.
type Runtime struct {
	filename string
	indent   int
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithFilename sets the filename recorded in spans and diagnostics.
func WithFilename(name string) Option {
	return func(rt *Runtime) {
		if name != "" {
			rt.filename = name
		}
	}
}

// WithIndent sets the formatter indent width.
func WithIndent(n int) Option {
	return func(rt *Runtime) {
		rt.indent = n
	}
}

// New creates a new Runtime with the given options.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		filename: DefaultFilename,
		indent:   formatter.DefaultIndent,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Filename returns the configured filename.
func (rt *Runtime) Filename() string {
	return rt.filename
}

// Parse parses source into a circuit. Failures are *DiagnosticError values
// wrapping the *parser.Error.
func (rt *Runtime) Parse(source string) (*ast.Circuit, error) {
	c, err := parser.Parse(source, rt.filename)
	if err != nil {
		return nil, wrap(err)
	}
	return c, nil
}

// Format parses and formats source.
func (rt *Runtime) Format(source string) (string, error) {
	c, err := rt.Parse(source)
	if err != nil {
		return "", err
	}
	return rt.FormatCircuit(c)
}

// FormatCircuit formats an already built circuit.
func (rt *Runtime) FormatCircuit(c *ast.Circuit) (string, error) {
	out, err := formatter.New(formatter.WithIndent(rt.indent)).Format(c)
	if err != nil {
		return "", wrap(err)
	}
	return out, nil
}

// Check parses source and returns every diagnostic: the parse failure
// alone, or the validator findings followed by dangling instances and
// instantiation cycles.
func (rt *Runtime) Check(source string) []diagnostics.Diagnostic {
	c, err := parser.Parse(source, rt.filename)
	if err != nil {
		return diagnosticsOf(err)
	}
	return CheckCircuit(c)
}

// CheckCircuit runs the validator and dependency analysis over c.
func CheckCircuit(c *ast.Circuit) []diagnostics.Diagnostic {
	diags := validator.Validate(c)
	return append(diags, moddeps.Build(c).Problems()...)
}

// Dependencies parses source and builds its instantiation graph.
func (rt *Runtime) Dependencies(source string) (*moddeps.Graph, error) {
	c, err := rt.Parse(source)
	if err != nil {
		return nil, err
	}
	return moddeps.Build(c), nil
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
	cause       error
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}

func (e *DiagnosticError) Unwrap() error {
	return e.cause
}

func wrap(err error) error {
	return &DiagnosticError{Diagnostics: diagnosticsOf(err), cause: err}
}

func diagnosticsOf(err error) []diagnostics.Diagnostic {
	var pe *parser.Error
	if errors.As(err, &pe) {
		return []diagnostics.Diagnostic{pe.Diag}
	}
	var dv *formatter.DesignViolation
	if errors.As(err, &dv) {
		return []diagnostics.Diagnostic{dv.Diag}
	}
	var de *DiagnosticError
	if errors.As(err, &de) {
		return de.Diagnostics
	}
	return []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EStruct, err.Error(), nil, "")}
}
