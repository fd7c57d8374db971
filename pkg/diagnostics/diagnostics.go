// Package diagnostics defines diagnostic types for lexing, parsing,
// formatting and analysis errors.
package diagnostics

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/thomasrohde/firrtl/pkg/ast"
)

// Diagnostic code constants.
const (
	ELex        = "E_LEX"
	EStruct     = "E_STRUCT"
	EArity      = "E_ARITY"
	EDangling   = "E_DANGLING"
	ECycle      = "E_CYCLE"
	EDesign     = "E_DESIGN"
	ENoTop      = "E_NO_TOP"
	EDupModule  = "E_DUP_MODULE"
	EDupPort    = "E_DUP_PORT"
	EDupField   = "E_DUP_FIELD"
	EDupName    = "E_DUP_NAME"
	ERegReset   = "E_REG_RESET"
	EMem        = "E_MEM"
	EAnnotation = "E_ANNOTATION"
	EConfig     = "E_CONFIG"
	EIO         = "E_IO"
)

// Diagnostic represents a lex, parse, format or analysis diagnostic.
type Diagnostic struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Span    *ast.Span `json:"span,omitempty"`
	Hint    string    `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message string, span *ast.Span, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Span:    span,
		Hint:    hint,
	}
}

// Location returns "file:line:col", or "<unknown>" without a span.
func (d Diagnostic) Location() string {
	if d.Span == nil {
		return "<unknown>"
	}
	return fmt.Sprintf("%s:%d:%d", d.Span.File, d.Span.StartLine, d.Span.StartCol)
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, d.Location())
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}

var (
	errorColor = color.New(color.FgRed, color.Bold)
	locColor   = color.New(color.FgCyan)
	hintColor  = color.New(color.FgYellow)
)

// Colorize renders the pretty form with terminal colors. Color output
// follows color.NoColor.
func Colorize(d Diagnostic) string {
	out := errorColor.Sprintf("error[%s]", d.Code) + ": " + d.Message +
		"\n  --> " + locColor.Sprint(d.Location())
	if d.Hint != "" {
		out += "\n  " + hintColor.Sprint("hint:") + " " + d.Hint
	}
	return out
}
