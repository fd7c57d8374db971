// Package formatter prints a FIRRTL circuit back to canonical source text.
//
// The output re-parses to a structurally equal tree. Literals are always
// printed in decimal and comments are not reproduced.
package formatter

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/thomasrohde/firrtl/pkg/ast"
	"github.com/thomasrohde/firrtl/pkg/diagnostics"
	"github.com/thomasrohde/firrtl/pkg/primop"
)

// DefaultIndent is the number of spaces per nesting level.
const DefaultIndent = 2

// DesignViolation reports a tree that cannot be printed because it breaks
// an invariant the parser would have enforced.
type DesignViolation struct {
	Diag diagnostics.Diagnostic
}

func (e *DesignViolation) Error() string {
	return e.Diag.Message
}

// Option configures a Formatter.
type Option func(*Formatter)

// WithIndent sets the number of spaces per nesting level. Values below one
// are ignored.
func WithIndent(n int) Option {
	return func(f *Formatter) {
		if n > 0 {
			f.indent = n
		}
	}
}

// Formatter prints circuits. The zero value is not usable; call New.
type Formatter struct {
	indent int
}

// New returns a Formatter with the given options applied.
func New(opts ...Option) *Formatter {
	f := &Formatter{indent: DefaultIndent}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format prints c with the default options.
func Format(c *ast.Circuit) (string, error) {
	return New().Format(c)
}

// Format prints c. The first invariant violation aborts with a
// *DesignViolation and no output.
func (f *Formatter) Format(c *ast.Circuit) (string, error) {
	p := &printer{unit: strings.Repeat(" ", f.indent)}
	p.circuit(c)
	if p.err != nil {
		return "", p.err
	}
	return p.sb.String(), nil
}

type printer struct {
	sb    strings.Builder
	unit  string
	depth int
	err   *DesignViolation
}

func (p *printer) fail(n ast.Node, format string, args ...any) {
	if p.err != nil {
		return
	}
	var span *ast.Span
	if !ast.IsNil(n) {
		s := n.NodeSpan()
		if s.File != "" || s.StartLine != 0 {
			span = &s
		}
	}
	p.err = &DesignViolation{Diag: diagnostics.MakeDiag(diagnostics.EDesign, fmt.Sprintf(format, args...), span, "")}
}

// line starts a new output line at the current depth.
func (p *printer) line(parts ...string) {
	for i := 0; i < p.depth; i++ {
		p.sb.WriteString(p.unit)
	}
	for _, s := range parts {
		p.sb.WriteString(s)
	}
}

func (p *printer) end(info ast.Info) {
	p.sb.WriteString(formatInfo(info))
	p.sb.WriteByte('\n')
}

func (p *printer) nested(fn func()) {
	p.depth++
	fn()
	p.depth--
}

func (p *printer) name(n ast.Node, what, name string) string {
	if !isIdent(name) {
		p.fail(n, "%s name %q is not a valid identifier", what, name)
	}
	return name
}

// --- Circuit and modules ---

func (p *printer) circuit(c *ast.Circuit) {
	if c == nil {
		p.fail(nil, "circuit is nil")
		return
	}
	if c.Version != "" {
		p.line("FIRRTL version ", c.Version)
		p.sb.WriteByte('\n')
	}
	p.line("circuit ", p.name(c, "circuit", c.Name), " :")
	if c.Annotations != "" {
		if !c.Annotations.Valid() {
			p.fail(c, "circuit annotations are not a JSON array")
		}
		p.sb.WriteString(" %[" + string(c.Annotations) + "]")
	}
	p.end(c.Info)

	p.nested(func() {
		for _, m := range c.Modules {
			p.module(m)
		}
	})
}

func (p *printer) module(m ast.DefModule) {
	switch m := m.(type) {
	case *ast.Module:
		if m == nil {
			break
		}
		p.line("module ", p.name(m, "module", m.Name), " :")
		p.end(m.Info)
		p.nested(func() {
			p.ports(m.Ports)
			p.body(m.Body)
		})
		return
	case *ast.ExtModule:
		if m == nil {
			break
		}
		p.line("extmodule ", p.name(m, "extmodule", m.Name), " :")
		p.end(m.Info)
		p.nested(func() {
			p.ports(m.Ports)
			if m.DefName != "" {
				p.line("defname = ", p.name(m, "defname", m.DefName))
				p.sb.WriteByte('\n')
			}
			for _, param := range m.Params {
				p.param(param)
			}
		})
		return
	}
	p.fail(nil, "module is nil")
}

func (p *printer) ports(ports []*ast.Port) {
	for _, port := range ports {
		if port == nil {
			p.fail(nil, "port is nil")
			return
		}
		p.line(port.Direction.String(), " ", p.name(port, "port", port.Name), " : ", p.typ(port.Type))
		p.end(port.Info)
	}
}

func (p *printer) param(param *ast.Param) {
	if param == nil {
		p.fail(nil, "parameter is nil")
		return
	}
	var value string
	switch v := param.Value.(type) {
	case *ast.IntParam:
		value = p.integer(param, "parameter", v.Value, true)
	case *ast.DoubleParam:
		value = p.double(param, v.Value)
	case *ast.StringParam:
		value = quote(v.Value)
	case *ast.RawStringParam:
		if strings.ContainsAny(v.Value, "\n") || strings.HasSuffix(v.Value, `\`) {
			p.fail(param, "raw string parameter %s cannot be printed", param.Name)
		}
		value = "'" + v.Value + "'"
	default:
		p.fail(param, "parameter %s has no value", param.Name)
	}
	p.line("parameter ", p.name(param, "parameter", param.Name), " = ", value)
	p.sb.WriteByte('\n')
}

// --- Statements ---

// body prints the statements of a module, then or else clause.
func (p *printer) body(s ast.Stmt) {
	if b, ok := s.(*ast.Block); ok && b != nil {
		for _, child := range b.Stmts {
			p.stmt(child)
		}
		return
	}
	if ast.IsNil(s) {
		return
	}
	p.stmt(s)
}

func (p *printer) stmt(s ast.Stmt) {
	if p.err != nil {
		return
	}
	if ast.IsNil(s) {
		p.fail(nil, "statement is nil")
		return
	}

	switch s := s.(type) {
	case *ast.Block:
		for _, child := range s.Stmts {
			p.stmt(child)
		}
	case *ast.Wire:
		p.line("wire ", p.name(s, "wire", s.Name), " : ", p.typ(s.Type))
		p.end(s.Info)
	case *ast.Reg:
		p.reg(s)
	case *ast.Mem:
		p.mem(s)
	case *ast.CMem:
		kw := "cmem "
		if s.Sequential {
			kw = "smem "
		}
		p.line(kw, p.name(s, "memory", s.Name), " : ", p.typ(s.Type))
		if s.ReadUnderWrite != ast.RUWUndefined {
			if !s.Sequential {
				p.fail(s, "cmem %s cannot carry a read-under-write policy", s.Name)
			}
			p.sb.WriteString(", " + s.ReadUnderWrite.String())
		}
		p.end(s.Info)
	case *ast.MemPort:
		p.line(s.Dir.String(), " mport ", p.name(s, "port", s.Name), " = ", p.name(s, "memory", s.Mem),
			"[", p.expr(s.Addr), "], ", p.expr(s.Clock))
		p.end(s.Info)
	case *ast.Inst:
		p.line("inst ", p.name(s, "instance", s.Name), " of ", p.name(s, "module", s.Module))
		p.end(s.Info)
	case *ast.DefNode:
		p.line("node ", p.name(s, "node", s.Name), " = ", p.expr(s.Value))
		p.end(s.Info)
	case *ast.Connect:
		p.line(p.expr(s.Loc), " <= ", p.expr(s.Expr))
		p.end(s.Info)
	case *ast.PartialConnect:
		p.line(p.expr(s.Loc), " <- ", p.expr(s.Expr))
		p.end(s.Info)
	case *ast.Invalidate:
		p.line(p.expr(s.Expr), " is invalid")
		p.end(s.Info)
	case *ast.When:
		p.when(s, "when ")
	case *ast.Stop:
		p.line("stop(", p.expr(s.Clock), ", ", p.expr(s.Enable), ", ", p.integer(s, "exit code", s.ExitCode, true), ")")
		p.stmtName(s, s.Name)
		p.end(s.Info)
	case *ast.Printf:
		parts := []string{p.expr(s.Clock), p.expr(s.Enable), quote(s.Format)}
		for _, arg := range s.Args {
			parts = append(parts, p.expr(arg))
		}
		p.line("printf(", strings.Join(parts, ", "), ")")
		p.stmtName(s, s.Name)
		p.end(s.Info)
	case *ast.Attach:
		if len(s.Exprs) == 0 {
			p.fail(s, "attach needs at least one expression")
			return
		}
		parts := make([]string, len(s.Exprs))
		for i, e := range s.Exprs {
			parts[i] = p.expr(e)
		}
		p.line("attach(", strings.Join(parts, ", "), ")")
		p.end(s.Info)
	case *ast.Skip:
		p.line("skip")
		p.end(s.Info)
	default:
		p.fail(s, "cannot format statement %s", s.Kind())
	}
}

func (p *printer) stmtName(n ast.Node, name string) {
	if name != "" {
		p.sb.WriteString(" : " + p.name(n, "statement", name))
	}
}

func (p *printer) reg(r *ast.Reg) {
	p.line("reg ", p.name(r, "register", r.Name), " : ", p.typ(r.Type), ", ", p.expr(r.Clock))
	switch {
	case r.Reset != nil && r.Init != nil:
		p.sb.WriteString(" with : (reset => (" + p.expr(r.Reset) + ", " + p.expr(r.Init) + "))")
	case r.Reset != nil || r.Init != nil:
		p.fail(r, "register %s needs both a reset and an init value, or neither", r.Name)
	}
	p.end(r.Info)
}

func (p *printer) mem(m *ast.Mem) {
	if m.DataType == nil {
		p.fail(m, "memory %s has no data-type", m.Name)
		return
	}
	if m.Depth == nil {
		p.fail(m, "memory %s has no depth", m.Name)
		return
	}
	p.line("mem ", p.name(m, "memory", m.Name), " :")
	p.end(m.Info)

	p.nested(func() {
		entry := func(key, value string) {
			p.line(key, " => ", value)
			p.sb.WriteByte('\n')
		}
		entry("data-type", p.typ(m.DataType))
		entry("depth", p.integer(m, "depth", m.Depth, false))
		if m.ReadLatency != nil {
			entry("read-latency", p.integer(m, "read-latency", m.ReadLatency, false))
		}
		if m.WriteLatency != nil {
			entry("write-latency", p.integer(m, "write-latency", m.WriteLatency, false))
		}
		for _, r := range m.Readers {
			entry("reader", p.name(m, "reader", r))
		}
		for _, w := range m.Writers {
			entry("writer", p.name(m, "writer", w))
		}
		for _, rw := range m.ReadWriters {
			entry("readwriter", p.name(m, "readwriter", rw))
		}
		entry("read-under-write", m.ReadUnderWrite.String())
	})
}

// when prints a conditional. An Else that is itself a When prints as an
// else-when chain at the same depth.
func (p *printer) when(w *ast.When, keyword string) {
	p.line(keyword, p.expr(w.Cond), " :")
	p.end(w.Info)
	p.nested(func() { p.body(w.Then) })

	switch e := w.Else.(type) {
	case nil:
	case *ast.When:
		if e == nil {
			return
		}
		p.when(e, "else when ")
	default:
		if ast.IsNil(e) {
			return
		}
		p.line("else :")
		p.end(w.ElseInfo)
		p.nested(func() { p.body(e) })
	}
}

// --- Types ---

func (p *printer) typ(t ast.Type) string {
	if ast.IsNil(t) {
		p.fail(nil, "type is nil")
		return ""
	}
	switch t := t.(type) {
	case *ast.UIntType:
		return "UInt" + p.width(t, t.Width)
	case *ast.SIntType:
		return "SInt" + p.width(t, t.Width)
	case *ast.AnalogType:
		return "Analog" + p.width(t, t.Width)
	case *ast.ClockType:
		return "Clock"
	case *ast.ResetType:
		return "Reset"
	case *ast.AsyncResetType:
		return "AsyncReset"
	case *ast.VectorType:
		return p.typ(t.Elem) + "[" + p.integer(t, "vector size", t.Size, false) + "]"
	case *ast.BundleType:
		seen := make(map[string]bool, len(t.Fields))
		parts := make([]string, 0, len(t.Fields))
		for _, f := range t.Fields {
			if f == nil {
				p.fail(t, "bundle field is nil")
				return ""
			}
			if seen[f.Name] {
				p.fail(f, "duplicate bundle field %q", f.Name)
			}
			seen[f.Name] = true
			if !isIdent(f.Name) && !isDecimal(f.Name) {
				p.fail(f, "field name %q is not a valid identifier", f.Name)
			}
			s := f.Name + " : " + p.typ(f.Type)
			if f.Flip {
				s = "flip " + s
			}
			parts = append(parts, s)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	p.fail(t, "cannot format type %s", t.Kind())
	return ""
}

func (p *printer) width(n ast.Node, w *big.Int) string {
	if w == nil {
		return ""
	}
	return "<" + p.integer(n, "width", w, false) + ">"
}

// --- Expressions ---

func (p *printer) expr(e ast.Expr) string {
	if ast.IsNil(e) {
		p.fail(nil, "expression is nil")
		return ""
	}
	switch e := e.(type) {
	case *ast.Reference:
		return p.name(e, "reference", e.Name)
	case *ast.SubField:
		if !isIdent(e.Field) && !isDecimal(e.Field) {
			p.fail(e, "field name %q is not a valid identifier", e.Field)
		}
		return p.expr(e.Expr) + "." + e.Field
	case *ast.SubIndex:
		return p.expr(e.Expr) + "[" + p.integer(e, "index", e.Index, false) + "]"
	case *ast.SubAccess:
		return p.expr(e.Expr) + "[" + p.expr(e.Index) + "]"
	case *ast.Literal:
		kw := "UInt"
		if e.Signed {
			kw = "SInt"
		}
		return kw + p.width(e, e.Width) + "(" + p.integer(e, "literal", e.Value, e.Signed) + ")"
	case *ast.Mux:
		return "mux(" + p.expr(e.Cond) + ", " + p.expr(e.High) + ", " + p.expr(e.Low) + ")"
	case *ast.ValidIf:
		return "validif(" + p.expr(e.Cond) + ", " + p.expr(e.Value) + ")"
	case *ast.PrimOp:
		return p.primop(e)
	}
	p.fail(e, "cannot format expression %s", e.Kind())
	return ""
}

// primop prints "op(operands..., params...)" after checking the counts
// against the operator table.
func (p *printer) primop(e *ast.PrimOp) string {
	if !e.Op.Valid() {
		p.fail(e, "unknown primitive operation %d", int(e.Op))
		return ""
	}
	if err := primop.Check(e.Op, len(e.Args), len(e.Params)); err != nil {
		p.fail(e, "%s", err.Error())
		return ""
	}
	parts := make([]string, 0, len(e.Args)+len(e.Params))
	for _, arg := range e.Args {
		parts = append(parts, p.expr(arg))
	}
	for _, param := range e.Params {
		parts = append(parts, p.integer(e, e.Op.String()+" parameter", param, false))
	}
	return e.Op.String() + "(" + strings.Join(parts, ", ") + ")"
}

// --- Scalars ---

func (p *printer) integer(n ast.Node, what string, v *big.Int, signed bool) string {
	if v == nil {
		p.fail(n, "%s is missing", what)
		return "0"
	}
	if !signed && v.Sign() < 0 {
		p.fail(n, "%s must be non-negative, found %s", what, v)
	}
	return v.String()
}

func (p *printer) double(n ast.Node, v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		p.fail(n, "double parameter %v cannot be printed", v)
		return "0.0"
	}
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			sb.WriteString(`\\`)
		case '"':
			sb.WriteString(`\"`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

func formatInfo(info ast.Info) string {
	if info == "" {
		return ""
	}
	r := strings.NewReplacer(`\`, `\\`, "]", `\]`, "\n", `\n`, "\t", `\t`)
	return " @[" + r.Replace(string(info)) + "]"
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		switch {
		case ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z'):
		case i > 0 && (ch == '$' || (ch >= '0' && ch <= '9')):
		default:
			return false
		}
	}
	return true
}

func isDecimal(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
