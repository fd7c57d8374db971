// Package validator checks circuit-level invariants that the parser cannot
// enforce one statement at a time.
package validator

import (
	"fmt"

	"github.com/thomasrohde/firrtl/pkg/ast"
	"github.com/thomasrohde/firrtl/pkg/diagnostics"
	"github.com/thomasrohde/firrtl/pkg/primop"
)

type validator struct {
	diags []diagnostics.Diagnostic
}

// Validate checks c and returns every problem found. It never stops at the
// first one.
func Validate(c *ast.Circuit) []diagnostics.Diagnostic {
	v := &validator{}
	if c == nil {
		return v.diags
	}

	if c.Annotations != "" && !c.Annotations.Valid() {
		v.addDiag(diagnostics.EAnnotation, "circuit annotations must be a JSON array", c)
	}

	seen := make(map[string]bool, len(c.Modules))
	for _, m := range c.Modules {
		if ast.IsNil(m) {
			continue
		}
		name := m.ModuleName()
		if seen[name] {
			v.addDiag(diagnostics.EDupModule, fmt.Sprintf("module '%s' is defined more than once", name), m)
		}
		seen[name] = true
		v.validateModule(m)
	}

	if _, ok := c.Top(); !ok {
		v.addDiagHint(diagnostics.ENoTop, fmt.Sprintf("circuit '%s' has no module named '%s'", c.Name, c.Name), c,
			"the top module must share the circuit's name")
	}
	return v.diags
}

func (v *validator) addDiag(code, msg string, n ast.Node) {
	v.addDiagHint(code, msg, n, "")
}

func (v *validator) addDiagHint(code, msg string, n ast.Node, hint string) {
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, spanOf(n), hint))
}

// spanOf returns nil for nodes built without a source position.
func spanOf(n ast.Node) *ast.Span {
	if ast.IsNil(n) {
		return nil
	}
	s := n.NodeSpan()
	if s == (ast.Span{}) {
		return nil
	}
	return &s
}

// namespace tracks the names declared in one module. FIRRTL names are
// module-wide, so when and else bodies share it.
type namespace map[string]bool

func (v *validator) declare(ns namespace, name string, n ast.Node) {
	if ns[name] {
		v.addDiag(diagnostics.EDupName, fmt.Sprintf("'%s' is declared more than once", name), n)
		return
	}
	ns[name] = true
}

func (v *validator) validateModule(m ast.DefModule) {
	ns := namespace{}
	for _, p := range m.ModulePorts() {
		if p == nil {
			continue
		}
		if ns[p.Name] {
			v.addDiag(diagnostics.EDupPort, fmt.Sprintf("module '%s' declares port '%s' more than once", m.ModuleName(), p.Name), p)
		}
		ns[p.Name] = true
		v.validateType(p.Type)
	}

	if mod, ok := m.(*ast.Module); ok {
		v.validateStmt(mod.Body, ns)
	}
}

func (v *validator) validateStmt(s ast.Stmt, ns namespace) {
	if ast.IsNil(s) {
		return
	}

	switch s := s.(type) {
	case *ast.Block:
		for _, child := range s.Stmts {
			v.validateStmt(child, ns)
		}
	case *ast.Wire:
		v.declare(ns, s.Name, s)
		v.validateType(s.Type)
	case *ast.Reg:
		v.declare(ns, s.Name, s)
		v.validateType(s.Type)
		if (s.Reset == nil) != (s.Init == nil) {
			v.addDiag(diagnostics.ERegReset, fmt.Sprintf("register '%s' needs both a reset and an init value, or neither", s.Name), s)
		}
		v.validateExpr(s.Clock)
		v.validateExpr(s.Reset)
		v.validateExpr(s.Init)
	case *ast.Mem:
		v.declare(ns, s.Name, s)
		v.validateMem(s)
	case *ast.CMem:
		v.declare(ns, s.Name, s)
		v.validateType(s.Type)
		if !s.Sequential && s.ReadUnderWrite != ast.RUWUndefined {
			v.addDiag(diagnostics.EMem, fmt.Sprintf("cmem '%s' cannot carry a read-under-write policy", s.Name), s)
		}
	case *ast.MemPort:
		v.declare(ns, s.Name, s)
		v.validateExpr(s.Addr)
		v.validateExpr(s.Clock)
	case *ast.Inst:
		v.declare(ns, s.Name, s)
	case *ast.DefNode:
		v.declare(ns, s.Name, s)
		v.validateExpr(s.Value)
	case *ast.Connect:
		v.validateExpr(s.Loc)
		v.validateExpr(s.Expr)
	case *ast.PartialConnect:
		v.validateExpr(s.Loc)
		v.validateExpr(s.Expr)
	case *ast.Invalidate:
		v.validateExpr(s.Expr)
	case *ast.When:
		v.validateExpr(s.Cond)
		v.validateStmt(s.Then, ns)
		v.validateStmt(s.Else, ns)
	case *ast.Stop:
		v.validateExpr(s.Clock)
		v.validateExpr(s.Enable)
	case *ast.Printf:
		v.validateExpr(s.Clock)
		v.validateExpr(s.Enable)
		for _, a := range s.Args {
			v.validateExpr(a)
		}
	case *ast.Attach:
		for _, e := range s.Exprs {
			v.validateExpr(e)
		}
	}
}

func (v *validator) validateMem(m *ast.Mem) {
	if m.DataType == nil {
		v.addDiag(diagnostics.EMem, fmt.Sprintf("memory '%s' has no data-type", m.Name), m)
	} else {
		v.validateType(m.DataType)
	}
	if m.Depth == nil {
		v.addDiag(diagnostics.EMem, fmt.Sprintf("memory '%s' has no depth", m.Name), m)
	}

	ports := map[string]bool{}
	for _, group := range [][]string{m.Readers, m.Writers, m.ReadWriters} {
		for _, p := range group {
			if ports[p] {
				v.addDiag(diagnostics.EMem, fmt.Sprintf("memory '%s' declares port '%s' more than once", m.Name, p), m)
			}
			ports[p] = true
		}
	}
}

func (v *validator) validateType(t ast.Type) {
	if ast.IsNil(t) {
		return
	}
	switch t := t.(type) {
	case *ast.BundleType:
		seen := make(map[string]bool, len(t.Fields))
		for _, f := range t.Fields {
			if f == nil {
				continue
			}
			if seen[f.Name] {
				v.addDiag(diagnostics.EDupField, fmt.Sprintf("bundle declares field '%s' more than once", f.Name), f)
			}
			seen[f.Name] = true
			v.validateType(f.Type)
		}
	case *ast.VectorType:
		v.validateType(t.Elem)
	}
}

func (v *validator) validateExpr(e ast.Expr) {
	ast.Inspect(e, func(n ast.Node) bool {
		op, ok := n.(*ast.PrimOp)
		if !ok {
			return true
		}
		if !op.Op.Valid() {
			v.addDiag(diagnostics.EArity, fmt.Sprintf("unknown primitive operation %d", int(op.Op)), op)
			return true
		}
		if err := primop.Check(op.Op, len(op.Args), len(op.Params)); err != nil {
			v.addDiag(diagnostics.EArity, err.Error(), op)
		}
		return true
	})
}
