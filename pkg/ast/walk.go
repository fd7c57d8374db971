package ast

import "reflect"

// Inspect traverses the tree rooted at n in depth-first order. It calls f on
// each node; if f returns false the node's children are skipped. Nil
// children are not visited.
func Inspect(n Node, f func(Node) bool) {
	if IsNil(n) || !f(n) {
		return
	}
	switch n := n.(type) {
	case *Circuit:
		for _, m := range n.Modules {
			Inspect(m, f)
		}
	case *Module:
		for _, p := range n.Ports {
			Inspect(p, f)
		}
		inspectStmt(n.Body, f)
	case *ExtModule:
		for _, p := range n.Ports {
			Inspect(p, f)
		}
		for _, p := range n.Params {
			Inspect(p, f)
		}
	case *Param:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *Port:
		inspectType(n.Type, f)

	// types
	case *BundleType:
		for _, fl := range n.Fields {
			Inspect(fl, f)
		}
	case *Field:
		inspectType(n.Type, f)
	case *VectorType:
		inspectType(n.Elem, f)

	// statements
	case *Block:
		for _, s := range n.Stmts {
			inspectStmt(s, f)
		}
	case *Wire:
		inspectType(n.Type, f)
	case *Reg:
		inspectType(n.Type, f)
		inspectExpr(n.Clock, f)
		inspectExpr(n.Reset, f)
		inspectExpr(n.Init, f)
	case *Mem:
		inspectType(n.DataType, f)
	case *CMem:
		inspectType(n.Type, f)
	case *MemPort:
		inspectExpr(n.Addr, f)
		inspectExpr(n.Clock, f)
	case *DefNode:
		inspectExpr(n.Value, f)
	case *Connect:
		inspectExpr(n.Loc, f)
		inspectExpr(n.Expr, f)
	case *PartialConnect:
		inspectExpr(n.Loc, f)
		inspectExpr(n.Expr, f)
	case *Invalidate:
		inspectExpr(n.Expr, f)
	case *When:
		inspectExpr(n.Cond, f)
		inspectStmt(n.Then, f)
		inspectStmt(n.Else, f)
	case *Stop:
		inspectExpr(n.Clock, f)
		inspectExpr(n.Enable, f)
	case *Printf:
		inspectExpr(n.Clock, f)
		inspectExpr(n.Enable, f)
		for _, a := range n.Args {
			inspectExpr(a, f)
		}
	case *Attach:
		for _, e := range n.Exprs {
			inspectExpr(e, f)
		}

	// expressions
	case *SubField:
		inspectExpr(n.Expr, f)
	case *SubIndex:
		inspectExpr(n.Expr, f)
	case *SubAccess:
		inspectExpr(n.Expr, f)
		inspectExpr(n.Index, f)
	case *Mux:
		inspectExpr(n.Cond, f)
		inspectExpr(n.High, f)
		inspectExpr(n.Low, f)
	case *ValidIf:
		inspectExpr(n.Cond, f)
		inspectExpr(n.Value, f)
	case *PrimOp:
		for _, a := range n.Args {
			inspectExpr(a, f)
		}
	}
}

func inspectStmt(s Stmt, f func(Node) bool) {
	if s != nil {
		Inspect(s, f)
	}
}

func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectType(t Type, f func(Node) bool) {
	if t != nil {
		Inspect(t, f)
	}
}

// IsNil reports whether n is nil or a typed nil pointer stored in the
// interface.
func IsNil(n Node) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// Instances returns every instance statement under s in source order,
// including those nested in when and else bodies.
func Instances(s Stmt) []*Inst {
	var out []*Inst
	inspectStmt(s, func(n Node) bool {
		switch n := n.(type) {
		case *Inst:
			out = append(out, n)
		case Expr, Type:
			return false
		}
		return true
	})
	return out
}
