package ast_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thomasrohde/firrtl/pkg/ast"
	"github.com/thomasrohde/firrtl/pkg/primop"
)

func TestNodeKinds(t *testing.T) {
	nodes := []ast.Node{
		&ast.Circuit{},
		&ast.Module{},
		&ast.ExtModule{},
		&ast.UIntType{},
		&ast.BundleType{},
		&ast.Wire{},
		&ast.DefNode{},
		&ast.When{},
		&ast.Reference{},
		&ast.Literal{},
		&ast.PrimOp{},
	}

	expected := []string{
		"Circuit", "Module", "ExtModule", "UIntType", "BundleType",
		"Wire", "DefNode", "When", "Reference", "Literal", "PrimOp",
	}

	for i, node := range nodes {
		if got := node.Kind(); got != expected[i] {
			t.Errorf("node %d: got Kind() = %q, want %q", i, got, expected[i])
		}
	}
}

func TestCircuitTop(t *testing.T) {
	c := &ast.Circuit{
		Name: "Top",
		Modules: []ast.DefModule{
			&ast.ExtModule{Name: "Leaf"},
			&ast.Module{Name: "Top", Body: &ast.Block{}},
		},
	}
	top, ok := c.Top()
	require.True(t, ok)
	assert.Equal(t, "Module", top.Kind())

	_, ok = c.Module("Missing")
	assert.False(t, ok)
}

func TestEqualIgnoresSpansAndComparesIntsByValue(t *testing.T) {
	a := &ast.Literal{
		Span:  ast.Span{File: "a.fir", StartLine: 3},
		Width: big.NewInt(8),
		Value: big.NewInt(42),
	}
	b := &ast.Literal{
		Span:  ast.Span{File: "b.fir", StartLine: 9},
		Width: new(big.Int).SetInt64(8),
		Value: new(big.Int).SetInt64(42),
	}
	assert.True(t, ast.Equal(a, b))
	assert.Empty(t, ast.Diff(a, b))

	b.Width = nil
	assert.False(t, ast.Equal(a, b), "inferred width differs from declared width")
}

func TestEqualEmptyBlock(t *testing.T) {
	assert.True(t, ast.Equal(&ast.Block{}, &ast.Block{Stmts: []ast.Stmt{}}))
}

func TestInstancesFindsNestedWhen(t *testing.T) {
	body := &ast.Block{Stmts: []ast.Stmt{
		&ast.Inst{Name: "a", Module: "A"},
		&ast.When{
			Cond: &ast.Reference{Name: "c"},
			Then: &ast.Block{Stmts: []ast.Stmt{
				&ast.When{
					Cond: &ast.Reference{Name: "d"},
					Then: &ast.Block{Stmts: []ast.Stmt{&ast.Inst{Name: "b", Module: "B"}}},
				},
			}},
			Else: &ast.Block{Stmts: []ast.Stmt{&ast.Inst{Name: "c", Module: "C"}}},
		},
	}}

	var names []string
	for _, inst := range ast.Instances(body) {
		names = append(names, inst.Module)
	}
	assert.Equal(t, []string{"A", "B", "C"}, names)
}

func TestInspectVisitsExpressions(t *testing.T) {
	stmt := &ast.Connect{
		Loc: &ast.SubField{Expr: &ast.Reference{Name: "io"}, Field: "out"},
		Expr: &ast.PrimOp{
			Op:   primop.Add,
			Args: []ast.Expr{&ast.Reference{Name: "a"}, &ast.Reference{Name: "b"}},
		},
	}
	var refs []string
	ast.Inspect(stmt, func(n ast.Node) bool {
		if r, ok := n.(*ast.Reference); ok {
			refs = append(refs, r.Name)
		}
		return true
	})
	assert.Equal(t, []string{"io", "a", "b"}, refs)
}

func TestAnnotations(t *testing.T) {
	a := ast.Annotations(`[{"class":"firrtl.transforms.DontTouch","target":"~Top|Top>x"},{"target":"~Top"}]`)
	assert.True(t, a.Valid())
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, []string{"firrtl.transforms.DontTouch"}, a.Classes())

	assert.False(t, ast.Annotations(`{"class":"x"}`).Valid())
	assert.False(t, ast.Annotations(`[{"class":`).Valid())
	assert.Equal(t, 0, ast.Annotations("").Len())
}
