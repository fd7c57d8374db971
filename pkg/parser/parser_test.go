package parser_test

import (
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/thomasrohde/firrtl/pkg/ast"
	"github.com/thomasrohde/firrtl/pkg/diagnostics"
	"github.com/thomasrohde/firrtl/pkg/lexer"
	"github.com/thomasrohde/firrtl/pkg/parser"
	"github.com/thomasrohde/firrtl/pkg/primop"
)

// helper: parse source and assert success
func mustParse(t *testing.T, source string) *ast.Circuit {
	t.Helper()
	c, err := parser.Parse(source, "test.fir")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c == nil {
		t.Fatal("expected non-nil circuit")
	}
	return c
}

// helper: parse source and assert it fails with the given kind
func mustFail(t *testing.T, source string, kind parser.ErrorKind) *parser.Error {
	t.Helper()
	c, err := parser.Parse(source, "test.fir")
	if err == nil {
		t.Fatal("expected parse to fail, but it succeeded")
	}
	if c != nil {
		t.Error("expected nil circuit on failure")
	}
	var pe *parser.Error
	if !errors.As(err, &pe) {
		t.Fatalf("expected *parser.Error, got %T", err)
	}
	if pe.Kind != kind {
		t.Fatalf("expected %s, got %s (%v)", kind, pe.Kind, err)
	}
	return pe
}

// helper: wrap statement lines in a one-module circuit
func body(lines ...string) string {
	var sb strings.Builder
	sb.WriteString("circuit Top :\n  module Top :\n")
	for _, l := range lines {
		sb.WriteString("    ")
		sb.WriteString(l)
		sb.WriteString("\n")
	}
	return sb.String()
}

// helper: parse a module body and return its statements
func stmts(t *testing.T, lines ...string) []ast.Stmt {
	t.Helper()
	c := mustParse(t, body(lines...))
	m := c.Modules[0].(*ast.Module)
	return m.Body.(*ast.Block).Stmts
}

// helper: parse the value of "node n = <expr>"
func expr(t *testing.T, source string) ast.Expr {
	t.Helper()
	s := stmts(t, "node n = "+source)
	if len(s) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(s))
	}
	return s[0].(*ast.DefNode).Value
}

func n(v int64) *big.Int { return big.NewInt(v) }

func ref(name string) *ast.Reference { return &ast.Reference{Name: name} }

func assertEqual(t *testing.T, want, got ast.Node) {
	t.Helper()
	if !ast.Equal(want, got) {
		t.Fatalf("tree mismatch (-want +got):\n%s", ast.Diff(want, got))
	}
}

// ---- 1. Circuits and modules ----

func TestMinimalCircuit(t *testing.T) {
	c := mustParse(t, "circuit Top :\n  module Top :\n    input a : UInt<1>\n    output b : UInt<1>\n    b <= a\n")

	want := &ast.Circuit{
		Name: "Top",
		Modules: []ast.DefModule{
			&ast.Module{
				Name: "Top",
				Ports: []*ast.Port{
					{Name: "a", Direction: ast.Input, Type: &ast.UIntType{Width: n(1)}},
					{Name: "b", Direction: ast.Output, Type: &ast.UIntType{Width: n(1)}},
				},
				Body: &ast.Block{Stmts: []ast.Stmt{
					&ast.Connect{Loc: ref("b"), Expr: ref("a")},
				}},
			},
		},
	}
	assertEqual(t, want, c)
}

func TestCircuitHeader(t *testing.T) {
	src := "FIRRTL version 1.1.0\ncircuit Top : %[[{\"class\":\"firrtl.Foo\"}]] @[top.scala 1:2]\n  module Top :\n    skip\n"
	c := mustParse(t, src)
	if c.Version != "1.1.0" {
		t.Errorf("expected version 1.1.0, got %q", c.Version)
	}
	if c.Annotations.Len() != 1 {
		t.Errorf("expected 1 annotation, got %d", c.Annotations.Len())
	}
	if c.Info != "top.scala 1:2" {
		t.Errorf("expected info, got %q", c.Info)
	}
}

func TestCircuitWithoutModules(t *testing.T) {
	c := mustParse(t, "circuit Top :\n")
	if len(c.Modules) != 0 {
		t.Fatalf("expected no modules, got %d", len(c.Modules))
	}
	if _, ok := c.Top(); ok {
		t.Error("expected no top module")
	}
}

func TestEmptyModuleBody(t *testing.T) {
	c := mustParse(t, "circuit Top :\n  module Top :\n  module Leaf :\n    input a : Clock\n")
	if len(c.Modules) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(c.Modules))
	}
	top := c.Modules[0].(*ast.Module)
	if len(top.Ports) != 0 || len(top.Body.(*ast.Block).Stmts) != 0 {
		t.Error("expected empty module")
	}
	leaf := c.Modules[1].(*ast.Module)
	if len(leaf.Ports) != 1 {
		t.Errorf("expected 1 port, got %d", len(leaf.Ports))
	}
}

func TestCommentsAndBlankLines(t *testing.T) {
	src := "; header comment\ncircuit Top : ; trailing\n\n  module Top :\n      ; odd comment indent\n    skip ; done\n\n"
	c := mustParse(t, src)
	s := c.Modules[0].(*ast.Module).Body.(*ast.Block).Stmts
	if len(s) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(s))
	}
}

func TestExtModule(t *testing.T) {
	src := "circuit Top :\n  extmodule BlackBox :\n    input in : UInt<8>\n    output out : UInt<8>\n" +
		"    defname = RealBox\n    parameter WIDTH = 8\n    parameter RATIO = 1.5\n    parameter NAME = \"box\"\n    parameter TYPE = 'bit'\n"
	c := mustParse(t, src)

	want := &ast.ExtModule{
		Name: "BlackBox",
		Ports: []*ast.Port{
			{Name: "in", Direction: ast.Input, Type: &ast.UIntType{Width: n(8)}},
			{Name: "out", Direction: ast.Output, Type: &ast.UIntType{Width: n(8)}},
		},
		DefName: "RealBox",
		Params: []*ast.Param{
			{Name: "WIDTH", Value: &ast.IntParam{Value: n(8)}},
			{Name: "RATIO", Value: &ast.DoubleParam{Value: 1.5}},
			{Name: "NAME", Value: &ast.StringParam{Value: "box"}},
			{Name: "TYPE", Value: &ast.RawStringParam{Value: "bit"}},
		},
	}
	assertEqual(t, want, c.Modules[0])
}

func TestSpans(t *testing.T) {
	c := mustParse(t, body("wire w : UInt<4>"))
	w := c.Modules[0].(*ast.Module).Body.(*ast.Block).Stmts[0]
	span := w.NodeSpan()
	if span.File != "test.fir" || span.StartLine != 3 || span.StartCol != 5 {
		t.Errorf("unexpected start %+v", span)
	}
	if span.EndLine != 3 || span.EndCol != 21 {
		t.Errorf("unexpected end %+v", span)
	}
}

// ---- 2. Types ----

func TestGroundTypes(t *testing.T) {
	tests := []struct {
		source string
		want   ast.Type
	}{
		{"UInt<8>", &ast.UIntType{Width: n(8)}},
		{"UInt", &ast.UIntType{}},
		{"SInt<0x10>", &ast.SIntType{Width: n(16)}},
		{"Analog<3>", &ast.AnalogType{Width: n(3)}},
		{"Clock", &ast.ClockType{}},
		{"Reset", &ast.ResetType{}},
		{"AsyncReset", &ast.AsyncResetType{}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			s := stmts(t, "wire w : "+tt.source)
			assertEqual(t, tt.want, s[0].(*ast.Wire).Type)
		})
	}
}

func TestVectorType(t *testing.T) {
	s := stmts(t, "wire w : UInt<8>[4][2]")
	want := &ast.VectorType{
		Elem: &ast.VectorType{Elem: &ast.UIntType{Width: n(8)}, Size: n(4)},
		Size: n(2),
	}
	assertEqual(t, want, s[0].(*ast.Wire).Type)
}

func TestBundleType(t *testing.T) {
	s := stmts(t, "wire w : {flip ready : UInt<1>, valid : UInt<1>, bits : {a : SInt, flip : Clock}[2]}")
	want := &ast.BundleType{Fields: []*ast.Field{
		{Name: "ready", Flip: true, Type: &ast.UIntType{Width: n(1)}},
		{Name: "valid", Type: &ast.UIntType{Width: n(1)}},
		{Name: "bits", Type: &ast.VectorType{
			Elem: &ast.BundleType{Fields: []*ast.Field{
				{Name: "a", Type: &ast.SIntType{}},
				{Name: "flip", Type: &ast.ClockType{}},
			}},
			Size: n(2),
		}},
	}}
	assertEqual(t, want, s[0].(*ast.Wire).Type)
}

func TestBundleAcrossLines(t *testing.T) {
	src := "circuit Top :\n  module Top :\n    output io : {\n      a : UInt<1>,\n      flip b : UInt<2>\n    }\n    io.a <= io.b\n"
	c := mustParse(t, src)
	m := c.Modules[0].(*ast.Module)
	b := m.Ports[0].Type.(*ast.BundleType)
	if len(b.Fields) != 2 || !b.Fields[1].Flip {
		t.Fatalf("unexpected bundle %+v", b.Fields)
	}
	if len(m.Body.(*ast.Block).Stmts) != 1 {
		t.Fatal("expected connect after bundle port")
	}
}

func TestDuplicateBundleField(t *testing.T) {
	for _, src := range []string{
		"input a : {flip flip : UInt<1>, flip : UInt}",
		"wire w : {a : UInt, b : SInt, a : SInt}",
		"wire w : {x : {0 : UInt, 0 : UInt}}",
	} {
		pe := mustFail(t, body(src), parser.ErrStructural)
		if !strings.Contains(pe.Diag.Message, "more than once") {
			t.Errorf("unexpected message %q", pe.Diag.Message)
		}
	}
	// the same name in sibling bundles is fine
	stmts(t, "wire w : {a : {x : UInt}, b : {x : UInt}}")
}

func TestEmptyBundle(t *testing.T) {
	s := stmts(t, "wire w : {}")
	if got := s[0].(*ast.Wire).Type.(*ast.BundleType); len(got.Fields) != 0 {
		t.Fatalf("expected empty bundle, got %d fields", len(got.Fields))
	}
}

// ---- 3. Statements ----

func TestDeclarations(t *testing.T) {
	s := stmts(t,
		"wire w : UInt<4>",
		"node x = w",
		"inst sub of Leaf",
		"reg r : UInt<4>, clock",
		"regreset rr : UInt<4>, clock, reset, UInt<4>(0)",
		"skip",
	)
	want := []ast.Stmt{
		&ast.Wire{Name: "w", Type: &ast.UIntType{Width: n(4)}},
		&ast.DefNode{Name: "x", Value: ref("w")},
		&ast.Inst{Name: "sub", Module: "Leaf"},
		&ast.Reg{Name: "r", Type: &ast.UIntType{Width: n(4)}, Clock: ref("clock")},
		&ast.Reg{Name: "rr", Type: &ast.UIntType{Width: n(4)}, Clock: ref("clock"), Reset: ref("reset"),
			Init: &ast.Literal{Width: n(4), Value: n(0)}},
		&ast.Skip{},
	}
	assertEqual(t, &ast.Block{Stmts: want}, &ast.Block{Stmts: s})
}

func TestRegWithReset(t *testing.T) {
	want := &ast.Reg{
		Name:  "r",
		Type:  &ast.UIntType{Width: n(8)},
		Clock: ref("clk"),
		Reset: ref("rst"),
		Init:  &ast.Literal{Value: n(0)},
	}

	t.Run("same line", func(t *testing.T) {
		s := stmts(t, "reg r : UInt<8>, clk with : (reset => (rst, UInt(0)))")
		assertEqual(t, want, s[0])
	})
	t.Run("continued", func(t *testing.T) {
		s := stmts(t, "reg r : UInt<8>, clk with :", "  (reset => (rst, UInt(0)))")
		if len(s) != 1 {
			t.Fatalf("expected 1 statement, got %d", len(s))
		}
		assertEqual(t, want, s[0])
	})
	t.Run("bare same line", func(t *testing.T) {
		s := stmts(t, "reg r : UInt<8>, clk with : reset => (rst, UInt(0))")
		assertEqual(t, want, s[0])
	})
	t.Run("bare continued", func(t *testing.T) {
		s := stmts(t, "reg r : UInt<8>, clk with :", "  reset => (rst, UInt(0))", "skip")
		if len(s) != 2 {
			t.Fatalf("expected 2 statements, got %d", len(s))
		}
		assertEqual(t, want, s[0])
	})
}

func TestRegResetUnbalanced(t *testing.T) {
	for _, src := range []string{
		"reg r : UInt<8>, clk with : (reset => (rst, UInt(0))",
		"reg r : UInt<8>, clk with : reset => (rst, UInt(0)))",
	} {
		mustFail(t, body(src), parser.ErrStructural)
	}
}

func TestConnects(t *testing.T) {
	s := stmts(t,
		"a <= b",
		"a.x <- b.y",
		"a[0] is invalid",
		"attach(x, y, z)",
	)
	want := []ast.Stmt{
		&ast.Connect{Loc: ref("a"), Expr: ref("b")},
		&ast.PartialConnect{
			Loc:  &ast.SubField{Expr: ref("a"), Field: "x"},
			Expr: &ast.SubField{Expr: ref("b"), Field: "y"},
		},
		&ast.Invalidate{Expr: &ast.SubIndex{Expr: ref("a"), Index: n(0)}},
		&ast.Attach{Exprs: []ast.Expr{ref("x"), ref("y"), ref("z")}},
	}
	assertEqual(t, &ast.Block{Stmts: want}, &ast.Block{Stmts: s})
}

func TestKeywordsAsNames(t *testing.T) {
	s := stmts(t,
		"wire node : UInt",
		"node when = node",
		"when <= mux",
		"inst is invalid",
		"skip.x <= reg[1]",
		"node reg = wire",
	)
	if len(s) != 6 {
		t.Fatalf("expected 6 statements, got %d", len(s))
	}
	if w := s[0].(*ast.Wire); w.Name != "node" {
		t.Errorf("expected wire named node, got %q", w.Name)
	}
	if c := s[2].(*ast.Connect); c.Loc.(*ast.Reference).Name != "when" {
		t.Errorf("expected connect to when, got %+v", c.Loc)
	}
	if _, ok := s[3].(*ast.Invalidate); !ok {
		t.Errorf("expected Invalidate, got %T", s[3])
	}
	if _, ok := s[4].(*ast.Connect); !ok {
		t.Errorf("expected Connect, got %T", s[4])
	}
}

func TestStopAndPrintf(t *testing.T) {
	s := stmts(t,
		"stop(clk, en, 1)",
		"stop(clk, en, 0) : halt",
		`printf(clk, en, "x=%d y=%x\n", x, y) : trace`,
		`printf(clk, en, "plain")`,
	)
	want := []ast.Stmt{
		&ast.Stop{Clock: ref("clk"), Enable: ref("en"), ExitCode: n(1)},
		&ast.Stop{Clock: ref("clk"), Enable: ref("en"), ExitCode: n(0), Name: "halt"},
		&ast.Printf{Clock: ref("clk"), Enable: ref("en"), Format: "x=%d y=%x\n",
			Args: []ast.Expr{ref("x"), ref("y")}, Name: "trace"},
		&ast.Printf{Clock: ref("clk"), Enable: ref("en"), Format: "plain"},
	}
	assertEqual(t, &ast.Block{Stmts: want}, &ast.Block{Stmts: s})
}

func TestInfoOnStatements(t *testing.T) {
	s := stmts(t, "wire w : UInt @[a.scala 3:4]", "skip @[b.scala 5:6]")
	if got := s[0].(*ast.Wire).Info; got != "a.scala 3:4" {
		t.Errorf("expected wire info, got %q", got)
	}
	if got := s[1].(*ast.Skip).Info; got != "b.scala 5:6" {
		t.Errorf("expected skip info, got %q", got)
	}
}

// ---- 4. Memories ----

func TestMem(t *testing.T) {
	s := stmts(t,
		"mem m :",
		"  data-type => UInt<8>",
		"  depth => 32",
		"  read-latency => 1",
		"  write-latency => 1",
		"  reader => r0",
		"  reader => r1",
		"  writer => w",
		"  readwriter => rw",
		"  read-under-write => old",
		"m.r0.addr <= a",
	)
	want := &ast.Mem{
		Name:           "m",
		DataType:       &ast.UIntType{Width: n(8)},
		Depth:          n(32),
		ReadLatency:    n(1),
		WriteLatency:   n(1),
		Readers:        []string{"r0", "r1"},
		Writers:        []string{"w"},
		ReadWriters:    []string{"rw"},
		ReadUnderWrite: ast.RUWOld,
	}
	if len(s) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(s))
	}
	assertEqual(t, want, s[0])
}

func TestMemErrors(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		msg   string
	}{
		{"no depth", []string{"mem m :", "  data-type => UInt<8>"}, "has no depth"},
		{"no data-type", []string{"mem m :", "  depth => 4"}, "has no data-type"},
		{"duplicate", []string{"mem m :", "  depth => 4", "  depth => 8"}, "duplicate memory entry"},
		{"unknown", []string{"mem m :", "  data-type => UInt", "  width => 8"}, "unknown memory entry"},
		{"bad ruw", []string{"mem m :", "  read-under-write => maybe"}, "expected 'old', 'new' or 'undefined'"},
		{"negative depth", []string{"mem m :", "  data-type => UInt", "  depth => -1"}, "must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := mustFail(t, body(tt.lines...), parser.ErrStructural)
			if !strings.Contains(pe.Diag.Message, tt.msg) {
				t.Errorf("expected %q in %q", tt.msg, pe.Diag.Message)
			}
		})
	}
}

func TestCMemAndMemPorts(t *testing.T) {
	s := stmts(t,
		"cmem c : UInt<8>[16]",
		"smem s : UInt<8>[16], new",
		"smem u : UInt<8>[16]",
		"read mport r = s[addr], clk",
		"write mport w = c[addr] clk",
		"rdwr mport x = s[UInt(1)], clk",
		"infer mport y = c[a.b], clk",
	)
	vec := &ast.VectorType{Elem: &ast.UIntType{Width: n(8)}, Size: n(16)}
	want := []ast.Stmt{
		&ast.CMem{Name: "c", Type: vec},
		&ast.CMem{Name: "s", Type: vec, Sequential: true, ReadUnderWrite: ast.RUWNew},
		&ast.CMem{Name: "u", Type: vec, Sequential: true},
		&ast.MemPort{Dir: ast.PortRead, Name: "r", Mem: "s", Addr: ref("addr"), Clock: ref("clk")},
		&ast.MemPort{Dir: ast.PortWrite, Name: "w", Mem: "c", Addr: ref("addr"), Clock: ref("clk")},
		&ast.MemPort{Dir: ast.PortReadWrite, Name: "x", Mem: "s", Addr: &ast.Literal{Value: n(1)}, Clock: ref("clk")},
		&ast.MemPort{Dir: ast.PortInfer, Name: "y", Mem: "c", Addr: &ast.SubField{Expr: ref("a"), Field: "b"}, Clock: ref("clk")},
	}
	assertEqual(t, &ast.Block{Stmts: want}, &ast.Block{Stmts: s})
}

// ---- 5. Conditionals ----

func TestWhenElse(t *testing.T) {
	s := stmts(t,
		"when c :",
		"  a <= b",
		"else :",
		"  a <= d",
	)
	want := &ast.When{
		Cond: ref("c"),
		Then: &ast.Block{Stmts: []ast.Stmt{&ast.Connect{Loc: ref("a"), Expr: ref("b")}}},
		Else: &ast.Block{Stmts: []ast.Stmt{&ast.Connect{Loc: ref("a"), Expr: ref("d")}}},
	}
	if len(s) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(s))
	}
	assertEqual(t, want, s[0])
}

func TestElseWhenChain(t *testing.T) {
	s := stmts(t,
		"when a :",
		"  x <= UInt(1)",
		"else when b :",
		"  x <= UInt(2)",
		"else :",
		"  x <= UInt(3)",
		"skip",
	)
	if len(s) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(s))
	}
	w := s[0].(*ast.When)
	inner, ok := w.Else.(*ast.When)
	if !ok {
		t.Fatalf("expected else-when, got %T", w.Else)
	}
	if inner.Cond.(*ast.Reference).Name != "b" {
		t.Errorf("expected inner condition b")
	}
	if _, ok := inner.Else.(*ast.Block); !ok {
		t.Fatalf("expected final else block, got %T", inner.Else)
	}
}

func TestInlineWhen(t *testing.T) {
	s := stmts(t, "when c : a <= b", "else : skip")
	w := s[0].(*ast.When)
	then := w.Then.(*ast.Block)
	if len(then.Stmts) != 1 {
		t.Fatalf("expected inline then, got %d statements", len(then.Stmts))
	}
	if _, ok := w.Else.(*ast.Block).Stmts[0].(*ast.Skip); !ok {
		t.Fatalf("expected inline else skip")
	}
}

func TestEmptyWhenBody(t *testing.T) {
	s := stmts(t, "when c :", "skip")
	if len(s) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(s))
	}
	if then := s[0].(*ast.When).Then.(*ast.Block); len(then.Stmts) != 0 {
		t.Fatalf("expected empty then block")
	}
}

func TestNestedWhenElseBinding(t *testing.T) {
	// the else lines up with the outer when
	s := stmts(t,
		"when a :",
		"  when b :",
		"    x <= y",
		"else :",
		"  x <= z",
	)
	outer := s[0].(*ast.When)
	if outer.Else == nil {
		t.Fatal("expected else on outer when")
	}
	inner := outer.Then.(*ast.Block).Stmts[0].(*ast.When)
	if inner.Else != nil {
		t.Fatal("expected no else on inner when")
	}
}

// ---- 6. Expressions ----

func TestLiterals(t *testing.T) {
	tests := []struct {
		source string
		want   *ast.Literal
	}{
		{"UInt<8>(42)", &ast.Literal{Width: n(8), Value: n(42)}},
		{"UInt(0x2A)", &ast.Literal{Value: n(42)}},
		{`UInt<8>("h2A")`, &ast.Literal{Width: n(8), Value: n(42)}},
		{`UInt("b101")`, &ast.Literal{Value: n(5)}},
		{"SInt<4>(-3)", &ast.Literal{Signed: true, Width: n(4), Value: n(-3)}},
		{`SInt("h-1f")`, &ast.Literal{Signed: true, Value: n(-31)}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertEqual(t, tt.want, expr(t, tt.source))
		})
	}
}

func TestBigLiteral(t *testing.T) {
	e := expr(t, "UInt<200>(12345678901234567890123456789012345678901234567890)")
	want, _ := new(big.Int).SetString("12345678901234567890123456789012345678901234567890", 10)
	if got := e.(*ast.Literal).Value; got.Cmp(want) != 0 {
		t.Fatalf("expected %s, got %s", want, got)
	}
}

func TestAccessors(t *testing.T) {
	e := expr(t, "io.in[3].bits[idx.x]")
	want := &ast.SubAccess{
		Expr: &ast.SubField{
			Expr: &ast.SubIndex{
				Expr:  &ast.SubField{Expr: ref("io"), Field: "in"},
				Index: n(3),
			},
			Field: "bits",
		},
		Index: &ast.SubField{Expr: ref("idx"), Field: "x"},
	}
	assertEqual(t, want, e)
}

func TestNumericSubfieldChain(t *testing.T) {
	want := &ast.SubField{
		Expr:  &ast.SubField{Expr: &ast.SubField{Expr: ref("a"), Field: "0"}, Field: "1"},
		Field: "2",
	}
	for _, src := range []string{"a.0.1.2", "a.0 .1 .2", "a.0.1 .2"} {
		assertEqual(t, want, expr(t, src))
	}
}

func TestMuxAndValidIf(t *testing.T) {
	e := expr(t, "mux(sel, validif(v, a), UInt(0))")
	want := &ast.Mux{
		Cond: ref("sel"),
		High: &ast.ValidIf{Cond: ref("v"), Value: ref("a")},
		Low:  &ast.Literal{Value: n(0)},
	}
	assertEqual(t, want, e)
}

func TestPrimOps(t *testing.T) {
	tests := []struct {
		source string
		want   *ast.PrimOp
	}{
		{"add(a, b)", &ast.PrimOp{Op: primop.Add, Args: []ast.Expr{ref("a"), ref("b")}}},
		{"bits(x, 7, 0)", &ast.PrimOp{Op: primop.Bits, Args: []ast.Expr{ref("x")}, Params: []*big.Int{n(7), n(0)}}},
		{"pad(x, 16)", &ast.PrimOp{Op: primop.Pad, Args: []ast.Expr{ref("x")}, Params: []*big.Int{n(16)}}},
		{"not(andr(x))", &ast.PrimOp{Op: primop.Not, Args: []ast.Expr{
			&ast.PrimOp{Op: primop.Andr, Args: []ast.Expr{ref("x")}},
		}}},
		{"shl(UInt(1), 2)", &ast.PrimOp{Op: primop.Shl, Args: []ast.Expr{&ast.Literal{Value: n(1)}}, Params: []*big.Int{n(2)}}},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assertEqual(t, tt.want, expr(t, tt.source))
		})
	}
}

// ---- 7. Errors ----

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		msg    string
	}{
		{"empty", "", "expected 'circuit'"},
		{"no circuit", "module Top :\n", "expected 'circuit'"},
		{"unexpected indent", body("skip", "  skip"), "unexpected indent"},
		{"bad dedent", "circuit Top :\n    module Top :\n      skip\n   skip\n", "does not match any enclosing block"},
		{"after circuit", "circuit Top :\n  module Top :\n    skip\nmodule X :\n", "unexpected content after circuit"},
		{"late port", body("skip", "input a : UInt"), "port declarations must precede statements"},
		{"lone else", body("skip", "else :", "  skip"), "'else' without a matching 'when'"},
		{"unknown primop", body("node x = frob(a)"), "unknown primitive operation 'frob'"},
		{"negative UInt", body("node x = UInt(-1)"), "UInt literal cannot be negative"},
		{"params first", body("node x = bits(3, a, 1)"), "operands must precede parameters"},
		{"negative param", body("node x = shl(a, -1)"), "must be non-negative"},
		{"unknown type", body("wire w : Bool"), "unknown type 'Bool'"},
		{"bad statement", body("a b"), "expected '<=', '<-' or 'is invalid'"},
		{"bad annotations", "circuit Top : %[{\"class\":\"x\"}]\n", "annotations must be a JSON array"},
		{"trailing tokens", body("wire w : UInt extra"), "expected end of line"},
		{"not a module", "circuit Top :\n  wire w : UInt\n", "expected 'module' or 'extmodule'"},
		{"bad literal", body(`node x = UInt("zz")`), "invalid literal value"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := mustFail(t, tt.source, parser.ErrStructural)
			if pe.Diag.Code != diagnostics.EStruct {
				t.Errorf("expected %s, got %s", diagnostics.EStruct, pe.Diag.Code)
			}
			if !strings.Contains(pe.Diag.Message, tt.msg) {
				t.Errorf("expected %q in %q", tt.msg, pe.Diag.Message)
			}
		})
	}
}

func TestErrorPosition(t *testing.T) {
	pe := mustFail(t, body("skip", "  skip"), parser.ErrStructural)
	if pe.Diag.Span == nil || pe.Diag.Span.StartLine != 4 {
		t.Fatalf("expected error on line 4, got %+v", pe.Diag.Span)
	}
	if !strings.HasPrefix(pe.Error(), "test.fir:4:") {
		t.Errorf("expected location prefix, got %q", pe.Error())
	}
}

func TestArityErrors(t *testing.T) {
	tests := []string{
		"add(a)",
		"add(a, b, c)",
		"bits(x, 1)",
		"not(x, 1)",
		"cat()",
	}

	for _, src := range tests {
		t.Run(src, func(t *testing.T) {
			pe := mustFail(t, body("node x = "+src), parser.ErrArity)
			if pe.Diag.Code != diagnostics.EArity {
				t.Errorf("expected %s, got %s", diagnostics.EArity, pe.Diag.Code)
			}
			var ae *primop.ArityError
			if !errors.As(pe, &ae) {
				t.Fatalf("expected wrapped ArityError, got %v", pe)
			}
		})
	}
}

func TestArityErrorDetail(t *testing.T) {
	pe := mustFail(t, body("node x = add(a, b, c)"), parser.ErrArity)
	var ae *primop.ArityError
	if !errors.As(pe, &ae) {
		t.Fatal("expected wrapped ArityError")
	}
	if ae.Op != "add" || ae.WantOperands != 2 || ae.GotOperands != 3 {
		t.Errorf("unexpected arity error %+v", ae)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []string{
		body(`printf(clk, en, "unterminated)`),
		body("wire w : UInt @[never closed"),
		body("node x = a # b"),
	}

	for _, src := range tests {
		pe := mustFail(t, src, parser.ErrLex)
		if pe.Diag.Code != diagnostics.ELex {
			t.Errorf("expected %s, got %s", diagnostics.ELex, pe.Diag.Code)
		}
		var le *lexer.LexError
		if !errors.As(pe, &le) {
			t.Errorf("expected wrapped LexError, got %v", pe)
		}
	}
}
