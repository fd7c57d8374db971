// Package ast defines the FIRRTL syntax tree node types.
//
// Nodes are built once by the parser and treated as read-only afterwards.
// Consumers that need a modified tree copy the nodes they change.
package ast

import (
	"math/big"

	"github.com/thomasrohde/firrtl/pkg/primop"
)

// Span represents a source location range.
type Span struct {
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	StartCol  int    `json:"startCol"`
	EndLine   int    `json:"endLine"`
	EndCol    int    `json:"endCol"`
}

// Node is the interface implemented by all AST nodes.
type Node interface {
	Kind() string
	NodeSpan() Span
}

// Info is the text of an @[...] source locator. Empty means absent.
type Info string

// --- Sealed interfaces ---

type DefModule interface {
	Node
	ModuleName() string
	ModulePorts() []*Port
	moduleNode() // sealed marker
}

type Type interface {
	Node
	typeNode() // sealed marker
}

type Stmt interface {
	Node
	stmtNode() // sealed marker
}

type Expr interface {
	Node
	exprNode() // sealed marker
}

type ParamValue interface {
	Node
	paramNode() // sealed marker
}

// --- Circuit ---

type Circuit struct {
	Span        Span
	Version     string
	Name        string
	Annotations Annotations
	Info        Info
	Modules     []DefModule
}

func (n *Circuit) Kind() string   { return "Circuit" }
func (n *Circuit) NodeSpan() Span { return n.Span }

// Top returns the first module named after the circuit.
func (n *Circuit) Top() (DefModule, bool) {
	return n.Module(n.Name)
}

// Module returns the first module with the given name.
func (n *Circuit) Module(name string) (DefModule, bool) {
	for _, m := range n.Modules {
		if m.ModuleName() == name {
			return m, true
		}
	}
	return nil, false
}

// --- Modules ---

type Module struct {
	Span  Span
	Name  string
	Info  Info
	Ports []*Port
	Body  Stmt
}

func (n *Module) Kind() string         { return "Module" }
func (n *Module) NodeSpan() Span       { return n.Span }
func (n *Module) ModuleName() string   { return n.Name }
func (n *Module) ModulePorts() []*Port { return n.Ports }
func (n *Module) moduleNode()          {}

type ExtModule struct {
	Span    Span
	Name    string
	Info    Info
	Ports   []*Port
	DefName string
	Params  []*Param
}

func (n *ExtModule) Kind() string         { return "ExtModule" }
func (n *ExtModule) NodeSpan() Span       { return n.Span }
func (n *ExtModule) ModuleName() string   { return n.Name }
func (n *ExtModule) ModulePorts() []*Port { return n.Ports }
func (n *ExtModule) moduleNode()          {}

type Param struct {
	Span  Span
	Name  string
	Value ParamValue
}

func (n *Param) Kind() string   { return "Param" }
func (n *Param) NodeSpan() Span { return n.Span }

type IntParam struct {
	Span  Span
	Value *big.Int
}

func (n *IntParam) Kind() string   { return "IntParam" }
func (n *IntParam) NodeSpan() Span { return n.Span }
func (n *IntParam) paramNode()     {}

type DoubleParam struct {
	Span  Span
	Value float64
}

func (n *DoubleParam) Kind() string   { return "DoubleParam" }
func (n *DoubleParam) NodeSpan() Span { return n.Span }
func (n *DoubleParam) paramNode()     {}

type StringParam struct {
	Span  Span
	Value string
}

func (n *StringParam) Kind() string   { return "StringParam" }
func (n *StringParam) NodeSpan() Span { return n.Span }
func (n *StringParam) paramNode()     {}

// RawStringParam is a single-quoted parameter, kept verbatim.
type RawStringParam struct {
	Span  Span
	Value string
}

func (n *RawStringParam) Kind() string   { return "RawStringParam" }
func (n *RawStringParam) NodeSpan() Span { return n.Span }
func (n *RawStringParam) paramNode()     {}

// --- Ports ---

// Direction is the direction of a port.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

type Port struct {
	Span      Span
	Name      string
	Direction Direction
	Type      Type
	Info      Info
}

func (n *Port) Kind() string   { return "Port" }
func (n *Port) NodeSpan() Span { return n.Span }

// --- Types ---

// A nil Width means the width is left to inference. A zero width is a
// declared width of zero.

type UIntType struct {
	Span  Span
	Width *big.Int
}

func (n *UIntType) Kind() string   { return "UIntType" }
func (n *UIntType) NodeSpan() Span { return n.Span }
func (n *UIntType) typeNode()      {}

type SIntType struct {
	Span  Span
	Width *big.Int
}

func (n *SIntType) Kind() string   { return "SIntType" }
func (n *SIntType) NodeSpan() Span { return n.Span }
func (n *SIntType) typeNode()      {}

type ClockType struct {
	Span Span
}

func (n *ClockType) Kind() string   { return "ClockType" }
func (n *ClockType) NodeSpan() Span { return n.Span }
func (n *ClockType) typeNode()      {}

type ResetType struct {
	Span Span
}

func (n *ResetType) Kind() string   { return "ResetType" }
func (n *ResetType) NodeSpan() Span { return n.Span }
func (n *ResetType) typeNode()      {}

type AsyncResetType struct {
	Span Span
}

func (n *AsyncResetType) Kind() string   { return "AsyncResetType" }
func (n *AsyncResetType) NodeSpan() Span { return n.Span }
func (n *AsyncResetType) typeNode()      {}

type AnalogType struct {
	Span  Span
	Width *big.Int
}

func (n *AnalogType) Kind() string   { return "AnalogType" }
func (n *AnalogType) NodeSpan() Span { return n.Span }
func (n *AnalogType) typeNode()      {}

type Field struct {
	Span Span
	Name string
	Flip bool
	Type Type
}

func (n *Field) Kind() string   { return "Field" }
func (n *Field) NodeSpan() Span { return n.Span }

type BundleType struct {
	Span   Span
	Fields []*Field
}

func (n *BundleType) Kind() string   { return "BundleType" }
func (n *BundleType) NodeSpan() Span { return n.Span }
func (n *BundleType) typeNode()      {}

// Field returns the first field with the given name.
func (n *BundleType) Field(name string) (*Field, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return nil, false
}

type VectorType struct {
	Span Span
	Elem Type
	Size *big.Int
}

func (n *VectorType) Kind() string   { return "VectorType" }
func (n *VectorType) NodeSpan() Span { return n.Span }
func (n *VectorType) typeNode()      {}

// --- Statements ---

type Block struct {
	Span  Span
	Stmts []Stmt
}

func (n *Block) Kind() string   { return "Block" }
func (n *Block) NodeSpan() Span { return n.Span }
func (n *Block) stmtNode()      {}

type Wire struct {
	Span Span
	Name string
	Type Type
	Info Info
}

func (n *Wire) Kind() string   { return "Wire" }
func (n *Wire) NodeSpan() Span { return n.Span }
func (n *Wire) stmtNode()      {}

// Reg is a register. Reset and Init are either both set or both nil in any
// tree the parser produces.
type Reg struct {
	Span  Span
	Name  string
	Type  Type
	Clock Expr
	Reset Expr
	Init  Expr
	Info  Info
}

func (n *Reg) Kind() string   { return "Reg" }
func (n *Reg) NodeSpan() Span { return n.Span }
func (n *Reg) stmtNode()      {}

// ReadUnderWrite is the policy for a read and write to the same address in
// the same cycle.
type ReadUnderWrite int

const (
	RUWUndefined ReadUnderWrite = iota
	RUWOld
	RUWNew
)

func (r ReadUnderWrite) String() string {
	switch r {
	case RUWOld:
		return "old"
	case RUWNew:
		return "new"
	default:
		return "undefined"
	}
}

// Mem is a memory declared with the indented entry form. ReadLatency and
// WriteLatency are nil when not given.
type Mem struct {
	Span           Span
	Name           string
	DataType       Type
	Depth          *big.Int
	ReadLatency    *big.Int
	WriteLatency   *big.Int
	Readers        []string
	Writers        []string
	ReadWriters    []string
	ReadUnderWrite ReadUnderWrite
	Info           Info
}

func (n *Mem) Kind() string   { return "Mem" }
func (n *Mem) NodeSpan() Span { return n.Span }
func (n *Mem) stmtNode()      {}

// CMem is a cmem, or an smem when Sequential is set.
type CMem struct {
	Span           Span
	Name           string
	Type           Type
	Sequential     bool
	ReadUnderWrite ReadUnderWrite
	Info           Info
}

func (n *CMem) Kind() string   { return "CMem" }
func (n *CMem) NodeSpan() Span { return n.Span }
func (n *CMem) stmtNode()      {}

// MemPortDir is the declared direction of an mport.
type MemPortDir int

const (
	PortInfer MemPortDir = iota
	PortRead
	PortWrite
	PortReadWrite
)

func (d MemPortDir) String() string {
	switch d {
	case PortRead:
		return "read"
	case PortWrite:
		return "write"
	case PortReadWrite:
		return "rdwr"
	default:
		return "infer"
	}
}

type MemPort struct {
	Span  Span
	Dir   MemPortDir
	Name  string
	Mem   string
	Addr  Expr
	Clock Expr
	Info  Info
}

func (n *MemPort) Kind() string   { return "MemPort" }
func (n *MemPort) NodeSpan() Span { return n.Span }
func (n *MemPort) stmtNode()      {}

// Inst instantiates Module by name. The name is not resolved here.
type Inst struct {
	Span   Span
	Name   string
	Module string
	Info   Info
}

func (n *Inst) Kind() string   { return "Inst" }
func (n *Inst) NodeSpan() Span { return n.Span }
func (n *Inst) stmtNode()      {}

type DefNode struct {
	Span  Span
	Name  string
	Value Expr
	Info  Info
}

func (n *DefNode) Kind() string   { return "DefNode" }
func (n *DefNode) NodeSpan() Span { return n.Span }
func (n *DefNode) stmtNode()      {}

type Connect struct {
	Span Span
	Loc  Expr
	Expr Expr
	Info Info
}

func (n *Connect) Kind() string   { return "Connect" }
func (n *Connect) NodeSpan() Span { return n.Span }
func (n *Connect) stmtNode()      {}

type PartialConnect struct {
	Span Span
	Loc  Expr
	Expr Expr
	Info Info
}

func (n *PartialConnect) Kind() string   { return "PartialConnect" }
func (n *PartialConnect) NodeSpan() Span { return n.Span }
func (n *PartialConnect) stmtNode()      {}

type Invalidate struct {
	Span Span
	Expr Expr
	Info Info
}

func (n *Invalidate) Kind() string   { return "Invalidate" }
func (n *Invalidate) NodeSpan() Span { return n.Span }
func (n *Invalidate) stmtNode()      {}

// When is a conditional. Else is nil, a *Block, or another *When for an
// else-when chain.
type When struct {
	Span     Span
	Cond     Expr
	Then     Stmt
	Else     Stmt
	Info     Info
	ElseInfo Info
}

func (n *When) Kind() string   { return "When" }
func (n *When) NodeSpan() Span { return n.Span }
func (n *When) stmtNode()      {}

type Stop struct {
	Span     Span
	Clock    Expr
	Enable   Expr
	ExitCode *big.Int
	Name     string
	Info     Info
}

func (n *Stop) Kind() string   { return "Stop" }
func (n *Stop) NodeSpan() Span { return n.Span }
func (n *Stop) stmtNode()      {}

type Printf struct {
	Span   Span
	Clock  Expr
	Enable Expr
	Format string
	Args   []Expr
	Name   string
	Info   Info
}

func (n *Printf) Kind() string   { return "Printf" }
func (n *Printf) NodeSpan() Span { return n.Span }
func (n *Printf) stmtNode()      {}

type Attach struct {
	Span  Span
	Exprs []Expr
	Info  Info
}

func (n *Attach) Kind() string   { return "Attach" }
func (n *Attach) NodeSpan() Span { return n.Span }
func (n *Attach) stmtNode()      {}

type Skip struct {
	Span Span
	Info Info
}

func (n *Skip) Kind() string   { return "Skip" }
func (n *Skip) NodeSpan() Span { return n.Span }
func (n *Skip) stmtNode()      {}

// --- Expressions ---

type Reference struct {
	Span Span
	Name string
}

func (n *Reference) Kind() string   { return "Reference" }
func (n *Reference) NodeSpan() Span { return n.Span }
func (n *Reference) exprNode()      {}

type SubField struct {
	Span  Span
	Expr  Expr
	Field string
}

func (n *SubField) Kind() string   { return "SubField" }
func (n *SubField) NodeSpan() Span { return n.Span }
func (n *SubField) exprNode()      {}

type SubIndex struct {
	Span  Span
	Expr  Expr
	Index *big.Int
}

func (n *SubIndex) Kind() string   { return "SubIndex" }
func (n *SubIndex) NodeSpan() Span { return n.Span }
func (n *SubIndex) exprNode()      {}

type SubAccess struct {
	Span  Span
	Expr  Expr
	Index Expr
}

func (n *SubAccess) Kind() string   { return "SubAccess" }
func (n *SubAccess) NodeSpan() Span { return n.Span }
func (n *SubAccess) exprNode()      {}

// Literal is a UInt or SInt constant. Width is nil when not given.
type Literal struct {
	Span   Span
	Signed bool
	Width  *big.Int
	Value  *big.Int
}

func (n *Literal) Kind() string   { return "Literal" }
func (n *Literal) NodeSpan() Span { return n.Span }
func (n *Literal) exprNode()      {}

type Mux struct {
	Span Span
	Cond Expr
	High Expr
	Low  Expr
}

func (n *Mux) Kind() string   { return "Mux" }
func (n *Mux) NodeSpan() Span { return n.Span }
func (n *Mux) exprNode()      {}

type ValidIf struct {
	Span  Span
	Cond  Expr
	Value Expr
}

func (n *ValidIf) Kind() string   { return "ValidIf" }
func (n *ValidIf) NodeSpan() Span { return n.Span }
func (n *ValidIf) exprNode()      {}

type PrimOp struct {
	Span   Span
	Op     primop.Op
	Args   []Expr
	Params []*big.Int
}

func (n *PrimOp) Kind() string   { return "PrimOp" }
func (n *PrimOp) NodeSpan() Span { return n.Span }
func (n *PrimOp) exprNode()      {}
