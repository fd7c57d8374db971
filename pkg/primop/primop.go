// Package primop holds the fixed table of FIRRTL primitive operations.
//
// The table is the one place operand and parameter counts are declared. The
// parser, formatter and validator all consult it through Lookup and Check.
package primop

import "fmt"

// Op identifies a primitive operation.
type Op int

const (
	Invalid Op = iota

	// Binary arithmetic and comparison
	Add
	Sub
	Mul
	Div
	Rem
	Lt
	Leq
	Gt
	Geq
	Eq
	Neq

	// Dynamic shifts
	Dshl
	Dshr

	// Bitwise
	And
	Or
	Xor
	Cat

	// One operand, one parameter
	Pad
	Shl
	Shr
	Head
	Tail

	// One operand, two parameters
	Bits

	// Conversions and reductions
	AsUInt
	AsSInt
	AsClock
	AsAsyncReset
	Cvt
	Neg
	Not
	Andr
	Orr
	Xorr
)

// Info describes one table entry.
type Info struct {
	Name     string
	Operands int
	Params   int
}

var table = [...]Info{
	Invalid:      {"<invalid>", 0, 0},
	Add:          {"add", 2, 0},
	Sub:          {"sub", 2, 0},
	Mul:          {"mul", 2, 0},
	Div:          {"div", 2, 0},
	Rem:          {"rem", 2, 0},
	Lt:           {"lt", 2, 0},
	Leq:          {"leq", 2, 0},
	Gt:           {"gt", 2, 0},
	Geq:          {"geq", 2, 0},
	Eq:           {"eq", 2, 0},
	Neq:          {"neq", 2, 0},
	Dshl:         {"dshl", 2, 0},
	Dshr:         {"dshr", 2, 0},
	And:          {"and", 2, 0},
	Or:           {"or", 2, 0},
	Xor:          {"xor", 2, 0},
	Cat:          {"cat", 2, 0},
	Pad:          {"pad", 1, 1},
	Shl:          {"shl", 1, 1},
	Shr:          {"shr", 1, 1},
	Head:         {"head", 1, 1},
	Tail:         {"tail", 1, 1},
	Bits:         {"bits", 1, 2},
	AsUInt:       {"asUInt", 1, 0},
	AsSInt:       {"asSInt", 1, 0},
	AsClock:      {"asClock", 1, 0},
	AsAsyncReset: {"asAsyncReset", 1, 0},
	Cvt:          {"cvt", 1, 0},
	Neg:          {"neg", 1, 0},
	Not:          {"not", 1, 0},
	Andr:         {"andr", 1, 0},
	Orr:          {"orr", 1, 0},
	Xorr:         {"xorr", 1, 0},
}

var byName = func() map[string]Op {
	m := make(map[string]Op, len(table))
	for op := Add; int(op) < len(table); op++ {
		m[table[op].Name] = op
	}
	return m
}()

// Lookup returns the operation spelled name.
func Lookup(name string) (Op, bool) {
	op, ok := byName[name]
	return op, ok
}

// All returns every valid operation in table order.
func All() []Op {
	ops := make([]Op, 0, len(table)-1)
	for op := Add; int(op) < len(table); op++ {
		ops = append(ops, op)
	}
	return ops
}

// Valid reports whether op is a table entry.
func (op Op) Valid() bool {
	return op > Invalid && int(op) < len(table)
}

// Info returns the table entry for op.
func (op Op) Info() Info {
	if !op.Valid() {
		return table[Invalid]
	}
	return table[op]
}

func (op Op) String() string { return op.Info().Name }
func (op Op) Operands() int  { return op.Info().Operands }
func (op Op) Params() int    { return op.Info().Params }

// ArityError reports an operand or parameter count that disagrees with the
// table.
type ArityError struct {
	Op           string
	WantOperands int
	WantParams   int
	GotOperands  int
	GotParams    int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("%s expects %d operand(s) and %d parameter(s), got %d operand(s) and %d parameter(s)",
		e.Op, e.WantOperands, e.WantParams, e.GotOperands, e.GotParams)
}

// Check validates counts against the entry for op. An invalid op always
// fails with zero expected counts.
func Check(op Op, operands, params int) error {
	info := op.Info()
	if op.Valid() && info.Operands == operands && info.Params == params {
		return nil
	}
	return &ArityError{
		Op:           info.Name,
		WantOperands: info.Operands,
		WantParams:   info.Params,
		GotOperands:  operands,
		GotParams:    params,
	}
}
