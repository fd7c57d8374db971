package ast

import (
	"math/big"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// CmpOptions are the go-cmp options for structural tree equality: spans are
// ignored, integers compare by value and empty slices equal nil ones.
func CmpOptions() cmp.Options {
	return cmp.Options{
		cmpopts.IgnoreTypes(Span{}),
		cmpopts.EquateEmpty(),
		cmp.Comparer(func(x, y *big.Int) bool {
			if x == nil || y == nil {
				return x == nil && y == nil
			}
			return x.Cmp(y) == 0
		}),
	}
}

// Equal reports whether two trees are structurally equal.
func Equal(a, b Node) bool {
	return cmp.Equal(a, b, CmpOptions()...)
}

// Diff returns a human-readable structural diff, empty when equal.
func Diff(a, b Node) string {
	return cmp.Diff(a, b, CmpOptions()...)
}
