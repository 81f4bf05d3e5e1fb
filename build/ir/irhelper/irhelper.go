// Copyright 2024 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package irhelper provides helper functions to build IR programmatically.
//
// Index arithmetic is folded as it is built: expressions with only constant
// operands never create operations and expressions with dynamic operands
// create at most one affine.apply operation.
package irhelper

import (
	"github.com/gx-org/memflat/build/ir"
	"github.com/gx-org/memflat/build/ir/affine"
)

type composer struct {
	vals  []*ir.Value
	index map[*ir.Value]int
}

func (c *composer) symbol(v *ir.Value) affine.Expr {
	i, ok := c.index[v]
	if !ok {
		i = len(c.vals)
		c.vals = append(c.vals, v)
		c.index[v] = i
	}
	return affine.Sym(i)
}

// exprOf returns the expression computing a value, looking through
// constants and affine.apply operations.
func (c *composer) exprOf(v *ir.Value) affine.Expr {
	switch def := v.DefiningOp().(type) {
	case *ir.ConstantIndexOp:
		return affine.Const(def.Value)
	case *ir.ApplyOp:
		repl := make([]affine.Expr, len(def.Operands()))
		for i, operand := range def.Operands() {
			repl[i] = c.exprOf(operand)
		}
		return def.Expr.Substitute(repl)
	}
	return c.symbol(v)
}

// ComposedApply returns the value of an affine expression given its operands.
// Constant operands are folded into the expression. Operands computed by
// affine.apply operations are composed into the expression.
// A constant is returned if the result does not depend on any value.
// A value is returned if the result is exactly one operand.
// Otherwise, a single affine.apply operation is created.
// The result is invalid if any operand is invalid.
func ComposedApply(b *ir.Builder, loc ir.Location, expr affine.Expr, operands []ir.FoldResult) ir.FoldResult {
	c := &composer{index: make(map[*ir.Value]int)}
	repl := make([]affine.Expr, len(operands))
	for i, operand := range operands {
		if !operand.IsValid() {
			return ir.FoldResult{}
		}
		if cst, ok := operand.Const(); ok {
			repl[i] = affine.Const(cst)
			continue
		}
		repl[i] = c.exprOf(operand.Value())
	}
	composed := expr.Substitute(repl)
	if cst, ok := composed.IsConst(); ok {
		return ir.IndexAttr(cst)
	}
	// Symbols cancelled out by the composition are removed.
	used := composed.UsedSyms()
	compact := make([]affine.Expr, composed.NumSyms())
	vals := make([]*ir.Value, len(used))
	for i, s := range used {
		compact[s] = affine.Sym(i)
		vals[i] = c.vals[s]
	}
	composed = composed.Substitute(compact)
	if s, ok := composed.IsSym(); ok {
		return ir.ValueOf(vals[s])
	}
	return ir.ValueOf(b.Apply(loc, composed, vals).Result(0))
}

func symbols(n int) []affine.Expr {
	syms := make([]affine.Expr, n)
	for i := range syms {
		syms[i] = affine.Sym(i)
	}
	return syms
}

// FoldSum returns the sum of a list of terms.
func FoldSum(b *ir.Builder, loc ir.Location, terms ...ir.FoldResult) ir.FoldResult {
	return ComposedApply(b, loc, affine.Sum(symbols(len(terms))...), terms)
}

// FoldProduct returns the product of a list of terms.
func FoldProduct(b *ir.Builder, loc ir.Location, terms ...ir.FoldResult) ir.FoldResult {
	return ComposedApply(b, loc, affine.Product(symbols(len(terms))...), terms)
}

// Materialize returns a value for a fold result, creating an index constant if necessary.
// Returns nil if the fold result is invalid.
func Materialize(b *ir.Builder, loc ir.Location, f ir.FoldResult) *ir.Value {
	if cst, ok := f.Const(); ok {
		return b.ConstantIndex(loc, cst).Result(0)
	}
	return f.Value()
}
