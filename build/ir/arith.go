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

package ir

import (
	"github.com/gx-org/memflat/build/ir/affine"
)

type (
	// ConstantIndexOp defines a constant index.
	ConstantIndexOp struct {
		OpBase
		Value int64
	}

	// ConstantOp defines a constant scalar or vector.
	// A single value for a vector type is splat to all the elements.
	ConstantOp struct {
		OpBase
		Values []float64
	}

	// BinaryKind is the kind of arithmetic of a binary operation.
	BinaryKind int

	// BinaryOp applies an arithmetic operator on two indices.
	BinaryOp struct {
		OpBase
		Kind BinaryKind
	}

	// ApplyOp evaluates an affine expression. Operands are the symbols of the expression.
	ApplyOp struct {
		OpBase
		Expr affine.Expr
	}
)

const (
	// AddI adds two indices.
	AddI BinaryKind = iota
	// SubI subtracts two indices.
	SubI
	// MulI multiplies two indices.
	MulI
)

var (
	_ Pure = (*ConstantIndexOp)(nil)
	_ Pure = (*ConstantOp)(nil)
	_ Pure = (*BinaryOp)(nil)
	_ Pure = (*ApplyOp)(nil)
)

// ConstantIndex creates a constant index.
func (b *Builder) ConstantIndex(loc Location, val int64) *ConstantIndexOp {
	op := &ConstantIndexOp{Value: val}
	b.Create(op, loc, nil, Index())
	return op
}

// Name of the operation.
func (*ConstantIndexOp) Name() string { return "arith.constant" }

func (*ConstantIndexOp) pure() {}

// Constant creates a scalar or a vector constant.
func (b *Builder) Constant(loc Location, typ Type, vals ...float64) *ConstantOp {
	op := &ConstantOp{Values: vals}
	b.Create(op, loc, nil, typ)
	return op
}

// Name of the operation.
func (*ConstantOp) Name() string { return "arith.constant" }

func (*ConstantOp) pure() {}

// Binary creates a binary arithmetic operation on indices.
func (b *Builder) Binary(loc Location, kind BinaryKind, x, y *Value) *BinaryOp {
	op := &BinaryOp{Kind: kind}
	b.Create(op, loc, []*Value{x, y}, Index())
	return op
}

// Name of the operation.
func (op *BinaryOp) Name() string {
	switch op.Kind {
	case AddI:
		return "arith.addi"
	case SubI:
		return "arith.subi"
	case MulI:
		return "arith.muli"
	default:
		return "arith.unknown"
	}
}

func (*BinaryOp) pure() {}

// Eval computes the result of the operation.
func (k BinaryKind) Eval(x, y int64) int64 {
	switch k {
	case AddI:
		return x + y
	case SubI:
		return x - y
	default:
		return x * y
	}
}

// Apply creates an operation evaluating an affine expression.
func (b *Builder) Apply(loc Location, expr affine.Expr, operands []*Value) *ApplyOp {
	op := &ApplyOp{Expr: expr}
	b.Create(op, loc, operands, Index())
	return op
}

// Name of the operation.
func (*ApplyOp) Name() string { return "affine.apply" }

func (*ApplyOp) pure() {}
