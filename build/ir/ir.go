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

// Package ir is a small SSA intermediate representation for programs
// accessing strided views of buffers.
//
// A function owns a block of operations. Operations consume values (operands)
// and define values (results). Some operations own nested blocks. Values of
// memref type are strided views of a buffer and are read and written by the
// access operations (loads, stores, ...).
package ir

import (
	"github.com/gx-org/memflat/build/fmterr"
	"github.com/gx-org/memflat/build/ir/annotations"
)

type (
	// Location of an operation in its source.
	Location = fmterr.Pos

	// Value is an SSA value: either the result of an operation
	// or the argument of a block.
	Value struct {
		typ   Type
		def   Op
		block *Block
		index int
	}

	// Op is an operation.
	Op interface {
		// Name of the operation, for example memref.load.
		Name() string
		// Loc returns the location of the operation.
		Loc() Location
		// Operands returns the values used by the operation.
		Operands() []*Value
		// Results returns the values defined by the operation.
		Results() []*Value
		// Attrs returns the attributes attached to the operation.
		Attrs() *annotations.Attributes
		// Block returns the block owning the operation or nil if the operation
		// has been erased or not inserted yet.
		Block() *Block
		// Regions returns the blocks owned by the operation.
		Regions() []*Block

		base() *OpBase
	}

	// Pure is implemented by operations without side effects.
	// A pure operation with no used result can be erased.
	Pure interface {
		Op
		pure()
	}

	// AccessOp is an operation reading or writing elements of a view
	// at a multi-dimensional index.
	AccessOp interface {
		Op
		// TargetView returns the view being accessed.
		TargetView() *Value
		// AccessIndices returns the index of the access in the view.
		AccessIndices() []*Value
		// Rebuild creates an operation of the same kind accessing another view
		// at other indices. Everything else (stored values, masks, padding,
		// result types and attributes) is kept.
		Rebuild(b *Builder, view *Value, indices []*Value) AccessOp
	}

	// OpBase stores the operands, results and attributes of an operation.
	// It is embedded by all operations.
	OpBase struct {
		loc      Location
		operands []*Value
		results  []*Value
		attrs    annotations.Attributes
		block    *Block
	}
)

// UnknownLoc is the location used when no location is known.
var UnknownLoc = Location{}

// Loc returns a location in a file.
func Loc(file string, line, col int) Location {
	return Location{File: file, Line: line, Col: col}
}

// Type of the value.
func (v *Value) Type() Type {
	return v.typ
}

// DefiningOp returns the operation defining the value
// or nil if the value is a block argument.
func (v *Value) DefiningOp() Op {
	return v.def
}

// Index returns the result number or the argument number of the value.
func (v *Value) Index() int {
	return v.index
}

// ParentBlock returns the block in which the value is defined.
func (v *Value) ParentBlock() *Block {
	if v.def != nil {
		return v.def.Block()
	}
	return v.block
}

// MemRefType returns the type of the value if it is a memref.
func (v *Value) MemRefType() (*MemRefType, bool) {
	t, ok := v.typ.(*MemRefType)
	return t, ok
}

func (o *OpBase) base() *OpBase {
	return o
}

// Loc returns the location of the operation.
func (o *OpBase) Loc() Location {
	return o.loc
}

// Operands returns the values used by the operation.
func (o *OpBase) Operands() []*Value {
	return o.operands
}

// Operand returns the i'th operand.
func (o *OpBase) Operand(i int) *Value {
	return o.operands[i]
}

// Results returns the values defined by the operation.
func (o *OpBase) Results() []*Value {
	return o.results
}

// Result returns the i'th result.
func (o *OpBase) Result(i int) *Value {
	return o.results[i]
}

// Attrs returns the attributes of the operation.
func (o *OpBase) Attrs() *annotations.Attributes {
	return &o.attrs
}

// Block returns the block owning the operation.
func (o *OpBase) Block() *Block {
	return o.block
}

// Regions returns the blocks owned by the operation.
func (o *OpBase) Regions() []*Block {
	return nil
}

// initOp sets the operands of an operation and creates its results.
func initOp(op Op, loc Location, operands []*Value, resultTypes []Type) {
	base := op.base()
	base.loc = loc
	base.operands = append([]*Value{}, operands...)
	base.results = make([]*Value, len(resultTypes))
	for i, typ := range resultTypes {
		base.results[i] = &Value{typ: typ, def: op, index: i}
	}
}
