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
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/memflat/build/fmterr"
)

type verifier struct {
	errs fmterr.Errors
}

// EmitOpError returns an error located at an operation.
func EmitOpError(op Op, format string, a ...any) error {
	return fmterr.OpErrorf(op.Loc(), op.Name(), format, a...)
}

// Verify checks that all the operations of a function are well-formed.
// All the errors found are returned.
func Verify(fn *Func) error {
	v := &verifier{}
	fn.Walk(v.verifyOp)
	return v.errs.ToError()
}

func (v *verifier) errorf(op Op, format string, a ...any) bool {
	return v.errs.Append(EmitOpError(op, format, a...))
}

func (v *verifier) verifyOp(op Op) {
	for i, operand := range op.Operands() {
		if operand == nil {
			v.errorf(op, "operand %d is nil", i)
			return
		}
		if def := operand.DefiningOp(); def != nil && def.Block() == nil {
			v.errorf(op, "operand %d is defined by an erased %s operation", i, def.Name())
			return
		}
	}
	switch opT := op.(type) {
	case *BinaryOp:
		v.checkIndices(op, "operand", opT.Operands())
	case *ApplyOp:
		if n := opT.Expr.NumSyms(); n > len(opT.Operands()) {
			v.errorf(op, "expression %s uses %d symbols but has %d operands", opT.Expr.String(), n, len(opT.Operands()))
		}
		v.checkIndices(op, "operand", opT.Operands())
	case *AllocOp:
		typ := opT.Result(0).Type().(*MemRefType)
		if n := countDynamic(typ.Shape); n != len(opT.Operands()) {
			v.errorf(op, "type %s has %d dynamic sizes but %d operands", typ.String(), n, len(opT.Operands()))
		}
	case *ExtractStridedMetadataOp:
		v.memref(op, opT.Source())
	case *ReinterpretCastOp:
		v.verifyReinterpretCast(opT)
	case *SubViewOp:
		v.verifySubView(opT)
	case *ForOp:
		v.checkIndices(op, "bound", opT.Operands())
	case AccessOp:
		v.verifyAccess(opT)
	}
}

func (v *verifier) memref(op Op, val *Value) *MemRefType {
	typ, ok := val.MemRefType()
	if !ok {
		v.errorf(op, "expects a memref but got %s", val.Type().String())
		return nil
	}
	return typ
}

func (v *verifier) checkIndices(op Op, what string, vals []*Value) bool {
	for i, val := range vals {
		if _, ok := val.Type().(IndexType); !ok {
			return v.errorf(op, "%s %d has type %s instead of index", what, i, val.Type().String())
		}
	}
	return true
}

func (v *verifier) verifyAccess(op AccessOp) {
	typ := v.memref(op, op.TargetView())
	if typ == nil {
		return
	}
	indices := op.AccessIndices()
	if len(indices) != typ.Rank() {
		v.errorf(op, "expects %d indices for %s but got %d", typ.Rank(), typ.String(), len(indices))
		return
	}
	if !v.checkIndices(op, "index", indices) {
		return
	}
	elem := Scalar(typ.Elem)
	switch opT := op.(type) {
	case *LoadOp:
		v.sameType(op, "result", opT.Result(0).Type(), elem)
	case *StoreOp:
		v.sameType(op, "stored value", opT.ValueToStore().Type(), elem)
	case *VectorLoadOp:
		v.vector(op, "result", opT.Result(0).Type(), typ.Elem)
	case *VectorStoreOp:
		v.vector(op, "stored value", opT.ValueToStore().Type(), typ.Elem)
	case *MaskedLoadOp:
		vec := v.vector(op, "result", opT.Result(0).Type(), typ.Elem)
		v.mask(op, opT.Mask(), vec)
		if vec != nil {
			v.sameType(op, "pass-through", opT.PassThru().Type(), vec)
		}
	case *MaskedStoreOp:
		vec := v.vector(op, "stored value", opT.ValueToStore().Type(), typ.Elem)
		v.mask(op, opT.Mask(), vec)
	case *TransferReadOp:
		v.vector(op, "result", opT.Result(0).Type(), typ.Elem)
		v.sameType(op, "padding", opT.Padding().Type(), elem)
	case *TransferWriteOp:
		v.vector(op, "stored value", opT.ValueToStore().Type(), typ.Elem)
	}
}

func (v *verifier) sameType(op Op, what string, got, want Type) {
	if !got.Equal(want) {
		v.errorf(op, "%s has type %s but want %s", what, got.String(), want.String())
	}
}

func (v *verifier) vector(op Op, what string, typ Type, elem dtype.DataType) *VectorType {
	vec, ok := typ.(*VectorType)
	if !ok {
		v.errorf(op, "%s has type %s but want a vector", what, typ.String())
		return nil
	}
	if vec.Rank() != 1 {
		v.errorf(op, "%s has type %s but only 1-D vectors are supported", what, typ.String())
		return nil
	}
	if vec.Shape.DType != elem {
		v.errorf(op, "%s has element type %s but want %s", what, ElemString(vec.Shape.DType), ElemString(elem))
		return nil
	}
	return vec
}

func (v *verifier) mask(op Op, mask *Value, vec *VectorType) {
	if vec == nil {
		return
	}
	want := Vector(dtype.Bool, vec.Shape.AxisLengths...)
	v.sameType(op, "mask", mask.Type(), want)
}

func (v *verifier) verifyReinterpretCast(op *ReinterpretCastOp) {
	src := v.memref(op, op.Source())
	if src == nil {
		return
	}
	res := op.Result(0).Type().(*MemRefType)
	if res.Elem != src.Elem {
		v.errorf(op, "element type %s differs from source element type %s", ElemString(res.Elem), ElemString(src.Elem))
	}
	if len(op.StaticSizes) != res.Rank() || len(op.StaticStrides) != res.Rank() {
		v.errorf(op, "got %d sizes and %d strides for result type %s", len(op.StaticSizes), len(op.StaticStrides), res.String())
		return
	}
	want := countDynamic([]int64{op.StaticOffset}) + countDynamic(op.StaticSizes) + countDynamic(op.StaticStrides)
	if got := len(op.Operands()) - 1; got != want {
		v.errorf(op, "expects %d dynamic operands but got %d", want, got)
		return
	}
	v.checkIndices(op, "dynamic operand", op.Operands()[1:])
	for i, size := range op.StaticSizes {
		if !IsDynamic(size) && !IsDynamic(res.Shape[i]) && size != res.Shape[i] {
			v.errorf(op, "size %d of dimension %d differs from result type %s", size, i, res.String())
		}
	}
	strides, offset, err := res.StridesAndOffset()
	if err != nil {
		v.errs.Append(EmitOpError(op, "%v", err))
		return
	}
	if !IsDynamic(op.StaticOffset) && !IsDynamic(offset) && op.StaticOffset != offset {
		v.errorf(op, "offset %d differs from result type %s", op.StaticOffset, res.String())
	}
	for i, stride := range op.StaticStrides {
		if !IsDynamic(stride) && !IsDynamic(strides[i]) && stride != strides[i] {
			v.errorf(op, "stride %d of dimension %d differs from result type %s", stride, i, res.String())
		}
	}
}

func (v *verifier) verifySubView(op *SubViewOp) {
	src := v.memref(op, op.Source())
	if src == nil {
		return
	}
	rank := src.Rank()
	if len(op.StaticOffsets) != rank || len(op.StaticSizes) != rank || len(op.StaticStrides) != rank || len(op.Dropped) != rank {
		v.errorf(op, "expects %d offsets, sizes, strides and dropped dimensions for source type %s", rank, src.String())
		return
	}
	want := countDynamic(op.StaticOffsets) + countDynamic(op.StaticSizes) + countDynamic(op.StaticStrides)
	if got := len(op.Operands()) - 1; got != want {
		v.errorf(op, "expects %d dynamic operands but got %d", want, got)
		return
	}
	v.checkIndices(op, "dynamic operand", op.Operands()[1:])
	kept := 0
	for i, dropped := range op.Dropped {
		if !dropped {
			kept++
			continue
		}
		if op.StaticSizes[i] != 1 {
			v.errorf(op, "dimension %d is dropped but does not have a static size of 1", i)
		}
	}
	res := op.Result(0).Type().(*MemRefType)
	if res.Rank() != kept {
		v.errorf(op, "result type %s has rank %d but %d dimensions are kept", res.String(), res.Rank(), kept)
	}
}
