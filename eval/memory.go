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

package eval

import (
	"slices"

	"github.com/gx-org/memflat/build/ir"
)

func (v *view) inBounds(index []int64) bool {
	for i, x := range index {
		if x < 0 || x >= v.sizes[i] {
			return false
		}
	}
	return true
}

// address returns the position in the buffer of the element at a given index.
func (v *view) address(index []int64) int64 {
	addr := v.offset
	for i, x := range index {
		addr += x * v.strides[i]
	}
	return addr
}

// lane returns the index of the k'th element of a vector starting at index.
// Vectors are read along the innermost dimension.
func lane(index []int64, k int) []int64 {
	r := slices.Clone(index)
	if len(r) > 0 {
		r[len(r)-1] += int64(k)
	}
	return r
}

func (ev *evaluator) resolve(op ir.Op, f ir.FoldResult) (int64, error) {
	if c, ok := f.Const(); ok {
		return c, nil
	}
	x, ok := ev.values[f.Value()].(int64)
	if !ok {
		return 0, ir.EmitOpError(op, "dynamic operand %v has not been evaluated", f)
	}
	return x, nil
}

func (ev *evaluator) resolveAll(op ir.Op, fs []ir.FoldResult) ([]int64, error) {
	r := make([]int64, len(fs))
	for i, f := range fs {
		var err error
		if r[i], err = ev.resolve(op, f); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (ev *evaluator) viewOp(op ir.Op) error {
	switch opT := op.(type) {
	case *ir.AllocOp:
		typ := opT.Result(0).Type().(*ir.MemRefType)
		dynSizes, err := ev.indices(op, op.Operands())
		if err != nil {
			return err
		}
		sizes := slices.Clone(typ.Shape)
		next := 0
		for i, size := range sizes {
			if ir.IsDynamic(size) {
				sizes[i] = dynSizes[next]
				next++
			}
		}
		ev.define(op, ev.newAlloc(typ, sizes))
	case *ir.ExtractStridedMetadataOp:
		src, err := operandAs[*view](ev, op, 0)
		if err != nil {
			return err
		}
		vals := []any{&view{buf: src.buf}, src.offset}
		for _, size := range src.sizes {
			vals = append(vals, size)
		}
		for _, stride := range src.strides {
			vals = append(vals, stride)
		}
		ev.define(op, vals...)
	case *ir.ReinterpretCastOp:
		src, err := operandAs[*view](ev, op, 0)
		if err != nil {
			return err
		}
		offset, err := ev.resolve(op, opT.MixedOffset())
		if err != nil {
			return err
		}
		sizes, err := ev.resolveAll(op, opT.MixedSizes())
		if err != nil {
			return err
		}
		strides, err := ev.resolveAll(op, opT.MixedStrides())
		if err != nil {
			return err
		}
		ev.define(op, &view{buf: src.buf, offset: offset, sizes: sizes, strides: strides})
	case *ir.SubViewOp:
		return ev.subView(opT)
	default:
		return ir.EmitOpError(op, "operation not supported by the evaluator")
	}
	return nil
}

func (ev *evaluator) subView(op *ir.SubViewOp) error {
	src, err := operandAs[*view](ev, op, 0)
	if err != nil {
		return err
	}
	offsets, err := ev.resolveAll(op, op.MixedOffsets())
	if err != nil {
		return err
	}
	sizes, err := ev.resolveAll(op, op.MixedSizes())
	if err != nil {
		return err
	}
	strides, err := ev.resolveAll(op, op.MixedStrides())
	if err != nil {
		return err
	}
	res := &view{buf: src.buf, offset: src.address(offsets)}
	dropped := op.DroppedDims()
	for i := range sizes {
		if i < len(dropped) && dropped[i] {
			continue
		}
		res.sizes = append(res.sizes, sizes[i])
		res.strides = append(res.strides, strides[i]*src.strides[i])
	}
	ev.define(op, res)
	return nil
}

func (ev *evaluator) read(op ir.Op, v *view, index []int64) (float64, error) {
	if !v.inBounds(index) {
		return 0, ir.EmitOpError(op, "index %v out of the bounds %v", index, v.sizes)
	}
	addr := v.address(index)
	if err := ev.record(Read, v.buf, addr); err != nil {
		return 0, ir.EmitOpError(op, "%v", err)
	}
	return v.buf.Data[addr], nil
}

func (ev *evaluator) write(op ir.Op, v *view, index []int64, x float64) error {
	if !v.inBounds(index) {
		return ir.EmitOpError(op, "index %v out of the bounds %v", index, v.sizes)
	}
	addr := v.address(index)
	if err := ev.record(Write, v.buf, addr); err != nil {
		return ir.EmitOpError(op, "%v", err)
	}
	v.buf.Data[addr] = convert(v.buf.DType, x)
	return nil
}

func numLanes(typ ir.Type) int {
	vec, ok := typ.(*ir.VectorType)
	if !ok {
		return 0
	}
	return vec.NumElements()
}

func (ev *evaluator) access(op ir.AccessOp) error {
	v, ok := ev.values[op.TargetView()].(*view)
	if !ok {
		return ir.EmitOpError(op, "target view has not been evaluated")
	}
	index, err := ev.indices(op, op.AccessIndices())
	if err != nil {
		return err
	}
	if len(index) != len(v.sizes) {
		return ir.EmitOpError(op, "got %d indices for a view of rank %d", len(index), len(v.sizes))
	}
	switch opT := op.(type) {
	case *ir.LoadOp:
		x, err := ev.read(op, v, index)
		if err != nil {
			return err
		}
		ev.define(op, scalar(x))
	case *ir.StoreOp:
		x, err := operandAs[scalar](ev, op, 0)
		if err != nil {
			return err
		}
		return ev.write(op, v, index, float64(x))
	case *ir.PrefetchOp:
		if !v.inBounds(index) {
			return ir.EmitOpError(op, "index %v out of the bounds %v", index, v.sizes)
		}
		if err := ev.record(Prefetch, v.buf, v.address(index)); err != nil {
			return ir.EmitOpError(op, "%v", err)
		}
	case *ir.VectorLoadOp:
		vec := make(vector, numLanes(opT.Result(0).Type()))
		for k := range vec {
			if vec[k], err = ev.read(op, v, lane(index, k)); err != nil {
				return err
			}
		}
		ev.define(op, vec)
	case *ir.VectorStoreOp:
		vec, err := operandAs[vector](ev, op, 0)
		if err != nil {
			return err
		}
		for k, x := range vec {
			if err := ev.write(op, v, lane(index, k), x); err != nil {
				return err
			}
		}
	case *ir.MaskedLoadOp:
		return ev.maskedLoad(opT, v, index)
	case *ir.MaskedStoreOp:
		return ev.maskedStore(opT, v, index)
	case *ir.TransferReadOp:
		pad, err := operandAs[scalar](ev, op, len(op.Operands())-1)
		if err != nil {
			return err
		}
		vec := make(vector, numLanes(opT.Result(0).Type()))
		for k := range vec {
			idx := lane(index, k)
			if !v.inBounds(idx) {
				vec[k] = float64(pad)
				continue
			}
			if vec[k], err = ev.read(op, v, idx); err != nil {
				return err
			}
		}
		ev.define(op, vec)
	case *ir.TransferWriteOp:
		vec, err := operandAs[vector](ev, op, 0)
		if err != nil {
			return err
		}
		for k, x := range vec {
			idx := lane(index, k)
			if !v.inBounds(idx) {
				continue
			}
			if err := ev.write(op, v, idx, x); err != nil {
				return err
			}
		}
	default:
		return ir.EmitOpError(op, "access not supported by the evaluator")
	}
	return nil
}

func (ev *evaluator) maskedLoad(op *ir.MaskedLoadOp, v *view, index []int64) error {
	n := len(op.Operands())
	mask, err := operandAs[vector](ev, op, n-2)
	if err != nil {
		return err
	}
	pass, err := operandAs[vector](ev, op, n-1)
	if err != nil {
		return err
	}
	vec := slices.Clone(pass)
	for k := range vec {
		if mask[k] == 0 {
			continue
		}
		if vec[k], err = ev.read(op, v, lane(index, k)); err != nil {
			return err
		}
	}
	ev.define(op, vec)
	return nil
}

func (ev *evaluator) maskedStore(op *ir.MaskedStoreOp, v *view, index []int64) error {
	n := len(op.Operands())
	mask, err := operandAs[vector](ev, op, n-2)
	if err != nil {
		return err
	}
	vec, err := operandAs[vector](ev, op, n-1)
	if err != nil {
		return err
	}
	for k, x := range vec {
		if mask[k] == 0 {
			continue
		}
		if err := ev.write(op, v, lane(index, k), x); err != nil {
			return err
		}
	}
	return nil
}
