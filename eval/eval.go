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

// Package eval evaluates functions on host buffers.
//
// The evaluator is a reference implementation of the semantics of the
// operations. It records every memory access so that two functions can be
// compared element by element.
package eval

import (
	"fmt"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/memflat/build/fmterr"
	"github.com/gx-org/memflat/build/ir"
	"github.com/pkg/errors"
)

type (
	// Arg is an argument of a function.
	Arg interface {
		bind(typ ir.Type) (any, error)
	}

	indexArg int64

	// view is the run-time value of a memref.
	view struct {
		buf     *Buffer
		offset  int64
		sizes   []int64
		strides []int64
	}

	scalar float64

	vector []float64

	// Result of evaluating a function.
	Result struct {
		// Trace lists all the memory accesses in order.
		Trace []Access
		// Allocs are the buffers allocated by the function.
		Allocs []*Buffer
	}

	evaluator struct {
		fn     *ir.Func
		values map[*ir.Value]any
		result Result
	}
)

// Index returns an index argument.
func Index(x int64) Arg {
	return indexArg(x)
}

func (a indexArg) bind(typ ir.Type) (any, error) {
	if _, ok := typ.(ir.IndexType); !ok {
		return nil, errors.Errorf("cannot bind an index to a parameter of type %s", typ.String())
	}
	return int64(a), nil
}

// View returns a view argument given an offset, sizes and strides in a buffer.
func View(buf *Buffer, offset int64, sizes, strides []int64) Arg {
	return &view{buf: buf, offset: offset, sizes: sizes, strides: strides}
}

// Contiguous returns a row-major view of a buffer starting at its first element.
func Contiguous(buf *Buffer, sizes ...int64) Arg {
	return contiguous(buf, sizes)
}

func contiguous(buf *Buffer, sizes []int64) *view {
	strides := make([]int64, len(sizes))
	stride := int64(1)
	for i := len(sizes) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= sizes[i]
	}
	return &view{buf: buf, sizes: sizes, strides: strides}
}

func (v *view) bind(typ ir.Type) (any, error) {
	memref, ok := typ.(*ir.MemRefType)
	if !ok {
		return nil, errors.Errorf("cannot bind a view to a parameter of type %s", typ.String())
	}
	if v.buf.DType != memref.Elem {
		return nil, errors.Errorf("cannot bind a buffer of %s to a parameter of type %s", v.buf.DType.String(), typ.String())
	}
	if len(v.sizes) != memref.Rank() || len(v.strides) != memref.Rank() {
		return nil, errors.Errorf("cannot bind a view of rank %d to a parameter of type %s", len(v.sizes), typ.String())
	}
	strides, offset, err := memref.StridesAndOffset()
	if err != nil {
		return nil, err
	}
	mismatch := func(static, got int64) bool {
		return !ir.IsDynamic(static) && static != got
	}
	if mismatch(offset, v.offset) {
		return nil, errors.Errorf("cannot bind a view with offset %d to a parameter of type %s", v.offset, typ.String())
	}
	for i := range memref.Rank() {
		if mismatch(memref.Shape[i], v.sizes[i]) || mismatch(strides[i], v.strides[i]) {
			return nil, errors.Errorf("cannot bind a view with sizes %v and strides %v to a parameter of type %s", v.sizes, v.strides, typ.String())
		}
	}
	return v, nil
}

// Run evaluates a function given its arguments.
func Run(fn *ir.Func, args ...Arg) (*Result, error) {
	params := fn.Args()
	if len(args) != len(params) {
		return nil, errors.Errorf("function %s has %d parameters but got %d arguments", fn.Name, len(params), len(args))
	}
	ev := &evaluator{fn: fn, values: make(map[*ir.Value]any)}
	for i, arg := range args {
		val, err := arg.bind(params[i].Type())
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d of %s", i, fn.Name)
		}
		ev.values[params[i]] = val
	}
	if err := ev.block(fn.Body); err != nil {
		return nil, err
	}
	return &ev.result, nil
}

func (ev *evaluator) block(blk *ir.Block) error {
	for _, op := range blk.Ops() {
		if _, ok := op.(*ir.ReturnOp); ok {
			return nil
		}
		if err := ev.op(op); err != nil {
			return err
		}
	}
	return nil
}

func operandAs[T any](ev *evaluator, op ir.Op, i int) (T, error) {
	var zero T
	v := op.Operands()[i]
	val, ok := ev.values[v]
	if !ok {
		return zero, ir.EmitOpError(op, "operand %d has not been evaluated", i)
	}
	t, ok := val.(T)
	if !ok {
		return zero, fmterr.Internal(ir.EmitOpError(op, "operand %d is a %T, not a %T", i, val, zero))
	}
	return t, nil
}

func (ev *evaluator) indices(op ir.Op, vals []*ir.Value) ([]int64, error) {
	r := make([]int64, len(vals))
	for i, v := range vals {
		val, ok := ev.values[v].(int64)
		if !ok {
			return nil, ir.EmitOpError(op, "index %d has not been evaluated", i)
		}
		r[i] = val
	}
	return r, nil
}

func (ev *evaluator) define(op ir.Op, vals ...any) {
	for i, res := range op.Results() {
		ev.values[res] = vals[i]
	}
}

func (ev *evaluator) op(op ir.Op) error {
	switch opT := op.(type) {
	case *ir.ConstantIndexOp:
		ev.define(op, opT.Value)
	case *ir.ConstantOp:
		return ev.constant(opT)
	case *ir.BinaryOp:
		xy, err := ev.indices(op, op.Operands())
		if err != nil {
			return err
		}
		ev.define(op, opT.Kind.Eval(xy[0], xy[1]))
	case *ir.ApplyOp:
		syms, err := ev.indices(op, op.Operands())
		if err != nil {
			return err
		}
		val, err := opT.Expr.Eval(syms)
		if err != nil {
			return ir.EmitOpError(op, "%v", err)
		}
		ev.define(op, val)
	case *ir.ForOp:
		return ev.forOp(opT)
	case ir.AccessOp:
		return ev.access(opT)
	default:
		return ev.viewOp(op)
	}
	return nil
}

func (ev *evaluator) constant(op *ir.ConstantOp) error {
	switch typ := op.Result(0).Type().(type) {
	case ir.ScalarType:
		if len(op.Values) != 1 {
			return ir.EmitOpError(op, "scalar constant has %d values", len(op.Values))
		}
		ev.define(op, scalar(convert(typ.DType, op.Values[0])))
	case *ir.VectorType:
		n := typ.NumElements()
		vec := make(vector, n)
		for i := range vec {
			switch len(op.Values) {
			case 1:
				vec[i] = op.Values[0]
			case n:
				vec[i] = op.Values[i]
			default:
				return ir.EmitOpError(op, "%d values for a constant of type %s", len(op.Values), typ.String())
			}
			vec[i] = convert(typ.Shape.DType, vec[i])
		}
		ev.define(op, vec)
	default:
		return ir.EmitOpError(op, "unsupported constant type %s", typ.String())
	}
	return nil
}

func (ev *evaluator) forOp(op *ir.ForOp) error {
	bounds, err := ev.indices(op, op.Operands())
	if err != nil {
		return err
	}
	lower, upper, step := bounds[0], bounds[1], bounds[2]
	if step <= 0 {
		return ir.EmitOpError(op, "step %d is not strictly positive", step)
	}
	for iv := lower; iv < upper; iv += step {
		ev.values[op.InductionVar()] = iv
		if err := ev.block(op.Body()); err != nil {
			return err
		}
	}
	return nil
}

func (ev *evaluator) record(kind AccessKind, buf *Buffer, index int64) error {
	if index < 0 || index >= int64(len(buf.Data)) {
		return errors.Errorf("%s of element %d out of the bounds of buffer %s of %d elements", kind.String(), index, buf.Name, len(buf.Data))
	}
	ev.result.Trace = append(ev.result.Trace, Access{
		Kind:   kind,
		Buffer: buf.Name,
		Index:  index,
		Byte:   index * int64(dtype.Sizeof(buf.DType)),
	})
	return nil
}

func (ev *evaluator) newAlloc(typ *ir.MemRefType, sizes []int64) *view {
	n := int64(1)
	for _, size := range sizes {
		n *= size
	}
	buf := NewBuffer(fmt.Sprintf("alloc%d", len(ev.result.Allocs)), typ.Elem, int(n))
	ev.result.Allocs = append(ev.result.Allocs, buf)
	return contiguous(buf, sizes)
}
