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

package flatten

import (
	"github.com/gx-org/memflat/build/fmterr"
	"github.com/gx-org/memflat/build/ir"
	"github.com/gx-org/memflat/build/ir/affine"
	"github.com/gx-org/memflat/build/ir/irhelper"
)

// linear returns base + Σ indices_i × strides_i as a single folded expression.
func linear(b *ir.Builder, loc ir.Location, base ir.FoldResult, indices, strides []ir.FoldResult) ir.FoldResult {
	if len(indices) != len(strides) {
		return ir.FoldResult{}
	}
	expr := affine.Sym(0)
	operands := []ir.FoldResult{base}
	for i, index := range indices {
		idx, stride := affine.Sym(len(operands)), affine.Sym(len(operands)+1)
		expr = expr.Add(idx.Mul(stride))
		operands = append(operands, index, strides[i])
	}
	return irhelper.ComposedApply(b, loc, expr, operands)
}

// Linearize returns the position of an element relative to the offset of the view:
// Σ indices_i × strides_i.
func (d *Descriptor) Linearize(b *ir.Builder, loc ir.Location, indices []ir.FoldResult) ir.FoldResult {
	return linear(b, loc, ir.IndexAttr(0), indices, d.Strides)
}

// LinearOffset returns the position of an element in the buffer:
// offset + Σ indices_i × strides_i.
func (d *Descriptor) LinearOffset(b *ir.Builder, loc ir.Location, indices []ir.FoldResult) ir.FoldResult {
	return linear(b, loc, d.Offset, indices, d.Strides)
}

// CollapsedSize returns the number of elements spanned by the view once
// flattened: the outermost stride times the outermost size.
func (d *Descriptor) CollapsedSize(b *ir.Builder, loc ir.Location) ir.FoldResult {
	if d.Rank() == 0 {
		return ir.IndexAttr(1)
	}
	return irhelper.FoldProduct(b, loc, d.Strides[0], d.Sizes[0])
}

// ComposeStrides returns the strides of a sub-range of the view
// given the strides of the sub-range in number of elements of the view.
func (d *Descriptor) ComposeStrides(b *ir.Builder, loc ir.Location, subStrides []ir.FoldResult) []ir.FoldResult {
	strides := make([]ir.FoldResult, len(subStrides))
	for i, sub := range subStrides {
		if i >= d.Rank() {
			break
		}
		strides[i] = irhelper.FoldProduct(b, loc, sub, d.Strides[i])
	}
	return strides
}

// FlatView creates a one-dimensional view of all the elements spanned by a view.
// The flat view starts at the offset of the view and has a unit stride:
// the element at position p of the flat view is the element at offset + p in the buffer.
func (d *Descriptor) FlatView(b *ir.Builder, loc ir.Location, view *ir.Value) *ir.Value {
	typ, _ := view.MemRefType()
	sizes := []ir.FoldResult{d.CollapsedSize(b, loc)}
	strides := []ir.FoldResult{ir.IndexAttr(1)}
	flatType := ir.StridedMemRef(typ, d.Offset, sizes, strides)
	return b.ReinterpretCast(loc, flatType, view, d.Offset, sizes, strides).Result(0)
}

// Flatten returns a one-dimensional view of a strided view and the index in
// that view of the element at the given multi-dimensional index.
func Flatten(b *ir.Builder, loc ir.Location, view *ir.Value, indices []ir.FoldResult) (flat, index *ir.Value, err error) {
	d, err := ExtractDescriptor(b, loc, view)
	if err != nil {
		return nil, nil, err
	}
	linearIndex := d.Linearize(b, loc, indices)
	if !linearIndex.IsValid() {
		return nil, nil, fmterr.Errorf(loc, "cannot linearize %d indices for a view of rank %d", len(indices), d.Rank())
	}
	flat = d.FlatView(b, loc, view)
	return flat, irhelper.Materialize(b, loc, linearIndex), nil
}
