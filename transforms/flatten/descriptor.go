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

// Package flatten rewrites accesses to multi-dimensional strided views into
// accesses to one-dimensional views of the same buffer.
//
// The index of an access is linearized against the strides of the view and
// the view is reinterpreted as a one-dimensional view starting at the same
// offset in the buffer. Sub-views are rewritten as views on the underlying
// buffer at an offset computed from the source view.
//
// Strides, sizes and offsets known at compile time are folded into constants.
// Others are read from the view at run time with memref.extract_strided_metadata.
package flatten

import (
	"github.com/gx-org/memflat/build/fmterr"
	"github.com/gx-org/memflat/build/ir"
	"github.com/pkg/errors"
)

// Descriptor describes how the elements of a strided view are laid out in its buffer.
// Dimension 0 is the outermost dimension.
type Descriptor struct {
	// Base is a rank-0 view of the underlying buffer.
	Base *ir.Value
	// Offset is the position of the first element of the view in the buffer.
	Offset ir.FoldResult
	// Sizes are the number of elements in each dimension.
	Sizes []ir.FoldResult
	// Strides are the distances, in number of elements, between two
	// consecutive elements of each dimension.
	Strides []ir.FoldResult
}

// Rank returns the number of dimensions of the view.
func (d *Descriptor) Rank() int {
	return len(d.Strides)
}

// unsupportedReason returns why a view cannot be flattened
// or an empty string if it can.
func unsupportedReason(view *ir.Value) string {
	typ, ok := view.MemRefType()
	if !ok {
		return "target is not a memref"
	}
	if typ.Rank() <= 1 {
		return "nothing to do"
	}
	if !typ.HasStridedLayout() {
		return "unsupported layout"
	}
	return ""
}

// laneReason returns why a view cannot be flattened for an operation accessing
// consecutive elements along the innermost dimension, or an empty string if it can.
// Lanes are consecutive in the flat view only if the innermost stride is 1.
func laneReason(view *ir.Value) string {
	typ, _ := view.MemRefType()
	strides, _, err := typ.StridesAndOffset()
	if err != nil {
		return "unsupported layout"
	}
	if strides[len(strides)-1] != 1 {
		return "innermost stride is not 1"
	}
	return ""
}

// spanReason returns a reason if the elements of a view reach past its collapsed size.
// Only views with a static shape and static strides are checked.
func spanReason(view *ir.Value) string {
	typ, _ := view.MemRefType()
	strides, _, err := typ.StridesAndOffset()
	if err != nil {
		return "unsupported layout"
	}
	last := int64(0)
	for i, size := range typ.Shape {
		if size == 0 || ir.IsDynamic(size) || ir.IsDynamic(strides[i]) {
			return ""
		}
		last += (size - 1) * strides[i]
	}
	if collapsed := strides[0] * typ.Shape[0]; last >= collapsed {
		return "elements are not within the outermost stride"
	}
	return ""
}

// metadata returns the operation reading the strided metadata of a view.
// An operation reading the metadata of the view right after its definition is reused.
// Otherwise, a new one is inserted there.
func metadata(b *ir.Builder, loc ir.Location, view *ir.Value) *ir.ExtractStridedMetadataOp {
	ip := b.InsertionPoint()
	defer b.Restore(ip)
	b.SetInsertionPointAfterValue(view)
	for _, op := range b.InsertionPoint().Following() {
		md, ok := op.(*ir.ExtractStridedMetadataOp)
		if !ok {
			break
		}
		if md.Source() == view {
			return md
		}
	}
	return b.ExtractStridedMetadata(loc, view)
}

// ExtractDescriptor returns the descriptor of a view.
//
// The values unknown at compile time are read by a memref.extract_strided_metadata
// operation right after the definition of the view (or at the beginning of its
// block if the view is a block argument). Such an operation is created only if
// none already exists there.
// The insertion point of the builder is left unchanged.
func ExtractDescriptor(b *ir.Builder, loc ir.Location, view *ir.Value) (*Descriptor, error) {
	typ, ok := view.MemRefType()
	if !ok {
		return nil, fmterr.Errorf(loc, "cannot extract the strided metadata of a value of type %s", view.Type().String())
	}
	strides, offset, err := typ.StridesAndOffset()
	if err != nil {
		return nil, errors.Wrapf(err, "%s: cannot describe view", loc.String())
	}
	md := metadata(b, loc, view)

	d := &Descriptor{
		Base:    md.BaseBuffer(),
		Offset:  ir.StaticOrValue(offset, md.Offset()),
		Sizes:   make([]ir.FoldResult, typ.Rank()),
		Strides: make([]ir.FoldResult, typ.Rank()),
	}
	for i := range typ.Rank() {
		d.Sizes[i] = ir.StaticOrValue(typ.Shape[i], md.Sizes()[i])
		d.Strides[i] = ir.StaticOrValue(strides[i], md.Strides()[i])
	}
	return d, nil
}
