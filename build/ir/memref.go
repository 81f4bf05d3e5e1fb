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

type (
	// AllocOp allocates a new buffer and returns an identity view on it.
	// Operands are the sizes of the dynamic dimensions.
	AllocOp struct {
		OpBase
	}

	// ExtractStridedMetadataOp reads the base buffer, offset, sizes and strides of a view.
	ExtractStridedMetadataOp struct {
		OpBase
	}

	// ReinterpretCastOp creates a view on the buffer of its source
	// given an offset, sizes and strides. The offset is relative to the
	// start of the buffer, not to the offset of the source.
	ReinterpretCastOp struct {
		OpBase
		StaticOffset  int64
		StaticSizes   []int64
		StaticStrides []int64
	}

	// SubViewOp creates a view on a rectangular sub-range of its source.
	// Dropped dimensions have a size of 1 and are removed from the result.
	SubViewOp struct {
		OpBase
		StaticOffsets []int64
		StaticSizes   []int64
		StaticStrides []int64
		Dropped       []bool
	}

	// LoadOp loads an element from a view.
	LoadOp struct {
		OpBase
	}

	// StoreOp stores an element into a view.
	StoreOp struct {
		OpBase
	}

	// PrefetchOp hints that an element of a view is about to be accessed.
	PrefetchOp struct {
		OpBase
		IsWrite     bool
		Locality    int
		IsDataCache bool
	}
)

var (
	_ Pure     = (*ExtractStridedMetadataOp)(nil)
	_ Pure     = (*ReinterpretCastOp)(nil)
	_ Pure     = (*SubViewOp)(nil)
	_ AccessOp = (*LoadOp)(nil)
	_ AccessOp = (*StoreOp)(nil)
	_ AccessOp = (*PrefetchOp)(nil)
)

func copyAttrs(dst, src Op) {
	dst.Attrs().CopyFrom(src.Attrs())
}

// Alloc creates a new buffer. dynSizes are the sizes of the dynamic dimensions of the type.
func (b *Builder) Alloc(loc Location, typ *MemRefType, dynSizes ...*Value) *AllocOp {
	op := &AllocOp{}
	b.Create(op, loc, dynSizes, typ)
	return op
}

// Name of the operation.
func (*AllocOp) Name() string { return "memref.alloc" }

// ExtractStridedMetadata creates an operation reading the metadata of a view.
func (b *Builder) ExtractStridedMetadata(loc Location, source *Value) *ExtractStridedMetadataOp {
	srcType := source.Type().(*MemRefType)
	rank := srcType.Rank()
	types := []Type{MemRef(srcType.Elem), Index()}
	for range 2 * rank {
		types = append(types, Index())
	}
	op := &ExtractStridedMetadataOp{}
	b.Create(op, loc, []*Value{source}, types...)
	return op
}

// Name of the operation.
func (*ExtractStridedMetadataOp) Name() string { return "memref.extract_strided_metadata" }

func (*ExtractStridedMetadataOp) pure() {}

// Source returns the view from which the metadata is read.
func (op *ExtractStridedMetadataOp) Source() *Value {
	return op.operands[0]
}

func (op *ExtractStridedMetadataOp) rank() int {
	return (len(op.results) - 2) / 2
}

// BaseBuffer returns the rank-0 view of the underlying buffer.
func (op *ExtractStridedMetadataOp) BaseBuffer() *Value {
	return op.results[0]
}

// Offset returns the offset of the view.
func (op *ExtractStridedMetadataOp) Offset() *Value {
	return op.results[1]
}

// Sizes returns the sizes of the view.
func (op *ExtractStridedMetadataOp) Sizes() []*Value {
	return op.results[2 : 2+op.rank()]
}

// Strides returns the strides of the view.
func (op *ExtractStridedMetadataOp) Strides() []*Value {
	return op.results[2+op.rank():]
}

// StridedMemRef returns a memref type with a strided layout.
// Sizes, strides and offset known at run time only are Dynamic in the type.
func StridedMemRef(src *MemRefType, offset FoldResult, sizes, strides []FoldResult) *MemRefType {
	shape, _ := splitMixed(sizes)
	staticStrides, _ := splitMixed(strides)
	return &MemRefType{
		Shape: shape,
		Elem:  src.Elem,
		Layout: &StridedLayout{
			Offset:  offset.Static(),
			Strides: staticStrides,
		},
	}
}

// ReinterpretCast creates a view of the buffer of a source view.
func (b *Builder) ReinterpretCast(loc Location, typ *MemRefType, source *Value, offset FoldResult, sizes, strides []FoldResult) *ReinterpretCastOp {
	staticOffset, dynOffset := splitMixed([]FoldResult{offset})
	staticSizes, dynSizes := splitMixed(sizes)
	staticStrides, dynStrides := splitMixed(strides)
	op := &ReinterpretCastOp{
		StaticOffset:  staticOffset[0],
		StaticSizes:   staticSizes,
		StaticStrides: staticStrides,
	}
	operands := []*Value{source}
	operands = append(operands, dynOffset...)
	operands = append(operands, dynSizes...)
	operands = append(operands, dynStrides...)
	b.Create(op, loc, operands, typ)
	return op
}

// Name of the operation.
func (*ReinterpretCastOp) Name() string { return "memref.reinterpret_cast" }

func (*ReinterpretCastOp) pure() {}

// Source returns the view providing the buffer.
func (op *ReinterpretCastOp) Source() *Value {
	return op.operands[0]
}

func (op *ReinterpretCastOp) dynamicOperands() (offset, sizes, strides []*Value) {
	rest := op.operands[1:]
	nOffset := countDynamic([]int64{op.StaticOffset})
	nSizes := countDynamic(op.StaticSizes)
	nStrides := countDynamic(op.StaticStrides)
	if len(rest) < nOffset+nSizes+nStrides {
		return nil, nil, nil
	}
	return rest[:nOffset], rest[nOffset : nOffset+nSizes], rest[nOffset+nSizes : nOffset+nSizes+nStrides]
}

// MixedOffset returns the offset of the view.
func (op *ReinterpretCastOp) MixedOffset() FoldResult {
	offset, _, _ := op.dynamicOperands()
	return joinMixed([]int64{op.StaticOffset}, offset)[0]
}

// MixedSizes returns the sizes of the view.
func (op *ReinterpretCastOp) MixedSizes() []FoldResult {
	_, sizes, _ := op.dynamicOperands()
	return joinMixed(op.StaticSizes, sizes)
}

// MixedStrides returns the strides of the view.
func (op *ReinterpretCastOp) MixedStrides() []FoldResult {
	_, _, strides := op.dynamicOperands()
	return joinMixed(op.StaticStrides, strides)
}

// UnitDims returns the dimensions with a static size of 1.
func UnitDims(sizes []FoldResult) []bool {
	dims := make([]bool, len(sizes))
	for i, size := range sizes {
		c, ok := size.Const()
		dims[i] = ok && c == 1
	}
	return dims
}

// InferSubViewType returns the type of a sub-range of a view.
// The result has a strided layout. Dimensions for which dropped is true are removed.
func InferSubViewType(src *MemRefType, offsets, sizes, strides []FoldResult, dropped []bool) *MemRefType {
	srcStrides, srcOffset, err := src.StridesAndOffset()
	if err != nil {
		srcStrides = make([]int64, src.Rank())
		for i := range srcStrides {
			srcStrides[i] = Dynamic
		}
		srcOffset = Dynamic
	}
	offset := srcOffset
	for i, off := range offsets {
		o := off.Static()
		if IsDynamic(offset) || IsDynamic(o) || i >= len(srcStrides) || IsDynamic(srcStrides[i]) {
			offset = Dynamic
			break
		}
		offset += o * srcStrides[i]
	}
	var shape, resStrides []int64
	for i, size := range sizes {
		if i < len(dropped) && dropped[i] {
			continue
		}
		shape = append(shape, size.Static())
		stride := Dynamic
		if i < len(strides) && i < len(srcStrides) {
			if st, s := strides[i].Static(), srcStrides[i]; !IsDynamic(st) && !IsDynamic(s) {
				stride = st * s
			}
		}
		resStrides = append(resStrides, stride)
	}
	return &MemRefType{
		Shape:  shape,
		Elem:   src.Elem,
		Layout: &StridedLayout{Offset: offset, Strides: resStrides},
	}
}

// SubView creates a view on a sub-range of a source view.
// The result type is inferred from the source type.
func (b *Builder) SubView(loc Location, source *Value, offsets, sizes, strides []FoldResult, dropped []bool) *SubViewOp {
	srcType := source.Type().(*MemRefType)
	if dropped == nil {
		dropped = make([]bool, len(sizes))
	}
	typ := InferSubViewType(srcType, offsets, sizes, strides, dropped)
	staticOffsets, dynOffsets := splitMixed(offsets)
	staticSizes, dynSizes := splitMixed(sizes)
	staticStrides, dynStrides := splitMixed(strides)
	op := &SubViewOp{
		StaticOffsets: staticOffsets,
		StaticSizes:   staticSizes,
		StaticStrides: staticStrides,
		Dropped:       append([]bool{}, dropped...),
	}
	operands := []*Value{source}
	operands = append(operands, dynOffsets...)
	operands = append(operands, dynSizes...)
	operands = append(operands, dynStrides...)
	b.Create(op, loc, operands, typ)
	return op
}

// Name of the operation.
func (*SubViewOp) Name() string { return "memref.subview" }

func (*SubViewOp) pure() {}

// Source returns the view from which a sub-range is taken.
func (op *SubViewOp) Source() *Value {
	return op.operands[0]
}

func (op *SubViewOp) dynamicOperands() (offsets, sizes, strides []*Value) {
	rest := op.operands[1:]
	nOffsets := countDynamic(op.StaticOffsets)
	nSizes := countDynamic(op.StaticSizes)
	nStrides := countDynamic(op.StaticStrides)
	if len(rest) < nOffsets+nSizes+nStrides {
		return nil, nil, nil
	}
	return rest[:nOffsets], rest[nOffsets : nOffsets+nSizes], rest[nOffsets+nSizes : nOffsets+nSizes+nStrides]
}

// MixedOffsets returns the offsets of the sub-range in the source.
func (op *SubViewOp) MixedOffsets() []FoldResult {
	offsets, _, _ := op.dynamicOperands()
	return joinMixed(op.StaticOffsets, offsets)
}

// MixedSizes returns the sizes of the sub-range.
func (op *SubViewOp) MixedSizes() []FoldResult {
	_, sizes, _ := op.dynamicOperands()
	return joinMixed(op.StaticSizes, sizes)
}

// MixedStrides returns the strides of the sub-range, in number of source elements.
func (op *SubViewOp) MixedStrides() []FoldResult {
	_, _, strides := op.dynamicOperands()
	return joinMixed(op.StaticStrides, strides)
}

// DroppedDims returns the source dimensions removed from the result.
func (op *SubViewOp) DroppedDims() []bool {
	return op.Dropped
}

// Load creates an operation loading an element from a view.
func (b *Builder) Load(loc Location, memref *Value, indices []*Value) *LoadOp {
	op := &LoadOp{}
	operands := append([]*Value{memref}, indices...)
	b.Create(op, loc, operands, ElemType(memref.Type()))
	return op
}

// Name of the operation.
func (*LoadOp) Name() string { return "memref.load" }

// TargetView returns the view being read.
func (op *LoadOp) TargetView() *Value {
	return op.operands[0]
}

// AccessIndices returns the index of the element being read.
func (op *LoadOp) AccessIndices() []*Value {
	return op.operands[1:]
}

// Rebuild the operation for another view and index.
func (op *LoadOp) Rebuild(b *Builder, view *Value, indices []*Value) AccessOp {
	nw := &LoadOp{}
	b.Create(nw, op.loc, append([]*Value{view}, indices...), op.results[0].Type())
	copyAttrs(nw, op)
	return nw
}

// Store creates an operation storing an element into a view.
func (b *Builder) Store(loc Location, value, memref *Value, indices []*Value) *StoreOp {
	op := &StoreOp{}
	operands := append([]*Value{value, memref}, indices...)
	b.Create(op, loc, operands)
	return op
}

// Name of the operation.
func (*StoreOp) Name() string { return "memref.store" }

// ValueToStore returns the element being stored.
func (op *StoreOp) ValueToStore() *Value {
	return op.operands[0]
}

// TargetView returns the view being written.
func (op *StoreOp) TargetView() *Value {
	return op.operands[1]
}

// AccessIndices returns the index of the element being written.
func (op *StoreOp) AccessIndices() []*Value {
	return op.operands[2:]
}

// Rebuild the operation for another view and index.
func (op *StoreOp) Rebuild(b *Builder, view *Value, indices []*Value) AccessOp {
	nw := b.Store(op.loc, op.ValueToStore(), view, indices)
	copyAttrs(nw, op)
	return nw
}

// Prefetch creates a prefetch hint.
func (b *Builder) Prefetch(loc Location, memref *Value, indices []*Value, isWrite bool, locality int, isDataCache bool) *PrefetchOp {
	op := &PrefetchOp{IsWrite: isWrite, Locality: locality, IsDataCache: isDataCache}
	b.Create(op, loc, append([]*Value{memref}, indices...))
	return op
}

// Name of the operation.
func (*PrefetchOp) Name() string { return "memref.prefetch" }

// TargetView returns the view being prefetched.
func (op *PrefetchOp) TargetView() *Value {
	return op.operands[0]
}

// AccessIndices returns the index of the element being prefetched.
func (op *PrefetchOp) AccessIndices() []*Value {
	return op.operands[1:]
}

// Rebuild the operation for another view and index.
func (op *PrefetchOp) Rebuild(b *Builder, view *Value, indices []*Value) AccessOp {
	nw := b.Prefetch(op.loc, view, indices, op.IsWrite, op.Locality, op.IsDataCache)
	copyAttrs(nw, op)
	return nw
}
