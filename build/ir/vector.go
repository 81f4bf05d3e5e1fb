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
	// VectorLoadOp loads contiguous elements of a view into a vector.
	VectorLoadOp struct {
		OpBase
	}

	// VectorStoreOp stores a vector into contiguous elements of a view.
	VectorStoreOp struct {
		OpBase
	}

	// MaskedLoadOp loads the elements of a view for which the mask is set.
	// Other lanes are read from a pass-through vector.
	MaskedLoadOp struct {
		OpBase
	}

	// MaskedStoreOp stores the lanes of a vector for which the mask is set.
	MaskedStoreOp struct {
		OpBase
	}

	// TransferReadOp reads a vector from a view.
	// Lanes out of the bounds of the view are set to a padding value.
	TransferReadOp struct {
		OpBase
	}

	// TransferWriteOp writes a vector into a view.
	// Lanes out of the bounds of the view are not written.
	TransferWriteOp struct {
		OpBase
	}
)

var (
	_ AccessOp = (*VectorLoadOp)(nil)
	_ AccessOp = (*VectorStoreOp)(nil)
	_ AccessOp = (*MaskedLoadOp)(nil)
	_ AccessOp = (*MaskedStoreOp)(nil)
	_ AccessOp = (*TransferReadOp)(nil)
	_ AccessOp = (*TransferWriteOp)(nil)
)

// VectorLoad creates an operation loading a vector from a view.
func (b *Builder) VectorLoad(loc Location, typ *VectorType, base *Value, indices []*Value) *VectorLoadOp {
	op := &VectorLoadOp{}
	b.Create(op, loc, append([]*Value{base}, indices...), typ)
	return op
}

// Name of the operation.
func (*VectorLoadOp) Name() string { return "vector.load" }

// TargetView returns the view being read.
func (op *VectorLoadOp) TargetView() *Value {
	return op.operands[0]
}

// AccessIndices returns the index of the first element being read.
func (op *VectorLoadOp) AccessIndices() []*Value {
	return op.operands[1:]
}

// Rebuild the operation for another view and index.
func (op *VectorLoadOp) Rebuild(b *Builder, view *Value, indices []*Value) AccessOp {
	nw := b.VectorLoad(op.loc, op.results[0].Type().(*VectorType), view, indices)
	copyAttrs(nw, op)
	return nw
}

// VectorStore creates an operation storing a vector into a view.
func (b *Builder) VectorStore(loc Location, value, base *Value, indices []*Value) *VectorStoreOp {
	op := &VectorStoreOp{}
	b.Create(op, loc, append([]*Value{value, base}, indices...))
	return op
}

// Name of the operation.
func (*VectorStoreOp) Name() string { return "vector.store" }

// ValueToStore returns the vector being stored.
func (op *VectorStoreOp) ValueToStore() *Value {
	return op.operands[0]
}

// TargetView returns the view being written.
func (op *VectorStoreOp) TargetView() *Value {
	return op.operands[1]
}

// AccessIndices returns the index of the first element being written.
func (op *VectorStoreOp) AccessIndices() []*Value {
	return op.operands[2:]
}

// Rebuild the operation for another view and index.
func (op *VectorStoreOp) Rebuild(b *Builder, view *Value, indices []*Value) AccessOp {
	nw := b.VectorStore(op.loc, op.ValueToStore(), view, indices)
	copyAttrs(nw, op)
	return nw
}

// MaskedLoad creates a masked load.
func (b *Builder) MaskedLoad(loc Location, typ *VectorType, base *Value, indices []*Value, mask, passThru *Value) *MaskedLoadOp {
	op := &MaskedLoadOp{}
	operands := append([]*Value{base}, indices...)
	operands = append(operands, mask, passThru)
	b.Create(op, loc, operands, typ)
	return op
}

// Name of the operation.
func (*MaskedLoadOp) Name() string { return "vector.maskedload" }

// TargetView returns the view being read.
func (op *MaskedLoadOp) TargetView() *Value {
	return op.operands[0]
}

// AccessIndices returns the index of the first element being read.
func (op *MaskedLoadOp) AccessIndices() []*Value {
	return op.operands[1 : len(op.operands)-2]
}

// Mask returns the mask selecting the lanes to read.
func (op *MaskedLoadOp) Mask() *Value {
	return op.operands[len(op.operands)-2]
}

// PassThru returns the vector providing the lanes not read.
func (op *MaskedLoadOp) PassThru() *Value {
	return op.operands[len(op.operands)-1]
}

// Rebuild the operation for another view and index.
func (op *MaskedLoadOp) Rebuild(b *Builder, view *Value, indices []*Value) AccessOp {
	nw := b.MaskedLoad(op.loc, op.results[0].Type().(*VectorType), view, indices, op.Mask(), op.PassThru())
	copyAttrs(nw, op)
	return nw
}

// MaskedStore creates a masked store.
func (b *Builder) MaskedStore(loc Location, base *Value, indices []*Value, mask, value *Value) *MaskedStoreOp {
	op := &MaskedStoreOp{}
	operands := append([]*Value{base}, indices...)
	operands = append(operands, mask, value)
	b.Create(op, loc, operands)
	return op
}

// Name of the operation.
func (*MaskedStoreOp) Name() string { return "vector.maskedstore" }

// TargetView returns the view being written.
func (op *MaskedStoreOp) TargetView() *Value {
	return op.operands[0]
}

// AccessIndices returns the index of the first element being written.
func (op *MaskedStoreOp) AccessIndices() []*Value {
	return op.operands[1 : len(op.operands)-2]
}

// Mask returns the mask selecting the lanes to write.
func (op *MaskedStoreOp) Mask() *Value {
	return op.operands[len(op.operands)-2]
}

// ValueToStore returns the vector being stored.
func (op *MaskedStoreOp) ValueToStore() *Value {
	return op.operands[len(op.operands)-1]
}

// Rebuild the operation for another view and index.
func (op *MaskedStoreOp) Rebuild(b *Builder, view *Value, indices []*Value) AccessOp {
	nw := b.MaskedStore(op.loc, view, indices, op.Mask(), op.ValueToStore())
	copyAttrs(nw, op)
	return nw
}

// TransferRead creates a transfer read.
func (b *Builder) TransferRead(loc Location, typ *VectorType, base *Value, indices []*Value, padding *Value) *TransferReadOp {
	op := &TransferReadOp{}
	operands := append([]*Value{base}, indices...)
	operands = append(operands, padding)
	b.Create(op, loc, operands, typ)
	return op
}

// Name of the operation.
func (*TransferReadOp) Name() string { return "vector.transfer_read" }

// TargetView returns the view being read.
func (op *TransferReadOp) TargetView() *Value {
	return op.operands[0]
}

// AccessIndices returns the index of the first element being read.
func (op *TransferReadOp) AccessIndices() []*Value {
	return op.operands[1 : len(op.operands)-1]
}

// Padding returns the value of the lanes out of bounds.
func (op *TransferReadOp) Padding() *Value {
	return op.operands[len(op.operands)-1]
}

// Rebuild the operation for another view and index.
func (op *TransferReadOp) Rebuild(b *Builder, view *Value, indices []*Value) AccessOp {
	nw := b.TransferRead(op.loc, op.results[0].Type().(*VectorType), view, indices, op.Padding())
	copyAttrs(nw, op)
	return nw
}

// TransferWrite creates a transfer write.
func (b *Builder) TransferWrite(loc Location, value, base *Value, indices []*Value) *TransferWriteOp {
	op := &TransferWriteOp{}
	b.Create(op, loc, append([]*Value{value, base}, indices...))
	return op
}

// Name of the operation.
func (*TransferWriteOp) Name() string { return "vector.transfer_write" }

// ValueToStore returns the vector being written.
func (op *TransferWriteOp) ValueToStore() *Value {
	return op.operands[0]
}

// TargetView returns the view being written.
func (op *TransferWriteOp) TargetView() *Value {
	return op.operands[1]
}

// AccessIndices returns the index of the first element being written.
func (op *TransferWriteOp) AccessIndices() []*Value {
	return op.operands[2:]
}

// Rebuild the operation for another view and index.
func (op *TransferWriteOp) Rebuild(b *Builder, view *Value, indices []*Value) AccessOp {
	nw := b.TransferWrite(op.loc, op.ValueToStore(), view, indices)
	copyAttrs(nw, op)
	return nw
}
