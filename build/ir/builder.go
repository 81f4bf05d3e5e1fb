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

import "slices"

type (
	// InsertionPoint is the position at which a builder inserts new operations.
	InsertionPoint struct {
		block  *Block
		before Op
	}

	// Builder creates operations and inserts them at an insertion point.
	Builder struct {
		ip InsertionPoint
	}
)

// NewBuilder returns a builder inserting operations at the end of a block.
func NewBuilder(blk *Block) *Builder {
	return &Builder{ip: InsertionPoint{block: blk}}
}

// Block returns the block in which operations are inserted.
func (ip InsertionPoint) Block() *Block {
	return ip.block
}

// Following returns the operations between the insertion point and the end of its block.
func (ip InsertionPoint) Following() []Op {
	if ip.block == nil || ip.before == nil {
		return nil
	}
	i := ip.block.indexOf(ip.before)
	if i < 0 {
		return nil
	}
	return slices.Clone(ip.block.ops[i:])
}

// InsertionPoint returns the current insertion point.
func (b *Builder) InsertionPoint() InsertionPoint {
	return b.ip
}

// Restore sets the insertion point to a previously saved insertion point.
func (b *Builder) Restore(ip InsertionPoint) {
	b.ip = ip
}

// SetInsertionPointToEnd sets the insertion point at the end of a block.
func (b *Builder) SetInsertionPointToEnd(blk *Block) {
	b.ip = InsertionPoint{block: blk}
}

// SetInsertionPointToStart sets the insertion point at the start of a block.
func (b *Builder) SetInsertionPointToStart(blk *Block) {
	var before Op
	if len(blk.ops) > 0 {
		before = blk.ops[0]
	}
	b.ip = InsertionPoint{block: blk, before: before}
}

// SetInsertionPoint sets the insertion point just before an operation.
func (b *Builder) SetInsertionPoint(op Op) {
	b.ip = InsertionPoint{block: op.Block(), before: op}
}

// SetInsertionPointAfter sets the insertion point just after an operation.
func (b *Builder) SetInsertionPointAfter(op Op) {
	blk := op.Block()
	var before Op
	if i := blk.indexOf(op); i >= 0 && i+1 < len(blk.ops) {
		before = blk.ops[i+1]
	}
	b.ip = InsertionPoint{block: blk, before: before}
}

// SetInsertionPointAfterValue sets the insertion point just after the definition of a value:
// after its defining operation or at the start of its block if the value is a block argument.
func (b *Builder) SetInsertionPointAfterValue(v *Value) {
	if def := v.DefiningOp(); def != nil {
		b.SetInsertionPointAfter(def)
		return
	}
	b.SetInsertionPointToStart(v.ParentBlock())
}

// Create initializes an operation and inserts it at the insertion point.
// Operations defined outside of this package embed OpBase and are created with this function.
func (b *Builder) Create(op Op, loc Location, operands []*Value, resultTypes ...Type) Op {
	initOp(op, loc, operands, resultTypes)
	if b.ip.block == nil {
		panic("ir: builder has no insertion point")
	}
	b.ip.block.insertBefore(op, b.ip.before)
	return op
}
