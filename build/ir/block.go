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
	"slices"
)

type (
	// Block is an ordered list of operations with arguments.
	Block struct {
		args   []*Value
		ops    []Op
		parent Op
	}

	// Func is a function: a named block whose arguments are the function parameters.
	Func struct {
		Name string
		Body *Block
	}
)

// NewBlock returns a new block with arguments of the given types.
func NewBlock(argTypes ...Type) *Block {
	blk := &Block{}
	for _, typ := range argTypes {
		blk.AddArg(typ)
	}
	return blk
}

// AddArg appends an argument to the block.
func (blk *Block) AddArg(typ Type) *Value {
	arg := &Value{typ: typ, block: blk, index: len(blk.args)}
	blk.args = append(blk.args, arg)
	return arg
}

// Args returns the block arguments.
func (blk *Block) Args() []*Value {
	return blk.args
}

// Arg returns the i'th block argument.
func (blk *Block) Arg(i int) *Value {
	return blk.args[i]
}

// Ops returns a copy of the list of operations in the block.
func (blk *Block) Ops() []Op {
	return slices.Clone(blk.ops)
}

// Len returns the number of operations in the block.
func (blk *Block) Len() int {
	return len(blk.ops)
}

// ParentOp returns the operation owning the block
// or nil if the block is the body of a function.
func (blk *Block) ParentOp() Op {
	return blk.parent
}

func (blk *Block) indexOf(op Op) int {
	return slices.Index(blk.ops, op)
}

// insertBefore inserts an operation before another one.
// The operation is appended if before is nil.
func (blk *Block) insertBefore(op, before Op) {
	op.base().block = blk
	if before == nil {
		blk.ops = append(blk.ops, op)
		return
	}
	i := blk.indexOf(before)
	if i < 0 {
		blk.ops = append(blk.ops, op)
		return
	}
	blk.ops = slices.Insert(blk.ops, i, op)
}

// remove an operation from the block.
func (blk *Block) remove(op Op) bool {
	i := blk.indexOf(op)
	if i < 0 {
		return false
	}
	blk.ops = slices.Delete(blk.ops, i, i+1)
	op.base().block = nil
	return true
}

// Erase removes an operation from its block.
// The results of the operation must not be used anymore.
func Erase(op Op) bool {
	blk := op.Block()
	if blk == nil {
		return false
	}
	return blk.remove(op)
}

// Walk calls f on every operation of a block and of its nested blocks, in order.
// An operation is visited before the operations of its regions.
// Operations erased or inserted by f while walking are not revisited.
func Walk(blk *Block, f func(Op)) {
	for _, op := range blk.Ops() {
		if op.Block() != blk {
			continue
		}
		f(op)
		if op.Block() != blk {
			continue
		}
		for _, region := range op.Regions() {
			Walk(region, f)
		}
	}
}

// NewFunc returns a new function given the types of its arguments.
func NewFunc(name string, argTypes ...Type) *Func {
	return &Func{Name: name, Body: NewBlock(argTypes...)}
}

// Args returns the function arguments.
func (fn *Func) Args() []*Value {
	return fn.Body.Args()
}

// Arg returns the i'th function argument.
func (fn *Func) Arg(i int) *Value {
	return fn.Body.Arg(i)
}

// Walk calls f on all the operations of the function.
func (fn *Func) Walk(f func(Op)) {
	Walk(fn.Body, f)
}

// Ops returns all the operations of the function, including operations in nested blocks.
func (fn *Func) Ops() []Op {
	var ops []Op
	fn.Walk(func(op Op) {
		ops = append(ops, op)
	})
	return ops
}

// UseCounts returns the number of uses of every value used in the function.
func (fn *Func) UseCounts() map[*Value]int {
	uses := make(map[*Value]int)
	fn.Walk(func(op Op) {
		for _, v := range op.Operands() {
			uses[v]++
		}
	})
	return uses
}

// ReplaceAllUsesWith replaces all the uses of a value by another value.
// Returns the number of replaced uses.
func (fn *Func) ReplaceAllUsesWith(old, nw *Value) int {
	n := 0
	fn.Walk(func(op Op) {
		operands := op.base().operands
		for i, v := range operands {
			if v == old {
				operands[i] = nw
				n++
			}
		}
	})
	return n
}
