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
	// ForOp executes its body for each induction value in [lower, upper) by step.
	ForOp struct {
		OpBase
		body *Block
	}

	// ReturnOp terminates a function.
	ReturnOp struct {
		OpBase
	}
)

// For creates a loop. The body has a single index argument: the induction variable.
func (b *Builder) For(loc Location, lower, upper, step *Value) *ForOp {
	op := &ForOp{}
	op.body = NewBlock(Index())
	op.body.parent = op
	b.Create(op, loc, []*Value{lower, upper, step})
	return op
}

// Name of the operation.
func (*ForOp) Name() string { return "scf.for" }

// Regions returns the body of the loop.
func (op *ForOp) Regions() []*Block {
	return []*Block{op.body}
}

// Body returns the block executed at each iteration.
func (op *ForOp) Body() *Block {
	return op.body
}

// InductionVar returns the value of the induction variable in the body.
func (op *ForOp) InductionVar() *Value {
	return op.body.Arg(0)
}

// Lower returns the first value of the induction variable.
func (op *ForOp) Lower() *Value { return op.operands[0] }

// Upper returns the exclusive upper bound of the induction variable.
func (op *ForOp) Upper() *Value { return op.operands[1] }

// Step returns the increment of the induction variable.
func (op *ForOp) Step() *Value { return op.operands[2] }

// Return creates a function terminator.
func (b *Builder) Return(loc Location) *ReturnOp {
	op := &ReturnOp{}
	b.Create(op, loc, nil)
	return op
}

// Name of the operation.
func (*ReturnOp) Name() string { return "func.return" }
