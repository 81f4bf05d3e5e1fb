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

package rewrite

import (
	"fmt"
	"log/slog"

	"github.com/gx-org/memflat/build/fmterr"
	"github.com/gx-org/memflat/build/ir"
)

// Rewriter is passed to patterns to modify the IR.
// The embedded builder is positioned before the operation being rewritten.
type Rewriter struct {
	*ir.Builder
	fn      *ir.Func
	logger  *slog.Logger
	pattern Pattern
}

// Func returns the function being rewritten.
func (r *Rewriter) Func() *ir.Func {
	return r.fn
}

// Logger returns the logger of the driver.
func (r *Rewriter) Logger() *slog.Logger {
	return r.logger
}

// ReplaceOp replaces all the uses of the results of an operation by
// values and erases the operation.
func (r *Rewriter) ReplaceOp(op ir.Op, values ...*ir.Value) error {
	results := op.Results()
	if len(results) != len(values) {
		return fmterr.Internalf(op.Loc(), "cannot replace the %d results of %s with %d values", len(results), op.Name(), len(values))
	}
	for i, res := range results {
		if !res.Type().Equal(values[i].Type()) {
			return fmterr.Internalf(op.Loc(), "cannot replace result %d of %s of type %s with a value of type %s", i, op.Name(), res.Type().String(), values[i].Type().String())
		}
		r.fn.ReplaceAllUsesWith(res, values[i])
	}
	r.EraseOp(op)
	return nil
}

// ReplaceOpWithOp replaces an operation by another operation with the same result types.
func (r *Rewriter) ReplaceOpWithOp(op, nw ir.Op) error {
	return r.ReplaceOp(op, nw.Results()...)
}

// EraseOp removes an operation from its block.
// The results of the operation must not be used anymore.
func (r *Rewriter) EraseOp(op ir.Op) {
	ir.Erase(op)
}

// NotifyMatchFailure returns an error reporting that the current pattern
// does not apply to an operation.
func (r *Rewriter) NotifyMatchFailure(op ir.Op, format string, a ...any) error {
	name := ""
	if r.pattern != nil {
		name = r.pattern.Name()
	}
	return &MatchFailure{
		Pattern: name,
		Op:      op.Name(),
		Loc:     op.Loc(),
		Reason:  fmt.Sprintf(format, a...),
	}
}
