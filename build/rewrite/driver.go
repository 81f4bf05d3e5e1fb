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
	"log/slog"
	"slices"

	"github.com/gx-org/memflat/base/iter"
	"github.com/gx-org/memflat/build/fmterr"
	"github.com/gx-org/memflat/build/ir"
	"github.com/pkg/errors"
)

// DefaultMaxIterations is the maximum number of iterations over a function
// when the configuration does not specify one.
const DefaultMaxIterations = 10

// ErrNotConverged is returned when patterns still apply after the maximum number of iterations.
var ErrNotConverged = errors.New("pattern application did not converge")

// Config configures the driver.
type Config struct {
	// MaxIterations is the maximum number of passes over the function.
	// DefaultMaxIterations is used if the value is not strictly positive.
	MaxIterations int
	// Logger receives debug messages about applied patterns and match failures.
	// Nothing is logged if the logger is nil.
	Logger *slog.Logger
}

func (cfg Config) logger() *slog.Logger {
	if cfg.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return cfg.Logger
}

func (cfg Config) maxIterations() int {
	if cfg.MaxIterations <= 0 {
		return DefaultMaxIterations
	}
	return cfg.MaxIterations
}

type driver struct {
	fn     *ir.Func
	set    *PatternSet
	logger *slog.Logger
	errs   fmterr.Errors
}

// ApplyGreedily applies the patterns of a set to the operations of a function
// until no pattern applies and no dead pure operation is left.
//
// Operations are visited in order, including operations in nested blocks.
// Operations created while iterating are visited in the next iteration.
// Errors returned by patterns (other than match failures) are collected and
// returned at the end of the iteration. Rewrites already applied are kept.
// Returns true if the function has been modified.
func ApplyGreedily(fn *ir.Func, set *PatternSet, cfg Config) (changed bool, err error) {
	d := &driver{fn: fn, set: set, logger: cfg.logger()}
	maxIterations := cfg.maxIterations()
	for i := 0; i < maxIterations; i++ {
		iterChanged := d.iterate()
		if removeDeadOps(fn) {
			iterChanged = true
		}
		changed = changed || iterChanged
		if !d.errs.Empty() {
			return changed, d.errs.ToError()
		}
		if !iterChanged {
			return changed, nil
		}
	}
	return changed, errors.Wrapf(ErrNotConverged, "function %s modified after %d iterations", fn.Name, maxIterations)
}

func (d *driver) iterate() bool {
	changed := false
	for _, op := range d.fn.Ops() {
		if op.Block() == nil {
			// Erased by a previous pattern.
			continue
		}
		if d.applyPatterns(op) {
			changed = true
		}
	}
	return changed
}

func (d *driver) applyPatterns(op ir.Op) bool {
	for _, p := range d.set.Patterns(op.Name()) {
		d.errs.Push(fmterr.PrefixWith("pattern %s: ", p.Name()))
		applied, done := d.applyPattern(op, p)
		d.errs.Pop()
		if done {
			return applied
		}
	}
	return false
}

// applyPattern applies a pattern to an operation.
// done is false if the pattern does not apply and the next pattern can be tried.
func (d *driver) applyPattern(op ir.Op, p Pattern) (applied, done bool) {
	r := &Rewriter{
		Builder: ir.NewBuilder(op.Block()),
		fn:      d.fn,
		logger:  d.logger,
		pattern: p,
	}
	r.SetInsertionPoint(op)
	err := p.MatchAndRewrite(op, r)
	if err == nil {
		d.logger.Debug("pattern applied", "pattern", p.Name(), "op", op.Name(), "loc", op.Loc().String())
		return true, true
	}
	if IsMatchFailure(err) {
		d.logger.Debug("pattern does not apply", "pattern", p.Name(), "op", op.Name(), "loc", op.Loc().String(), "reason", err.Error())
		return false, false
	}
	d.logger.Debug("pattern failed", "pattern", p.Name(), "op", op.Name(), "loc", op.Loc().String(), "error", err)
	d.errs.Append(err)
	return false, true
}

// removeDeadOps erases pure operations whose results are not used.
// Returns true if any operation has been erased.
func removeDeadOps(fn *ir.Func) bool {
	erased := false
	for {
		uses := fn.UseCounts()
		isDead := func(op ir.Pure) bool {
			for _, res := range op.Results() {
				if uses[res] > 0 {
					return false
				}
			}
			return true
		}
		found := false
		for op := range iter.Filter(isDead, iter.OfType[ir.Pure](slices.Values(fn.Ops()))) {
			ir.Erase(op)
			found = true
		}
		if !found {
			return erased
		}
		erased = true
	}
}
