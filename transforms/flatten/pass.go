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
	"context"
	"log/slog"

	gxfmt "github.com/gx-org/memflat/base/fmt"
	"github.com/gx-org/memflat/build/fmterr"
	"github.com/gx-org/memflat/build/ir"
	"github.com/gx-org/memflat/build/ir/irstring"
	"github.com/gx-org/memflat/build/rewrite"
	"github.com/pkg/errors"
)

type (
	// Pass flattens the views accessed in a function.
	// A pass can run concurrently on different functions.
	Pass struct {
		logger        *slog.Logger
		maxIterations int
		verify        bool
	}

	// Option configures a pass.
	Option func(*Pass)
)

// WithLogger sets the logger receiving debug messages about the rewrites.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pass) {
		p.logger = logger
	}
}

// WithMaxIterations sets the maximum number of iterations of the rewrite driver.
func WithMaxIterations(n int) Option {
	return func(p *Pass) {
		p.maxIterations = n
	}
}

// WithVerify sets whether the function is verified before and after the rewrites.
// Verification is enabled by default.
func WithVerify(verify bool) Option {
	return func(p *Pass) {
		p.verify = verify
	}
}

// Populate adds the patterns flattening views to a set.
func Populate(set *rewrite.PatternSet) {
	for _, name := range AccessOpNames {
		set.Add(AccessRule(name))
	}
	set.Add(SubViewRule())
}

// NewPass returns a new pass flattening views.
func NewPass(opts ...Option) *Pass {
	p := &Pass{
		logger:        slog.New(slog.DiscardHandler),
		maxIterations: rewrite.DefaultMaxIterations,
		verify:        true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name of the pass.
func (p *Pass) Name() string {
	return "flatten-memrefs"
}

// Run the pass on a function.
// Rewrites applied before an error are kept.
func (p *Pass) Run(fn *ir.Func) error {
	if p.verify {
		if err := ir.Verify(fn); err != nil {
			return errors.Wrapf(err, "%s: invalid function %s", p.Name(), fn.Name)
		}
	}
	set := rewrite.NewPatternSet()
	Populate(set)
	changed, err := rewrite.ApplyGreedily(fn, set, rewrite.Config{
		MaxIterations: p.maxIterations,
		Logger:        p.logger,
	})
	if err != nil {
		return errors.Wrapf(err, "%s: pass failed on function %s", p.Name(), fn.Name)
	}
	p.logger.Debug("pass done", "pass", p.Name(), "func", fn.Name, "changed", changed)
	if changed && p.logger.Enabled(context.Background(), slog.LevelDebug) {
		p.logger.Debug("function after rewrites", "pass", p.Name(), "func", fn.Name, "ir", gxfmt.Number(irstring.Func(fn)))
	}
	if p.verify && changed {
		if err := ir.Verify(fn); err != nil {
			return fmterr.Internal(errors.Wrapf(err, "%s: function %s invalid after rewrites", p.Name(), fn.Name))
		}
	}
	return nil
}
