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

// Package rewrite applies rewrite patterns to the operations of a function
// until no pattern applies anymore.
package rewrite

import (
	"fmt"
	"iter"

	"github.com/gx-org/memflat/base/ordered"
	"github.com/gx-org/memflat/build/ir"
	"github.com/pkg/errors"
)

type (
	// Pattern rewrites operations with a given name.
	Pattern interface {
		// Name of the pattern, used for logging.
		Name() string
		// Root returns the name of the operations the pattern applies to.
		Root() string
		// MatchAndRewrite rewrites an operation.
		// A pattern that does not apply returns an error built by
		// Rewriter.NotifyMatchFailure without modifying the IR.
		// Any other error is reported by the driver.
		MatchAndRewrite(op ir.Op, r *Rewriter) error
	}

	// PatternSet is an ordered set of patterns indexed by the name of the
	// operations they apply to.
	PatternSet struct {
		byRoot *ordered.Map[string, []Pattern]
		size   int
	}

	// MatchFailure is returned by a pattern when it does not apply to an operation.
	MatchFailure struct {
		Pattern string
		Op      string
		Loc     ir.Location
		Reason  string
	}
)

// NewPatternSet returns an empty set of patterns.
func NewPatternSet() *PatternSet {
	return &PatternSet{byRoot: ordered.NewMap[string, []Pattern]()}
}

// Add patterns to the set.
// Patterns with the same root are tried in the order in which they have been added.
func (s *PatternSet) Add(patterns ...Pattern) {
	for _, p := range patterns {
		prev, _ := s.byRoot.Load(p.Root())
		s.byRoot.Store(p.Root(), append(prev, p))
		s.size++
	}
}

// Patterns returns the patterns applying to operations of a given name.
func (s *PatternSet) Patterns(root string) []Pattern {
	ps, _ := s.byRoot.Load(root)
	return ps
}

// Roots returns the names of the operations for which patterns have been added.
func (s *PatternSet) Roots() iter.Seq[string] {
	return s.byRoot.Keys()
}

// Len returns the number of patterns in the set.
func (s *PatternSet) Len() int {
	return s.size
}

// Error returns the reason for which the pattern did not apply.
func (m *MatchFailure) Error() string {
	if m.Pattern == "" {
		return fmt.Sprintf("%s: %s: %s", m.Loc.String(), m.Op, m.Reason)
	}
	return fmt.Sprintf("%s: pattern %s does not apply to %s: %s", m.Loc.String(), m.Pattern, m.Op, m.Reason)
}

// IsMatchFailure returns true if err reports that a pattern did not apply.
func IsMatchFailure(err error) bool {
	var failure *MatchFailure
	return errors.As(err, &failure)
}
