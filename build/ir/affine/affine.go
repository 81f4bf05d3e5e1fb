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

// Package affine provides a canonical form for index expressions
// built from integer constants and symbols.
//
// An expression is a sum of a constant and of monomials. A monomial is an
// integer coefficient multiplied by a product of symbols. Constants are folded
// eagerly: the sum or the product of two constant expressions is a constant
// expression. Expressions are values and are never modified in place.
package affine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

type (
	// Monomial is a coefficient multiplied by a product of symbols.
	Monomial struct {
		Coef int64
		// Syms are the symbol positions, sorted in increasing order.
		// A symbol may be repeated.
		Syms []int
	}

	// Expr is an index expression in canonical form.
	// The zero value is the constant 0.
	Expr struct {
		cst   int64
		terms []Monomial
	}
)

// Const returns a constant expression.
func Const(c int64) Expr {
	return Expr{cst: c}
}

// Sym returns the expression of the symbol at position i.
func Sym(i int) Expr {
	return Expr{terms: []Monomial{{Coef: 1, Syms: []int{i}}}}
}

func compareSyms(a, b Monomial) int {
	return slices.Compare(a.Syms, b.Syms)
}

// normalize sorts the monomials, merges monomials with the same symbols and
// removes monomials with a zero coefficient.
func normalize(cst int64, terms []Monomial) Expr {
	slices.SortStableFunc(terms, compareSyms)
	var out []Monomial
	for _, term := range terms {
		n := len(out)
		if n > 0 && compareSyms(out[n-1], term) == 0 {
			out[n-1].Coef += term.Coef
			continue
		}
		out = append(out, Monomial{Coef: term.Coef, Syms: term.Syms})
	}
	out = slices.DeleteFunc(out, func(m Monomial) bool { return m.Coef == 0 })
	return Expr{cst: cst, terms: out}
}

// Add returns e+o.
func (e Expr) Add(o Expr) Expr {
	terms := make([]Monomial, 0, len(e.terms)+len(o.terms))
	terms = append(terms, e.terms...)
	terms = append(terms, o.terms...)
	return normalize(e.cst+o.cst, terms)
}

func scale(terms []Monomial, c int64) []Monomial {
	if c == 0 {
		return nil
	}
	out := make([]Monomial, len(terms))
	for i, t := range terms {
		out[i] = Monomial{Coef: t.Coef * c, Syms: t.Syms}
	}
	return out
}

func mulMonomials(a, b Monomial) Monomial {
	syms := make([]int, 0, len(a.Syms)+len(b.Syms))
	syms = append(syms, a.Syms...)
	syms = append(syms, b.Syms...)
	slices.Sort(syms)
	return Monomial{Coef: a.Coef * b.Coef, Syms: syms}
}

// Mul returns e*o.
func (e Expr) Mul(o Expr) Expr {
	var terms []Monomial
	terms = append(terms, scale(e.terms, o.cst)...)
	terms = append(terms, scale(o.terms, e.cst)...)
	for _, ei := range e.terms {
		for _, oi := range o.terms {
			terms = append(terms, mulMonomials(ei, oi))
		}
	}
	return normalize(e.cst*o.cst, terms)
}

// Sum returns the sum of all expressions.
// The sum of no expression is 0.
func Sum(es ...Expr) Expr {
	r := Const(0)
	for _, e := range es {
		r = r.Add(e)
	}
	return r
}

// Product returns the product of all expressions.
// The product of no expression is 1.
func Product(es ...Expr) Expr {
	r := Const(1)
	for _, e := range es {
		r = r.Mul(e)
	}
	return r
}

// Constant returns the constant term of the expression.
func (e Expr) Constant() int64 {
	return e.cst
}

// Terms returns the monomials of the expression, excluding the constant term.
func (e Expr) Terms() []Monomial {
	return slices.Clone(e.terms)
}

// IsConst returns the value of the expression if it does not depend on any symbol.
func (e Expr) IsConst() (int64, bool) {
	if len(e.terms) > 0 {
		return 0, false
	}
	return e.cst, true
}

// IsSym returns the position of the symbol if the expression is exactly one symbol.
func (e Expr) IsSym() (int, bool) {
	if e.cst != 0 || len(e.terms) != 1 {
		return 0, false
	}
	term := e.terms[0]
	if term.Coef != 1 || len(term.Syms) != 1 {
		return 0, false
	}
	return term.Syms[0], true
}

// UsedSyms returns the sorted positions of the symbols used by the expression.
func (e Expr) UsedSyms() []int {
	var syms []int
	for _, term := range e.terms {
		syms = append(syms, term.Syms...)
	}
	slices.Sort(syms)
	return slices.Compact(syms)
}

// NumSyms returns the number of symbols required to evaluate the expression,
// that is the largest symbol position plus one.
func (e Expr) NumSyms() int {
	used := e.UsedSyms()
	if len(used) == 0 {
		return 0
	}
	return used[len(used)-1] + 1
}

// Substitute replaces every symbol si by repl[i].
// Symbols without replacement are kept unchanged.
func (e Expr) Substitute(repl []Expr) Expr {
	r := Const(e.cst)
	for _, term := range e.terms {
		m := Const(term.Coef)
		for _, s := range term.Syms {
			if s < len(repl) {
				m = m.Mul(repl[s])
			} else {
				m = m.Mul(Sym(s))
			}
		}
		r = r.Add(m)
	}
	return r
}

// Eval evaluates the expression given the values of the symbols.
func (e Expr) Eval(syms []int64) (int64, error) {
	if n := e.NumSyms(); n > len(syms) {
		return 0, errors.Errorf("expression %s requires %d symbols but got %d", e.String(), n, len(syms))
	}
	r := e.cst
	for _, term := range e.terms {
		m := term.Coef
		for _, s := range term.Syms {
			m *= syms[s]
		}
		r += m
	}
	return r, nil
}

// Equal returns true if two expressions have the same canonical form.
func (e Expr) Equal(o Expr) bool {
	if e.cst != o.cst || len(e.terms) != len(o.terms) {
		return false
	}
	for i, t := range e.terms {
		if t.Coef != o.terms[i].Coef || !slices.Equal(t.Syms, o.terms[i].Syms) {
			return false
		}
	}
	return true
}

func (m Monomial) String() string {
	factors := make([]string, 0, len(m.Syms)+1)
	for _, s := range m.Syms {
		factors = append(factors, fmt.Sprintf("s%d", s))
	}
	if m.Coef != 1 {
		factors = append(factors, fmt.Sprint(m.Coef))
	}
	return strings.Join(factors, " * ")
}

// String returns the expression using the syntax of MLIR affine expressions.
func (e Expr) String() string {
	if len(e.terms) == 0 {
		return fmt.Sprint(e.cst)
	}
	parts := make([]string, 0, len(e.terms)+1)
	for _, term := range e.terms {
		parts = append(parts, term.String())
	}
	if e.cst != 0 {
		parts = append(parts, fmt.Sprint(e.cst))
	}
	return strings.Join(parts, " + ")
}
