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

package affine_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/memflat/build/ir/affine"
)

func TestExpr(t *testing.T) {
	s0, s1, s2, s3 := affine.Sym(0), affine.Sym(1), affine.Sym(2), affine.Sym(3)
	tests := []struct {
		expr  affine.Expr
		str   string
		syms  []int64
		want  int64
		isCst bool
	}{
		{
			expr:  affine.Product(affine.Const(4), affine.Const(8)),
			str:   "32",
			want:  32,
			isCst: true,
		},
		{
			expr:  affine.Sum(),
			str:   "0",
			want:  0,
			isCst: true,
		},
		{
			expr: s0.Mul(affine.Const(32)).Add(s1),
			str:  "s0 * 32 + s1",
			syms: []int64{3, 5},
			want: 101,
		},
		{
			expr: s1.Add(s0),
			str:  "s0 + s1",
			syms: []int64{1, 2},
			want: 3,
		},
		{
			expr: s0.Add(s0),
			str:  "s0 * 2",
			syms: []int64{21},
			want: 42,
		},
		{
			expr:  s0.Mul(affine.Const(0)),
			str:   "0",
			syms:  []int64{21},
			want:  0,
			isCst: true,
		},
		{
			expr: affine.Sum(s0.Mul(s1), s2.Mul(s3), affine.Const(7)),
			str:  "s0 * s1 + s2 * s3 + 7",
			syms: []int64{2, 3, 4, 5},
			want: 33,
		},
		{
			expr: s0.Add(affine.Const(1)).Mul(s1.Add(affine.Const(2))),
			str:  "s0 * 2 + s0 * s1 + s1 + 2",
			syms: []int64{3, 5},
			want: 28,
		},
		{
			expr: s2.Mul(s0),
			str:  "s0 * s2",
			syms: []int64{3, 0, 5},
			want: 15,
		},
		{
			expr: s0.Mul(s1).Add(s2).Substitute([]affine.Expr{affine.Const(4), s0, s1}),
			str:  "s0 * 4 + s1",
			syms: []int64{2, 1},
			want: 9,
		},
	}
	for i, test := range tests {
		if got := test.expr.String(); got != test.str {
			t.Errorf("test %d: incorrect expression representation: got %s but want %s", i, got, test.str)
		}
		got, err := test.expr.Eval(test.syms)
		if err != nil {
			t.Errorf("test %d: cannot evaluate %s: %v", i, test.expr.String(), err)
			continue
		}
		if got != test.want {
			t.Errorf("test %d: incorrect value for %s: got %d but want %d", i, test.expr.String(), got, test.want)
		}
		if _, isCst := test.expr.IsConst(); isCst != test.isCst {
			t.Errorf("test %d: %s: got IsConst()=%t but want %t", i, test.expr.String(), isCst, test.isCst)
		}
	}
}

func TestExprSymbols(t *testing.T) {
	e := affine.Sum(affine.Sym(3).Mul(affine.Sym(1)), affine.Sym(1), affine.Const(2))
	if got, want := e.UsedSyms(), []int{1, 3}; !cmp.Equal(got, want) {
		t.Errorf("got used symbols %v but want %v", got, want)
	}
	if got := e.NumSyms(); got != 4 {
		t.Errorf("got %d symbols but want 4", got)
	}
	if _, err := e.Eval([]int64{1, 2}); err == nil {
		t.Errorf("expected an error when evaluating %s with too few symbols", e.String())
	}
	if pos, ok := affine.Sym(2).IsSym(); !ok || pos != 2 {
		t.Errorf("got IsSym()=%d,%t but want 2,true", pos, ok)
	}
	if _, ok := affine.Sym(2).Add(affine.Const(1)).IsSym(); ok {
		t.Errorf("s2 + 1 reported as a single symbol")
	}
	if !affine.Sym(0).Add(affine.Sym(1)).Equal(affine.Sym(1).Add(affine.Sym(0))) {
		t.Errorf("addition is not commutative in canonical form")
	}
	if affine.Sym(0).Equal(affine.Sym(1)) {
		t.Errorf("s0 and s1 reported as equal")
	}
}
