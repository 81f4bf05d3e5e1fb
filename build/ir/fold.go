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

import "fmt"

type foldKind uint8

const (
	invalidFold foldKind = iota
	constFold
	valueFold
)

// FoldResult is an index known either at compile time (a constant)
// or at run time (a value of index type).
// The zero value is invalid and stands for "no value".
type FoldResult struct {
	kind foldKind
	cst  int64
	val  *Value
}

// IndexAttr returns a constant index.
func IndexAttr(c int64) FoldResult {
	return FoldResult{kind: constFold, cst: c}
}

// ValueOf returns a fold result for a value known at run time.
// Returns an invalid fold result if v is nil.
func ValueOf(v *Value) FoldResult {
	if v == nil {
		return FoldResult{}
	}
	return FoldResult{kind: valueFold, val: v}
}

// AsFoldResult returns a constant if the value is defined by a constant index
// operation and the value otherwise.
func AsFoldResult(v *Value) FoldResult {
	if c, ok := ConstantIndexValue(v); ok {
		return IndexAttr(c)
	}
	return ValueOf(v)
}

// AsFoldResults applies AsFoldResult to a list of values.
func AsFoldResults(vs []*Value) []FoldResult {
	r := make([]FoldResult, len(vs))
	for i, v := range vs {
		r[i] = AsFoldResult(v)
	}
	return r
}

// StaticOrValue returns a constant if x is static and the value v otherwise.
func StaticOrValue(x int64, v *Value) FoldResult {
	if IsDynamic(x) {
		return AsFoldResult(v)
	}
	return IndexAttr(x)
}

// IsValid returns false for the zero fold result.
func (f FoldResult) IsValid() bool {
	return f.kind != invalidFold
}

// Const returns the constant value if the fold result is known at compile time.
func (f FoldResult) Const() (int64, bool) {
	return f.cst, f.kind == constFold
}

// Value returns the run time value or nil if the fold result is a constant.
func (f FoldResult) Value() *Value {
	return f.val
}

// Static returns the constant or Dynamic if the fold result is known at run time only.
func (f FoldResult) Static() int64 {
	if c, ok := f.Const(); ok {
		return c
	}
	return Dynamic
}

func (f FoldResult) String() string {
	switch f.kind {
	case constFold:
		return fmt.Sprint(f.cst)
	case valueFold:
		return fmt.Sprintf("value(%s)", f.val.Type().String())
	default:
		return "<invalid>"
	}
}

// ConstantIndexValue returns the value of a constant index operation.
func ConstantIndexValue(v *Value) (int64, bool) {
	if v == nil {
		return 0, false
	}
	cst, ok := v.DefiningOp().(*ConstantIndexOp)
	if !ok {
		return 0, false
	}
	return cst.Value, true
}

// splitMixed separates a list of fold results into static values
// (Dynamic marking values known at run time) and run time values.
func splitMixed(fs []FoldResult) ([]int64, []*Value) {
	static := make([]int64, len(fs))
	var dynamic []*Value
	for i, f := range fs {
		static[i] = f.Static()
		if IsDynamic(static[i]) {
			dynamic = append(dynamic, f.Value())
		}
	}
	return static, dynamic
}

// joinMixed combines static values and run time values into a list of fold results.
func joinMixed(static []int64, dynamic []*Value) []FoldResult {
	r := make([]FoldResult, len(static))
	next := 0
	for i, s := range static {
		if !IsDynamic(s) {
			r[i] = IndexAttr(s)
			continue
		}
		if next < len(dynamic) {
			r[i] = ValueOf(dynamic[next])
		}
		next++
	}
	return r
}

func countDynamic(static []int64) int {
	n := 0
	for _, s := range static {
		if IsDynamic(s) {
			n++
		}
	}
	return n
}
