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

package irstring_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/memflat/build/ir"
	"github.com/gx-org/memflat/build/ir/affine"
	"github.com/gx-org/memflat/build/ir/annotations"
	"github.com/gx-org/memflat/build/ir/irstring"
)

func buildLoadStore() (*ir.Func, *ir.LoadOp) {
	fn := ir.NewFunc("load", ir.MemRef(dtype.Float32, 16, 32), ir.Index())
	b := ir.NewBuilder(fn.Body)
	c3 := b.ConstantIndex(ir.UnknownLoc, 3).Result(0)
	load := b.Load(ir.UnknownLoc, fn.Arg(0), []*ir.Value{c3, fn.Arg(1)})
	b.Store(ir.UnknownLoc, load.Result(0), fn.Arg(0), []*ir.Value{fn.Arg(1), c3})
	b.Return(ir.UnknownLoc)
	return fn, load
}

func buildMisc() *ir.Func {
	fn := ir.NewFunc("misc", ir.MemRef(dtype.Float32, 4, 8, 16))
	b := ir.NewBuilder(fn.Body)
	loc := ir.UnknownLoc
	c0 := b.ConstantIndex(loc, 0).Result(0)
	c4 := b.ConstantIndex(loc, 4).Result(0)
	c1 := b.ConstantIndex(loc, 1).Result(0)
	mask := b.Constant(loc, ir.Vector(dtype.Bool, 4), 1, 0, 1, 0).Result(0)
	pass := b.Constant(loc, ir.Vector(dtype.Float32, 4), 0).Result(0)
	sub := b.SubView(loc, fn.Arg(0),
		[]ir.FoldResult{ir.IndexAttr(2), ir.IndexAttr(0), ir.IndexAttr(0)},
		[]ir.FoldResult{ir.IndexAttr(1), ir.IndexAttr(8), ir.IndexAttr(16)},
		[]ir.FoldResult{ir.IndexAttr(1), ir.IndexAttr(1), ir.IndexAttr(1)},
		[]bool{true, false, false},
	).Result(0)
	md := b.ExtractStridedMetadata(loc, fn.Arg(0))
	loop := b.For(loc, c0, c4, c1)
	b.Return(loc)

	b.SetInsertionPointToEnd(loop.Body())
	iv := loop.InductionVar()
	expr := affine.Sym(0).Mul(affine.Const(16)).Add(affine.Sym(1))
	idx := b.Apply(loc, expr, []*ir.Value{iv, md.Strides()[1]}).Result(0)
	load := b.MaskedLoad(loc, ir.Vector(dtype.Float32, 4), sub, []*ir.Value{iv, idx}, mask, pass)
	annotations.Set(load.Attrs(), "nontemporal", true)
	b.Prefetch(loc, fn.Arg(0), []*ir.Value{c1, iv, idx}, true, 3, true)
	return fn
}

func TestFunc(t *testing.T) {
	loadStore, _ := buildLoadStore()
	tests := []struct {
		fn   *ir.Func
		want string
	}{
		{
			fn: loadStore,
			want: `
func @load(%arg0: memref<16x32xf32>, %arg1: index) {
  %c3 = arith.constant 3 : index
  %0 = memref.load %arg0[%c3, %arg1] : memref<16x32xf32>
  memref.store %0, %arg0[%arg1, %c3] : memref<16x32xf32>
  func.return
}
`,
		},
		{
			fn: buildMisc(),
			want: `
func @misc(%arg0: memref<4x8x16xf32>) {
  %c0 = arith.constant 0 : index
  %c4 = arith.constant 4 : index
  %c1 = arith.constant 1 : index
  %cst = arith.constant dense<[true, false, true, false]> : vector<4xi1>
  %cst_1 = arith.constant dense<0> : vector<4xf32>
  %0 = memref.subview %arg0[2, 0, 0] [1, 8, 16] [1, 1, 1] : memref<4x8x16xf32> to memref<8x16xf32, strided<[16, 1], offset: 256>>
  %base_buffer, %offset, %sizes, %sizes_1, %sizes_2, %strides, %strides_1, %strides_2 = memref.extract_strided_metadata %arg0 : memref<4x8x16xf32> -> memref<f32>, index, index, index, index, index, index, index
  scf.for %iv = %c0 to %c4 step %c1 {
    %1 = affine.apply affine_map<()[s0, s1] -> (s0 * 16 + s1)>()[%iv, %strides_1]
    %2 = vector.maskedload %0[%iv, %1], %cst, %cst_1 {nontemporal = true} : memref<8x16xf32, strided<[16, 1], offset: 256>>, vector<4xi1>, vector<4xf32> into vector<4xf32>
    memref.prefetch %arg0[%c1, %iv, %1], write, locality<3>, data : memref<4x8x16xf32>
  }
  func.return
}
`,
		},
	}
	for i, test := range tests {
		got := irstring.Func(test.fn)
		want := strings.TrimSpace(test.want)
		if got != want {
			t.Errorf("test %d: got:\n%s\nwant:\n%s\ndiff:\n%s", i, got, want, cmp.Diff(got, want))
		}
		if again := irstring.Func(test.fn); again != got {
			t.Errorf("test %d: printing is not deterministic", i)
		}
	}
}

func TestOp(t *testing.T) {
	_, load := buildLoadStore()
	got := irstring.Op(load)
	want := "%0 = memref.load %arg0[%c3, %arg1] : memref<16x32xf32>"
	if got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}
