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

package flatten_test

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/memflat/build/ir"
	"github.com/gx-org/memflat/build/ir/annotations"
	"github.com/gx-org/memflat/build/ir/irstring"
	"github.com/gx-org/memflat/build/rewrite"
	"github.com/gx-org/memflat/transforms/flatten"
	"github.com/pkg/errors"
)

func idx(b *ir.Builder, vals ...int64) []*ir.Value {
	r := make([]*ir.Value, len(vals))
	for i, v := range vals {
		r[i] = b.ConstantIndex(ir.UnknownLoc, v).Result(0)
	}
	return r
}

func buildEndToEnd() *ir.Func {
	fn := ir.NewFunc("e2e", ir.MemRef(dtype.Float32, 16, 32))
	b := ir.NewBuilder(fn.Body)
	b.Load(ir.Loc("e2e.mlir", 3, 5), fn.Arg(0), idx(b, 3, 5))
	b.Return(ir.UnknownLoc)
	return fn
}

func buildStrided() *ir.Func {
	typ := ir.MemRef(dtype.Float32, 4, 8).WithLayout(&ir.StridedLayout{Offset: 7, Strides: []int64{10, 1}})
	fn := ir.NewFunc("strided", typ)
	b := ir.NewBuilder(fn.Body)
	b.Load(ir.UnknownLoc, fn.Arg(0), idx(b, 2, 3))
	b.Return(ir.UnknownLoc)
	return fn
}

func buildDynamic() *ir.Func {
	fn := ir.NewFunc("dyn", ir.MemRef(dtype.Float32, ir.Dynamic, 32), ir.Index(), ir.Index())
	b := ir.NewBuilder(fn.Body)
	b.Load(ir.UnknownLoc, fn.Arg(0), []*ir.Value{fn.Arg(1), fn.Arg(2)})
	b.Return(ir.UnknownLoc)
	return fn
}

func buildDropDim() *ir.Func {
	fn := ir.NewFunc("drop", ir.MemRef(dtype.Float32, 4, 8, 16))
	b := ir.NewBuilder(fn.Body)
	sub := b.SubView(ir.UnknownLoc, fn.Arg(0),
		[]ir.FoldResult{ir.IndexAttr(2), ir.IndexAttr(0), ir.IndexAttr(0)},
		[]ir.FoldResult{ir.IndexAttr(1), ir.IndexAttr(8), ir.IndexAttr(16)},
		[]ir.FoldResult{ir.IndexAttr(1), ir.IndexAttr(1), ir.IndexAttr(1)},
		[]bool{true, false, false},
	).Result(0)
	b.Load(ir.UnknownLoc, sub, idx(b, 1, 2))
	b.Return(ir.UnknownLoc)
	return fn
}

func runPass(t *testing.T, fn *ir.Func, opts ...flatten.Option) {
	t.Helper()
	if err := flatten.NewPass(opts...).Run(fn); err != nil {
		t.Fatalf("cannot flatten %s:\n%+v", fn.Name, err)
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		build func() *ir.Func
		want  string
	}{
		{
			build: buildEndToEnd,
			want: `
func @e2e(%arg0: memref<16x32xf32>) {
  %0 = memref.reinterpret_cast %arg0 to offset: [0], sizes: [512], strides: [1] : memref<16x32xf32> to memref<512xf32, strided<[1]>>
  %c101 = arith.constant 101 : index
  %1 = memref.load %0[%c101] : memref<512xf32, strided<[1]>>
  func.return
}
`,
		},
		{
			build: buildStrided,
			want: `
func @strided(%arg0: memref<4x8xf32, strided<[10, 1], offset: 7>>) {
  %0 = memref.reinterpret_cast %arg0 to offset: [7], sizes: [40], strides: [1] : memref<4x8xf32, strided<[10, 1], offset: 7>> to memref<40xf32, strided<[1], offset: 7>>
  %c23 = arith.constant 23 : index
  %1 = memref.load %0[%c23] : memref<40xf32, strided<[1], offset: 7>>
  func.return
}
`,
		},
		{
			build: buildDynamic,
			want: `
func @dyn(%arg0: memref<?x32xf32>, %arg1: index, %arg2: index) {
  %base_buffer, %offset, %sizes, %sizes_1, %strides, %strides_1 = memref.extract_strided_metadata %arg0 : memref<?x32xf32> -> memref<f32>, index, index, index, index, index
  %0 = affine.apply affine_map<()[s0, s1] -> (s0 * 32 + s1)>()[%arg1, %arg2]
  %1 = affine.apply affine_map<()[s0] -> (s0 * 32)>()[%sizes]
  %2 = memref.reinterpret_cast %arg0 to offset: [0], sizes: [%1], strides: [1] : memref<?x32xf32> to memref<?xf32, strided<[1]>>
  %3 = memref.load %2[%0] : memref<?xf32, strided<[1]>>
  func.return
}
`,
		},
		{
			build: buildDropDim,
			want: `
func @drop(%arg0: memref<4x8x16xf32>) {
  %base_buffer, %offset, %sizes, %sizes_1, %sizes_2, %strides, %strides_1, %strides_2 = memref.extract_strided_metadata %arg0 : memref<4x8x16xf32> -> memref<f32>, index, index, index, index, index, index, index
  %0 = memref.reinterpret_cast %base_buffer to offset: [256], sizes: [8, 16], strides: [16, 1] : memref<f32> to memref<8x16xf32, strided<[16, 1], offset: 256>>
  %1 = memref.reinterpret_cast %0 to offset: [256], sizes: [128], strides: [1] : memref<8x16xf32, strided<[16, 1], offset: 256>> to memref<128xf32, strided<[1], offset: 256>>
  %c18 = arith.constant 18 : index
  %2 = memref.load %1[%c18] : memref<128xf32, strided<[1], offset: 256>>
  func.return
}
`,
		},
	}
	for i, test := range tests {
		fn := test.build()
		runPass(t, fn)
		got := irstring.Func(fn)
		want := strings.TrimSpace(test.want)
		if got != want {
			t.Errorf("test %d: got:\n%s\nwant:\n%s\ndiff:\n%s", i, got, want, cmp.Diff(got, want))
		}
		// Running the pass again does not modify the function.
		runPass(t, fn)
		if again := irstring.Func(fn); again != got {
			t.Errorf("test %d: pass is not idempotent:\n%s", i, cmp.Diff(got, again))
		}
	}
}

func TestLocationAndAttributesPreserved(t *testing.T) {
	fn := buildEndToEnd()
	load := fn.Body.Ops()[2].(*ir.LoadOp)
	annotations.Set(load.Attrs(), "nontemporal", true)
	runPass(t, fn)
	var flat *ir.LoadOp
	for _, op := range fn.Body.Ops() {
		if l, ok := op.(*ir.LoadOp); ok {
			flat = l
		}
	}
	if flat == nil || flat == load {
		t.Fatalf("load has not been rewritten")
	}
	if got, want := flat.Loc(), ir.Loc("e2e.mlir", 3, 5); got != want {
		t.Errorf("got location %v but want %v", got, want)
	}
	if !flat.Attrs().Equal(load.Attrs()) {
		t.Errorf("got attributes %s but want %s", flat.Attrs().String(), load.Attrs().String())
	}
}

func TestUnsupportedViews(t *testing.T) {
	tests := []struct {
		typ    *ir.MemRefType
		reason string
	}{
		{
			typ:    ir.MemRef(dtype.Float32, 4, 4).WithLayout(&ir.AffineMapLayout{Map: "(d0, d1) -> (d1, d0)"}),
			reason: "unsupported layout",
		},
		{
			typ:    ir.MemRef(dtype.Float32, 16),
			reason: "nothing to do",
		},
		{
			typ:    ir.MemRef(dtype.Float32, 4, 8).WithLayout(&ir.StridedLayout{Strides: []int64{1, 4}}),
			reason: "elements are not within the outermost stride",
		},
	}
	for i, test := range tests {
		fn := ir.NewFunc("unsupported", test.typ)
		b := ir.NewBuilder(fn.Body)
		b.Load(ir.UnknownLoc, fn.Arg(0), idx(b, make([]int64, test.typ.Rank())...))
		b.Return(ir.UnknownLoc)
		before := irstring.Func(fn)

		var logs bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
		runPass(t, fn, flatten.WithLogger(logger))
		if after := irstring.Func(fn); after != before {
			t.Errorf("test %d: function has been modified:\n%s", i, cmp.Diff(before, after))
		}
		if !strings.Contains(logs.String(), test.reason) {
			t.Errorf("test %d: logs do not contain %q:\n%s", i, test.reason, logs.String())
		}
	}
}

func TestSubViewUnsupportedLayout(t *testing.T) {
	typ := ir.MemRef(dtype.Float32, 4, 4).WithLayout(&ir.AffineMapLayout{Map: "(d0, d1) -> (d1, d0)"})
	fn := ir.NewFunc("subview", typ)
	b := ir.NewBuilder(fn.Body)
	two, zero, one := ir.IndexAttr(2), ir.IndexAttr(0), ir.IndexAttr(1)
	sub := b.SubView(ir.UnknownLoc, fn.Arg(0),
		[]ir.FoldResult{zero, zero},
		[]ir.FoldResult{two, two},
		[]ir.FoldResult{one, one},
		nil,
	).Result(0)
	b.Load(ir.UnknownLoc, sub, idx(b, 1, 1))
	b.Return(ir.UnknownLoc)
	before := irstring.Func(fn)

	set := rewrite.NewPatternSet()
	set.Add(flatten.SubViewRule())
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	changed, err := rewrite.ApplyGreedily(fn, set, rewrite.Config{Logger: logger})
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Errorf("function has been modified:\n%s", cmp.Diff(before, irstring.Func(fn)))
	}
	if !strings.Contains(logs.String(), "unsupported layout") {
		t.Errorf("logs do not report the unsupported layout:\n%s", logs.String())
	}
}

func TestInnerStride(t *testing.T) {
	fn := buildInnerStride()
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	runPass(t, fn, flatten.WithLogger(logger))
	var flat *ir.LoadOp
	for _, op := range fn.Ops() {
		switch opT := op.(type) {
		case *ir.LoadOp:
			flat = opT
		case *ir.VectorLoadOp, *ir.VectorStoreOp:
			if view := opT.(ir.AccessOp).TargetView(); view != fn.Arg(0) {
				t.Errorf("%s has been flattened:\n%s", op.Name(), irstring.Func(fn))
			}
		}
	}
	if flat == nil {
		t.Fatalf("no load in:\n%s", irstring.Func(fn))
	}
	typ, _ := flat.TargetView().MemRefType()
	strides, offset, err := typ.StridesAndOffset()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int64{1}, strides); diff != "" || offset != 0 || typ.Shape[0] != 64 {
		t.Errorf("got flat view type %s but want memref<64xf32, strided<[1]>>", typ.String())
	}
	// (1, 1) is at 1*16 + 1*2 in the buffer.
	if index, ok := ir.ConstantIndexValue(flat.AccessIndices()[0]); !ok || index != 18 {
		t.Errorf("got index %d (constant: %t) but want 18:\n%s", index, ok, irstring.Func(fn))
	}
	for _, want := range []string{"innermost stride is not 1", "function after rewrites", "func @inner"} {
		if !strings.Contains(logs.String(), want) {
			t.Errorf("logs do not contain %q:\n%s", want, logs.String())
		}
	}
}

func TestUnimplementedAccess(t *testing.T) {
	fn := ir.NewFunc("add", ir.Index())
	b := ir.NewBuilder(fn.Body)
	b.Binary(ir.Loc("add.mlir", 2, 3), ir.AddI, fn.Arg(0), fn.Arg(0))
	b.Return(ir.UnknownLoc)
	set := rewrite.NewPatternSet()
	set.Add(flatten.AccessRule("arith.addi"))
	_, err := rewrite.ApplyGreedily(fn, set, rewrite.Config{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if want := "add.mlir:2:3: 'arith.addi' op unimplemented: do not know how to replace op"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not contain %q", err.Error(), want)
	}
}

func TestPassErrors(t *testing.T) {
	fn := buildDropDim()
	err := flatten.NewPass(flatten.WithMaxIterations(1)).Run(fn)
	if !errors.Is(err, rewrite.ErrNotConverged) {
		t.Errorf("got error %v but want %v", err, rewrite.ErrNotConverged)
	}

	invalid := ir.NewFunc("invalid", ir.MemRef(dtype.Float32, 4, 4), ir.Index())
	b := ir.NewBuilder(invalid.Body)
	b.Load(ir.UnknownLoc, invalid.Arg(0), []*ir.Value{invalid.Arg(1)})
	err = flatten.NewPass().Run(invalid)
	if err == nil || !strings.Contains(err.Error(), "invalid function invalid") {
		t.Errorf("got error %v but want an invalid function error", err)
	}
	err = flatten.NewPass(flatten.WithVerify(false)).Run(invalid)
	if err == nil || !strings.Contains(err.Error(), "cannot linearize 1 indices for a view of rank 2") {
		t.Errorf("got error %v but want a linearization error", err)
	}
}

func TestPopulate(t *testing.T) {
	set := rewrite.NewPatternSet()
	flatten.Populate(set)
	if set.Len() != 10 {
		t.Errorf("got %d patterns but want 10", set.Len())
	}
	for _, name := range append(flatten.AccessOpNames, "memref.subview") {
		if len(set.Patterns(name)) != 1 {
			t.Errorf("no pattern for %s", name)
		}
	}
	if got, want := flatten.NewPass().Name(), "flatten-memrefs"; got != want {
		t.Errorf("got pass name %q but want %q", got, want)
	}
}

func TestConcurrentRuns(t *testing.T) {
	pass := flatten.NewPass()
	builders := []func() *ir.Func{buildEndToEnd, buildStrided, buildDynamic, buildDropDim}
	errs := make([]error, len(builders))
	var wg sync.WaitGroup
	for i, build := range builders {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = pass.Run(build())
		}()
	}
	wg.Wait()
	for i, err := range errs {
		if err != nil {
			t.Errorf("function %d: %v", i, err)
		}
	}
}
