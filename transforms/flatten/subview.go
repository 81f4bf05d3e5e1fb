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
	"github.com/gx-org/memflat/build/fmterr"
	"github.com/gx-org/memflat/build/ir"
	"github.com/gx-org/memflat/build/rewrite"
)

type subViewRule struct{}

var _ rewrite.Pattern = subViewRule{}

// SubViewRule returns a pattern replacing sub-views of multi-dimensional views
// by views on the underlying buffer.
//
// The replacement view has the type of the sub-view. Its offset is the
// position of the first element of the sub-range in the buffer and its strides
// are the strides of the source composed with the strides of the sub-range.
// Dimensions dropped by the sub-view are removed.
func SubViewRule() rewrite.Pattern {
	return subViewRule{}
}

func (subViewRule) Name() string {
	return "flatten-memref.subview"
}

func (subViewRule) Root() string {
	return "memref.subview"
}

func (subViewRule) MatchAndRewrite(op ir.Op, r *rewrite.Rewriter) error {
	sub, ok := op.(*ir.SubViewOp)
	if !ok {
		return fmterr.Internal(ir.EmitOpError(op, "unimplemented: do not know how to replace op"))
	}
	src := sub.Source()
	if reason := unsupportedReason(src); reason != "" {
		return r.NotifyMatchFailure(op, "%s (%s)", reason, src.Type().String())
	}
	loc := op.Loc()
	d, err := ExtractDescriptor(r.Builder, loc, src)
	if err != nil {
		return err
	}
	offset := d.LinearOffset(r.Builder, loc, sub.MixedOffsets())
	strides := d.ComposeStrides(r.Builder, loc, sub.MixedStrides())
	sizes := sub.MixedSizes()
	dropped := sub.DroppedDims()
	var keptSizes, keptStrides []ir.FoldResult
	for i := range d.Rank() {
		if i < len(dropped) && dropped[i] {
			continue
		}
		keptSizes = append(keptSizes, sizes[i])
		keptStrides = append(keptStrides, strides[i])
	}
	resType := sub.Result(0).Type().(*ir.MemRefType)
	cast := r.ReinterpretCast(loc, resType, d.Base, offset, keptSizes, keptStrides)
	return r.ReplaceOpWithOp(op, cast)
}
