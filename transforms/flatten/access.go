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

// AccessOpNames are the names of the operations accessing elements of a view
// flattened by the access rules.
var AccessOpNames = []string{
	"memref.load",
	"memref.store",
	"memref.prefetch",
	"vector.load",
	"vector.store",
	"vector.maskedload",
	"vector.maskedstore",
	"vector.transfer_read",
	"vector.transfer_write",
}

// accessesLanes returns true if an operation accesses several consecutive
// elements along the innermost dimension.
func accessesLanes(op ir.Op) bool {
	switch op.(type) {
	case *ir.LoadOp, *ir.StoreOp, *ir.PrefetchOp:
		return false
	}
	return true
}

type accessRule struct {
	root string
}

var _ rewrite.Pattern = accessRule{}

// AccessRule returns a pattern flattening the view accessed by operations with a given name.
// The operations must implement ir.AccessOp.
func AccessRule(opName string) rewrite.Pattern {
	return accessRule{root: opName}
}

func (p accessRule) Name() string {
	return "flatten-" + p.root
}

func (p accessRule) Root() string {
	return p.root
}

func (p accessRule) MatchAndRewrite(op ir.Op, r *rewrite.Rewriter) error {
	access, ok := op.(ir.AccessOp)
	if !ok {
		return fmterr.Internal(ir.EmitOpError(op, "unimplemented: do not know how to replace op"))
	}
	view := access.TargetView()
	if reason := unsupportedReason(view); reason != "" {
		return r.NotifyMatchFailure(op, "%s (%s)", reason, view.Type().String())
	}
	if reason := spanReason(view); reason != "" {
		return r.NotifyMatchFailure(op, "%s (%s)", reason, view.Type().String())
	}
	if accessesLanes(op) {
		if reason := laneReason(view); reason != "" {
			return r.NotifyMatchFailure(op, "%s (%s)", reason, view.Type().String())
		}
	}
	flat, index, err := Flatten(r.Builder, op.Loc(), view, ir.AsFoldResults(access.AccessIndices()))
	if err != nil {
		return err
	}
	nw := access.Rebuild(r.Builder, flat, []*ir.Value{index})
	return r.ReplaceOpWithOp(op, nw)
}
