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

package fmterr_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gx-org/memflat/build/fmterr"
	"github.com/pkg/errors"
)

func TestErrorf(t *testing.T) {
	pos := fmterr.Pos{File: "kernel.mlir", Line: 3, Col: 7}
	err := fmterr.Errorf(pos, "unexpected %s", "op")
	if got, want := err.Error(), "kernel.mlir:3:7: unexpected op"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	var withPos fmterr.ErrorWithPos
	if !errors.As(err, &withPos) {
		t.Fatalf("error %v does not carry a position", err)
	}
	if withPos.Pos() != pos {
		t.Errorf("got position %v but want %v", withPos.Pos(), pos)
	}
	unknown := fmterr.Errorf(fmterr.Pos{}, "x")
	if got, want := unknown.Error(), "loc(unknown): x"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	if verbose := fmt.Sprintf("%+v", err); !strings.Contains(verbose, "Error generated at:") {
		t.Errorf("verbose formatting %q does not include a stack trace", verbose)
	}
}

func TestOpErrorf(t *testing.T) {
	err := fmterr.OpErrorf(fmterr.Pos{File: "f.mlir", Line: 1, Col: 2}, "memref.load", "expects %d indices", 2)
	if got, want := err.Error(), "f.mlir:1:2: 'memref.load' op expects 2 indices"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
}

func TestInternalf(t *testing.T) {
	err := fmterr.Internalf(fmterr.Pos{File: "f.mlir", Line: 5, Col: 1}, "unexpected %d", 3)
	for _, want := range []string{"internal error", "f.mlir:5:1: unexpected 3"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not contain %q", err.Error(), want)
		}
	}
}

func TestErrors(t *testing.T) {
	var errs fmterr.Errors
	if !errs.Empty() || errs.ToError() != nil {
		t.Fatalf("new error set is not empty")
	}
	errs.Append(errors.New("first"))
	errs.Push(fmterr.PrefixWith("in pattern %s: ", "p"))
	errs.Append(errors.New("second"))
	errs.Pop()
	errs.Append(nil)
	got := errs.Errors()
	if len(got) != 2 {
		t.Fatalf("got %d errors but want 2: %v", len(got), got)
	}
	if want := "in pattern p: second"; got[1].Error() != want {
		t.Errorf("got %q but want %q", got[1].Error(), want)
	}
	if errs.ToError() == nil {
		t.Errorf("non-empty error set returned a nil error")
	}
	internal := fmterr.Internal(errors.New("boom"))
	if !strings.Contains(internal.Error(), "internal error") {
		t.Errorf("internal error %q is not marked as internal", internal.Error())
	}
}
