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

import (
	"fmt"
	"strings"
)

type (
	// Layout maps the indices of a memref to a position in its buffer.
	Layout interface {
		fmt.Stringer
		layout()
	}

	// IdentityLayout is the default dense row-major layout.
	IdentityLayout struct{}

	// StridedLayout maps indices (i0,...,in) to offset + Σ ik*strides[k].
	// Strides and offset unknown at compile time are Dynamic.
	StridedLayout struct {
		Offset  int64
		Strides []int64
	}

	// AffineMapLayout is a layout given by an arbitrary affine map.
	// It is opaque: it can be carried around and printed but not interpreted.
	AffineMapLayout struct {
		Map string
	}
)

var (
	_ Layout = IdentityLayout{}
	_ Layout = (*StridedLayout)(nil)
	_ Layout = (*AffineMapLayout)(nil)
)

func (IdentityLayout) layout() {}

func (IdentityLayout) String() string {
	return ""
}

func (*StridedLayout) layout() {}

func (l *StridedLayout) String() string {
	strides := make([]string, len(l.Strides))
	for i, s := range l.Strides {
		strides[i] = dimString(s)
	}
	s := "strided<[" + strings.Join(strides, ", ") + "]"
	if l.Offset != 0 {
		s += ", offset: " + dimString(l.Offset)
	}
	return s + ">"
}

func (*AffineMapLayout) layout() {}

func (l *AffineMapLayout) String() string {
	return "affine_map<" + l.Map + ">"
}
