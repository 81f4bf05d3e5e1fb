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
	"math"
	"slices"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
)

// Dynamic marks a size, a stride or an offset only known at run time.
const Dynamic int64 = math.MinInt64

// IsDynamic returns true if x is only known at run time.
func IsDynamic(x int64) bool {
	return x == Dynamic
}

type (
	// Type of a value.
	Type interface {
		fmt.Stringer
		Equal(Type) bool
	}

	// IndexType is the type of indices, sizes, strides and offsets.
	IndexType struct{}

	// ScalarType is the type of a single element stored in a buffer.
	ScalarType struct {
		DType dtype.DataType
	}

	// VectorType is the type of a vector of elements.
	VectorType struct {
		Shape shape.Shape
	}

	// MemRefType is the type of a strided view over a buffer.
	MemRefType struct {
		// Shape are the sizes of each dimension, outermost first.
		// Sizes only known at run time are Dynamic.
		Shape []int64
		// Elem is the type of the elements stored in the buffer.
		Elem dtype.DataType
		// Layout maps indices to positions in the buffer.
		// A nil layout is the identity layout.
		Layout Layout
	}
)

// Index returns the index type.
func Index() IndexType {
	return IndexType{}
}

// Scalar returns a scalar type given a data type.
func Scalar(dt dtype.DataType) ScalarType {
	return ScalarType{DType: dt}
}

// Vector returns a vector type.
func Vector(dt dtype.DataType, axes ...int) *VectorType {
	return &VectorType{Shape: shape.Shape{DType: dt, AxisLengths: axes}}
}

// MemRef returns a memref type with an identity layout.
func MemRef(dt dtype.DataType, sizes ...int64) *MemRefType {
	return &MemRefType{Shape: sizes, Elem: dt}
}

func dimString(d int64) string {
	if IsDynamic(d) {
		return "?"
	}
	return fmt.Sprint(d)
}

// ElemString returns a short name for a data type.
func ElemString(dt dtype.DataType) string {
	switch dt {
	case dtype.Bool:
		return "i1"
	case dtype.Float32:
		return "f32"
	case dtype.Float64:
		return "f64"
	case dtype.Int32:
		return "i32"
	case dtype.Int64:
		return "i64"
	case dtype.Uint32:
		return "ui32"
	case dtype.Uint64:
		return "ui64"
	default:
		return dt.String()
	}
}

// Equal returns true if other is also an index type.
func (IndexType) Equal(other Type) bool {
	_, ok := other.(IndexType)
	return ok
}

func (IndexType) String() string {
	return "index"
}

// Equal returns true if other is a scalar type with the same data type.
func (t ScalarType) Equal(other Type) bool {
	otherT, ok := other.(ScalarType)
	return ok && otherT.DType == t.DType
}

func (t ScalarType) String() string {
	return ElemString(t.DType)
}

// Rank of the vector.
func (t *VectorType) Rank() int {
	return len(t.Shape.AxisLengths)
}

// NumElements returns the number of elements in the vector.
func (t *VectorType) NumElements() int {
	n := 1
	for _, l := range t.Shape.AxisLengths {
		n *= l
	}
	return n
}

// Equal returns true if other is a vector type with the same shape.
func (t *VectorType) Equal(other Type) bool {
	otherT, ok := other.(*VectorType)
	if !ok {
		return false
	}
	return t.Shape.DType == otherT.Shape.DType && slices.Equal(t.Shape.AxisLengths, otherT.Shape.AxisLengths)
}

func (t *VectorType) String() string {
	var b strings.Builder
	b.WriteString("vector<")
	for _, l := range t.Shape.AxisLengths {
		b.WriteString(fmt.Sprintf("%dx", l))
	}
	b.WriteString(ElemString(t.Shape.DType))
	b.WriteString(">")
	return b.String()
}

// Rank of the memref.
func (t *MemRefType) Rank() int {
	return len(t.Shape)
}

// layout returns the layout of the memref, defaulting to the identity.
func (t *MemRefType) layout() Layout {
	if t.Layout == nil {
		return IdentityLayout{}
	}
	return t.Layout
}

// WithLayout returns a copy of the memref type with a different layout.
func (t *MemRefType) WithLayout(l Layout) *MemRefType {
	return &MemRefType{Shape: slices.Clone(t.Shape), Elem: t.Elem, Layout: l}
}

// HasStaticShape returns true if all the sizes are known at compile time.
func (t *MemRefType) HasStaticShape() bool {
	return !slices.Contains(t.Shape, Dynamic)
}

// HasStridedLayout returns true if the layout is the identity or an explicit strided layout.
func (t *MemRefType) HasStridedLayout() bool {
	switch t.layout().(type) {
	case IdentityLayout, *StridedLayout:
		return true
	default:
		return false
	}
}

// StridesAndOffset returns the strides and the offset of the memref.
// Identity layouts are row-major: the stride of a dimension is the product of
// the sizes of all the inner dimensions. Strides and offsets unknown at compile
// time are Dynamic.
func (t *MemRefType) StridesAndOffset() ([]int64, int64, error) {
	switch l := t.layout().(type) {
	case IdentityLayout:
		strides := make([]int64, len(t.Shape))
		running := int64(1)
		for i := len(t.Shape) - 1; i >= 0; i-- {
			strides[i] = running
			if IsDynamic(running) || IsDynamic(t.Shape[i]) {
				running = Dynamic
				continue
			}
			running *= t.Shape[i]
		}
		return strides, 0, nil
	case *StridedLayout:
		if len(l.Strides) != len(t.Shape) {
			return nil, 0, errors.Errorf("memref type %s has %d strides for %d dimensions", t.String(), len(l.Strides), len(t.Shape))
		}
		return slices.Clone(l.Strides), l.Offset, nil
	default:
		return nil, 0, errors.Errorf("memref type %s does not have a strided layout", t.String())
	}
}

// Equal returns true if other is a memref type with the same shape, element type and layout.
func (t *MemRefType) Equal(other Type) bool {
	otherT, ok := other.(*MemRefType)
	if !ok {
		return false
	}
	if t.Elem != otherT.Elem || !slices.Equal(t.Shape, otherT.Shape) {
		return false
	}
	return t.layout().String() == otherT.layout().String()
}

func (t *MemRefType) String() string {
	var b strings.Builder
	b.WriteString("memref<")
	for _, d := range t.Shape {
		b.WriteString(dimString(d))
		b.WriteString("x")
	}
	b.WriteString(ElemString(t.Elem))
	if layout := t.layout().String(); layout != "" {
		b.WriteString(", ")
		b.WriteString(layout)
	}
	b.WriteString(">")
	return b.String()
}

// ElemType returns the type of the elements of a memref or a vector.
// Returns nil for other types.
func ElemType(t Type) Type {
	switch tT := t.(type) {
	case *MemRefType:
		return Scalar(tT.Elem)
	case *VectorType:
		return Scalar(tT.Shape.DType)
	case ScalarType:
		return tT
	default:
		return nil
	}
}
