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

package eval

import (
	"fmt"
	"slices"

	"github.com/gx-org/backend/dtype"
	"golang.org/x/exp/constraints"
)

type (
	// Buffer is a host buffer of elements.
	// Elements are stored as float64 and converted to the data type of the
	// buffer when written.
	Buffer struct {
		Name  string
		DType dtype.DataType
		Data  []float64
	}

	// AccessKind is the kind of memory access.
	AccessKind int

	// Access is a memory access recorded while evaluating a function.
	Access struct {
		Kind   AccessKind
		Buffer string
		// Index of the element in the buffer.
		Index int64
		// Byte is the position of the first byte of the element in the buffer.
		Byte int64
	}
)

const (
	// Read is a load from memory.
	Read AccessKind = iota
	// Write is a store to memory.
	Write
	// Prefetch is a prefetch hint.
	Prefetch
)

// NewBuffer returns a buffer of n zero elements.
func NewBuffer(name string, dt dtype.DataType, n int) *Buffer {
	return &Buffer{Name: name, DType: dt, Data: make([]float64, n)}
}

// Iota returns a buffer of n elements set to 0, 1, ..., n-1.
func Iota(name string, dt dtype.DataType, n int) *Buffer {
	buf := NewBuffer(name, dt, n)
	for i := range buf.Data {
		buf.Data[i] = convert(dt, float64(i))
	}
	return buf
}

// Clone returns a deep copy of the buffer.
func (b *Buffer) Clone() *Buffer {
	return &Buffer{Name: b.Name, DType: b.DType, Data: slices.Clone(b.Data)}
}

// ByteSize returns the size of the buffer in bytes.
func (b *Buffer) ByteSize() int {
	return len(b.Data) * dtype.Sizeof(b.DType)
}

func (b *Buffer) String() string {
	return fmt.Sprintf("%s:%s%v", b.Name, b.DType.String(), b.Data)
}

func (k AccessKind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	case Prefetch:
		return "prefetch"
	default:
		return fmt.Sprintf("AccessKind(%d)", int(k))
	}
}

func (a Access) String() string {
	return fmt.Sprintf("%s %s[%d]", a.Kind, a.Buffer, a.Index)
}

func cast[T constraints.Integer | constraints.Float](x float64) float64 {
	return float64(T(x))
}

// convert rounds a value to what can be stored in an element of a given data type.
func convert(dt dtype.DataType, x float64) float64 {
	switch dt {
	case dtype.Bool:
		if x != 0 {
			return 1
		}
		return 0
	case dtype.Int32:
		return cast[int32](x)
	case dtype.Int64:
		return cast[int64](x)
	case dtype.Uint32:
		return cast[uint32](x)
	case dtype.Uint64:
		return cast[uint64](x)
	case dtype.Float32:
		return cast[float32](x)
	default:
		return x
	}
}
