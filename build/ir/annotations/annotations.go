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

// Package annotations provides named attributes (i.e. meta-data) attached to operations.
package annotations

import (
	"fmt"
	"strings"

	"github.com/gx-org/memflat/base/ordered"
	"github.com/pkg/errors"
)

type (
	// Attributes maps attribute names to values.
	// The zero value is an empty set of attributes ready to use.
	Attributes struct {
		attrs *ordered.Map[string, attribute]
	}

	attribute interface {
		Value() any
		String() string
	}

	attributeT[T any] struct {
		value T
	}
)

func (a attributeT[T]) Value() any {
	return a.value
}

func (a attributeT[T]) String() string {
	switch v := any(a.value).(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case []bool:
		ss := make([]string, len(v))
		for i, b := range v {
			ss[i] = fmt.Sprint(b)
		}
		return "[" + strings.Join(ss, ", ") + "]"
	}
	return fmt.Sprint(a.value)
}

func (attrs *Attributes) set(name string, attr attribute) {
	if attrs.attrs == nil {
		attrs.attrs = ordered.NewMap[string, attribute]()
	}
	attrs.attrs.Store(name, attr)
}

func (attrs *Attributes) get(name string) attribute {
	if attrs.attrs == nil {
		return nil
	}
	attr, _ := attrs.attrs.Load(name)
	return attr
}

// Has returns true if an attribute has been set for a name.
func (attrs *Attributes) Has(name string) bool {
	return attrs.get(name) != nil
}

// Remove an attribute. Returns false if the attribute was not set.
func (attrs *Attributes) Remove(name string) bool {
	if attrs.attrs == nil {
		return false
	}
	return attrs.attrs.Delete(name)
}

// Len returns the number of attributes.
func (attrs *Attributes) Len() int {
	if attrs.attrs == nil {
		return 0
	}
	return attrs.attrs.Size()
}

// Names returns the attribute names in the order in which they have been set.
func (attrs *Attributes) Names() []string {
	if attrs.attrs == nil {
		return nil
	}
	var names []string
	for name := range attrs.attrs.Keys() {
		names = append(names, name)
	}
	return names
}

// CopyFrom replaces all the attributes by the attributes of another set.
func (attrs *Attributes) CopyFrom(other *Attributes) {
	attrs.attrs = nil
	if other == nil || other.attrs == nil {
		return
	}
	attrs.attrs = other.attrs.Clone()
}

// Equal returns true if two sets have the same attributes in the same order.
func (attrs *Attributes) Equal(other *Attributes) bool {
	if attrs.Len() != other.Len() {
		return false
	}
	if attrs.Len() == 0 {
		return true
	}
	return attrs.String() == other.String()
}

// String representation of the attributes, in MLIR dictionary syntax.
func (attrs *Attributes) String() string {
	if attrs.Len() == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("{")
	i := 0
	for name, attr := range attrs.attrs.Iter() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(fmt.Sprintf("%s = %s", name, attr.String()))
		i++
	}
	b.WriteString("}")
	return b.String()
}

// Set an attribute value, replacing any previous value.
func Set[T any](attrs *Attributes, name string, val T) {
	attrs.set(name, attributeT[T]{value: val})
}

// SetNew sets an attribute and returns an error if the attribute is already set.
func SetNew[T any](attrs *Attributes, name string, val T) error {
	if attrs.Has(name) {
		return errors.Errorf("attribute %s has already been defined", name)
	}
	Set(attrs, name, val)
	return nil
}

// Get an attribute value given its name.
// Returns false if the attribute has not been defined or has a different type.
func Get[T any](attrs *Attributes, name string) (t T, ok bool) {
	attr := attrs.get(name)
	if attr == nil {
		return
	}
	t, ok = attr.Value().(T)
	return
}

// GetDef gets an attribute or returns a default value if it is not set.
func GetDef[T any](attrs *Attributes, name string, def T) T {
	t, ok := Get[T](attrs, name)
	if !ok {
		return def
	}
	return t
}
