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

// Package iter provides common iterators.
package iter

import (
	"fmt"
	"iter"
	"strings"
)

// All iterates over the element of multiple slices.
func All[T any](slices ...[]T) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, slice := range slices {
			for _, el := range slice {
				if !yield(el) {
					return
				}
			}
		}
	}
}

// Filter iterates over the elements of a sequence
// and excludes elements for which the filter returns false.
func Filter[T any](f func(T) bool, seq iter.Seq[T]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for el := range seq {
			if !f(el) {
				continue
			}
			if !yield(el) {
				return
			}
		}
	}
}

// OfType iterates over the elements of a sequence which have the type T.
func OfType[T, S any](seq iter.Seq[S]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for el := range seq {
			elT, ok := any(el).(T)
			if !ok {
				continue
			}
			if !yield(elT) {
				return
			}
		}
	}
}

// Map applies a function to every element of a sequence.
func Map[T, S any](f func(S) T, seq iter.Seq[S]) iter.Seq[T] {
	return func(yield func(T) bool) {
		for el := range seq {
			if !yield(f(el)) {
				return
			}
		}
	}
}

// Join concatenates the stringified elements of a sequence.
// The separator string sep is placed between elements in the resulting string.
func Join[T fmt.Stringer](seq iter.Seq[T], sep string) string {
	var b strings.Builder
	n := 0
	for item := range seq {
		if n > 0 {
			b.WriteString(sep)
		}
		b.WriteString(item.String())
		n++
	}
	return b.String()
}

// JoinStrings concatenates the elements of a string sequence.
func JoinStrings(seq iter.Seq[string], sep string) string {
	var b strings.Builder
	n := 0
	for item := range seq {
		if n > 0 {
			b.WriteString(sep)
		}
		b.WriteString(item)
		n++
	}
	return b.String()
}
