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

package fmterr

import (
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
)

type (
	// Pos is the location of an operation in its source.
	// The zero value is an unknown location.
	Pos struct {
		File      string
		Line, Col int
	}

	// ErrorWithPos is an error attached to the location of an operation.
	ErrorWithPos interface {
		error
		Pos() Pos
		Err() error
	}

	errorWithPos struct {
		pos Pos
		err error
	}
)

// IsKnown returns true if the location has been set.
func (p Pos) IsKnown() bool {
	return p.File != "" || p.Line > 0
}

// String returns the location as file:line:col.
func (p Pos) String() string {
	if !p.IsKnown() {
		return "loc(unknown)"
	}
	return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Col)
}

// Position adds location information to an error.
func Position(pos Pos, err error) ErrorWithPos {
	return errorWithPos{pos: pos, err: err}
}

// Errorf returns a formatted error located at a position.
func Errorf(pos Pos, format string, a ...any) error {
	return Position(pos, errors.Errorf(format, a...))
}

// OpErrorf returns an error reported by an operation.
func OpErrorf(pos Pos, opName string, format string, a ...any) error {
	return Errorf(pos, "'%s' op "+format, append([]any{opName}, a...)...)
}

// Internal marks an error as internal, potentially adding additional information.
func Internal(err error) error {
	return fmt.Errorf("memflat internal error. This is a bug. Please report it. Error:\n%+v", err)
}

// Internalf returns a formatted internal error located at a position.
func Internalf(pos Pos, format string, a ...any) error {
	return Internal(Errorf(pos, format, a...))
}

// Error returns a string description of the error.
func (err errorWithPos) Error() (s string) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		s = fmt.Sprintf("recovered from panic when building error message: %T:\n%v", err.err, string(debug.Stack()))
	}()
	return err.pos.String() + ": " + err.err.Error()
}

// Unwrap the error.
func (err errorWithPos) Unwrap() error {
	return err.err
}

// Format writes the error into the state of the formatter.
func (err errorWithPos) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}

func (err errorWithPos) Pos() Pos {
	return err.pos
}

func (err errorWithPos) Err() error {
	return err.err
}
