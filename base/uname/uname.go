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

// Package uname provides unique names.
package uname

import (
	"fmt"
	"strings"
)

// Unique generates unique names.
type Unique struct {
	names map[string]int
}

// New name generator.
func New() *Unique {
	return &Unique{names: make(map[string]int)}
}

// Name returns a unique name given a desired base name.
// If the base name is available, it is returned directly. Else, a unique
// suffix separated by an underscore is appended.
func (n *Unique) Name(root string) string {
	root = sanitize(root)
	for {
		nextIndex, ok := n.names[root]
		if !ok {
			n.names[root] = 1
			return root
		}
		n.names[root] = nextIndex + 1
		name := fmt.Sprintf("%s_%d", root, nextIndex)
		if _, taken := n.names[name]; taken {
			continue
		}
		n.names[name] = 1
		return name
	}
}

// sanitize replaces characters that cannot appear in an SSA name.
func sanitize(root string) string {
	if root == "" {
		return "v"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		case r == '-':
			return 'm'
		default:
			return '_'
		}
	}, root)
}
