// Copyright 2025 Google LLC
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

import "fmt"

// Unique generates names unique within its scope.
type Unique struct {
	names map[string]int
}

// New name generator.
func New() *Unique {
	return &Unique{names: make(map[string]int)}
}

// Name returns a unique name given a desired root.
// The root is returned as is the first time. A numerical suffix is appended
// afterwards, skipping suffixes colliding with names already handed out.
func (n *Unique) Name(root string) string {
	next, ok := n.names[root]
	if !ok {
		n.names[root] = 1
		return root
	}
	for {
		name := fmt.Sprintf("%s%d", root, next)
		next++
		if _, taken := n.names[name]; taken {
			continue
		}
		n.names[root] = next
		n.names[name] = 1
		return name
	}
}

// Taken returns true if a name has already been returned.
func (n *Unique) Taken(name string) bool {
	_, ok := n.names[name]
	return ok
}
