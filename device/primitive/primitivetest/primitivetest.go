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

// Package primitivetest provides a vendor library recording the primitives it builds.
package primitivetest

import (
	"github.com/gx-org/kernelgen/device/primitive"
)

// Library records the configurations it builds.
type Library struct {
	// Built lists the configurations passed to Build, in order.
	Built []*primitive.Config
	// Fail maps kinds of primitive to the error returned when building them.
	Fail map[primitive.Kind]error
	// Workspace maps kinds of primitive to the workspace their plans require.
	Workspace map[primitive.Kind]int
	// LibVersion returned by Version. Defaults to v1.0.0.
	LibVersion string
}

var _ primitive.Library = (*Library)(nil)

// New returns a new recording library.
func New() *Library {
	return &Library{
		Fail:      make(map[primitive.Kind]error),
		Workspace: make(map[primitive.Kind]int),
	}
}

// Name of the library.
func (*Library) Name() string {
	return "primitivetest"
}

// Version of the library.
func (l *Library) Version() string {
	if l.LibVersion == "" {
		return "v1.0.0"
	}
	return l.LibVersion
}

// Build records the configuration and returns its index as the plan handle.
func (l *Library) Build(cfg *primitive.Config) (primitive.Plan, error) {
	if err := l.Fail[cfg.Kind]; err != nil {
		return primitive.Plan{}, err
	}
	l.Built = append(l.Built, cfg)
	return primitive.Plan{
		Handle:    len(l.Built) - 1,
		Workspace: l.Workspace[cfg.Kind],
	}, nil
}

// Kinds returns the kinds of the primitives built, in order.
func (l *Library) Kinds() []primitive.Kind {
	kinds := make([]primitive.Kind, len(l.Built))
	for i, cfg := range l.Built {
		kinds[i] = cfg.Kind
	}
	return kinds
}

// Count returns the number of primitives of a given kind built.
func (l *Library) Count(kind primitive.Kind) int {
	n := 0
	for _, cfg := range l.Built {
		if cfg.Kind == kind {
			n++
		}
	}
	return n
}
