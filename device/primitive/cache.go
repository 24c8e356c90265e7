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

package primitive

import (
	"fmt"

	"github.com/gx-org/kernelgen/base/ordered"
	"github.com/gx-org/kernelgen/errs"
)

// Plan is an execution plan built by a vendor library.
type Plan struct {
	// Handle is opaque to the compiler.
	Handle any
	// Workspace is the number of scratch bytes the plan requires when invoked.
	Workspace int
}

// Library is a vendor tensor library building execution plans.
type Library interface {
	// Name of the library.
	Name() string
	// Version of the library, as a semantic version.
	Version() string
	// Build an execution plan.
	Build(cfg *Config) (Plan, error)
}

// Entry of the cache.
type Entry struct {
	// Index of the entry in the cache.
	Index  int
	Key    string
	Config *Config
	Plan   Plan
}

func (e *Entry) String() string {
	return fmt.Sprintf("prim%d", e.Index)
}

// Cache of the primitives built for one compilation.
// It is not safe for concurrent use: if emission becomes concurrent,
// Get must become an atomic check-then-insert.
type Cache struct {
	lib     Library
	entries *ordered.Map[string, *Entry]
	builds  int
}

// NewCache returns an empty cache building primitives with lib.
func NewCache(lib Library) *Cache {
	return &Cache{
		lib:     lib,
		entries: ordered.NewMap[string, *Entry](),
	}
}

// Library used to build the primitives.
func (c *Cache) Library() Library {
	return c.lib
}

// Get returns the entry for a configuration, building the primitive
// if the configuration has never been seen.
// Build failures are returned as resource errors.
func (c *Cache) Get(cfg *Config) (*Entry, error) {
	key := cfg.Key()
	entry, _, err := c.entries.LoadOrCompute(key, func() (*Entry, error) {
		plan, err := c.lib.Build(cfg)
		if err != nil {
			return nil, errs.ResourceWrap(string(cfg.Kind), err)
		}
		c.builds++
		return &Entry{
			Index:  c.entries.Size(),
			Key:    key,
			Config: cfg.clone(),
			Plan:   plan,
		}, nil
	})
	return entry, err
}

// Builds returns the number of primitives built by the library.
func (c *Cache) Builds() int {
	return c.builds
}

// Entries returns the cached entries in the order they were built.
func (c *Cache) Entries() []*Entry {
	entries := make([]*Entry, 0, c.entries.Size())
	for e := range c.entries.Values() {
		entries = append(entries, e)
	}
	return entries
}
