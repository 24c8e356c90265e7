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

// Package pass defines the passes run by the compiler over a graph.
package pass

import (
	"github.com/sirupsen/logrus"
	"github.com/gx-org/kernelgen/ir"
)

// Pass transforms or analyses the graph of a function being compiled.
type Pass interface {
	// Name of the pass.
	Name() string
	// Run the pass.
	Run(c *Context) error
}

// Context shared by the passes of one compilation.
type Context struct {
	Graph *ir.Graph
	Func  *ir.Function
	Log   logrus.FieldLogger

	// Changed is set by a pass modifying the graph.
	Changed bool
	// Live is the list of nodes to emit, producers before consumers.
	// It is set by dead node elimination.
	Live []ir.NodeID
}

// NewContext returns a new context to compile a function.
func NewContext(fn *ir.Function, log logrus.FieldLogger) *Context {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Context{
		Graph: fn.Graph(),
		Func:  fn,
		Log:   log,
	}
}

// Run a sequence of passes, stopping at the first error.
func Run(c *Context, passes ...Pass) error {
	for _, p := range passes {
		c.Changed = false
		if err := p.Run(c); err != nil {
			return err
		}
		c.Log.WithFields(logrus.Fields{
			"pass":    p.Name(),
			"changed": c.Changed,
		}).Debug("pass done")
	}
	return nil
}
