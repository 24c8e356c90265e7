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

// Package dce eliminates nodes that do not contribute to the results of a function.
package dce

import (
	"github.com/sirupsen/logrus"
	"github.com/gx-org/kernelgen/ir"
	"github.com/gx-org/kernelgen/pass"
)

// Pass computing the live nodes of a function.
// Parameters are always live. Nodes left without users by a rewrite
// and not reachable from a result are dropped.
type Pass struct {
	// Keep lists additional nodes to keep alive.
	Keep []ir.NodeID
}

var _ pass.Pass = (*Pass)(nil)

// Name of the pass.
func (*Pass) Name() string {
	return "dce"
}

// Run sets the live nodes of the context.
func (p *Pass) Run(c *pass.Context) error {
	c.Live = Live(c.Graph, c.Func, p.Keep...)
	dead := c.Graph.NumNodes() - len(c.Live)
	c.Log.WithFields(logrus.Fields{
		"function": c.Func.Name,
		"live":     len(c.Live),
	}).Debugf("%d node(s) not emitted", dead)
	return nil
}

// Live returns the nodes contributing to the results of fn, producers before consumers.
func Live(g *ir.Graph, fn *ir.Function, keep ...ir.NodeID) []ir.NodeID {
	roots := make([]ir.NodeID, 0, len(fn.Params)+len(fn.Results)+len(keep))
	roots = append(roots, fn.Params...)
	roots = append(roots, fn.Results...)
	roots = append(roots, keep...)
	return g.Reachable(roots)
}
