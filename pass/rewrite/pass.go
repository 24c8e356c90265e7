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

package rewrite

import (
	"github.com/gx-org/kernelgen/pass"
)

// Mode selects how many times the rules are applied.
type Mode int

const (
	// SinglePass traverses the graph once.
	SinglePass Mode = iota
	// Fixpoint traverses the graph until no rule matches.
	Fixpoint
)

func (m Mode) String() string {
	if m == Fixpoint {
		return "fixpoint"
	}
	return "single-pass"
}

// DefaultMaxPasses is the maximum number of traversals in Fixpoint mode.
const DefaultMaxPasses = 16

// Pass applies rewrite rules to the function being compiled.
type Pass struct {
	Rules     []Rule
	Mode      Mode
	MaxPasses int
}

var _ pass.Pass = (*Pass)(nil)

// Name of the pass.
func (p *Pass) Name() string {
	return "rewrite/" + p.Mode.String()
}

// Run the rules over the nodes reachable from the results of the function.
func (p *Pass) Run(c *pass.Context) error {
	eng := New(c.Graph, c.Log, p.Rules...)
	if p.Mode == SinglePass {
		c.Changed = eng.Run(c.Func.Ops())
		return nil
	}
	maxPasses := p.MaxPasses
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}
	passes, err := eng.RunToFixpoint(c.Func.Ops, maxPasses)
	if err != nil {
		return err
	}
	c.Changed = passes > 1
	c.Log.Debugf("rewrite fixpoint reached after %d pass(es)", passes)
	return nil
}
