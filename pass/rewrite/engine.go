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

// Package rewrite applies pattern-matching rules to a graph.
//
// An engine matches every rule against every node of a traversal.
// All the rules matching a node fire, in the order of the rule table.
// Callbacks rewire the graph with ReplaceNode, which keeps the users
// multisets consistent with the inputs of the consumers.
// Nodes left without users are removed later by dead node elimination.
package rewrite

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/gx-org/kernelgen/ir"
	"github.com/gx-org/kernelgen/ir/pattern"
)

// Callback is called when the matcher of a rule matches a node.
// Callbacks have no error path: a callback breaking the graph invariants
// is detected by ir.Graph.Validate.
type Callback func(m pattern.Matcher, node ir.NodeID, e *Engine)

// Rule associates a matcher to a callback.
type Rule struct {
	Name     string
	Matcher  pattern.Matcher
	Callback Callback
}

// Engine applies a fixed table of rules to a graph.
type Engine struct {
	g         *ir.Graph
	rules     []Rule
	log       logrus.FieldLogger
	rewritten map[ir.NodeID]bool
}

// New returns an engine applying rules to a graph.
// A nil logger logs to the standard logrus logger.
func New(g *ir.Graph, log logrus.FieldLogger, rules ...Rule) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{
		g:         g,
		rules:     append([]Rule{}, rules...),
		log:       log,
		rewritten: make(map[ir.NodeID]bool),
	}
}

// Graph being rewritten.
func (e *Engine) Graph() *ir.Graph {
	return e.g
}

// Rewritten returns true if a rule has matched the node.
func (e *Engine) Rewritten(node ir.NodeID) bool {
	return e.rewritten[node]
}

// Run matches all the rules against every node in order.
// It returns true if at least one rule matched.
func (e *Engine) Run(nodes []ir.NodeID) bool {
	matched := false
	for _, node := range nodes {
		for _, rule := range e.rules {
			rule.Matcher.Reset()
			if !rule.Matcher.Match(e.g, node) {
				continue
			}
			e.log.WithFields(logrus.Fields{
				"rule":     rule.Name,
				"node":     e.g.Node(node).Name,
				"captures": pattern.CapturesString(rule.Matcher.Captures()),
			}).Debug("rule matched")
			e.rewritten[node] = true
			matched = true
			rule.Callback(rule.Matcher, node, e)
		}
	}
	return matched
}

// RunToFixpoint runs the rules until no rule matches.
// order is called before each pass to get the nodes to traverse.
// It returns the number of passes, and an error if a rule still
// matched after maxPasses passes.
func (e *Engine) RunToFixpoint(order func() []ir.NodeID, maxPasses int) (int, error) {
	for passes := 1; passes <= maxPasses; passes++ {
		if !e.Run(order()) {
			return passes, nil
		}
	}
	return maxPasses, errors.Errorf("rewrite rules still matching after %d passes", maxPasses)
}

// ReplaceNode moves all the consumers of target to replacement.
// Every occurrence of target in the inputs of a consumer is substituted
// by replacement (keeping the output index) and recorded in the users of
// replacement. target is left without users.
func (e *Engine) ReplaceNode(target, replacement ir.NodeID) {
	if target == replacement {
		return
	}
	t, r := e.g.Node(target), e.g.Node(replacement)
	for _, cid := range t.Users() {
		consumer := e.g.Node(cid)
		for i := range consumer.Inputs {
			if consumer.Inputs[i].Node != target {
				continue
			}
			consumer.Inputs[i].Node = replacement
			r.AddUser(cid)
		}
	}
	t.ClearUsers()
	e.log.WithFields(logrus.Fields{
		"target":      t.Name,
		"replacement": r.Name,
	}).Info("node replaced")
}
