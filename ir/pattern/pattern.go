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

// Package pattern matches templates of operators against a graph.
package pattern

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/exp/maps"
	"github.com/gx-org/kernelgen/ir"
)

// Matcher matches a subgraph rooted at a node.
type Matcher interface {
	// Reset clears the captures of the previous match.
	Reset()
	// Match returns true if the subgraph rooted at node matches.
	Match(g *ir.Graph, node ir.NodeID) bool
	// Captures returns the nodes bound to labels by the last successful match.
	Captures() map[string]ir.NodeID
}

type templateKind int

const (
	anyKind templateKind = iota
	opKind
)

// Template is a tree of operators matched against producer edges.
type Template struct {
	kind  templateKind
	op    ir.OpKind
	args  []*Template
	label string
	pred  func(*ir.Graph, *ir.Node) bool

	captures map[string]ir.NodeID
}

var _ Matcher = (*Template)(nil)

// Op matches a node computing op whose inputs match args.
// If no args are given, inputs are not inspected.
func Op(op ir.OpKind, args ...*Template) *Template {
	return &Template{kind: opKind, op: op, args: args}
}

// Any matches any node and binds it to label.
func Any(label string) *Template {
	return &Template{kind: anyKind, label: label}
}

// Label binds the node matched by t to label.
func Label(label string, t *Template) *Template {
	t.label = label
	return t
}

// Where adds a predicate a node must satisfy to match.
func (t *Template) Where(pred func(*ir.Graph, *ir.Node) bool) *Template {
	t.pred = pred
	return t
}

// Reset clears the captures.
func (t *Template) Reset() {
	t.captures = nil
}

// Match the template against the subgraph rooted at node.
// A label used more than once must bind the same node everywhere.
func (t *Template) Match(g *ir.Graph, node ir.NodeID) bool {
	captures := make(map[string]ir.NodeID)
	if !t.match(g, node, captures) {
		return false
	}
	t.captures = captures
	return true
}

func (t *Template) match(g *ir.Graph, id ir.NodeID, captures map[string]ir.NodeID) bool {
	n := g.Node(id)
	if n == nil {
		return false
	}
	if t.kind == opKind {
		if n.Op != t.op {
			return false
		}
		if t.args != nil {
			if len(t.args) != len(n.Inputs) {
				return false
			}
			for i, arg := range t.args {
				if !arg.match(g, n.Inputs[i].Node, captures) {
					return false
				}
			}
		}
	}
	if t.pred != nil && !t.pred(g, n) {
		return false
	}
	if t.label == "" {
		return true
	}
	if prev, ok := captures[t.label]; ok && prev != id {
		return false
	}
	captures[t.label] = id
	return true
}

// Captures returns a copy of the nodes bound by the last match.
func (t *Template) Captures() map[string]ir.NodeID {
	return maps.Clone(t.captures)
}

// String representation of the template.
func (t *Template) String() string {
	var s strings.Builder
	if t.label != "" {
		s.WriteString(t.label + ":")
	}
	if t.kind == anyKind {
		s.WriteString("?")
		return s.String()
	}
	s.WriteString(t.op.String())
	if t.args == nil {
		return s.String()
	}
	args := make([]string, len(t.args))
	for i, arg := range t.args {
		args[i] = arg.String()
	}
	s.WriteString("(" + strings.Join(args, ", ") + ")")
	return s.String()
}

// CapturesString returns a deterministic representation of captures.
func CapturesString(captures map[string]ir.NodeID) string {
	labels := maps.Keys(captures)
	sort.Strings(labels)
	strs := make([]string, len(labels))
	for i, label := range labels {
		strs[i] = fmt.Sprintf("%s=%%%d", label, captures[label])
	}
	return "{" + strings.Join(strs, " ") + "}"
}
