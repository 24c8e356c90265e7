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
	"slices"

	"github.com/gx-org/kernelgen/ir"
	"github.com/gx-org/kernelgen/ir/pattern"
)

func hasUsers(_ *ir.Graph, n *ir.Node) bool {
	return n.NumUses() > 0
}

// replaceWith returns a callback replacing the matched node by a captured node.
func replaceWith(label string) Callback {
	return func(m pattern.Matcher, node ir.NodeID, e *Engine) {
		e.ReplaceNode(node, m.Captures()[label])
	}
}

// NegNegRule rewrites -(-x) into x.
func NegNegRule() Rule {
	return Rule{
		Name: "neg-neg",
		Matcher: pattern.Op(ir.Negative,
			pattern.Op(ir.Negative, pattern.Any("x")),
		).Where(hasUsers),
		Callback: replaceWith("x"),
	}
}

func isIdentityReshape(g *ir.Graph, n *ir.Node) bool {
	attrs, ok := n.Attrs.(*ir.ReshapeAttrs)
	if !ok || !slices.IsSorted(attrs.InputOrder) {
		return false
	}
	in := g.InputTensors(n)[0]
	out := n.Outputs[0]
	return in.DType() == out.DType() && slices.Equal(in.Axes(), out.Axes())
}

// IdentityReshapeRule removes reshapes neither permuting nor changing the shape of their input.
func IdentityReshapeRule() Rule {
	return Rule{
		Name: "identity-reshape",
		Matcher: pattern.Op(ir.Reshape, pattern.Any("x")).
			Where(func(g *ir.Graph, n *ir.Node) bool {
				return hasUsers(g, n) && isIdentityReshape(g, n)
			}),
		Callback: replaceWith("x"),
	}
}

// SingleInputConcatRule removes concatenations of a single input.
func SingleInputConcatRule() Rule {
	return Rule{
		Name:     "single-input-concat",
		Matcher:  pattern.Op(ir.Concat, pattern.Any("x")).Where(hasUsers),
		Callback: replaceWith("x"),
	}
}

// DefaultRules returns the peephole rules applied by the compiler by default.
func DefaultRules() []Rule {
	return []Rule{
		NegNegRule(),
		IdentityReshapeRule(),
		SingleInputConcatRule(),
	}
}
