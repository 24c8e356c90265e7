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

package ir

// Function is a named subgraph of a graph.
// It is either compiled as a whole or used as the callee of FunctionCall
// or as the combining function of a reduction.
type Function struct {
	g *Graph

	Name    string
	Params  []NodeID
	Results []NodeID
}

// Function declares a new function in the graph.
func (g *Graph) Function(name string, params, results []NodeID) *Function {
	f := &Function{g: g, Name: name, Params: params, Results: results}
	g.funcs = append(g.funcs, f)
	return f
}

// Graph owning the function.
func (f *Function) Graph() *Graph {
	return f.g
}

// Ops returns the nodes reachable from the results of the function,
// producers before consumers.
func (f *Function) Ops() []NodeID {
	return f.g.Reachable(f.Results)
}

// Reachable returns the nodes reachable through inputs from a set of roots
// in topological order.
func (g *Graph) Reachable(roots []NodeID) []NodeID {
	visited := make(map[NodeID]bool)
	var order []NodeID
	var visit func(NodeID)
	visit = func(id NodeID) {
		if visited[id] {
			return
		}
		visited[id] = true
		n := g.Node(id)
		if n == nil {
			return
		}
		for _, in := range n.Inputs {
			visit(in.Node)
		}
		order = append(order, id)
	}
	for _, root := range roots {
		visit(root)
	}
	return order
}

// TopoOrder returns all the nodes of the graph, producers before consumers.
// Nodes are otherwise ordered by ID.
func (g *Graph) TopoOrder() []NodeID {
	return g.Reachable(g.IDs())
}
