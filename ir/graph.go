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

// Package ir defines the node graph lowered by the compiler.
//
// Nodes live in an arena owned by a Graph and refer to each other with
// NodeID indices. Each node records its consumers in a users multiset:
// for every edge c.Inputs[i] = p, p.users[c] counts the number of
// occurrences of p in the inputs of c.
package ir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gx-org/backend/shape"
	"github.com/gx-org/kernelgen/base/uname"
	"github.com/gx-org/kernelgen/descriptor"
)

// NodeID is the index of a node in its graph.
type NodeID int

// Input is an edge from the output of a producer node.
type Input struct {
	Node  NodeID
	Index int
}

func (in Input) String() string {
	if in.Index == 0 {
		return fmt.Sprintf("%%%d", in.Node)
	}
	return fmt.Sprintf("%%%d.%d", in.Node, in.Index)
}

// Node in a graph.
type Node struct {
	id NodeID

	// Op is the kind of operator computed by the node.
	Op OpKind
	// Name of the node, unique in its graph.
	Name string
	// Inputs of the node, in order.
	Inputs []Input
	// Outputs of the node.
	Outputs []*descriptor.Tensor
	// Attrs are the operator attributes, e.g. *ConvolutionAttrs.
	Attrs any

	users map[NodeID]int
}

// ID of the node in its graph.
func (n *Node) ID() NodeID {
	return n.id
}

// Users returns the consumers of the node sorted by id.
// A consumer using the node more than once appears once.
func (n *Node) Users() []NodeID {
	users := make([]NodeID, 0, len(n.users))
	for id := range n.users {
		users = append(users, id)
	}
	slices.Sort(users)
	return users
}

// UseCount returns the number of edges from the node to a consumer.
func (n *Node) UseCount(consumer NodeID) int {
	return n.users[consumer]
}

// NumUses returns the total number of edges leaving the node.
func (n *Node) NumUses() int {
	total := 0
	for _, c := range n.users {
		total += c
	}
	return total
}

// AddUser records one more edge from the node to consumer.
func (n *Node) AddUser(consumer NodeID) {
	n.users[consumer]++
}

// RemoveUser removes one edge from the node to consumer.
func (n *Node) RemoveUser(consumer NodeID) {
	count := n.users[consumer]
	if count <= 1 {
		delete(n.users, consumer)
		return
	}
	n.users[consumer] = count - 1
}

// ClearUsers removes all the consumers of the node.
func (n *Node) ClearUsers() {
	clear(n.users)
}

func (n *Node) String() string {
	ins := make([]string, len(n.Inputs))
	for i, in := range n.Inputs {
		ins[i] = in.String()
	}
	outs := make([]string, len(n.Outputs))
	for i, out := range n.Outputs {
		outs[i] = out.String()
	}
	return fmt.Sprintf("%%%d %s = %s(%s) -> %s", n.id, n.Name, n.Op, strings.Join(ins, ", "), strings.Join(outs, ", "))
}

// Graph is an arena of nodes.
type Graph struct {
	nodes []*Node
	names *uname.Unique
	scope *descriptor.Scope
	funcs []*Function
}

// New returns a new empty graph.
func New() *Graph {
	return &Graph{
		names: uname.New(),
		scope: descriptor.NewScope(),
	}
}

// Scope returns the scope in which descriptors of the graph are named.
func (g *Graph) Scope() *descriptor.Scope {
	return g.scope
}

// Node returns a node given its ID or nil if the ID is out of range.
func (g *Graph) Node(id NodeID) *Node {
	if id < 0 || int(id) >= len(g.nodes) {
		return nil
	}
	return g.nodes[id]
}

// NumNodes returns the number of nodes in the arena.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// IDs returns the ID of all the nodes in creation order.
func (g *Graph) IDs() []NodeID {
	ids := make([]NodeID, len(g.nodes))
	for i := range g.nodes {
		ids[i] = NodeID(i)
	}
	return ids
}

// InputTensors returns the descriptors read by a node, in order.
func (g *Graph) InputTensors(n *Node) []*descriptor.Tensor {
	tensors := make([]*descriptor.Tensor, len(n.Inputs))
	for i, in := range n.Inputs {
		tensors[i] = g.nodes[in.Node].Outputs[in.Index]
	}
	return tensors
}

func roleOf(op OpKind) descriptor.Role {
	switch op {
	case Parameter:
		return descriptor.Input
	case Constant:
		return descriptor.Persistent
	case Result:
		return descriptor.Output
	}
	return 0
}

// AddNode appends a node to the arena and registers it as a user of its inputs.
// The inputs must already be in the graph.
func (g *Graph) AddNode(op OpKind, attrs any, outs []*shape.Shape, inputs ...Input) NodeID {
	id := NodeID(len(g.nodes))
	name := g.names.Name(strings.ToLower(op.String()))
	n := &Node{
		id:      id,
		Op:      op,
		Name:    name,
		Inputs:  slices.Clone(inputs),
		Attrs:   attrs,
		users:   make(map[NodeID]int),
		Outputs: make([]*descriptor.Tensor, len(outs)),
	}
	role := roleOf(op)
	for i, sh := range outs {
		root := name
		if i > 0 {
			root = fmt.Sprintf("%s_%d", name, i)
		}
		n.Outputs[i] = g.scope.New(root, sh, role)
	}
	g.nodes = append(g.nodes, n)
	for _, in := range inputs {
		g.nodes[in.Node].AddUser(id)
	}
	return id
}

// Op appends a node with a single output reading the first output of each input.
func (g *Graph) Op(op OpKind, attrs any, out *shape.Shape, inputs ...NodeID) NodeID {
	ins := make([]Input, len(inputs))
	for i, id := range inputs {
		ins[i] = Input{Node: id}
	}
	return g.AddNode(op, attrs, []*shape.Shape{out}, ins...)
}

// Parameter appends a parameter node.
func (g *Graph) Parameter(sh *shape.Shape) NodeID {
	return g.Op(Parameter, nil, sh)
}

// Constant appends a constant node.
func (g *Graph) Constant(sh *shape.Shape) NodeID {
	return g.Op(Constant, nil, sh)
}

// Result appends a node copying x into an output of the function.
func (g *Graph) Result(x NodeID) NodeID {
	return g.Op(Result, nil, g.nodes[x].Outputs[0].Shape(), x)
}

// Output returns the descriptor of the first output of a node.
func (g *Graph) Output(id NodeID) *descriptor.Tensor {
	return g.nodes[id].Outputs[0]
}

// Functions returns the functions declared in the graph.
func (g *Graph) Functions() []*Function {
	return g.funcs
}
