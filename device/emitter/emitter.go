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

// Package emitter lowers the nodes of a graph to device instructions.
//
// Every operator has a lowering registered in a table when the package is
// initialized. A lowering chooses how an operator runs on the device:
// a vendor primitive, a custom kernel, raw buffer operations or a mix of
// those. Primitives are built through a cache shared by all the nodes of
// a compiled function and memory is reserved from its allocator.
package emitter

import (
	"github.com/gx-org/backend/dtype"
	"github.com/sirupsen/logrus"
	"github.com/gx-org/kernelgen/base/iter"
	"github.com/gx-org/kernelgen/base/ordered"
	"github.com/gx-org/kernelgen/descriptor"
	"github.com/gx-org/kernelgen/device/alloc"
	"github.com/gx-org/kernelgen/device/primitive"
	"github.com/gx-org/kernelgen/device/program"
	"github.com/gx-org/kernelgen/errs"
	"github.com/gx-org/kernelgen/ir"
)

type flag int

const (
	// emitZeroSize lowers a node even if one of its outputs has no element.
	emitZeroSize flag = 1 << iota
)

type lowering func(c *call) error

type registration struct {
	lower lowering
	// check runs before outputs with no element short-circuit the lowering.
	check lowering
	flags flag
}

var lowerings = ordered.NewMap[ir.OpKind, registration]()

func register(kind ir.OpKind, lower lowering, flags flag) {
	lowerings.Store(kind, registration{lower: lower, flags: flags})
}

func registerChecked(kind ir.OpKind, check, lower lowering) {
	lowerings.Store(kind, registration{lower: lower, check: check})
}

// Kinds returns the operators with a lowering, in registration order.
func Kinds() []ir.OpKind {
	var kinds []ir.OpKind
	for kind := range lowerings.Keys() {
		kinds = append(kinds, kind)
	}
	return kinds
}

// Supported returns true if the emitter can lower an operator.
func Supported(kind ir.OpKind) bool {
	_, ok := lowerings.Load(kind)
	return ok
}

// Emitter lowers the nodes of a function.
type Emitter struct {
	alloc *alloc.Allocator
	cache *primitive.Cache
	log   logrus.FieldLogger
}

// New returns an emitter reserving memory from a and building primitives through cache.
// A nil logger logs to the standard logrus logger.
func New(a *alloc.Allocator, cache *primitive.Cache, log logrus.FieldLogger) *Emitter {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Emitter{alloc: a, cache: cache, log: log}
}

// Allocator from which memory is reserved.
func (e *Emitter) Allocator() *alloc.Allocator {
	return e.alloc
}

// Cache of primitives.
func (e *Emitter) Cache() *primitive.Cache {
	return e.cache
}

// Emit returns the instructions computing the outputs of a node from its arguments.
// Nodes with an output without element emit nothing, FunctionCall excepted.
func (e *Emitter) Emit(node *ir.Node, args, out []*descriptor.Tensor) (*program.Block, error) {
	reg, ok := lowerings.Load(node.Op)
	if !ok {
		return nil, errs.LookupMissf(node.Op.String(), "no lowering for node %s", node.Name)
	}
	c := &call{
		e:     e,
		node:  node,
		args:  args,
		out:   out,
		block: program.NewBlock(node.Name),
	}
	if reg.check != nil {
		if err := reg.check(c); err != nil {
			return nil, err
		}
	}
	log := e.log.WithFields(logrus.Fields{"node": node.Name, "op": node.Op.String()})
	if reg.flags&emitZeroSize == 0 && iter.Any((*descriptor.Tensor).IsZero, out) {
		log.Debug("output without element: nothing to emit")
		return c.block, nil
	}
	if err := reg.lower(c); err != nil {
		return nil, err
	}
	log.WithField("instructions", len(c.block.Instructions)).Debug("node emitted")
	return c.block, nil
}

// call is the lowering of a single node.
type call struct {
	e     *Emitter
	node  *ir.Node
	args  []*descriptor.Tensor
	out   []*descriptor.Tensor
	block *program.Block
}

func (c *call) op() string {
	return c.node.Op.String()
}

func attrsOf[T any](c *call) (*T, error) {
	attrs, ok := c.node.Attrs.(*T)
	if !ok || attrs == nil {
		return nil, errs.Internalf("%s: got attributes %T but want %T", c.node.Name, c.node.Attrs, attrs)
	}
	return attrs, nil
}

func (c *call) checkArity(numArgs, numOut int) error {
	if len(c.args) < numArgs || len(c.out) < numOut {
		return errs.Internalf("%s: got %d arguments and %d outputs but want at least %d and %d", c.node.Name, len(c.args), len(c.out), numArgs, numOut)
	}
	return nil
}

func (c *call) arg(i int) program.Pointer {
	return program.TensorPtr(c.args[i])
}

func (c *call) res(i int) program.Pointer {
	return program.TensorPtr(c.out[i])
}

func tensorPtrs(ts []*descriptor.Tensor) []program.Pointer {
	ptrs := make([]program.Pointer, len(ts))
	for i, t := range ts {
		ptrs[i] = program.TensorPtr(t)
	}
	return ptrs
}

func ptrs(ps ...program.Pointer) []program.Pointer {
	return ps
}

func dtypes(ts ...*descriptor.Tensor) []dtype.DataType {
	dts := make([]dtype.DataType, len(ts))
	for i, t := range ts {
		dts[i] = t.DType()
	}
	return dts
}

func (c *call) allTensors() []*descriptor.Tensor {
	var all []*descriptor.Tensor
	for t := range iter.All(c.args, c.out) {
		all = append(all, t)
	}
	return all
}

func (c *call) copy(dst, src program.Pointer, bytes int) {
	c.block.Append(&program.Copy{Dst: dst, Src: src, Bytes: bytes})
}

func (c *call) copyTensor(dst, src *descriptor.Tensor) {
	c.copy(program.TensorPtr(dst), program.TensorPtr(src), dst.ByteSize())
}

func (c *call) fill(dst *descriptor.Tensor, value any) {
	c.block.Append(&program.Fill{
		Dst:   program.TensorPtr(dst),
		Value: value,
		Count: dst.Size(),
		DType: dst.DType(),
	})
}

func (c *call) workspace(bytes int) (program.Pointer, error) {
	h, err := c.e.alloc.ReserveWorkspace(bytes)
	if err != nil {
		return program.Pointer{}, errs.ResourceWrap(c.op(), err)
	}
	return program.HandlePtr(h), nil
}

// tables stages tables of integers into argspace.
func (c *call) tables(tables ...[]int) ([]program.Pointer, error) {
	ps := make([]program.Pointer, len(tables))
	for i, table := range tables {
		h, err := c.e.alloc.ReserveInts(table)
		if err != nil {
			return nil, errs.ResourceWrap(c.op(), err)
		}
		ps[i] = program.HandlePtr(h)
	}
	return ps, nil
}

// invoke fetches a primitive from the cache and appends its invocation.
func (c *call) invoke(cfg *primitive.Config, inputs, outputs []program.Pointer) error {
	entry, err := c.e.cache.Get(cfg)
	if err != nil {
		return err
	}
	inv := &program.Invoke{Primitive: entry, Inputs: inputs, Outputs: outputs}
	if entry.Plan.Workspace > 0 {
		scratch, err := c.workspace(entry.Plan.Workspace)
		if err != nil {
			return err
		}
		inv.Scratch = []program.Pointer{scratch}
	}
	c.block.Append(inv)
	return nil
}
