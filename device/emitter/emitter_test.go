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

package emitter_test

import (
	"io"
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/gx-org/kernelgen/device/alloc"
	"github.com/gx-org/kernelgen/device/emitter"
	"github.com/gx-org/kernelgen/device/primitive"
	"github.com/gx-org/kernelgen/device/primitive/primitivetest"
	"github.com/gx-org/kernelgen/device/program"
	"github.com/gx-org/kernelgen/errs"
	"github.com/gx-org/kernelgen/ir"
)

func f32(axes ...int) *shape.Shape {
	return &shape.Shape{DType: dtype.Float32, AxisLengths: axes}
}

func i32(axes ...int) *shape.Shape {
	return &shape.Shape{DType: dtype.Int32, AxisLengths: axes}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fixture emits the nodes of a graph with a recording vendor library.
type fixture struct {
	g   *ir.Graph
	lib *primitivetest.Library
	a   *alloc.Allocator
	e   *emitter.Emitter
}

func newFixture() *fixture {
	lib := primitivetest.New()
	a := alloc.New(0)
	return &fixture{
		g:   ir.New(),
		lib: lib,
		a:   a,
		e:   emitter.New(a, primitive.NewCache(lib), quietLogger()),
	}
}

func (f *fixture) emit(id ir.NodeID) (*program.Block, error) {
	n := f.g.Node(id)
	return f.e.Emit(n, f.g.InputTensors(n), n.Outputs)
}

func (f *fixture) mustEmit(t *testing.T, id ir.NodeID) *program.Block {
	t.Helper()
	block, err := f.emit(id)
	require.NoError(t, err, "emitting %s", f.g.Node(id))
	return block
}

func (f *fixture) ptr(id ir.NodeID) program.Pointer {
	return program.TensorPtr(f.g.Output(id))
}

func (f *fixture) reservations() (int, int) {
	return f.a.NumReservations()
}

// ints returns the content of an argspace table.
func (f *fixture) ints(t *testing.T, p program.Pointer) []int {
	t.Helper()
	require.True(t, p.IsHandle(), "%s is not an allocator reservation", p)
	content, err := f.a.Content(p.Handle)
	require.NoError(t, err)
	return alloc.DecodeInts(content)
}

func ws(i int) program.Pointer {
	return program.HandlePtr(alloc.Handle{Class: alloc.Workspace, Index: i})
}

func as(i int) program.Pointer {
	return program.HandlePtr(alloc.Handle{Class: alloc.Argspace, Index: i})
}

func invokeAt(t *testing.T, block *program.Block, i int) *program.Invoke {
	t.Helper()
	require.Greater(t, len(block.Instructions), i, "block:\n%s", block)
	inv, ok := block.Instructions[i].(*program.Invoke)
	require.True(t, ok, "instruction %d is %T, not an invocation", i, block.Instructions[i])
	return inv
}

func param(t *testing.T, inv *program.Invoke, name string) string {
	t.Helper()
	v, ok := inv.Primitive.Config.Param(name)
	require.True(t, ok, "parameter %q missing from %s", name, inv.Primitive.Config)
	return v
}

func TestEveryOperatorHasALowering(t *testing.T) {
	for _, kind := range ir.Kinds() {
		if !emitter.Supported(kind) {
			t.Errorf("no lowering for %s", kind)
		}
	}
	if got, want := len(emitter.Kinds()), len(ir.Kinds()); got != want {
		t.Errorf("got %d lowerings but want %d", got, want)
	}
}

func TestMissingLowering(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(2))
	bad := f.g.Op(ir.InvalidOp, nil, f32(2), x)
	_, err := f.emit(bad)
	assert.True(t, errs.Is(err, errs.LookupMiss), "got %v", err)
}

func TestElementwiseAdd(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(1, 1, 1, 8))
	y := f.g.Parameter(f32(1, 1, 1, 8))
	add := f.g.Op(ir.Add, nil, f32(1, 1, 1, 8), x, y)

	block := f.mustEmit(t, add)
	require.Len(t, block.Instructions, 1)
	inv := invokeAt(t, block, 0)
	assert.Equal(t, []program.Pointer{f.ptr(x), f.ptr(y)}, inv.Inputs)
	assert.Equal(t, []program.Pointer{f.ptr(add)}, inv.Outputs)
	assert.Equal(t, primitive.OpTensor, inv.Primitive.Config.Kind)
	assert.Equal(t, [][]int{{1, 1, 1, 8}}, inv.Primitive.Config.Shapes)
	assert.Equal(t, "add", param(t, inv, "op"))
	wsNum, asNum := f.reservations()
	assert.Equal(t, 0, wsNum)
	assert.Equal(t, 0, asNum)
}

func TestElementwiseStrategies(t *testing.T) {
	tests := []struct {
		op     ir.OpKind
		kind   primitive.Kind
		params map[string]string
	}{
		{
			op:     ir.Subtract,
			kind:   primitive.OpTensor,
			params: map[string]string{"op": "add", "alpha1": "1", "alpha2": "-1"},
		},
		{
			op:     ir.Negative,
			kind:   primitive.OpTensor,
			params: map[string]string{"op": "add", "alpha1": "-1", "alpha2": "0"},
		},
		{
			op:     ir.Sqrt,
			kind:   primitive.OpTensor,
			params: map[string]string{"op": "sqrt"},
		},
		{
			op:     ir.Exp,
			kind:   primitive.ElementwiseKernel,
			params: map[string]string{"op": "exp"},
		},
		{
			op:     ir.Power,
			kind:   primitive.ElementwiseKernel,
			params: map[string]string{"op": "power"},
		},
		{
			op:     ir.Select,
			kind:   primitive.ElementwiseKernel,
			params: map[string]string{"op": "select"},
		},
	}
	for _, test := range tests {
		f := newFixture()
		var args []ir.NodeID
		for i := 0; i < test.op.Arity(); i++ {
			args = append(args, f.g.Parameter(f32(2, 3, 4)))
		}
		node := f.g.Op(test.op, nil, f32(2, 3, 4), args...)
		block := f.mustEmit(t, node)
		require.Len(t, block.Instructions, 1, test.op.String())
		inv := invokeAt(t, block, 0)
		assert.Equal(t, test.kind, inv.Primitive.Config.Kind, test.op.String())
		assert.Equal(t, [][]int{{1, 1, 1, 24}}, inv.Primitive.Config.Shapes, test.op.String())
		for name, want := range test.params {
			assert.Equal(t, want, param(t, inv, name), "%s: parameter %s", test.op, name)
		}
	}
}

func TestUnaryTensorOpReadsItsOperandTwice(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(5))
	neg := f.g.Op(ir.Negative, nil, f32(5), x)
	inv := invokeAt(t, f.mustEmit(t, neg), 0)
	assert.Equal(t, []program.Pointer{f.ptr(x), f.ptr(x)}, inv.Inputs)
}

func TestZeroSizeOutputs(t *testing.T) {
	conv := &ir.ConvolutionAttrs{PaddingBelow: []int{0, 1}, PaddingAbove: []int{1, 0}}
	pool := &ir.PoolAttrs{WindowShape: []int{2, 2}, PaddingBelow: []int{0, 1}, PaddingAbove: []int{1, 0}}
	tests := []struct {
		name  string
		build func(g *ir.Graph) ir.NodeID
	}{
		{
			name: "add",
			build: func(g *ir.Graph) ir.NodeID {
				return g.Op(ir.Add, nil, f32(0, 8), g.Parameter(f32(0, 8)), g.Parameter(f32(0, 8)))
			},
		},
		{
			name: "exp",
			build: func(g *ir.Graph) ir.NodeID {
				return g.Op(ir.Exp, nil, f32(0), g.Parameter(f32(0)))
			},
		},
		{
			name: "dot",
			build: func(g *ir.Graph) ir.NodeID {
				return g.Op(ir.Dot, &ir.DotAttrs{ReductionAxes: 1}, f32(0, 3), g.Parameter(f32(0, 2)), g.Parameter(f32(2, 3)))
			},
		},
		{
			name: "convolution",
			build: func(g *ir.Graph) ir.NodeID {
				return g.Op(ir.Convolution, conv, f32(0, 1, 4, 4), g.Parameter(f32(0, 1, 5, 5)), g.Parameter(f32(1, 1, 3, 3)))
			},
		},
		{
			name: "sum",
			build: func(g *ir.Graph) ir.NodeID {
				return g.Op(ir.Sum, &ir.ReduceAttrs{Axes: []int{1}}, f32(0), g.Parameter(f32(0, 3)))
			},
		},
		{
			name: "reshape",
			build: func(g *ir.Graph) ir.NodeID {
				return g.Op(ir.Reshape, &ir.ReshapeAttrs{InputOrder: []int{1, 0, 2}}, f32(3, 0, 2), g.Parameter(f32(0, 3, 2)))
			},
		},
		{
			name: "slice",
			build: func(g *ir.Graph) ir.NodeID {
				return g.Op(ir.Slice, &ir.SliceAttrs{LowerBounds: []int{0}, UpperBounds: []int{0}}, f32(0), g.Parameter(f32(4)))
			},
		},
		{
			name: "concat",
			build: func(g *ir.Graph) ir.NodeID {
				return g.Op(ir.Concat, &ir.ConcatAttrs{Axis: 1}, f32(0, 5), g.Parameter(f32(0, 2)), g.Parameter(f32(0, 3)))
			},
		},
		{
			name: "max pool",
			build: func(g *ir.Graph) ir.NodeID {
				return g.Op(ir.MaxPool, pool, f32(0, 1, 5, 5), g.Parameter(f32(0, 1, 5, 5)))
			},
		},
		{
			name: "softmax",
			build: func(g *ir.Graph) ir.NodeID {
				return g.Op(ir.Softmax, &ir.SoftmaxAttrs{Axes: []int{1}}, f32(0, 3), g.Parameter(f32(0, 3)))
			},
		},
		{
			name: "batch norm",
			build: func(g *ir.Graph) ir.NodeID {
				gamma, beta, x := g.Parameter(f32(3)), g.Parameter(f32(3)), g.Parameter(f32(0, 3, 2, 2))
				return g.AddNode(ir.BatchNorm, &ir.BatchNormAttrs{Epsilon: 1e-5, Training: true},
					[]*shape.Shape{f32(0, 3, 2, 2), f32(3), f32(3)},
					ir.Input{Node: gamma}, ir.Input{Node: beta}, ir.Input{Node: x})
			},
		},
		{
			name: "result",
			build: func(g *ir.Graph) ir.NodeID {
				return g.Result(g.Parameter(f32(0)))
			},
		},
	}
	for _, test := range tests {
		f := newFixture()
		node := test.build(f.g)
		block, err := f.emit(node)
		require.NoError(t, err, test.name)
		assert.True(t, block.Empty(), "%s: got instructions\n%s", test.name, block)
		wsNum, asNum := f.reservations()
		assert.Equal(t, 0, wsNum+asNum, "%s: got reservations", test.name)
		assert.Empty(t, f.lib.Built, "%s: got primitives", test.name)
	}
}

func TestZeroSizeFunctionCallIsEmitted(t *testing.T) {
	f := newFixture()
	p := f.g.Parameter(f32(0))
	callee := f.g.Function("callee", []ir.NodeID{p}, []ir.NodeID{f.g.Result(p)})
	x := f.g.Parameter(f32(0))
	call := f.g.Op(ir.FunctionCall, &ir.FunctionCallAttrs{Func: callee}, f32(0), x)

	block := f.mustEmit(t, call)
	require.Len(t, block.Instructions, 1)
	assert.Equal(t, &program.Call{
		Function: "callee",
		Args:     []program.Pointer{f.ptr(x)},
		Outs:     []program.Pointer{f.ptr(call)},
	}, block.Instructions[0])
}

func TestCacheDeterminism(t *testing.T) {
	f := newFixture()
	attrs := &ir.ConvolutionAttrs{PaddingBelow: []int{1, 1}, PaddingAbove: []int{1, 1}}
	filter := f.g.Parameter(f32(2, 1, 3, 3))
	var entries []*primitive.Entry
	for i := 0; i < 2; i++ {
		x := f.g.Parameter(f32(1, 1, 5, 5))
		conv := f.g.Op(ir.Convolution, attrs, f32(1, 2, 5, 5), x, filter)
		entries = append(entries, invokeAt(t, f.mustEmit(t, conv), 0).Primitive)
	}
	assert.Same(t, entries[0], entries[1])
	assert.Equal(t, entries[0].Key, entries[1].Key)
	assert.Len(t, f.lib.Built, 1)
}

func TestPlanWorkspace(t *testing.T) {
	f := newFixture()
	f.lib.Workspace[primitive.Gemm] = 1000
	x := f.g.Parameter(f32(2, 3))
	y := f.g.Parameter(f32(3, 4))
	dot := f.g.Op(ir.Dot, &ir.DotAttrs{ReductionAxes: 1}, f32(2, 4), x, y)

	inv := invokeAt(t, f.mustEmit(t, dot), 0)
	require.Equal(t, []program.Pointer{ws(0)}, inv.Scratch)
	size, err := f.a.Size(ws(0).Handle)
	require.NoError(t, err)
	assert.Equal(t, 1000, size)
}

func TestBuildFailureIsAResourceError(t *testing.T) {
	f := newFixture()
	f.lib.Fail[primitive.OpTensor] = errors.New("device out of memory")
	x := f.g.Parameter(f32(4))
	add := f.g.Op(ir.Add, nil, f32(4), x, x)

	_, err := f.emit(add)
	require.Error(t, err)
	assert.Equal(t, errs.Resource, errs.KindOf(err))
	assert.Contains(t, err.Error(), "device out of memory")
}

func TestWorkspaceExhausted(t *testing.T) {
	lib := primitivetest.New()
	a := alloc.New(256)
	e := emitter.New(a, primitive.NewCache(lib), quietLogger())
	g := ir.New()
	x := g.Parameter(f32(1, 1, 16, 16))
	filter := g.Parameter(f32(1, 1, 3, 3))
	conv := g.Op(ir.Convolution, &ir.ConvolutionAttrs{PaddingBelow: []int{0, 1}, PaddingAbove: []int{1, 0}}, f32(1, 1, 15, 15), x, filter)

	n := g.Node(conv)
	_, err := e.Emit(n, g.InputTensors(n), n.Outputs)
	assert.True(t, errs.Is(err, errs.Resource), "got %v", err)
}

