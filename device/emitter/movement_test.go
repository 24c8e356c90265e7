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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/gx-org/kernelgen/device/primitive"
	"github.com/gx-org/kernelgen/device/program"
	"github.com/gx-org/kernelgen/errs"
	"github.com/gx-org/kernelgen/ir"
)

func TestReshapeCopies(t *testing.T) {
	tests := []struct {
		order []int
		in    []int
		out   []int
	}{
		{order: nil, in: []int{2, 3}, out: []int{6}},
		{order: []int{0, 1, 2}, in: []int{2, 3, 4}, out: []int{6, 4}},
		{order: []int{1, 0}, in: []int{1, 1}, out: []int{1, 1}},
	}
	for i, test := range tests {
		f := newFixture()
		x := f.g.Parameter(f32(test.in...))
		r := f.g.Op(ir.Reshape, &ir.ReshapeAttrs{InputOrder: test.order}, f32(test.out...), x)
		block := f.mustEmit(t, r)
		require.Len(t, block.Instructions, 1, "test %d", i)
		_, isCopy := block.Instructions[0].(*program.Copy)
		assert.True(t, isCopy, "test %d: got %s", i, block.Instructions[0])
	}
}

func TestReshapeTranspose(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(2, 3))
	r := f.g.Op(ir.Reshape, &ir.ReshapeAttrs{InputOrder: []int{1, 0}}, f32(3, 2), x)
	inv := invokeAt(t, f.mustEmit(t, r), 0)
	assert.Equal(t, primitive.Transpose, inv.Primitive.Config.Kind)
	assert.Equal(t, "2", param(t, inv, "m"))
	assert.Equal(t, "3", param(t, inv, "n"))
	_, asNum := f.reservations()
	assert.Zero(t, asNum)
}

func TestReshapeStridedTranspose(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(2, 3, 4))
	r := f.g.Op(ir.Reshape, &ir.ReshapeAttrs{InputOrder: []int{2, 0, 1}}, f32(4, 2, 3), x)
	inv := invokeAt(t, f.mustEmit(t, r), 0)
	assert.Equal(t, primitive.StridedTransposeKernel, inv.Primitive.Config.Kind)
	assert.Equal(t, "3", param(t, inv, "rank"))
	require.Len(t, inv.Inputs, 3)
	assert.Equal(t, f.ptr(x), inv.Inputs[0])
	assert.Equal(t, []int{12, 4, 1}, f.ints(t, inv.Inputs[1]))
	assert.Equal(t, []int{3, 1, 6}, f.ints(t, inv.Inputs[2]))
}

func TestSlice(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(4, 6))
	s := f.g.Op(ir.Slice, &ir.SliceAttrs{
		LowerBounds: []int{1, 0},
		UpperBounds: []int{3, 6},
		Strides:     []int{1, 2},
	}, f32(2, 3), x)
	inv := invokeAt(t, f.mustEmit(t, s), 0)
	assert.Equal(t, primitive.SliceKernel, inv.Primitive.Config.Kind)
	require.Len(t, inv.Inputs, 5)
	assert.Equal(t, []int{6, 1}, f.ints(t, inv.Inputs[1]))
	assert.Equal(t, []int{3, 1}, f.ints(t, inv.Inputs[2]))
	assert.Equal(t, []int{1, 0}, f.ints(t, inv.Inputs[3]))
	assert.Equal(t, []int{1, 2}, f.ints(t, inv.Inputs[4]))

	whole := f.g.Op(ir.Slice, &ir.SliceAttrs{
		LowerBounds: []int{0, 0},
		UpperBounds: []int{4, 6},
	}, f32(4, 6), x)
	block := f.mustEmit(t, whole)
	assert.Equal(t, &program.Copy{Dst: f.ptr(whole), Src: f.ptr(x), Bytes: 96}, block.Instructions[0])
}

func TestReverse(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(4, 5))
	r := f.g.Op(ir.Reverse, &ir.ReverseAttrs{Axes: []int{1}}, f32(4, 5), x)
	inv := invokeAt(t, f.mustEmit(t, r), 0)
	assert.Equal(t, primitive.ReverseKernel, inv.Primitive.Config.Kind)
	assert.Equal(t, []int{4, 5}, f.ints(t, inv.Inputs[1]))
	assert.Equal(t, []int{0, 1}, f.ints(t, inv.Inputs[2]))

	y := f.g.Parameter(f32(1, 1))
	single := f.g.Op(ir.Reverse, &ir.ReverseAttrs{Axes: []int{0, 1}}, f32(1, 1), y)
	block := f.mustEmit(t, single)
	_, isCopy := block.Instructions[0].(*program.Copy)
	assert.True(t, isCopy)
}

func TestReplaceSlice(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(4, 4))
	src := f.g.Parameter(f32(2, 2))
	rs := f.g.Op(ir.ReplaceSlice, &ir.SliceAttrs{
		LowerBounds: []int{0, 1},
		UpperBounds: []int{4, 4},
		Strides:     []int{2, 2},
	}, f32(4, 4), x, src)
	inv := invokeAt(t, f.mustEmit(t, rs), 0)
	assert.Equal(t, primitive.ReplaceSliceKernel, inv.Primitive.Config.Kind)
	require.Len(t, inv.Inputs, 7)
	assert.Equal(t, []program.Pointer{f.ptr(x), f.ptr(src)}, inv.Inputs[:2])
	assert.Equal(t, []int{4, 1}, f.ints(t, inv.Inputs[2]))
	assert.Equal(t, []int{2, 2}, f.ints(t, inv.Inputs[3]))
	assert.Equal(t, []int{2, 1}, f.ints(t, inv.Inputs[4]))
	assert.Equal(t, []int{0, 1}, f.ints(t, inv.Inputs[5]))
	assert.Equal(t, []int{2, 2}, f.ints(t, inv.Inputs[6]))
}

func TestReplaceSliceOverwrite(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(4, 4))
	src := f.g.Parameter(f32(4, 4))
	rs := f.g.Op(ir.ReplaceSlice, &ir.SliceAttrs{
		LowerBounds: []int{0, 0},
		UpperBounds: []int{4, 4},
	}, f32(4, 4), x, src)
	block := f.mustEmit(t, rs)
	require.Len(t, block.Instructions, 1)
	assert.Equal(t, &program.Copy{Dst: f.ptr(rs), Src: f.ptr(src), Bytes: 64}, block.Instructions[0])
}

func TestReplaceSliceShapeMismatch(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(4, 4))
	src := f.g.Parameter(f32(3, 2))
	rs := f.g.Op(ir.ReplaceSlice, &ir.SliceAttrs{
		LowerBounds: []int{0, 0},
		UpperBounds: []int{4, 4},
		Strides:     []int{2, 2},
	}, f32(4, 4), x, src)
	_, err := f.emit(rs)
	assert.True(t, errs.Is(err, errs.ShapeMismatch), "got %v", err)
	assert.Contains(t, err.Error(), "[3 2]")
}

func TestMalformedSliceBounds(t *testing.T) {
	tests := []struct {
		op    ir.OpKind
		attrs ir.SliceAttrs
		src   []int
		out   []int
	}{
		{
			op:    ir.ReplaceSlice,
			attrs: ir.SliceAttrs{LowerBounds: []int{0, 0}, UpperBounds: []int{4, 4}, Strides: []int{0, 1}},
			src:   []int{4, 4},
			out:   []int{4, 4},
		},
		{
			op:    ir.ReplaceSlice,
			attrs: ir.SliceAttrs{LowerBounds: []int{3, 0}, UpperBounds: []int{1, 4}},
			src:   []int{0, 4},
			out:   []int{4, 4},
		},
		{
			op:    ir.ReplaceSlice,
			attrs: ir.SliceAttrs{LowerBounds: []int{0, 0}, UpperBounds: []int{4, 6}},
			src:   []int{4, 6},
			out:   []int{4, 4},
		},
		{
			op:    ir.Slice,
			attrs: ir.SliceAttrs{LowerBounds: []int{0, 0}, UpperBounds: []int{2, 4}, Strides: []int{1, 0}},
			out:   []int{2, 4},
		},
		{
			op:    ir.Slice,
			attrs: ir.SliceAttrs{LowerBounds: []int{0}, UpperBounds: []int{2, 4}},
			out:   []int{2, 4},
		},
	}
	for i, test := range tests {
		f := newFixture()
		x := f.g.Parameter(f32(4, 4))
		args := []ir.NodeID{x}
		if test.op == ir.ReplaceSlice {
			args = append(args, f.g.Parameter(f32(test.src...)))
		}
		attrs := test.attrs
		s := f.g.Op(test.op, &attrs, f32(test.out...), args...)
		_, err := f.emit(s)
		assert.True(t, errs.Is(err, errs.ShapeMismatch), "test %d %s: got %v but want a shape mismatch", i, test.op, err)
		assert.Empty(t, f.lib.Built, "test %d %s", i, test.op)
	}
}

func TestBroadcast(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(3))
	b := f.g.Op(ir.Broadcast, &ir.BroadcastAttrs{Axes: []int{0}}, f32(2, 3), x)
	inv := invokeAt(t, f.mustEmit(t, b), 0)
	assert.Equal(t, primitive.BroadcastKernel, inv.Primitive.Config.Kind)
	assert.Equal(t, []int{3, 1}, f.ints(t, inv.Inputs[1]))
	assert.Equal(t, []int{0, 1}, f.ints(t, inv.Inputs[2]))

	same := f.g.Op(ir.Broadcast, &ir.BroadcastAttrs{}, f32(3), x)
	block := f.mustEmit(t, same)
	assert.Equal(t, &program.Copy{Dst: f.ptr(same), Src: f.ptr(x), Bytes: 12}, block.Instructions[0])
}

func TestConcat(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(2, 3))
	y := f.g.Parameter(f32(2, 5))
	c := f.g.Op(ir.Concat, &ir.ConcatAttrs{Axis: 1}, f32(2, 8), x, y)
	inv := invokeAt(t, f.mustEmit(t, c), 0)
	assert.Equal(t, primitive.ConcatKernel, inv.Primitive.Config.Kind)
	assert.Equal(t, "8", param(t, inv, "block_size"))
	assert.Equal(t, [][]int{{2, 3}, {2, 5}, {2, 8}}, inv.Primitive.Config.Shapes)
	require.Len(t, inv.Inputs, 3)
	assert.Equal(t, []int{3, 5}, f.ints(t, inv.Inputs[2]))
}

func TestOneHot(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(i32(3))
	oh := f.g.Op(ir.OneHot, &ir.OneHotAttrs{Axis: 1}, f32(3, 5), x)
	block := f.mustEmit(t, oh)
	require.Len(t, block.Instructions, 2)
	assert.Equal(t, &program.Fill{Dst: f.ptr(oh), Value: 0.0, Count: 15, DType: f.g.Output(oh).DType()}, block.Instructions[0])
	inv := invokeAt(t, block, 1)
	assert.Equal(t, primitive.OneHotKernel, inv.Primitive.Config.Kind)
	assert.Equal(t, []int{1, 5}, f.ints(t, inv.Inputs[1]))
}

func TestReverseSequence(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(2, 4, 3))
	lengths := f.g.Parameter(i32(2))
	rs := f.g.Op(ir.ReverseSequence, &ir.ReverseSequenceAttrs{BatchAxis: 0, SequenceAxis: 1}, f32(2, 4, 3), x, lengths)
	inv := invokeAt(t, f.mustEmit(t, rs), 0)
	assert.Equal(t, primitive.ReverseSequenceKernel, inv.Primitive.Config.Kind)
	require.Len(t, inv.Inputs, 4)
	assert.Equal(t, []int{0, 1}, f.ints(t, inv.Inputs[2]))
	assert.Equal(t, []int{12, 3, 1}, f.ints(t, inv.Inputs[3]))
}

func TestPad(t *testing.T) {
	f := newFixture()
	x := f.g.Parameter(f32(2, 2))
	value := f.g.Parameter(f32())
	p := f.g.Op(ir.Pad, &ir.PadAttrs{Below: []int{1, 0}, Above: []int{2, 2}}, f32(5, 4), x, value)
	inv := invokeAt(t, f.mustEmit(t, p), 0)
	assert.Equal(t, primitive.PadValueKernel, inv.Primitive.Config.Kind)
	assert.Equal(t, []program.Pointer{f.ptr(x), f.ptr(value)}, inv.Inputs)

	bad := f.g.Op(ir.Pad, &ir.PadAttrs{Below: []int{1, 0}, Above: []int{2, 2}}, f32(4, 4), x, value)
	_, err := f.emit(bad)
	assert.True(t, errs.Is(err, errs.ShapeMismatch), "got %v", err)
}
