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

package emitter

import (
	"slices"

	"github.com/gx-org/kernelgen/device/primitive"
	"github.com/gx-org/kernelgen/device/program"
	"github.com/gx-org/kernelgen/device/shapes"
	"github.com/gx-org/kernelgen/errs"
	"github.com/gx-org/kernelgen/ir"
)

func init() {
	register(ir.Broadcast, lowerBroadcast, 0)
	register(ir.Concat, lowerConcat, 0)
	register(ir.OneHot, lowerOneHot, 0)
	register(ir.ReverseSequence, lowerReverseSequence, 0)
	register(ir.Pad, lowerPad, 0)
}

func lowerBroadcast(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.BroadcastAttrs](c)
	if err != nil {
		return err
	}
	in, out := c.args[0], c.out[0]
	if len(attrs.Axes) == 0 {
		c.copyTensor(out, in)
		return nil
	}
	// Broadcast axes move by 0 elements in the input.
	inStrides := shapes.RowMajorStrides(shapes.WithAxesSetTo(out.Axes(), attrs.Axes, 1))
	inStrides = shapes.WithAxesSetTo(inStrides, attrs.Axes, 0)
	tables, err := c.tables(shapes.RowMajorStrides(out.Axes()), inStrides)
	if err != nil {
		return err
	}
	cfg := primitive.NewConfig(primitive.BroadcastKernel, in.DType(), out.DType()).
		Shape(in.Axes(), out.Axes()).
		Ints("axes", attrs.Axes).
		Int("rank", out.Rank())
	return c.invoke(cfg, append(ptrs(c.arg(0)), tables...), ptrs(c.res(0)))
}

func lowerConcat(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.ConcatAttrs](c)
	if err != nil {
		return err
	}
	out := c.out[0]
	axis := attrs.Axis
	if axis < 0 || axis >= out.Rank() {
		return errs.ShapeMismatchf(c.op(), "concatenation axis %d out of range for %v", axis, out.Axes())
	}
	// Elements are copied by blocks: the block of an argument is made of
	// its axes starting at the concatenation axis.
	blockStrides := make([]int, len(c.args))
	blockSize := 0
	cfg := primitive.NewConfig(primitive.ConcatKernel, dtypes(c.allTensors()...)...)
	for i, arg := range c.args {
		if arg.Rank() != out.Rank() {
			return errs.ShapeMismatchf(c.op(), "cannot concatenate %v into %v", arg.Axes(), out.Axes())
		}
		blockStrides[i] = shapes.Size(arg.Axes()[axis:])
		blockSize += blockStrides[i]
		cfg.Shape(arg.Axes())
	}
	tables, err := c.tables(blockStrides)
	if err != nil {
		return err
	}
	cfg.Shape(out.Axes()).
		Int("axis", axis).
		Int("block_size", blockSize)
	return c.invoke(cfg, append(tensorPtrs(c.args), tables...), ptrs(c.res(0)))
}

func lowerOneHot(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.OneHotAttrs](c)
	if err != nil {
		return err
	}
	in, out := c.args[0], c.out[0]
	axis := attrs.Axis
	if axis < 0 || axis >= out.Rank() {
		return errs.ShapeMismatchf(c.op(), "one-hot axis %d out of range for %v", axis, out.Axes())
	}
	dims := out.Axes()
	repeatTimes := dims[axis]
	repeatSize := shapes.Size(dims[axis+1:])
	tables, err := c.tables([]int{repeatSize, repeatTimes})
	if err != nil {
		return err
	}
	c.fill(out, zero(out.DType()))
	cfg := primitive.NewConfig(primitive.OneHotKernel, in.DType(), out.DType()).
		Shape(in.Axes(), out.Axes())
	return c.invoke(cfg, append(ptrs(c.arg(0)), tables...), ptrs(c.res(0)))
}

func lowerReverseSequence(c *call) error {
	if err := c.checkArity(2, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.ReverseSequenceAttrs](c)
	if err != nil {
		return err
	}
	in, seqLengths, out := c.args[0], c.args[1], c.out[0]
	tables, err := c.tables(
		[]int{attrs.BatchAxis, attrs.SequenceAxis},
		shapes.RowMajorStrides(out.Axes()),
	)
	if err != nil {
		return err
	}
	cfg := primitive.NewConfig(primitive.ReverseSequenceKernel, dtypes(in, seqLengths, out)...).
		Shape(in.Axes(), seqLengths.Axes(), out.Axes()).
		Int("rank", in.Rank())
	return c.invoke(cfg, append(ptrs(c.arg(0), c.arg(1)), tables...), ptrs(c.res(0)))
}

// lowerPad pads its first operand with the value of its second operand.
func lowerPad(c *call) error {
	if err := c.checkArity(2, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.PadAttrs](c)
	if err != nil {
		return err
	}
	in, value, out := c.args[0], c.args[1], c.out[0]
	if len(attrs.Below) > in.Rank() || len(attrs.Above) != len(attrs.Below) || (attrs.Interior != nil && len(attrs.Interior) != len(attrs.Below)) {
		return errs.ShapeMismatchf(c.op(), "padding %v:%v:%v does not match the rank of %v", attrs.Below, attrs.Above, attrs.Interior, in.Axes())
	}
	if want := shapes.PaddedShape(in.Axes(), attrs.Below, attrs.Above, attrs.Interior); !slices.Equal(want, out.Axes()) {
		return errs.ShapeMismatchf(c.op(), "padding %v with %v:%v:%v gives %v but the output is %v", in.Axes(), attrs.Below, attrs.Above, attrs.Interior, want, out.Axes())
	}
	cfg := primitive.NewConfig(primitive.PadValueKernel, dtypes(in, value, out)...).
		Shape(in.Axes(), out.Axes()).
		Ints("padding_below", attrs.Below).
		Ints("padding_above", attrs.Above)
	if attrs.Interior != nil {
		cfg.Ints("padding_interior", attrs.Interior)
	}
	return c.invoke(cfg, []program.Pointer{c.arg(0), c.arg(1)}, ptrs(c.res(0)))
}
