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
	"github.com/gx-org/kernelgen/device/shapes"
	"github.com/gx-org/kernelgen/errs"
	"github.com/gx-org/kernelgen/ir"
)

func init() {
	register(ir.Reshape, lowerReshape, 0)
	register(ir.Slice, lowerSlice, 0)
	register(ir.Reverse, lowerReverse, 0)
	register(ir.ReplaceSlice, lowerReplaceSlice, 0)
}

func lowerReshape(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.ReshapeAttrs](c)
	if err != nil {
		return err
	}
	in, out := c.args[0], c.out[0]
	order := attrs.InputOrder
	if len(order) != 0 && len(order) != in.Rank() {
		return errs.ShapeMismatchf(c.op(), "input order %v does not match the rank of %v", order, in.Axes())
	}
	// Reading the axes in order does not move any element.
	if slices.IsSorted(order) || out.Size() < 2 {
		c.copyTensor(out, in)
		return nil
	}
	dims := in.Axes()
	if in.Rank() == 2 {
		cfg := primitive.NewConfig(primitive.Transpose, in.DType(), out.DType()).
			Int("m", dims[0]).
			Int("n", dims[1])
		return c.invoke(cfg, ptrs(c.arg(0)), ptrs(c.res(0)))
	}
	inStrides := shapes.RowMajorStrides(dims)
	outStrides := shapes.RowMajorStrides(shapes.Permute(dims, order))
	// transStrides[axis] is the output stride of the input axis.
	transStrides := make([]int, len(order))
	for i, axis := range order {
		transStrides[axis] = outStrides[i]
	}
	tables, err := c.tables(inStrides, transStrides)
	if err != nil {
		return err
	}
	cfg := primitive.NewConfig(primitive.StridedTransposeKernel, in.DType(), out.DType()).
		Shape(dims).
		Int("rank", len(dims))
	return c.invoke(cfg, append(ptrs(c.arg(0)), tables...), ptrs(c.res(0)))
}

func lowerSlice(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.SliceAttrs](c)
	if err != nil {
		return err
	}
	in, out := c.args[0], c.out[0]
	if in.Size() == out.Size() {
		c.copyTensor(out, in)
		return nil
	}
	strides := attrs.Strides
	if strides == nil {
		strides = shapes.Ones(in.Rank())
	}
	lower := attrs.LowerBounds
	if lower == nil {
		lower = shapes.Zeros(in.Rank())
	}
	if len(lower) != in.Rank() || len(strides) != in.Rank() {
		return errs.ShapeMismatchf(c.op(), "lower bounds %v and strides %v do not match the rank of %v", lower, strides, in.Axes())
	}
	if slices.ContainsFunc(strides, func(s int) bool { return s <= 0 }) {
		return errs.ShapeMismatchf(c.op(), "strides %v are not all positive", strides)
	}
	return c.sliceInto(c.res(0), out.Axes(), c.arg(0), in.Axes(), in.DType(), lower, strides)
}

func lowerReverse(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.ReverseAttrs](c)
	if err != nil {
		return err
	}
	in, out := c.args[0], c.out[0]
	if out.Size() == 1 {
		c.copyTensor(out, in)
		return nil
	}
	reversed := shapes.WithAxesSetTo(shapes.Zeros(in.Rank()), attrs.Axes, 1)
	tables, err := c.tables(in.Axes(), reversed)
	if err != nil {
		return err
	}
	cfg := primitive.NewConfig(primitive.ReverseKernel, in.DType(), out.DType()).
		Shape(in.Axes()).
		Int("rank", in.Rank())
	return c.invoke(cfg, append(ptrs(c.arg(0)), tables...), ptrs(c.res(0)))
}

// lowerReplaceSlice copies the input into the output and overwrites
// the slice of the output with the source operand.
// checkBounds checks that lower:upper:strides selects a slice of dims.
func checkBounds(c *call, dims, lower, upper, strides []int) error {
	for i, d := range dims {
		if strides[i] <= 0 {
			return errs.ShapeMismatchf(c.op(), "stride %d of axis %d is not positive", strides[i], i)
		}
		if lower[i] < 0 || upper[i] < lower[i] || upper[i] > d {
			return errs.ShapeMismatchf(c.op(), "bounds [%d:%d] of axis %d out of range for %v", lower[i], upper[i], i, dims)
		}
	}
	return nil
}

func lowerReplaceSlice(c *call) error {
	if err := c.checkArity(2, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.SliceAttrs](c)
	if err != nil {
		return err
	}
	in, source, out := c.args[0], c.args[1], c.out[0]
	strides := attrs.Strides
	if strides == nil {
		strides = shapes.Ones(in.Rank())
	}
	if len(attrs.LowerBounds) != in.Rank() || len(attrs.UpperBounds) != in.Rank() || len(strides) != in.Rank() {
		return errs.ShapeMismatchf(c.op(), "bounds %v:%v:%v do not match the rank of %v", attrs.LowerBounds, attrs.UpperBounds, strides, in.Axes())
	}
	if err := checkBounds(c, in.Axes(), attrs.LowerBounds, attrs.UpperBounds, strides); err != nil {
		return err
	}
	sliceShape := make([]int, in.Rank())
	for i := range sliceShape {
		sliceShape[i] = shapes.CeilDiv(attrs.UpperBounds[i]-attrs.LowerBounds[i], strides[i])
	}
	if !slices.Equal(sliceShape, source.Axes()) {
		return errs.ShapeMismatchf(c.op(), "source shape %v does not match the shape %v of the slice of %v", source.Axes(), sliceShape, in.Axes())
	}
	if slices.Equal(sliceShape, in.Axes()) {
		c.copyTensor(out, source)
		return nil
	}
	tables, err := c.tables(
		shapes.RowMajorStrides(in.Axes()),
		source.Axes(),
		shapes.RowMajorStrides(source.Axes()),
		attrs.LowerBounds,
		strides,
	)
	if err != nil {
		return err
	}
	cfg := primitive.NewConfig(primitive.ReplaceSliceKernel, dtypes(in, source, out)...).
		Shape(in.Axes(), source.Axes()).
		Int("rank", in.Rank())
	return c.invoke(cfg, append(ptrs(c.arg(0), c.arg(1)), tables...), ptrs(c.res(0)))
}
