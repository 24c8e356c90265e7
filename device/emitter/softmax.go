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
	register(ir.Softmax, lowerSoftmax, 0)
}

// lowerSoftmax uses the vendor primitive when all the axes are normalized.
// Otherwise, exponentials and their sums are computed by a single kernel
// and the exponentials are divided in place by the broadcast sums.
func lowerSoftmax(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.SoftmaxAttrs](c)
	if err != nil {
		return err
	}
	in, out := c.args[0], c.out[0]
	for _, axis := range attrs.Axes {
		if axis < 0 || axis >= in.Rank() {
			return errs.ShapeMismatchf(c.op(), "axis %d out of range for %v", axis, in.Axes())
		}
	}
	if distinct := slices.Compact(slices.Sorted(slices.Values(attrs.Axes))); len(distinct) != len(attrs.Axes) {
		return errs.ShapeMismatchf(c.op(), "axes %v are not distinct", attrs.Axes)
	}
	if len(attrs.Axes) == in.Rank() {
		cfg := primitive.NewConfig(primitive.SoftmaxForward, in.DType(), out.DType()).
			Shape(in.Axes())
		return c.invoke(cfg, ptrs(c.arg(0)), ptrs(c.res(0)))
	}
	reduced := shapes.WithAxesSetTo(in.Axes(), attrs.Axes, 1)
	sums, err := c.workspace(shapes.Size(reduced) * out.ElementSize())
	if err != nil {
		return err
	}
	expSum := primitive.NewConfig(primitive.ExpSumKernel, in.DType(), out.DType()).
		Shape(in.Axes(), reduced).
		Ints("axes", attrs.Axes)
	if err := c.invoke(expSum, ptrs(c.arg(0)), ptrs(sums, c.res(0))); err != nil {
		return err
	}
	div := primitive.NewConfig(primitive.BroadcastDivideKernel, out.DType(), out.DType(), out.DType()).
		Shape(out.Axes(), reduced).
		Ints("axes", attrs.Axes)
	return c.invoke(div, ptrs(c.res(0), sums), ptrs(c.res(0)))
}
