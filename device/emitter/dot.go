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
	registerChecked(ir.Dot, checkDot, lowerDot)
}

// checkDot checks that the last k axes of the first operand match the first
// k axes of the second and that the output is made of the remaining axes.
func checkDot(c *call) error {
	if err := c.checkArity(2, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.DotAttrs](c)
	if err != nil {
		return err
	}
	a, b, out := c.args[0].Axes(), c.args[1].Axes(), c.out[0].Axes()
	k := attrs.ReductionAxes
	if k < 0 || k > len(a) || k > len(b) {
		return errs.ShapeMismatchf(c.op(), "cannot contract %d axes of %v with %v", k, a, b)
	}
	for i := 0; i < k; i++ {
		ai := len(a) - k + i
		if a[ai] != b[i] {
			return errs.ShapeMismatchf(c.op(), "axis %d of %v (length %d) does not match axis %d of %v (length %d)", ai, a, a[ai], i, b, b[i])
		}
	}
	want := append(slices.Clone(a[:len(a)-k]), b[k:]...)
	if !slices.Equal(want, out) {
		return errs.ShapeMismatchf(c.op(), "output shape %v does not match the free axes %v of %v and %v", out, want, a, b)
	}
	return nil
}

func lowerDot(c *call) error {
	attrs, err := attrsOf[ir.DotAttrs](c)
	if err != nil {
		return err
	}
	x, y, out := c.args[0], c.args[1], c.out[0]
	k := attrs.ReductionAxes
	dts := dtypes(x, y, out)
	switch {
	case x.Rank() == 0 || y.Rank() == 0:
		scalar, other := 0, 1
		if y.Rank() == 0 {
			scalar, other = 1, 0
		}
		c.copyTensor(out, c.args[other])
		cfg := primitive.NewConfig(primitive.Scale, out.DType()).Int("n", out.Size())
		return c.invoke(cfg, ptrs(c.arg(scalar), c.res(0)), ptrs(c.res(0)))
	case x.IsZero() || y.IsZero():
		c.fill(out, zero(out.DType()))
		return nil
	case x.Rank() == y.Rank() && k == x.Rank():
		cfg := primitive.NewConfig(primitive.DotProduct, dts...).Int("n", x.Size())
		return c.invoke(cfg, ptrs(c.arg(0), c.arg(1)), ptrs(c.res(0)))
	case x.Rank() == 2 && y.Rank() == 1 && k == 1:
		xs := x.Axes()
		cfg := primitive.NewConfig(primitive.Gemv, dts...).
			Int("m", xs[0]).
			Int("n", xs[1])
		return c.invoke(cfg, ptrs(c.arg(0), c.arg(1)), ptrs(c.res(0)))
	}
	xs, ys := x.Axes(), y.Axes()
	m := shapes.Size(xs[:len(xs)-k])
	n := shapes.Size(ys[k:])
	cfg := primitive.NewConfig(primitive.Gemm, dts...).
		Int("m", m).
		Int("n", n).
		Int("k", shapes.Size(ys[:k]))
	return c.invoke(cfg, ptrs(c.arg(0), c.arg(1)), ptrs(c.res(0)))
}
