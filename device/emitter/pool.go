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
	register(ir.MaxPool, lowerMaxPool, 0)
	register(ir.AvgPool, lowerAvgPool, 0)
	register(ir.MaxPoolBackprop, lowerMaxPoolBackprop, 0)
	register(ir.AvgPoolBackprop, lowerAvgPoolBackprop, 0)
}

// Pooling modes of the vendor primitives.
const (
	poolMax               = "max"
	poolAvgWithPadding    = "avg_include_padding"
	poolAvgWithoutPadding = "avg_exclude_padding"
)

// poolParams are the parameters of a pooling operator over a NC{d1..dn} tensor.
type poolParams struct {
	window, strides []int
	below, above    []int
	includePadding  bool
}

// newPoolParams checks the rank of the pooled tensor.
func newPoolParams(c *call, rank int) (*poolParams, error) {
	attrs, err := attrsOf[ir.PoolAttrs](c)
	if err != nil {
		return nil, err
	}
	if rank < 3 {
		return nil, errs.Unsupportedf(c.op(), "pooling a tensor of rank %d: tensors need at least one spatial dimension, dim(NC{d1...dN}) >= 3", rank)
	}
	if rank > 5 {
		return nil, errs.Unsupportedf(c.op(), "pooling over %d spatial dimensions: only supports up to 3 spatial dimensions", rank-2)
	}
	n := len(attrs.WindowShape)
	if n == 0 || n > rank || len(attrs.PaddingBelow) != n || len(attrs.PaddingAbove) != n {
		return nil, errs.ShapeMismatchf(c.op(), "window %v with padding %v:%v does not match a tensor of rank %d", attrs.WindowShape, attrs.PaddingBelow, attrs.PaddingAbove, rank)
	}
	p := &poolParams{
		window:         attrs.WindowShape,
		strides:        attrs.WindowStrides,
		below:          attrs.PaddingBelow,
		above:          attrs.PaddingAbove,
		includePadding: attrs.IncludePadding,
	}
	if p.strides == nil {
		p.strides = shapes.Ones(n)
	}
	return p, nil
}

func (p *poolParams) symmetric() bool {
	return shapes.IsSymmetric(p.below, p.above)
}

func (p *poolParams) unpadded() *poolParams {
	q := *p
	q.below = shapes.Zeros(len(p.below))
	q.above = shapes.Zeros(len(p.above))
	return &q
}

func (p *poolParams) config(kind primitive.Kind, mode string, c *call, dims ...[]int) *primitive.Config {
	return primitive.NewConfig(kind, c.args[0].DType(), c.out[0].DType()).
		Shape(dims...).
		Str("mode", mode).
		Ints("window_shape", p.window).
		Ints("window_strides", p.strides).
		Ints("padding_below", p.below).
		Ints("padding_above", p.above)
}

func lowerMaxPool(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	in, out := c.args[0], c.out[0]
	p, err := newPoolParams(c, in.Rank())
	if err != nil {
		return err
	}
	src, dims := c.arg(0), in.Axes()
	// The 1-D kernel does not pad.
	oneDim := in.Rank() == 3 || shapes.NonTrivialAxes(dims, 2) == 1
	padded := shapes.PaddedShape(dims, p.below, p.above, nil)
	if !slices.Equal(padded, dims) && (oneDim || !p.symmetric()) {
		// Padding with the lowest value never changes the maximum.
		dims, src, err = c.padInto(src, dims, in.DType(), p.below, p.above, nil, lowest(in.DType()))
		if err != nil {
			return err
		}
		p = p.unpadded()
	}
	if oneDim {
		cfg := primitive.NewConfig(primitive.Pool1DKernel, in.DType(), out.DType()).
			Shape(dims, out.Axes()).
			Int("window", p.window[len(p.window)-1]).
			Int("stride", p.strides[len(p.strides)-1])
		return c.invoke(cfg, ptrs(src), ptrs(c.res(0)))
	}
	cfg := p.config(primitive.PoolingForward, poolMax, c, dims, out.Axes())
	return c.invoke(cfg, ptrs(src), ptrs(c.res(0)))
}

func lowerAvgPool(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	in, out := c.args[0], c.out[0]
	p, err := newPoolParams(c, in.Rank())
	if err != nil {
		return err
	}
	switch {
	case in.Rank() == 3 || shapes.NonTrivialAxes(in.Axes(), 2) == 1 || (!p.symmetric() && !p.includePadding):
		cfg := primitive.NewConfig(primitive.AvgPoolKernel, in.DType(), out.DType()).
			Shape(in.Axes(), out.Axes()).
			Ints("window_shape", p.window).
			Ints("window_strides", p.strides).
			Ints("padding_below", p.below).
			Bool("include_padding", p.includePadding)
		return c.invoke(cfg, ptrs(c.arg(0)), ptrs(c.res(0)))
	case !p.symmetric():
		// Zeros are averaged with the other elements.
		padded, ws, err := c.padInto(c.arg(0), in.Axes(), in.DType(), p.below, p.above, nil, zero(in.DType()))
		if err != nil {
			return err
		}
		cfg := p.unpadded().config(primitive.PoolingForward, poolAvgWithPadding, c, padded, out.Axes())
		return c.invoke(cfg, ptrs(ws), ptrs(c.res(0)))
	}
	mode := poolAvgWithoutPadding
	if p.includePadding {
		mode = poolAvgWithPadding
	}
	cfg := p.config(primitive.PoolingForward, mode, c, in.Axes(), out.Axes())
	return c.invoke(cfg, ptrs(c.arg(0)), ptrs(c.res(0)))
}

// asNC1W describes a NCW tensor as a NC1W tensor.
func asNC1W(dims []int) []int {
	return []int{dims[0], dims[1], 1, dims[2]}
}

// poolBackprop computes the gradient of a pooling operator with respect to
// its input. fwd is the input of the forward operator (or the gradient for
// average pooling which does not read it) and delta is the gradient of the
// forward output.
func (c *call) poolBackprop(mode string, fwd, delta program.Pointer, deltaDims []int) error {
	out := c.out[0]
	p, err := newPoolParams(c, out.Rank())
	if err != nil {
		return err
	}
	outDims := out.Axes()
	if out.Rank() == 3 {
		if len(deltaDims) != 3 {
			return errs.ShapeMismatchf(c.op(), "gradient %v does not match the input %v", deltaDims, outDims)
		}
		outDims, deltaDims = asNC1W(outDims), asNC1W(deltaDims)
		p.window = append([]int{1}, p.window...)
		p.strides = append([]int{1}, p.strides...)
		p.below = append([]int{0}, p.below...)
		p.above = append([]int{0}, p.above...)
	}
	if p.symmetric() {
		cfg := p.config(primitive.PoolingBackward, mode, c, outDims, deltaDims)
		return c.invoke(cfg, ptrs(fwd, delta), ptrs(c.res(0)))
	}
	// The gradient is computed for the padded input and the padding dropped.
	padded := shapes.PaddedShape(outDims, p.below, p.above, nil)
	if mode == poolMax {
		_, fwd, err = c.padInto(fwd, outDims, out.DType(), p.below, p.above, nil, lowest(out.DType()))
		if err != nil {
			return err
		}
	}
	grad, err := c.workspace(shapes.Size(padded) * out.ElementSize())
	if err != nil {
		return err
	}
	cfg := p.unpadded().config(primitive.PoolingBackward, mode, c, padded, deltaDims)
	if err := c.invoke(cfg, ptrs(fwd, delta), ptrs(grad)); err != nil {
		return err
	}
	rank := len(outDims)
	return c.sliceInto(
		c.res(0), outDims,
		grad, padded,
		out.DType(),
		fullRank(p.below, rank, 0),
		shapes.Ones(rank),
	)
}

func lowerMaxPoolBackprop(c *call) error {
	if err := c.checkArity(2, 1); err != nil {
		return err
	}
	return c.poolBackprop(poolMax, c.arg(0), c.arg(1), c.args[1].Axes())
}

func lowerAvgPoolBackprop(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.PoolAttrs](c)
	if err != nil {
		return err
	}
	mode := poolAvgWithoutPadding
	if attrs.IncludePadding {
		mode = poolAvgWithPadding
	}
	// Average pooling does not read the forward input: the gradient is passed twice.
	return c.poolBackprop(mode, c.arg(0), c.arg(0), c.args[0].Axes())
}
