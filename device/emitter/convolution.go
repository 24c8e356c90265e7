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
	"github.com/gx-org/kernelgen/base/iter"
	"github.com/gx-org/kernelgen/device/primitive"
	"github.com/gx-org/kernelgen/device/program"
	"github.com/gx-org/kernelgen/device/shapes"
	"github.com/gx-org/kernelgen/errs"
	"github.com/gx-org/kernelgen/ir"
)

func init() {
	register(ir.Convolution, lowerConvolution, 0)
	register(ir.ConvolutionBackpropData, lowerConvolutionBackpropData, 0)
	register(ir.ConvolutionBackpropFilters, lowerConvolutionBackpropFilters, 0)
}

const maxSpatialAxes = 3

// convParams are the convolution parameters passed to the vendor primitive.
type convParams struct {
	below, above   []int
	dataDilation   []int
	windowStrides  []int
	windowDilation []int
}

func newConvParams(c *call) (*convParams, error) {
	if err := c.checkArity(2, 1); err != nil {
		return nil, err
	}
	attrs, err := attrsOf[ir.ConvolutionAttrs](c)
	if err != nil {
		return nil, err
	}
	n := len(attrs.PaddingBelow)
	if n > maxSpatialAxes {
		return nil, errs.Unsupportedf(c.op(), "convolution over %d spatial dimensions not implemented: at most %d are supported", n, maxSpatialAxes)
	}
	if len(attrs.PaddingAbove) != n {
		return nil, errs.ShapeMismatchf(c.op(), "padding below %v and above %v have different lengths", attrs.PaddingBelow, attrs.PaddingAbove)
	}
	p := &convParams{
		below:          attrs.PaddingBelow,
		above:          attrs.PaddingAbove,
		dataDilation:   attrs.DataDilationStrides,
		windowStrides:  attrs.WindowMovementStrides,
		windowDilation: attrs.WindowDilationStrides,
	}
	if p.dataDilation == nil {
		p.dataDilation = shapes.Ones(n)
	}
	if p.windowStrides == nil {
		p.windowStrides = shapes.Ones(n)
	}
	if p.windowDilation == nil {
		p.windowDilation = shapes.Ones(n)
	}
	if err := p.check(c, n); err != nil {
		return nil, err
	}
	return p, nil
}

// check the lengths of the parameters against the number of spatial axes.
func (p *convParams) check(c *call, n int) error {
	vectors := []struct {
		name string
		v    []int
	}{
		{"data dilation strides", p.dataDilation},
		{"window movement strides", p.windowStrides},
		{"window dilation strides", p.windowDilation},
	}
	for _, vec := range vectors {
		if len(vec.v) != n {
			return errs.ShapeMismatchf(c.op(), "%s %v do not match %d spatial dimensions", vec.name, vec.v, n)
		}
		for _, s := range vec.v {
			if s <= 0 {
				return errs.ShapeMismatchf(c.op(), "%s %v are not all positive", vec.name, vec.v)
			}
		}
	}
	for t := range iter.All(c.args, c.out) {
		if t.Rank() < n+2 {
			return errs.ShapeMismatchf(c.op(), "%s of shape %v has no batch and channel axes for %d spatial dimensions", t.Name(), t.Axes(), n)
		}
	}
	return nil
}

// isDeconvolution returns true if the data is dilated.
func (p *convParams) isDeconvolution() bool {
	return !shapes.AllEqual(p.dataDilation, 1)
}

func (p *convParams) needsPadding() bool {
	return p.isDeconvolution() || !shapes.IsSymmetric(p.below, p.above)
}

// padded returns the parameters once the padding and the dilation
// have been applied explicitly.
func (p *convParams) padded() *convParams {
	n := len(p.below)
	return &convParams{
		below:          shapes.Zeros(n),
		above:          shapes.Zeros(n),
		dataDilation:   shapes.Ones(n),
		windowStrides:  p.windowStrides,
		windowDilation: p.windowDilation,
	}
}

// config of the vendor primitive. The primitive assumes a symmetric padding.
func (p *convParams) config(kind primitive.Kind, c *call, dims ...[]int) *primitive.Config {
	return primitive.NewConfig(kind, dtypes(c.allTensors()...)...).
		Shape(dims...).
		Ints("padding", p.below).
		Ints("window_movement_strides", p.windowStrides).
		Ints("window_dilation_strides", p.windowDilation).
		Ints("data_dilation_strides", p.dataDilation)
}

// padData pads and dilates a data operand into workspace if the vendor
// primitive cannot handle its padding.
func (c *call) padData(p *convParams, i int) (program.Pointer, []int, *convParams, error) {
	data := c.args[i]
	if !p.needsPadding() {
		return c.arg(i), data.Axes(), p, nil
	}
	padded, ws, err := c.padInto(c.arg(i), data.Axes(), data.DType(), p.below, p.above, p.dataDilation, zero(data.DType()))
	if err != nil {
		return program.Pointer{}, nil, nil, err
	}
	return ws, padded, p.padded(), nil
}

func lowerConvolution(c *call) error {
	p, err := newConvParams(c)
	if err != nil {
		return err
	}
	filter, out := c.args[1], c.out[0]
	in, dims, p, err := c.padData(p, 0)
	if err != nil {
		return err
	}
	cfg := p.config(primitive.ConvForward, c, dims, filter.Axes(), out.Axes())
	return c.invoke(cfg, ptrs(in, c.arg(1)), ptrs(c.res(0)))
}

// lowerConvolutionBackpropData computes the gradient into a padded buffer
// if required and copies the gradient of the unpadded data into the output.
func lowerConvolutionBackpropData(c *call) error {
	p, err := newConvParams(c)
	if err != nil {
		return err
	}
	filter, delta, out := c.args[0], c.args[1], c.out[0]
	if !p.needsPadding() {
		cfg := p.config(primitive.ConvBackwardData, c, filter.Axes(), delta.Axes(), out.Axes())
		return c.invoke(cfg, ptrs(c.arg(0), c.arg(1)), ptrs(c.res(0)))
	}
	padded := shapes.PaddedShape(out.Axes(), p.below, p.above, p.dataDilation)
	ws, err := c.workspace(shapes.Size(padded) * out.ElementSize())
	if err != nil {
		return err
	}
	cfg := p.padded().config(primitive.ConvBackwardData, c, filter.Axes(), delta.Axes(), padded)
	if err := c.invoke(cfg, ptrs(c.arg(0), c.arg(1)), ptrs(ws)); err != nil {
		return err
	}
	rank := out.Rank()
	return c.sliceInto(
		c.res(0), out.Axes(),
		ws, padded,
		out.DType(),
		fullRank(p.below, rank, 0),
		fullRank(p.dataDilation, rank, 1),
	)
}

func lowerConvolutionBackpropFilters(c *call) error {
	p, err := newConvParams(c)
	if err != nil {
		return err
	}
	delta, out := c.args[1], c.out[0]
	in, dims, p, err := c.padData(p, 0)
	if err != nil {
		return err
	}
	cfg := p.config(primitive.ConvBackwardFilter, c, dims, delta.Axes(), out.Axes())
	return c.invoke(cfg, ptrs(in, c.arg(1)), ptrs(c.res(0)))
}
