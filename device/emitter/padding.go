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
	"fmt"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/kernelgen/device/primitive"
	"github.com/gx-org/kernelgen/device/program"
	"github.com/gx-org/kernelgen/device/shapes"
)

// padInto copies a buffer into a new workspace buffer padded below, above
// and, if interior is not nil, between its elements. The padding is set to value.
// It returns the padded shape and the workspace buffer.
func (c *call) padInto(src program.Pointer, dims []int, dt dtype.DataType, below, above, interior []int, value any) ([]int, program.Pointer, error) {
	padded := shapes.PaddedShape(dims, below, above, interior)
	ws, err := c.workspace(shapes.Size(padded) * dtype.Sizeof(dt))
	if err != nil {
		return nil, program.Pointer{}, err
	}
	cfg := primitive.NewConfig(primitive.PadKernel, dt, dt).
		Shape(dims, padded).
		Ints("padding_below", below).
		Ints("padding_above", above).
		Str("pad_value", fmt.Sprint(value))
	if interior != nil {
		cfg.Ints("padding_interior", interior)
	}
	if err := c.invoke(cfg, ptrs(src), ptrs(ws)); err != nil {
		return nil, program.Pointer{}, err
	}
	return padded, ws, nil
}

// sliceInto gathers the elements of src, starting at lower and moving by
// strides along each axis, into dst.
func (c *call) sliceInto(dst program.Pointer, dstDims []int, src program.Pointer, srcDims []int, dt dtype.DataType, lower, strides []int) error {
	tables, err := c.tables(
		shapes.RowMajorStrides(srcDims),
		shapes.RowMajorStrides(dstDims),
		lower,
		strides,
	)
	if err != nil {
		return err
	}
	cfg := primitive.NewConfig(primitive.SliceKernel, dt, dt).
		Shape(srcDims, dstDims).
		Int("rank", len(srcDims))
	return c.invoke(cfg, append(ptrs(src), tables...), ptrs(dst))
}

// fullRank extends a vector of spatial parameters to all the axes of a
// NC{d1..dn} tensor of a given rank, using v for the leading axes.
func fullRank(spatial []int, rank, v int) []int {
	lead := rank - len(spatial)
	if lead < 0 {
		lead = 0
	}
	return append(shapes.Fill(lead, v), spatial...)
}
