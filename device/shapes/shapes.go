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

// Package shapes implements the shape algebra shared by the emitters:
// sizes, row-major strides and padding.
package shapes

import (
	"slices"

	"github.com/gx-org/kernelgen/base/iter"
)

// Size returns the number of elements of a shape. A rank 0 shape has one element.
func Size(dims []int) int {
	size := 1
	for _, d := range dims {
		size *= d
	}
	return size
}

// RowMajorStrides returns the number of elements between two consecutive
// indices along each axis of a row-major array.
func RowMajorStrides(dims []int) []int {
	strides := make([]int, len(dims))
	acc := 1
	for i := len(dims) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= dims[i]
	}
	return strides
}

// PaddedExtent returns the extent of an axis of length e padded with l
// elements below, u elements above and, if interior is true, dilated
// by a stride of i.
func PaddedExtent(e, l, u, i int, interior bool) int {
	if !interior {
		return e + l + u
	}
	return (e-1)*i + 1 + l + u
}

// PaddedShape returns the shape of dims after padding.
// The padding vectors apply to the trailing axes of dims: for a tensor laid
// out as NC{d1..dn}, below and above have n elements. interior is either nil
// (no dilation) or has the same length as below.
func PaddedShape(dims, below, above, interior []int) []int {
	padded := slices.Clone(dims)
	offset := len(dims) - len(below)
	for j := range below {
		i := offset + j
		if interior == nil {
			padded[i] = PaddedExtent(dims[i], below[j], above[j], 1, false)
			continue
		}
		padded[i] = PaddedExtent(dims[i], below[j], above[j], interior[j], true)
	}
	return padded
}

// IsSymmetric returns true if the padding below equals the padding above.
func IsSymmetric(below, above []int) bool {
	return slices.Equal(below, above)
}

// AllEqual returns true if all the elements of xs are equal to v.
func AllEqual(xs []int, v int) bool {
	for _, x := range xs {
		if x != v {
			return false
		}
	}
	return true
}

// Zeros returns a slice of n zeros.
func Zeros(n int) []int {
	return make([]int, n)
}

// Ones returns a slice of n ones.
func Ones(n int) []int {
	return Fill(n, 1)
}

// Fill returns a slice of n elements equal to v.
func Fill(n, v int) []int {
	xs := make([]int, n)
	for i := range xs {
		xs[i] = v
	}
	return xs
}

// NonTrivialAxes returns the number of axes of dims, starting at axis from,
// with a length greater than 1.
func NonTrivialAxes(dims []int, from int) int {
	return iter.Count(func(d int) bool { return d > 1 }, dims[min(from, len(dims)):])
}

// Permute returns the shape of dims read in the given axis order.
func Permute(dims, order []int) []int {
	permuted := make([]int, len(order))
	for i, axis := range order {
		permuted[i] = dims[axis]
	}
	return permuted
}

// WithAxesSetTo returns a copy of dims in which the given axes are set to v.
func WithAxesSetTo(dims, axes []int, v int) []int {
	res := slices.Clone(dims)
	for _, axis := range axes {
		res[axis] = v
	}
	return res
}

// Flat returns the shape [1,1,1,size] used to describe elementwise operations.
func Flat(size int) []int {
	return []int{1, 1, 1, size}
}

// CeilDiv returns the smallest integer greater or equal to a/b.
func CeilDiv(a, b int) int {
	return (a + b - 1) / b
}
