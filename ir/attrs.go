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

package ir

type (
	// ConvolutionAttrs are the attributes of Convolution and of its two gradients.
	// Padding vectors apply to the spatial axes, that is the trailing axes of
	// tensors laid out as NC{d1..dn}.
	ConvolutionAttrs struct {
		// WindowMovementStrides are the strides of the filter window.
		WindowMovementStrides []int
		// WindowDilationStrides dilate the filter.
		WindowDilationStrides []int
		// DataDilationStrides dilate the data. A stride different from 1
		// makes the convolution a deconvolution.
		DataDilationStrides []int
		PaddingBelow        []int
		PaddingAbove        []int
	}

	// PoolAttrs are the attributes of pooling operators and of their gradients.
	PoolAttrs struct {
		WindowShape    []int
		WindowStrides  []int
		PaddingBelow   []int
		PaddingAbove   []int
		IncludePadding bool
	}

	// DotAttrs are the attributes of a generalized contraction.
	DotAttrs struct {
		// ReductionAxes is the number of trailing axes of the first operand
		// contracted with the leading axes of the second.
		ReductionAxes int
	}

	// ReduceAttrs are the attributes of reductions.
	ReduceAttrs struct {
		// Axes being reduced.
		Axes []int
		// Func combines two elements. Only set for Reduce.
		Func *Function
	}

	// ReduceWindowAttrs are the attributes of a windowed reduction.
	ReduceWindowAttrs struct {
		Func          *Function
		WindowShape   []int
		WindowStrides []int
	}

	// ReshapeAttrs are the attributes of a reshape.
	ReshapeAttrs struct {
		// InputOrder is the order in which the input axes are read.
		InputOrder []int
	}

	// SliceAttrs are the attributes of Slice and ReplaceSlice.
	SliceAttrs struct {
		LowerBounds []int
		UpperBounds []int
		Strides     []int
	}

	// ReverseAttrs are the attributes of Reverse.
	ReverseAttrs struct {
		Axes []int
	}

	// BroadcastAttrs are the attributes of Broadcast.
	BroadcastAttrs struct {
		// Axes of the output not present in the input.
		Axes []int
	}

	// ConcatAttrs are the attributes of Concat.
	ConcatAttrs struct {
		Axis int
	}

	// OneHotAttrs are the attributes of OneHot.
	OneHotAttrs struct {
		Axis int
	}

	// ReverseSequenceAttrs are the attributes of ReverseSequence.
	ReverseSequenceAttrs struct {
		BatchAxis    int
		SequenceAxis int
	}

	// SoftmaxAttrs are the attributes of Softmax.
	SoftmaxAttrs struct {
		Axes []int
	}

	// BatchNormAttrs are the attributes of BatchNorm and BatchNormBackprop.
	BatchNormAttrs struct {
		Epsilon  float64
		Training bool
	}

	// PadAttrs are the attributes of Pad.
	PadAttrs struct {
		Below    []int
		Above    []int
		Interior []int
	}

	// GetOutputElementAttrs selects the element of a tuple.
	GetOutputElementAttrs struct {
		N int
	}

	// FunctionCallAttrs are the attributes of FunctionCall.
	FunctionCallAttrs struct {
		Func *Function
	}
)
