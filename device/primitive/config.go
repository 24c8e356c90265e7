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

// Package primitive builds and caches vendor library execution plans.
package primitive

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gx-org/backend/dtype"
	"golang.org/x/exp/maps"
	kgfmt "github.com/gx-org/kernelgen/base/fmt"
)

// Kind of primitive.
type Kind string

// Primitives provided by vendor tensor libraries.
const (
	OpTensor           Kind = "op_tensor"
	Scale              Kind = "scal"
	DotProduct         Kind = "dot"
	Gemv               Kind = "gemv"
	Gemm               Kind = "gemm"
	Transpose          Kind = "geam"
	ConvForward        Kind = "conv_fwd"
	ConvBackwardData   Kind = "conv_bwd_data"
	ConvBackwardFilter Kind = "conv_bwd_filter"
	ReduceTensor       Kind = "reduce_tensor"
	PoolingForward     Kind = "pooling_fwd"
	PoolingBackward    Kind = "pooling_bwd"
	SoftmaxForward     Kind = "softmax_fwd"
	BatchNormTraining  Kind = "batchnorm_fwd_training"
	BatchNormInference Kind = "batchnorm_fwd_inference"
	BatchNormBackward  Kind = "batchnorm_bwd"
)

// Custom kernels generated for the device.
const (
	ElementwiseKernel      Kind = "kernel_elementwise"
	PadKernel              Kind = "kernel_pad_dynamic"
	PadValueKernel         Kind = "kernel_pad"
	StridedTransposeKernel Kind = "kernel_reshape"
	SliceKernel            Kind = "kernel_slice"
	ReverseKernel          Kind = "kernel_reverse"
	ReplaceSliceKernel     Kind = "kernel_replace_slice"
	BroadcastKernel        Kind = "kernel_broadcast"
	ConcatKernel           Kind = "kernel_concat"
	OneHotKernel           Kind = "kernel_onehot"
	ReverseSequenceKernel  Kind = "kernel_reverse_sequence"
	ReduceWindowKernel     Kind = "kernel_reduce_window"
	Pool1DKernel           Kind = "kernel_pool1d"
	AvgPoolKernel          Kind = "kernel_avg_pool"
	ExpSumKernel           Kind = "kernel_exp_sum"
	BroadcastDivideKernel  Kind = "kernel_broadcast_divide"
)

// IsKernel returns true if the primitive is a custom kernel.
func (k Kind) IsKernel() bool {
	return strings.HasPrefix(string(k), "kernel_")
}

// Config describes a primitive to build.
// Two configurations with the same key build the same primitive.
type Config struct {
	Kind   Kind
	DTypes []dtype.DataType
	Shapes [][]int
	Params map[string]string
}

// NewConfig returns a new configuration for a primitive.
func NewConfig(kind Kind, dtypes ...dtype.DataType) *Config {
	return &Config{
		Kind:   kind,
		DTypes: dtypes,
		Params: make(map[string]string),
	}
}

// Shape appends shapes to the configuration.
func (c *Config) Shape(shapes ...[]int) *Config {
	for _, s := range shapes {
		c.Shapes = append(c.Shapes, append([]int{}, s...))
	}
	return c
}

// Str sets a string parameter.
func (c *Config) Str(name, v string) *Config {
	c.Params[name] = v
	return c
}

// Int sets an integer parameter.
func (c *Config) Int(name string, v int) *Config {
	return c.Str(name, strconv.Itoa(v))
}

// Ints sets a list of integers parameter.
func (c *Config) Ints(name string, v []int) *Config {
	return c.Str(name, kgfmt.Ints(v))
}

// Bool sets a boolean parameter.
func (c *Config) Bool(name string, v bool) *Config {
	return c.Str(name, strconv.FormatBool(v))
}

// Float sets a floating point parameter.
func (c *Config) Float(name string, v float64) *Config {
	return c.Str(name, strconv.FormatFloat(v, 'g', -1, 64))
}

// Param returns the value of a parameter.
func (c *Config) Param(name string) (string, bool) {
	v, ok := c.Params[name]
	return v, ok
}

// Key returns the canonical representation of the configuration.
// Parameters are sorted by name.
func (c *Config) Key() string {
	var s strings.Builder
	s.WriteString(string(c.Kind))
	s.WriteString("|")
	dts := make([]string, len(c.DTypes))
	for i, dt := range c.DTypes {
		dts[i] = dt.String()
	}
	s.WriteString(strings.Join(dts, ","))
	s.WriteString("|")
	shapes := make([]string, len(c.Shapes))
	for i, sh := range c.Shapes {
		shapes[i] = kgfmt.Ints(sh)
	}
	s.WriteString(strings.Join(shapes, ","))
	names := maps.Keys(c.Params)
	sort.Strings(names)
	for _, name := range names {
		s.WriteString(fmt.Sprintf("|%s=%s", name, c.Params[name]))
	}
	return s.String()
}

func (c *Config) String() string {
	return c.Key()
}

func (c *Config) clone() *Config {
	cl := NewConfig(c.Kind, append([]dtype.DataType{}, c.DTypes...)...)
	cl.Shape(c.Shapes...)
	maps.Copy(cl.Params, c.Params)
	return cl
}
