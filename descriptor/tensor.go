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

// Package descriptor defines tensor view descriptors.
//
// A descriptor records what the emitter needs to know about an operand:
// its element type, its shape, a symbolic name unique within a scope,
// and its role in the compiled function.
package descriptor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/kernelgen/base/uname"
)

// Role of a tensor in a compiled function. Roles can be combined.
type Role uint8

const (
	// Input tensors are provided by the caller.
	Input Role = 1 << iota
	// Output tensors are returned to the caller.
	Output
	// Persistent tensors survive across invocations, e.g. weights.
	Persistent
)

func (r Role) String() string {
	var names []string
	if r&Input != 0 {
		names = append(names, "input")
	}
	if r&Output != 0 {
		names = append(names, "output")
	}
	if r&Persistent != 0 {
		names = append(names, "persistent")
	}
	if len(names) == 0 {
		return "temp"
	}
	return strings.Join(names, "|")
}

// Scope in which descriptor names are unique.
type Scope struct {
	names *uname.Unique
}

// NewScope returns a new naming scope.
func NewScope() *Scope {
	return &Scope{names: uname.New()}
}

// New returns a new descriptor.
// The name is derived from root and unique within the scope.
func (s *Scope) New(root string, sh *shape.Shape, role Role) *Tensor {
	return &Tensor{
		name: s.names.Name(root),
		shape: shape.Shape{
			DType:       sh.DType,
			AxisLengths: slices.Clone(sh.AxisLengths),
		},
		role: role,
	}
}

// Tensor describes an operand. It is immutable once created.
type Tensor struct {
	name  string
	shape shape.Shape
	role  Role
}

// Name of the tensor in its scope.
func (t *Tensor) Name() string {
	return t.name
}

// Shape returns a copy of the shape of the tensor.
func (t *Tensor) Shape() *shape.Shape {
	return &shape.Shape{
		DType:       t.shape.DType,
		AxisLengths: slices.Clone(t.shape.AxisLengths),
	}
}

// DType returns the element type.
func (t *Tensor) DType() dtype.DataType {
	return t.shape.DType
}

// Axes returns a copy of the axis lengths.
func (t *Tensor) Axes() []int {
	return slices.Clone(t.shape.AxisLengths)
}

// Rank returns the number of axes.
func (t *Tensor) Rank() int {
	return len(t.shape.AxisLengths)
}

// Size returns the number of elements. A rank 0 tensor has one element.
func (t *Tensor) Size() int {
	size := 1
	for _, l := range t.shape.AxisLengths {
		size *= l
	}
	return size
}

// ElementSize returns the size in bytes of one element.
func (t *Tensor) ElementSize() int {
	return dtype.Sizeof(t.shape.DType)
}

// ByteSize returns the size of the tensor in bytes.
func (t *Tensor) ByteSize() int {
	return t.Size() * t.ElementSize()
}

// IsZero returns true if the tensor has no element.
func (t *Tensor) IsZero() bool {
	return t.Size() == 0
}

// Role returns the roles of the tensor.
func (t *Tensor) Role() Role {
	return t.role
}

// Has returns true if the tensor has all the given roles.
func (t *Tensor) Has(r Role) bool {
	return t.role&r == r
}

// String representation of the tensor, e.g. arg0:float32[1,1,5,5].
func (t *Tensor) String() string {
	dims := make([]string, len(t.shape.AxisLengths))
	for i, l := range t.shape.AxisLengths {
		dims[i] = fmt.Sprint(l)
	}
	return fmt.Sprintf("%s:%s[%s]", t.name, t.shape.DType.String(), strings.Join(dims, ","))
}
