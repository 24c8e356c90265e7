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
	"strings"

	"github.com/gx-org/kernelgen/device/primitive"
	"github.com/gx-org/kernelgen/device/program"
	"github.com/gx-org/kernelgen/device/shapes"
	"github.com/gx-org/kernelgen/ir"
)

// tensorOp describes an operator supported by the vendor op-tensor primitive:
// out = op(alpha1*x, alpha2*y).
type tensorOp struct {
	op             string
	alpha1, alpha2 float64
}

var tensorOps = map[ir.OpKind]tensorOp{
	ir.Add:      {op: "add", alpha1: 1, alpha2: 1},
	ir.Subtract: {op: "add", alpha1: 1, alpha2: -1},
	ir.Multiply: {op: "mul", alpha1: 1, alpha2: 1},
	ir.Maximum:  {op: "max", alpha1: 1, alpha2: 1},
	ir.Minimum:  {op: "min", alpha1: 1, alpha2: 1},
	ir.Negative: {op: "add", alpha1: -1, alpha2: 0},
	ir.Sqrt:     {op: "sqrt", alpha1: 1, alpha2: 0},
	ir.Not:      {op: "not", alpha1: 1, alpha2: 0},
}

func init() {
	for _, kind := range ir.Kinds() {
		if !kind.IsElementwise() {
			continue
		}
		if _, ok := tensorOps[kind]; ok {
			register(kind, lowerTensorOp, 0)
			continue
		}
		register(kind, lowerElementwiseKernel, 0)
	}
}

// The layout of the operands does not matter to elementwise operators:
// all tensors are described as [1,1,1,N].

func lowerTensorOp(c *call) error {
	if err := c.checkArity(c.node.Op.Arity(), 1); err != nil {
		return err
	}
	top := tensorOps[c.node.Op]
	out := c.out[0]
	x, y := c.arg(0), c.arg(0)
	if len(c.args) > 1 {
		y = c.arg(1)
	}
	cfg := primitive.NewConfig(primitive.OpTensor, dtypes(c.args[0], out)...).
		Shape(shapes.Flat(out.Size())).
		Str("op", top.op).
		Float("alpha1", top.alpha1).
		Float("alpha2", top.alpha2)
	return c.invoke(cfg, ptrs(x, y), ptrs(c.res(0)))
}

func lowerElementwiseKernel(c *call) error {
	if err := c.checkArity(c.node.Op.Arity(), 1); err != nil {
		return err
	}
	out := c.out[0]
	cfg := primitive.NewConfig(primitive.ElementwiseKernel, dtypes(c.allTensors()...)...).
		Shape(shapes.Flat(out.Size())).
		Str("op", strings.ToLower(c.node.Op.String()))
	return c.invoke(cfg, tensorPtrs(c.args), []program.Pointer{c.res(0)})
}
