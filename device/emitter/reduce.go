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
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/kernelgen/device/primitive"
	"github.com/gx-org/kernelgen/device/program"
	"github.com/gx-org/kernelgen/errs"
	"github.com/gx-org/kernelgen/ir"
)

func init() {
	register(ir.Sum, reduction("add", zero), 0)
	register(ir.Product, reduction("mul", one), 0)
	register(ir.Max, reduction("max", lowest), 0)
	register(ir.Min, reduction("min", highest), 0)
	register(ir.Reduce, lowerReduce, 0)
	register(ir.ReduceWindow, lowerReduceWindow, 0)
}

// reduceOps maps the operator of a combining function to a reduction opcode.
var reduceOps = map[ir.OpKind]string{
	ir.Add:      "add",
	ir.Multiply: "mul",
	ir.Maximum:  "max",
	ir.Minimum:  "min",
}

// combiningOp returns the reduction opcode of a combining function.
// The function must contain a single operator from reduceOps.
func (c *call) combiningOp(fn *ir.Function) (string, error) {
	if fn == nil {
		return "", errs.Internalf("%s: no combining function", c.node.Name)
	}
	g := fn.Graph()
	var ops []ir.OpKind
	for _, id := range fn.Ops() {
		switch op := g.Node(id).Op; op {
		case ir.Parameter, ir.Constant, ir.Result:
		default:
			ops = append(ops, op)
		}
	}
	switch {
	case len(ops) == 0:
		return "", errs.Unsupportedf(c.op(), "no valid operation found in combining function %s", fn.Name)
	case len(ops) > 1:
		return "", errs.Unsupportedf(c.op(), "combining function %s has %d operations: only a single operation is supported", fn.Name, len(ops))
	}
	code, ok := reduceOps[ops[0]]
	if !ok {
		return "", errs.LookupMissf(c.op(), "combining operation %s of function %s not supported", ops[0], fn.Name)
	}
	return code, nil
}

func (c *call) reduceTensor(code string, axes []int) error {
	in, out := c.args[0], c.out[0]
	cfg := primitive.NewConfig(primitive.ReduceTensor, in.DType(), out.DType()).
		Shape(in.Axes(), out.Axes()).
		Str("op", code).
		Ints("axes", axes)
	return c.invoke(cfg, ptrs(c.arg(0)), ptrs(c.res(0)))
}

// reduction returns the lowering of a reduction with a builtin combining operation.
func reduction(code string, identity func(dtype.DataType) any) lowering {
	return func(c *call) error {
		if err := c.checkArity(1, 1); err != nil {
			return err
		}
		attrs, err := attrsOf[ir.ReduceAttrs](c)
		if err != nil {
			return err
		}
		in, out := c.args[0], c.out[0]
		switch {
		case in.IsZero():
			c.fill(out, identity(out.DType()))
			return nil
		case in.Size() == out.Size():
			c.copyTensor(out, in)
			return nil
		}
		return c.reduceTensor(code, attrs.Axes)
	}
}

// fillFromInit fills the output with the initial value of a reduction.
func (c *call) fillFromInit() {
	out := c.out[0]
	c.block.Append(&program.FillFrom{
		Dst:   c.res(0),
		Src:   c.arg(1),
		Count: out.Size(),
		DType: out.DType(),
	})
}

func lowerReduce(c *call) error {
	if err := c.checkArity(2, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.ReduceAttrs](c)
	if err != nil {
		return err
	}
	in, out := c.args[0], c.out[0]
	switch {
	case in.IsZero():
		c.fillFromInit()
		return nil
	case in.Size() == out.Size():
		c.copyTensor(out, in)
		return nil
	}
	code, err := c.combiningOp(attrs.Func)
	if err != nil {
		return err
	}
	return c.reduceTensor(code, attrs.Axes)
}

func lowerReduceWindow(c *call) error {
	if err := c.checkArity(2, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.ReduceWindowAttrs](c)
	if err != nil {
		return err
	}
	in, out := c.args[0], c.out[0]
	switch {
	case in.IsZero():
		c.fillFromInit()
		return nil
	case in.Size() == out.Size():
		c.copyTensor(out, in)
		return nil
	}
	code, err := c.combiningOp(attrs.Func)
	if err != nil {
		return err
	}
	cfg := primitive.NewConfig(primitive.ReduceWindowKernel, in.DType(), out.DType()).
		Shape(in.Axes(), out.Axes()).
		Str("op", code).
		Ints("window_shape", attrs.WindowShape).
		Ints("window_strides", attrs.WindowStrides)
	return c.invoke(cfg, ptrs(c.arg(0)), ptrs(c.res(0)))
}
