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
	"github.com/gx-org/kernelgen/device/program"
	"github.com/gx-org/kernelgen/errs"
	"github.com/gx-org/kernelgen/ir"
)

func init() {
	// Parameters are set by the caller and constants when the program is loaded.
	register(ir.Parameter, func(*call) error { return nil }, 0)
	register(ir.Constant, func(*call) error { return nil }, 0)
	register(ir.Result, lowerResult, 0)
	register(ir.FunctionCall, lowerFunctionCall, emitZeroSize)
	register(ir.GetOutputElement, lowerGetOutputElement, 0)
}

func lowerResult(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	c.copyTensor(c.out[0], c.args[0])
	return nil
}

func lowerFunctionCall(c *call) error {
	attrs, err := attrsOf[ir.FunctionCallAttrs](c)
	if err != nil {
		return err
	}
	if attrs.Func == nil {
		return errs.Internalf("%s: no function to call", c.node.Name)
	}
	c.block.Append(&program.Call{
		Function: attrs.Func.Name,
		Args:     tensorPtrs(c.args),
		Outs:     tensorPtrs(c.out),
	})
	return nil
}

// lowerGetOutputElement copies an element of the tuple formed by the arguments.
func lowerGetOutputElement(c *call) error {
	if err := c.checkArity(1, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.GetOutputElementAttrs](c)
	if err != nil {
		return err
	}
	if attrs.N < 0 || attrs.N >= len(c.args) {
		return errs.LookupMissf(c.op(), "element %d out of range: the tuple has %d elements", attrs.N, len(c.args))
	}
	c.copyTensor(c.out[0], c.args[attrs.N])
	return nil
}
