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
	"github.com/gx-org/kernelgen/device/primitive"
	"github.com/gx-org/kernelgen/ir"
)

func init() {
	register(ir.BatchNorm, lowerBatchNorm, 0)
	register(ir.BatchNormBackprop, lowerBatchNormBackprop, 0)
}

// Operands of batch normalization: gamma, beta, input, and mean and
// variance for inference and backprop. The shape of gamma is the shape
// of the per channel parameters.

func (c *call) batchNorm(kind primitive.Kind) error {
	if err := c.checkArity(3, 1); err != nil {
		return err
	}
	attrs, err := attrsOf[ir.BatchNormAttrs](c)
	if err != nil {
		return err
	}
	cfg := primitive.NewConfig(kind, dtypes(c.allTensors()...)...).
		Shape(c.args[2].Axes(), c.args[0].Axes()).
		Float("epsilon", attrs.Epsilon)
	return c.invoke(cfg, tensorPtrs(c.args), tensorPtrs(c.out))
}

func lowerBatchNorm(c *call) error {
	attrs, err := attrsOf[ir.BatchNormAttrs](c)
	if err != nil {
		return err
	}
	kind := primitive.BatchNormInference
	if attrs.Training && len(c.args) == 3 {
		kind = primitive.BatchNormTraining
	}
	return c.batchNorm(kind)
}

func lowerBatchNormBackprop(c *call) error {
	return c.batchNorm(primitive.BatchNormBackward)
}
