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

package dce_test

import (
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/sirupsen/logrus"
	"github.com/gx-org/kernelgen/ir"
	"github.com/gx-org/kernelgen/pass"
	"github.com/gx-org/kernelgen/pass/dce"
)

func f32(axes ...int) *shape.Shape {
	return &shape.Shape{DType: dtype.Float32, AxisLengths: axes}
}

func TestLive(t *testing.T) {
	g := ir.New()
	x := g.Parameter(f32(4))
	unusedParam := g.Parameter(f32(4))
	neg := g.Op(ir.Negative, nil, f32(4), x)
	dead := g.Op(ir.Abs, nil, f32(4), neg)
	kept := g.Op(ir.Sqrt, nil, f32(4), x)
	res := g.Result(neg)
	fn := g.Function("main", []ir.NodeID{x, unusedParam}, []ir.NodeID{res})

	log := logrus.New()
	log.SetOutput(io.Discard)
	tests := []struct {
		keep []ir.NodeID
		want []ir.NodeID
	}{
		{
			want: []ir.NodeID{x, unusedParam, neg, res},
		},
		{
			keep: []ir.NodeID{kept},
			want: []ir.NodeID{x, unusedParam, neg, res, kept},
		},
	}
	for i, test := range tests {
		c := pass.NewContext(fn, log)
		if err := pass.Run(c, &dce.Pass{Keep: test.keep}); err != nil {
			t.Fatalf("test %d: %v", i, err)
		}
		if diff := cmp.Diff(test.want, c.Live); diff != "" {
			t.Errorf("test %d: unexpected live nodes (-want +got):\n%s", i, diff)
		}
		for _, id := range c.Live {
			if id == dead {
				t.Errorf("test %d: dead node %s is live", i, g.Node(dead).Name)
			}
		}
	}
}
