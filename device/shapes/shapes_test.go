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

package shapes_test

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/kernelgen/device/shapes"
)

func TestRowMajorStrides(t *testing.T) {
	tests := []struct {
		dims []int
		want []int
	}{
		{dims: []int{}, want: []int{}},
		{dims: []int{7}, want: []int{1}},
		{dims: []int{2, 3}, want: []int{3, 1}},
		{dims: []int{2, 3, 4, 5}, want: []int{60, 20, 5, 1}},
		{dims: []int{4, 0, 2}, want: []int{0, 2, 1}},
	}
	for _, test := range tests {
		got := shapes.RowMajorStrides(test.dims)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("strides of %v (-want +got):\n%s", test.dims, diff)
		}
	}
}

func TestPaddedShape(t *testing.T) {
	tests := []struct {
		dims, below, above, interior []int
		want                         []int
	}{
		{
			dims:  []int{1, 1, 5, 5},
			below: []int{0, 1},
			above: []int{1, 0},
			want:  []int{1, 1, 6, 6},
		},
		{
			dims:     []int{1, 1, 5, 5},
			below:    []int{0, 0},
			above:    []int{0, 0},
			interior: []int{2, 2},
			want:     []int{1, 1, 9, 9},
		},
		{
			dims:     []int{2, 3, 4},
			below:    []int{1},
			above:    []int{2},
			interior: []int{3},
			want:     []int{2, 3, 13},
		},
		{
			dims:  []int{3},
			below: []int{0},
			above: []int{0},
			want:  []int{3},
		},
	}
	for _, test := range tests {
		got := shapes.PaddedShape(test.dims, test.below, test.above, test.interior)
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("padding of %v (-want +got):\n%s", test.dims, diff)
		}
	}
}

func TestPaddedExtentProperty(t *testing.T) {
	rnd := rand.New(rand.NewPCG(17, 42))
	for range 1000 {
		e := 1 + rnd.IntN(64)
		l, u := rnd.IntN(8), rnd.IntN(8)
		i := 1 + rnd.IntN(4)
		got := shapes.PaddedExtent(e, l, u, i, true)
		want := (e-1)*i + 1 + l + u
		if i == 1 {
			want = e + l + u
		}
		if got != want {
			t.Fatalf("PaddedExtent(%d,%d,%d,%d)=%d but want %d", e, l, u, i, got, want)
		}
		if noInterior := shapes.PaddedExtent(e, l, u, i, false); noInterior != e+l+u {
			t.Fatalf("PaddedExtent(%d,%d,%d) without interior=%d but want %d", e, l, u, noInterior, e+l+u)
		}
		padded := shapes.PaddedShape([]int{1, 1, e}, []int{l}, []int{u}, []int{i})
		if padded[2] != got {
			t.Fatalf("PaddedShape gives %d but PaddedExtent gives %d", padded[2], got)
		}
	}
}

func TestHelpers(t *testing.T) {
	if got := shapes.Size(nil); got != 1 {
		t.Errorf("size of a scalar: got %d but want 1", got)
	}
	if got := shapes.Size([]int{2, 0, 3}); got != 0 {
		t.Errorf("size of an empty shape: got %d but want 0", got)
	}
	if got := shapes.NonTrivialAxes([]int{1, 3, 1, 5, 1}, 2); got != 1 {
		t.Errorf("non trivial axes: got %d but want 1", got)
	}
	if got := shapes.NonTrivialAxes([]int{4, 3}, 5); got != 0 {
		t.Errorf("non trivial axes out of range: got %d but want 0", got)
	}
	if diff := cmp.Diff([]int{4, 2, 3}, shapes.Permute([]int{2, 3, 4}, []int{2, 0, 1})); diff != "" {
		t.Errorf("unexpected permutation (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 1, 4}, shapes.WithAxesSetTo([]int{2, 3, 4}, []int{1}, 1)); diff != "" {
		t.Errorf("unexpected reduced shape (-want +got):\n%s", diff)
	}
	if !shapes.IsSymmetric([]int{1, 2}, []int{1, 2}) || shapes.IsSymmetric([]int{0, 1}, []int{1, 0}) {
		t.Errorf("wrong symmetry detection")
	}
	if got := shapes.CeilDiv(5, 2); got != 3 {
		t.Errorf("CeilDiv(5, 2): got %d but want 3", got)
	}
}
