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

package ordered_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/gx-org/kernelgen/base/ordered"
)

type entry struct {
	K string
	V int
}

func TestMapOrder(t *testing.T) {
	tests := []struct {
		entries []entry
		want    []entry
	}{
		{
			entries: []entry{{"conv", 1}, {"gemm", 2}, {"pool", 3}},
			want:    []entry{{"conv", 1}, {"gemm", 2}, {"pool", 3}},
		},
		{
			entries: []entry{{"conv", 1}, {"gemm", 2}, {"conv", 3}},
			want:    []entry{{"conv", 3}, {"gemm", 2}},
		},
	}
	for ti, test := range tests {
		m := ordered.NewMap[string, int]()
		for _, e := range test.entries {
			m.Store(e.K, e.V)
		}
		var got []entry
		for k, v := range m.Iter() {
			got = append(got, entry{k, v})
		}
		if diff := cmp.Diff(test.want, got); diff != "" {
			t.Errorf("test %d: unexpected iteration order (-want +got):\n%s", ti, diff)
		}
		if m.Size() != len(test.want) {
			t.Errorf("test %d: got size %d but want %d", ti, m.Size(), len(test.want))
		}
		var keys []string
		for k := range m.Keys() {
			keys = append(keys, k)
		}
		var vals []int
		for v := range m.Values() {
			vals = append(vals, v)
		}
		for i, e := range test.want {
			if keys[i] != e.K || vals[i] != e.V {
				t.Errorf("test %d entry %d: got %s->%d but want %s->%d", ti, i, keys[i], vals[i], e.K, e.V)
			}
		}
	}
}

func TestLoadOrCompute(t *testing.T) {
	m := ordered.NewMap[string, int]()
	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}
	v, loaded, err := m.LoadOrCompute("k", compute)
	if err != nil || loaded || v != 42 {
		t.Fatalf("first call: got (%d, %v, %v) but want (42, false, nil)", v, loaded, err)
	}
	v, loaded, err = m.LoadOrCompute("k", compute)
	if err != nil || !loaded || v != 42 {
		t.Fatalf("second call: got (%d, %v, %v) but want (42, true, nil)", v, loaded, err)
	}
	if calls != 1 {
		t.Errorf("compute called %d times but want 1", calls)
	}

	_, _, err = m.LoadOrCompute("fail", func() (int, error) { return 0, errors.New("boom") })
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := m.Load("fail"); ok {
		t.Errorf("failed computation has been stored")
	}
}
