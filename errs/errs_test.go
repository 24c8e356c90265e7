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

package errs_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/gx-org/kernelgen/errs"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want errs.Kind
	}{
		{err: errs.Unsupportedf("Convolution", "%d spatial dimensions", 4), want: errs.Unsupported},
		{err: errs.ShapeMismatchf("Dot", "%v vs %v", []int{3}, []int{4}), want: errs.ShapeMismatch},
		{err: errs.LookupMissf("Reduce", "no opcode for %s", "Divide"), want: errs.LookupMiss},
		{err: errs.ResourceWrap("Pool", errors.New("out of memory")), want: errs.Resource},
		{err: errors.Wrap(errs.Unsupportedf("MaxPool", "rank 2"), "node maxpool1"), want: errs.Unsupported},
		{err: fmt.Errorf("node dot: %w", errs.ShapeMismatchf("Dot", "bad")), want: errs.ShapeMismatch},
		{err: errors.New("plain"), want: errs.Unknown},
		{err: nil, want: errs.Unknown},
	}
	for i, test := range tests {
		if got := errs.KindOf(test.err); got != test.want {
			t.Errorf("test %d: got kind %s but want %s", i, got, test.want)
		}
	}
}

func TestErrorNamesOperator(t *testing.T) {
	err := errs.Unsupportedf("Convolution", "%d spatial dimensions", 4)
	got := err.Error()
	want := "Convolution: unsupported: 4 spatial dimensions"
	if got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	if !strings.Contains(fmt.Sprintf("%+v", err), "errs_test.TestErrorNamesOperator") {
		t.Errorf("%%+v does not include the stack trace:\n%+v", err)
	}
}

func TestResourceWrap(t *testing.T) {
	if errs.ResourceWrap("Dot", nil) != nil {
		t.Errorf("wrapping nil should return nil")
	}
	inner := errs.Resourcef("alloc", "budget exceeded")
	if got := errs.ResourceWrap("Dot", inner); got != inner {
		t.Errorf("resource errors should not be wrapped twice: got %v", got)
	}
	cause := errors.New("plan build failed")
	wrapped := errs.ResourceWrap("Convolution", cause)
	if !errors.Is(wrapped, cause) {
		t.Errorf("%v does not wrap %v", wrapped, cause)
	}
	if !errs.Is(wrapped, errs.Resource) {
		t.Errorf("got kind %s but want %s", errs.KindOf(wrapped), errs.Resource)
	}
}
