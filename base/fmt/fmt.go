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

// Package fmt provides helpers to build string representations of programs.
package fmt

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Number adds a number prefix to all lines in a string.
func Number(x string) string {
	lines := slices.Collect(strings.Lines(x))
	numDigits := int(math.Log10(float64(len(lines)))) + 1
	fmtString := fmt.Sprintf("%%0%dd %%s", numDigits)
	var s strings.Builder
	for i, line := range lines {
		s.WriteString(fmt.Sprintf(fmtString, i+1, line))
	}
	return s.String()
}

// IndentSkip skips some lines and indent the rest with a tabulation.
func IndentSkip(skip int, x string) string {
	var y strings.Builder
	n := 0
	for line := range strings.Lines(x) {
		if n >= skip {
			y.WriteString("\t")
		}
		y.WriteString(line)
		n++
	}
	return y.String()
}

// Indent all the lines of a string with a tabulation.
func Indent(x string) string {
	return IndentSkip(0, x)
}

// Ints returns a compact representation of a list of integers, e.g. [1,2,3].
// nil and empty slices are both rendered as [].
func Ints(xs []int) string {
	var s strings.Builder
	s.WriteString("[")
	for i, x := range xs {
		if i > 0 {
			s.WriteString(",")
		}
		s.WriteString(strconv.Itoa(x))
	}
	s.WriteString("]")
	return s.String()
}

// Join the string representations of a list of values.
func Join[T fmt.Stringer](vals []T, sep string) string {
	strs := make([]string, len(vals))
	for i, v := range vals {
		strs[i] = v.String()
	}
	return strings.Join(strs, sep)
}
