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

// Package iter provides iterators over slices.
package iter

// All returns an iterator over all the elements of a list of slices.
func All[T any](slices ...[]T) func(yield func(T) bool) {
	return func(yield func(T) bool) {
		for _, slice := range slices {
			for _, el := range slice {
				if !yield(el) {
					return
				}
			}
		}
	}
}

// Filter returns an iterator over the elements of a list of slices
// for which f returns true.
func Filter[T any](f func(T) bool, slices ...[]T) func(yield func(T) bool) {
	return func(yield func(T) bool) {
		for el := range All(slices...) {
			if !f(el) {
				continue
			}
			if !yield(el) {
				return
			}
		}
	}
}

// Any returns true if f returns true for at least one element.
func Any[T any](f func(T) bool, slices ...[]T) bool {
	for range Filter(f, slices...) {
		return true
	}
	return false
}

// Count returns the number of elements for which f returns true.
func Count[T any](f func(T) bool, slices ...[]T) int {
	n := 0
	for range Filter(f, slices...) {
		n++
	}
	return n
}
