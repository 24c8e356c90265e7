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
	"math"

	"github.com/gx-org/backend/dtype"
)

// Values written by Fill instructions and passed as pad values to kernels.
// Floating point values are float64, signed integers int64, unsigned
// integers uint64 and booleans bool.

func isFloat(dt dtype.DataType) bool {
	switch dt {
	case dtype.Bfloat16, dtype.Float32, dtype.Float64:
		return true
	}
	return false
}

func isUnsigned(dt dtype.DataType) bool {
	return dt == dtype.Uint32 || dt == dtype.Uint64
}

func valueOf(dt dtype.DataType, v int64) any {
	switch {
	case dt == dtype.Bool:
		return v != 0
	case isFloat(dt):
		return float64(v)
	case isUnsigned(dt):
		return uint64(v)
	}
	return v
}

func zero(dt dtype.DataType) any {
	return valueOf(dt, 0)
}

func one(dt dtype.DataType) any {
	return valueOf(dt, 1)
}

// lowest returns the smallest value of a type.
// Infinite values are used for floating point types.
func lowest(dt dtype.DataType) any {
	switch dt {
	case dtype.Bool:
		return false
	case dtype.Int32:
		return int64(math.MinInt32)
	case dtype.Int64:
		return int64(math.MinInt64)
	case dtype.Uint32, dtype.Uint64:
		return uint64(0)
	}
	return math.Inf(-1)
}

// highest returns the largest value of a type.
func highest(dt dtype.DataType) any {
	switch dt {
	case dtype.Bool:
		return true
	case dtype.Int32:
		return int64(math.MaxInt32)
	case dtype.Int64:
		return int64(math.MaxInt64)
	case dtype.Uint32:
		return uint64(math.MaxUint32)
	case dtype.Uint64:
		return uint64(math.MaxUint64)
	}
	return math.Inf(1)
}
