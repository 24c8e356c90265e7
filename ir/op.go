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

package ir

import "fmt"

// OpKind is the kind of operator computed by a node.
type OpKind int

// Operator kinds.
const (
	InvalidOp OpKind = iota

	// Structural operators.
	Parameter
	Constant
	Result
	FunctionCall
	GetOutputElement

	// Elementwise unary operators.
	Negative
	Sqrt
	Not
	Abs
	Exp
	Log
	Sin
	Cos
	Tan
	Tanh
	Sign
	Ceiling
	Floor
	Convert

	// Elementwise binary operators.
	Add
	Subtract
	Multiply
	Divide
	Maximum
	Minimum
	Power
	Equal
	NotEqual
	Less
	LessEq
	Greater
	GreaterEq
	And
	Or

	// Elementwise ternary operators.
	Select

	// Contractions.
	Dot
	Convolution
	ConvolutionBackpropData
	ConvolutionBackpropFilters

	// Reductions.
	Sum
	Product
	Max
	Min
	Reduce
	ReduceWindow

	// Data movement.
	Reshape
	Slice
	Reverse
	ReplaceSlice
	Broadcast
	Concat
	OneHot
	ReverseSequence
	Pad

	// Pooling.
	MaxPool
	AvgPool
	MaxPoolBackprop
	AvgPoolBackprop

	// Normalizations.
	Softmax
	BatchNorm
	BatchNormBackprop

	numOpKinds
)

var opNames = [...]string{
	InvalidOp:                  "Invalid",
	Parameter:                  "Parameter",
	Constant:                   "Constant",
	Result:                     "Result",
	FunctionCall:               "FunctionCall",
	GetOutputElement:           "GetOutputElement",
	Negative:                   "Negative",
	Sqrt:                       "Sqrt",
	Not:                        "Not",
	Abs:                        "Abs",
	Exp:                        "Exp",
	Log:                        "Log",
	Sin:                        "Sin",
	Cos:                        "Cos",
	Tan:                        "Tan",
	Tanh:                       "Tanh",
	Sign:                       "Sign",
	Ceiling:                    "Ceiling",
	Floor:                      "Floor",
	Convert:                    "Convert",
	Add:                        "Add",
	Subtract:                   "Subtract",
	Multiply:                   "Multiply",
	Divide:                     "Divide",
	Maximum:                    "Maximum",
	Minimum:                    "Minimum",
	Power:                      "Power",
	Equal:                      "Equal",
	NotEqual:                   "NotEqual",
	Less:                       "Less",
	LessEq:                     "LessEq",
	Greater:                    "Greater",
	GreaterEq:                  "GreaterEq",
	And:                        "And",
	Or:                         "Or",
	Select:                     "Select",
	Dot:                        "Dot",
	Convolution:                "Convolution",
	ConvolutionBackpropData:    "ConvolutionBackpropData",
	ConvolutionBackpropFilters: "ConvolutionBackpropFilters",
	Sum:                        "Sum",
	Product:                    "Product",
	Max:                        "Max",
	Min:                        "Min",
	Reduce:                     "Reduce",
	ReduceWindow:               "ReduceWindow",
	Reshape:                    "Reshape",
	Slice:                      "Slice",
	Reverse:                    "Reverse",
	ReplaceSlice:               "ReplaceSlice",
	Broadcast:                  "Broadcast",
	Concat:                     "Concat",
	OneHot:                     "OneHot",
	ReverseSequence:            "ReverseSequence",
	Pad:                        "Pad",
	MaxPool:                    "MaxPool",
	AvgPool:                    "AvgPool",
	MaxPoolBackprop:            "MaxPoolBackprop",
	AvgPoolBackprop:            "AvgPoolBackprop",
	Softmax:                    "Softmax",
	BatchNorm:                  "BatchNorm",
	BatchNormBackprop:          "BatchNormBackprop",
}

func (k OpKind) String() string {
	if k < 0 || k >= numOpKinds {
		return fmt.Sprintf("OpKind(%d)", int(k))
	}
	return opNames[k]
}

// Kinds returns all the valid operator kinds.
func Kinds() []OpKind {
	kinds := make([]OpKind, 0, numOpKinds-1)
	for k := InvalidOp + 1; k < numOpKinds; k++ {
		kinds = append(kinds, k)
	}
	return kinds
}

// Arity returns the number of operands of an elementwise operator
// or 0 if the operator is not elementwise.
func (k OpKind) Arity() int {
	switch {
	case k >= Negative && k <= Convert:
		return 1
	case k >= Add && k <= Or:
		return 2
	case k == Select:
		return 3
	}
	return 0
}

// IsElementwise returns true if the operator applies independently to each element.
func (k OpKind) IsElementwise() bool {
	return k.Arity() > 0
}
