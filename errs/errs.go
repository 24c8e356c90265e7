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

// Package errs defines the kinds of errors a compilation can fail with.
//
// Every failure aborts the compilation of the current function: there is
// no local recovery. Callers inspect the kind of an error with KindOf.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind of compilation error.
type Kind int

const (
	// Unknown is the kind of errors not created by this package.
	Unknown Kind = iota
	// Unsupported configuration: a rank or dimensionality exceeds what
	// the emission strategy of an operator supports.
	Unsupported
	// ShapeMismatch between operands an operator algebra cannot reconcile.
	ShapeMismatch
	// LookupMiss is a value outside of a closed enumeration.
	LookupMiss
	// Resource failure of the allocator or of a vendor library.
	Resource
)

var kindNames = map[Kind]string{
	Unknown:       "unknown",
	Unsupported:   "unsupported",
	ShapeMismatch: "shape mismatch",
	LookupMiss:    "lookup miss",
	Resource:      "resource",
}

func (k Kind) String() string {
	s, ok := kindNames[k]
	if !ok {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return s
}

// Error is a compilation error of a given kind raised by an operator.
type Error struct {
	kind Kind
	op   string
	err  error
}

var _ error = (*Error)(nil)

func newf(kind Kind, op string, format string, a ...any) error {
	return &Error{kind: kind, op: op, err: errors.Errorf(format, a...)}
}

// Unsupportedf returns an unsupported configuration error raised by op.
func Unsupportedf(op string, format string, a ...any) error {
	return newf(Unsupported, op, format, a...)
}

// ShapeMismatchf returns a shape mismatch error raised by op.
func ShapeMismatchf(op string, format string, a ...any) error {
	return newf(ShapeMismatch, op, format, a...)
}

// LookupMissf returns a lookup miss error raised by op.
func LookupMissf(op string, format string, a ...any) error {
	return newf(LookupMiss, op, format, a...)
}

// Resourcef returns a resource error raised by op.
func Resourcef(op string, format string, a ...any) error {
	return newf(Resource, op, format, a...)
}

// ResourceWrap wraps err, returned by the allocator or a vendor library, into a resource error.
func ResourceWrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) == Resource {
		return err
	}
	return &Error{kind: Resource, op: op, err: errors.WithStack(err)}
}

// Kind returns the kind of the error.
func (e *Error) Kind() Kind {
	return e.kind
}

// Op returns the name of the operator that raised the error.
func (e *Error) Op() string {
	return e.op
}

// Error returns the error message prefixed with the operator name.
func (e *Error) Error() string {
	if e.op == "" {
		return fmt.Sprintf("%s: %s", e.kind, e.err.Error())
	}
	return fmt.Sprintf("%s: %s: %s", e.op, e.kind, e.err.Error())
}

// Unwrap the error.
func (e *Error) Unwrap() error {
	return e.err
}

// Format writes the error into the state of the formatter.
// %+v includes the stack trace recorded when the error was created.
func (e *Error) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			fmt.Fprintf(s, "%s\n%+v", e.Error(), e.err)
			return
		}
		fallthrough
	case 's':
		fmt.Fprint(s, e.Error())
	case 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// KindOf returns the kind of the first Error found in the chain of err.
func KindOf(err error) Kind {
	var kErr *Error
	if !errors.As(err, &kErr) {
		return Unknown
	}
	return kErr.kind
}

// Is returns true if err has the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Internal marks an error as internal, that is, a bug in the compiler.
func Internal(err error) error {
	return errors.Errorf("kernelgen internal error. This is a bug. Please report it. Error:\n%+v", err)
}

// Internalf returns a formatted internal error.
func Internalf(format string, a ...any) error {
	return Internal(errors.Errorf(format, a...))
}
