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

// Package alloc reserves device memory at compile time.
//
// The allocator does not allocate device memory: it hands out handles to
// byte ranges of two memory pools and computes the layout of these pools.
// Workspace is scratch memory valid during one invocation. Argspace holds
// small constant buffers, such as stride tables, copied to the device once.
// Argspace reservations with identical content share the same handle.
//
// Handles are only valid for the compilation of the function that
// requested them: a new allocator is created for each compiled function.
package alloc

import (
	"encoding/binary"
	"fmt"

	"github.com/gx-org/kernelgen/errs"
)

const opName = "alloc"

// Class of memory.
type Class int

const (
	// Workspace is scratch memory.
	Workspace Class = iota
	// Argspace holds constant buffers.
	Argspace
)

// Alignment of the reservations of each class in bytes.
var alignment = map[Class]int{
	Workspace: 256,
	Argspace:  8,
}

func (c Class) String() string {
	if c == Argspace {
		return "argspace"
	}
	return "workspace"
}

// Alignment returns the alignment in bytes of the reservations of the class.
func (c Class) Alignment() int {
	return alignment[c]
}

// Handle to a reservation.
type Handle struct {
	Class Class
	Index int
}

func (h Handle) String() string {
	if h.Class == Argspace {
		return fmt.Sprintf("as%d", h.Index)
	}
	return fmt.Sprintf("ws%d", h.Index)
}

// Pointer to a reservation once the layout has been computed.
type Pointer struct {
	Class  Class
	Offset int
}

func (p Pointer) String() string {
	return fmt.Sprintf("%s+%d", p.Class, p.Offset)
}

func align(n, a int) int {
	return (n + a - 1) / a * a
}

// Allocator of a compiled function.
type Allocator struct {
	limit int

	workspace []int
	wsBytes   int

	argspace [][]byte
	argIndex map[string]int

	layout *Layout
}

// New returns a new allocator.
// limit is the maximum number of workspace bytes. 0 means no limit.
func New(limit int) *Allocator {
	return &Allocator{
		limit:    limit,
		argIndex: make(map[string]int),
	}
}

func (a *Allocator) checkOpen() error {
	if a.layout != nil {
		return errs.Resourcef(opName, "cannot reserve memory after the layout has been computed")
	}
	return nil
}

// ReserveWorkspace reserves size bytes of scratch memory.
func (a *Allocator) ReserveWorkspace(size int) (Handle, error) {
	if err := a.checkOpen(); err != nil {
		return Handle{}, err
	}
	if size <= 0 {
		return Handle{}, errs.Resourcef(opName, "invalid workspace reservation of %d bytes", size)
	}
	total := a.wsBytes + align(size, Workspace.Alignment())
	if a.limit > 0 && total > a.limit {
		return Handle{}, errs.Resourcef(opName, "workspace exhausted: reserving %d bytes requires %d bytes but the limit is %d bytes", size, total, a.limit)
	}
	a.wsBytes = total
	a.workspace = append(a.workspace, size)
	return Handle{Class: Workspace, Index: len(a.workspace) - 1}, nil
}

// ReserveArgspace reserves a constant buffer initialized with content.
// A buffer with the same content reserved earlier is reused.
func (a *Allocator) ReserveArgspace(content []byte) (Handle, error) {
	if err := a.checkOpen(); err != nil {
		return Handle{}, err
	}
	if len(content) == 0 {
		return Handle{}, errs.Resourcef(opName, "invalid empty argspace reservation")
	}
	key := string(content)
	if index, ok := a.argIndex[key]; ok {
		return Handle{Class: Argspace, Index: index}, nil
	}
	a.argspace = append(a.argspace, append([]byte{}, content...))
	index := len(a.argspace) - 1
	a.argIndex[key] = index
	return Handle{Class: Argspace, Index: index}, nil
}

// EncodeInts encodes integers as little-endian uint64 values.
func EncodeInts(xs []int) []byte {
	buf := make([]byte, 8*len(xs))
	for i, x := range xs {
		binary.LittleEndian.PutUint64(buf[8*i:], uint64(x))
	}
	return buf
}

// DecodeInts decodes integers encoded by EncodeInts.
func DecodeInts(buf []byte) []int {
	xs := make([]int, len(buf)/8)
	for i := range xs {
		xs[i] = int(binary.LittleEndian.Uint64(buf[8*i:]))
	}
	return xs
}

// ReserveInts reserves a table of integers in argspace.
func (a *Allocator) ReserveInts(xs []int) (Handle, error) {
	return a.ReserveArgspace(EncodeInts(xs))
}

// NumReservations returns the number of distinct workspace and argspace reservations.
func (a *Allocator) NumReservations() (workspace, argspace int) {
	return len(a.workspace), len(a.argspace)
}

// Content returns the initial content of an argspace reservation.
func (a *Allocator) Content(h Handle) ([]byte, error) {
	if h.Class != Argspace || h.Index < 0 || h.Index >= len(a.argspace) {
		return nil, errs.Resourcef(opName, "invalid argspace handle %s", h)
	}
	return a.argspace[h.Index], nil
}

// Size returns the number of bytes requested by a reservation.
func (a *Allocator) Size(h Handle) (int, error) {
	switch {
	case h.Class == Workspace && h.Index >= 0 && h.Index < len(a.workspace):
		return a.workspace[h.Index], nil
	case h.Class == Argspace && h.Index >= 0 && h.Index < len(a.argspace):
		return len(a.argspace[h.Index]), nil
	}
	return 0, errs.Resourcef(opName, "unknown handle %s", h)
}

// Layout of the memory pools.
type Layout struct {
	WorkspaceSize int
	ArgspaceSize  int
	// Argspace is the initial content of the argspace pool.
	Argspace []byte

	offsets map[Class][]int
}

// Layout computes the offset of every reservation.
// No more reservation can be done afterwards.
func (a *Allocator) Layout() *Layout {
	if a.layout != nil {
		return a.layout
	}
	l := &Layout{offsets: make(map[Class][]int)}
	for _, size := range a.workspace {
		l.offsets[Workspace] = append(l.offsets[Workspace], l.WorkspaceSize)
		l.WorkspaceSize += align(size, Workspace.Alignment())
	}
	for _, content := range a.argspace {
		l.offsets[Argspace] = append(l.offsets[Argspace], l.ArgspaceSize)
		l.ArgspaceSize += align(len(content), Argspace.Alignment())
	}
	l.Argspace = make([]byte, l.ArgspaceSize)
	for i, content := range a.argspace {
		copy(l.Argspace[l.offsets[Argspace][i]:], content)
	}
	a.layout = l
	return l
}

// Materialize resolves a handle into a pointer.
// It fails if the layout has not been computed yet.
func (a *Allocator) Materialize(h Handle) (Pointer, error) {
	if a.layout == nil {
		return Pointer{}, errs.Resourcef(opName, "cannot materialize %s before the layout has been computed", h)
	}
	offsets := a.layout.offsets[h.Class]
	if h.Index < 0 || h.Index >= len(offsets) {
		return Pointer{}, errs.Resourcef(opName, "unknown handle %s", h)
	}
	return Pointer{Class: h.Class, Offset: offsets[h.Index]}, nil
}
