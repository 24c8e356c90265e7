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

// Package program defines the instructions emitted for a compiled function.
//
// A program is a list of blocks, one per emitted node. Instructions of a
// block run in order on the device stream. Each instruction reports the
// allocator handles it reads or writes.
package program

import (
	"fmt"
	"strings"

	"github.com/gx-org/backend/dtype"
	kgfmt "github.com/gx-org/kernelgen/base/fmt"
	"github.com/gx-org/kernelgen/descriptor"
	"github.com/gx-org/kernelgen/device/alloc"
	"github.com/gx-org/kernelgen/device/primitive"
)

// Pointer to device memory: either a tensor or an allocator reservation.
type Pointer struct {
	// Tensor is nil for allocator reservations.
	Tensor *descriptor.Tensor
	Handle alloc.Handle
}

// TensorPtr returns a pointer to a tensor.
func TensorPtr(t *descriptor.Tensor) Pointer {
	return Pointer{Tensor: t}
}

// HandlePtr returns a pointer to an allocator reservation.
func HandlePtr(h alloc.Handle) Pointer {
	return Pointer{Handle: h}
}

// IsHandle returns true if the pointer refers to an allocator reservation.
func (p Pointer) IsHandle() bool {
	return p.Tensor == nil
}

func (p Pointer) String() string {
	if p.IsHandle() {
		return p.Handle.String()
	}
	return p.Tensor.Name()
}

func handles(ptrs ...Pointer) []alloc.Handle {
	var hs []alloc.Handle
	for _, p := range ptrs {
		if p.IsHandle() {
			hs = append(hs, p.Handle)
		}
	}
	return hs
}

func ptrsString(ptrs []Pointer) string {
	return kgfmt.Join(ptrs, ", ")
}

// Instruction executed on the device.
type Instruction interface {
	// Handles returns the allocator reservations the instruction depends on.
	Handles() []alloc.Handle
	String() string
}

// Invoke runs a primitive.
type Invoke struct {
	Primitive *primitive.Entry
	Inputs    []Pointer
	Outputs   []Pointer
	// Scratch is the workspace requested by the primitive plan, if any.
	Scratch []Pointer
}

// Handles returns the reservations read or written by the primitive.
func (inv *Invoke) Handles() []alloc.Handle {
	all := append(append([]Pointer{}, inv.Inputs...), inv.Outputs...)
	return handles(append(all, inv.Scratch...)...)
}

func (inv *Invoke) String() string {
	s := fmt.Sprintf("invoke %s %s(%s) -> (%s)", inv.Primitive, inv.Primitive.Config.Kind, ptrsString(inv.Inputs), ptrsString(inv.Outputs))
	if len(inv.Scratch) > 0 {
		s += fmt.Sprintf(" scratch %s", ptrsString(inv.Scratch))
	}
	return s
}

// Copy bytes from a device buffer to another.
type Copy struct {
	Dst, Src Pointer
	Bytes    int
}

// Handles returns the reservations read or written by the copy.
func (c *Copy) Handles() []alloc.Handle {
	return handles(c.Dst, c.Src)
}

func (c *Copy) String() string {
	return fmt.Sprintf("copy %s <- %s (%d bytes)", c.Dst, c.Src, c.Bytes)
}

// Fill a buffer with a constant value.
type Fill struct {
	Dst   Pointer
	Value any
	Count int
	DType dtype.DataType
}

// Handles returns the reservation written by the fill.
func (f *Fill) Handles() []alloc.Handle {
	return handles(f.Dst)
}

func (f *Fill) String() string {
	return fmt.Sprintf("fill %s <- %v x%d %s", f.Dst, f.Value, f.Count, f.DType.String())
}

// FillFrom fills a buffer with a value read from the device.
type FillFrom struct {
	Dst, Src Pointer
	Count    int
	DType    dtype.DataType
}

// Handles returns the reservations read or written by the fill.
func (f *FillFrom) Handles() []alloc.Handle {
	return handles(f.Dst, f.Src)
}

func (f *FillFrom) String() string {
	return fmt.Sprintf("fill %s <- *%s x%d %s", f.Dst, f.Src, f.Count, f.DType.String())
}

// Call a compiled function.
type Call struct {
	Function string
	Args     []Pointer
	Outs     []Pointer
}

// Handles returns the reservations passed to the function.
func (c *Call) Handles() []alloc.Handle {
	return handles(append(append([]Pointer{}, c.Args...), c.Outs...)...)
}

func (c *Call) String() string {
	return fmt.Sprintf("call %s(%s) -> (%s)", c.Function, ptrsString(c.Args), ptrsString(c.Outs))
}

// Block is the instructions emitted for a node.
type Block struct {
	Node         string
	Instructions []Instruction
}

// NewBlock returns an empty block for a node.
func NewBlock(node string) *Block {
	return &Block{Node: node}
}

// Append instructions to the block.
func (b *Block) Append(ins ...Instruction) {
	b.Instructions = append(b.Instructions, ins...)
}

// Empty returns true if the block has no instruction.
func (b *Block) Empty() bool {
	return len(b.Instructions) == 0
}

// Handles returns the reservations used by the instructions of the block.
func (b *Block) Handles() []alloc.Handle {
	var hs []alloc.Handle
	for _, ins := range b.Instructions {
		hs = append(hs, ins.Handles()...)
	}
	return hs
}

func (b *Block) String() string {
	var s strings.Builder
	s.WriteString(b.Node + ":\n")
	for _, ins := range b.Instructions {
		s.WriteString(kgfmt.Indent(ins.String() + "\n"))
	}
	return s.String()
}

// Program compiled for a function.
type Program struct {
	Function   string
	Blocks     []*Block
	Layout     *alloc.Layout
	Primitives []*primitive.Entry
	// Callees are the programs of the functions called by this one.
	Callees []*Program
}

// Instructions returns all the instructions of the program in order.
func (p *Program) Instructions() []Instruction {
	var all []Instruction
	for _, b := range p.Blocks {
		all = append(all, b.Instructions...)
	}
	return all
}

// String returns a numbered listing of the program.
func (p *Program) String() string {
	var s strings.Builder
	s.WriteString(fmt.Sprintf("function %s\n", p.Function))
	if p.Layout != nil {
		s.WriteString(fmt.Sprintf("workspace: %d bytes\nargspace: %d bytes\n", p.Layout.WorkspaceSize, p.Layout.ArgspaceSize))
	}
	for _, b := range p.Blocks {
		if b.Empty() {
			continue
		}
		s.WriteString(b.String())
	}
	return kgfmt.Number(strings.TrimSuffix(s.String(), "\n"))
}
