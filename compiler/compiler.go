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

// Package compiler compiles the functions of a graph into device programs.
//
// Compiling a function validates its graph, applies rewrite rules, drops
// the nodes which do not contribute to the results and emits the live
// nodes one by one. Every compilation gets its own allocator and its own
// primitive cache.
package compiler

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/mod/semver"
	"github.com/gx-org/kernelgen/device/alloc"
	"github.com/gx-org/kernelgen/device/emitter"
	"github.com/gx-org/kernelgen/device/primitive"
	"github.com/gx-org/kernelgen/device/program"
	"github.com/gx-org/kernelgen/errs"
	"github.com/gx-org/kernelgen/ir"
	"github.com/gx-org/kernelgen/pass"
	"github.com/gx-org/kernelgen/pass/dce"
	"github.com/gx-org/kernelgen/pass/rewrite"
)

// Compiler compiles functions for a vendor library.
type Compiler struct {
	lib primitive.Library

	rules          []rewrite.Rule
	mode           rewrite.Mode
	maxPasses      int
	validate       bool
	log            logrus.FieldLogger
	workspaceLimit int
	minVersion     string
}

// New returns a compiler building primitives with lib.
func New(lib primitive.Library, opts ...Option) (*Compiler, error) {
	c := &Compiler{
		lib:       lib,
		rules:     rewrite.DefaultRules(),
		mode:      rewrite.SinglePass,
		maxPasses: rewrite.DefaultMaxPasses,
		validate:  true,
		log:       logrus.StandardLogger(),
	}
	for _, opt := range opts {
		switch optT := opt.(type) {
		case rulesOption:
			c.rules = optT.rules
		case rewriteModeOption:
			c.mode = optT.mode
		case maxPassesOption:
			c.maxPasses = optT.n
		case validationOption:
			c.validate = optT.enabled
		case loggerOption:
			if optT.log != nil {
				c.log = optT.log
			}
		case workspaceLimitOption:
			c.workspaceLimit = optT.bytes
		case minLibraryVersionOption:
			c.minVersion = optT.version
		default:
			return nil, errors.Errorf("option of type %T not supported", optT)
		}
	}
	if err := checkVersion(lib, c.minVersion); err != nil {
		return nil, err
	}
	return c, nil
}

func checkVersion(lib primitive.Library, minVersion string) error {
	version := lib.Version()
	if !semver.IsValid(version) {
		return errs.Unsupportedf(lib.Name(), "invalid library version %q", version)
	}
	if minVersion == "" {
		return nil
	}
	if !semver.IsValid(minVersion) {
		return errs.Unsupportedf(lib.Name(), "invalid minimum library version %q", minVersion)
	}
	if semver.Compare(version, minVersion) < 0 {
		return errs.Unsupportedf(lib.Name(), "library version %s is older than the minimum version %s", version, minVersion)
	}
	return nil
}

// Library used to build primitives.
func (c *Compiler) Library() primitive.Library {
	return c.lib
}

// Compile a function of a graph into a program.
// The functions called by fn are compiled into the callees of the program.
func (c *Compiler) Compile(g *ir.Graph, fn *ir.Function) (*program.Program, error) {
	if fn.Graph() != g {
		return nil, errs.Internalf("function %s does not belong to the graph", fn.Name)
	}
	if c.validate {
		if err := g.Validate(); err != nil {
			return nil, errors.Wrapf(err, "invalid graph")
		}
	}
	comp := &compilation{
		c:        c,
		g:        g,
		compiled: make(map[*ir.Function]*program.Program),
		active:   make(map[*ir.Function]bool),
	}
	return comp.function(fn)
}

// compilation of a function and of its callees.
type compilation struct {
	c        *Compiler
	g        *ir.Graph
	compiled map[*ir.Function]*program.Program
	active   map[*ir.Function]bool
}

func (comp *compilation) passes() []pass.Pass {
	var passes []pass.Pass
	if len(comp.c.rules) > 0 {
		passes = append(passes, &rewrite.Pass{
			Rules:     comp.c.rules,
			Mode:      comp.c.mode,
			MaxPasses: comp.c.maxPasses,
		})
	}
	return append(passes, &dce.Pass{})
}

func (comp *compilation) function(fn *ir.Function) (*program.Program, error) {
	if prog, ok := comp.compiled[fn]; ok {
		return prog, nil
	}
	if comp.active[fn] {
		return nil, errs.Unsupportedf(ir.FunctionCall.String(), "recursive call to function %s", fn.Name)
	}
	comp.active[fn] = true
	defer delete(comp.active, fn)

	log := comp.c.log.WithField("function", fn.Name)
	pc := pass.NewContext(fn, log)
	if err := pass.Run(pc, comp.passes()...); err != nil {
		return nil, errors.Wrapf(err, "cannot compile function %s", fn.Name)
	}
	a := alloc.New(comp.c.workspaceLimit)
	cache := primitive.NewCache(comp.c.lib)
	em := emitter.New(a, cache, log)
	prog := &program.Program{Function: fn.Name}
	for _, id := range pc.Live {
		node := comp.g.Node(id)
		if err := comp.callees(prog, node); err != nil {
			return nil, err
		}
		block, err := em.Emit(node, comp.g.InputTensors(node), node.Outputs)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot compile node %s of function %s", node.Name, fn.Name)
		}
		prog.Blocks = append(prog.Blocks, block)
	}
	prog.Layout = a.Layout()
	prog.Primitives = cache.Entries()
	log.WithFields(logrus.Fields{
		"blocks":     len(prog.Blocks),
		"primitives": len(prog.Primitives),
		"workspace":  prog.Layout.WorkspaceSize,
		"argspace":   prog.Layout.ArgspaceSize,
	}).Debug("function compiled")
	comp.compiled[fn] = prog
	return prog, nil
}

// callees compiles the function called by a node, if any.
func (comp *compilation) callees(prog *program.Program, node *ir.Node) error {
	if node.Op != ir.FunctionCall {
		return nil
	}
	attrs, ok := node.Attrs.(*ir.FunctionCallAttrs)
	if !ok || attrs.Func == nil {
		return nil
	}
	for _, callee := range prog.Callees {
		if callee.Function == attrs.Func.Name {
			return nil
		}
	}
	callee, err := comp.function(attrs.Func)
	if err != nil {
		return errors.Wrapf(err, "cannot compile node %s", node.Name)
	}
	prog.Callees = append(prog.Callees, callee)
	return nil
}
