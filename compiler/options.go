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

package compiler

import (
	"github.com/sirupsen/logrus"
	"github.com/gx-org/kernelgen/pass/rewrite"
)

// Option configures a compiler.
type Option interface {
	compilerOption()
}

type (
	rulesOption struct {
		rules []rewrite.Rule
	}

	rewriteModeOption struct {
		mode rewrite.Mode
	}

	maxPassesOption struct {
		n int
	}

	validationOption struct {
		enabled bool
	}

	loggerOption struct {
		log logrus.FieldLogger
	}

	workspaceLimitOption struct {
		bytes int
	}

	minLibraryVersionOption struct {
		version string
	}
)

func (rulesOption) compilerOption()             {}
func (rewriteModeOption) compilerOption()       {}
func (maxPassesOption) compilerOption()         {}
func (validationOption) compilerOption()        {}
func (loggerOption) compilerOption()            {}
func (workspaceLimitOption) compilerOption()    {}
func (minLibraryVersionOption) compilerOption() {}

// WithRules replaces the default rewrite rules.
// No rule disables rewriting.
func WithRules(rules ...rewrite.Rule) Option {
	return rulesOption{rules: rules}
}

// WithRewriteMode sets whether rules are applied once or until no rule matches.
func WithRewriteMode(mode rewrite.Mode) Option {
	return rewriteModeOption{mode: mode}
}

// WithMaxPasses sets the maximum number of traversals of the graph in fixpoint mode.
func WithMaxPasses(n int) Option {
	return maxPassesOption{n: n}
}

// WithValidation enables or disables the validation of the graph before compiling.
func WithValidation(enabled bool) Option {
	return validationOption{enabled: enabled}
}

// WithLogger sets the logger of the compiler.
func WithLogger(log logrus.FieldLogger) Option {
	return loggerOption{log: log}
}

// WithWorkspaceLimit sets the maximum number of workspace bytes of a compiled function.
func WithWorkspaceLimit(bytes int) Option {
	return workspaceLimitOption{bytes: bytes}
}

// WithMinLibraryVersion rejects vendor libraries older than a semantic version, e.g. v1.2.0.
func WithMinLibraryVersion(version string) Option {
	return minLibraryVersionOption{version: version}
}
