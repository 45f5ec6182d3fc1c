// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor (Chain of Responsibility) provides the building blocks for the
// video generation pipeline. A pipeline run is a sequence of commands
// (analyze text, search footage, download clips, compose video) that share a
// single Context. The interfaces in this file keep the framework independent
// of any concrete stage, so commands can be tested in isolation and chains
// can be assembled per workflow.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe the primary data flow through a
// BaseChain: the value a command writes under CtxOut becomes the next
// command's CtxIn.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state for a single pipeline run. It carries data
// between commands, collects errors keyed by the command that produced them,
// and tracks every temporary file and directory created along the way so
// that Close can release them unconditionally at the end of the run.
type Context interface {
	// SetContext sets the standard Go context used for cancellation and
	// trace propagation.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.
	GetContext() context.Context

	// Add stores a key-value pair. Returns the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error under the name of the command that hit it.
	AddError(key string, err error)

	// GetErrors returns all errors collected during the run.
	GetErrors() map[string]error

	// Get retrieves a value by key, or nil.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// HasErrors reports whether any command has recorded an error.
	HasErrors() bool

	// AddTempFile tracks a temporary file for removal on Close.
	AddTempFile(file string)

	// GetTempFiles returns all tracked temporary file paths.
	GetTempFiles() []string

	// AddTempDir tracks a temporary directory (such as the run's scratch
	// directory) for recursive removal on Close.
	AddTempDir(dir string)

	// GetTempDirs returns all tracked temporary directory paths.
	GetTempDirs() []string

	// Close removes all tracked temporary files and directories. It must be
	// called at the end of every run, on the success and failure paths
	// alike; removal failures are logged, never escalated.
	Close()
}

// Executable is any object with a core execution step.
type Executable interface {
	// Execute runs the object's logic, reading inputs from and writing
	// outputs to the shared Context.
	Execute(context Context)
}

// Command is an atomic unit of pipeline work.
type Command interface {
	Executable

	// GetName returns the command's name, used for error keys, logging,
	// and telemetry.
	GetName() string

	// GetInputParam returns the context key the command reads its primary
	// input from.
	GetInputParam() string

	// GetOutputParam returns the context key the command writes its primary
	// output to.
	GetOutputParam() string

	// IsExecutable reports whether the command's preconditions hold for the
	// current context state.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for this command.
	GetMeter() metric.Meter

	// GetSuccessCounter returns the counter incremented on success.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns the counter incremented on failure.
	GetErrorCounter() metric.Int64Counter
}

// Chain is an ordered sequence of commands. A Chain is itself a Command, so
// chains can be nested inside other chains.
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after
	// a command records an error. The default is to stop.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
