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
// video generation pipeline. This file defines BaseContext, the default
// Context implementation.
//
// A pipeline run owns exactly one BaseContext. Commands read their inputs
// from it, write their results back to it, and register every temporary
// artifact they create (downloaded clips, normalized intermediates, the
// scratch directory itself) so Close can release all of them regardless of
// how the run ended.
package cor

import (
	"log/slog"
	"os"

	"context"
)

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data      map[string]interface{} // Arbitrary key-value state shared between commands.
	errors    map[string]error       // Errors keyed by the name of the command that produced them.
	tempFiles []string               // Temporary files to remove on Close.
	tempDirs  []string               // Temporary directories to remove recursively on Close.
	context   context.Context        // Standard Go context for cancellation and trace propagation.
}

// NewBaseContext creates an empty context ready for a single run.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
		tempDirs:  make([]string, 0),
	}
}

// SetContext sets the underlying Go context. The BaseChain uses this to
// scope each command's execution to its own trace span.
func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

// GetContext retrieves the underlying Go context.
func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every tracked temporary file, then every tracked temporary
// directory. Failures are logged and never escalated: cleanup must not turn
// a successful run into a failed one.
func (c *BaseContext) Close() {
	for _, file := range c.GetTempFiles() {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temporary file", "path", file, "error", err)
		}
	}
	for _, dir := range c.GetTempDirs() {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove temporary directory", "path", dir, "error", err)
		}
	}
}

// Add stores a key-value pair and returns the context for chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

// AddTempFile tracks a file path for removal on Close.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

// GetTempFiles returns all tracked temporary file paths.
func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddTempDir tracks a directory path for recursive removal on Close.
func (c *BaseContext) AddTempDir(dir string) {
	c.tempDirs = append(c.tempDirs, dir)
}

// GetTempDirs returns all tracked temporary directory paths.
func (c *BaseContext) GetTempDirs() []string {
	return c.tempDirs
}

// AddError records an error under the given command name.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

// GetErrors returns the map of collected errors.
func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

// Get retrieves a value by key, or nil when absent.
func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

// Remove deletes a key-value pair.
func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// HasErrors reports whether any error has been recorded.
func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}
