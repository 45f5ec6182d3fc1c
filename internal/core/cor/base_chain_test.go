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

package cor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// appendCommand appends its tag to a shared slice and pipes a value to the
// next command through CtxOut.
type appendCommand struct {
	BaseCommand
	order *[]string
	fail  error
}

func newAppendCommand(name string, order *[]string, fail error) *appendCommand {
	return &appendCommand{BaseCommand: *NewBaseCommand(name), order: order, fail: fail}
}

// IsExecutable always runs: these commands need no chain input.
func (c *appendCommand) IsExecutable(ctx Context) bool {
	return ctx.GetContext() != nil
}

func (c *appendCommand) Execute(ctx Context) {
	*c.order = append(*c.order, c.GetName())
	if c.fail != nil {
		ctx.AddError(c.GetName(), c.fail)
		return
	}
	ctx.Add(CtxOut, "from-"+c.GetName())
}

func newChainContext() Context {
	ctx := NewBaseContext()
	ctx.SetContext(context.Background())
	return ctx
}

// TestChainPipesOutputToInput verifies the CtxOut of one command becomes the
// CtxIn of the next.
func TestChainPipesOutputToInput(t *testing.T) {
	var order []string
	chain := NewBaseChain("test-chain")
	chain.AddCommand(newAppendCommand("first", &order, nil))
	chain.AddCommand(newAppendCommand("second", &order, nil))

	ctx := newChainContext()
	chain.Execute(ctx)

	assert.Equal(t, []string{"first", "second"}, order)
	// After the last command, its output sits in CtxIn for any successor.
	assert.Equal(t, "from-second", ctx.Get(CtxIn))
	assert.Nil(t, ctx.Get(CtxOut))
}

// TestChainShortCircuitsOnError verifies the first recorded error stops the
// chain by default.
func TestChainShortCircuitsOnError(t *testing.T) {
	var order []string
	chain := NewBaseChain("test-chain")
	chain.AddCommand(newAppendCommand("first", &order, errors.New("boom")))
	chain.AddCommand(newAppendCommand("second", &order, nil))

	ctx := newChainContext()
	chain.Execute(ctx)

	assert.Equal(t, []string{"first"}, order)
	assert.True(t, ctx.HasErrors())
}

// TestChainContinueOnFailure verifies the opt-in override keeps later
// commands running after a failure.
func TestChainContinueOnFailure(t *testing.T) {
	var order []string
	chain := NewBaseChain("test-chain")
	chain.ContinueOnFailure(true)
	chain.AddCommand(newAppendCommand("first", &order, errors.New("boom")))
	chain.AddCommand(newAppendCommand("second", &order, nil))

	ctx := newChainContext()
	chain.Execute(ctx)

	assert.Equal(t, []string{"first", "second"}, order)
}

// TestContextCloseRemovesTempArtifacts verifies Close removes tracked files
// and directories, and tolerates entries that are already gone.
func TestContextCloseRemovesTempArtifacts(t *testing.T) {
	ctx := newChainContext()

	dir := t.TempDir()
	scratch := filepath.Join(dir, "scratch")
	require.NoError(t, os.Mkdir(scratch, 0o755))
	file := filepath.Join(scratch, "clip.mp4")
	require.NoError(t, os.WriteFile(file, []byte("data"), 0o644))

	ctx.AddTempFile(file)
	ctx.AddTempFile(filepath.Join(dir, "never-created.mp4"))
	ctx.AddTempDir(scratch)

	ctx.Close()

	_, err := os.Stat(file)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(scratch)
	assert.True(t, os.IsNotExist(err))
}
