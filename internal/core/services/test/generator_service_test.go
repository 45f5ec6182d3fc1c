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

// Package services_test contains the test suite for the services package.
// This file tests the run lifecycle managed by the GeneratorService:
// scratch provisioning, error classification, and guaranteed cleanup.
package services_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-text-to-video/internal/core/commands"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/cor"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/services"
	test "github.com/jaycherian/gcp-go-text-to-video/internal/testutil"
)

// recordingWorkflow captures the chain context it ran with and optionally
// records an error, standing in for the full pipeline.
type recordingWorkflow struct {
	fail       error
	scratchDir string
	request    *model.GenerationRequest
}

func (w *recordingWorkflow) Execute(ctx cor.Context) {
	w.scratchDir = ctx.Get(commands.GetScratchDirParamName()).(string)
	w.request = ctx.Get(commands.GetRequestParamName()).(*model.GenerationRequest)
	if w.fail != nil {
		ctx.AddError("recording-workflow", w.fail)
	}
}

func newService(t *testing.T, wf *recordingWorkflow) *services.GeneratorService {
	t.Helper()
	cfg := *test.GetConfig()
	cfg.Storage.ScratchRoot = t.TempDir()
	return services.NewGeneratorService(&cfg, wf)
}

func request(t *testing.T) *model.GenerationRequest {
	t.Helper()
	return &model.GenerationRequest{
		Text:                "northern lights over a frozen lake",
		OutputPath:          filepath.Join(t.TempDir(), "final.mp4"),
		MaxClips:            3,
		ClipDurationSeconds: 5,
	}
}

// TestGenerateProvisionsAndRemovesScratch verifies that each run gets its
// own prefixed scratch directory and that it is gone when Generate returns.
func TestGenerateProvisionsAndRemovesScratch(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wf := &recordingWorkflow{}
	service := newService(t, wf)

	out, err := service.Generate(ctx, request(t))
	test.HandleErr(err, t)
	assert.Equal(t, wf.request.OutputPath, out)

	assert.True(t, strings.HasPrefix(filepath.Base(wf.scratchDir), services.ScratchDirPrefix))
	_, statErr := os.Stat(wf.scratchDir)
	assert.True(t, os.IsNotExist(statErr))
}

// TestGenerateRemovesScratchOnFailure verifies cleanup runs for failed runs
// too, and that the pipeline sentinel survives classification.
func TestGenerateRemovesScratchOnFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wf := &recordingWorkflow{fail: commands.ErrEmptyDownloadSet}
	service := newService(t, wf)

	_, err := service.Generate(ctx, request(t))
	assert.True(t, errors.Is(err, commands.ErrEmptyDownloadSet))

	_, statErr := os.Stat(wf.scratchDir)
	assert.True(t, os.IsNotExist(statErr))
}

// TestGenerateWrapsUnknownErrors verifies a non-sentinel failure keeps the
// originating command name in the returned error.
func TestGenerateWrapsUnknownErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wf := &recordingWorkflow{fail: errors.New("disk full")}
	service := newService(t, wf)

	_, err := service.Generate(ctx, request(t))
	assert.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "recording-workflow"))
	assert.True(t, strings.Contains(err.Error(), "disk full"))
}

// TestGenerateRejectsInvalidRequest verifies validation happens before any
// scratch directory is provisioned.
func TestGenerateRejectsInvalidRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wf := &recordingWorkflow{}
	service := newService(t, wf)

	_, err := service.Generate(ctx, &model.GenerationRequest{})
	assert.Error(t, err)
	assert.Nil(t, wf.request)

	entries, readErr := os.ReadDir(service.Config.Storage.ScratchRoot)
	test.HandleErr(readErr, t)
	assert.Equal(t, 0, len(entries))
}
