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

// Package services contains the business logic that sits between the outer
// surfaces (CLI, HTTP API) and the generation pipeline. This file defines
// the GeneratorService, which owns the lifecycle of a single generation run:
// request validation, scratch directory provisioning, chain execution, error
// classification, and guaranteed cleanup.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/commands"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/cor"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
)

// ScratchDirPrefix names the per-run scratch directories so stray ones are
// recognizable under the scratch root.
const ScratchDirPrefix = "t2v-"

// Executable is the slice of the workflow contract the service needs. Both
// the production workflow and test fakes satisfy it.
type Executable interface {
	Execute(context cor.Context)
}

// GeneratorService runs complete text-to-video generation requests. It is
// safe to reuse across runs; each run gets its own chain context and scratch
// directory.
type GeneratorService struct {
	Config   *cloud.Config
	Workflow Executable
}

// NewGeneratorService is the constructor for the GeneratorService.
//
// Inputs:
//   - config: The application's overall configuration.
//   - workflow: The generation pipeline to execute per request.
//
// Outputs:
//   - *GeneratorService: A pointer to the newly instantiated service.
func NewGeneratorService(config *cloud.Config, workflow Executable) *GeneratorService {
	return &GeneratorService{Config: config, Workflow: workflow}
}

// createScratchDir provisions a unique scratch directory for one run under
// the configured scratch root (or the OS temp dir when unset).
func (s *GeneratorService) createScratchDir() (string, error) {
	root := s.Config.Storage.ScratchRoot
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch root: %w", err)
	}
	dir := filepath.Join(root, ScratchDirPrefix+uuid.NewString())
	if err := os.Mkdir(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return dir, nil
}

// Generate runs the full pipeline for one request and returns the path of
// the finished video.
//
// The scratch directory and every intermediate file are removed when the run
// finishes, whether it succeeded or failed. The returned error preserves the
// pipeline's failure sentinels, so callers can classify outcomes with
// errors.Is (for example commands.ErrEmptyCandidateSet when no stock footage
// matched any keyword).
//
// Inputs:
//   - ctx: The context for the run, used for cancellation and tracing.
//   - request: The generation request to execute.
//
// Outputs:
//   - string: The path of the finished video file.
//   - error: The classified run failure, or nil.
func (s *GeneratorService) Generate(ctx context.Context, request *model.GenerationRequest) (string, error) {
	if err := request.Validate(); err != nil {
		return "", fmt.Errorf("invalid generation request: %w", err)
	}

	scratchDir, err := s.createScratchDir()
	if err != nil {
		return "", err
	}

	slog.Info("starting video generation",
		slog.String("scratch_dir", scratchDir),
		slog.String("output", request.OutputPath),
		slog.Int("max_clips", request.MaxClips),
		slog.Int("clip_duration_seconds", request.ClipDurationSeconds))

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.AddTempDir(scratchDir)
	defer chainCtx.Close()

	chainCtx.Add(commands.GetRequestParamName(), request)
	chainCtx.Add(commands.GetScratchDirParamName(), scratchDir)
	// Seed the chain input so the first command's precondition holds.
	chainCtx.Add(cor.CtxIn, request)

	s.Workflow.Execute(chainCtx)

	if chainCtx.HasErrors() {
		return "", classifyRunErrors(chainCtx.GetErrors())
	}

	slog.Info("video generation complete", slog.String("output", request.OutputPath))
	return request.OutputPath, nil
}

// classifyRunErrors folds the chain's per-command errors into one error for
// the caller. Pipeline sentinels are surfaced unwrapped so errors.Is keeps
// working; anything else is joined with its command name attached.
func classifyRunErrors(errs map[string]error) error {
	sentinels := []error{
		commands.ErrEmptyCandidateSet,
		commands.ErrEmptyDownloadSet,
		commands.ErrNoUsableClips,
	}
	joined := make([]error, 0, len(errs))
	for name, err := range errs {
		for _, sentinel := range sentinels {
			if errors.Is(err, sentinel) {
				return err
			}
		}
		joined = append(joined, fmt.Errorf("%s: %w", name, err))
	}
	return errors.Join(joined...)
}
