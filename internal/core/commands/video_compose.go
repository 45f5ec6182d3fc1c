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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines the
// final composition stage of the generation pipeline.
//
// Logic Flow:
// This command takes the downloaded clips and produces the single finished
// video with the input text burned in as a centered overlay.
//
//  1. Each downloaded clip is verified to exist and be non-empty, probed for
//     its native duration, and re-encoded onto the common output canvas. A
//     clip longer than the requested clip duration is trimmed to it; shorter
//     clips keep their native length.
//  2. Only a clip whose file is missing or empty on disk is dropped; losing
//     every clip this way is fatal. A clip that exists but fails to probe or
//     re-encode fails the stage outright, since a media-engine error on real
//     input signals a problem the run cannot recover from.
//  3. The surviving normalized clips are listed in a concat manifest, in
//     download order.
//  4. The overlay text is wrapped to fit within the configured fraction of
//     the frame width and written to a text file for the drawtext filter.
//  5. FFmpeg joins the clips and burns in the overlay, writing to a staging
//     file inside the scratch directory. Only on success is the staging file
//     moved to the caller's output path, so a failed run never leaves a
//     partial output behind.
//
// All intermediate files are registered with the context's temp-file tracker
// and removed when the run closes, whatever its outcome.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/cor"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
)

// VideoCompose is a command that normalizes, concatenates, and overlays the
// downloaded clips into the final output video.
type VideoCompose struct {
	cor.BaseCommand
	engine  Engine
	overlay cloud.Overlay
	width   int
}

// NewVideoCompose is the constructor for the VideoCompose command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - engine: The media engine used to probe, re-encode, and assemble clips.
//   - config: The application configuration, providing overlay parameters
//     and the output canvas width used for text wrapping.
//
// Outputs:
//   - *VideoCompose: A pointer to the newly instantiated command.
func NewVideoCompose(name string, engine Engine, config *cloud.Config) *VideoCompose {
	return &VideoCompose{
		BaseCommand: *cor.NewBaseCommand(name),
		engine:      engine,
		overlay:     config.Overlay,
		width:       config.Video.Width,
	}
}

// WrapOverlayText breaks the overlay text into lines that fit within the
// given fraction of the frame width. The drawtext filter does not wrap on
// its own, so line lengths are estimated from an average glyph width of 0.6
// times the font size, which holds well for the proportional fonts
// fontconfig resolves by default. Words longer than a whole line are placed
// on their own line rather than split.
func WrapOverlayText(text string, fontSize int, widthRatio float64, frameWidth int) string {
	maxLineWidth := widthRatio * float64(frameWidth)
	glyphWidth := 0.6 * float64(fontSize)
	maxChars := int(maxLineWidth / glyphWidth)
	if maxChars < 1 {
		maxChars = 1
	}

	var lines []string
	var current string
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if len(candidate) > maxChars && current != "" {
			lines = append(lines, current)
			current = word
			continue
		}
		current = candidate
	}
	if current != "" {
		lines = append(lines, current)
	}
	return strings.Join(lines, "\n")
}

// Execute contains the core logic for producing the final video.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (v *VideoCompose) Execute(context cor.Context) {
	clips := context.Get(v.GetInputParam()).([]*model.ClipFile)
	request := context.Get(GetRequestParamName()).(*model.GenerationRequest)
	scratchDir := context.Get(GetScratchDirParamName()).(string)

	normalized := make([]string, 0, len(clips))
	for i, clip := range clips {
		info, err := os.Stat(clip.LocalPath)
		if err != nil || info.Size() == 0 {
			slog.Warn("clip missing or empty, skipping",
				slog.String("command", v.GetName()),
				slog.String("path", clip.LocalPath))
			continue
		}

		duration, err := v.engine.Probe(context.GetContext(), clip.LocalPath)
		if err != nil {
			v.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(v.GetName(), fmt.Errorf("failed to probe clip %s: %w", clip.LocalPath, err))
			return
		}

		trim := duration > float64(request.ClipDurationSeconds)
		target := filepath.Join(scratchDir, fmt.Sprintf("norm_%d.mp4", i))
		if err := v.engine.NormalizeClip(context.GetContext(), clip.LocalPath, target, request.ClipDurationSeconds, trim); err != nil {
			v.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(v.GetName(), fmt.Errorf("failed to normalize clip %s: %w", clip.LocalPath, err))
			return
		}
		context.AddTempFile(target)
		normalized = append(normalized, target)
	}

	if len(normalized) == 0 {
		v.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(v.GetName(), ErrNoUsableClips)
		return
	}

	// Build the concat manifest. Paths are single-quoted per the demuxer's
	// file directive syntax.
	var manifest strings.Builder
	for _, path := range normalized {
		manifest.WriteString(fmt.Sprintf("file '%s'\n", path))
	}
	concatListPath := filepath.Join(scratchDir, "concat_list.txt")
	if err := os.WriteFile(concatListPath, []byte(manifest.String()), 0o644); err != nil {
		v.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(v.GetName(), fmt.Errorf("failed to write concat manifest: %w", err))
		return
	}
	context.AddTempFile(concatListPath)

	wrapped := WrapOverlayText(request.Text, v.overlay.FontSize, v.overlay.WidthRatio, v.width)
	textFilePath := filepath.Join(scratchDir, "overlay_text.txt")
	if err := os.WriteFile(textFilePath, []byte(wrapped), 0o644); err != nil {
		v.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(v.GetName(), fmt.Errorf("failed to write overlay text file: %w", err))
		return
	}
	context.AddTempFile(textFilePath)

	if err := os.MkdirAll(filepath.Dir(request.OutputPath), 0o755); err != nil {
		v.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(v.GetName(), fmt.Errorf("failed to create output directory: %w", err))
		return
	}

	// Assemble into a staging file first so a failed encode never clobbers
	// or half-writes the caller's output path.
	stagingPath := filepath.Join(scratchDir, "assembled.mp4")
	if err := v.engine.Assemble(context.GetContext(), concatListPath, textFilePath, stagingPath); err != nil {
		v.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(v.GetName(), fmt.Errorf("video assembly failed: %w", err))
		return
	}

	if err := MoveFile(stagingPath, request.OutputPath); err != nil {
		v.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(v.GetName(), fmt.Errorf("failed to finalize output: %w", err))
		return
	}

	v.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("video composition complete",
		slog.Int("clip_count", len(normalized)),
		slog.String("output", request.OutputPath))
	context.Add(v.GetOutputParam(), request.OutputPath)
	context.Add(cor.CtxOut, request.OutputPath)
}

// MoveFile copies a file to destPath and removes the source. A plain rename
// is not used because the scratch directory and the output path may sit on
// different filesystems.
func MoveFile(sourcePath, destPath string) error {
	in, err := os.Open(sourcePath)
	if err != nil {
		return fmt.Errorf("could not open source file: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("could not open dest file: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err = out.ReadFrom(in); err != nil {
		return fmt.Errorf("could not copy to dest from source: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("could not flush dest file: %w", err)
	}
	if err := os.Remove(sourcePath); err != nil {
		return fmt.Errorf("could not remove source file: %w", err)
	}
	return nil
}
