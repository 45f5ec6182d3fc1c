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
// media engine abstraction over the FFmpeg and FFprobe executables.
//
// The composition command drives the engine through a small interface so
// that workflow tests can substitute a fake and exercise the full pipeline
// without a local FFmpeg install. The production implementation shells out,
// which keeps the dependency surface at two well-known binaries rather than
// a CGo media library.
package commands

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
)

// Engine abstracts the media operations the composition stage needs.
type Engine interface {
	// Probe returns the duration of a media file in seconds.
	Probe(ctx context.Context, path string) (float64, error)
	// NormalizeClip re-encodes a clip onto the common output canvas,
	// optionally trimming it to trimSeconds.
	NormalizeClip(ctx context.Context, inputPath string, outputPath string, trimSeconds int, trim bool) error
	// Assemble concatenates the normalized clips listed in concatListPath
	// and burns in the centered text overlay read from textFilePath.
	Assemble(ctx context.Context, concatListPath string, textFilePath string, outputPath string) error
}

// FFmpegEngine is the production Engine backed by the ffmpeg and ffprobe
// command-line tools.
type FFmpegEngine struct {
	ffmpegPath  string
	ffprobePath string
	video       cloud.Video
	overlay     cloud.Overlay
}

// NewFFmpegEngine is the constructor for the FFmpegEngine.
//
// Inputs:
//   - config: The application configuration, providing the executable paths
//     and the output video and overlay parameters.
//
// Outputs:
//   - *FFmpegEngine: A pointer to the newly instantiated engine.
func NewFFmpegEngine(config *cloud.Config) *FFmpegEngine {
	return &FFmpegEngine{
		ffmpegPath:  config.Application.FFmpegPath,
		ffprobePath: config.Application.FFprobePath,
		video:       config.Video,
		overlay:     config.Overlay,
	}
}

// run executes a single external command, returning a descriptive error that
// includes the tool's stderr on failure.
func run(ctx context.Context, path string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// Probe returns the container duration of a media file in seconds, as
// reported by ffprobe.
func (e *FFmpegEngine) Probe(ctx context.Context, path string) (float64, error) {
	out, err := run(ctx, e.ffprobePath, []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	})
	if err != nil {
		return 0, err
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable duration %q for %s: %w", strings.TrimSpace(out), path, err)
	}
	return duration, nil
}

// NormalizeClip re-encodes one clip onto the shared output canvas so the
// concat demuxer can join the set without stream mismatches. The clip is
// scaled to fit inside the canvas preserving aspect ratio, padded to the
// exact canvas size, and resampled to the output frame rate. Source audio is
// re-encoded with the configured audio codec; the audio map is optional
// because stock footage is not guaranteed to carry a soundtrack. When trim
// is set, the output is cut at trimSeconds.
func (e *FFmpegEngine) NormalizeClip(ctx context.Context, inputPath string, outputPath string, trimSeconds int, trim bool) error {
	_, err := run(ctx, e.ffmpegPath, e.normalizeArgs(inputPath, outputPath, trimSeconds, trim))
	return err
}

func (e *FFmpegEngine) normalizeArgs(inputPath string, outputPath string, trimSeconds int, trim bool) []string {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2,fps=%d",
		e.video.Width, e.video.Height, e.video.Width, e.video.Height, e.video.FrameRate)

	args := []string{"-y", "-hide_banner", "-i", inputPath}
	if trim {
		args = append(args, "-t", strconv.Itoa(trimSeconds))
	}
	return append(args,
		"-vf", filter,
		"-map", "0:v:0",
		"-map", "0:a:0?",
		"-c:v", e.video.Codec,
		"-c:a", e.video.AudioCodec,
		"-pix_fmt", "yuv420p",
		outputPath,
	)
}

// Assemble joins the normalized clips with the concat demuxer and burns the
// text overlay into the center of the frame. The overlay text is read from a
// file rather than passed inline, which sidesteps the drawtext filter's
// escaping rules for quotes, colons, and newlines.
func (e *FFmpegEngine) Assemble(ctx context.Context, concatListPath string, textFilePath string, outputPath string) error {
	drawtext := fmt.Sprintf(
		"drawtext=textfile='%s':fontsize=%d:fontcolor=%s:borderw=%d:bordercolor=%s:x=(w-text_w)/2:y=(h-text_h)/2",
		textFilePath, e.overlay.FontSize, e.overlay.Color, e.overlay.StrokeWidth, e.overlay.StrokeColor)

	args := []string{
		"-y", "-hide_banner",
		"-f", "concat",
		"-safe", "0",
		"-i", concatListPath,
		"-vf", drawtext,
		"-c:v", e.video.Codec,
		"-c:a", e.video.AudioCodec,
		"-r", strconv.Itoa(e.video.FrameRate),
		"-pix_fmt", "yuv420p",
		outputPath,
	}
	_, err := run(ctx, e.ffmpegPath, args)
	return err
}
