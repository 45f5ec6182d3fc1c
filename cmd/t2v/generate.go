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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
	"github.com/jaycherian/gcp-go-text-to-video/internal/telemetry"
)

var (
	generateOutput       string
	generateGeminiKey    string
	generatePexelsKey    string
	generateMaxClips     int
	generateClipDuration int
)

var generateCmd = &cobra.Command{
	Use:   "generate \"<text>\"",
	Short: "Generate a video from a piece of text",
	Long: `Generate runs the full pipeline once: the text is analyzed with a
generative model, stock footage matching the extracted keywords is searched
and downloaded, and the clips are composed into a single video with the text
overlaid in the center of the frame.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Output video path (default: <output_dir>/<default name> from config)")
	generateCmd.Flags().StringVar(&generateGeminiKey, "gemini-key", "", "Gemini API key (default: GEMINI_API_KEY env var)")
	generateCmd.Flags().StringVar(&generatePexelsKey, "pexels-key", "", "Pexels API key (default: PEXELS_API_KEY env var)")
	generateCmd.Flags().IntVar(&generateMaxClips, "max-clips", 0, "Maximum number of clips to download (default from config)")
	generateCmd.Flags().IntVar(&generateClipDuration, "clip-duration", 0, "Per-clip duration cap in seconds (default from config)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	telemetry.SetupLogging()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	config := GetConfig()

	// Resolve both credentials before any work starts so a missing key fails
	// fast instead of mid-pipeline.
	geminiKey, err := cloud.ResolveCredential(generateGeminiKey, cloud.EnvGeminiAPIKey)
	if err != nil {
		return err
	}
	pexelsKey, err := cloud.ResolveCredential(generatePexelsKey, cloud.EnvPexelsAPIKey)
	if err != nil {
		return err
	}

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			slog.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	if err := InitState(ctx, geminiKey, pexelsKey); err != nil {
		return err
	}
	defer state.cloud.Close()

	outputPath := generateOutput
	if outputPath == "" {
		outputPath = filepath.Join(config.Storage.OutputDir, config.Storage.DefaultOutputName)
	}
	request := &model.GenerationRequest{
		Text:                args[0],
		OutputPath:          outputPath,
		MaxClips:            generateMaxClips,
		ClipDurationSeconds: generateClipDuration,
	}
	if request.MaxClips == 0 {
		request.MaxClips = config.Defaults.MaxClips
	}
	if request.ClipDurationSeconds == 0 {
		request.ClipDurationSeconds = config.Defaults.ClipDurationSeconds
	}

	finalPath, err := state.generator.Generate(ctx, request)
	if err != nil {
		return fmt.Errorf("video generation failed: %w", err)
	}

	fmt.Printf("Video created: %s\n", finalPath)
	return nil
}
