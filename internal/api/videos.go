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

// Package api contains the HTTP route definitions for the server. This file
// defines the video generation endpoints.
//
// The generation endpoint runs the full pipeline synchronously: stock
// footage download and FFmpeg encoding dominate the request time, so
// callers should expect responses in the tens of seconds and set their
// client timeouts accordingly.
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/commands"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/services"
)

// GenerateVideoRequest is the JSON body accepted by POST /videos. Only the
// text is required; the remaining fields fall back to configured defaults.
type GenerateVideoRequest struct {
	Text                string `json:"text" binding:"required"`
	OutputName          string `json:"output_name"`
	MaxClips            int    `json:"max_clips"`
	ClipDurationSeconds int    `json:"clip_duration_seconds"`
}

// GenerateVideoResponse is the JSON body returned on success.
type GenerateVideoResponse struct {
	OutputPath string `json:"output_path"`
}

// VideoRouter sets up the API routes for video generation.
//
// Inputs:
//   - r: A *gin.RouterGroup to which the video routes will be added, allowing
//     nesting under a common prefix (e.g., "/api/v1").
//   - config: The application configuration, used for request defaults.
//   - generator: The service that runs generation requests.
//
// This function defines the following endpoints:
//   - POST /videos: Runs the full generation pipeline for the posted text
//     and returns the path of the finished video.
//   - GET /healthz: Liveness probe.
func VideoRouter(r *gin.RouterGroup, config *cloud.Config, generator *services.GeneratorService) {
	videos := r.Group("/videos")
	{
		// Handler for POST /videos
		videos.POST("", func(c *gin.Context) {
			var body GenerateVideoRequest
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			outputName := body.OutputName
			if outputName == "" {
				outputName = config.Storage.DefaultOutputName
			}
			// The output name is a bare filename under the configured output
			// directory; path separators would let callers write anywhere.
			if filepath.Base(outputName) != outputName {
				c.JSON(http.StatusBadRequest, gin.H{"error": "output_name must be a bare file name"})
				return
			}

			request := &model.GenerationRequest{
				Text:                body.Text,
				OutputPath:          filepath.Join(config.Storage.OutputDir, outputName),
				MaxClips:            body.MaxClips,
				ClipDurationSeconds: body.ClipDurationSeconds,
			}
			if request.MaxClips == 0 {
				request.MaxClips = config.Defaults.MaxClips
			}
			if request.ClipDurationSeconds == 0 {
				request.ClipDurationSeconds = config.Defaults.ClipDurationSeconds
			}

			outputPath, err := generator.Generate(c.Request.Context(), request)
			if err != nil {
				slog.Error("video generation failed", "error", err)
				// A run that found nothing to work with is the caller's
				// problem (unfindable keywords), not a server fault.
				if errors.Is(err, commands.ErrEmptyCandidateSet) ||
					errors.Is(err, commands.ErrEmptyDownloadSet) ||
					errors.Is(err, commands.ErrNoUsableClips) {
					c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}

			c.JSON(http.StatusOK, GenerateVideoResponse{OutputPath: outputPath})
		})
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
