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
// Responsibility (COR) pattern's Command interface. This file defines an
// optional final step that mirrors the finished video to a Google Cloud
// Storage (GCS) bucket.
//
// Logic Flow:
// This command runs after composition when an output bucket is configured.
// It streams the finished local video to GCS under its base filename. The
// local output file is the primary artifact and is never removed by this
// command; an upload failure is recorded but does not undo the local result.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/cor"
)

// GCSFileUpload is a command that mirrors the finished output video to a
// Google Cloud Storage bucket.
type GCSFileUpload struct {
	cor.BaseCommand                 // Embeds the BaseCommand for common functionality like naming and metrics.
	client          *storage.Client // The GCS client for interacting with the storage service.
	bucket          string          // The name of the destination GCS bucket.
}

// NewGCSFileUpload is the constructor for creating a new GCSFileUpload command.
//
// Inputs:
//   - name: A string name for this command instance, used for logging and telemetry.
//   - client: An initialized *storage.Client for communicating with GCS.
//   - bucket: The name of the target GCS bucket for the upload.
//
// Outputs:
//   - *GCSFileUpload: A pointer to the newly instantiated command.
func NewGCSFileUpload(name string, client *storage.Client, bucket string) *GCSFileUpload {
	return &GCSFileUpload{BaseCommand: *cor.NewBaseCommand(name), client: client, bucket: bucket}
}

// IsExecutable reports whether the upload can run: it requires a configured
// client and bucket and the finished video path in the context.
func (c *GCSFileUpload) IsExecutable(context cor.Context) bool {
	return c.client != nil && c.bucket != "" && context.Get(c.GetInputParam()) != nil
}

// Execute streams the finished video to the configured bucket.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *GCSFileUpload) Execute(context cor.Context) {
	path := context.Get(c.GetInputParam()).(string)
	name := filepath.Base(path)

	dat, err := os.Open(path)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to open file %s: %w", path, err))
		return
	}
	defer func() { _ = dat.Close() }()

	obj := c.client.Bucket(c.bucket).Object(name)
	writer := obj.NewWriter(context.GetContext())

	// Closing the writer finalizes the upload; an unclosed writer leaves the
	// object missing or incomplete.
	if written, err := io.Copy(writer, dat); err != nil {
		_ = writer.Close()
		slog.Warn("upload to GCS failed or partial",
			slog.Int64("bytes_written", written),
			slog.String("error", err.Error()))
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}
	if err := writer.Close(); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), fmt.Errorf("failed to close GCS writer: %w", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	slog.Info("uploaded output video",
		slog.String("file", name),
		slog.String("destination", fmt.Sprintf("gs://%s/%s", c.bucket, obj.ObjectName())))
	context.Add(cor.CtxOut, path)
}
