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

// Package workflow_test contains end-to-end tests for the generation
// pipeline. This file provides the foundational setup and teardown logic
// for all tests within this package via the special TestMain function:
// configuration, logging, and telemetry are initialized once and shared by
// every test in the suite. The external dependencies of the pipeline (the
// generative model, the footage provider, and the media engine) are
// substituted with fakes, so the suite runs without network access or a
// local FFmpeg install.
package workflow_test

import (
	"context"
	"os"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
	"github.com/jaycherian/gcp-go-text-to-video/internal/telemetry"
	test "github.com/jaycherian/gcp-go-text-to-video/internal/testutil"
)

// Shared suite state, initialized once in TestMain.
var (
	ctx    context.Context
	config *cloud.Config
)

const tName = "github.com/jaycherian/gcp-go-text-to-video/tests/workflow"

var (
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

// TestMain sets up the shared test state before any test in this package
// runs and tears it down afterwards.
func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	config = test.GetConfig()

	telemetry.SetupLogging()

	shutdown, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		panic(err)
	}

	logger.Info("completed test setup")

	exitCode := m.Run()

	if err := shutdown(ctx); err != nil {
		logger.Error("failed to shutdown telemetry", "error", err)
	}

	os.Exit(exitCode)
}
