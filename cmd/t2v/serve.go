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
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-text-to-video/internal/api"
	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
	"github.com/jaycherian/gcp-go-text-to-video/internal/telemetry"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long: `Start an HTTP server that exposes the generation pipeline over a
REST API. Generation requests run synchronously; a request returns when the
finished video has been written to the configured output directory.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	config := GetConfig()

	geminiKey, err := cloud.ResolveCredential("", cloud.EnvGeminiAPIKey)
	if err != nil {
		return err
	}
	pexelsKey, err := cloud.ResolveCredential("", cloud.EnvPexelsAPIKey)
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
	slog.Info("Tracing initialized")

	if err := InitState(ctx, geminiKey, pexelsKey); err != nil {
		return err
	}
	defer state.cloud.Close()
	slog.Info("Initialized State")

	r := gin.Default()

	// Trace every incoming request and allow cross-origin callers; the
	// permissive CORS default suits local development.
	r.Use(otelgin.Middleware(config.Application.Name))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		api.VideoRouter(apiV1, config, state.generator)
	}

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", servePort),
		Handler:     r,
		ReadTimeout: 20 * time.Second,
		// Generation runs inside the request, so the write timeout has to
		// cover a full pipeline run, not a typical API response.
		WriteTimeout: 10 * time.Minute,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", servePort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}
	slog.Info("Server exiting")
	return nil
}
