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

// Package telemetry provides utilities for setting up and configuring
// application observability, including logging, tracing, and metrics. This
// file initializes the OpenTelemetry SDK and exports trace and metric data
// over OTLP gRPC to whatever collector the deployment points at.
package telemetry

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/contrib/propagators/autoprop"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
)

// SetupOpenTelemetry initializes and configures the OpenTelemetry SDK for
// the entire application. It sets up both tracing and metrics, exporting
// them over OTLP gRPC to the endpoint named in the telemetry configuration.
// It returns a `shutdown` function that must be called on application exit
// to flush buffered telemetry before the process terminates.
//
// When telemetry is disabled in configuration, the global no-op providers
// are left in place and the returned shutdown function does nothing; the
// per-command counters and spans throughout the pipeline then cost nothing.
//
// Inputs:
//   - ctx: The parent context, used for initialization of the exporters.
//   - config: The application's configuration struct, providing the service
//     name and the OTLP collector endpoint.
//
// Returns:
//   - shutdown: A function the caller should defer to gracefully shut down
//     all telemetry components (TracerProvider, MeterProvider).
//   - err: An error if any part of the setup fails.
func SetupOpenTelemetry(ctx context.Context, config *cloud.Config) (shutdown func(context.Context) error, err error) {
	var shutdownFuncs []func(context.Context) error

	// The returned shutdown function tears down every component that was
	// successfully started, joining any errors.
	shutdown = func(ctx context.Context) error {
		var err error
		for _, fn := range shutdownFuncs {
			err = errors.Join(err, fn(ctx))
		}
		shutdownFuncs = nil
		return err
	}

	if !config.Telemetry.Enabled {
		return shutdown, nil
	}

	// The resource describes this process to the telemetry backend. The
	// service name is what the collector uses to group spans and metrics.
	res, err := resource.New(ctx,
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(config.Application.Name),
		),
	)
	if errors.Is(err, resource.ErrPartialResource) || errors.Is(err, resource.ErrSchemaURLConflict) {
		slog.Warn("partial resource detection", "error", err)
	} else if err != nil {
		slog.Error("resource.New failed", "error", err)
		return nil, err
	}

	// autoprop configures the standard W3C Trace Context and Baggage
	// propagators, honoring the OTEL_PROPAGATORS environment variable.
	otel.SetTextMapPropagator(autoprop.NewTextMapPropagator())

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(config.Telemetry.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		slog.Error("unable to set up trace exporter", "error", err)
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, tp.Shutdown)
	otel.SetTracerProvider(tp)

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(config.Telemetry.OTLPEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		slog.Error("unable to set up metric exporter", "error", err)
		return nil, err
	}

	mProvider := metric.NewMeterProvider(
		metric.WithReader(metric.NewPeriodicReader(metricExporter)),
		metric.WithResource(res),
	)
	shutdownFuncs = append(shutdownFuncs, mProvider.Shutdown)
	otel.SetMeterProvider(mProvider)

	return shutdown, nil
}
