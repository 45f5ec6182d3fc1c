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

// Package cloud defines the application configuration and external service
// clients. This file initializes and holds all the clients the pipeline
// needs: the generative model (wrapped with the quota-aware decorator) and,
// when an output bucket is configured, a Google Cloud Storage client. The
// resulting ServiceClients struct is a simple dependency container passed
// to the workflow builder.
package cloud

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
	"go.opentelemetry.io/otel"
	"google.golang.org/api/option"
	"google.golang.org/genai"
)

// ServiceClients is the container for all external service connections used
// by a generator instance.
type ServiceClients struct {
	GenAIClient   *genai.Client                           // Client for the Gemini API.
	StorageClient *storage.Client                         // GCS client; nil unless an output bucket is configured.
	AgentModels   map[string]*QuotaAwareGenerativeAIModel // Configured models, keyed by logical name from the config.
}

// Close releases all client connections. Safe to call with a nil storage
// client.
func (c *ServiceClients) Close() {
	if c.StorageClient != nil {
		_ = c.StorageClient.Close()
	}
}

// NewServiceClients creates the genai client from the given API key, builds
// the quota-aware model wrappers declared in the configuration, and, when
// the configuration names an output bucket, a GCS client using application
// default credentials.
func NewServiceClients(ctx context.Context, config *Config, geminiAPIKey string) (*ServiceClients, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  geminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	meter := otel.Meter("github.com/jaycherian/gcp-go-text-to-video")

	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		generationConfig := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](values.Temperature),
			TopP:              genai.Ptr[float32](values.TopP),
			TopK:              genai.Ptr[float32](values.TopK),
			MaxOutputTokens:   values.MaxTokens,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
			SafetySettings:    DefaultSafetySettings,
			ResponseMIMEType:  values.OutputFormat,
		}
		agentModels[amKey] = NewQuotaAwareModel(generationConfig, values.Model, gc.Models, values.RateLimit, meter)
	}

	out := &ServiceClients{
		GenAIClient: gc,
		AgentModels: agentModels,
	}

	// The storage client is only needed for the optional output upload
	// step, so it is created lazily on configuration rather than always.
	if config.Storage.OutputBucket != "" {
		var opts []option.ClientOption
		if config.Storage.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(config.Storage.CredentialsFile))
		}
		sc, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		out.StorageClient = sc
	}

	return out, nil
}
