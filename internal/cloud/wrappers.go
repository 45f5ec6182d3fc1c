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
// clients. This file wraps the generative model client with a rate limiter
// (Decorator pattern), so the pipeline cannot exceed the provider's request
// quota no matter how runs are invoked.
//
// Unlike the limiter, there is no retry layer here: the analysis stage is
// contractually a single attempt, and a failed call falls through to the
// deterministic keyword fallback instead of being retried.
package cloud

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// TextGenerator is the single-method contract the analysis stage depends
// on. Tests substitute a canned implementation; production code uses the
// QuotaAwareGenerativeAIModel below.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// QuotaAwareGenerativeAIModel decorates the genai model handle with a rate
// limiter and response post-processing.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig // Generation settings (temperature, max tokens, system prompt).
	ModelName               string                       // Model identifier passed on every call.
	ModelHandle             *genai.Models                // The underlying genai model handle.
	RateLimit               *rate.Limiter                // Token bucket guarding the provider quota.

	inputTokenCounter  metric.Int64Counter // Prompt tokens consumed across all calls.
	outputTokenCounter metric.Int64Counter // Response tokens generated across all calls.
}

// NewQuotaAwareModel wraps the given model handle and generation config in a
// limiter allowing requestsPerSecond calls per second, and wires the token
// usage counters to the given meter.
func NewQuotaAwareModel(
	config *genai.GenerateContentConfig,
	name string,
	handle *genai.Models,
	requestsPerSecond int,
	meter metric.Meter) *QuotaAwareGenerativeAIModel {
	out := &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
	out.inputTokenCounter, _ = meter.Int64Counter(fmt.Sprintf("%s.token.input", name))
	out.outputTokenCounter, _ = meter.Int64Counter(fmt.Sprintf("%s.token.output", name))
	return out
}

// GenerateText sends a single text prompt to the model and returns the
// concatenated text of the response candidates, with any ```json fencing
// stripped. It blocks until the rate limiter admits the request; the call
// itself is made exactly once.
func (q *QuotaAwareGenerativeAIModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter wait: %w", err)
	}

	resp, err := q.ModelHandle.GenerateContent(ctx, q.ModelName, genai.Text(prompt), q.GenerativeContentConfig)
	if err != nil {
		return "", err
	}

	if resp.UsageMetadata != nil {
		q.inputTokenCounter.Add(ctx, int64(resp.UsageMetadata.PromptTokenCount))
		q.outputTokenCounter.Add(ctx, int64(resp.UsageMetadata.CandidatesTokenCount))
	}

	value := ""
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				value += part.Text
			}
		}
	}
	// Models often wrap JSON answers in a markdown fence even when asked
	// not to.
	value = strings.TrimSpace(value)
	value = strings.TrimPrefix(value, "```json")
	value = strings.TrimSuffix(value, "```")
	return strings.TrimSpace(value), nil
}
