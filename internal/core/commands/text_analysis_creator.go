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
// command responsible for the generative text analysis stage.
//
// Logic Flow:
// This is the first stage of the generation pipeline. It takes the raw input
// text provided by the user and asks a generative model (like Gemini) to
// break it down into the structured fields the rest of the pipeline works
// from: a main theme, a list of search keywords, a mood, and a scene
// breakdown.
//
//  1. It retrieves the validated GenerationRequest from the context.
//  2. It builds the prompt from a Go template, injecting the input text and
//     a complete example of the desired JSON output (few-shot prompting) to
//     guide the model's response.
//  3. It sends the prompt to the model through the rate-limited TextGenerator.
//     The request is made exactly once: there is no retry on failure, because
//     the next command in the chain can always recover with a deterministic
//     fallback analysis.
//  4. On success it places the raw JSON string into the context for the next
//     command (`TextAnalysisToStruct`) to parse. On failure it logs a warning
//     and places an empty string instead, which the parser treats as a signal
//     to fall back. A model outage therefore never fails the run.
package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"text/template"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/cor"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
)

// TextAnalysisCreator is a command that uses a generative model to turn the
// raw input text into a structured analysis JSON document.
type TextAnalysisCreator struct {
	cor.BaseCommand
	generator cloud.TextGenerator // The rate-limited generative model client.
	template  *template.Template  // The Go template for building the prompt.
}

// NewTextAnalysisCreator is the constructor for the TextAnalysisCreator command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - generator: The rate-limited wrapper for the generative model client.
//   - template: A parsed Go template for the analysis prompt.
//
// Outputs:
//   - *TextAnalysisCreator: A pointer to the newly instantiated command.
func NewTextAnalysisCreator(
	name string,
	generator cloud.TextGenerator,
	template *template.Template) *TextAnalysisCreator {
	return &TextAnalysisCreator{
		BaseCommand: *cor.NewBaseCommand(name),
		generator:   generator,
		template:    template,
	}
}

// GenerateParams creates the map of dynamic data to be injected into the
// prompt template.
//
// Inputs:
//   - request: The generation request holding the user's input text.
//
// Outputs:
//   - map[string]interface{}: A map of keys and values for template substitution.
func (t *TextAnalysisCreator) GenerateParams(request *model.GenerationRequest) map[string]interface{} {
	params := make(map[string]interface{})

	// Provide a complete, well-formed JSON example in the prompt. This
	// technique (few-shot prompting) significantly improves the reliability
	// and structure of the model's output.
	exampleAnalysis, _ := json.Marshal(model.GetExampleAnalysis())
	params["EXAMPLE_JSON"] = string(exampleAnalysis)
	params["TEXT"] = request.Text
	return params
}

// Execute contains the core logic for prompting the generative model.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (t *TextAnalysisCreator) Execute(context cor.Context) {
	request := context.Get(GetRequestParamName()).(*model.GenerationRequest)

	// Use a buffer to execute the Go template, substituting the dynamic params.
	var buffer bytes.Buffer
	err := t.template.Execute(&buffer, t.GenerateParams(request))
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(t.GetName(), fmt.Errorf("failed to execute prompt template: %w", err))
		return
	}

	// A single attempt against the model. Any failure here is deliberately
	// non-fatal: the parser command substitutes a deterministic fallback
	// analysis when it receives an empty payload.
	out, err := t.generator.GenerateText(context.GetContext(), buffer.String())
	if err != nil {
		t.GetErrorCounter().Add(context.GetContext(), 1)
		slog.Warn("text analysis request failed, continuing with fallback",
			slog.String("command", t.GetName()),
			slog.String("error", err.Error()))
		context.Add(t.GetOutputParam(), "")
		return
	}

	t.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(t.GetOutputParam(), out)
}
