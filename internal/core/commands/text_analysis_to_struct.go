// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface. This file defines a
// command that acts as a data transformation step in the workflow.
//
// Logic Flow:
// This command follows the `TextAnalysisCreator` in the chain. It takes the
// raw JSON string output from the generative model and transforms it into a
// strongly-typed Go struct (`model.TextAnalysis`).
//
// Unlike a typical parsing step, this command cannot fail the run. Any
// problem with the model output (an empty payload, malformed JSON, or a
// document with no keywords) is resolved by substituting the deterministic
// fallback analysis built directly from the input text. The pipeline is
// therefore guaranteed to leave this stage with a usable keyword list.
//
//  1. It receives the raw JSON string from the context (output of the
//     previous command).
//  2. It parses the string into a `model.TextAnalysis` struct.
//  3. If parsing fails in any way, or the parsed document carries no
//     keywords, it replaces the result with `model.FallbackAnalysis` over
//     the original request text and logs the substitution.
//  4. It places the final struct into the context under both its named
//     output parameter and the general chain output slot.
package commands

import (
	"encoding/json"
	"log/slog"

	"github.com/jaycherian/gcp-go-text-to-video/internal/core/cor"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
)

// TextAnalysisToStruct is a command that parses the analysis JSON string into
// a TextAnalysis struct, falling back to a deterministic analysis when the
// model output is unusable.
type TextAnalysisToStruct struct {
	cor.BaseCommand // Embeds the BaseCommand for common functionality.
}

// NewTextAnalysisToStruct is the constructor for the TextAnalysisToStruct command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - outputParamName: The context key where the resulting struct will be stored.
//
// Outputs:
//   - *TextAnalysisToStruct: A pointer to the newly instantiated command.
func NewTextAnalysisToStruct(name string, outputParamName string) *TextAnalysisToStruct {
	out := TextAnalysisToStruct{BaseCommand: *cor.NewBaseCommand(name)}
	out.OutputParamName = outputParamName
	return &out
}

// Execute contains the core logic for parsing the JSON with fallback.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (s *TextAnalysisToStruct) Execute(context cor.Context) {
	in := context.Get(s.GetInputParam()).(string)
	request := context.Get(GetRequestParamName()).(*model.GenerationRequest)

	doc := &model.TextAnalysis{}
	err := json.Unmarshal([]byte(in), &doc)
	if err != nil || len(doc.Keywords) == 0 {
		// The model output is unusable. Substitute the deterministic
		// analysis derived from the input text so the pipeline can proceed.
		if err != nil {
			slog.Warn("text analysis output unparseable, using fallback",
				slog.String("command", s.GetName()),
				slog.String("error", err.Error()))
		} else {
			slog.Warn("text analysis carried no keywords, using fallback",
				slog.String("command", s.GetName()))
		}
		doc = model.FallbackAnalysis(request.Text)
	}

	s.GetSuccessCounter().Add(context.GetContext(), 1)

	slog.Info("text analysis complete",
		slog.String("main_theme", doc.MainTheme),
		slog.Int("keyword_count", len(doc.Keywords)),
		slog.String("mood", doc.Mood))

	context.Add(s.GetOutputParam(), doc)
	context.Add(cor.CtxOut, doc)
}
