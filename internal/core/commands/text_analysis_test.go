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

package commands

import (
	"context"
	"errors"
	"strings"
	"testing"
	"text/template"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-text-to-video/internal/core/cor"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
)

// fakeGenerator is a canned TextGenerator for exercising the analysis
// commands without a live model.
type fakeGenerator struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func newTestContext(request *model.GenerationRequest) cor.Context {
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(GetRequestParamName(), request)
	ctx.Add(cor.CtxIn, request)
	return ctx
}

func testRequest() *model.GenerationRequest {
	return &model.GenerationRequest{
		Text:                "a storm rolling in over the coast",
		OutputPath:          "output/video.mp4",
		MaxClips:            3,
		ClipDurationSeconds: 5,
	}
}

// TestTextAnalysisCreatorBuildsPrompt verifies the prompt contains the input
// text and the few-shot example, and that the model response lands in the
// chain output slot.
func TestTextAnalysisCreatorBuildsPrompt(t *testing.T) {
	tmpl := template.Must(template.New("analysis").Parse("Example: {{.EXAMPLE_JSON}}\nText: {{.TEXT}}"))
	gen := &fakeGenerator{response: `{"main_theme":"storm"}`}
	cmd := NewTextAnalysisCreator("generate-text-analysis", gen, tmpl)

	ctx := newTestContext(testRequest())
	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "a storm rolling in over the coast")
	assert.Contains(t, gen.prompts[0], "main_theme")
	assert.Equal(t, `{"main_theme":"storm"}`, ctx.Get(cor.CtxOut))
}

// TestTextAnalysisCreatorModelFailure verifies a model failure is non-fatal:
// no error is recorded, the model is called exactly once, and an empty
// payload flows to the parser.
func TestTextAnalysisCreatorModelFailure(t *testing.T) {
	tmpl := template.Must(template.New("analysis").Parse("{{.TEXT}}"))
	gen := &fakeGenerator{err: errors.New("model unavailable")}
	cmd := NewTextAnalysisCreator("generate-text-analysis", gen, tmpl)

	ctx := newTestContext(testRequest())
	cmd.Execute(ctx)

	assert.False(t, ctx.HasErrors())
	assert.Len(t, gen.prompts, 1)
	assert.Equal(t, "", ctx.Get(cor.CtxOut))
}

// TestTextAnalysisToStructParsesValidJSON verifies a well-formed analysis
// document is parsed as-is.
func TestTextAnalysisToStructParsesValidJSON(t *testing.T) {
	cmd := NewTextAnalysisToStruct("convert-text-analysis", GetAnalysisParamName())
	ctx := newTestContext(testRequest())
	ctx.Add(cor.CtxIn, `{"main_theme":"coastal storm","keywords":["waves","clouds","rain"],"mood":"tense","scenes":["waves crashing"]}`)

	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	analysis := ctx.Get(GetAnalysisParamName()).(*model.TextAnalysis)
	assert.Equal(t, "coastal storm", analysis.MainTheme)
	assert.Equal(t, []string{"waves", "clouds", "rain"}, analysis.Keywords)
	assert.Same(t, analysis, ctx.Get(cor.CtxOut))
}

// TestTextAnalysisToStructFallback verifies that malformed JSON, an empty
// payload, and a keywordless document all produce the deterministic fallback
// analysis instead of an error.
func TestTextAnalysisToStructFallback(t *testing.T) {
	payloads := []string{
		"",
		"not json at all",
		`{"main_theme":"storm","keywords":[],"mood":"tense","scenes":[]}`,
	}

	for _, payload := range payloads {
		cmd := NewTextAnalysisToStruct("convert-text-analysis", GetAnalysisParamName())
		request := testRequest()
		ctx := newTestContext(request)
		ctx.Add(cor.CtxIn, payload)

		cmd.Execute(ctx)

		require.False(t, ctx.HasErrors(), "payload %q must not fail the run", payload)
		analysis := ctx.Get(GetAnalysisParamName()).(*model.TextAnalysis)
		assert.Equal(t, "general", analysis.MainTheme)
		assert.Equal(t, "neutral", analysis.Mood)
		assert.Equal(t, strings.Fields(request.Text)[:model.FallbackKeywordCount], analysis.Keywords)
		assert.Equal(t, []string{request.Text}, analysis.Scenes)
	}
}
