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

// This file runs the full generation pipeline end to end against faked
// external dependencies: a canned generative model, a footage provider
// backed by an httptest server so the download stage exercises real HTTP,
// and a media engine that materializes files without invoking FFmpeg.
package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/commands"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/services"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/workflow"
	"github.com/jaycherian/gcp-go-text-to-video/internal/pexels"
	test "github.com/jaycherian/gcp-go-text-to-video/internal/testutil"
)

// fakeGenerator is a canned generative model.
type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) GenerateText(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

// fakeSearcher serves candidates whose URLs point at the suite's clip
// server, and records every query.
type fakeSearcher struct {
	clipURL string
	perPage int
	queries []string
	empty   bool
}

func (f *fakeSearcher) SearchVideos(_ context.Context, query string, perPage int) (*pexels.SearchResult, error) {
	f.queries = append(f.queries, query)
	f.perPage = perPage
	if f.empty {
		return &pexels.SearchResult{}, nil
	}
	id := 1000 + len(f.queries)
	return &pexels.SearchResult{Videos: []pexels.Video{
		{
			ID:       id,
			Duration: 9,
			VideoFiles: []pexels.VideoFile{
				{ID: id*10 + 1, Width: 1920, Height: 1080, Link: f.clipURL},
			},
		},
	}}, nil
}

// fakeEngine materializes normalized and assembled files so the composition
// stage's file handling runs for real.
type fakeEngine struct {
	normalized int
	assembled  int
}

func (f *fakeEngine) Probe(_ context.Context, _ string) (float64, error) {
	return 9.0, nil
}

func (f *fakeEngine) NormalizeClip(_ context.Context, _ string, outputPath string, _ int, _ bool) error {
	f.normalized++
	return os.WriteFile(outputPath, []byte("normalized"), 0o644)
}

func (f *fakeEngine) Assemble(_ context.Context, _ string, _ string, outputPath string) error {
	f.assembled++
	return os.WriteFile(outputPath, []byte("final video"), 0o644)
}

// newClipServer serves a minimal valid MP4 payload for every request.
func newClipServer(t *testing.T) *httptest.Server {
	t.Helper()
	header := []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
		'i', 's', 'o', 'm', 'i', 's', 'o', '2',
	}
	payload := append(header, make([]byte, 2048)...)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(payload)
	}))
	t.Cleanup(server.Close)
	return server
}

// newSuite wires a GeneratorService around the faked dependencies, with a
// test-local scratch root so cleanup can be asserted.
func newSuite(t *testing.T, generator *fakeGenerator, searcher *fakeSearcher, engine *fakeEngine) (*services.GeneratorService, *cloud.Config) {
	t.Helper()
	cfg := *config
	cfg.Storage.ScratchRoot = t.TempDir()

	pipeline := workflow.NewVideoGenerationWorkflowWithDependencies(
		&cfg, &cloud.ServiceClients{}, generator, searcher, engine)
	return services.NewGeneratorService(&cfg, pipeline), &cfg
}

func newRequest(t *testing.T) *model.GenerationRequest {
	t.Helper()
	return &model.GenerationRequest{
		Text:                "a mountain hiking adventure at sunrise with friends",
		OutputPath:          filepath.Join(t.TempDir(), "final.mp4"),
		MaxClips:            3,
		ClipDurationSeconds: 5,
	}
}

// assertScratchEmpty fails the test when any per-run scratch directory
// survived the run.
func assertScratchEmpty(t *testing.T, cfg *cloud.Config) {
	t.Helper()
	entries, err := os.ReadDir(cfg.Storage.ScratchRoot)
	require.NoError(t, err)
	assert.Empty(t, entries, "scratch directories must be removed after the run")
}

// TestGenerationEndToEnd runs the happy path: a parseable analysis, footage
// for every keyword, and a successful composition.
func TestGenerationEndToEnd(t *testing.T) {
	runCtx, span := tracer.Start(ctx, "generation-end-to-end")
	defer span.End()

	server := newClipServer(t)
	generator := &fakeGenerator{response: test.GetTestAnalysisJSON()}
	searcher := &fakeSearcher{clipURL: server.URL}
	engine := &fakeEngine{}
	service, cfg := newSuite(t, generator, searcher, engine)

	request := newRequest(t)
	outputPath, err := service.Generate(runCtx, request)
	require.NoError(t, err)
	assert.Equal(t, request.OutputPath, outputPath)

	// The analysis model is consulted exactly once, never retried.
	assert.Equal(t, 1, generator.calls)

	// The first max_keywords analysis keywords drive the searches, with the
	// configured per-keyword result count.
	assert.Equal(t, []string{"mountains", "hiking trail", "forest"}, searcher.queries)
	assert.Equal(t, cfg.Pexels.VideosPerKeyword, searcher.perPage)

	// All three downloaded clips flow through normalization into one output.
	assert.Equal(t, 3, engine.normalized)
	assert.Equal(t, 1, engine.assembled)

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	assert.Equal(t, "final video", string(content))

	assertScratchEmpty(t, cfg)
}

// TestGenerationModelFailureUsesFallback verifies that a dead model does not
// fail the run: the deterministic fallback keywords drive the search stage.
func TestGenerationModelFailureUsesFallback(t *testing.T) {
	server := newClipServer(t)
	generator := &fakeGenerator{err: errors.New("model unavailable")}
	searcher := &fakeSearcher{clipURL: server.URL}
	service, cfg := newSuite(t, generator, searcher, &fakeEngine{})

	request := newRequest(t)
	_, err := service.Generate(ctx, request)
	require.NoError(t, err)

	// The fallback keywords are the leading tokens of the input text; the
	// search stage takes the first max_keywords of them.
	assert.Equal(t, []string{"a", "mountain", "hiking"}, searcher.queries)
	assertScratchEmpty(t, cfg)
}

// TestGenerationNoCandidatesIsFatal verifies the empty-candidate sentinel
// surfaces through the service and that cleanup still runs.
func TestGenerationNoCandidatesIsFatal(t *testing.T) {
	generator := &fakeGenerator{response: test.GetTestAnalysisJSON()}
	searcher := &fakeSearcher{empty: true}
	service, cfg := newSuite(t, generator, searcher, &fakeEngine{})

	request := newRequest(t)
	_, err := service.Generate(ctx, request)
	require.Error(t, err)
	assert.ErrorIs(t, err, commands.ErrEmptyCandidateSet)

	_, statErr := os.Stat(request.OutputPath)
	assert.True(t, os.IsNotExist(statErr), "no output may exist for a failed run")
	assertScratchEmpty(t, cfg)
}

// TestGenerationInvalidRequest verifies validation rejects bad requests
// before any scratch directory is created.
func TestGenerationInvalidRequest(t *testing.T) {
	service, cfg := newSuite(t, &fakeGenerator{}, &fakeSearcher{}, &fakeEngine{})

	for _, request := range []*model.GenerationRequest{
		{Text: "", OutputPath: "out.mp4", MaxClips: 3, ClipDurationSeconds: 5},
		{Text: "hello", OutputPath: "", MaxClips: 3, ClipDurationSeconds: 5},
		{Text: "hello", OutputPath: "out.mp4", MaxClips: 0, ClipDurationSeconds: 5},
		{Text: "hello", OutputPath: "out.mp4", MaxClips: 3, ClipDurationSeconds: 0},
	} {
		_, err := service.Generate(ctx, request)
		assert.Error(t, err, fmt.Sprintf("request %+v must be rejected", request))
	}
	assertScratchEmpty(t, cfg)
}
