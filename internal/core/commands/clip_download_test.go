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
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-text-to-video/internal/core/cor"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
)

// fakeMP4Payload returns bytes carrying a valid MP4 ftyp header so the
// download sniffer accepts them as video.
func fakeMP4Payload() []byte {
	header := []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
		'i', 's', 'o', 'm', 'i', 's', 'o', '2',
	}
	return append(header, make([]byte, 1024)...)
}

func downloadContext(t *testing.T, request *model.GenerationRequest, candidates []*model.VideoCandidate) cor.Context {
	t.Helper()
	ctx := cor.NewBaseContext()
	ctx.SetContext(context.Background())
	ctx.Add(GetRequestParamName(), request)
	ctx.Add(GetScratchDirParamName(), t.TempDir())
	ctx.Add(cor.CtxIn, candidates)
	return ctx
}

// TestClipDownload verifies that candidates beyond the clip limit are never
// fetched, that files land under the index_id naming scheme, and that every
// landed file is tracked for cleanup.
func TestClipDownload(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests++
		_, _ = w.Write(fakeMP4Payload())
	}))
	defer server.Close()

	request := testRequest()
	request.MaxClips = 2
	candidates := []*model.VideoCandidate{
		{ID: "11", SourceURL: server.URL + "/a.mp4"},
		{ID: "22", SourceURL: server.URL + "/b.mp4"},
		{ID: "33", SourceURL: server.URL + "/c.mp4"},
	}

	cmd := NewClipDownload("download-clips")
	ctx := downloadContext(t, request, candidates)
	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	// The third candidate is beyond MaxClips and must not be requested.
	assert.Equal(t, 2, requests)

	clips := ctx.Get(cor.CtxOut).([]*model.ClipFile)
	require.Len(t, clips, 2)
	assert.Equal(t, "0_11.mp4", filepath.Base(clips[0].LocalPath))
	assert.Equal(t, "1_22.mp4", filepath.Base(clips[1].LocalPath))
	for _, clip := range clips {
		info, err := os.Stat(clip.LocalPath)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0))
	}
	assert.Len(t, ctx.GetTempFiles(), 2)
}

// TestClipDownloadSkipsFailures verifies that a failed download and a
// non-video payload are both skipped while good candidates survive.
func TestClipDownloadSkipsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/good.mp4":
			_, _ = w.Write(fakeMP4Payload())
		case "/error-page.mp4":
			// A 200 response that is actually HTML.
			_, _ = fmt.Fprint(w, "<html>quota exceeded</html>")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	candidates := []*model.VideoCandidate{
		{ID: "1", SourceURL: server.URL + "/missing.mp4"},
		{ID: "2", SourceURL: server.URL + "/error-page.mp4"},
		{ID: "3", SourceURL: server.URL + "/good.mp4"},
	}

	cmd := NewClipDownload("download-clips")
	ctx := downloadContext(t, testRequest(), candidates)
	cmd.Execute(ctx)

	require.False(t, ctx.HasErrors())
	clips := ctx.Get(cor.CtxOut).([]*model.ClipFile)
	require.Len(t, clips, 1)
	assert.Equal(t, "2_3.mp4", filepath.Base(clips[0].LocalPath))
}

// TestClipDownloadAllFailedIsFatal verifies the run fails with the
// empty-download sentinel when nothing could be fetched.
func TestClipDownloadAllFailedIsFatal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	candidates := []*model.VideoCandidate{
		{ID: "1", SourceURL: server.URL + "/a.mp4"},
		{ID: "2", SourceURL: server.URL + "/b.mp4"},
	}

	cmd := NewClipDownload("download-clips")
	ctx := downloadContext(t, testRequest(), candidates)
	cmd.Execute(ctx)

	require.True(t, ctx.HasErrors())
	assert.ErrorIs(t, ctx.GetErrors()["download-clips"], ErrEmptyDownloadSet)
}
