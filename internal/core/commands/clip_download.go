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
// clip download stage.
//
// Logic Flow:
// This command follows the search stage. It fetches the selected candidate
// clips over HTTP and lands them in the run's scratch directory, ready for
// composition.
//
//  1. It receives the candidate list from the context and truncates it to
//     the request's MaxClips limit. Candidates beyond the limit are never
//     fetched.
//  2. Each clip is streamed straight to disk rather than buffered in memory,
//     since stock footage files routinely run to tens of megabytes.
//  3. Downloaded files are named `<index>_<id>.mp4` so the composition order
//     is stable and the provider ID remains traceable in logs.
//  4. The first bytes of each file are sniffed to confirm the payload is
//     actually video and not an HTML error page served with a 200.
//  5. Every landed file is registered with the context's temp-file tracker so
//     cleanup is guaranteed even if a later stage fails.
//  6. Individual download failures are logged and skipped. Only a run where
//     every download failed is fatal.
package commands

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"github.com/jaycherian/gcp-go-text-to-video/internal/core/cor"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
)

// ClipDownload is a command that fetches candidate clips into the scratch
// directory.
type ClipDownload struct {
	cor.BaseCommand
	httpClient *http.Client
}

// NewClipDownload is the constructor for the ClipDownload command.
//
// Inputs:
//   - name: A string name for this command instance.
//
// Outputs:
//   - *ClipDownload: A pointer to the newly instantiated command.
func NewClipDownload(name string) *ClipDownload {
	return &ClipDownload{
		BaseCommand: *cor.NewBaseCommand(name),
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// download streams a single candidate to the target path and verifies the
// payload looks like video.
func (c *ClipDownload) download(ctx cor.Context, candidate *model.VideoCandidate, target string) error {
	req, err := http.NewRequestWithContext(ctx.GetContext(), http.MethodGet, candidate.SourceURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("download request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected download status %d", resp.StatusCode)
	}

	out, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create clip file: %w", err)
	}
	defer func() { _ = out.Close() }()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to stream clip to disk: %w", err)
	}
	if written == 0 {
		return fmt.Errorf("download produced an empty file")
	}

	// Sniff the file header. Providers occasionally serve error pages with a
	// 200 status, and feeding those to ffmpeg produces confusing failures.
	head := make([]byte, 262)
	if _, err := out.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind clip file: %w", err)
	}
	n, err := out.Read(head)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read clip header: %w", err)
	}
	kind, _ := filetype.Match(head[:n])
	if kind != matchers.TypeMp4 && kind != matchers.TypeMov && kind != matchers.TypeWebm {
		return fmt.Errorf("downloaded payload is not video (detected %q)", kind.Extension)
	}
	return nil
}

// Execute contains the core logic for downloading the candidate clips.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (c *ClipDownload) Execute(context cor.Context) {
	candidates := context.Get(c.GetInputParam()).([]*model.VideoCandidate)
	request := context.Get(GetRequestParamName()).(*model.GenerationRequest)
	scratchDir := context.Get(GetScratchDirParamName()).(string)

	if len(candidates) > request.MaxClips {
		candidates = candidates[:request.MaxClips]
	}

	clips := make([]*model.ClipFile, 0, len(candidates))
	for i, candidate := range candidates {
		target := filepath.Join(scratchDir, fmt.Sprintf("%d_%s.mp4", i, candidate.ID))
		if err := c.download(context, candidate, target); err != nil {
			slog.Warn("clip download failed, skipping",
				slog.String("command", c.GetName()),
				slog.String("video_id", candidate.ID),
				slog.String("url", candidate.SourceURL),
				slog.String("error", err.Error()))
			// A partial or invalid file may have landed; remove it so the
			// composition stage never sees it.
			_ = os.Remove(target)
			continue
		}
		context.AddTempFile(target)
		clips = append(clips, &model.ClipFile{LocalPath: target})
		slog.Info("clip downloaded",
			slog.String("video_id", candidate.ID),
			slog.String("path", target))
	}

	if len(clips) == 0 {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), ErrEmptyDownloadSet)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(c.GetOutputParam(), clips)
	context.Add(cor.CtxOut, clips)
}
