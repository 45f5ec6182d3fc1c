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
// stock-footage search stage.
//
// Logic Flow:
// This command follows the text analysis stage. It takes the structured
// analysis and queries the stock-video provider for candidate clips matching
// the extracted keywords.
//
//  1. It receives the `model.TextAnalysis` from the context.
//  2. It issues one search per keyword, for at most the configured number of
//     keywords, requesting a fixed number of results per keyword.
//  3. For every returned video it selects the widest available file variant
//     (the provider serves multiple encodes per video) and records it as a
//     candidate. Videos with no file variants are skipped.
//  4. Candidates are accumulated in keyword order, preserving the provider's
//     result order within each keyword.
//  5. A failed search for one keyword is logged and skipped; the remaining
//     keywords are still searched. Only a completely empty candidate set is
//     a fatal error, since the pipeline has nothing to compose from.
package commands

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/jaycherian/gcp-go-text-to-video/internal/core/cor"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/model"
	"github.com/jaycherian/gcp-go-text-to-video/internal/pexels"
)

// VideoSearcher abstracts the stock-video provider so the search command can
// be exercised in tests without network access. *pexels.Client satisfies it.
type VideoSearcher interface {
	SearchVideos(ctx context.Context, query string, perPage int) (*pexels.SearchResult, error)
}

// VideoSearch is a command that queries the stock-video provider for
// candidate clips matching the analysis keywords.
type VideoSearch struct {
	cor.BaseCommand
	searcher         VideoSearcher // The stock-video provider client.
	maxKeywords      int           // Upper bound on keywords to search.
	videosPerKeyword int           // Results requested per keyword.
}

// NewVideoSearch is the constructor for the VideoSearch command.
//
// Inputs:
//   - name: A string name for this command instance.
//   - searcher: The stock-video provider client.
//   - maxKeywords: The maximum number of analysis keywords to search.
//   - videosPerKeyword: The number of results to request per keyword.
//
// Outputs:
//   - *VideoSearch: A pointer to the newly instantiated command.
func NewVideoSearch(name string, searcher VideoSearcher, maxKeywords int, videosPerKeyword int) *VideoSearch {
	return &VideoSearch{
		BaseCommand:      *cor.NewBaseCommand(name),
		searcher:         searcher,
		maxKeywords:      maxKeywords,
		videosPerKeyword: videosPerKeyword,
	}
}

// bestVariant returns the widest file variant of a provider video, or nil if
// the video carries no variants at all.
func bestVariant(video *pexels.Video) *pexels.VideoFile {
	var best *pexels.VideoFile
	for i := range video.VideoFiles {
		f := &video.VideoFiles[i]
		if best == nil || f.Width > best.Width {
			best = f
		}
	}
	return best
}

// Execute contains the core logic for gathering candidate clips.
//
// Inputs:
//   - context: The shared `cor.Context` for this workflow execution.
func (v *VideoSearch) Execute(context cor.Context) {
	analysis := context.Get(v.GetInputParam()).(*model.TextAnalysis)

	keywords := analysis.Keywords
	if len(keywords) > v.maxKeywords {
		keywords = keywords[:v.maxKeywords]
	}

	candidates := make([]*model.VideoCandidate, 0, len(keywords)*v.videosPerKeyword)
	for _, keyword := range keywords {
		result, err := v.searcher.SearchVideos(context.GetContext(), keyword, v.videosPerKeyword)
		if err != nil {
			// One keyword failing must not sink the run. Log and move on.
			slog.Warn("video search failed for keyword",
				slog.String("command", v.GetName()),
				slog.String("keyword", keyword),
				slog.String("error", err.Error()))
			continue
		}
		for i := range result.Videos {
			video := &result.Videos[i]
			variant := bestVariant(video)
			if variant == nil {
				slog.Warn("video has no file variants, skipping",
					slog.Int("video_id", video.ID))
				continue
			}
			candidates = append(candidates, &model.VideoCandidate{
				ID:              strconv.Itoa(video.ID),
				SourceURL:       variant.Link,
				Width:           variant.Width,
				Height:          variant.Height,
				DurationSeconds: video.Duration,
			})
		}
		slog.Info("keyword search complete",
			slog.String("keyword", keyword),
			slog.Int("results", len(result.Videos)))
	}

	if len(candidates) == 0 {
		v.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(v.GetName(), ErrEmptyCandidateSet)
		return
	}

	v.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(v.GetOutputParam(), candidates)
	context.Add(cor.CtxOut, candidates)
}
