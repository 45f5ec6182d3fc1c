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

// Package model defines the core data structures for the text-to-video
// pipeline. All of these objects are transient: they are created during a
// single generation run, passed between commands through the chain context,
// and discarded when the run ends. Nothing here is persisted.
package model

import (
	"errors"
	"strings"
)

// FallbackKeywordCount is the number of leading whitespace-separated tokens
// of the input text used as keywords when LLM analysis fails. The crude
// token rule is deliberate: it is part of the observable contract for
// malformed-analysis cases and must not be "improved" with stopword
// filtering or stemming.
const FallbackKeywordCount = 5

// TextAnalysis is the structured summary the LLM extracts from the input
// text. It is immutable after creation and drives the footage search: the
// leading keywords become search queries.
type TextAnalysis struct {
	MainTheme string   `json:"main_theme"` // One-phrase subject of the text.
	Keywords  []string `json:"keywords"`   // 5-10 visual search keywords, most important first.
	Mood      string   `json:"mood"`       // Overall emotional tone, e.g. "calm", "energetic".
	Scenes    []string `json:"scenes"`     // 3-5 short visual scene descriptions.
}

// FallbackAnalysis builds the deterministic TextAnalysis used whenever the
// LLM call fails or returns something unparseable: a "general" theme, the
// first five whitespace-separated tokens of the raw text as keywords, a
// "neutral" mood, and the raw text as the single scene. It guarantees the
// pipeline never aborts solely because analysis failed.
func FallbackAnalysis(text string) *TextAnalysis {
	keywords := strings.Fields(text)
	if len(keywords) > FallbackKeywordCount {
		keywords = keywords[:FallbackKeywordCount]
	}
	return &TextAnalysis{
		MainTheme: "general",
		Keywords:  keywords,
		Mood:      "neutral",
		Scenes:    []string{text},
	}
}

// VideoCandidate is a single stock-footage search result reduced to its
// best file variant: the one with the maximum width. Candidates exist only
// in memory between the search and download stages.
type VideoCandidate struct {
	ID              string `json:"id"`               // Provider identifier of the video.
	SourceURL       string `json:"source_url"`       // Direct download link of the chosen variant.
	Width           int    `json:"width"`            // Pixel width of the chosen variant.
	Height          int    `json:"height"`           // Pixel height of the chosen variant.
	DurationSeconds int    `json:"duration_seconds"` // Native duration reported by the provider.
}

// ClipFile is a VideoCandidate materialized in the run's scratch directory.
// Composition skips any clip whose file is missing or empty on disk.
type ClipFile struct {
	LocalPath string // Absolute path inside the scratch directory.
}

// GenerationRequest is the caller-supplied input for one pipeline run. It is
// validated once up front and never mutated afterwards.
type GenerationRequest struct {
	Text                string `json:"text"`          // The text to visualize; also the overlay text.
	OutputPath          string `json:"output_path"`   // Destination for the encoded video.
	MaxClips            int    `json:"max_clips"`     // Upper bound on downloaded clips, >= 1.
	ClipDurationSeconds int    `json:"clip_duration"` // Per-clip trim duration in seconds, >= 1.
}

// Validate checks the request invariants before any work begins.
func (r *GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Text) == "" {
		return errors.New("text must not be empty")
	}
	if strings.TrimSpace(r.OutputPath) == "" {
		return errors.New("output path must not be empty")
	}
	if r.MaxClips < 1 {
		return errors.New("max clips must be at least 1")
	}
	if r.ClipDurationSeconds < 1 {
		return errors.New("clip duration must be at least 1 second")
	}
	return nil
}
