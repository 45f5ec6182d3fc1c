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

// Package pexels implements a minimal client for the Pexels videos search
// API. This file defines the wire types of the documented response schema.
// Only the fields the pipeline consumes are mapped; everything else in the
// provider payload is ignored by the JSON decoder.
package pexels

// VideoFile is one downloadable variant of a video: a concrete resolution
// and container behind a direct link.
type VideoFile struct {
	ID       int    `json:"id"`
	Quality  string `json:"quality"`
	FileType string `json:"file_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Link     string `json:"link"`
}

// Video is a single search result with its available file variants.
type Video struct {
	ID         int         `json:"id"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Duration   int         `json:"duration"`
	VideoFiles []VideoFile `json:"video_files"`
}

// SearchResult is the top-level response of the videos search endpoint.
type SearchResult struct {
	Page         int     `json:"page"`
	PerPage      int     `json:"per_page"`
	TotalResults int     `json:"total_results"`
	Videos       []Video `json:"videos"`
}
