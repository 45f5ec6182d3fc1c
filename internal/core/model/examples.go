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

// Package model defines the data structures for the pipeline. This file
// provides factory functions for hardcoded example instances used in
// "few-shot" prompting: embedding a concrete, well-formed JSON example in
// the analysis prompt makes the model's output far more likely to be
// consistent and parsable.
package model

// GetExampleAnalysis creates the sample TextAnalysis embedded in the
// analysis prompt. It shows the model the exact JSON shape expected back:
// field names, keyword ordering, and scene phrasing.
func GetExampleAnalysis() *TextAnalysis {
	return &TextAnalysis{
		MainTheme: "ocean sunset",
		Keywords:  []string{"sunset", "ocean", "waves", "beach", "golden hour", "horizon"},
		Mood:      "peaceful",
		Scenes: []string{
			"waves rolling onto an empty beach at dusk",
			"the sun sinking below the ocean horizon",
			"golden light reflecting off the water surface",
		},
	}
}
