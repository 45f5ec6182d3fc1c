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

// Package commands provides the concrete pipeline stages of the
// text-to-video workflow as Chain of Responsibility commands. This file
// defines the shared context parameter names and the sentinel errors of the
// run-level failure taxonomy.
package commands

import "errors"

// Context parameter names shared across commands. Accessor functions keep
// every command reading and writing the same keys.
const (
	requestParamName    = "generation_request"
	scratchDirParamName = "scratch_dir"
	analysisParamName   = "text_analysis"
)

// GetRequestParamName returns the context key holding the validated
// *model.GenerationRequest for the run.
func GetRequestParamName() string { return requestParamName }

// GetScratchDirParamName returns the context key holding the run's scratch
// directory path.
func GetScratchDirParamName() string { return scratchDirParamName }

// GetAnalysisParamName returns the context key holding the *model.TextAnalysis.
func GetAnalysisParamName() string { return analysisParamName }

// Run-level failure sentinels. The generator service maps chain errors onto
// these to decide what to report to the caller.
var (
	// ErrEmptyCandidateSet is recorded when every keyword search completed
	// but produced zero usable candidates.
	ErrEmptyCandidateSet = errors.New("no candidates found for any keyword")

	// ErrEmptyDownloadSet is recorded when every candidate download failed.
	ErrEmptyDownloadSet = errors.New("no clips downloaded")

	// ErrNoUsableClips is recorded when no downloaded clip survived the
	// existence check at the start of composition.
	ErrNoUsableClips = errors.New("no usable clips for composition")
)
