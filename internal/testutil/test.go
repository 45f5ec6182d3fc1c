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

// Package test provides utility functions and mock data to support the
// application's test suite. It helps in setting up a consistent test
// environment, loading test-specific configuration, and providing sample
// provider payloads for workflows and services.
package test

import (
	"log"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs, so the TOML files are parsed once per
// test binary rather than once per test.
type StateManager struct {
	config *cloud.Config
}

// state holds the singleton StateManager instance for the test run.
var state = &StateManager{}

// HandleErr fails the test immediately when err is non-nil. A convenience
// to reduce boilerplate error checking in test bodies.
//
// Inputs:
//   - err: The error to check.
//   - t: The *testing.T object from the current test.
func HandleErr(err error, t *testing.T) {
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// configDir resolves the repository's configs directory relative to this
// source file, so tests load the same TOML files regardless of which package
// directory `go test` runs them from.
func configDir() string {
	_, thisFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(thisFile), "..", "..", "configs")
}

// SetupOS configures the environment variables the configuration loader
// depends on, directing it at the test override file (`.env.test.toml`).
//
// Returns:
//   - An error if setting any environment variable fails.
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, configDir())
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration. It loads the
// TOML files once and caches the result for the remainder of the test run.
//
// Returns:
//   - A pointer to the loaded and cached cloud.Config struct.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// GetTestAnalysisJSON returns a well-formed analysis document of the shape
// the generative model is prompted to produce.
//
// Returns:
//   - A string containing the JSON payload of a text analysis.
func GetTestAnalysisJSON() string {
	return `{
  "main_theme": "mountain hiking adventure",
  "keywords": ["mountains", "hiking trail", "forest", "summit", "sunrise"],
  "mood": "adventurous",
  "scenes": [
    "A winding trail climbing through pine forest",
    "Hikers reaching a rocky summit at sunrise",
    "Clouds drifting below a mountain peak"
  ]
}`
}

// GetTestPexelsSearchJSON returns a provider search response with two
// videos. The first video carries three file variants of different widths
// so variant selection can be asserted; the second carries one.
//
// Returns:
//   - A string containing the JSON payload of a video search response.
func GetTestPexelsSearchJSON() string {
	return `{
  "page": 1,
  "per_page": 2,
  "total_results": 241,
  "videos": [
    {
      "id": 857195,
      "width": 3840,
      "height": 2160,
      "duration": 12,
      "video_files": [
        { "id": 101, "quality": "sd", "file_type": "video/mp4", "width": 640, "height": 360, "link": "https://videos.example.com/857195/sd.mp4" },
        { "id": 102, "quality": "hd", "file_type": "video/mp4", "width": 1920, "height": 1080, "link": "https://videos.example.com/857195/hd.mp4" },
        { "id": 103, "quality": "hd", "file_type": "video/mp4", "width": 1280, "height": 720, "link": "https://videos.example.com/857195/hd720.mp4" }
      ]
    },
    {
      "id": 431012,
      "width": 1920,
      "height": 1080,
      "duration": 4,
      "video_files": [
        { "id": 201, "quality": "hd", "file_type": "video/mp4", "width": 1920, "height": 1080, "link": "https://videos.example.com/431012/hd.mp4" }
      ]
    }
  ]
}`
}

// GetTestEmptyPexelsSearchJSON returns a provider search response with no
// results, used to drive the empty-candidate failure path.
func GetTestEmptyPexelsSearchJSON() string {
	return `{ "page": 1, "per_page": 2, "total_results": 0, "videos": [] }`
}
