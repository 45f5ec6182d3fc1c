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
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
)

func engineConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.Application.FFmpegPath = "ffmpeg"
	config.Application.FFprobePath = "ffprobe"
	config.Video.Codec = "libx264"
	config.Video.AudioCodec = "aac"
	config.Video.FrameRate = 24
	config.Video.Width = 1280
	config.Video.Height = 720
	return config
}

// TestNormalizeArgsCarriesAudio verifies that normalization re-encodes the
// source soundtrack with the configured audio codec, with the audio stream
// mapped optionally so silent stock clips still normalize.
func TestNormalizeArgsCarriesAudio(t *testing.T) {
	engine := NewFFmpegEngine(engineConfig())

	args := engine.normalizeArgs("in.mp4", "out.mp4", 5, false)

	assert.NotContains(t, args, "-an")
	assert.Contains(t, args, "-c:a")
	assert.Contains(t, args, "aac")
	assert.Contains(t, args, "0:a:0?")
}

// TestNormalizeArgsTrim verifies the trim flag controls the -t argument.
func TestNormalizeArgsTrim(t *testing.T) {
	engine := NewFFmpegEngine(engineConfig())

	trimmed := engine.normalizeArgs("in.mp4", "out.mp4", 5, true)
	assert.Contains(t, trimmed, "-t")
	assert.Contains(t, trimmed, "5")

	full := engine.normalizeArgs("in.mp4", "out.mp4", 5, false)
	assert.NotContains(t, full, "-t")
}
