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

// Package cloud defines the application configuration, loaded from TOML
// files, and the clients for the external services the pipeline talks to:
// the generative model, the stock-footage provider, and (optionally) Google
// Cloud Storage for output upload.
//
// This file centralizes the configuration structs. Every tunable of the
// pipeline lives here: model parameters, search behavior, the fixed video
// and overlay constants, and storage locations.
package cloud

import "google.golang.org/genai"

// DefaultSafetySettings turns off content blocking for all harm categories.
// The pipeline's prompts are built from user-supplied scene descriptions,
// and a blocked analysis response would only trigger the keyword fallback,
// so the model is configured to be non-restrictive.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// PromptTemplates holds the Go template text for prompts sent to the
// generative model.
type PromptTemplates struct {
	AnalysisPrompt string `toml:"analysis"` // Template of the text-analysis instruction.
}

// LLMModel holds the settings for one generative model configuration.
type LLMModel struct {
	Model              string  `toml:"model"`               // Model identifier, e.g. "gemini-2.0-flash".
	SystemInstructions string  `toml:"system_instructions"` // System prompt for the model.
	Temperature        float32 `toml:"temperature"`         // Sampling temperature.
	TopP               float32 `toml:"top_p"`               // Nucleus sampling parameter.
	TopK               float32 `toml:"top_k"`               // Top-K sampling parameter.
	MaxTokens          int32   `toml:"max_tokens"`          // Maximum output tokens.
	OutputFormat       string  `toml:"output_format"`       // Response MIME type, e.g. "application/json".
	RateLimit          int     `toml:"rate_limit"`          // Requests per second allowed against the model.
}

// Pexels holds the settings for the stock-footage search provider.
type Pexels struct {
	BaseURL          string `toml:"base_url"`           // Search endpoint, overridable for tests.
	VideosPerKeyword int    `toml:"videos_per_keyword"` // Per-keyword result limit.
	MaxKeywords      int    `toml:"max_keywords"`       // How many leading keywords are searched.
	Orientation      string `toml:"orientation"`        // Orientation filter, "landscape" for this system.
}

// Video holds the fixed encoding constants of the output file. These are
// constants of the system, not runtime-derived values.
type Video struct {
	Codec      string `toml:"codec"`       // Video codec, "libx264".
	AudioCodec string `toml:"audio_codec"` // Audio codec, "aac".
	FrameRate  int    `toml:"frame_rate"`  // Output frame rate, 24.
	Width      int    `toml:"width"`       // Output canvas width, 1280.
	Height     int    `toml:"height"`      // Output canvas height, 720.
}

// Overlay holds the fixed styling of the centered text overlay.
type Overlay struct {
	FontSize    int     `toml:"font_size"`    // Point size of the overlay text, 50.
	Color       string  `toml:"color"`        // Fill color, "white".
	StrokeColor string  `toml:"stroke_color"` // Stroke (border) color, "black".
	StrokeWidth int     `toml:"stroke_width"` // Stroke width in pixels, 2.
	WidthRatio  float64 `toml:"width_ratio"`  // Fraction of the frame width the text block may span, 0.8.
}

// Storage holds local output locations, the scratch root, and the optional
// upload bucket.
type Storage struct {
	OutputDir         string `toml:"output_dir"`          // Directory for default output files.
	DefaultOutputName string `toml:"default_output_name"` // Default output file name.
	ScratchRoot       string `toml:"scratch_root"`        // Parent of per-run scratch dirs; empty means os.TempDir.
	OutputBucket      string `toml:"output_bucket"`       // GCS bucket for output upload; empty disables upload.
	CredentialsFile   string `toml:"credentials_file"`    // Service account key for the upload client; empty uses ADC.
}

// Defaults holds the generation parameters applied when the caller does not
// supply them.
type Defaults struct {
	MaxClips            int `toml:"max_clips"`             // Default clip count, 3.
	ClipDurationSeconds int `toml:"clip_duration_seconds"` // Default per-clip trim duration, 5.
}

// Telemetry controls the OpenTelemetry SDK setup. Export is opt-in so the
// CLI runs without a collector.
type Telemetry struct {
	Enabled      bool   `toml:"enabled"`       // When true, traces and metrics are exported over OTLP.
	OTLPEndpoint string `toml:"otlp_endpoint"` // Collector endpoint, e.g. "localhost:4317".
}

// Config is the top-level configuration aggregate, loaded from TOML files.
type Config struct {
	Application struct {
		Name        string `toml:"name"`         // Service name used in telemetry resources.
		FFmpegPath  string `toml:"ffmpeg_path"`  // Path to the ffmpeg binary; default "ffmpeg".
		FFprobePath string `toml:"ffprobe_path"` // Path to the ffprobe binary; default "ffprobe".
	} `toml:"application"`
	AgentModels     map[string]LLMModel `toml:"agent_models"`     // Generative model configurations, keyed by logical name ("analysis").
	PromptTemplates PromptTemplates     `toml:"prompt_templates"` // Prompt template text.
	Pexels          Pexels              `toml:"pexels"`
	Video           Video               `toml:"video"`
	Overlay         Overlay             `toml:"overlay"`
	Storage         Storage             `toml:"storage"`
	Defaults        Defaults            `toml:"defaults"`
	Telemetry       Telemetry           `toml:"telemetry"`
}

// NewConfig creates a Config with its map fields initialized, ready for the
// TOML loader to populate.
func NewConfig() *Config {
	return &Config{
		AgentModels: make(map[string]LLMModel),
	}
}
