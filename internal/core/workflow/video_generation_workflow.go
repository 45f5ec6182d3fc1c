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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the text-to-video generation workflow.
package workflow

import (
	"text/template"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/commands"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/cor"
	"github.com/jaycherian/gcp-go-text-to-video/internal/pexels"
)

// VideoGenerationWorkflow orchestrates the full text-to-video pipeline. It
// is structured as a Chain of Responsibility (cor.Chain) that runs the five
// pipeline stages in order: text analysis, analysis parsing, stock-footage
// search, clip download, and composition, with an optional final upload of
// the finished video to a GCS bucket.
//
// The workflow is triggered with a validated GenerationRequest and a scratch
// directory already present in the context; it leaves the finished output
// path in the chain output slot.
type VideoGenerationWorkflow struct {
	cor.BaseCommand
	config           *cloud.Config
	generator        cloud.TextGenerator
	searcher         commands.VideoSearcher
	engine           commands.Engine
	serviceClients   *cloud.ServiceClients
	analysisTemplate *template.Template
	chain            cor.Chain // The underlying chain of commands to be executed.
}

// Execute runs the entire generation workflow by invoking the underlying chain.
//
// Inputs:
//   - context: The chain of responsibility context for this execution.
func (w *VideoGenerationWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// initializeChain builds the sequence of commands that make up this
// workflow. Each command is an atomic unit of work whose output feeds the
// next command through the context.
func (w *VideoGenerationWorkflow) initializeChain() {
	out := cor.NewBaseChain(w.GetName())

	// Step 1: Ask the generative model to analyze the input text. The raw
	// JSON string response (or an empty string on failure) is placed in the
	// context for the next step.
	out.AddCommand(commands.NewTextAnalysisCreator("generate-text-analysis", w.generator, w.analysisTemplate))

	// Step 2: Parse the analysis JSON into a TextAnalysis struct. Unusable
	// model output is replaced with a deterministic fallback built from the
	// input text, so this step always yields keywords.
	out.AddCommand(commands.NewTextAnalysisToStruct("convert-text-analysis", commands.GetAnalysisParamName()))

	// Step 3: Search the stock-footage provider for candidate clips, one
	// query per analysis keyword up to the configured keyword limit.
	out.AddCommand(commands.NewVideoSearch(
		"search-stock-videos",
		w.searcher,
		w.config.Pexels.MaxKeywords,
		w.config.Pexels.VideosPerKeyword))

	// Step 4: Download the selected candidates into the scratch directory,
	// truncated to the request's clip limit.
	out.AddCommand(commands.NewClipDownload("download-clips"))

	// Step 5: Normalize, concatenate, and overlay the clips into the final
	// output video at the request's output path.
	out.AddCommand(commands.NewVideoCompose(
		"compose-video",
		w.engine,
		w.config))

	// Step 6: Optionally mirror the finished video to a GCS bucket. The
	// command skips itself when no bucket or client is configured.
	out.AddCommand(commands.NewGCSFileUpload(
		"upload-output-video",
		w.serviceClients.StorageClient,
		w.config.Storage.OutputBucket))

	w.chain = out
}

// NewVideoGenerationWorkflow is the constructor for the
// VideoGenerationWorkflow. It compiles the analysis prompt template and
// initializes the command chain.
//
// Inputs:
//   - config: The application's overall configuration.
//   - serviceClients: A struct containing initialized cloud service clients.
//   - agentModelName: The name of the agent model config to use for the
//     text analysis stage (e.g., "analysis").
//   - pexelsAPIKey: The credential for the stock-footage provider.
//
// Returns:
//   - A pointer to a newly created and fully initialized VideoGenerationWorkflow.
func NewVideoGenerationWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	agentModelName string,
	pexelsAPIKey string) *VideoGenerationWorkflow {

	analysisTemplate, err := template.New("analysis-template").Parse(config.PromptTemplates.AnalysisPrompt)
	if err != nil {
		panic(err) // The app cannot run without a valid prompt template.
	}

	pipeline := &VideoGenerationWorkflow{
		BaseCommand:      *cor.NewBaseCommand("video-generation-pipeline"),
		config:           config,
		generator:        serviceClients.AgentModels[agentModelName],
		searcher:         pexels.NewClient(pexelsAPIKey, config.Pexels.BaseURL, config.Pexels.Orientation),
		engine:           commands.NewFFmpegEngine(config),
		serviceClients:   serviceClients,
		analysisTemplate: analysisTemplate,
	}
	pipeline.initializeChain()
	return pipeline
}

// NewVideoGenerationWorkflowWithDependencies builds the workflow with
// explicit stage dependencies. Tests use this to substitute fakes for the
// generative model, the footage provider, and the media engine.
func NewVideoGenerationWorkflowWithDependencies(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	generator cloud.TextGenerator,
	searcher commands.VideoSearcher,
	engine commands.Engine) *VideoGenerationWorkflow {

	analysisTemplate, err := template.New("analysis-template").Parse(config.PromptTemplates.AnalysisPrompt)
	if err != nil {
		panic(err)
	}

	pipeline := &VideoGenerationWorkflow{
		BaseCommand:      *cor.NewBaseCommand("video-generation-pipeline"),
		config:           config,
		generator:        generator,
		searcher:         searcher,
		engine:           engine,
		serviceClients:   serviceClients,
		analysisTemplate: analysisTemplate,
	}
	pipeline.initializeChain()
	return pipeline
}
