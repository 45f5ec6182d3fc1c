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

// Package main contains the setup and initialization logic shared by the
// t2v subcommands. This file builds the centralized state: configuration,
// cloud service clients, the generation workflow, and the generator service.
//
// Functions:
//   - GetConfig: A singleton that loads the application configuration from
//     TOML files, ensuring it is loaded only once.
//   - InitState: Creates the cloud service clients and wires the generation
//     pipeline together from the resolved credentials.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jaycherian/gcp-go-text-to-video/internal/cloud"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/services"
	"github.com/jaycherian/gcp-go-text-to-video/internal/core/workflow"
)

// AgentModelName selects which [agent_models] entry from the configuration
// drives the text analysis stage.
const AgentModelName = "analysis"

// StateManager holds all the shared dependencies for the application, acting
// as a centralized container for service clients and configuration.
type StateManager struct {
	config    *cloud.Config
	cloud     *cloud.ServiceClients
	generator *services.GeneratorService
}

// state is the package-level singleton instance of StateManager.
var state = &StateManager{}

// GetConfig provides a singleton instance of the application configuration,
// loading it from the TOML files on first use. The configuration directory
// and runtime suffix are taken from the environment when set, with sensible
// defaults for running from a source checkout.
//
// Outputs:
//   - *cloud.Config: A pointer to the loaded application configuration struct.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if os.Getenv(cloud.EnvConfigFilePrefix) == "" {
			_ = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
		}
		if os.Getenv(cloud.EnvConfigRuntime) == "" {
			_ = os.Setenv(cloud.EnvConfigRuntime, cloud.DefaultRuntime)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the application state: the generative model clients,
// the optional storage client, and the generator service wrapping the full
// pipeline.
//
// Inputs:
//   - ctx: The root context for the application.
//   - geminiKey: The resolved Gemini API key.
//   - pexelsKey: The resolved Pexels API key.
//
// Outputs:
//   - error: An error when any client fails to initialize.
func InitState(ctx context.Context, geminiKey string, pexelsKey string) error {
	config := GetConfig()

	cloudClients, err := cloud.NewServiceClients(ctx, config, geminiKey)
	if err != nil {
		return fmt.Errorf("failed to initialize cloud clients: %w", err)
	}
	state.cloud = cloudClients

	pipeline := workflow.NewVideoGenerationWorkflow(config, cloudClients, AgentModelName, pexelsKey)
	state.generator = services.NewGeneratorService(config, pipeline)
	return nil
}
