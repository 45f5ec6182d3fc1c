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

// Package cloud defines the application configuration and external service
// clients. This file contains the hierarchical configuration loader and the
// credential lookup helpers.
//
// Configuration is loaded in two layers: a base file (".env.toml") and an
// environment-specific override (".env.<runtime>.toml"), with the runtime
// selected by an environment variable. Values in the override file replace
// values from the base file.
package cloud

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	ConfigFileBaseName  = ".env"                // Base name of configuration files.
	ConfigFileExtension = ".toml"               // Extension of configuration files.
	ConfigSeparator     = "."                   // Separator in override file names, e.g. ".env.test.toml".
	EnvConfigFilePrefix = "T2V_CONFIG_PREFIX"   // Env var naming the config directory.
	EnvConfigRuntime    = "T2V_RUNTIME"         // Env var naming the runtime ("local", "test", ...).
	EnvGeminiAPIKey     = "GEMINI_API_KEY"      // Env var holding the generative model credential.
	EnvPexelsAPIKey     = "PEXELS_API_KEY"      // Env var holding the footage provider credential.
	DefaultRuntime      = "local"
)

// fileExists reports whether a file or directory exists at the given path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// LoadConfig populates baseConfig from the base TOML file and then from the
// runtime-specific override file, if either exists. The config directory is
// taken from T2V_CONFIG_PREFIX, the runtime from T2V_RUNTIME (default
// "local").
func LoadConfig(baseConfig interface{}) {
	configurationFilePrefix := os.Getenv(EnvConfigFilePrefix)
	if len(configurationFilePrefix) > 0 && !strings.HasSuffix(configurationFilePrefix, string(os.PathSeparator)) {
		configurationFilePrefix = configurationFilePrefix + string(os.PathSeparator)
	}

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = DefaultRuntime
	}

	baseConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := configurationFilePrefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode base configuration file %s with error: %s", baseConfigFileName, err)
		}
	}

	// Values in the runtime file overwrite values from the base file.
	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			log.Fatalf("failed to decode environment configuration file: %s with error: %s", envConfigFileName, err)
		}
	}
}

// ResolveCredential returns the flag value when set, otherwise the value of
// the named environment variable. A missing credential is an error so the
// caller can fail fast before any pipeline work begins.
func ResolveCredential(flagValue string, envName string) (string, error) {
	if strings.TrimSpace(flagValue) != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envName); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("missing credential: set the %s environment variable or pass the matching flag", envName)
}
