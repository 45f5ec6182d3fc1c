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

// Package main is the entry point for the t2v command-line tool, which turns
// a piece of input text into a short stock-footage video with the text
// burned in as a centered overlay.
//
// Two subcommands are provided: `generate` runs one generation end to end
// and exits, and `serve` exposes the same pipeline over a REST API.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "t2v",
	Short: "Text-to-video generation pipeline",
	Long: "t2v analyzes input text with a generative model, gathers matching " +
		"stock footage, and composes a short video with the text overlaid in " +
		"the center of the frame.",
}

func main() {
	// Load .env file if it exists; explicit environment wins over the file.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
