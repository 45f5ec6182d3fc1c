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
// API. The contract is a single authenticated GET:
//
//	GET {base}/search?query=...&per_page=...&orientation=landscape
//	Authorization: <api key>
//
// The base URL is configurable so tests can point the client at an
// httptest server.
package pexels

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL is the production search endpoint.
const DefaultBaseURL = "https://api.pexels.com/videos/search"

// Client is an authenticated Pexels videos search client.
type Client struct {
	apiKey      string
	baseURL     string
	orientation string
	httpClient  *http.Client
}

// NewClient creates a search client. An empty baseURL selects the
// production endpoint; an empty orientation disables the orientation
// filter.
func NewClient(apiKey string, baseURL string, orientation string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:      apiKey,
		baseURL:     baseURL,
		orientation: orientation,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SearchVideos issues one search query and decodes the response. The
// returned result preserves the provider's ordering of videos and of file
// variants within each video.
func (c *Client) SearchVideos(ctx context.Context, query string, perPage int) (*SearchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(perPage))
	if c.orientation != "" {
		params.Set("orientation", c.orientation)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Authorization", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request for %q failed: %w", query, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search request for %q returned status %d: %s", query, resp.StatusCode, string(body))
	}

	out := &SearchResult{}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return nil, fmt.Errorf("failed to decode search response for %q: %w", query, err)
	}
	return out, nil
}
