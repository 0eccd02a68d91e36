// Package gist reads and writes the URL source list kept in a GitHub
// Gist. The gist holds one file whose lines are job posting URLs; the
// pipeline annotates lines in place to record what it has consumed.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Client talks to the GitHub Gist API for a single gist file.
type Client struct {
	Token   string
	GistID  string
	File    string
	BaseURL string

	httpClient *http.Client
}

// New returns a Client for one gist file.
func New(token, gistID, file string) *Client {
	return &Client{
		Token:      token,
		GistID:     gistID,
		File:       file,
		BaseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type gistResponse struct {
	Files map[string]struct {
		Content string `json:"content"`
	} `json:"files"`
}

// Fetch returns the current content of the gist file.
func (c *Client) Fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/gists/%s", c.baseURL(), c.GistID), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create gist request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.client().Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch gist: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("gist fetch returned status %d: %s", resp.StatusCode, body)
	}

	var gr gistResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return "", fmt.Errorf("failed to parse gist response: %w", err)
	}

	file, ok := gr.Files[c.File]
	if !ok {
		return "", fmt.Errorf("gist has no file %q", c.File)
	}
	return file.Content, nil
}

// Update replaces the content of the gist file.
func (c *Client) Update(ctx context.Context, content string) error {
	payload, err := json.Marshal(map[string]any{
		"files": map[string]any{
			c.File: map[string]string{"content": content},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to build gist payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/gists/%s", c.baseURL(), c.GistID), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create gist request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client().Do(req)
	if err != nil {
		return fmt.Errorf("failed to update gist: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gist update returned status %d: %s", resp.StatusCode, body)
	}
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Accept", "application/vnd.github+json")
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return defaultBaseURL
}

func (c *Client) client() *http.Client {
	if c.httpClient != nil {
		return c.httpClient
	}
	return http.DefaultClient
}
