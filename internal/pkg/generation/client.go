// Package generation wraps the external generative AI API behind the
// narrow contract the studio needs: submit a request, receive an artifact
// or an error. Prompt content, model tuning and artifact storage all belong
// to the collaborator, not to us.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/luckystation-cmd/ADS-MAGIC-2.0/internal/pkg/env"
)

const defaultModel = "gemini-2.5-flash-image"

// ErrNoArtifact is returned when the service answered without producing an
// inline artifact.
var ErrNoArtifact = errors.New("generation: no artifact in response")

type Client struct {
	apiKey     string
	baseURL    string
	apiVersion string
	model      string
	httpClient *http.Client
}

// Options configures a Client. Zero values fall back to service defaults.
type Options struct {
	APIKey     string
	BaseURL    string
	APIVersion string
	Model      string
	HTTPClient *http.Client
}

// New creates a generation client.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}

	apiVersion := strings.TrimSpace(opts.APIVersion)
	if apiVersion == "" {
		apiVersion = "v1beta"
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 120 * time.Second}
	}

	return &Client{
		apiKey:     opts.APIKey,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		model:      model,
		httpClient: httpClient,
	}
}

// NewFromEnv creates a generation client from environment configuration.
func NewFromEnv() *Client {
	return New(Options{
		APIKey:     env.GetEnv("GENERATION_API_KEY", ""),
		BaseURL:    env.GetEnv("GENERATION_BASE_URL", ""),
		Model:      env.GetEnv("GENERATION_MODEL", ""),
		APIVersion: env.GetEnv("GENERATION_API_VERSION", ""),
	})
}

// Generate submits one synthesis request and returns the produced artifact.
func (c *Client) Generate(ctx context.Context, req Request) (Artifact, error) {
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return Artifact{}, errors.New("generation: prompt is empty")
	}

	parts := []part{{Text: prompt}}
	for _, img := range req.Images {
		parts = append(parts, part{
			InlineData: &blob{Data: img.DataBase64, MimeType: img.MimeType},
		})
	}

	payload := generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
		GenerationConfig: generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	}
	if req.AspectRatio != "" {
		payload.GenerationConfig.ImageConfig = &imageConfig{AspectRatio: req.AspectRatio}
	}

	resp, err := c.generateContent(ctx, payload)
	if err != nil && payload.GenerationConfig.ImageConfig != nil {
		// Older API versions reject imageConfig; retry once without it.
		if isUnknownFieldError(err, "imageConfig") {
			payload.GenerationConfig.ImageConfig = nil
			resp, err = c.generateContent(ctx, payload)
		}
	}
	if err != nil {
		return Artifact{}, err
	}

	if len(resp.Images) == 0 {
		return Artifact{}, ErrNoArtifact
	}
	return Artifact{URL: resp.Images[0], Text: resp.Text}, nil
}

func (c *Client) generateContent(ctx context.Context, payload generateContentRequest) (response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return response{}, fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s/models/%s:generateContent", c.baseURL, c.apiVersion, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("content-type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return response{}, fmt.Errorf("request: %w", err)
	}
	defer httpResp.Body.Close()

	rawBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return response{}, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode >= 400 {
		return response{}, fmt.Errorf("generation API %s: %s", httpResp.Status, strings.TrimSpace(string(rawBody)))
	}

	var decoded generateContentResponse
	if err := json.Unmarshal(rawBody, &decoded); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}

	return extractParts(decoded), nil
}

type response struct {
	Text   string
	Images []string
}

func extractParts(resp generateContentResponse) response {
	if len(resp.Candidates) == 0 {
		return response{}
	}

	var textBuilder strings.Builder
	var images []string
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.Text != "" {
			textBuilder.WriteString(p.Text)
		}
		if p.InlineData != nil && p.InlineData.Data != "" && p.InlineData.MimeType != "" {
			images = append(images, fmt.Sprintf("data:%s;base64,%s", p.InlineData.MimeType, p.InlineData.Data))
		}
	}

	return response{Text: textBuilder.String(), Images: images}
}

func isUnknownFieldError(err error, field string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown name") && strings.Contains(msg, strings.ToLower(field))
}

type generateContentRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string     `json:"responseModalities,omitempty"`
	ImageConfig        *imageConfig `json:"imageConfig,omitempty"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

type blob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}
