// Package ollama implements pkg/encoder's Encoder against Ollama's
// embedding and generate APIs. Visual embeddings and captions go through a
// multimodal model; text embeddings go through the same embedding model so
// both vector kinds live in one metric space.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pixelheap/imagedex/pkg/encoder"
)

const (
	// DefaultEmbedModel is the default multimodal embedding model.
	DefaultEmbedModel = "nomic-embed-vision"

	// DefaultCaptionModel is the default vision model used for captions.
	DefaultCaptionModel = "llava"

	// DefaultBaseURL is the default Ollama API URL.
	DefaultBaseURL = "http://localhost:11434"

	captionPrompt = "Describe this image in one concise sentence."
)

// Encoder wraps Ollama's embedding and generate APIs.
type Encoder struct {
	baseURL      string
	embedModel   string
	captionModel string
	dimensions   uint
	httpClient   *http.Client
}

// Config holds configuration for the Ollama encoder.
type Config struct {
	// BaseURL is the Ollama API URL (e.g., "http://localhost:11434").
	// Defaults to DefaultBaseURL if empty.
	BaseURL string

	// EmbedModel is the embedding model to use. Defaults to
	// DefaultEmbedModel if empty. The model must accept both text and
	// image input so the two embedding kinds share a metric space.
	EmbedModel string

	// CaptionModel is the vision model used to caption images.
	// Defaults to DefaultCaptionModel if empty.
	CaptionModel string

	// Dimensions, when non-zero, is enforced against every returned
	// vector.
	Dimensions uint
}

// embedRequest is the request body for Ollama's embedding API.
type embedRequest struct {
	Model  string   `json:"model"`
	Input  string   `json:"input"`
	Images []string `json:"images,omitempty"`
}

// embedResponse is the response from Ollama's embedding API.
type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// generateRequest is the request body for Ollama's generate API.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images,omitempty"`
	Stream bool     `json:"stream"`
}

// generateResponse is the response from Ollama's generate API.
type generateResponse struct {
	Response string `json:"response"`
}

// NewEncoder creates a new encoder backed by Ollama.
func NewEncoder(cfg Config) (*Encoder, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = DefaultEmbedModel
	}

	captionModel := cfg.CaptionModel
	if captionModel == "" {
		captionModel = DefaultCaptionModel
	}

	return &Encoder{
		baseURL:      baseURL,
		embedModel:   embedModel,
		captionModel: captionModel,
		dimensions:   cfg.Dimensions,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}, nil
}

// EncodeText converts text into a unit-normalized embedding.
func (e *Encoder) EncodeText(ctx context.Context, text string) ([]float32, error) {
	return e.embed(ctx, embedRequest{
		Model: e.embedModel,
		Input: text,
	})
}

// EncodeImage converts raw image bytes into a unit-normalized visual
// embedding.
func (e *Encoder) EncodeImage(ctx context.Context, data []byte) ([]float32, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image input", encoder.ErrEncoding)
	}

	return e.embed(ctx, embedRequest{
		Model:  e.embedModel,
		Images: []string{base64.StdEncoding.EncodeToString(data)},
	})
}

func (e *Encoder) embed(ctx context.Context, reqBody embedRequest) ([]float32, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("%w: marshaling request: %v", encoder.ErrEncoding, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/api/embed", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", encoder.ErrEncoding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: sending request: %v", encoder.ErrEncoding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: ollama returned status %d: %s", encoder.ErrEncoding, resp.StatusCode, string(body))
	}

	var embedResp embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", encoder.ErrEncoding, err)
	}

	if len(embedResp.Embeddings) == 0 {
		return nil, fmt.Errorf("%w: no embeddings returned", encoder.ErrEncoding)
	}

	vec := embedResp.Embeddings[0]
	if e.dimensions != 0 && uint(len(vec)) != e.dimensions {
		return nil, fmt.Errorf("%w: model returned %d dimensions, want %d", encoder.ErrEncoding, len(vec), e.dimensions)
	}

	// Models generally return unit vectors already; normalizing here keeps
	// the invariant independent of the model.
	return encoder.Normalize(vec), nil
}

// Caption generates a one-sentence description of the image.
func (e *Encoder) Caption(ctx context.Context, data []byte) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image input", encoder.ErrEncoding)
	}

	reqBody := generateRequest{
		Model:  e.captionModel,
		Prompt: captionPrompt,
		Images: []string{base64.StdEncoding.EncodeToString(data)},
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling request: %v", encoder.ErrEncoding, err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", e.baseURL+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("%w: creating request: %v", encoder.ErrEncoding, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: sending request: %v", encoder.ErrEncoding, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: ollama returned status %d: %s", encoder.ErrEncoding, resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("%w: decoding response: %v", encoder.ErrEncoding, err)
	}

	return strings.TrimSpace(genResp.Response), nil
}

// Close releases resources held by the encoder.
func (e *Encoder) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ encoder.Encoder = (*Encoder)(nil)
