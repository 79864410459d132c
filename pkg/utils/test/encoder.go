package testutils

import (
	"context"
	"fmt"
)

// MockEncoder is a test encoder that returns predictable embeddings and
// captions.
type MockEncoder struct {
	// TextEmbeddings maps input text to the embedding to return.
	TextEmbeddings map[string][]float32

	// ImageEmbeddings maps image bytes (as string) to the embedding to return.
	ImageEmbeddings map[string][]float32

	// Captions maps image bytes (as string) to the caption to return.
	Captions map[string]string

	// FailOnText causes EncodeText to return an error when the input matches.
	FailOnText string

	// FailCaption causes Caption to return an error.
	FailCaption bool

	// FailImage causes EncodeImage to return an error.
	FailImage bool
}

func NewMockEncoder() *MockEncoder {
	return &MockEncoder{
		TextEmbeddings:  make(map[string][]float32),
		ImageEmbeddings: make(map[string][]float32),
		Captions:        make(map[string]string),
	}
}

func (m *MockEncoder) EncodeImage(_ context.Context, data []byte) ([]float32, error) {
	if m.FailImage {
		return nil, fmt.Errorf("mock image encoding failure")
	}
	if emb, ok := m.ImageEmbeddings[string(data)]; ok {
		return emb, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEncoder) Caption(_ context.Context, data []byte) (string, error) {
	if m.FailCaption {
		return "", fmt.Errorf("mock caption failure")
	}
	if caption, ok := m.Captions[string(data)]; ok {
		return caption, nil
	}
	return "a test image", nil
}

func (m *MockEncoder) EncodeText(_ context.Context, text string) ([]float32, error) {
	if m.FailOnText != "" && text == m.FailOnText {
		return nil, fmt.Errorf("mock text encoding failure for: %s", text)
	}
	if emb, ok := m.TextEmbeddings[text]; ok {
		return emb, nil
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEncoder) Close() error {
	return nil
}
