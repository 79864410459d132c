// Package encoder provides multi-modal embedding generation. An Encoder
// turns image bytes into a visual embedding and a natural-language caption,
// and turns text into a text embedding in the same metric space.
package encoder

import "context"

// Encoder produces embeddings and captions. Implementations wrap a
// pre-trained model treated as a black box: given a fixed model, all three
// operations are deterministic pure functions of their input.
//
// EncodeImage and EncodeText return unit-normalized vectors of identical,
// fixed dimensionality so image and text embeddings are comparable under
// cosine distance.
//
// Failures wrap ErrEncoding. Callers must not retry automatically; model
// inference is expensive.
type Encoder interface {
	// EncodeImage converts raw image bytes into a visual embedding.
	EncodeImage(ctx context.Context, data []byte) ([]float32, error)

	// Caption generates a natural-language description of the image.
	Caption(ctx context.Context, data []byte) (string, error)

	// EncodeText converts text into an embedding.
	EncodeText(ctx context.Context, text string) ([]float32, error)

	// Close releases any resources held by the encoder.
	Close() error
}
