// Package index implements the ingest pipeline: fetch an image, describe
// and embed it, persist the blob, and register it in the vector index.
package index

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"strings"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/encoder"
	"github.com/pixelheap/imagedex/pkg/eventstream"
	"github.com/pixelheap/imagedex/pkg/fetch"
	"github.com/pixelheap/imagedex/pkg/objectstore"
	"github.com/pixelheap/imagedex/pkg/record"
	"github.com/pixelheap/imagedex/pkg/vector"
)

// Indexer runs the ingest pipeline. The write order is fixed: pending
// marker, blob, visual index, text index, marker cleanup. A crash mid-way
// leaves either a pending marker or nothing, never an index entry without
// its blob.
type Indexer struct {
	fetcher   fetch.Fetcher
	encoder   encoder.Encoder
	store     objectstore.Store
	images    vector.Driver
	texts     vector.Driver
	publisher eventstream.Publisher
	logger    *zap.Logger
}

// NewIndexer creates an indexer over the given backends. images holds
// visual embeddings, texts holds caption embeddings; both are keyed by the
// same generated image id.
func NewIndexer(
	fetcher fetch.Fetcher,
	enc encoder.Encoder,
	store objectstore.Store,
	images vector.Driver,
	texts vector.Driver,
	publisher eventstream.Publisher,
	logger *zap.Logger,
) *Indexer {
	return &Indexer{
		fetcher:   fetcher,
		encoder:   enc,
		store:     store,
		images:    images,
		texts:     texts,
		publisher: publisher,
		logger:    logger,
	}
}

// Add fetches the image at sourceURL and runs it through the full pipeline,
// returning the stored record.
func (i *Indexer) Add(ctx context.Context, sourceURL string) (record.Image, error) {
	data, contentType, err := i.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return record.Image{}, fmt.Errorf("fetching %s: %w", sourceURL, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return record.Image{}, fmt.Errorf("%w: decoding image from %s: %v", encoder.ErrEncoding, sourceURL, err)
	}

	caption, err := i.encoder.Caption(ctx, data)
	if err != nil {
		return record.Image{}, fmt.Errorf("captioning image from %s: %w", sourceURL, err)
	}

	imageEmbedding, err := i.encoder.EncodeImage(ctx, data)
	if err != nil {
		return record.Image{}, fmt.Errorf("encoding image from %s: %w", sourceURL, err)
	}

	id := uuid.NewString()

	rec := record.Image{
		ID:          id,
		SourceURL:   sourceURL,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Mode:        colorMode(cfg),
		Description: caption,
	}

	// Write-ahead marker: evidence for SweepOrphans if we crash before
	// the index insert lands.
	if _, err := i.store.Put(ctx, objectstore.PendingKey(id), []byte(sourceURL), "text/plain"); err != nil {
		return record.Image{}, fmt.Errorf("writing pending marker for %s: %w", id, err)
	}

	locator, err := i.store.Put(ctx, objectstore.ImageKey(id), data, contentType)
	if err != nil {
		return record.Image{}, fmt.Errorf("storing blob for %s: %w", id, err)
	}
	rec.Path = locator

	if err := i.images.Insert(ctx, []vector.Document{{
		ID:        id,
		Embedding: imageEmbedding,
		Metadata:  rec.Metadata(),
		Text:      sourceURL,
	}}); err != nil {
		return record.Image{}, fmt.Errorf("inserting visual embedding for %s: %w", id, err)
	}

	// The text entry is best-effort: an image without a caption embedding
	// is still retrievable by reference image, just not by free text.
	i.insertTextEntry(ctx, id, caption)

	if err := i.store.Delete(ctx, objectstore.PendingKey(id)); err != nil {
		i.logger.Warn("failed to clear pending marker",
			zap.String("image_id", id),
			zap.Error(err),
		)
	}

	if err := i.publisher.Publish(ctx, eventstream.NewEvent(
		eventstream.EventTypeImageIndexed, id, sourceURL, locator,
	)); err != nil {
		i.logger.Warn("failed to publish indexed event",
			zap.String("image_id", id),
			zap.Error(err),
		)
	}

	i.logger.Info("indexed image",
		zap.String("image_id", id),
		zap.String("source_url", sourceURL),
		zap.Int("width", cfg.Width),
		zap.Int("height", cfg.Height),
	)

	return rec, nil
}

// insertTextEntry stores the caption embedding under the image id. The text
// collection carries no metadata of its own; text search resolves display
// records through the visual collection.
func (i *Indexer) insertTextEntry(ctx context.Context, id, caption string) {
	if strings.TrimSpace(caption) == "" {
		i.logger.Warn("empty caption, skipping text index entry",
			zap.String("image_id", id),
		)
		return
	}

	textEmbedding, err := i.encoder.EncodeText(ctx, caption)
	if err != nil {
		i.logger.Warn("failed to embed caption, image not searchable by text",
			zap.String("image_id", id),
			zap.Error(err),
		)
		return
	}

	if err := i.texts.Insert(ctx, []vector.Document{{
		ID:        id,
		Embedding: textEmbedding,
		Metadata:  map[string]string{},
		Text:      caption,
	}}); err != nil {
		i.logger.Warn("failed to insert caption embedding, image not searchable by text",
			zap.String("image_id", id),
			zap.Error(err),
		)
	}
}

// SweepOrphans cleans up after crashed ingests. For every pending marker
// whose id never made it into the visual index, the blob and marker are
// removed; markers for ids that did land are simply cleared.
func (i *Indexer) SweepOrphans(ctx context.Context) error {
	markers, err := i.store.List(ctx, objectstore.PendingPrefix)
	if err != nil {
		return fmt.Errorf("listing pending markers: %w", err)
	}

	for _, marker := range markers {
		id := strings.TrimPrefix(marker, objectstore.PendingPrefix+"image_")
		if id == marker || id == "" {
			continue
		}

		docs, err := i.images.Get(ctx, []string{id})
		if err != nil {
			return fmt.Errorf("checking index for %s: %w", id, err)
		}

		if len(docs) == 0 {
			if err := i.store.Delete(ctx, objectstore.ImageKey(id)); err != nil {
				return fmt.Errorf("deleting orphaned blob for %s: %w", id, err)
			}
			i.logger.Info("swept orphaned blob", zap.String("image_id", id))
		}

		if err := i.store.Delete(ctx, marker); err != nil {
			return fmt.Errorf("clearing pending marker for %s: %w", id, err)
		}
	}

	return nil
}

// colorMode reports a short color mode name for a decoded image config,
// e.g. RGB for JPEG, RGBA for PNG with alpha, L for grayscale.
func colorMode(cfg image.Config) string {
	switch cfg.ColorModel {
	case color.YCbCrModel:
		return "RGB"
	case color.RGBAModel, color.NRGBAModel, color.RGBA64Model, color.NRGBA64Model:
		return "RGBA"
	case color.GrayModel, color.Gray16Model:
		return "L"
	case color.CMYKModel:
		return "CMYK"
	}
	if _, ok := cfg.ColorModel.(color.Palette); ok {
		return "P"
	}
	return "RGB"
}
