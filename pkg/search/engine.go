// Package search implements retrieval over the vector index: free-text
// search against caption embeddings, reference-image search against visual
// embeddings, listing, and deletion.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/encoder"
	"github.com/pixelheap/imagedex/pkg/eventstream"
	"github.com/pixelheap/imagedex/pkg/fetch"
	"github.com/pixelheap/imagedex/pkg/objectstore"
	"github.com/pixelheap/imagedex/pkg/record"
	"github.com/pixelheap/imagedex/pkg/vector"
)

const (
	// textThreshold is the minimum similarity score for text search hits.
	textThreshold = 50.0

	// imageThreshold is the minimum similarity score for reference-image
	// search hits. Visual matches demand much closer vectors than
	// cross-modal text matches.
	imageThreshold = 80.0

	// searchTopK caps how many candidates are pulled from the index per
	// query before threshold filtering.
	searchTopK = 100
)

// NotFoundError reports an image id absent from the index.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("image not found: %s", e.ID)
}

// Result is one search hit: the record plus its similarity score in
// [0, 100], higher is closer.
type Result struct {
	ID     string       `json:"image_id"`
	Score  float64      `json:"score"`
	Record record.Image `json:"record"`
}

// Engine answers retrieval queries against the two vector collections.
type Engine struct {
	fetcher   fetch.Fetcher
	encoder   encoder.Encoder
	store     objectstore.Store
	images    vector.Driver
	texts     vector.Driver
	publisher eventstream.Publisher
	logger    *zap.Logger
}

// NewEngine creates a search engine over the given backends.
func NewEngine(
	fetcher fetch.Fetcher,
	enc encoder.Encoder,
	store objectstore.Store,
	images vector.Driver,
	texts vector.Driver,
	publisher eventstream.Publisher,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		fetcher:   fetcher,
		encoder:   enc,
		store:     store,
		images:    images,
		texts:     texts,
		publisher: publisher,
		logger:    logger,
	}
}

// Score converts a cosine distance into a similarity score in [0, 100],
// rounded to two decimal places.
func Score(distance float32) float64 {
	return math.Round((1-float64(distance))*100*100) / 100
}

// TextSearch embeds the query text and returns indexed images whose caption
// embeddings clear the text threshold, best match first. Text entries carry
// no metadata of their own, so surviving ids are resolved against the visual
// collection for their display records.
func (e *Engine) TextSearch(ctx context.Context, query string) ([]Result, error) {
	embedding, err := e.encoder.EncodeText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	hits, err := e.texts.Query(ctx, embedding, searchTopK)
	if err != nil {
		return nil, fmt.Errorf("querying text index: %w", err)
	}

	results, err := e.joinImageRecords(ctx, hits, textThreshold)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("text search",
		zap.String("query", query),
		zap.Int("candidates", len(hits)),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// ImageSearch embeds the reference image bytes and returns indexed images
// whose visual embeddings clear the image threshold, best match first.
func (e *Engine) ImageSearch(ctx context.Context, data []byte) ([]Result, error) {
	embedding, err := e.encoder.EncodeImage(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("embedding reference image: %w", err)
	}

	hits, err := e.images.Query(ctx, embedding, searchTopK)
	if err != nil {
		return nil, fmt.Errorf("querying image index: %w", err)
	}

	results := e.rank(hits, imageThreshold)

	e.logger.Debug("image search",
		zap.Int("candidates", len(hits)),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// URLSearch fetches the image at url and runs a reference-image search
// with it. The fetched image is not indexed.
func (e *Engine) URLSearch(ctx context.Context, url string) ([]Result, error) {
	data, _, err := e.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetching reference image: %w", err)
	}
	return e.ImageSearch(ctx, data)
}

// rank filters hits below threshold and orders the rest by score
// descending. Equal scores keep index order.
func (e *Engine) rank(hits []vector.QueryResult, threshold float64) []Result {
	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		score := Score(hit.Distance)
		if score < threshold {
			continue
		}
		results = append(results, Result{
			ID:     hit.Document.ID,
			Score:  score,
			Record: record.FromMetadata(hit.Document.Metadata),
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	return results
}

// joinImageRecords filters hits below threshold, then resolves each
// surviving id against the visual collection for its display record. An id
// with no visual counterpart is a stale text entry left behind by a partial
// delete and is dropped. Results order by score descending.
func (e *Engine) joinImageRecords(ctx context.Context, hits []vector.QueryResult, threshold float64) ([]Result, error) {
	ids := make([]string, 0, len(hits))
	scores := make(map[string]float64, len(hits))
	for _, hit := range hits {
		score := Score(hit.Distance)
		if score < threshold {
			continue
		}
		ids = append(ids, hit.Document.ID)
		scores[hit.Document.ID] = score
	}
	if len(ids) == 0 {
		return []Result{}, nil
	}

	docs, err := e.images.Get(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolving image records: %w", err)
	}

	results := make([]Result, 0, len(docs))
	for _, doc := range docs {
		results = append(results, Result{
			ID:     doc.ID,
			Score:  scores[doc.ID],
			Record: record.FromMetadata(doc.Metadata),
		})
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})

	return results, nil
}

// ListAll returns every indexed record.
func (e *Engine) ListAll(ctx context.Context) ([]record.Image, error) {
	docs, err := e.images.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing index: %w", err)
	}

	records := make([]record.Image, 0, len(docs))
	for _, doc := range docs {
		records = append(records, record.FromMetadata(doc.Metadata))
	}

	return records, nil
}

// Get returns the record for a single image id.
func (e *Engine) Get(ctx context.Context, id string) (record.Image, error) {
	docs, err := e.images.Get(ctx, []string{id})
	if err != nil {
		return record.Image{}, fmt.Errorf("getting %s: %w", id, err)
	}
	if len(docs) == 0 {
		return record.Image{}, NotFoundError{ID: id}
	}
	return record.FromMetadata(docs[0].Metadata), nil
}

// Delete removes an image everywhere: blob first, then both index entries.
// A blob delete failure aborts with the index intact, so the image stays
// discoverable and the delete can be retried. A missing text entry is not
// an error; ingestion may have skipped it.
func (e *Engine) Delete(ctx context.Context, id string) error {
	rec, err := e.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := e.store.Delete(ctx, objectstore.KeyFromLocator(rec.Path)); err != nil {
		return fmt.Errorf("deleting blob for %s: %w", id, err)
	}

	if err := e.images.Delete(ctx, []string{id}); err != nil {
		return fmt.Errorf("deleting visual index entry for %s: %w", id, err)
	}

	if err := e.texts.Delete(ctx, []string{id}); err != nil && !errors.Is(err, vector.ErrNotFound) {
		return fmt.Errorf("deleting text index entry for %s: %w", id, err)
	}

	if err := e.publisher.Publish(ctx, eventstream.NewEvent(
		eventstream.EventTypeImageDeleted, id, rec.SourceURL, rec.Path,
	)); err != nil {
		e.logger.Warn("failed to publish deleted event",
			zap.String("image_id", id),
			zap.Error(err),
		)
	}

	e.logger.Info("deleted image", zap.String("image_id", id))

	return nil
}
