// Package qdrant provides a Qdrant vector database driver implementation
// over the official gRPC client.
package qdrant

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/vector"
)

// documentKey is the payload key carrying the document text. Metadata
// fields are stored flat alongside it, so this name must never collide
// with a metadata key.
const documentKey = "document"

// listPageSize bounds a single scroll page during enumeration.
const listPageSize = 256

// Driver implements vector.Driver against one Qdrant collection.
type Driver struct {
	client     *qdrant.Client
	collection string
	logger     *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Host and Port locate the Qdrant gRPC endpoint (default port 6334).
	Host string
	Port int

	// Collection is the name of the collection to use.
	Collection string

	// Dimensions is the embedding dimensionality, required to create the
	// collection when it does not exist yet.
	Dimensions uint
}

// NewDriver creates a new Qdrant vector driver, creating the collection
// with a cosine-distance index if it does not exist yet.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.Collection == "" {
		return nil, fmt.Errorf("qdrant collection name is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: c.Host,
		Port: c.Port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating qdrant client: %v", vector.ErrConnection, err)
	}

	ctx := context.Background()
	exists, err := client.CollectionExists(ctx, c.Collection)
	if err != nil {
		return nil, fmt.Errorf("%w: checking collection %q: %v", vector.ErrConnection, c.Collection, err)
	}

	if !exists {
		err = client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: c.Collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(c.Dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return nil, fmt.Errorf("%w: creating collection %q: %v", vector.ErrConnection, c.Collection, err)
		}
	}

	logger.Info("connected to Qdrant",
		zap.String("host", c.Host),
		zap.Int("port", c.Port),
		zap.String("collection", c.Collection),
	)

	return &Driver{
		client:     client,
		collection: c.Collection,
		logger:     logger,
	}, nil
}

// Insert stores documents with their embeddings. Qdrant upserts silently,
// so existence is checked first to honor the duplicate-id contract.
func (d *Driver) Insert(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]*qdrant.PointId, len(docs))
	for i, doc := range docs {
		ids[i] = qdrant.NewID(doc.ID)
	}

	existing, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            ids,
	})
	if err != nil {
		return fmt.Errorf("checking existing points: %w", err)
	}
	if len(existing) > 0 {
		return fmt.Errorf("%w: %s", vector.ErrDuplicateID, existing[0].GetId().GetUuid())
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		payload := make(map[string]any, len(doc.Metadata)+1)
		for k, v := range doc.Metadata {
			payload[k] = v
		}
		payload[documentKey] = doc.Text

		points[i] = &qdrant.PointStruct{
			Id:      qdrant.NewID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(payload),
		}
	}

	_, err = d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("added documents to qdrant",
		zap.String("collection", d.collection),
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	limit := uint64(topK)
	scored, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(scored))
	for _, point := range scored {
		metadata, text := splitPayload(point.GetPayload())

		results = append(results, vector.QueryResult{
			Document: vector.Document{
				ID:       point.GetId().GetUuid(),
				Metadata: metadata,
				Text:     text,
			},
			// Qdrant reports cosine similarity; the driver contract is
			// cosine distance.
			Distance: 1 - point.GetScore(),
		})
	}

	d.logger.Debug("queried qdrant",
		zap.String("collection", d.collection),
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}

	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            pointIDs,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("getting points: %w", err)
	}

	return retrievedDocs(points), nil
}

// List returns every document in the collection by scrolling pages. The
// scroll offset is an inclusive start id, so continuation must use the
// server's next-page offset; the high-level client drops it, hence the raw
// points client.
func (d *Driver) List(ctx context.Context) ([]vector.Document, error) {
	var docs []vector.Document
	var offset *qdrant.PointId

	for {
		limit := uint32(listPageSize)
		resp, err := d.client.GetPointsClient().Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: d.collection,
			Limit:          &limit,
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("scrolling points: %w", err)
		}

		docs = append(docs, retrievedDocs(resp.GetResult())...)

		offset = resp.GetNextPageOffset()
		if offset == nil {
			break
		}
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, len(ids))
	for i, id := range ids {
		pointIDs[i] = qdrant.NewID(id)
	}

	_, err := d.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: d.collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("deleting points: %w", err)
	}

	d.logger.Debug("deleted documents from qdrant",
		zap.String("collection", d.collection),
		zap.Int("count", len(ids)),
	)

	return nil
}

func retrievedDocs(points []*qdrant.RetrievedPoint) []vector.Document {
	docs := make([]vector.Document, 0, len(points))
	for _, point := range points {
		metadata, text := splitPayload(point.GetPayload())
		docs = append(docs, vector.Document{
			ID:       point.GetId().GetUuid(),
			Metadata: metadata,
			Text:     text,
		})
	}
	return docs
}

// splitPayload separates the document text from the flat metadata fields.
func splitPayload(payload map[string]*qdrant.Value) (map[string]string, string) {
	metadata := make(map[string]string, len(payload))
	var text string

	for k, v := range payload {
		if k == documentKey {
			text = v.GetStringValue()
			continue
		}
		metadata[k] = v.GetStringValue()
	}

	return metadata, text
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.client.Close()
}

var _ vector.Driver = (*Driver)(nil)
