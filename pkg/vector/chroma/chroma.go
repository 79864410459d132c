// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/vector"
)

// Driver implements vector.Driver using Chroma's REST API. One Driver maps
// to one collection.
type Driver struct {
	baseURL      string
	collection   string
	collectionID string
	httpClient   *http.Client
	logger       *zap.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// Collection is the name of the collection to use.
	Collection string
}

// NewDriver creates a new Chroma vector driver, creating the collection
// with a cosine-distance index if it does not exist yet.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("chroma URL is required")
	}
	if c.Collection == "" {
		return nil, fmt.Errorf("chroma collection name is required")
	}

	d := &Driver{
		baseURL:    c.URL,
		collection: c.Collection,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	collectionID, err := d.getOrCreateCollection(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: getting or creating collection %q: %v", vector.ErrConnection, c.Collection, err)
	}
	d.collectionID = collectionID

	logger.Info("connected to Chroma",
		zap.String("url", c.URL),
		zap.String("collection", c.Collection),
		zap.String("collection_id", collectionID),
	)

	return d, nil
}

func (d *Driver) collectionsURL(suffix string) string {
	return fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections%s", d.baseURL, suffix)
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", d.collectionsURL("/"+d.collection), nil)
	if err != nil {
		return "", fmt.Errorf("creating get request: %w", err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending get request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var collection chromaCollection
		if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
			return "", fmt.Errorf("decoding collection response: %w", err)
		}
		return collection.ID, nil
	}

	// Collection doesn't exist, create it
	createBody := chromaCreateCollectionRequest{
		Name:     d.collection,
		Metadata: map[string]string{"hnsw:space": "cosine"},
	}
	jsonBody, err := json.Marshal(createBody)
	if err != nil {
		return "", fmt.Errorf("marshaling create request: %w", err)
	}

	req, err = http.NewRequestWithContext(ctx, "POST", d.collectionsURL(""), bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err = d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending create request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to create collection: status %d: %s", resp.StatusCode, string(body))
	}

	var collection chromaCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return "", fmt.Errorf("decoding create response: %w", err)
	}

	return collection.ID, nil
}

// post sends a JSON body to a collection sub-endpoint and decodes the
// response into out when out is non-nil.
func (d *Driver) post(ctx context.Context, action string, body any, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling %s request: %w", action, err)
	}

	url := d.collectionsURL("/" + d.collectionID + "/" + action)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("creating %s request: %w", action, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: sending %s request: %v", vector.ErrConnection, action, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s failed: status %d: %s", action, resp.StatusCode, string(respBody))
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", action, err)
	}
	return nil
}

// Insert stores documents with their embeddings. Chroma's add endpoint
// silently deduplicates existing ids, so existence is checked first to
// honor the duplicate-id contract.
func (d *Driver) Insert(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	metadatas := make([]map[string]string, len(docs))
	documents := make([]string, len(docs))

	for i, doc := range docs {
		ids[i] = doc.ID
		embeddings[i] = doc.Embedding
		metadatas[i] = doc.Metadata
		documents[i] = doc.Text
	}

	var existing chromaGetResponse
	if err := d.post(ctx, "get", chromaGetRequest{IDs: ids, Include: []string{}}, &existing); err != nil {
		return err
	}
	if len(existing.IDs) > 0 {
		return fmt.Errorf("%w: %s", vector.ErrDuplicateID, existing.IDs[0])
	}

	reqBody := chromaAddRequest{
		IDs:        ids,
		Embeddings: embeddings,
		Metadatas:  metadatas,
		Documents:  documents,
	}
	if err := d.post(ctx, "add", reqBody, nil); err != nil {
		return err
	}

	d.logger.Debug("added documents to chroma",
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

	reqBody := chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Include:         []string{"metadatas", "documents", "distances"},
	}

	var queryResp chromaQueryResponse
	if err := d.post(ctx, "query", reqBody, &queryResp); err != nil {
		return nil, err
	}

	var results []vector.QueryResult

	// Process first group (we only query with one embedding)
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return results, nil
	}

	ids := queryResp.IDs[0]
	distances := queryResp.Distances[0]

	var metadatas []map[string]string
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}

	var documents []string
	if len(queryResp.Documents) > 0 {
		documents = queryResp.Documents[0]
	}

	for i, id := range ids {
		result := vector.QueryResult{
			Document: vector.Document{ID: id},
		}

		if i < len(metadatas) {
			result.Metadata = metadatas[i]
		}
		if i < len(documents) {
			result.Text = documents[i]
		}
		if i < len(distances) {
			result.Distance = distances[i]
		}

		results = append(results, result)
	}

	d.logger.Debug("queried chroma",
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

	reqBody := chromaGetRequest{
		IDs:     ids,
		Include: []string{"metadatas", "documents"},
	}

	var getResp chromaGetResponse
	if err := d.post(ctx, "get", reqBody, &getResp); err != nil {
		return nil, err
	}

	return getResponseDocs(getResp), nil
}

// List returns every document in the collection. Chroma's get endpoint
// with no ids enumerates the whole collection.
func (d *Driver) List(ctx context.Context) ([]vector.Document, error) {
	reqBody := chromaGetRequest{
		Include: []string{"metadatas", "documents"},
	}

	var getResp chromaGetResponse
	if err := d.post(ctx, "get", reqBody, &getResp); err != nil {
		return nil, err
	}

	return getResponseDocs(getResp), nil
}

func getResponseDocs(resp chromaGetResponse) []vector.Document {
	docs := make([]vector.Document, len(resp.IDs))
	for i, id := range resp.IDs {
		docs[i] = vector.Document{ID: id}

		if i < len(resp.Metadatas) {
			docs[i].Metadata = resp.Metadatas[i]
		}
		if i < len(resp.Documents) {
			docs[i].Text = resp.Documents[i]
		}
		if i < len(resp.Embeddings) {
			docs[i].Embedding = resp.Embeddings[i]
		}
	}
	return docs
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := d.post(ctx, "delete", chromaDeleteRequest{IDs: ids}, nil); err != nil {
		return err
	}

	d.logger.Debug("deleted documents from chroma",
		zap.String("collection", d.collection),
		zap.Int("count", len(ids)),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

var _ vector.Driver = (*Driver)(nil)
