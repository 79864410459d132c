package testutils

import (
	"context"
	"fmt"

	"github.com/pixelheap/imagedex/pkg/vector"
)

// MockVectorDriver is an in-memory vector driver that records inserts and
// returns configurable query results.
type MockVectorDriver struct {
	// Docs holds all inserted documents by ID.
	Docs map[string]vector.Document

	// Order remembers insertion order for List.
	Order []string

	// Results is returned by Query regardless of the embedding.
	Results []vector.QueryResult

	// FailInsert causes Insert to return an error.
	FailInsert bool

	// FailQuery causes Query to return an error.
	FailQuery bool

	// FailGet causes Get to return an error.
	FailGet bool

	// FailDelete causes Delete to return an error.
	FailDelete bool

	// DeletedIDs accumulates all ids passed to Delete.
	DeletedIDs []string
}

// NewMockVectorDriver creates a new mock vector driver.
func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Docs: make(map[string]vector.Document),
	}
}

func (m *MockVectorDriver) Insert(_ context.Context, docs []vector.Document) error {
	if m.FailInsert {
		return fmt.Errorf("%w: mock insert failure", vector.ErrConnection)
	}
	for _, doc := range docs {
		if _, exists := m.Docs[doc.ID]; exists {
			return fmt.Errorf("%w: %s", vector.ErrDuplicateID, doc.ID)
		}
	}
	for _, doc := range docs {
		m.Docs[doc.ID] = doc
		m.Order = append(m.Order, doc.ID)
	}
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int) ([]vector.QueryResult, error) {
	if m.FailQuery {
		return nil, fmt.Errorf("%w: mock query failure", vector.ErrConnection)
	}
	if topK > 0 && len(m.Results) > topK {
		return m.Results[:topK], nil
	}
	return m.Results, nil
}

func (m *MockVectorDriver) Get(_ context.Context, ids []string) ([]vector.Document, error) {
	if m.FailGet {
		return nil, fmt.Errorf("%w: mock get failure", vector.ErrConnection)
	}
	var docs []vector.Document
	for _, id := range ids {
		if doc, ok := m.Docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MockVectorDriver) List(_ context.Context) ([]vector.Document, error) {
	var docs []vector.Document
	for _, id := range m.Order {
		if doc, ok := m.Docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, ids []string) error {
	if m.FailDelete {
		return fmt.Errorf("%w: mock delete failure", vector.ErrConnection)
	}
	for _, id := range ids {
		delete(m.Docs, id)
		m.DeletedIDs = append(m.DeletedIDs, id)
	}
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

var _ vector.Driver = (*MockVectorDriver)(nil)
