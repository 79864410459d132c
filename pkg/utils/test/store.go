package testutils

import (
	"context"
	"fmt"
	"strings"

	"github.com/pixelheap/imagedex/pkg/objectstore"
)

// MockObjectStore is an in-memory blob store keyed by object key.
type MockObjectStore struct {
	// Blobs holds stored data by key.
	Blobs map[string][]byte

	// BaseURL prefixes the locators Put returns.
	BaseURL string

	// FailPut causes Put to return an error.
	FailPut bool

	// FailDelete causes Delete to return an error.
	FailDelete bool

	// DeletedKeys accumulates all keys passed to Delete.
	DeletedKeys []string
}

// NewMockObjectStore creates a new in-memory object store.
func NewMockObjectStore() *MockObjectStore {
	return &MockObjectStore{
		Blobs:   make(map[string][]byte),
		BaseURL: "http://localhost:9000/test-bucket",
	}
}

func (m *MockObjectStore) EnsureBucket(_ context.Context) error {
	return nil
}

func (m *MockObjectStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if m.FailPut {
		return "", fmt.Errorf("%w: mock put failure", objectstore.ErrStore)
	}
	m.Blobs[key] = data
	return m.BaseURL + "/" + key, nil
}

func (m *MockObjectStore) Delete(_ context.Context, key string) error {
	if m.FailDelete {
		return fmt.Errorf("%w: mock delete failure", objectstore.ErrStore)
	}
	delete(m.Blobs, key)
	m.DeletedKeys = append(m.DeletedKeys, key)
	return nil
}

func (m *MockObjectStore) List(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	for key := range m.Blobs {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *MockObjectStore) Close() error {
	return nil
}

var _ objectstore.Store = (*MockObjectStore)(nil)
