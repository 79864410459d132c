package chroma

// chromaCollection is a collection object returned by the Chroma API.
type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// chromaCreateCollectionRequest creates a collection. The metadata pins the
// index to cosine distance so scores convert as similarity = 1 - distance.
type chromaCreateCollectionRequest struct {
	Name     string            `json:"name"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type chromaAddRequest struct {
	IDs        []string            `json:"ids"`
	Embeddings [][]float32         `json:"embeddings"`
	Metadatas  []map[string]string `json:"metadatas,omitempty"`
	Documents  []string            `json:"documents,omitempty"`
}

type chromaGetRequest struct {
	IDs     []string `json:"ids,omitempty"`
	Include []string `json:"include"`
}

type chromaGetResponse struct {
	IDs        []string            `json:"ids"`
	Metadatas  []map[string]string `json:"metadatas"`
	Documents  []string            `json:"documents"`
	Embeddings [][]float32         `json:"embeddings"`
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float32 `json:"query_embeddings"`
	NResults        int         `json:"n_results"`
	Include         []string    `json:"include"`
}

type chromaQueryResponse struct {
	IDs       [][]string            `json:"ids"`
	Distances [][]float32           `json:"distances"`
	Metadatas [][]map[string]string `json:"metadatas"`
	Documents [][]string            `json:"documents"`
}

type chromaDeleteRequest struct {
	IDs []string `json:"ids"`
}
