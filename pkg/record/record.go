// Package record defines the structured metadata persisted alongside each
// indexed image. The field set is fixed; the vector index stores it as a
// flat string map under stable keys.
package record

import "strconv"

// Metadata keys as stored in the vector index.
const (
	KeyImageID     = "image_id"
	KeySourceURL   = "source_url"
	KeyWidth       = "width"
	KeyHeight      = "height"
	KeyMode        = "mode"
	KeyDescription = "description"
	KeyPath        = "path"
)

// Image is the persisted record for one ingested image. Created once at
// ingestion, immutable thereafter, destroyed only by explicit delete.
type Image struct {
	// ID is the opaque unique identifier shared across the object store
	// and both vector collections.
	ID string `json:"image_id"`

	// SourceURL is the URL the image was originally fetched from.
	SourceURL string `json:"source_url"`

	// Width and Height are the decoded pixel dimensions.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Mode is the decoded color model name (e.g., "rgb", "gray").
	Mode string `json:"mode"`

	// Description is the machine-generated caption. Always set, possibly
	// to the empty string when captioning produced no text.
	Description string `json:"description"`

	// Path is the dereferenceable object store locator for the blob.
	Path string `json:"path"`
}

// Metadata flattens the record into the string map stored in the vector
// index.
func (r Image) Metadata() map[string]string {
	return map[string]string{
		KeyImageID:     r.ID,
		KeySourceURL:   r.SourceURL,
		KeyWidth:       strconv.Itoa(r.Width),
		KeyHeight:      strconv.Itoa(r.Height),
		KeyMode:        r.Mode,
		KeyDescription: r.Description,
		KeyPath:        r.Path,
	}
}

// FromMetadata rebuilds a record from a stored metadata map. Missing keys
// yield zero values; numeric fields that fail to parse yield zero.
func FromMetadata(m map[string]string) Image {
	width, _ := strconv.Atoi(m[KeyWidth])
	height, _ := strconv.Atoi(m[KeyHeight])

	return Image{
		ID:          m[KeyImageID],
		SourceURL:   m[KeySourceURL],
		Width:       width,
		Height:      height,
		Mode:        m[KeyMode],
		Description: m[KeyDescription],
		Path:        m[KeyPath],
	}
}
