package record_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pixelheap/imagedex/pkg/record"
)

func TestRecord(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Record Suite")
}

var _ = Describe("Image metadata", func() {
	It("survives a metadata round trip", func() {
		rec := record.Image{
			ID:          "b7e9c1d0",
			SourceURL:   "https://example.com/cat.jpg",
			Width:       640,
			Height:      480,
			Mode:        "RGB",
			Description: "a cat on a windowsill",
			Path:        "http://localhost:9000/imagedex-images/image_b7e9c1d0.jpg",
		}

		Expect(record.FromMetadata(rec.Metadata())).To(Equal(rec))
	})

	It("yields zero values for missing keys", func() {
		rec := record.FromMetadata(map[string]string{
			record.KeyImageID: "abc",
		})

		Expect(rec.ID).To(Equal("abc"))
		Expect(rec.Width).To(BeZero())
		Expect(rec.Height).To(BeZero())
		Expect(rec.Description).To(BeEmpty())
	})

	It("yields zero for unparseable dimensions", func() {
		rec := record.FromMetadata(map[string]string{
			record.KeyWidth:  "wide",
			record.KeyHeight: "12",
		})

		Expect(rec.Width).To(BeZero())
		Expect(rec.Height).To(Equal(12))
	})
})
