package search_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pixelheap/imagedex/pkg/eventstream"
	"github.com/pixelheap/imagedex/pkg/logger"
	"github.com/pixelheap/imagedex/pkg/objectstore"
	"github.com/pixelheap/imagedex/pkg/record"
	"github.com/pixelheap/imagedex/pkg/search"
	testutils "github.com/pixelheap/imagedex/pkg/utils/test"
	"github.com/pixelheap/imagedex/pkg/vector"
)

func TestSearch(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Search Suite")
}

func doc(id, description string) vector.Document {
	rec := record.Image{
		ID:          id,
		SourceURL:   "https://example.com/" + id + ".jpg",
		Width:       100,
		Height:      100,
		Mode:        "RGB",
		Description: description,
		Path:        "http://localhost:9000/test-bucket/" + objectstore.ImageKey(id),
	}
	return vector.Document{ID: id, Metadata: rec.Metadata(), Text: description}
}

var _ = Describe("Score", func() {
	It("maps distance 0 to score 100", func() {
		Expect(search.Score(0)).To(Equal(100.0))
	})

	It("maps distance 1 to score 0", func() {
		Expect(search.Score(1)).To(Equal(0.0))
	})

	It("rounds to two decimal places", func() {
		Expect(search.Score(0.123456)).To(Equal(87.65))
		Expect(search.Score(0.5)).To(Equal(50.0))
	})
})

var _ = Describe("Engine", func() {
	var (
		fetcher   *testutils.MockFetcher
		enc       *testutils.MockEncoder
		store     *testutils.MockObjectStore
		images    *testutils.MockVectorDriver
		texts     *testutils.MockVectorDriver
		publisher *testutils.MockPublisher
		engine    *search.Engine
		ctx       context.Context
	)

	BeforeEach(func() {
		fetcher = testutils.NewMockFetcher()
		enc = testutils.NewMockEncoder()
		store = testutils.NewMockObjectStore()
		images = testutils.NewMockVectorDriver()
		texts = testutils.NewMockVectorDriver()
		publisher = testutils.NewMockPublisher()
		ctx = context.Background()

		engine = search.NewEngine(fetcher, enc, store, images, texts, publisher, logger.Nop())
	})

	Describe("TextSearch", func() {
		// Text entries carry only the caption; display records live in the
		// visual collection.
		textHit := func(id, caption string, distance float32) vector.QueryResult {
			return vector.QueryResult{
				Document: vector.Document{ID: id, Metadata: map[string]string{}, Text: caption},
				Distance: distance,
			}
		}

		seed := func(id, description string) {
			Expect(images.Insert(ctx, []vector.Document{doc(id, description)})).To(Succeed())
		}

		It("drops hits below the text threshold", func() {
			seed("close", "a cat")
			seed("edge", "a kitten")
			seed("far", "a spaceship")
			texts.Results = []vector.QueryResult{
				textHit("close", "a cat", 0.2),     // score 80
				textHit("edge", "a kitten", 0.5),   // score 50, inclusive
				textHit("far", "a spaceship", 0.6), // score 40
			}

			results, err := engine.TextSearch(ctx, "cat")
			Expect(err).NotTo(HaveOccurred())

			Expect(results).To(HaveLen(2))
			Expect(results[0].ID).To(Equal("close"))
			Expect(results[0].Score).To(Equal(80.0))
			Expect(results[1].ID).To(Equal("edge"))
			Expect(results[1].Score).To(Equal(50.0))
		})

		It("orders results best match first", func() {
			seed("a", "a")
			seed("b", "b")
			seed("c", "c")
			texts.Results = []vector.QueryResult{
				textHit("b", "b", 0.3),
				textHit("a", "a", 0.1),
				textHit("c", "c", 0.4),
			}

			results, err := engine.TextSearch(ctx, "anything")
			Expect(err).NotTo(HaveOccurred())

			Expect(results).To(HaveLen(3))
			Expect(results[0].ID).To(Equal("a"))
			Expect(results[1].ID).To(Equal("b"))
			Expect(results[2].ID).To(Equal("c"))
		})

		It("resolves display records through the visual collection", func() {
			seed("x", "a sunset over water")
			texts.Results = []vector.QueryResult{
				textHit("x", "a sunset over water", 0.1),
			}

			results, err := engine.TextSearch(ctx, "sunset")
			Expect(err).NotTo(HaveOccurred())

			Expect(results).To(HaveLen(1))
			Expect(results[0].Record.Description).To(Equal("a sunset over water"))
			Expect(results[0].Record.Width).To(Equal(100))
			Expect(results[0].Record.SourceURL).To(Equal("https://example.com/x.jpg"))
		})

		It("drops hits whose visual entry is gone", func() {
			seed("alive", "a cat")
			texts.Results = []vector.QueryResult{
				textHit("stale", "a deleted cat", 0.1),
				textHit("alive", "a cat", 0.2),
			}

			results, err := engine.TextSearch(ctx, "cat")
			Expect(err).NotTo(HaveOccurred())

			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("alive"))
		})

		It("returns empty results for no hits", func() {
			results, err := engine.TextSearch(ctx, "nothing")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("fails when the query cannot be embedded", func() {
			enc.FailOnText = "bad query"

			_, err := engine.TextSearch(ctx, "bad query")
			Expect(err).To(HaveOccurred())
		})

		It("fails when the index query fails", func() {
			texts.FailQuery = true

			_, err := engine.TextSearch(ctx, "cat")
			Expect(err).To(HaveOccurred())
		})

		It("fails when record resolution fails", func() {
			texts.Results = []vector.QueryResult{textHit("x", "a cat", 0.1)}
			images.FailGet = true

			_, err := engine.TextSearch(ctx, "cat")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ImageSearch", func() {
		It("applies the stricter image threshold", func() {
			images.Results = []vector.QueryResult{
				{Document: doc("near", "near"), Distance: 0.1}, // score 90
				{Document: doc("mid", "mid"), Distance: 0.3},   // score 70, below 80
			}

			results, err := engine.ImageSearch(ctx, []byte("reference"))
			Expect(err).NotTo(HaveOccurred())

			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal("near"))
		})
	})

	Describe("URLSearch", func() {
		It("fetches the reference image and searches visually", func() {
			fetcher.Responses["https://example.com/ref.jpg"] = []byte("ref-bytes")
			images.Results = []vector.QueryResult{
				{Document: doc("hit", "hit"), Distance: 0.05},
			}

			results, err := engine.URLSearch(ctx, "https://example.com/ref.jpg")
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))

			// The reference image must not be indexed or stored.
			Expect(store.Blobs).To(BeEmpty())
			Expect(images.Docs).To(BeEmpty())
		})

		It("fails when the reference cannot be fetched", func() {
			_, err := engine.URLSearch(ctx, "https://example.com/missing.jpg")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ListAll", func() {
		It("returns every indexed record in insertion order", func() {
			Expect(images.Insert(ctx, []vector.Document{doc("one", "first")})).To(Succeed())
			Expect(images.Insert(ctx, []vector.Document{doc("two", "second")})).To(Succeed())

			records, err := engine.ListAll(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(records).To(HaveLen(2))
			Expect(records[0].ID).To(Equal("one"))
			Expect(records[1].ID).To(Equal("two"))
		})

		It("returns empty for an empty index", func() {
			records, err := engine.ListAll(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})
	})

	Describe("Delete", func() {
		var d vector.Document

		BeforeEach(func() {
			d = doc("victim", "doomed")
			Expect(images.Insert(ctx, []vector.Document{d})).To(Succeed())
			Expect(texts.Insert(ctx, []vector.Document{d})).To(Succeed())
			store.Blobs[objectstore.ImageKey("victim")] = []byte("blob")
		})

		It("removes the blob and both index entries", func() {
			Expect(engine.Delete(ctx, "victim")).To(Succeed())

			Expect(store.Blobs).To(BeEmpty())
			Expect(images.Docs).To(BeEmpty())
			Expect(texts.Docs).To(BeEmpty())
		})

		It("publishes a deleted event", func() {
			Expect(engine.Delete(ctx, "victim")).To(Succeed())

			Expect(publisher.Events).To(HaveLen(1))
			Expect(publisher.Events[0].EventType).To(Equal(eventstream.EventTypeImageDeleted))
			Expect(publisher.Events[0].ImageID).To(Equal("victim"))
		})

		It("returns NotFoundError for unknown ids", func() {
			err := engine.Delete(ctx, "ghost")
			Expect(err).To(HaveOccurred())
			Expect(err).To(BeAssignableToTypeOf(search.NotFoundError{}))
		})

		It("returns NotFoundError on repeat deletes", func() {
			Expect(engine.Delete(ctx, "victim")).To(Succeed())

			err := engine.Delete(ctx, "victim")
			Expect(err).To(BeAssignableToTypeOf(search.NotFoundError{}))
		})

		It("leaves the index intact when the blob delete fails", func() {
			store.FailDelete = true

			Expect(engine.Delete(ctx, "victim")).NotTo(Succeed())

			Expect(images.Docs).To(HaveKey("victim"))
			Expect(texts.Docs).To(HaveKey("victim"))
		})

		It("succeeds when the image has no text entry", func() {
			Expect(texts.Delete(ctx, []string{"victim"})).To(Succeed())
			texts.DeletedIDs = nil

			Expect(engine.Delete(ctx, "victim")).To(Succeed())
			Expect(images.Docs).To(BeEmpty())
		})
	})
})
