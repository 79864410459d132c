package sqlitevec_test

import (
	"context"
	"errors"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/vector"
	"github.com/pixelheap/imagedex/pkg/vector/sqlitevec"
)

func TestSQLiteVec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SQLiteVec Driver Suite")
}

var _ = Describe("Driver", func() {
	var logger *zap.Logger

	BeforeEach(func() {
		logger = zap.NewNop()
	})

	Describe("NewDriver", func() {
		It("returns an error when DBPath is empty", func() {
			_, err := sqlitevec.NewDriver(sqlitevec.Config{Collection: "c", Dimensions: 4}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("returns an error when the collection name is empty", func() {
			_, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: ":memory:", Dimensions: 4}, logger)
			Expect(err).To(HaveOccurred())
		})

		It("returns an error when dimensions are not specified", func() {
			_, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: ":memory:", Collection: "c"}, logger)
			Expect(err).To(HaveOccurred())
		})

		It("creates a driver with an in-memory database", func() {
			driver, err := sqlitevec.NewDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Collection: "image_collection",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(driver.Close()).To(Succeed())
		})
	})

	Describe("operations", func() {
		var (
			driver *sqlitevec.Driver
			ctx    context.Context
		)

		BeforeEach(func() {
			var err error
			driver, err = sqlitevec.NewDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Collection: "image_collection",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			ctx = context.Background()
		})

		AfterEach(func() {
			driver.Close()
		})

		It("round-trips documents through Insert and Get", func() {
			err := driver.Insert(ctx, []vector.Document{{
				ID:        "doc-1",
				Embedding: []float32{1, 0, 0, 0},
				Metadata:  map[string]string{"image_id": "doc-1", "mode": "RGB"},
				Text:      "a red square",
			}})
			Expect(err).NotTo(HaveOccurred())

			docs, err := driver.Get(ctx, []string{"doc-1"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].ID).To(Equal("doc-1"))
			Expect(docs[0].Text).To(Equal("a red square"))
			Expect(docs[0].Metadata["mode"]).To(Equal("RGB"))
		})

		It("rejects duplicate ids", func() {
			doc := vector.Document{ID: "dup", Embedding: []float32{1, 0, 0, 0}}
			Expect(driver.Insert(ctx, []vector.Document{doc})).To(Succeed())

			err := driver.Insert(ctx, []vector.Document{doc})
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, vector.ErrDuplicateID)).To(BeTrue())
		})

		It("queries nearest neighbors by cosine distance", func() {
			Expect(driver.Insert(ctx, []vector.Document{
				{ID: "same", Embedding: []float32{1, 0, 0, 0}, Text: "identical"},
				{ID: "orthogonal", Embedding: []float32{0, 1, 0, 0}, Text: "unrelated"},
			})).To(Succeed())

			results, err := driver.Query(ctx, []float32{1, 0, 0, 0}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			Expect(results[0].ID).To(Equal("same"))
			Expect(results[0].Distance).To(BeNumerically("~", 0.0, 1e-5))
			Expect(results[1].ID).To(Equal("orthogonal"))
			Expect(results[1].Distance).To(BeNumerically("~", 1.0, 1e-5))
		})

		It("lists all documents in insertion order", func() {
			Expect(driver.Insert(ctx, []vector.Document{
				{ID: "one", Embedding: []float32{1, 0, 0, 0}},
				{ID: "two", Embedding: []float32{0, 1, 0, 0}},
			})).To(Succeed())

			docs, err := driver.List(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(2))
			Expect(docs[0].ID).To(Equal("one"))
			Expect(docs[1].ID).To(Equal("two"))
		})

		It("deletes documents and their embeddings", func() {
			Expect(driver.Insert(ctx, []vector.Document{
				{ID: "gone", Embedding: []float32{1, 0, 0, 0}},
			})).To(Succeed())

			Expect(driver.Delete(ctx, []string{"gone"})).To(Succeed())

			docs, err := driver.Get(ctx, []string{"gone"})
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())

			results, err := driver.Query(ctx, []float32{1, 0, 0, 0}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("ignores deletes for unknown ids", func() {
			Expect(driver.Delete(ctx, []string{"never-existed"})).To(Succeed())
		})
	})
})
