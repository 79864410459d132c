package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pixelheap/imagedex/pkg/index"
	"github.com/pixelheap/imagedex/pkg/logger"
	"github.com/pixelheap/imagedex/pkg/record"
	"github.com/pixelheap/imagedex/pkg/search"
	testutils "github.com/pixelheap/imagedex/pkg/utils/test"
	"github.com/pixelheap/imagedex/pkg/vector"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

var _ = Describe("Server", func() {
	const sourceURL = "https://example.com/photo.png"

	var (
		server    *Server
		fetcher   *testutils.MockFetcher
		enc       *testutils.MockEncoder
		store     *testutils.MockObjectStore
		images    *testutils.MockVectorDriver
		texts     *testutils.MockVectorDriver
		publisher *testutils.MockPublisher
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

		png := testutils.NewTestPNG(10, 10)
		fetcher.Responses[sourceURL] = png
		enc.Captions[string(png)] = "a tiny orange square"

		log := logger.Nop()
		indexer := index.NewIndexer(fetcher, enc, store, images, texts, publisher, log)
		engine := search.NewEngine(fetcher, enc, store, images, texts, publisher, log)

		server = NewServer(Config{ListenAddr: ":0"}, indexer, engine, log)
	})

	Describe("GET /ping", func() {
		It("returns pong", func() {
			req, _ := http.NewRequest(http.MethodGet, "/ping", nil)

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(ContainSubstring("pong"))
		})
	})

	Describe("POST /v1/images", func() {
		It("indexes the image and returns 201 with the record", func() {
			req, _ := http.NewRequest(http.MethodPost, "/v1/images",
				strings.NewReader(`{"url": "`+sourceURL+`"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			var rec record.Image
			Expect(json.NewDecoder(resp.Body).Decode(&rec)).To(Succeed())
			Expect(rec.ID).NotTo(BeEmpty())
			Expect(rec.SourceURL).To(Equal(sourceURL))
			Expect(rec.Description).To(Equal("a tiny orange square"))

			Expect(images.Docs).To(HaveKey(rec.ID))
		})

		It("returns 400 for a missing url", func() {
			req, _ := http.NewRequest(http.MethodPost, "/v1/images", strings.NewReader(`{}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 422 for an unreachable source", func() {
			req, _ := http.NewRequest(http.MethodPost, "/v1/images",
				strings.NewReader(`{"url": "https://example.com/gone.jpg"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnprocessableEntity))
		})

		It("returns 422 for undecodable image bytes", func() {
			fetcher.Responses[sourceURL] = []byte("plain text")

			req, _ := http.NewRequest(http.MethodPost, "/v1/images",
				strings.NewReader(`{"url": "`+sourceURL+`"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnprocessableEntity))
		})
	})

	Describe("GET /v1/images", func() {
		It("lists all indexed images", func() {
			rec := record.Image{ID: "one", Description: "first"}
			Expect(images.Insert(ctx, []vector.Document{
				{ID: "one", Metadata: rec.Metadata()},
			})).To(Succeed())

			req, _ := http.NewRequest(http.MethodGet, "/v1/images", nil)

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out struct {
				Count  int            `json:"count"`
				Images []record.Image `json:"images"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.Count).To(Equal(1))
			Expect(out.Images[0].ID).To(Equal("one"))
		})

		It("returns an empty list for an empty index", func() {
			req, _ := http.NewRequest(http.MethodGet, "/v1/images", nil)

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out struct {
				Count int `json:"count"`
			}
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.Count).To(BeZero())
		})
	})

	Describe("DELETE /v1/images/:id", func() {
		It("deletes an indexed image and returns 204", func() {
			rec := record.Image{ID: "victim", Path: store.BaseURL + "/image_victim.jpg"}
			Expect(images.Insert(ctx, []vector.Document{
				{ID: "victim", Metadata: rec.Metadata()},
			})).To(Succeed())
			store.Blobs["image_victim.jpg"] = []byte("blob")

			req, _ := http.NewRequest(http.MethodDelete, "/v1/images/victim", nil)

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

			Expect(images.Docs).To(BeEmpty())
			Expect(store.Blobs).To(BeEmpty())
		})

		It("returns 404 for an unknown id", func() {
			req, _ := http.NewRequest(http.MethodDelete, "/v1/images/ghost", nil)

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})
	})

	Describe("GET /v1/search/text", func() {
		It("returns scored results above the threshold", func() {
			rec := record.Image{ID: "hit", Description: "a cat"}
			Expect(images.Insert(ctx, []vector.Document{
				{ID: "hit", Metadata: rec.Metadata()},
			})).To(Succeed())
			texts.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "hit", Metadata: map[string]string{}}, Distance: 0.1},
			}

			req, _ := http.NewRequest(http.MethodGet, "/v1/search/text?query=cat", nil)

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out SearchResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.Query).To(Equal("cat"))
			Expect(out.TotalResults).To(Equal(1))
			Expect(out.Results[0].Score).To(Equal(90.0))
		})

		It("returns 400 when the query parameter is missing", func() {
			req, _ := http.NewRequest(http.MethodGet, "/v1/search/text", nil)

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("POST /v1/search/url", func() {
		It("searches by reference image URL", func() {
			fetcher.Responses["https://example.com/ref.jpg"] = []byte("ref")
			rec := record.Image{ID: "similar"}
			images.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "similar", Metadata: rec.Metadata()}, Distance: 0.05},
			}

			req, _ := http.NewRequest(http.MethodPost, "/v1/search/url",
				strings.NewReader(`{"url": "https://example.com/ref.jpg"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out SearchResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.TotalResults).To(Equal(1))
			Expect(out.Results[0].ID).To(Equal("similar"))
		})

		It("returns 422 for an unreachable reference", func() {
			req, _ := http.NewRequest(http.MethodPost, "/v1/search/url",
				strings.NewReader(`{"url": "https://example.com/gone.jpg"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusUnprocessableEntity))
		})
	})

	Describe("POST /v1/search/image", func() {
		It("searches by uploaded reference image", func() {
			rec := record.Image{ID: "similar"}
			images.Results = []vector.QueryResult{
				{Document: vector.Document{ID: "similar", Metadata: rec.Metadata()}, Distance: 0.1},
			}

			var buf bytes.Buffer
			writer := multipart.NewWriter(&buf)
			part, err := writer.CreateFormFile("image", "ref.png")
			Expect(err).NotTo(HaveOccurred())
			_, err = part.Write(testutils.NewTestPNG(4, 4))
			Expect(err).NotTo(HaveOccurred())
			Expect(writer.Close()).To(Succeed())

			req, _ := http.NewRequest(http.MethodPost, "/v1/search/image", &buf)
			req.Header.Set("Content-Type", writer.FormDataContentType())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			var out SearchResponse
			Expect(json.NewDecoder(resp.Body).Decode(&out)).To(Succeed())
			Expect(out.TotalResults).To(Equal(1))
		})

		It("returns 400 when the image field is missing", func() {
			var buf bytes.Buffer
			writer := multipart.NewWriter(&buf)
			Expect(writer.Close()).To(Succeed())

			req, _ := http.NewRequest(http.MethodPost, "/v1/search/image", &buf)
			req.Header.Set("Content-Type", writer.FormDataContentType())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})
})
