package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/pixelheap/imagedex/pkg/encoder"
	"github.com/pixelheap/imagedex/pkg/encoder/ollama"
)

func TestOllama(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ollama Encoder Suite")
}

var _ = Describe("Encoder", func() {
	var (
		server *httptest.Server
		enc    *ollama.Encoder
		ctx    context.Context

		embedBody    map[string]any
		generateBody map[string]any
		embedStatus  int
		embeddings   [][]float32
		caption      string
	)

	BeforeEach(func() {
		ctx = context.Background()
		embedStatus = http.StatusOK
		embeddings = [][]float32{{3, 4}}
		caption = "  a red square on white background \n"
		embedBody = nil
		generateBody = nil

		mux := http.NewServeMux()
		mux.HandleFunc("/api/embed", func(w http.ResponseWriter, r *http.Request) {
			Expect(json.NewDecoder(r.Body).Decode(&embedBody)).To(Succeed())
			if embedStatus != http.StatusOK {
				w.WriteHeader(embedStatus)
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"embeddings": embeddings})
		})
		mux.HandleFunc("/api/generate", func(w http.ResponseWriter, r *http.Request) {
			Expect(json.NewDecoder(r.Body).Decode(&generateBody)).To(Succeed())
			json.NewEncoder(w).Encode(map[string]any{"response": caption})
		})
		server = httptest.NewServer(mux)

		var err error
		enc, err = ollama.NewEncoder(ollama.Config{
			BaseURL:      server.URL,
			EmbedModel:   "embed-test",
			CaptionModel: "caption-test",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
		enc.Close()
	})

	Describe("EncodeText", func() {
		It("sends the text as input and normalizes the result", func() {
			vec, err := enc.EncodeText(ctx, "a dog")
			Expect(err).NotTo(HaveOccurred())

			Expect(embedBody["model"]).To(Equal("embed-test"))
			Expect(embedBody["input"]).To(Equal("a dog"))

			Expect(vec).To(HaveLen(2))
			Expect(vec[0]).To(BeNumerically("~", 0.6, 1e-6))
			Expect(vec[1]).To(BeNumerically("~", 0.8, 1e-6))
		})

		It("wraps upstream failures in ErrEncoding", func() {
			embedStatus = http.StatusInternalServerError

			_, err := enc.EncodeText(ctx, "a dog")
			Expect(err).To(HaveOccurred())
			Expect(errors.Is(err, encoder.ErrEncoding)).To(BeTrue())
		})

		It("fails when no embeddings come back", func() {
			embeddings = [][]float32{}

			_, err := enc.EncodeText(ctx, "a dog")
			Expect(errors.Is(err, encoder.ErrEncoding)).To(BeTrue())
		})
	})

	Describe("EncodeImage", func() {
		It("sends the image base64-encoded", func() {
			_, err := enc.EncodeImage(ctx, []byte{0xFF, 0xD8, 0xFF})
			Expect(err).NotTo(HaveOccurred())

			images, ok := embedBody["images"].([]any)
			Expect(ok).To(BeTrue())
			Expect(images).To(HaveLen(1))
			Expect(images[0]).To(Equal("/9j/")) // base64 of FF D8 FF
		})

		It("rejects empty input without calling the model", func() {
			_, err := enc.EncodeImage(ctx, nil)
			Expect(errors.Is(err, encoder.ErrEncoding)).To(BeTrue())
			Expect(embedBody).To(BeNil())
		})

		It("enforces configured dimensions", func() {
			strict, err := ollama.NewEncoder(ollama.Config{
				BaseURL:    server.URL,
				Dimensions: 3,
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = strict.EncodeImage(ctx, []byte{1})
			Expect(errors.Is(err, encoder.ErrEncoding)).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("dimensions"))
		})
	})

	Describe("Caption", func() {
		It("returns the trimmed model response", func() {
			got, err := enc.Caption(ctx, []byte{1, 2, 3})
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("a red square on white background"))

			Expect(generateBody["model"]).To(Equal("caption-test"))
			Expect(generateBody["prompt"]).NotTo(BeEmpty())
			Expect(generateBody["stream"]).To(Equal(false))
		})

		It("rejects empty input", func() {
			_, err := enc.Caption(ctx, nil)
			Expect(errors.Is(err, encoder.ErrEncoding)).To(BeTrue())
		})
	})
})
