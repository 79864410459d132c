package api

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/search"
)

// SearchResponse is the body returned by every search endpoint.
type SearchResponse struct {
	Query        string          `json:"query,omitempty"`
	Results      []search.Result `json:"results"`
	TotalResults int             `json:"total_results"`
}

// URLSearchRequest is the body for POST /v1/search/url.
type URLSearchRequest struct {
	URL string `json:"url"`
}

// handleTextSearch handles GET /v1/search/text requests.
// Query parameters:
//   - query (required): the free text to search captions with
func (s *Server) handleTextSearch(c *fiber.Ctx) error {
	query := c.Query("query")
	if query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query parameter is required"})
	}

	results, err := s.engine.TextSearch(c.Context(), query)
	if err != nil {
		s.logger.Error("text search failed",
			zap.String("query", query),
			zap.Error(err),
		)
		return s.errorStatus(c, err)
	}

	return c.JSON(SearchResponse{
		Query:        query,
		Results:      results,
		TotalResults: len(results),
	})
}

// handleURLSearch finds indexed images visually similar to the image at
// the given URL. The reference image is not indexed.
func (s *Server) handleURLSearch(c *fiber.Ctx) error {
	var req URLSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "url is required"})
	}

	results, err := s.engine.URLSearch(c.Context(), req.URL)
	if err != nil {
		s.logger.Error("url search failed",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return s.errorStatus(c, err)
	}

	return c.JSON(SearchResponse{
		Query:        req.URL,
		Results:      results,
		TotalResults: len(results),
	})
}

// handleImageSearch finds indexed images visually similar to an uploaded
// reference image. Expects a multipart form with an "image" file field.
func (s *Server) handleImageSearch(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "image file is required"})
	}

	f, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "failed to open uploaded file"})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "failed to read uploaded file"})
	}

	results, err := s.engine.ImageSearch(c.Context(), data)
	if err != nil {
		s.logger.Error("image search failed",
			zap.String("filename", file.Filename),
			zap.Error(err),
		)
		return s.errorStatus(c, err)
	}

	return c.JSON(SearchResponse{
		Results:      results,
		TotalResults: len(results),
	})
}
