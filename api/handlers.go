package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/encoder"
	"github.com/pixelheap/imagedex/pkg/fetch"
	"github.com/pixelheap/imagedex/pkg/search"
)

// ErrorResponse is the JSON body returned for every error status.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AddImageRequest is the body for POST /v1/images.
type AddImageRequest struct {
	URL string `json:"url"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleAddImage ingests the image at the given URL and returns the stored
// record.
func (s *Server) handleAddImage(c *fiber.Ctx) error {
	var req AddImageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.URL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "url is required"})
	}

	rec, err := s.indexer.Add(c.Context(), req.URL)
	if err != nil {
		s.logger.Error("failed to index image",
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return s.errorStatus(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(rec)
}

// handleListImages returns every indexed record.
func (s *Server) handleListImages(c *fiber.Ctx) error {
	records, err := s.engine.ListAll(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list images"})
	}

	return c.JSON(fiber.Map{
		"count":  len(records),
		"images": records,
	})
}

// handleDeleteImage removes an image from the object store and both index
// collections.
func (s *Server) handleDeleteImage(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "id parameter required"})
	}

	if err := s.engine.Delete(c.Context(), id); err != nil {
		var notFound search.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: err.Error()})
		}
		s.logger.Error("failed to delete image",
			zap.String("image_id", id),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete image"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// errorStatus maps pipeline errors to HTTP statuses: unreachable or
// undecodable inputs are the client's problem, everything else is ours.
func (s *Server) errorStatus(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, fetch.ErrFetch):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: err.Error()})
	case errors.Is(err, encoder.ErrEncoding):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(ErrorResponse{Error: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}
}
