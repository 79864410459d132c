package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/index"
	"github.com/pixelheap/imagedex/pkg/search"
)

// Server is the API server for indexing and querying images.
type Server struct {
	config  Config
	indexer *index.Indexer
	engine  *search.Engine
	logger  *zap.Logger
	app     *fiber.App
}

// NewServer creates a new API server. The indexer and engine are injected
// so they can be shared with other components.
func NewServer(config Config, indexer *index.Indexer, engine *search.Engine, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             64 * 1024 * 1024,
	})

	app.Use(cors.New())

	s := &Server{
		config:  config,
		indexer: indexer,
		engine:  engine,
		logger:  logger,
		app:     app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/v1/images", s.handleAddImage)
	app.Get("/v1/images", s.handleListImages)
	app.Delete("/v1/images/:id", s.handleDeleteImage)
	app.Get("/v1/search/text", s.handleTextSearch)
	app.Post("/v1/search/url", s.handleURLSearch)
	app.Post("/v1/search/image", s.handleImageSearch)

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
