// Package servecmder provides the serve command for running the API server.
package servecmder

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/api"
	"github.com/pixelheap/imagedex/pkg/config"
	"github.com/pixelheap/imagedex/pkg/encoder"
	"github.com/pixelheap/imagedex/pkg/encoder/ollama"
	eventstreamutils "github.com/pixelheap/imagedex/pkg/eventstream/utils"
	"github.com/pixelheap/imagedex/pkg/fetch"
	"github.com/pixelheap/imagedex/pkg/index"
	"github.com/pixelheap/imagedex/pkg/logger"
	miniostore "github.com/pixelheap/imagedex/pkg/objectstore/minio"
	"github.com/pixelheap/imagedex/pkg/search"
	vectorutils "github.com/pixelheap/imagedex/pkg/vector/utils"
)

type ServeCommander struct {
	listen    string
	configDir string
	debug     bool
	logger    *zap.Logger
}

const serveLongDesc string = `Run the imagedex API server.

The server ingests images submitted by URL, stores the originals in the
object store, and indexes caption and visual embeddings for search.

Configuration comes from config.toml in the .imagedex/ directory and
IMAGEDEX_* environment variables. The --listen flag overrides the
configured address.`

const serveShortDesc string = "Run the imagedex API server"

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			return cmder.run()
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address for the API server to listen on")

	return cmd
}

func (c *ServeCommander) run() error {
	c.logger = logger.NewLogger(c.debug)
	defer c.logger.Sync()

	v, err := config.InitViper(c.configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.ConfigFromViper(v)

	listen := cfg.API.Listen
	if c.listen != "" {
		listen = c.listen
	}

	ctx := context.Background()

	store, err := miniostore.NewStore(miniostore.Config{
		Endpoint:  cfg.ObjectStore.Endpoint,
		AccessKey: cfg.ObjectStore.AccessKey,
		SecretKey: cfg.ObjectStore.SecretKey,
		Bucket:    cfg.ObjectStore.Bucket,
		UseSSL:    cfg.ObjectStore.UseSSL,
		PublicURL: cfg.ObjectStore.PublicURL,
	}, c.logger)
	if err != nil {
		return fmt.Errorf("creating object store: %w", err)
	}
	defer store.Close()

	if err := store.EnsureBucket(ctx); err != nil {
		return fmt.Errorf("ensuring bucket: %w", err)
	}

	images, err := vectorutils.NewVectorDriver(
		cfg.VectorStore, cfg.Encoder.Dimensions, cfg.VectorStore.ImageCollection, c.logger,
	)
	if err != nil {
		return fmt.Errorf("creating image collection driver: %w", err)
	}
	defer images.Close()

	texts, err := vectorutils.NewVectorDriver(
		cfg.VectorStore, cfg.Encoder.Dimensions, cfg.VectorStore.TextCollection, c.logger,
	)
	if err != nil {
		return fmt.Errorf("creating text collection driver: %w", err)
	}
	defer texts.Close()

	enc, err := ollama.NewEncoder(ollama.Config{
		BaseURL:      cfg.Encoder.Target,
		EmbedModel:   cfg.Encoder.EmbedModel,
		CaptionModel: cfg.Encoder.CaptionModel,
		Dimensions:   cfg.Encoder.Dimensions,
	})
	if err != nil {
		return fmt.Errorf("creating encoder: %w", err)
	}
	gated := encoder.NewGate(enc, cfg.Encoder.MaxInflight)
	defer gated.Close()

	publisher, err := eventstreamutils.NewPublisher(cfg.Events, c.logger)
	if err != nil {
		return fmt.Errorf("creating event publisher: %w", err)
	}
	defer publisher.Close()

	fetcher := fetch.NewHTTPFetcher()

	indexer := index.NewIndexer(fetcher, gated, store, images, texts, publisher, c.logger)
	engine := search.NewEngine(fetcher, gated, store, images, texts, publisher, c.logger)

	// Clean up blobs left behind by ingests that crashed mid-pipeline.
	if err := indexer.SweepOrphans(ctx); err != nil {
		c.logger.Warn("orphan sweep failed", zap.Error(err))
	}

	apiServer := api.NewServer(api.Config{ListenAddr: listen}, indexer, engine, c.logger)

	errChan := make(chan error, 1)
	go func() {
		if err := apiServer.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return apiServer.Shutdown()
	}
}
