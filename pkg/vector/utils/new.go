// Package vectorutils provides factory functions for creating vector drivers
// from configuration.
package vectorutils

import (
	"fmt"
	"net"
	"strconv"

	"go.uber.org/zap"

	"github.com/pixelheap/imagedex/pkg/config"
	"github.com/pixelheap/imagedex/pkg/vector"
	"github.com/pixelheap/imagedex/pkg/vector/chroma"
	"github.com/pixelheap/imagedex/pkg/vector/qdrant"
	"github.com/pixelheap/imagedex/pkg/vector/sqlitevec"
)

// NewVectorDriver creates a vector driver for the named collection based on
// the configured provider. Each collection gets its own driver instance.
func NewVectorDriver(cfg config.VectorStoreConfig, dimensions uint, collection string, logger *zap.Logger) (vector.Driver, error) {
	switch cfg.Provider {
	case "chroma":
		return chroma.NewDriver(chroma.Config{
			URL:        cfg.Target,
			Collection: collection,
		}, logger)
	case "qdrant":
		host, port, err := splitTarget(cfg.Target)
		if err != nil {
			return nil, fmt.Errorf("parsing qdrant target: %w", err)
		}
		return qdrant.NewDriver(qdrant.Config{
			Host:       host,
			Port:       port,
			Collection: collection,
			Dimensions: dimensions,
		}, logger)
	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     cfg.SQLitePath,
			Collection: collection,
			Dimensions: dimensions,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown vector store provider: %q", cfg.Provider)
	}
}

// splitTarget parses a host:port target, defaulting the port to the Qdrant
// gRPC port when absent.
func splitTarget(target string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(target)
	if err != nil {
		return target, 6334, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid port %q: %w", portStr, err)
	}
	return host, port, nil
}
