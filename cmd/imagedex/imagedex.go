// Package imagedexcmder
package imagedexcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/pixelheap/imagedex/cmd/imagedex/config"
	servecmder "github.com/pixelheap/imagedex/cmd/imagedex/serve"
	versioncmder "github.com/pixelheap/imagedex/cmd/version"
)

const imagedexLongDesc string = `Imagedex indexes images for multi-modal retrieval.

Submit images by URL and they are captioned, embedded, and stored; search
them later by free text or by reference image.

Run the service using:
  imagedex serve       Run the API server

Manage configuration using:
  imagedex config      Get, set, and list configuration values`

const imagedexShortDesc string = "Imagedex - Multi-modal Image Index"

func NewImagedexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imagedex",
		Short: imagedexShortDesc,
		Long:  imagedexLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .imagedex/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
