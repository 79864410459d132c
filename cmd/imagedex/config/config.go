// Package configcmder provides the config command for managing persistent
// imagedex configuration stored in the .imagedex/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent imagedex configuration.

Configuration is stored as config.toml in the .imagedex/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values.

Keys use dotted notation matching the TOML section structure:
  api.listen,
  object_store.endpoint, object_store.bucket, object_store.access_key,
  vector_store.provider, vector_store.target,
  encoder.provider, encoder.target, encoder.embed_model,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  imagedex config set <key> <value>    Set a configuration value
  imagedex config get <key>            Get a configuration value
  imagedex config list                 List all configuration values

Examples:
  imagedex config set vector_store.provider qdrant
  imagedex config set encoder.embed_model nomic-embed-vision
  imagedex config get object_store.bucket
  imagedex config list`

const configShortDesc string = "Manage persistent imagedex configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
