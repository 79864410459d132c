package configcmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixelheap/imagedex/pkg/config"
)

const setLongDesc string = `Set a configuration value.

Sets the given key to the provided value in the config.toml file
stored in the .imagedex/ directory. Keys use dotted notation matching
the TOML section structure.

Valid keys:
  api.listen,
  object_store.endpoint, object_store.access_key, object_store.secret_key,
  object_store.bucket, object_store.use_ssl, object_store.public_url,
  vector_store.provider, vector_store.target,
  vector_store.image_collection, vector_store.text_collection,
  vector_store.sqlite_path,
  encoder.provider, encoder.target, encoder.embed_model,
  encoder.caption_model, encoder.dimensions, encoder.max_inflight,
  events.provider, events.brokers, events.topic

Examples:
  imagedex config set vector_store.provider qdrant
  imagedex config set vector_store.target localhost:6334
  imagedex config set encoder.dimensions 768`

const setShortDesc string = "Set a configuration value"

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: setShortDesc,
		Long:  setLongDesc,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			return runSet(args[0], args[1], configDir)
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return config.ValidConfigKeys(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
	}

	return cmd
}

func runSet(key, value, configDir string) error {
	if !config.IsValidConfigKey(key) {
		return fmt.Errorf("unknown config key: %q\n\nValid keys: %s",
			key, strings.Join(config.ValidConfigKeys(), ", "))
	}

	cfger, err := config.NewConfiger(configDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	target := cfger.GetTarget()
	if target != "" {
		fmt.Printf("Using config file: %s\n\n", target)
	} else {
		fmt.Print("No config file found. Using defaults.\n\n")
	}

	if err := cfger.SetConfigValue(key, value); err != nil {
		return err
	}

	fmt.Printf("Set %s = %q\n", key, value)
	return nil
}
