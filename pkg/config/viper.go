package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/pixelheap/imagedex/pkg/dotdir"
)

// InitViper creates and returns a configured *viper.Viper.
// It sets defaults from NewDefaultConfig(), reads the config.toml file
// (if found via dotdir resolution), and binds environment variables
// with the IMAGEDEX_ prefix.
//
// Config precedence (highest to lowest):
//  1. CLI flags (once bound by the command layer)
//  2. Environment variables (IMAGEDEX_API_LISTEN, IMAGEDEX_ENCODER_TARGET, etc.)
//  3. config.toml file values
//  4. Defaults from NewDefaultConfig()
func InitViper(configDir string) (*viper.Viper, error) {
	v := viper.New()

	// 1. Register all defaults from NewDefaultConfig().
	setViperDefaults(v)

	// 2. Config file discovery via dotdir resolution.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	ddm := dotdir.NewManager()
	target, err := ddm.Target(configDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config dir: %w", err)
	}

	if target != "" {
		v.AddConfigPath(target)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found errors are fine, defaults will apply.
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// 3. Environment variables: IMAGEDEX_OBJECT_STORE_ENDPOINT, etc.
	v.SetEnvPrefix("IMAGEDEX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

// ConfigFromViper materializes a Config from a viper instance built by
// InitViper, folding in file values, environment overrides, and defaults.
func ConfigFromViper(v *viper.Viper) *Config {
	return &Config{
		Version: v.GetInt("version"),
		API: APIConfig{
			Listen: v.GetString("api.listen"),
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint:  v.GetString("object_store.endpoint"),
			AccessKey: v.GetString("object_store.access_key"),
			SecretKey: v.GetString("object_store.secret_key"),
			Bucket:    v.GetString("object_store.bucket"),
			UseSSL:    v.GetBool("object_store.use_ssl"),
			PublicURL: v.GetString("object_store.public_url"),
		},
		VectorStore: VectorStoreConfig{
			Provider:        v.GetString("vector_store.provider"),
			Target:          v.GetString("vector_store.target"),
			ImageCollection: v.GetString("vector_store.image_collection"),
			TextCollection:  v.GetString("vector_store.text_collection"),
			SQLitePath:      v.GetString("vector_store.sqlite_path"),
		},
		Encoder: EncoderConfig{
			Provider:     v.GetString("encoder.provider"),
			Target:       v.GetString("encoder.target"),
			EmbedModel:   v.GetString("encoder.embed_model"),
			CaptionModel: v.GetString("encoder.caption_model"),
			Dimensions:   v.GetUint("encoder.dimensions"),
			MaxInflight:  v.GetUint("encoder.max_inflight"),
		},
		Events: EventsConfig{
			Provider: v.GetString("events.provider"),
			Brokers:  v.GetString("events.brokers"),
			Topic:    v.GetString("events.topic"),
		},
	}
}

// setViperDefaults registers defaults from NewDefaultConfig() into viper
// using dotted-key notation. This keeps defaults.go as the single source of truth.
func setViperDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("version", d.Version)

	// API
	v.SetDefault("api.listen", d.API.Listen)

	// Object store
	v.SetDefault("object_store.endpoint", d.ObjectStore.Endpoint)
	v.SetDefault("object_store.access_key", d.ObjectStore.AccessKey)
	v.SetDefault("object_store.secret_key", d.ObjectStore.SecretKey)
	v.SetDefault("object_store.bucket", d.ObjectStore.Bucket)
	v.SetDefault("object_store.use_ssl", d.ObjectStore.UseSSL)
	v.SetDefault("object_store.public_url", d.ObjectStore.PublicURL)

	// Vector store
	v.SetDefault("vector_store.provider", d.VectorStore.Provider)
	v.SetDefault("vector_store.target", d.VectorStore.Target)
	v.SetDefault("vector_store.image_collection", d.VectorStore.ImageCollection)
	v.SetDefault("vector_store.text_collection", d.VectorStore.TextCollection)
	v.SetDefault("vector_store.sqlite_path", d.VectorStore.SQLitePath)

	// Encoder
	v.SetDefault("encoder.provider", d.Encoder.Provider)
	v.SetDefault("encoder.target", d.Encoder.Target)
	v.SetDefault("encoder.embed_model", d.Encoder.EmbedModel)
	v.SetDefault("encoder.caption_model", d.Encoder.CaptionModel)
	v.SetDefault("encoder.dimensions", d.Encoder.Dimensions)
	v.SetDefault("encoder.max_inflight", d.Encoder.MaxInflight)

	// Events
	v.SetDefault("events.provider", d.Events.Provider)
	v.SetDefault("events.brokers", d.Events.Brokers)
	v.SetDefault("events.topic", d.Events.Topic)
}
