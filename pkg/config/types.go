package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent imagedex configuration stored as
// config.toml in the .imagedex/ directory. The TOML layout uses sections
// for logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	API         APIConfig         `toml:"api"`
	ObjectStore ObjectStoreConfig `toml:"object_store"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Encoder     EncoderConfig     `toml:"encoder"`
	Events      EventsConfig      `toml:"events"`
}

// APIConfig holds API server settings.
type APIConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// ObjectStoreConfig holds S3-compatible object store settings.
// Works against MinIO, LocalStack, or AWS S3 proper.
type ObjectStoreConfig struct {
	Endpoint  string `toml:"endpoint,omitempty"`
	AccessKey string `toml:"access_key,omitempty"`
	SecretKey string `toml:"secret_key,omitempty"`
	Bucket    string `toml:"bucket,omitempty"`
	UseSSL    bool   `toml:"use_ssl,omitempty"`
	// PublicURL is the base URL used to build dereferenceable blob
	// locators. Defaults to the endpoint when empty.
	PublicURL string `toml:"public_url,omitempty"`
}

// VectorStoreConfig holds vector index settings. Two collections are
// always provisioned: one for visual embeddings, one for caption text
// embeddings.
type VectorStoreConfig struct {
	Provider        string `toml:"provider,omitempty"`
	Target          string `toml:"target,omitempty"`
	ImageCollection string `toml:"image_collection,omitempty"`
	TextCollection  string `toml:"text_collection,omitempty"`
	SQLitePath      string `toml:"sqlite_path,omitempty"`
}

// EncoderConfig holds embedding encoder settings.
type EncoderConfig struct {
	Provider     string `toml:"provider,omitempty"`
	Target       string `toml:"target,omitempty"`
	EmbedModel   string `toml:"embed_model,omitempty"`
	CaptionModel string `toml:"caption_model,omitempty"`
	Dimensions   uint   `toml:"dimensions,omitempty"`
	// MaxInflight caps concurrent model calls. Model inference is the
	// most expensive step in the pipeline.
	MaxInflight uint `toml:"max_inflight,omitempty"`
}

// EventsConfig holds index lifecycle event publisher settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`
	Brokers  string `toml:"brokers,omitempty"`
	Topic    string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"api.listen": {
		get: func(c *Config) string { return c.API.Listen },
		set: func(c *Config, v string) error { c.API.Listen = v; return nil },
	},
	"object_store.endpoint": {
		get: func(c *Config) string { return c.ObjectStore.Endpoint },
		set: func(c *Config, v string) error { c.ObjectStore.Endpoint = v; return nil },
	},
	"object_store.access_key": {
		get: func(c *Config) string { return c.ObjectStore.AccessKey },
		set: func(c *Config, v string) error { c.ObjectStore.AccessKey = v; return nil },
	},
	"object_store.secret_key": {
		get: func(c *Config) string { return c.ObjectStore.SecretKey },
		set: func(c *Config, v string) error { c.ObjectStore.SecretKey = v; return nil },
	},
	"object_store.bucket": {
		get: func(c *Config) string { return c.ObjectStore.Bucket },
		set: func(c *Config, v string) error { c.ObjectStore.Bucket = v; return nil },
	},
	"object_store.use_ssl": {
		get: func(c *Config) string { return strconv.FormatBool(c.ObjectStore.UseSSL) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for object_store.use_ssl: %w", err)
			}
			c.ObjectStore.UseSSL = b
			return nil
		},
	},
	"object_store.public_url": {
		get: func(c *Config) string { return c.ObjectStore.PublicURL },
		set: func(c *Config, v string) error { c.ObjectStore.PublicURL = v; return nil },
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.image_collection": {
		get: func(c *Config) string { return c.VectorStore.ImageCollection },
		set: func(c *Config, v string) error { c.VectorStore.ImageCollection = v; return nil },
	},
	"vector_store.text_collection": {
		get: func(c *Config) string { return c.VectorStore.TextCollection },
		set: func(c *Config, v string) error { c.VectorStore.TextCollection = v; return nil },
	},
	"vector_store.sqlite_path": {
		get: func(c *Config) string { return c.VectorStore.SQLitePath },
		set: func(c *Config, v string) error { c.VectorStore.SQLitePath = v; return nil },
	},
	"encoder.provider": {
		get: func(c *Config) string { return c.Encoder.Provider },
		set: func(c *Config, v string) error { c.Encoder.Provider = v; return nil },
	},
	"encoder.target": {
		get: func(c *Config) string { return c.Encoder.Target },
		set: func(c *Config, v string) error { c.Encoder.Target = v; return nil },
	},
	"encoder.embed_model": {
		get: func(c *Config) string { return c.Encoder.EmbedModel },
		set: func(c *Config, v string) error { c.Encoder.EmbedModel = v; return nil },
	},
	"encoder.caption_model": {
		get: func(c *Config) string { return c.Encoder.CaptionModel },
		set: func(c *Config, v string) error { c.Encoder.CaptionModel = v; return nil },
	},
	"encoder.dimensions": {
		get: func(c *Config) string {
			if c.Encoder.Dimensions == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Encoder.Dimensions), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for encoder.dimensions: %w", err)
			}
			c.Encoder.Dimensions = uint(n)
			return nil
		},
	},
	"encoder.max_inflight": {
		get: func(c *Config) string {
			if c.Encoder.MaxInflight == 0 {
				return ""
			}
			return strconv.FormatUint(uint64(c.Encoder.MaxInflight), 10)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid value for encoder.max_inflight: %w", err)
			}
			c.Encoder.MaxInflight = uint(n)
			return nil
		},
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
