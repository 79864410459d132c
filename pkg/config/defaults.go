package config

const (
	defaultAPIListen = ":8090"

	defaultObjectStoreEndpoint = "localhost:9000"
	defaultObjectStoreBucket   = "imagedex-images"

	defaultVectorProvider  = "chroma"
	defaultVectorTarget    = "http://localhost:8000"
	defaultImageCollection = "image_collection"
	defaultTextCollection  = "text_collection"

	defaultEncoderProvider    = "ollama"
	defaultEncoderTarget      = "http://localhost:11434"
	defaultEmbedModel         = "nomic-embed-vision"
	defaultCaptionModel       = "llava"
	defaultEncoderDimensions  = 768
	defaultEncoderMaxInflight = 4

	defaultEventsProvider = "nop"
	defaultEventsTopic    = "imagedex.images"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		ObjectStore: ObjectStoreConfig{
			Endpoint: defaultObjectStoreEndpoint,
			Bucket:   defaultObjectStoreBucket,
		},
		VectorStore: VectorStoreConfig{
			Provider:        defaultVectorProvider,
			Target:          defaultVectorTarget,
			ImageCollection: defaultImageCollection,
			TextCollection:  defaultTextCollection,
		},
		Encoder: EncoderConfig{
			Provider:     defaultEncoderProvider,
			Target:       defaultEncoderTarget,
			EmbedModel:   defaultEmbedModel,
			CaptionModel: defaultCaptionModel,
			Dimensions:   defaultEncoderDimensions,
			MaxInflight:  defaultEncoderMaxInflight,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Topic:    defaultEventsTopic,
		},
	}
}
