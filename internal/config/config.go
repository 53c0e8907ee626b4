package config

// Engine names accepted by AnnotatorConfig.Engine.
const (
	EngineLexicon = "lexicon"
	EngineRemote  = "remote"
	EngineGemini  = "gemini"
)

// Feature shapes accepted by AnnotatorConfig.FeatureShape.
const (
	// FeatureShapeMapping keeps every feature as a name/value pair.
	FeatureShapeMapping = "mapping"
	// FeatureShapeSet reproduces the legacy output: a deduplicated list of
	// feature values with the names dropped.
	FeatureShapeSet = "set"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Annotator AnnotatorConfig `mapstructure:"annotator" validate:"required"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Remote    RemoteConfig    `mapstructure:"remote"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port                   int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel               string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	MaxBodyBytes           int64  `mapstructure:"max_body_bytes" validate:"gt=0"`
	ShutdownTimeoutSeconds int    `mapstructure:"shutdown_timeout_seconds" validate:"gte=0"`
}

// AnnotatorConfig selects the annotation engine and the output feature shape.
type AnnotatorConfig struct {
	Engine       string `mapstructure:"engine" validate:"required,oneof=lexicon remote gemini"`
	FeatureShape string `mapstructure:"feature_shape" validate:"required,oneof=mapping set"`
}

// LLMConfig contains the settings of the Gemini-backed engine.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	ModelName    string `mapstructure:"model_name"`
	// PromptTemplatePath overrides the built-in prompt when set.
	PromptTemplatePath string `mapstructure:"prompt_template_path" validate:"omitempty,file"`
}

// RemoteConfig contains the settings of the sidecar HTTP engine.
type RemoteConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
	// TimeoutSeconds bounds a single sidecar call; zero means no client-side limit.
	TimeoutSeconds int `mapstructure:"timeout_seconds" validate:"gte=0"`
}
