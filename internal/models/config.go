package models

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// Voice capture config
	Voice VoiceConfig `yaml:"voice"`

	// AI config
	AI AIConfig `yaml:"ai"`

	// Export config
	Export ExportConfig `yaml:"export"`

	// Backend gateway config
	Gateway GatewayConfig `yaml:"gateway"`
}

// VoiceConfig tunes the speech session state machine
type VoiceConfig struct {
	SilenceTimeoutMS int `yaml:"silence_timeout_ms"` // auto-stop after this much silence (default: 3000)
	MinTranscriptLen int `yaml:"min_transcript_len"` // minimum final transcript length worth extracting (default: 10)
}

// AIConfig represents AI provider configuration
type AIConfig struct {
	// OpenAI
	OpenAI OpenAIConfig `yaml:"openai"`

	// Gemini
	Gemini GeminiConfig `yaml:"gemini"`

	// Default provider
	DefaultProvider string `yaml:"default_provider"` // "openai", "gemini", "heuristic"
}

// OpenAIConfig for OpenAI/Azure OpenAI
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"` // For custom endpoints
	Model   string `yaml:"model"`              // Default: "gpt-4o-mini"
	Whisper string `yaml:"whisper"`            // Transcription model, default: "whisper-1"
}

// GeminiConfig for Google Gemini
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"` // Default: "gemini-1.5-flash"
}

// ExportConfig bounds document rendering
type ExportConfig struct {
	RenderTimeoutMS int    `yaml:"render_timeout_ms"` // per-document deadline (default: 10000)
	ArchiveExports  bool   `yaml:"archive_exports"`   // upload rendered files to object storage
	Currency        string `yaml:"currency"`          // display symbol, default: "$"
}

// GatewayConfig points at the backend invoice API
type GatewayConfig struct {
	BaseURL   string `yaml:"base_url"`
	TimeoutMS int    `yaml:"timeout_ms"` // per-request deadline (default: 15000)
}
