package models

// Config is the service configuration loaded from config.yaml, with
// environment-variable overrides applied in main.
type Config struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	AI AIConfig `yaml:"ai"`

	// Categories is the expense-category taxonomy handed to the extraction
	// prompt; AI-suggested classifications are constrained to this list.
	Categories []string `yaml:"categories"`
}

// AIConfig selects and configures the extraction providers.
type AIConfig struct {
	OpenAI OpenAIConfig `yaml:"openai"`
	Gemini GeminiConfig `yaml:"gemini"`

	DefaultProvider string `yaml:"default_provider"` // "openai" or "gemini"
}

type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}
