package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Selector backends.
const (
	BackendGemini = "gemini"
	BackendOllama = "ollama"
)

type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	GeminiModel  string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`

	SelectorBackend string `env:"SELECTOR_BACKEND" envDefault:"gemini"`

	OllamaBaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost"`
	OllamaPort    int    `env:"OLLAMA_PORT"     envDefault:"11434"`
	OllamaModel   string `env:"OLLAMA_MODEL"    envDefault:"llama3.2-vision:11b"`

	OutputDir   string `env:"OUTPUT_DIR"   envDefault:"output_frames"`
	JPEGQuality int    `env:"JPEG_QUALITY" envDefault:"4"` // ffmpeg qscale:v, 2 (best) to 31
	LogLevel    string `env:"LOG_LEVEL"    envDefault:"info"`
}

// Load reads the environment (plus an optional .env file) into a Config.
// Validation runs separately so CLI flags can override fields first.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.SelectorBackend {
	case BackendGemini:
		if strings.TrimSpace(c.GeminiAPIKey) == "" {
			return fmt.Errorf("Gemini API key is required (set GEMINI_API_KEY)")
		}
	case BackendOllama:
		if strings.TrimSpace(c.OllamaModel) == "" {
			return fmt.Errorf("Ollama model is required (set OLLAMA_MODEL)")
		}
	default:
		return fmt.Errorf("unknown selector backend %q (want %q or %q)", c.SelectorBackend, BackendGemini, BackendOllama)
	}

	if c.JPEGQuality < 2 || c.JPEGQuality > 31 {
		return fmt.Errorf("JPEG quality must be between 2 and 31, got %d", c.JPEGQuality)
	}
	return nil
}
