package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	BackendGemini = "gemini"
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

// Config holds the application configuration
type Config struct {
	Env     string       `yaml:"env" env:"SYS2DOC_ENV" env-default:"local"`
	Listen  string       `yaml:"listen" env:"SYS2DOC_LISTEN" env-default:":8501"`
	Backend string       `yaml:"backend" env:"SYS2DOC_BACKEND" env-default:"gemini"`
	Gemini  GeminiConfig `yaml:"gemini"`
	Ollama  OllamaConfig `yaml:"ollama"`
	OpenAI  OpenAIConfig `yaml:"openai"`
	Intake  IntakeConfig `yaml:"intake"`
	Page    PageConfig   `yaml:"page"`
	Limits  LimitsConfig `yaml:"limits"`
}

// GeminiConfig configures the Google Generative AI backend
type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GOOGLE_API_KEY"`
	Model  string `yaml:"model" env:"GEMINI_MODEL" env-default:"gemini-1.5-flash"`
}

// OllamaConfig configures a local Ollama server
type OllamaConfig struct {
	URL   string `yaml:"url" env:"OLLAMA_URL" env-default:"http://localhost:11434"`
	Model string `yaml:"model" env:"OLLAMA_MODEL" env-default:"llava"`
}

// OpenAIConfig configures any OpenAI-compatible chat completions endpoint
type OpenAIConfig struct {
	URL    string `yaml:"url" env:"OPENAI_BASE_URL" env-default:"https://api.openai.com/v1/"`
	APIKey string `yaml:"api_key" env:"OPENAI_API_KEY"`
	Model  string `yaml:"model" env:"OPENAI_MODEL" env-default:"gpt-4o-mini"`
}

// IntakeConfig holds limits for image uploads and downloads
type IntakeConfig struct {
	SupportedFormats []string      `yaml:"supported_formats" env:"SYS2DOC_FORMATS" env-default:"png,jpg,jpeg"`
	MaxBytes         int64         `yaml:"max_bytes" env:"SYS2DOC_MAX_BYTES" env-default:"20971520"`
	MaxPixels        int64         `yaml:"max_pixels" env:"SYS2DOC_MAX_PIXELS" env-default:"89478485"`
	FetchTimeout     time.Duration `yaml:"fetch_timeout" env:"SYS2DOC_FETCH_TIMEOUT" env-default:"30s"`
	SendFormat       string        `yaml:"send_format" env:"SYS2DOC_SEND_FORMAT" env-default:"png"`
	SendMaxSide      int           `yaml:"send_max_side" env:"SYS2DOC_SEND_MAX_SIDE" env-default:"0"`
	SendQuality      int           `yaml:"send_quality" env:"SYS2DOC_SEND_QUALITY" env-default:"90"`
}

// PageConfig holds presentation settings
type PageConfig struct {
	ThumbnailWidth int `yaml:"thumbnail_width" env:"SYS2DOC_THUMBNAIL_WIDTH" env-default:"250"`
}

// LimitsConfig guards the remote model API
type LimitsConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"SYS2DOC_RPM" env-default:"0"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"SYS2DOC_REQUEST_TIMEOUT" env-default:"5m"`
}

// Load reads configuration from the YAML file at path when it exists and from
// the environment otherwise. A .env file in the working directory is loaded
// first so GOOGLE_API_KEY can live there.
func Load(path string) (*Config, error) {
	// Missing .env is fine
	_ = godotenv.Load()

	var cfg Config
	var err error
	if path != "" && fileExists(path) {
		err = cleanenv.ReadConfig(path, &cfg)
	} else {
		err = cleanenv.ReadEnv(&cfg)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(&cfg, nil)
		return nil, fmt.Errorf("config: %w; %s", err, desc)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// MustLoad is Load that exits the process on error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendGemini:
		if c.Gemini.APIKey == "" {
			return errors.New("gemini backend requires GOOGLE_API_KEY")
		}
		if c.Gemini.Model == "" {
			return errors.New("gemini.model cannot be empty")
		}
	case BackendOllama:
		if c.Ollama.URL == "" || c.Ollama.Model == "" {
			return errors.New("ollama backend requires ollama.url and ollama.model")
		}
	case BackendOpenAI:
		if c.OpenAI.Model == "" {
			return errors.New("openai.model cannot be empty")
		}
	default:
		return fmt.Errorf("unknown backend %q (use gemini, ollama or openai)", c.Backend)
	}

	if len(c.Intake.SupportedFormats) == 0 {
		return errors.New("intake.supported_formats cannot be empty")
	}

	if c.Intake.MaxBytes < 1 {
		return errors.New("intake.max_bytes must be positive")
	}

	if c.Intake.MaxPixels < 0 {
		return errors.New("intake.max_pixels cannot be negative")
	}

	if c.Intake.SendFormat != "png" && c.Intake.SendFormat != "jpeg" && c.Intake.SendFormat != "jpg" {
		return fmt.Errorf("intake.send_format must be png or jpeg, got %q", c.Intake.SendFormat)
	}

	if c.Intake.SendQuality < 1 || c.Intake.SendQuality > 100 {
		return errors.New("intake.send_quality must be between 1 and 100")
	}

	if c.Intake.SendMaxSide < 0 {
		return errors.New("intake.send_max_side cannot be negative")
	}

	if c.Page.ThumbnailWidth < 1 {
		return errors.New("page.thumbnail_width must be positive")
	}

	if c.Limits.RequestsPerMinute < 0 {
		return errors.New("limits.requests_per_minute cannot be negative")
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
