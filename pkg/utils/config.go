package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	Env         string `yaml:"env"`
	Debug       bool   `yaml:"debug"`
	Addr        string `yaml:"addr"`
	APIPrefix   string `yaml:"api_prefix"`
	CORSOrigins string `yaml:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite3 | pgx
	DSN    string `yaml:"dsn"`
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTDuration time.Duration `yaml:"jwt_duration"`
}

type LLMConfig struct {
	Enabled           bool          `yaml:"enabled"`
	BaseURL           string        `yaml:"base_url"`
	PlannerModel      string        `yaml:"planner_model"`
	StoryModel        string        `yaml:"story_model"`
	Timeout           time.Duration `yaml:"timeout"`
	FallbackToDefault bool          `yaml:"fallback_to_default"`
}

type SafetyConfig struct {
	Enabled               bool   `yaml:"enabled"`
	Strict                bool   `yaml:"strict"`
	MaxTextLength         int    `yaml:"max_text_length"`
	MaxScaryTermsPerSlide int    `yaml:"max_scary_terms_per_slide"`
	EnableLLMReview       bool   `yaml:"enable_llm_review"`
	ReviewModel           string `yaml:"review_model"`
	// RejectUnapproved fails story creation when the reviewer explicitly rejects it.
	RejectUnapproved bool `yaml:"reject_unapproved"`
}

type ImagesConfig struct {
	Mode          string `yaml:"mode"` // placeholder | render | off
	Dir           string `yaml:"dir"`
	URLPath       string `yaml:"url_path"`
	PublicBaseURL string `yaml:"public_base_url"`
	Width         int    `yaml:"width"`
	Height        int    `yaml:"height"`
}

type TracingConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// Config holds every setting of the service. It is built once in main and
// passed down explicitly.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	LLM      LLMConfig      `yaml:"llm"`
	Safety   SafetyConfig   `yaml:"safety"`
	Images   ImagesConfig   `yaml:"images"`
	Tracing  TracingConfig  `yaml:"tracing"`
}

const defaultModel = "hf.co/mistralai/Mistral-7B-Instruct-v0.3"

func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Env:         "development",
			Debug:       true,
			Addr:        ":8000",
			APIPrefix:   "/api",
			CORSOrigins: "http://localhost:5173,http://127.0.0.1:5173,http://localhost:8080,http://127.0.0.1:8080",
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			DSN:    "safepath.db",
		},
		Auth: AuthConfig{
			// dev default (change for production)
			JWTSecret:   "dev-secret-change-me",
			JWTIssuer:   "safepath",
			JWTDuration: 24 * time.Hour,
		},
		LLM: LLMConfig{
			Enabled:           true,
			BaseURL:           "http://127.0.0.1:11434",
			PlannerModel:      defaultModel,
			StoryModel:        defaultModel,
			Timeout:           120 * time.Second,
			FallbackToDefault: true,
		},
		Safety: SafetyConfig{
			Enabled:               true,
			MaxTextLength:         320,
			MaxScaryTermsPerSlide: 2,
			ReviewModel:           defaultModel,
		},
		Images: ImagesConfig{
			Mode:          "placeholder",
			Dir:           "generated_images",
			URLPath:       "generated-images",
			PublicBaseURL: "http://127.0.0.1:8000",
			Width:         384,
			Height:        384,
		},
		Tracing: TracingConfig{
			ServiceName: "safepath-api",
		},
	}
}

// LoadConfig reads the optional YAML file at path (missing file is fine) and
// then applies SAFEPATH_* environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
		default:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.App.Env = envString("SAFEPATH_APP_ENV", c.App.Env)
	c.App.Debug = envBool("SAFEPATH_DEBUG", c.App.Debug)
	c.App.Addr = envString("SAFEPATH_ADDR", c.App.Addr)
	c.App.APIPrefix = envString("SAFEPATH_API_PREFIX", c.App.APIPrefix)
	c.App.CORSOrigins = envString("SAFEPATH_CORS_ORIGINS", c.App.CORSOrigins)

	c.Database.Driver = envString("SAFEPATH_DB_DRIVER", c.Database.Driver)
	c.Database.DSN = envString("SAFEPATH_DB_DSN", c.Database.DSN)
	// hosted Postgres (e.g. the Supabase connection string)
	if url := os.Getenv("DATABASE_URL"); url != "" {
		c.Database.Driver = "pgx"
		c.Database.DSN = url
	}

	c.Auth.JWTSecret = envString("SAFEPATH_JWT_SECRET", c.Auth.JWTSecret)
	c.Auth.JWTIssuer = envString("SAFEPATH_JWT_ISSUER", c.Auth.JWTIssuer)
	if h := envInt("SAFEPATH_JWT_EXP_HOURS", 0); h > 0 {
		c.Auth.JWTDuration = time.Duration(h) * time.Hour
	}

	c.LLM.Enabled = envBool("SAFEPATH_OLLAMA_ENABLED", c.LLM.Enabled)
	c.LLM.BaseURL = envString("SAFEPATH_OLLAMA_BASE_URL", c.LLM.BaseURL)
	c.LLM.PlannerModel = envString("SAFEPATH_OLLAMA_MODEL_PLANNER", c.LLM.PlannerModel)
	c.LLM.StoryModel = envString("SAFEPATH_OLLAMA_MODEL_STORY", c.LLM.StoryModel)
	if s := envInt("SAFEPATH_OLLAMA_TIMEOUT_SECONDS", 0); s > 0 {
		c.LLM.Timeout = time.Duration(s) * time.Second
	}
	c.LLM.FallbackToDefault = envBool("SAFEPATH_OLLAMA_FALLBACK_TO_DEFAULT", c.LLM.FallbackToDefault)

	c.Safety.Enabled = envBool("SAFEPATH_SAFETY_CRITIC_ENABLED", c.Safety.Enabled)
	c.Safety.Strict = envBool("SAFEPATH_SAFETY_CRITIC_STRICT", c.Safety.Strict)
	c.Safety.MaxTextLength = envInt("SAFEPATH_SAFETY_CRITIC_MAX_TEXT_LENGTH", c.Safety.MaxTextLength)
	c.Safety.MaxScaryTermsPerSlide = envInt("SAFEPATH_SAFETY_CRITIC_MAX_SCARY_TERMS", c.Safety.MaxScaryTermsPerSlide)
	c.Safety.EnableLLMReview = envBool("SAFEPATH_SAFETY_CRITIC_ENABLE_LLM_REVIEW", c.Safety.EnableLLMReview)
	c.Safety.ReviewModel = envString("SAFEPATH_SAFETY_CRITIC_REVIEW_MODEL", c.Safety.ReviewModel)
	c.Safety.RejectUnapproved = envBool("SAFEPATH_SAFETY_CRITIC_REJECT_UNAPPROVED", c.Safety.RejectUnapproved)

	c.Images.Mode = envString("SAFEPATH_IMAGES_MODE", c.Images.Mode)
	c.Images.Dir = envString("SAFEPATH_GENERATED_IMAGES_DIR", c.Images.Dir)
	c.Images.URLPath = envString("SAFEPATH_GENERATED_IMAGES_URL_PATH", c.Images.URLPath)
	c.Images.PublicBaseURL = envString("SAFEPATH_PUBLIC_BASE_URL", c.Images.PublicBaseURL)

	c.Tracing.Enabled = envBool("SAFEPATH_TRACING_ENABLED", c.Tracing.Enabled)
}

// Validate rejects settings the pipeline cannot work with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite3", "pgx":
	default:
		return fmt.Errorf("invalid database driver %q (valid: sqlite3, pgx)", c.Database.Driver)
	}
	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database dsn is empty")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is empty")
	}
	if c.Auth.JWTDuration <= 0 {
		return fmt.Errorf("jwt duration must be positive")
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("llm timeout must be positive")
	}
	// the trusted-adult sentence plus an ellipsis must fit in a slide
	if c.Safety.MaxTextLength < 80 {
		return fmt.Errorf("safety max text length must be >= 80, got %d", c.Safety.MaxTextLength)
	}
	if c.Safety.MaxScaryTermsPerSlide < 0 {
		return fmt.Errorf("safety max scary terms must be >= 0")
	}
	switch c.Images.Mode {
	case "placeholder", "render", "off":
	default:
		return fmt.Errorf("invalid images mode %q (valid: placeholder, render, off)", c.Images.Mode)
	}
	return nil
}

// CORSOriginList splits the comma separated origin setting.
func (c *Config) CORSOriginList() []string {
	var out []string
	for _, origin := range strings.Split(c.App.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func envString(name, def string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(name string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
