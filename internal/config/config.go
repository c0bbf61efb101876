package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/codebuildervaibhav/nomad-transcription/internal/apperr"
)

// Storage backends for session records
const (
	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

// Config represents the application configuration
type Config struct {
	Server struct {
		Port int    `yaml:"port" validate:"min=1,max=65535"`
		Host string `yaml:"host"`
	} `yaml:"server"`

	Workers struct {
		// MaxConcurrent caps running jobs; 0 means one goroutine per job with no cap.
		MaxConcurrent int `yaml:"max_concurrent" validate:"min=0"`
	} `yaml:"workers"`

	Storage struct {
		Backend  string `yaml:"backend" validate:"oneof=sqlite supabase"`
		Database string `yaml:"database" validate:"required_if=Backend sqlite"`
		AudioDir string `yaml:"audio_dir" validate:"required"`
	} `yaml:"storage"`

	Supabase struct {
		URL        string `yaml:"url"`
		ServiceKey string `yaml:"service_key"`
		Schema     string `yaml:"schema"`
		Table      string `yaml:"table"`
	} `yaml:"supabase"`

	Engines struct {
		Groq struct {
			APIKey  string        `yaml:"api_key"`
			BaseURL string        `yaml:"base_url" validate:"omitempty,url"`
			Timeout time.Duration `yaml:"timeout"`
		} `yaml:"groq"`

		Deepgram struct {
			APIKey string `yaml:"api_key"`
		} `yaml:"deepgram"`

		Wynona struct {
			Host          string        `yaml:"host"`
			Port          int           `yaml:"port" validate:"min=1,max=65535"`
			HealthPath    string        `yaml:"health_path"`
			ProbeTimeout  time.Duration `yaml:"probe_timeout"`
			WOLMAC        string        `yaml:"wol_mac" validate:"omitempty,mac"`
			BroadcastAddr string        `yaml:"broadcast_addr" validate:"omitempty,hostname_port"`
			WakeCooldown  time.Duration `yaml:"wake_cooldown"`
		} `yaml:"wynona"`
	} `yaml:"engines"`

	Download struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"download"`

	Cleanup struct {
		IntervalMinutes int `yaml:"interval_minutes" validate:"min=1"`
		MaxAgeHours     int `yaml:"max_age_hours" validate:"min=1"`
	} `yaml:"cleanup"`

	Limits struct {
		MaxFileSizeMB int `yaml:"max_file_size_mb" validate:"min=1"`
	} `yaml:"limits"`

	Telemetry struct {
		// OTLPEndpoint is the OTLP HTTP host:port; empty disables export.
		OTLPEndpoint string        `yaml:"otlp_endpoint" validate:"omitempty,hostname_port"`
		Insecure     bool          `yaml:"insecure"`
		Interval     time.Duration `yaml:"interval"`
	} `yaml:"telemetry"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8000
	cfg.Storage.Backend = BackendSQLite
	cfg.Storage.Database = "data/nomad.db"
	cfg.Storage.AudioDir = "data/audio"
	cfg.Supabase.Schema = "app_nomad"
	cfg.Supabase.Table = "sessions"
	cfg.Engines.Groq.BaseURL = "https://api.groq.com/openai/v1"
	cfg.Engines.Groq.Timeout = 300 * time.Second
	cfg.Engines.Wynona.Port = 8765
	cfg.Engines.Wynona.HealthPath = "/health"
	cfg.Engines.Wynona.ProbeTimeout = 5 * time.Second
	cfg.Engines.Wynona.BroadcastAddr = "255.255.255.255:9"
	cfg.Engines.Wynona.WakeCooldown = 2 * time.Minute
	cfg.Download.Timeout = 5 * time.Minute
	cfg.Cleanup.IntervalMinutes = 60
	cfg.Cleanup.MaxAgeHours = 24
	cfg.Limits.MaxFileSizeMB = 500
	cfg.Telemetry.Interval = 30 * time.Second
	return cfg
}

// Load reads the YAML file at path over the defaults, applies the .env file
// and environment overrides, and validates the result. A missing config or
// env file is not an error.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		file, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(file, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}

	set("GROQ_API_KEY", &c.Engines.Groq.APIKey)
	set("DEEPGRAM_API_KEY", &c.Engines.Deepgram.APIKey)
	set("WYNONA_HOST", &c.Engines.Wynona.Host)
	set("WYNONA_WOL_MAC", &c.Engines.Wynona.WOLMAC)
	set("SUPABASE_URL", &c.Supabase.URL)
	set("SUPABASE_SERVICE_KEY", &c.Supabase.ServiceKey)
	set("NOMAD_STORAGE_BACKEND", &c.Storage.Backend)
	set("NOMAD_OTLP_ENDPOINT", &c.Telemetry.OTLPEndpoint)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct constraints and cross-field rules.
func (c *Config) Validate() error {
	var problems []string

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return apperr.Configuration("invalid config: %v", err)
		}
		for _, fe := range fieldErrs {
			problems = append(problems, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
		}
	}

	if c.Storage.Backend == BackendSupabase {
		if c.Supabase.URL == "" {
			problems = append(problems, "supabase url is required for the supabase backend")
		}
		if c.Supabase.ServiceKey == "" {
			problems = append(problems, "supabase service key is required for the supabase backend")
		}
	}

	if len(problems) > 0 {
		return apperr.Configuration("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
