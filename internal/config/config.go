// Package config loads StudyBuddy settings: a YAML file, then STUDYBUDDY_*
// environment variables, then command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abhisek/studybuddy/internal/gateway"
	"github.com/abhisek/studybuddy/internal/llm"
	"github.com/abhisek/studybuddy/internal/store"
)

// Gateway modes.
const (
	GatewayHTTP = "http"
	GatewayLLM  = "llm"
)

type Config struct {
	DataDir   string `yaml:"data_dir"`
	ExportDir string `yaml:"export_dir"`

	Store struct {
		Backend    string `yaml:"backend"`
		SQLitePath string `yaml:"sqlite_path"`
		Redis      struct {
			Addr      string `yaml:"addr"`
			Password  string `yaml:"password"`
			DB        int    `yaml:"db"`
			KeyPrefix string `yaml:"key_prefix"`
		} `yaml:"redis"`
	} `yaml:"store"`

	Gateway struct {
		Mode    string `yaml:"mode"`
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"gateway"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
		Mode  string `yaml:"mode"`
	} `yaml:"log"`

	// LLM picks the provider and model. API keys are only read from the
	// environment.
	LLM struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
	} `yaml:"llm"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	var c Config
	c.Store.Backend = store.BackendSQLite
	c.Store.Redis.Addr = "127.0.0.1:6379"
	c.Store.Redis.KeyPrefix = "studybuddy:"
	c.Gateway.Mode = GatewayLLM
	c.Gateway.BaseURL = gateway.DefaultBaseURL
	c.Gateway.Timeout = "90s"
	c.Server.Addr = "127.0.0.1:5000"
	c.Log.Level = "info"
	c.Log.Mode = "development"
	return c
}

// DefaultPath returns <user config dir>/studybuddy/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "studybuddy", "config.yaml"), nil
}

// Load reads the YAML file at path over the defaults and applies the
// environment. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.resolvePaths(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from STUDYBUDDY_* variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.DataDir, "STUDYBUDDY_DATA_DIR")
	set(&c.ExportDir, "STUDYBUDDY_EXPORT_DIR")
	set(&c.Store.Backend, "STUDYBUDDY_STORE")
	set(&c.Store.SQLitePath, "STUDYBUDDY_DB")
	set(&c.Store.Redis.Addr, "STUDYBUDDY_REDIS_ADDR")
	set(&c.Store.Redis.Password, "STUDYBUDDY_REDIS_PASSWORD")
	set(&c.Gateway.Mode, "STUDYBUDDY_GATEWAY")
	set(&c.Gateway.BaseURL, "STUDYBUDDY_BACKEND_URL")
	set(&c.Gateway.Timeout, "STUDYBUDDY_GATEWAY_TIMEOUT")
	set(&c.Server.Addr, "STUDYBUDDY_SERVER_ADDR")
	set(&c.Log.File, "STUDYBUDDY_LOG_FILE")
	set(&c.Log.Level, "STUDYBUDDY_LOG_LEVEL")
	if v := getenv("STUDYBUDDY_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Store.Redis.DB = n
		}
	}
}

// resolvePaths fills paths left empty from the data directory.
func (c *Config) resolvePaths() error {
	if c.DataDir == "" {
		dir, err := store.DefaultDataDir()
		if err != nil {
			return err
		}
		c.DataDir = dir
	}
	if c.Store.SQLitePath == "" {
		c.Store.SQLitePath = filepath.Join(c.DataDir, "studybuddy.db")
	}
	if c.ExportDir == "" {
		c.ExportDir = filepath.Join(c.DataDir, "exports")
	}
	if c.Log.File == "" {
		c.Log.File = filepath.Join(c.DataDir, "studybuddy.log")
	}
	return nil
}

// Validate rejects unknown store backends and gateway modes and a malformed
// gateway timeout.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case store.BackendSQLite, store.BackendRedis, store.BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q (want sqlite, redis or memory)", c.Store.Backend)
	}
	if c.Store.Backend == store.BackendRedis && c.Store.Redis.Addr == "" {
		return errors.New("store.redis.addr is required for the redis backend")
	}
	switch c.Gateway.Mode {
	case GatewayHTTP, GatewayLLM:
	default:
		return fmt.Errorf("unknown gateway mode %q (want http or llm)", c.Gateway.Mode)
	}
	if c.Gateway.Timeout != "" {
		if _, err := time.ParseDuration(c.Gateway.Timeout); err != nil {
			return fmt.Errorf("gateway.timeout: %w", err)
		}
	}
	return nil
}

// GatewayTimeout returns the parsed gateway timeout, or 90s when unset.
func (c Config) GatewayTimeout() time.Duration {
	if d, err := time.ParseDuration(c.Gateway.Timeout); err == nil && d > 0 {
		return d
	}
	return 90 * time.Second
}

// BackendOptions translates the store section.
func (c Config) BackendOptions() store.BackendOptions {
	return store.BackendOptions{
		Kind:          c.Store.Backend,
		SQLitePath:    c.Store.SQLitePath,
		RedisAddr:     c.Store.Redis.Addr,
		RedisPassword: c.Store.Redis.Password,
		RedisDB:       c.Store.Redis.DB,
		RedisPrefix:   c.Store.Redis.KeyPrefix,
	}
}

// LLMConfig returns the provider configuration from the environment with
// the file's provider and model applied. STUDYBUDDY_LLM_PROVIDER still wins
// over the file.
func (c Config) LLMConfig(getenv func(string) string) llm.Config {
	cfg := llm.ConfigFromEnv()
	if c.LLM.Provider != "" && getenv("STUDYBUDDY_LLM_PROVIDER") == "" {
		cfg.Provider = c.LLM.Provider
	}
	if c.LLM.Model == "" {
		return cfg
	}
	switch cfg.Provider {
	case "anthropic":
		cfg.Anthropic.Model = c.LLM.Model
	case "openai":
		cfg.OpenAI.Model = c.LLM.Model
	case "gemini":
		cfg.Gemini.Model = c.LLM.Model
	case "openrouter":
		cfg.OpenRouter.Model = c.LLM.Model
	}
	return cfg
}
