package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/saadjs/fitflow/internal/app"
)

const (
	EnvDB              = "FITFLOW_DB"
	EnvInferenceURL    = "FITFLOW_INFERENCE_URL"
	EnvInferenceAPIKey = "FITFLOW_INFERENCE_API_KEY"
	EnvInferenceModel  = "FITFLOW_INFERENCE_MODEL"
	EnvFoodAPIURL      = "FITFLOW_FOOD_API_URL"
	EnvUSDAAPIKey      = "FITFLOW_USDA_API_KEY"
	EnvListenAddr      = "FITFLOW_LISTEN_ADDR"

	DefaultListenAddr = "127.0.0.1:8080"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Inference InferenceConfig `yaml:"inference"`
	Food      FoodConfig      `yaml:"food"`
	Server    ServerConfig    `yaml:"server"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type InferenceConfig struct {
	URL       string   `yaml:"url"`
	APIKey    string   `yaml:"api_key"`
	Model     string   `yaml:"model"`
	Fallbacks []string `yaml:"fallback_models"`
}

type FoodConfig struct {
	OpenFoodFactsURL string        `yaml:"open_food_facts_url"`
	USDAURL          string        `yaml:"usda_url"`
	USDAAPIKey       string        `yaml:"usda_api_key"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	SearchLimit      int           `yaml:"search_limit"`
}

type ServerConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// Load reads the YAML config at path, or the default location when path is
// empty. A missing default file is not an error. Variables from a .env file in
// the working directory are loaded first; ${VAR} references in the file are
// expanded and FITFLOW_* variables override file values.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		p, err := app.DefaultConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := []byte(os.ExpandEnv(string(data)))
		dec := yaml.NewDecoder(bytes.NewReader(expanded))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	for env, dst := range map[string]*string{
		EnvDB:              &c.Database.Path,
		EnvInferenceURL:    &c.Inference.URL,
		EnvInferenceAPIKey: &c.Inference.APIKey,
		EnvInferenceModel:  &c.Inference.Model,
		EnvFoodAPIURL:      &c.Food.OpenFoodFactsURL,
		EnvUSDAAPIKey:      &c.Food.USDAAPIKey,
		EnvListenAddr:      &c.Server.ListenAddr,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
}

func (c *Config) applyDefaults() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		p, err := app.DefaultDBPath()
		if err != nil {
			return err
		}
		c.Database.Path = p
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Food.CacheTTL < 0 {
		return fmt.Errorf("food.cache_ttl must be >= 0")
	}
	if c.Food.SearchLimit < 0 {
		return fmt.Errorf("food.search_limit must be >= 0")
	}
	return nil
}
