package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Storage struct {
		// Driver selects the learner key-value store: sqlite, redis or memory.
		Driver    string `yaml:"driver"`
		Path      string `yaml:"path"`
		Namespace string `yaml:"namespace"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"catalog"`
	Wallet struct {
		// Provider is none, static or keyfile.
		Provider       string `yaml:"provider"`
		PublicKey      string `yaml:"public_key"`
		KeyFile        string `yaml:"key_file"`
		RPCURL         string `yaml:"rpc_url"`
		RPCTimeout     string `yaml:"rpc_timeout"`
		BalanceRefresh string `yaml:"balance_refresh"`
	} `yaml:"wallet"`
	I18n struct {
		DefaultLanguage string `yaml:"default_language"`
	} `yaml:"i18n"`
	Assistant struct {
		// BaseURL of an OpenAI-compatible API; Groq by default.
		BaseURL string `yaml:"base_url"`
		// APIKey falls back to ASSISTANT_API_KEY then GROQ_API_KEY. Empty disables answers.
		APIKey  string `yaml:"api_key"`
		Model   string `yaml:"model"`
		Timeout string `yaml:"timeout"`
	} `yaml:"assistant"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "sqlite"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "casper-learning.db"
	}
	if c.Catalog.Path == "" {
		c.Catalog.Path = "data/catalog.yaml"
	}
	if c.Wallet.Provider == "" {
		c.Wallet.Provider = "none"
	}
	if c.I18n.DefaultLanguage == "" {
		c.I18n.DefaultLanguage = "en"
	}
	if c.Assistant.BaseURL == "" {
		c.Assistant.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Assistant.Model == "" {
		c.Assistant.Model = "llama-3.3-70b-versatile"
	}
	if c.Assistant.APIKey == "" {
		c.Assistant.APIKey = os.Getenv("ASSISTANT_API_KEY")
	}
	if c.Assistant.APIKey == "" {
		c.Assistant.APIKey = os.Getenv("GROQ_API_KEY")
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
