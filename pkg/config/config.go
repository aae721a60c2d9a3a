package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAPIBase = "https://gen.pollinations.ai"

	EnvAPIKey  = "POLLINATIONS_API_KEY"
	EnvAPIBase = "POLLINATIONS_API_BASE"
)

type CredentialsConfig struct {
	APIKey string `json:"apiKey" yaml:"apiKey"`
}

type APIConfig struct {
	Base    string `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	Timeout int    `json:"timeout" yaml:"timeout"` // seconds, 0 disables
}

type LoggingConfig struct {
	Dir   string `json:"dir" yaml:"dir"`
	Level string `json:"level" yaml:"level"`
}

type DefaultsConfig struct {
	ImageModel     string  `json:"imageModel" yaml:"imageModel"`
	ReferenceModel string  `json:"referenceModel" yaml:"referenceModel"`
	TextModel      string  `json:"textModel" yaml:"textModel"`
	SpeechModel    string  `json:"speechModel" yaml:"speechModel"`
	Voice          string  `json:"voice" yaml:"voice"`
	MusicModel     string  `json:"musicModel" yaml:"musicModel"`
	MinimumBalance float64 `json:"minimumBalance" yaml:"minimumBalance"`
}

type ChatConfig struct {
	Model            string  `json:"model" yaml:"model"`
	Temperature      float64 `json:"temperature" yaml:"temperature"`
	MaxTokens        int     `json:"maxTokens" yaml:"maxTokens"`
	TopP             float64 `json:"topP" yaml:"topP"`
	FrequencyPenalty float64 `json:"frequencyPenalty" yaml:"frequencyPenalty"`
	PresencePenalty  float64 `json:"presencePenalty" yaml:"presencePenalty"`
	Timeout          int     `json:"timeout" yaml:"timeout"` // milliseconds
	HistoryLimit     int     `json:"historyLimit" yaml:"historyLimit"`
}

type WatchConfig struct {
	Schedule  string  `json:"schedule" yaml:"schedule"`
	Threshold float64 `json:"threshold" yaml:"threshold"`
}

type Config struct {
	Credentials CredentialsConfig `json:"credentials" yaml:"credentials"`
	API         APIConfig         `json:"api" yaml:"api"`
	Logging     LoggingConfig     `json:"logging" yaml:"logging"`
	Defaults    DefaultsConfig    `json:"defaults" yaml:"defaults"`
	Chat        ChatConfig        `json:"chat" yaml:"chat"`
	Watch       WatchConfig       `json:"watch" yaml:"watch"`
	OutputDir   string            `json:"outputDir" yaml:"outputDir"`
	SessionsDir string            `json:"sessionsDir" yaml:"sessionsDir"`
}

// ModelFor returns the default model of a node operation, or "" when the
// operation takes no model.
func (d DefaultsConfig) ModelFor(operation string) string {
	switch operation {
	case "generateImage":
		return d.ImageModel
	case "generateImageWithReference":
		return d.ReferenceModel
	case "generateText":
		return d.TextModel
	case "generateSpeech":
		return d.SpeechModel
	case "generateMusic":
		return d.MusicModel
	}
	return ""
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Base:    DefaultAPIBase,
			Timeout: 120,
		},
		Logging: LoggingConfig{
			Dir:   ".pollinations/logs",
			Level: "info",
		},
		Defaults: DefaultsConfig{
			ImageModel:     "flux",
			ReferenceModel: "kontext",
			TextModel:      "openai",
			SpeechModel:    "elevenlabs",
			Voice:          "alloy",
			MusicModel:     "elevenmusic",
		},
		Chat: ChatConfig{
			Model:        "openai",
			Temperature:  1,
			TopP:         1,
			Timeout:      60000,
			HistoryLimit: 20,
		},
		Watch: WatchConfig{
			Schedule: "@every 5m",
		},
		OutputDir:   ".pollinations/output",
		SessionsDir: ".pollinations/sessions",
	}
}

// LoadConfig loads the configuration from the given path.
// A missing file yields the defaults; .yaml and .yml files are decoded as YAML.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = filepath.Join(".pollinations", "config.json")
	}

	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, config)
		default:
			err = json.Unmarshal(data, config)
		}
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	checkEnv := func(cfgVal, envKey string) string {
		if cfgVal != "" {
			return cfgVal
		}
		return os.Getenv(envKey)
	}

	c.Credentials.APIKey = checkEnv(c.Credentials.APIKey, EnvAPIKey)
	if env := os.Getenv(EnvAPIBase); env != "" && (c.API.Base == "" || c.API.Base == DefaultAPIBase) {
		c.API.Base = env
	}
	if c.API.Base == "" {
		c.API.Base = DefaultAPIBase
	}
}

// Validate checks fields that would otherwise fail late, on the first request.
func (c *Config) Validate() error {
	u, err := url.Parse(c.API.Base)
	if err != nil {
		return fmt.Errorf("invalid apiBase %q: %w", c.API.Base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid apiBase %q: must use http/https", c.API.Base)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("invalid api timeout %d", c.API.Timeout)
	}
	return nil
}
