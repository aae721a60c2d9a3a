package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/new-xmon-df/pollinations-go/pkg/config"
)

const envExample = `# Copy to .env and fill in. Values in the config file take precedence.
POLLINATIONS_API_KEY=
# POLLINATIONS_API_BASE=https://gen.pollinations.ai
`

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Create a default config file and output directories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOnboard(expandPath(configPath))
	},
}

func runOnboard(configFile string) error {
	if configFile == "" {
		configFile = filepath.Join(".pollinations", "config.json")
	}
	configDir := filepath.Dir(configFile)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	cfg := config.DefaultConfig()
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		data, err := encodeConfig(configFile, cfg)
		if err != nil {
			return err
		}
		if err := os.WriteFile(configFile, data, 0600); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
		fmt.Printf("Created config file at %s\n", configFile)
	} else {
		fmt.Printf("Config file already exists at %s\n", configFile)
		if loaded, err := config.LoadConfig(configFile); err == nil {
			cfg = loaded
		}
	}

	for _, dir := range []string{cfg.OutputDir, cfg.Logging.Dir} {
		if dir == "" {
			continue
		}
		dir = expandPath(dir)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
		fmt.Printf("Created directory %s\n", dir)
	}

	examplePath := filepath.Join(configDir, ".env.example")
	if _, err := os.Stat(examplePath); os.IsNotExist(err) {
		if err := os.WriteFile(examplePath, []byte(envExample), 0644); err != nil {
			fmt.Printf("Warning: could not write %s: %v\n", examplePath, err)
		}
	}

	fmt.Printf("Onboarding complete! Add your API key to %s or set POLLINATIONS_API_KEY, then run: pollinations credential test\n", configFile)
	return nil
}

func encodeConfig(path string, cfg *config.Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	default:
		data, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(data, '\n'), nil
	}
}
