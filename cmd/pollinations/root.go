package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/new-xmon-df/pollinations-go/pkg/catalog"
	"github.com/new-xmon-df/pollinations-go/pkg/config"
	"github.com/new-xmon-df/pollinations-go/pkg/credentials"
	"github.com/new-xmon-df/pollinations-go/pkg/node"
	"github.com/new-xmon-df/pollinations-go/pkg/pollinations"
	"github.com/new-xmon-df/pollinations-go/pkg/utils"
)

var version = "dev"

var (
	configPath string
	logLevel   string
	outputDir  string
	jsonOutput bool
)

// app holds what every command needs. It is built in PersistentPreRunE.
type app struct {
	cfg      *config.Config
	store    credentials.Store
	client   *pollinations.Client
	node     *node.Node
	resolver *catalog.Resolver
	logger   *utils.RotatableLogger
}

var cli *app

var rootCmd = &cobra.Command{
	Use:   "pollinations",
	Short: "Generate images, text, speech and music with Pollinations AI",
	Long:  "pollinations runs the Pollinations operations from the terminal.\nThe API key is read from the config file or POLLINATIONS_API_KEY.",
	Example: `  pollinations image "a red fox in the snow" --width 512 --height 512
  pollinations text "write a haiku" --json-mode
  pollinations speech "hello world" --voice nova
  pollinations balance --watch --threshold 10
  pollinations models image`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == onboardCmd.Name() {
			return nil
		}
		// .env is optional
		_ = godotenv.Load()

		cfg, err := config.LoadConfig(expandPath(configPath))
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if outputDir != "" {
			cfg.OutputDir = outputDir
		}
		cfg.OutputDir = expandPath(cfg.OutputDir)

		logger, err := utils.SetupLogger(expandPath(cfg.Logging.Dir), cfg.Logging.Level)
		if err != nil {
			return err
		}

		cli = newApp(cfg)
		cli.logger = logger
		log.WithFields(log.Fields{"command": cmd.Name(), "apiBase": cfg.API.Base}).Debug("starting")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cli != nil && cli.logger != nil {
			cli.logger.Close()
		}
	},
}

func newApp(cfg *config.Config) *app {
	store := credentials.StaticStore{Cred: credentials.FromConfig(cfg)}
	httpClient := &http.Client{Timeout: time.Duration(cfg.API.Timeout) * time.Second}
	client := pollinations.NewClient(cfg.API.Base, httpClient, store)
	return &app{
		cfg:      cfg,
		store:    store,
		client:   client,
		node:     node.New(client),
		resolver: catalog.NewResolver(client),
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default .pollinations/config.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output", "o", "", "directory for generated media")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print the result metadata as JSON")

	rootCmd.AddCommand(imageCmd, referenceCmd, textCmd, speechCmd, musicCmd)
	rootCmd.AddCommand(balanceCmd, modelsCmd, chatCmd, credentialCmd, describeCmd, toolCmd, onboardCmd)

	rootCmd.SetVersionTemplate("pollinations version {{.Version}}\n")
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
