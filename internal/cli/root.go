package cli

import (
	"fmt"

	"github.com/intentlens/intentlens/internal/config"
	"github.com/intentlens/intentlens/internal/logger"
	"github.com/spf13/cobra"
)

// Version information set via ldflags
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

var (
	verbose    bool
	configFile string
	projectDir string
)

var rootCmd = &cobra.Command{
	Use:   "intentlens",
	Short: "Intent inference for user behavior streams",
	Long: `Intentlens converts time-ordered streams of user behavior events into
confidence-scored intent states.

It normalizes raw analytics events, extracts behavioral signals, evaluates
heuristic rules, and emits explainable intent states with per-rule
attribution and a plain-language narrative.

Configure thresholds and rule weights in:
  - ~/.intentlens/config.yaml (global)
  - .intentlens/config.yaml (project-specific)`,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("intentlens %s\n", Version)
		fmt.Printf("  commit: %s\n", Commit)
		fmt.Printf("  built:  %s\n", Date)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Override config file path")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "Override project directory")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig applies the shared --config/--project flags. Missing config
// files fall back to defaults; a config that exists but fails to parse or
// validate is fatal.
func loadConfig() (*config.Config, error) {
	loader, err := config.NewLoader(projectDir)
	if err != nil {
		return config.DefaultConfig(), nil
	}

	if configFile != "" {
		return loader.LoadFromFile(configFile)
	}
	return loader.Load()
}

func initLogging(cfg *config.Config) {
	if verbose {
		_ = logger.Init("debug", cfg.Settings.LogFile)
	} else if cfg.Settings.LogLevel != "" {
		_ = logger.Init(cfg.Settings.LogLevel, cfg.Settings.LogFile)
	} else {
		logger.InitQuiet()
	}
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
