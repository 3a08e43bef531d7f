package cmd

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/build"
	"github.com/MarcoKoch/sphinx-cmake-domain/internal/config"
)

var (
	configFile string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "cmakedoc",
	Short: "CMake documentation generator",
	Long: `cmakedoc builds HTML documentation for CMake entities (variables,
macros/functions, modules, targets) declared with cmake:* directives in
markdown sources, with cross-references and an alphabetical entity index.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: cmakedoc.toml in the working directory)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug log output")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(mcpCmd)
}

// newSession loads the configuration and opens the build state.
func newSession() (*build.Session, *config.Config) {
	cfg, err := config.Load(configFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	session, err := build.NewSession(cfg, slog.Default())
	if err != nil {
		log.Fatalf("failed to open build state: %v", err)
	}
	return session, cfg
}
