package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/MarcoKoch/sphinx-cmake-domain/internal/domain"
)

// Config is the project configuration read from cmakedoc.toml.
type Config struct {
	SourceDir string `mapstructure:"source_dir"`
	OutputDir string `mapstructure:"output_dir"`

	// CMakeModulesAddExtension appends ".cmake" to displayed module names.
	CMakeModulesAddExtension bool `mapstructure:"cmake_modules_add_extension"`
	// CMakeIndexCommonPrefix lists prefixes ignored when sorting the index.
	CMakeIndexCommonPrefix []string `mapstructure:"cmake_index_common_prefix"`
	// CMakeIndexDuplicates picks the index listing for duplicate names:
	// list-both, first-wins or last-wins.
	CMakeIndexDuplicates string `mapstructure:"cmake_index_duplicates"`
	// AddFunctionParentheses appends "()" to displayed macro/function names.
	AddFunctionParentheses bool `mapstructure:"add_function_parentheses"`
	// HTMLDomainIndices controls whether the cmake-index page is emitted.
	HTMLDomainIndices bool `mapstructure:"html_domain_indices"`
}

// Display returns the decoration settings derived from the configuration.
func (c *Config) Display() domain.DisplayOptions {
	return domain.DisplayOptions{
		FunctionParens:  c.AddFunctionParentheses,
		ModuleExtension: c.CMakeModulesAddExtension,
	}
}

// IndexOptions returns the index-generation settings.
func (c *Config) IndexOptions() domain.IndexOptions {
	return domain.IndexOptions{
		Display:         c.Display(),
		IgnoredPrefixes: c.CMakeIndexCommonPrefix,
		Duplicates:      domain.DuplicatePolicy(c.CMakeIndexDuplicates),
	}
}

// StateDir returns the directory holding persistent build state.
func (c *Config) StateDir() string {
	return filepath.Join(c.OutputDir, ".cmakedoc")
}

// DBPath returns the path of the environment database.
func (c *Config) DBPath() string {
	return filepath.Join(c.StateDir(), "env.db")
}

// CASDir returns the directory of the description body store.
func (c *Config) CASDir() string {
	return filepath.Join(c.StateDir(), "cas")
}

func initializeViper(configFile string) error {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("cmakedoc")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
	}

	viper.SetDefault("source_dir", "docs")
	viper.SetDefault("output_dir", "build")
	viper.SetDefault("cmake_modules_add_extension", false)
	viper.SetDefault("cmake_index_common_prefix", []string{})
	viper.SetDefault("cmake_index_duplicates", string(domain.ListBoth))
	viper.SetDefault("add_function_parentheses", true)
	viper.SetDefault("html_domain_indices", true)

	viper.SetEnvPrefix("CMAKEDOC")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return nil
}

// Load reads and validates the project configuration. Type errors (for
// example a prefix list that is not a list of strings) are fatal: they
// indicate a broken project setup, not an authoring mistake.
func Load(configFile string) (*Config, error) {
	if err := initializeViper(configFile); err != nil {
		return nil, err
	}
	return decode(viper.AllSettings())
}

func decode(settings map[string]any) (*Config, error) {
	var cfg Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result: &cfg,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch domain.DuplicatePolicy(c.CMakeIndexDuplicates) {
	case domain.ListBoth, domain.FirstWins, domain.LastWins:
	default:
		return fmt.Errorf("invalid cmake_index_duplicates %q: must be %q, %q or %q",
			c.CMakeIndexDuplicates, domain.ListBoth, domain.FirstWins, domain.LastWins)
	}
	for i, p := range c.CMakeIndexCommonPrefix {
		if p == "" {
			return fmt.Errorf("cmake_index_common_prefix[%d] is empty", i)
		}
	}
	if c.SourceDir == "" || c.OutputDir == "" {
		return fmt.Errorf("source_dir and output_dir must not be empty")
	}
	return nil
}

// EnsureDirs creates the output and state directories.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.OutputDir, c.StateDir(), c.CASDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
