// Package config loads sweatshop settings from XDG config paths, a
// project-local override file, and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for sweatshop.
type Config struct {
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Git       GitConfig       `mapstructure:"git"`
	Dispatch  DispatchConfig  `mapstructure:"dispatch"`
	Camps     CampsConfig     `mapstructure:"camps"`
	Engine    EngineConfig    `mapstructure:"engine"`
	DBPath    string          `mapstructure:"db_path"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// GitConfig holds repository and workspace settings.
type GitConfig struct {
	// RepoPath is the repository the conscripts work on.
	RepoPath string `mapstructure:"repo_path"`
	// BaseBranch is the branch directives are cut from and merged into.
	BaseBranch string `mapstructure:"base_branch"`
	// WorktreeDir is where per-conscript worktrees are created.
	WorktreeDir string `mapstructure:"worktree_dir"`
	// MergeStrategy is "squash" or "merge".
	MergeStrategy string `mapstructure:"merge_strategy"`
}

// DispatchConfig holds dispatch loop settings.
type DispatchConfig struct {
	// PollInterval is how often the loop re-checks for dispatchable work.
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// Conscripts is the number of workers to provision.
	Conscripts int `mapstructure:"conscripts"`
}

// CampsConfig holds resource camp settings.
type CampsConfig struct {
	// InventoryFile is the camps.yaml the pool is synced against.
	InventoryFile string `mapstructure:"inventory_file"`
	// Shared allows multiple conscripts per camp.
	Shared bool `mapstructure:"shared"`
	// MaxPerCamp caps occupancy per camp when shared.
	MaxPerCamp int `mapstructure:"max_per_camp"`
}

// EngineConfig holds execution engine settings.
type EngineConfig struct {
	// Model is the Claude model to run sessions with.
	Model string `mapstructure:"model"`
	// MaxTurns bounds API round trips per session.
	MaxTurns int `mapstructure:"max_turns"`
	// UseAWSBedrock routes API calls through AWS Bedrock.
	UseAWSBedrock bool `mapstructure:"use_aws_bedrock"`
	// AWSRegion is the Bedrock region.
	AWSRegion string `mapstructure:"aws_region"`
	// AWSProfile is the optional AWS profile name.
	AWSProfile string `mapstructure:"aws_profile"`
}

// Load resolves configuration with the following precedence, highest
// first: environment variables (ANTHROPIC_API_KEY), a project-local
// .sweatshop.yaml found in the working directory or a parent, the user
// config at ~/.config/sweatshop/config.yaml, built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(userConfigDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading user config: %w", err)
		}
	}

	if err := mergeProjectOverride(v); err != nil {
		return nil, err
	}

	v.AutomaticEnv()
	v.BindEnv("anthropic.api_key", "ANTHROPIC_API_KEY")

	return decode(v)
}

// LoadFromPath reads exactly one config file, skipping discovery.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return decode(v)
}

// mergeProjectOverride layers a project-local .sweatshop.yaml, when one
// exists, over whatever v already holds.
func mergeProjectOverride(v *viper.Viper) error {
	path := findProjectConfig()
	if path == "" {
		return nil
	}
	pv := viper.New()
	pv.SetConfigFile(path)
	if err := pv.ReadInConfig(); err != nil {
		return nil
	}
	if err := v.MergeConfigMap(pv.AllSettings()); err != nil {
		return fmt.Errorf("merging project config: %w", err)
	}
	return nil
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	// Lets the key be written as ${SOME_VAR} in the file.
	cfg.Anthropic.APIKey = os.ExpandEnv(cfg.Anthropic.APIKey)
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("anthropic.api_key", "")

	v.SetDefault("git.repo_path", ".")
	v.SetDefault("git.base_branch", "main")
	v.SetDefault("git.worktree_dir", defaultWorktreeDir())
	v.SetDefault("git.merge_strategy", "squash")

	v.SetDefault("dispatch.poll_interval", "5s")
	v.SetDefault("dispatch.conscripts", 3)

	v.SetDefault("camps.inventory_file", "camps.yaml")
	v.SetDefault("camps.shared", false)
	v.SetDefault("camps.max_per_camp", 1)

	v.SetDefault("engine.model", "")
	v.SetDefault("engine.max_turns", 50)
	v.SetDefault("engine.use_aws_bedrock", false)
	v.SetDefault("engine.aws_region", "")
	v.SetDefault("engine.aws_profile", "")

	v.SetDefault("db_path", filepath.Join(".sweatshop", "state.db"))
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Git: GitConfig{
			RepoPath:      ".",
			BaseBranch:    "main",
			WorktreeDir:   defaultWorktreeDir(),
			MergeStrategy: "squash",
		},
		Dispatch: DispatchConfig{
			PollInterval: 5 * time.Second,
			Conscripts:   3,
		},
		Camps: CampsConfig{
			InventoryFile: "camps.yaml",
			MaxPerCamp:    1,
		},
		Engine: EngineConfig{
			MaxTurns: 50,
		},
		DBPath: filepath.Join(".sweatshop", "state.db"),
	}
}

// userConfigDir returns the directory holding the user config file.
func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sweatshop")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "sweatshop")
	}
	return filepath.Join(home, ".config", "sweatshop")
}

// defaultWorktreeDir returns the default base directory for worktrees.
func defaultWorktreeDir() string {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, _ := os.UserHomeDir()
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "sweatshop", "worktrees")
}

// findProjectConfig searches for .sweatshop.yaml in the current directory and parents.
func findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		configPath := filepath.Join(cwd, ".sweatshop.yaml")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(cwd)
		if parent == cwd {
			break
		}
		cwd = parent
	}

	return ""
}
