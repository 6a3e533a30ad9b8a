package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// LoaderOptions describes how configuration should be discovered.
type LoaderOptions struct {
	ConfigPaths []string
	FileName    string
	EnvPrefix   string
}

// Load returns the merged configuration from files and environment variables.
func Load(opts LoaderOptions) (Config, error) {
	v := viper.New()

	name := opts.FileName
	if name == "" {
		name = "prr"
	}

	configFile := locateConfigFile(name, opts.ConfigPaths)
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(name)
	}

	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = "PRR"
	}
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AllowEmptyEnv(true)

	setDefaults(v)

	if configFile != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Expand environment variables in config values
	cfg = expandEnvVars(cfg)

	return cfg, nil
}

// expandEnvVars expands ${VAR} and $VAR syntax in configuration strings.
func expandEnvVars(cfg Config) Config {
	cfg.GitHub.BaseURL = expandEnvString(cfg.GitHub.BaseURL)
	cfg.GitHub.Token = expandEnvString(cfg.GitHub.Token)
	cfg.GitHub.Owner = expandEnvString(cfg.GitHub.Owner)
	cfg.GitHub.Repo = expandEnvString(cfg.GitHub.Repo)
	cfg.GitHub.BotUsername = expandEnvString(cfg.GitHub.BotUsername)

	cfg.Provider.APIKey = expandEnvString(cfg.Provider.APIKey)
	cfg.Provider.Model = expandEnvString(cfg.Provider.Model)
	cfg.Provider.BaseURL = expandEnvString(cfg.Provider.BaseURL)
	if cfg.Provider.Timeout != nil {
		timeout := expandEnvString(*cfg.Provider.Timeout)
		cfg.Provider.Timeout = &timeout
	}
	if cfg.Provider.InitialBackoff != nil {
		backoff := expandEnvString(*cfg.Provider.InitialBackoff)
		cfg.Provider.InitialBackoff = &backoff
	}
	if cfg.Provider.MaxBackoff != nil {
		backoff := expandEnvString(*cfg.Provider.MaxBackoff)
		cfg.Provider.MaxBackoff = &backoff
	}

	cfg.HTTP.Timeout = expandEnvString(cfg.HTTP.Timeout)
	cfg.HTTP.InitialBackoff = expandEnvString(cfg.HTTP.InitialBackoff)
	cfg.HTTP.MaxBackoff = expandEnvString(cfg.HTTP.MaxBackoff)

	cfg.Review.SkipFiles = expandEnvStringSlice(cfg.Review.SkipFiles)
	cfg.Review.FocusOn = expandEnvStringSlice(cfg.Review.FocusOn)
	cfg.Review.MinSeverity = expandEnvString(cfg.Review.MinSeverity)

	cfg.Store.Path = expandEnvString(cfg.Store.Path)

	cfg.Observability.Logging.Level = expandEnvString(cfg.Observability.Logging.Level)
	cfg.Observability.Logging.Format = expandEnvString(cfg.Observability.Logging.Format)

	return cfg
}

// expandEnvString replaces ${VAR} or $VAR with environment variable values.
func expandEnvString(s string) string {
	if s == "" {
		return s
	}

	// Replace ${VAR} syntax
	re := regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1] // Remove ${ and }
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	// Replace $VAR syntax (without braces)
	re = regexp.MustCompile(`\$([A-Z_][A-Z0-9_]*)`)
	s = re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[1:] // Remove $
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Keep original if not found
	})

	return s
}

// expandEnvStringSlice expands environment variables in a slice of strings.
func expandEnvStringSlice(slice []string) []string {
	if len(slice) == 0 {
		return slice
	}
	result := make([]string, len(slice))
	for i, s := range slice {
		result[i] = expandEnvString(s)
	}
	return result
}

func locateConfigFile(name string, paths []string) string {
	searchPaths := append([]string{}, paths...)
	searchPaths = append(searchPaths, ".")
	for _, dir := range searchPaths {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name+".yaml")
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate
		}
	}
	return ""
}

func setDefaults(v *viper.Viper) {
	// GitHub defaults
	v.SetDefault("github.baseURL", "https://api.github.com")
	v.SetDefault("github.token", "${GITHUB_TOKEN}")
	v.SetDefault("github.botUsername", "github-actions[bot]")

	// Provider defaults
	v.SetDefault("provider.apiKey", "${OPENAI_API_KEY}")
	v.SetDefault("provider.model", "gpt-4o")
	v.SetDefault("provider.temperature", 0.3)
	v.SetDefault("provider.maxTokens", 2048)

	// HTTP defaults
	v.SetDefault("http.timeout", "60s")
	v.SetDefault("http.maxRetries", 5)
	v.SetDefault("http.initialBackoff", "2s")
	v.SetDefault("http.maxBackoff", "32s")
	v.SetDefault("http.backoffMultiplier", 2.0)

	// Review defaults
	v.SetDefault("review.minSeverity", "medium")
	v.SetDefault("review.maxCommentsPerFile", 5)
	v.SetDefault("review.tone", "balanced")
	v.SetDefault("review.summaryComment", true)
	v.SetDefault("review.maxFileConcurrency", 3)
	v.SetDefault("review.skipFiles", []string{
		"*.md",
		"*.lock",
		"package-lock.json",
		"yarn.lock",
		"*.min.js",
		"dist/*",
		"build/*",
		"node_modules/*",
		"vendor/*",
	})

	// Store defaults
	v.SetDefault("store.enabled", true)
	v.SetDefault("store.path", defaultStorePath())

	// Observability defaults
	v.SetDefault("observability.logging.enabled", true)
	v.SetDefault("observability.logging.level", "info")
	v.SetDefault("observability.logging.format", "human")
	v.SetDefault("observability.logging.redactAPIKeys", true)
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./reviews.db"
	}
	return filepath.Join(home, ".config", "prr", "reviews.db")
}
