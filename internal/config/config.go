package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file picked up from the working directory when
// --config is not given.
const DefaultPath = "testforge.yaml"

// Config holds everything the CLI resolves before any work starts.
type Config struct {
	LLM     LLMConfig     `yaml:"llm"`
	Paths   PathsConfig   `yaml:"paths"`
	Browser BrowserConfig `yaml:"browser"`
	Logging LoggingConfig `yaml:"logging"`

	keyFromFile bool
}

// LLMConfig selects the completion provider.
type LLMConfig struct {
	Provider string `yaml:"provider"` // gemini, claude, openai
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// PathsConfig locates the files the generator reads and writes.
type PathsConfig struct {
	TestsDir       string `yaml:"tests_dir"`
	PageObjectFile string `yaml:"page_object_file"`
	PageObjectName string `yaml:"page_object_name"`
}

// BrowserConfig is used for --page-url and --scan captures.
type BrowserConfig struct {
	Width      int           `yaml:"width"`
	Height     int           `yaml:"height"`
	Timeout    time.Duration `yaml:"timeout"`
	ProfileDir string        `yaml:"profile_dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "",
		},
		Paths: PathsConfig{
			TestsDir:       "tests",
			PageObjectFile: "pages/SauceDemoPage.ts",
			PageObjectName: "SauceDemoPage",
		},
		Browser: BrowserConfig{
			Width:   1280,
			Height:  720,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "warn",
		},
	}
}

// Load reads the YAML file at path on top of the defaults and then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			// defaults only
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
			cfg.keyFromFile = cfg.LLM.APIKey != ""
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// applyEnvOverrides resolves the provider and its credential from the
// environment. An explicit provider only takes the key for that provider; with
// no provider set, the first provider that has a key wins.
func (c *Config) applyEnvOverrides() {
	if p := os.Getenv("TESTFORGE_PROVIDER"); p != "" {
		c.LLM.Provider = p
	}
	if m := os.Getenv("TESTFORGE_MODEL"); m != "" {
		c.LLM.Model = m
	}

	if c.LLM.Provider == "" {
		for _, name := range []string{ProviderGemini, ProviderClaude, ProviderOpenAI} {
			if lookupKey(name) != "" {
				c.LLM.Provider = name
				break
			}
		}
		if c.LLM.Provider == "" {
			c.LLM.Provider = ProviderGemini
		}
	}

	if c.LLM.APIKey == "" {
		c.LLM.APIKey = lookupKey(c.LLM.Provider)
	}

	if dir := os.Getenv("TESTFORGE_TESTS_DIR"); dir != "" {
		c.Paths.TestsDir = dir
	}
	if file := os.Getenv("TESTFORGE_PAGE_OBJECT"); file != "" {
		c.Paths.PageObjectFile = file
	}
}

// Provider names accepted in config and on the command line.
const (
	ProviderGemini = "gemini"
	ProviderClaude = "claude"
	ProviderOpenAI = "openai"
)

var providerKeys = map[string][]string{
	ProviderGemini: {"TESTFORGE_GOOGLE_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY"},
	ProviderClaude: {"TESTFORGE_ANTHROPIC_KEY", "ANTHROPIC_API_KEY"},
	ProviderOpenAI: {"TESTFORGE_OPENAI_KEY", "OPENAI_API_KEY"},
}

// CanonicalProvider maps accepted aliases onto provider names.
func CanonicalProvider(name string) string {
	switch name {
	case "gemini", "google":
		return ProviderGemini
	case "claude", "anthropic":
		return ProviderClaude
	case "openai", "gpt":
		return ProviderOpenAI
	default:
		return name
	}
}

func lookupKey(provider string) string {
	for _, env := range providerKeys[CanonicalProvider(provider)] {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return ""
}

// UseProvider switches provider after Load (the --provider flag) and picks up
// that provider's key unless one was set in the config file.
func (c *Config) UseProvider(name string) {
	if name == "" {
		return
	}
	c.LLM.Provider = name
	if !c.keyFromFile {
		c.LLM.APIKey = lookupKey(name)
	}
}
