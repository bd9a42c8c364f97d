package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema.
// Nested sections map naturally to flags and env.
type FileConfig struct {
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`

	Generate struct {
		Prompt           string `yaml:"prompt" json:"prompt"`
		Image            string `yaml:"image" json:"image"`
		SystemPrompt     string `yaml:"systemPrompt" json:"systemPrompt"`
		SystemPromptFile string `yaml:"systemPromptFile" json:"systemPromptFile"`
	} `yaml:"generate" json:"generate"`

	LLM struct {
		BaseURL    string `yaml:"base" json:"base"`
		Model      string `yaml:"model" json:"model"`
		ImageModel string `yaml:"imageModel" json:"imageModel"`
		APIKey     string `yaml:"key" json:"key"`
		CacheOnly  bool   `yaml:"cacheOnly" json:"cacheOnly"`
	} `yaml:"llm" json:"llm"`

	Convert struct {
		Resolver       string `yaml:"resolver" json:"resolver"`
		ViewportWidth  int    `yaml:"viewportWidth" json:"viewportWidth"`
		ViewportHeight int    `yaml:"viewportHeight" json:"viewportHeight"`
		KeepSelector   bool   `yaml:"keepSelector" json:"keepSelector"`
		Sanitize       bool   `yaml:"sanitize" json:"sanitize"`
	} `yaml:"convert" json:"convert"`

	Chrome struct {
		Bin       string `yaml:"bin" json:"bin"`
		URL       string `yaml:"url" json:"url"`
		NoSandbox bool   `yaml:"noSandbox" json:"noSandbox"`
	} `yaml:"chrome" json:"chrome"`

	Report struct {
		Markdown string `yaml:"markdown" json:"markdown"`
		PDF      string `yaml:"pdf" json:"pdf"`
		Tar      bool   `yaml:"tar" json:"tar"`
	} `yaml:"report" json:"report"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		MaxBytes    int64         `yaml:"maxBytes" json:"maxBytes"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Listen  string `yaml:"listen" json:"listen"`
	DryRun  bool   `yaml:"dryRun" json:"dryRun"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	if fc.Generate.SystemPrompt == "" && fc.Generate.SystemPromptFile != "" {
		p := fc.Generate.SystemPromptFile
		if !filepath.IsAbs(p) {
			p = filepath.Join(filepath.Dir(path), p)
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return fc, fmt.Errorf("read system prompt file: %w", err)
		}
		fc.Generate.SystemPrompt = string(data)
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are currently unset or still at their flag default. Flags have already been
// parsed; the file supplies defaults while explicit flags win.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.InputPath == "" && fc.Input != "" {
		cfg.InputPath = fc.Input
	}
	if (cfg.OutputDir == "" || cfg.OutputDir == DefaultOutputDir) && fc.Output != "" {
		cfg.OutputDir = fc.Output
	}

	if cfg.Prompt == "" && fc.Generate.Prompt != "" {
		cfg.Prompt = fc.Generate.Prompt
	}
	if cfg.ImagePath == "" && fc.Generate.Image != "" {
		cfg.ImagePath = fc.Generate.Image
	}
	if cfg.SystemPrompt == "" && fc.Generate.SystemPrompt != "" {
		cfg.SystemPrompt = fc.Generate.SystemPrompt
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMImageModel == "" && fc.LLM.ImageModel != "" {
		cfg.LLMImageModel = fc.LLM.ImageModel
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if !cfg.LLMCacheOnly && fc.LLM.CacheOnly {
		cfg.LLMCacheOnly = true
	}

	if (cfg.Resolver == "" || cfg.Resolver == ResolverCascade) && fc.Convert.Resolver != "" {
		cfg.Resolver = fc.Convert.Resolver
	}
	if cfg.ViewportWidth == 0 && fc.Convert.ViewportWidth > 0 {
		cfg.ViewportWidth = fc.Convert.ViewportWidth
	}
	if cfg.ViewportHeight == 0 && fc.Convert.ViewportHeight > 0 {
		cfg.ViewportHeight = fc.Convert.ViewportHeight
	}
	if !cfg.KeepSelector && fc.Convert.KeepSelector {
		cfg.KeepSelector = true
	}
	if !cfg.Sanitize && fc.Convert.Sanitize {
		cfg.Sanitize = true
	}

	if cfg.ChromeBin == "" && fc.Chrome.Bin != "" {
		cfg.ChromeBin = fc.Chrome.Bin
	}
	if cfg.ChromeURL == "" && fc.Chrome.URL != "" {
		cfg.ChromeURL = fc.Chrome.URL
	}
	if !cfg.NoSandbox && fc.Chrome.NoSandbox {
		cfg.NoSandbox = true
	}

	if cfg.ReportPath == "" && fc.Report.Markdown != "" {
		cfg.ReportPath = fc.Report.Markdown
	}
	if cfg.ReportPDFPath == "" && fc.Report.PDF != "" {
		cfg.ReportPDFPath = fc.Report.PDF
	}
	if !cfg.Tar && fc.Report.Tar {
		cfg.Tar = true
	}

	if (cfg.CacheDir == "" || cfg.CacheDir == DefaultCacheDir) && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if cfg.CacheMaxBytes == 0 && fc.Cache.MaxBytes > 0 {
		cfg.CacheMaxBytes = fc.Cache.MaxBytes
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}

	if (cfg.ListenAddr == "" || cfg.ListenAddr == DefaultListen) && fc.Listen != "" {
		cfg.ListenAddr = fc.Listen
	}
	if !cfg.DryRun && fc.DryRun {
		cfg.DryRun = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig checks the settings a CLI run needs. Generation requires a
// model; conversion requires an input.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.Prompt) == "" && strings.TrimSpace(cfg.InputPath) == "" {
		return errors.New("config: an input file or a prompt is required")
	}
	if strings.TrimSpace(cfg.Prompt) != "" && strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required for generation (or set LLM_MODEL)")
	}
	if strings.TrimSpace(cfg.ImagePath) != "" && strings.TrimSpace(cfg.Prompt) == "" {
		return errors.New("config: an image needs a prompt")
	}
	if !cfg.DryRun && strings.TrimSpace(cfg.OutputDir) == "" {
		return errors.New("config: output dir is required")
	}
	switch cfg.Resolver {
	case "", ResolverCascade, ResolverBrowser, ResolverNone:
	default:
		return fmt.Errorf("config: unknown resolver %q", cfg.Resolver)
	}
	if cfg.ViewportWidth < 0 || cfg.ViewportHeight < 0 || cfg.CacheMaxBytes < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	return nil
}
