package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, keys ...string) {
		if *dst != "" {
			return
		}
		for _, k := range keys {
			if v := os.Getenv(k); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL", "OPENAI_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMImageModel, "LLM_IMAGE_MODEL")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY", "OPENAI_API_KEY", "API_KEY")
	// Flag defaults count as unset.
	setDefaulted := func(dst *string, def string, keys ...string) {
		if *dst == def {
			*dst = ""
			setString(dst, keys...)
			if *dst == "" {
				*dst = def
			}
			return
		}
		setString(dst, keys...)
	}
	setDefaulted(&cfg.CacheDir, DefaultCacheDir, "CONVERHTML_CACHE_DIR", "CACHE_DIR")
	setString(&cfg.Resolver, "CONVERHTML_RESOLVER")
	setString(&cfg.ChromeBin, "CONVERHTML_CHROME_BIN", "CHROME_BIN")
	setString(&cfg.ChromeURL, "CONVERHTML_CHROME_URL")
	setDefaulted(&cfg.ListenAddr, DefaultListen, "CONVERHTML_LISTEN")

	if cfg.ViewportWidth == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CONVERHTML_VIEWPORT"))); err == nil && n > 0 {
			cfg.ViewportWidth = n
		}
	}
	if cfg.CacheMaxAge == 0 {
		if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.CacheMaxAge = d
			}
		}
	}

	// Booleans
	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
		case "1", "true", "yes", "on":
			*dst = true
		}
	}
	setBool(&cfg.DryRun, "DRY_RUN")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.NoSandbox, "CONVERHTML_NO_SANDBOX")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.LLMCacheOnly, "LLM_CACHE_ONLY")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when they are set. Env takes precedence over a config file while flags
// remain highest precedence.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	override := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	override(&cfg.LLMBaseURL, "LLM_BASE_URL")
	override(&cfg.LLMModel, "LLM_MODEL")
	override(&cfg.LLMImageModel, "LLM_IMAGE_MODEL")
	override(&cfg.LLMAPIKey, "LLM_API_KEY")
	override(&cfg.CacheDir, "CONVERHTML_CACHE_DIR")
	override(&cfg.Resolver, "CONVERHTML_RESOLVER")
	override(&cfg.ChromeBin, "CONVERHTML_CHROME_BIN")
	override(&cfg.ChromeURL, "CONVERHTML_CHROME_URL")
	override(&cfg.ListenAddr, "CONVERHTML_LISTEN")

	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CONVERHTML_VIEWPORT"))); err == nil && n > 0 {
		cfg.ViewportWidth = n
	}
	if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			cfg.CacheMaxAge = d
		}
	}

	// Booleans override when env present and truthy or falsey
	setBool := func(dst *bool, envKey string) {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
	setBool(&cfg.DryRun, "DRY_RUN")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.NoSandbox, "CONVERHTML_NO_SANDBOX")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
	setBool(&cfg.LLMCacheOnly, "LLM_CACHE_ONLY")
}
