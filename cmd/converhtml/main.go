package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/deulaag/converhtmlelementor/internal/app"
	"github.com/deulaag/converhtmlelementor/internal/generate"
	"github.com/deulaag/converhtmlelementor/internal/server"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		cfg        app.Config
		configPath string
		envFiles   string
		serve      bool
		version    bool
	)

	flag.StringVar(&configPath, "config", os.Getenv("CONVERHTML_CONFIG"), "Path to a YAML or JSON config file")
	flag.StringVar(&envFiles, "env", ".env", "Comma-separated dotenv files to load before reading the environment")
	flag.StringVar(&cfg.InputPath, "input", "", "HTML file to convert ('-' reads stdin)")
	flag.StringVar(&cfg.OutputDir, "out", app.DefaultOutputDir, "Directory for the generated templates")
	flag.StringVar(&cfg.Prompt, "prompt", "", "Generate the page with the model from this request instead of reading -input")
	flag.StringVar(&cfg.ImagePath, "image", "", "Optional reference image sent along with -prompt")
	flag.StringVar(&cfg.SystemPrompt, "system-prompt", "", "Override the generation system prompt")
	flag.StringVar(&cfg.LLMBaseURL, "llm.base", "", "OpenAI-compatible base URL")
	flag.StringVar(&cfg.LLMModel, "llm.model", "", "Model name")
	flag.StringVar(&cfg.LLMImageModel, "llm.imageModel", "", "Model used instead of -llm.model when -image is given")
	flag.StringVar(&cfg.LLMAPIKey, "llm.key", "", "API key for the OpenAI-compatible server")
	flag.BoolVar(&cfg.LLMCacheOnly, "llm.cacheOnly", false, "Only answer generation from the cache")
	flag.StringVar(&cfg.Resolver, "resolver", "", "Style resolver: cascade (default), browser or none")
	flag.IntVar(&cfg.ViewportWidth, "viewport", 0, "Viewport width in px styles resolve against (default 1200)")
	flag.IntVar(&cfg.ViewportHeight, "viewport.height", 0, "Viewport height in px (default 800)")
	flag.StringVar(&cfg.ChromeBin, "chrome.bin", "", "Chrome binary for the browser resolver")
	flag.StringVar(&cfg.ChromeURL, "chrome.url", "", "DevTools websocket URL of a running Chrome")
	flag.BoolVar(&cfg.NoSandbox, "chrome.noSandbox", false, "Run Chrome without its sandbox")
	flag.BoolVar(&cfg.KeepSelector, "keep-selector", false, "Leave the literal 'selector' placeholder in custom CSS")
	flag.BoolVar(&cfg.Sanitize, "sanitize", false, "Sanitize markup stored in text widgets")
	flag.BoolVar(&cfg.Tar, "tar", false, "Also pack the output directory into a .tar.gz")
	flag.StringVar(&cfg.ReportPath, "report", "", "Write a Markdown conversion report to this path")
	flag.StringVar(&cfg.ReportPDFPath, "report.pdf", "", "Write a PDF conversion report to this path")
	flag.StringVar(&cfg.CacheDir, "cache.dir", app.DefaultCacheDir, "Cache directory path")
	flag.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.Int64Var(&cfg.CacheMaxBytes, "cache.maxBytes", 0, "Evict least recently used cache entries above this size; 0 disables")
	flag.BoolVar(&cfg.CacheClear, "cache.clear", false, "Clear cache directory before run")
	flag.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.BoolVar(&serve, "serve", false, "Serve the HTTP API instead of running once")
	flag.StringVar(&cfg.ListenAddr, "listen", app.DefaultListen, "Listen address for -serve")
	flag.BoolVar(&cfg.DryRun, "dry-run", false, "Convert and log the slices without writing files")
	flag.BoolVar(&cfg.Verbose, "v", false, "Verbose logging")
	flag.BoolVar(&version, "version", false, "Print version and exit")
	flag.Parse()

	if version {
		fmt.Printf("converhtml %s (%s, %s)\n", app.BuildVersion, app.BuildCommit, app.BuildDate)
		return
	}
	if flag.NArg() > 0 && cfg.InputPath == "" {
		cfg.InputPath = flag.Arg(0)
	}

	if err := app.LoadEnvFiles(strings.Split(envFiles, ",")...); err != nil {
		log.Warn().Err(err).Msg("dotenv load failed")
	}
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Str("path", configPath).Msg("config load failed")
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
		app.ApplyEnvOverrides(&cfg)
	} else {
		app.ApplyEnvToConfig(&cfg)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, serve); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCode(err))
	}
}

// exitCode maps errors to the process exit status: 2 when the run produced
// nothing to import, 1 for everything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, app.ErrNoSections), errors.Is(err, generate.ErrEmptyResponse):
		return 2
	default:
		return 1
	}
}

func run(ctx context.Context, cfg app.Config, serve bool) error {
	if !serve {
		if err := app.ValidateConfig(cfg); err != nil {
			return err
		}
	}
	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}()

	if serve {
		s := &server.Server{Converter: a.Converter(), Generator: a.Generator(), Model: cfg.LLMModel}
		return s.ListenAndServe(ctx, cfg.ListenAddr)
	}
	return a.Run(ctx)
}
