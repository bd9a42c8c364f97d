// Package app wires configuration, generation, conversion and export into
// the CLI and server entry points.
package app

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog/log"

	"github.com/deulaag/converhtmlelementor/internal/cache"
	"github.com/deulaag/converhtmlelementor/internal/convert"
	"github.com/deulaag/converhtmlelementor/internal/dom"
	"github.com/deulaag/converhtmlelementor/internal/export"
	"github.com/deulaag/converhtmlelementor/internal/generate"
	"github.com/deulaag/converhtmlelementor/internal/llm"
	"github.com/deulaag/converhtmlelementor/internal/style"
)

// GeneratedFile keeps the model output next to the templates built from it.
const GeneratedFile = "fonte.html"

// ErrNoSections is returned when the markup yields no visible section, so
// there is nothing to import.
var ErrNoSections = errors.New("no visible sections")

type App struct {
	cfg      Config
	ai       llm.Client
	store    *cache.Store
	browser  *style.Browser
	resolver string
	conv     *convert.Converter
	stdin    io.Reader
}

// New prepares caches, the style resolver and, when a model is configured,
// the LLM client.
func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg, stdin: os.Stdin}

	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err == nil && n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		if cfg.CacheMaxBytes > 0 {
			_, _ = cache.EnforceLimits(cfg.CacheDir, cfg.CacheMaxBytes, 0)
		}
		a.store = &cache.Store{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	resolver, err := a.newResolver()
	if err != nil {
		return nil, err
	}
	opts := []convert.Option{
		convert.WithResolver(resolver),
		convert.WithViewportWidth(cfg.ViewportWidth),
		convert.WithSelectorBinding(!cfg.KeepSelector),
	}
	if cfg.Sanitize {
		opts = append(opts, convert.WithSanitizer(bluemonday.UGCPolicy()))
	}
	a.conv = convert.New(opts...)

	if strings.TrimSpace(cfg.LLMModel) != "" {
		p := llm.NewOpenAI(cfg.LLMBaseURL, cfg.LLMAPIKey, newLLMHTTPClient())
		a.ai = p
		if strings.TrimSpace(cfg.Prompt) != "" && !cfg.LLMCacheOnly {
			// Best effort: generation surfaces real errors later.
			pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			models, err := p.ListModels(pctx)
			if err != nil {
				log.Warn().Err(err).Msg("LLM model list failed; continuing")
			} else if len(models.Models) == 0 {
				log.Warn().Msg("LLM returned zero models")
			} else {
				log.Debug().Int("count", len(models.Models)).Msg("LLM models available")
			}
		}
	}
	return a, nil
}

func (a *App) newResolver() (style.Resolver, error) {
	switch a.cfg.Resolver {
	case "", ResolverCascade:
		a.resolver = ResolverCascade
		return style.Cascade{ViewportHeight: a.cfg.ViewportHeight}, nil
	case ResolverNone:
		a.resolver = ResolverNone
		return style.None, nil
	case ResolverBrowser:
		b := &style.Browser{
			Bin:       a.cfg.ChromeBin,
			RemoteURL: a.cfg.ChromeURL,
			NoSandbox: a.cfg.NoSandbox,
			Height:    a.cfg.ViewportHeight,
		}
		if !b.Available() {
			log.Warn().Msg("no Chrome found; falling back to the built-in cascade")
			a.resolver = ResolverCascade
			return style.Cascade{ViewportHeight: a.cfg.ViewportHeight}, nil
		}
		a.browser = b
		a.resolver = ResolverBrowser
		return b, nil
	default:
		return nil, fmt.Errorf("unknown resolver %q", a.cfg.Resolver)
	}
}

// Converter exposes the configured converter for the HTTP server.
func (a *App) Converter() *convert.Converter { return a.conv }

// Generator returns the page generator, or nil when no model is configured.
func (a *App) Generator() *generate.Generator {
	if a.ai == nil {
		return nil
	}
	return &generate.Generator{
		Client:       a.ai,
		Cache:        a.store,
		SystemPrompt: a.cfg.SystemPrompt,
		ImageModel:   a.cfg.LLMImageModel,
		CacheOnly:    a.cfg.LLMCacheOnly,
	}
}

// Close releases the browser, if one was started.
func (a *App) Close() error {
	if a.browser != nil {
		return a.browser.Close()
	}
	return nil
}

// Run produces markup (from the model or the input file), converts it and
// writes the templates, manifest and optional reports.
func (a *App) Run(ctx context.Context) error {
	markup, generated, err := a.loadMarkup(ctx)
	if err != nil {
		return err
	}
	res, err := a.conv.ConvertContext(ctx, markup)
	if err != nil {
		return err
	}
	if err := convert.Validate(res); err != nil {
		log.Warn().Err(err).Msg("result validation issues")
	}
	log.Info().
		Int("widgets", res.Stats.Widgets).
		Int("containers", res.Stats.Sections).
		Int("slices", len(res.Sections)).
		Bool("custom_css", res.Stats.CustomCSSInjected).
		Msg("converted")
	if len(res.Sections) == 0 {
		return ErrNoSections
	}

	sum := sha256.Sum256([]byte(markup))
	meta := export.Meta{
		Version:       BuildVersion,
		Resolver:      a.resolver,
		ViewportWidth: a.viewportWidth(),
		InputSHA256:   hex.EncodeToString(sum[:]),
		GeneratedAt:   time.Now().UTC(),
	}
	if a.cfg.DryRun {
		for _, s := range res.Sections {
			log.Info().Str("name", s.Name).Str("id", s.ID).Msg("slice")
		}
		return nil
	}

	if generated {
		if err := os.MkdirAll(a.cfg.OutputDir, 0o755); err != nil {
			return fmt.Errorf("mkdir output dir: %w", err)
		}
		if err := os.WriteFile(filepath.Join(a.cfg.OutputDir, GeneratedFile), []byte(markup), 0o644); err != nil {
			return fmt.Errorf("write generated html: %w", err)
		}
	}
	man, err := export.Write(a.cfg.OutputDir, res, export.Options{Meta: meta, Tar: a.cfg.Tar})
	if err != nil {
		return err
	}
	log.Info().Str("out", a.cfg.OutputDir).Int("files", len(man.Files)).Msg("wrote templates")

	if a.cfg.ReportPath == "" && a.cfg.ReportPDFPath == "" {
		return nil
	}
	report := buildReport(res, man, man.Meta)
	if a.cfg.ReportPath != "" {
		if err := os.WriteFile(a.cfg.ReportPath, []byte(report), 0o644); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if a.cfg.ReportPDFPath != "" {
		if err := writeReportPDF(report, a.cfg.ReportPDFPath); err != nil {
			return fmt.Errorf("write report pdf: %w", err)
		}
	}
	return nil
}

func (a *App) viewportWidth() int {
	if a.cfg.ViewportWidth > 0 {
		return a.cfg.ViewportWidth
	}
	return dom.DefaultViewportWidth
}

// loadMarkup returns the markup to convert and whether it was generated.
func (a *App) loadMarkup(ctx context.Context) (string, bool, error) {
	if strings.TrimSpace(a.cfg.Prompt) != "" {
		g := a.Generator()
		if g == nil {
			return "", false, errors.New("generation requires an LLM model")
		}
		in := generate.Input{Prompt: a.cfg.Prompt, Model: a.cfg.LLMModel}
		if a.cfg.ImagePath != "" {
			img, err := os.ReadFile(a.cfg.ImagePath)
			if err != nil {
				return "", false, fmt.Errorf("read image: %w", err)
			}
			in.Image = img
		}
		out, err := g.Generate(ctx, in)
		if err != nil {
			return "", false, fmt.Errorf("generate: %w", err)
		}
		return out, true, nil
	}

	var raw []byte
	var err error
	if a.cfg.InputPath == "-" {
		raw, err = io.ReadAll(a.stdin)
	} else {
		raw, err = os.ReadFile(a.cfg.InputPath)
	}
	if err != nil {
		return "", false, fmt.Errorf("read input: %w", err)
	}
	markup, err := dom.DecodeHTML(raw, "")
	if err != nil {
		return "", false, fmt.Errorf("read input: %w", err)
	}
	return markup, false, nil
}
