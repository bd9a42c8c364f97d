package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/deulaag/converhtmlelementor/internal/app"
	"github.com/deulaag/converhtmlelementor/internal/convert"
	"github.com/deulaag/converhtmlelementor/internal/export"
	"github.com/deulaag/converhtmlelementor/internal/generate"
)

// Smoke test: run converts an input file into the output directory.
func TestRun_WritesTemplates(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.html")
	out := filepath.Join(dir, "out")
	if err := os.WriteFile(in, []byte(`<header><h1>Olá</h1></header><section><p>Texto</p></section>`), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	cfg := app.Config{InputPath: in, OutputDir: out, CacheDir: filepath.Join(dir, "cache")}
	if err := run(context.Background(), cfg, false); err != nil {
		t.Fatalf("run error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, export.FullSiteFile)); err != nil {
		t.Fatalf("expected full site template: %v", err)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	if err := run(context.Background(), app.Config{OutputDir: t.TempDir()}, false); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{app.ErrNoSections, 2},
		{fmt.Errorf("generate: %w", generate.ErrEmptyResponse), 2},
		{fmt.Errorf("generate: %w", generate.ErrCacheMiss), 1},
		{fmt.Errorf("%w: boom", convert.ErrConversionFailed), 1},
		{errors.New("read input: missing"), 1},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.want {
			t.Fatalf("exitCode(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}
