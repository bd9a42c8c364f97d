package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadConfigFile_YAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "system.txt"), []byte("custom system"), 0o600); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "converhtml.yaml")
	content := `
input: page.html
output: out
generate:
  prompt: "landing de cafeteria"
  systemPromptFile: system.txt
llm:
  base: http://localhost:11434/v1
  model: local
  imageModel: local-vision
convert:
  resolver: none
  viewportWidth: 1440
  keepSelector: true
cache:
  dir: /tmp/c
  maxAge: 24h
report:
  markdown: report.md
  tar: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Generate.SystemPrompt != "custom system" {
		t.Fatalf("system prompt file not read: %q", fc.Generate.SystemPrompt)
	}

	cfg := Config{OutputDir: DefaultOutputDir, CacheDir: DefaultCacheDir, Resolver: ResolverCascade, ViewportWidth: 1024}
	ApplyFileConfig(&cfg, fc)
	if cfg.InputPath != "page.html" || cfg.OutputDir != "out" {
		t.Fatalf("paths not applied: %+v", cfg)
	}
	if cfg.Resolver != ResolverNone || !cfg.KeepSelector || !cfg.Tar {
		t.Fatalf("convert settings not applied: %+v", cfg)
	}
	if cfg.ViewportWidth != 1024 {
		t.Fatalf("explicit viewport must win, got %d", cfg.ViewportWidth)
	}
	if cfg.CacheDir != "/tmp/c" || cfg.CacheMaxAge != 24*time.Hour {
		t.Fatalf("cache settings not applied: %+v", cfg)
	}
	if cfg.LLMImageModel != "local-vision" {
		t.Fatalf("image model not applied: %q", cfg.LLMImageModel)
	}
	if cfg.LLMModel != "local" || cfg.Prompt != "landing de cafeteria" || cfg.SystemPrompt != "custom system" {
		t.Fatalf("generation settings not applied: %+v", cfg)
	}
}

func TestLoadConfigFile_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.json")
	if err := os.WriteFile(path, []byte(`{"input":"a.html","chrome":{"bin":"/usr/bin/chromium","noSandbox":true}}`), 0o600); err != nil {
		t.Fatal(err)
	}
	fc, err := LoadConfigFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if fc.Input != "a.html" || fc.Chrome.Bin != "/usr/bin/chromium" || !fc.Chrome.NoSandbox {
		t.Fatalf("unexpected %+v", fc)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	_ = os.WriteFile(bad, []byte(`{`), 0o600)
	if _, err := LoadConfigFile(bad); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidateConfig(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		err  string
	}{
		{"input ok", Config{InputPath: "a.html", OutputDir: "out"}, ""},
		{"nothing to do", Config{OutputDir: "out"}, "input file or a prompt"},
		{"prompt without model", Config{Prompt: "x", OutputDir: "out"}, "llm.model"},
		{"prompt ok", Config{Prompt: "x", LLMModel: "m", OutputDir: "out"}, ""},
		{"image without prompt", Config{InputPath: "a.html", ImagePath: "a.png", OutputDir: "out"}, "image needs a prompt"},
		{"no output", Config{InputPath: "a.html"}, "output dir"},
		{"dry run without output", Config{InputPath: "a.html", DryRun: true}, ""},
		{"bad resolver", Config{InputPath: "a.html", OutputDir: "o", Resolver: "webkit"}, "unknown resolver"},
		{"negative", Config{InputPath: "a.html", OutputDir: "o", ViewportWidth: -1}, "negative"},
	}
	for _, c := range cases {
		err := ValidateConfig(c.cfg)
		if c.err == "" && err != nil {
			t.Fatalf("%s: unexpected error %v", c.name, err)
		}
		if c.err != "" && (err == nil || !strings.Contains(err.Error(), c.err)) {
			t.Fatalf("%s: got %v, want error containing %q", c.name, err, c.err)
		}
	}
}
