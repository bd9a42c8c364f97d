// Package export writes a conversion result to disk as importable JSON
// templates with a checksummed manifest.
package export

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog/log"

	"github.com/deulaag/converhtmlelementor/internal/convert"
)

const (
	// FullSiteFile holds the envelope with every section.
	FullSiteFile = "site-completo.json"
	// ManifestFile describes every written file.
	ManifestFile = "manifest.json"
	// SumsFile lists sha256 digests in sha256sum format.
	SumsFile = "SHA256SUMS"
)

// Meta captures run details recorded in the manifest.
type Meta struct {
	Version           string    `json:"version"`
	Resolver          string    `json:"resolver"`
	ViewportWidth     int       `json:"viewport_width"`
	InputSHA256       string    `json:"input_sha256,omitempty"`
	Widgets           int       `json:"widgets"`
	Sections          int       `json:"sections"`
	CustomCSSInjected bool      `json:"custom_css_injected"`
	GeneratedAt       time.Time `json:"generated_at"`
}

// Entry is one written template file.
type Entry struct {
	File   string `json:"file"`
	Name   string `json:"name"`
	ID     string `json:"id,omitempty"`
	SHA256 string `json:"sha256"`
	Bytes  int    `json:"bytes"`
}

// Manifest is the machine-readable summary stored next to the templates.
type Manifest struct {
	Meta  Meta    `json:"meta"`
	Files []Entry `json:"files"`
}

// Options controls what Write emits besides the templates.
type Options struct {
	Meta Meta
	// Tar additionally packs the directory into <dir>.tar.gz.
	Tar bool
}

// Write stores res under dir: the full site envelope, one file per slice
// named after the slugged slice id, manifest.json and SHA256SUMS.
func Write(dir string, res *convert.Result, opts Options) (*Manifest, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("export: empty output dir")
	}
	if res == nil {
		return nil, fmt.Errorf("export: nil result")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir output dir: %w", err)
	}

	meta := opts.Meta
	meta.Widgets = res.Stats.Widgets
	meta.Sections = res.Stats.Sections
	meta.CustomCSSInjected = res.Stats.CustomCSSInjected
	if meta.GeneratedAt.IsZero() {
		meta.GeneratedAt = time.Now().UTC()
	}
	man := &Manifest{Meta: meta, Files: make([]Entry, 0, len(res.Sections)+1)}

	e, err := writeTemplate(dir, FullSiteFile, res.FullSite)
	if err != nil {
		return nil, err
	}
	e.Name = res.FullSite.Title
	man.Files = append(man.Files, e)

	used := map[string]bool{FullSiteFile: true, ManifestFile: true}
	for _, s := range res.Sections {
		name := SliceFileName(s.ID, used)
		e, err := writeTemplate(dir, name, s.JSONContent)
		if err != nil {
			return nil, err
		}
		e.Name = s.Name
		e.ID = s.ID
		man.Files = append(man.Files, e)
	}

	data, err := encode(man)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	if err := writeSHA256SUMS(dir); err != nil {
		return nil, err
	}
	if opts.Tar {
		clean := filepath.Clean(dir)
		if err := tarGzDirectory(clean, clean+".tar.gz"); err != nil {
			return nil, fmt.Errorf("tar bundle: %w", err)
		}
	}
	log.Debug().Str("stage", "export").Str("dir", dir).Int("files", len(man.Files)).Msg("templates written")
	return man, nil
}

// SliceFileName returns a unique file name for a slice id and records it in
// used. Repeated ids get a numeric suffix.
func SliceFileName(id string, used map[string]bool) string {
	base := slug.Make(id)
	if base == "" {
		base = "section"
	}
	name := base + ".json"
	for i := 2; used[name]; i++ {
		name = base + "-" + strconv.Itoa(i) + ".json"
	}
	used[name] = true
	return name
}

// Marshal encodes v the way the templates are written: two-space indent and
// no HTML escaping, so markup inside settings stays readable.
func Marshal(v any) ([]byte, error) {
	return encode(v)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeTemplate(dir, name string, env convert.Envelope) (Entry, error) {
	data, err := encode(env)
	if err != nil {
		return Entry{}, fmt.Errorf("encode %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return Entry{}, fmt.Errorf("write %s: %w", name, err)
	}
	sum := sha256.Sum256(data)
	return Entry{File: name, SHA256: hex.EncodeToString(sum[:]), Bytes: len(data)}, nil
}

func writeSHA256SUMS(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || e.Name() == SumsFile || strings.HasSuffix(e.Name(), ".tar.gz") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		sum, err := sha256File(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		b.WriteString(sum)
		b.WriteString("  ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	return os.WriteFile(filepath.Join(dir, SumsFile), []byte(b.String()), 0o644)
}

func sha256File(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func tarGzDirectory(srcDir, outPath string) (err error) {
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()
	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)
	base := filepath.Base(srcDir)
	werr := filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(filepath.Join(base, rel))
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if werr != nil {
		return werr
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}
