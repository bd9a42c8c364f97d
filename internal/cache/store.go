// Package cache persists model responses on disk so repeated runs with the
// same inputs are reproducible and cheap.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// ErrNoDir is returned when a Store has no directory configured.
var ErrNoDir = errors.New("cache dir not configured")

// Store keeps opaque entries as <key>.json files in Dir.
type Store struct {
	Dir string
	// StrictPerms, when true, enforces 0700 on the directory and 0600 on
	// files.
	StrictPerms bool
}

func (s *Store) ensureDir() error {
	if s == nil || s.Dir == "" {
		return ErrNoDir
	}
	perm := os.FileMode(0o755)
	if s.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(s.Dir, perm); err != nil {
		return err
	}
	if s.StrictPerms {
		if info, err := os.Stat(s.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(s.Dir, 0o700)
		}
	}
	return nil
}

// KeyFrom digests the parts of a request into a cache key. Parts are
// separated so that ("ab", "c") and ("a", "bc") differ.
func KeyFrom(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (s *Store) pathFor(key string) string {
	return filepath.Join(s.Dir, key+".json")
}

// Get returns the cached bytes for key. A miss is not an error. Hits touch
// the file so EnforceLimits evicts least recently used entries first.
func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := s.ensureDir(); err != nil {
		return nil, false, err
	}
	p := s.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, false, nil
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return b, true, nil
}

// Save writes data for key, replacing any previous entry atomically.
func (s *Store) Save(_ context.Context, key string, data []byte) error {
	if err := s.ensureDir(); err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if s.StrictPerms {
		mode = 0o600
	}
	p := s.pathFor(key)
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, data, mode); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
