package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStore_SaveGet(t *testing.T) {
	s := &Store{Dir: t.TempDir()}
	key := KeyFrom("model", "system", "prompt")
	data := []byte(`{"html":"<section></section>"}`)
	if err := s.Save(context.Background(), key, data); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, ok, err := s.Get(context.Background(), key)
	if err != nil || !ok {
		t.Fatalf("get: %v ok=%v", err, ok)
	}
	if string(got) != string(data) {
		t.Fatalf("mismatch")
	}
	if _, ok, _ := s.Get(context.Background(), KeyFrom("other")); ok {
		t.Fatalf("expected miss")
	}
}

func TestKeyFrom_SeparatesParts(t *testing.T) {
	if KeyFrom("ab", "c") == KeyFrom("a", "bc") {
		t.Fatalf("keys must depend on part boundaries")
	}
}

func TestStore_NoDir(t *testing.T) {
	var s *Store
	if _, _, err := s.Get(context.Background(), "k"); err != ErrNoDir {
		t.Fatalf("expected ErrNoDir, got %v", err)
	}
}

func TestStore_StrictPerms(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "pages")
	s := &Store{Dir: dir, StrictPerms: true}
	key := KeyFrom("m", "p")
	if err := s.Save(context.Background(), key, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		t.Fatalf("stat dir: %v", err)
	}
	if got := info.Mode() & 0o777; got != 0o700 {
		t.Fatalf("dir mode = %o, want 0700", got)
	}
	finfo, err := os.Stat(filepath.Join(dir, key+".json"))
	if err != nil {
		t.Fatalf("stat file: %v", err)
	}
	if got := finfo.Mode() & 0o777; got != 0o600 {
		t.Fatalf("file mode = %o, want 0600", got)
	}
}

func TestEnforceLimits_EvictsLeastRecentlyUsed(t *testing.T) {
	dir := t.TempDir()
	s := &Store{Dir: dir}
	keys := []string{KeyFrom("p1"), KeyFrom("p2"), KeyFrom("p3")}
	base := time.Now().Add(-time.Hour)
	for i, k := range keys {
		if err := s.Save(context.Background(), k, []byte(fmt.Sprintf("%d", i))); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
		mt := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(filepath.Join(dir, k+".json"), mt, mt); err != nil {
			t.Fatalf("chtimes: %v", err)
		}
	}
	if _, ok, _ := s.Get(context.Background(), keys[0]); !ok {
		t.Fatal("expected hit")
	}
	removed, err := EnforceLimits(dir, 0, 2)
	if err != nil {
		t.Fatalf("enforce: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if _, ok, _ := s.Get(context.Background(), keys[1]); ok {
		t.Fatal("expected the least recently used entry to be evicted")
	}
}

func TestPurgeByAge(t *testing.T) {
	dir := t.TempDir()
	s := &Store{Dir: dir}
	oldKey, newKey := KeyFrom("old"), KeyFrom("new")
	_ = s.Save(context.Background(), oldKey, []byte("1"))
	_ = s.Save(context.Background(), newKey, []byte("2"))
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(filepath.Join(dir, oldKey+".json"), past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	removed, err := PurgeByAge(dir, 24*time.Hour)
	if err != nil || removed != 1 {
		t.Fatalf("purge: removed=%d err=%v", removed, err)
	}
	if err := ClearDir(dir); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("expected empty dir after clear")
	}
}
