package convert

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDLength is the length of generated element ids.
const IDLength = 7

// IDGenerator hands out element ids. Ids must be unique within one
// conversion; they need not be stable across runs.
type IDGenerator interface {
	NewID() string
}

// RandomIDs draws ids from random UUIDs and never repeats one it has already
// issued. The zero value is ready to use.
type RandomIDs struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func (g *RandomIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.seen == nil {
		g.seen = make(map[string]struct{})
	}
	for {
		id := strings.ReplaceAll(uuid.NewString(), "-", "")[:IDLength]
		if _, dup := g.seen[id]; dup {
			continue
		}
		g.seen[id] = struct{}{}
		return id
	}
}

// SequentialIDs issues zero-padded hexadecimal counters starting at 1. It is
// meant for reproducible output and tests.
type SequentialIDs struct {
	mu sync.Mutex
	n  int
}

func (g *SequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%0*x", IDLength, g.n)
}
