package style

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"github.com/deulaag/converhtmlelementor/internal/dom"
)

// indexAttr carries each element's Index into the browser page.
const indexAttr = "data-converhtml-idx"

// ErrNoBrowser is returned when no Chrome binary or remote endpoint is
// available.
var ErrNoBrowser = errors.New("style: no browser available")

// Browser resolves computed styles with a headless Chrome driven over the
// DevTools protocol. The markup is assigned to a detached container with
// innerHTML, so scripts do not run, and every element is read back with
// getComputedStyle in a single round trip. One Chrome process serves every
// Prepare call until Close.
type Browser struct {
	// Bin is the Chrome binary. Empty means launcher.LookPath.
	Bin string
	// RemoteURL connects to an already running DevTools endpoint instead of
	// launching Chrome.
	RemoteURL string
	// NoSandbox disables the Chrome sandbox, needed when running as root in
	// containers.
	NoSandbox bool
	// Height of the emulated viewport. Zero means DefaultViewportHeight.
	Height int
	// Timeout bounds one Prepare call. Zero means 30s.
	Timeout time.Duration

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// Available reports whether Prepare can reach a browser.
func (b *Browser) Available() bool {
	if b.RemoteURL != "" || b.Bin != "" {
		return true
	}
	_, ok := launcher.LookPath()
	return ok
}

func (b *Browser) connect() (*rod.Browser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.browser != nil {
		return b.browser, nil
	}
	wsURL := b.RemoteURL
	if wsURL == "" {
		bin := b.Bin
		if bin == "" {
			found, ok := launcher.LookPath()
			if !ok {
				return nil, ErrNoBrowser
			}
			bin = found
		}
		l := launcher.New().Bin(bin).Headless(true).NoSandbox(b.NoSandbox)
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("style: launch chrome: %w", err)
		}
		wsURL = u
		b.lnch = l
		log.Debug().Str("stage", "style").Str("bin", bin).Msg("launched headless chrome")
	}
	rb := rod.New().ControlURL(wsURL)
	if err := rb.Connect(); err != nil {
		if b.lnch != nil {
			b.lnch.Cleanup()
			b.lnch = nil
		}
		return nil, fmt.Errorf("style: connect chrome: %w", err)
	}
	b.browser = rb
	return rb, nil
}

// Prepare implements Resolver.
func (b *Browser) Prepare(doc *dom.Document) (Sheet, error) {
	return b.PrepareContext(context.Background(), doc)
}

const shellDocument = `<!doctype html><html><head><meta charset="utf-8"></head><body style="margin:0"><div id="converhtml-root"></div></body></html>`

const computeScript = `(markup, attr, props) => {
	const root = document.getElementById('converhtml-root');
	root.innerHTML = markup;
	const out = {};
	root.querySelectorAll('[' + attr + ']').forEach((el) => {
		const cs = window.getComputedStyle(el);
		const m = {};
		props.forEach((p) => { m[p] = cs.getPropertyValue(p); });
		out[el.getAttribute(attr)] = m;
	});
	root.innerHTML = '';
	return JSON.stringify(out);
}`

// PrepareContext renders doc in a fresh tab and snapshots the computed
// style of every element. The tab is closed before returning.
func (b *Browser) PrepareContext(ctx context.Context, doc *dom.Document) (Sheet, error) {
	if doc == nil || doc.Closed() {
		return nil, dom.ErrClosed
	}
	rb, err := b.connect()
	if err != nil {
		return nil, err
	}
	timeout := b.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	page, err := rb.Context(ctx).Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, fmt.Errorf("style: open tab: %w", err)
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			log.Debug().Err(cerr).Msg("closing style tab")
		}
	}()

	height := b.Height
	if height <= 0 {
		height = DefaultViewportHeight
	}
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             doc.ViewportWidth(),
		Height:            height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return nil, fmt.Errorf("style: viewport: %w", err)
	}
	if err := page.SetDocumentContent(shellDocument); err != nil {
		return nil, fmt.Errorf("style: load shell: %w", err)
	}
	res, err := page.Eval(computeScript, doc.AnnotatedHTML(indexAttr), indexAttr, Properties)
	if err != nil {
		return nil, fmt.Errorf("style: compute: %w", err)
	}
	var raw map[string]map[string]string
	if err := json.Unmarshal([]byte(res.Value.Str()), &raw); err != nil {
		return nil, fmt.Errorf("style: decode computed styles: %w", err)
	}
	byIndex := make(map[int]Computed, len(raw))
	for k, m := range raw {
		idx, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		byIndex[idx] = Computed(m)
	}
	log.Debug().Str("stage", "style").Int("elements", len(byIndex)).Msg("browser styles captured")
	return snapshot(byIndex), nil
}

// Close shuts the browser down. A closed Browser relaunches on next use.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}

// snapshot is a Sheet backed by styles captured up front.
type snapshot map[int]Computed

func (s snapshot) Computed(n *dom.Node) Computed {
	if n == nil {
		return Computed{}
	}
	if c, ok := s[n.Index]; ok {
		return c.Clone()
	}
	return Computed{}
}

func (s snapshot) Close() error { return nil }
