// Package browser owns the headless Chrome instance shared by page
// rasterization and PDF printing.
//
// Rod downloads Chromium on first run if none is found. Set ROD_BROWSER_BIN
// to use a pre-installed binary, as in containers.
package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/alnah/go-epaper/internal/fileutil"
	"github.com/alnah/go-epaper/internal/process"
)

// Sentinel errors for browser operations.
var (
	ErrBrowserConnect = errors.New("failed to connect to browser")
	ErrPageCreate     = errors.New("failed to create browser page")
	ErrPageLoad       = errors.New("failed to load page")
	ErrClosed         = errors.New("browser closed")
)

// DefaultTimeout bounds page loads when the context carries no deadline.
const DefaultTimeout = 30 * time.Second

// Browser lazily launches Chrome on first use and is safe for concurrent use.
type Browser struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
	closed   bool
}

// New creates a Browser. Chrome is not started until a page is opened.
func New(timeout time.Duration) *Browser {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Browser{timeout: timeout}
}

// ensure lazily connects to the browser. Caller holds b.mu.
func (b *Browser) ensure() error {
	if b.closed {
		return ErrClosed
	}
	if b.browser != nil {
		return nil
	}

	l := launcher.New()

	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox is required in CI and containers.
	if os.Getenv("CI") == "true" || os.Getenv("ROD_BROWSER_BIN") != "" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}
	b.launcher = l
	b.browser = browser
	return nil
}

// Page is an open tab holding one document. Close releases the tab and its
// backing file.
type Page struct {
	*rod.Page
	cleanup func()
}

// Close closes the tab. It is safe to call more than once.
func (p *Page) Close() error {
	if p.cleanup == nil {
		return nil
	}
	err := p.Page.Close()
	p.cleanup()
	p.cleanup = nil
	return err
}

// Open writes markup to a temporary file, opens it in a new tab and waits
// for the load event, so that images referenced by the markup are painted.
func (b *Browser) Open(ctx context.Context, markup []byte) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	err := b.ensure()
	browser := b.browser
	b.mu.Unlock()
	if err != nil {
		return nil, err
	}

	path, cleanup, err := fileutil.WriteTempFile(string(markup), "html")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "file://" + path})
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %v", ErrPageCreate, err)
	}
	p := &Page{Page: page, cleanup: cleanup}

	timeout, err := b.loadTimeout(ctx)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	if err := page.Context(ctx).Timeout(timeout).WaitLoad(); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	return p, nil
}

// loadTimeout takes the context deadline when there is one.
func (b *Browser) loadTimeout(ctx context.Context) (time.Duration, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		return b.timeout, nil
	}
	timeout := time.Until(deadline)
	if timeout <= 0 {
		return 0, context.DeadlineExceeded
	}
	return timeout, nil
}

// Close shuts Chrome down and kills its process group. Later Open calls
// fail with ErrClosed.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	if b.browser == nil {
		return nil
	}
	err := b.browser.Close()
	if pid := b.launcher.PID(); pid > 0 {
		process.KillProcessGroup(pid)
	}
	b.launcher.Kill()
	b.browser = nil
	b.launcher = nil
	return err
}
