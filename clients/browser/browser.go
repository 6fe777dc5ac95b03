package browser

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/pkg/browser"

	"dgexport/clients"
	"dgexport/core/log"
	"dgexport/models"
)

var (
	defaultOpenURL = browser.OpenURL
	// openURL is swapped in tests
	openURL = defaultOpenURL
)

// BrowserSurface opens the authorization page in the user's default browser
type BrowserSurface struct {
	out io.Writer
}

func NewBrowserSurface(out io.Writer) *BrowserSurface {
	return &BrowserSurface{out: out}
}

func (s *BrowserSurface) Open(ctx context.Context, url string, geometry models.WindowGeometry) (clients.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fmt.Fprintf(s.out, "🔗 Opening GitHub in your browser. If nothing happens, open this link:\n   %s\n", url)
	// a system browser ignores popup geometry; it is kept for logging only
	log.Info("📋 Opening authorization surface", "url", url, "features", geometry.Features())
	if err := openURL(url); err != nil {
		return nil, fmt.Errorf("failed to open browser: %w", err)
	}

	return &window{url: url}, nil
}

// PrintSurface only prints the link, for sessions without a desktop browser
type PrintSurface struct {
	out io.Writer
}

func NewPrintSurface(out io.Writer) *PrintSurface {
	return &PrintSurface{out: out}
}

func (s *PrintSurface) Open(ctx context.Context, url string, geometry models.WindowGeometry) (clients.Window, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fmt.Fprintf(s.out, "🔗 Open this link to continue:\n   %s\n", url)
	return &window{url: url}, nil
}

type window struct {
	once sync.Once
	url  string
}

// Close marks the surface as done. Browser tabs are owned by the browser, so this only logs.
func (w *window) Close() error {
	w.once.Do(func() {
		log.Info("📋 Authorization surface closed", "url", w.url)
	})
	return nil
}
