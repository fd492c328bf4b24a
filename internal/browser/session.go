package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"archivist/internal/fetch"
)

// Launcher creates headless Chrome sessions. Sessions are created per
// extraction call and never pooled; the caller owns the session for its
// whole scope and must call the returned cancel func on every exit path.
type Launcher struct {
	headless   bool
	profileDir string
	logger     *slog.Logger
}

// Config holds launcher settings.
type Config struct {
	Headless   bool
	ProfileDir string // Chrome user data dir; empty means a throwaway profile
	Logger     *slog.Logger
}

func NewLauncher(cfg Config) *Launcher {
	return &Launcher{
		headless:   cfg.Headless,
		profileDir: cfg.ProfileDir,
		logger:     cfg.Logger,
	}
}

// Session is one exclusively-owned browser tab.
type Session struct {
	ctx    context.Context
	logger *slog.Logger
}

// NewSession spawns a browser context under parent. The cancel func tears
// down the tab and the allocator and is safe to call more than once.
func (l *Launcher) NewSession(parent context.Context) (*Session, context.CancelFunc) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(fetch.DesktopUserAgent),
	)
	if l.profileDir != "" {
		opts = append(opts, chromedp.UserDataDir(l.profileDir))
	}
	if l.headless {
		opts = append(opts, chromedp.Headless)
	} else {
		opts = append(opts, chromedp.Flag("headless", false))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, opts...)
	taskCtx, taskCancel := chromedp.NewContext(allocCtx)

	cancelAll := func() {
		taskCancel()
		allocCancel()
	}
	return &Session{ctx: taskCtx, logger: l.logger}, cancelAll
}

// Load navigates to url and waits for the first of readySelectors to appear,
// giving each selector waitEach before moving on. It returns the page source
// whether or not any selector matched; pages that never settle still yield
// whatever HTML is present.
func (s *Session) Load(url string, readySelectors []string, waitEach time.Duration) (string, error) {
	if err := chromedp.Run(s.ctx, chromedp.Navigate(url)); err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}

	for _, sel := range readySelectors {
		waitCtx, cancel := context.WithTimeout(s.ctx, waitEach)
		err := chromedp.Run(waitCtx, chromedp.WaitReady(sel, chromedp.ByQuery))
		cancel()
		if err == nil {
			s.logger.Debug("content ready", "url", url, "selector", sel)
			// Brief settle so lazily-loaded media attributes populate.
			_ = chromedp.Run(s.ctx, chromedp.Sleep(500*time.Millisecond))
			break
		}
	}

	return s.PageSource()
}

// PageSource returns the current serialized DOM.
func (s *Session) PageSource() (string, error) {
	var src string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &src, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("page source: %w", err)
	}
	return src, nil
}

// QueryAttr returns the named attribute of every element matching selector,
// in document order. Elements without the attribute yield empty strings.
func (s *Session) QueryAttr(selector, attr string) ([]string, error) {
	js := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%q)).map(el => el.getAttribute(%q) || "")`,
		selector, attr,
	)
	var vals []string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(js, &vals)); err != nil {
		return nil, fmt.Errorf("query %s: %w", selector, err)
	}
	return vals, nil
}

// Cookies exports the tab's cookies as a Cookie header value, so plain HTTP
// requests can reuse the browser's session.
func (s *Session) Cookies() (string, error) {
	var header string
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		for i, c := range cookies {
			if i > 0 {
				header += "; "
			}
			header += c.Name + "=" + c.Value
		}
		return nil
	}))
	if err != nil {
		return "", fmt.Errorf("export cookies: %w", err)
	}
	return header, nil
}
