// Package rod implements websum.Browser with headless Chrome driven by
// go-rod.
package rod

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/websum"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// DefaultTimeout bounds a single navigation including page load.
const DefaultTimeout = 30 * time.Second

var _ websum.Browser = (*Browser)(nil)

// Browser renders pages in headless Chrome. Each Fetch opens a fresh page
// and closes it afterwards. Recycle replaces the Chrome process, which
// releases memory Chrome accumulates over long runs. Recycle and Close wait
// for in-flight fetches to finish before the old process is shut down.
//
// Browser is safe for concurrent use.
type Browser struct {
	headless bool
	stealth  bool
	timeout  time.Duration
	blocked  []string

	mu       sync.RWMutex
	browser  *rod.Browser
	launcher *launcher.Launcher
	closed   atomic.Bool
}

// Option configures a Browser.
type Option func(*Browser)

// WithHeadless controls whether Chrome runs headless. Defaults to true.
func WithHeadless(headless bool) Option {
	return func(b *Browser) {
		b.headless = headless
	}
}

// WithStealth opens pages with evasions that hide automation markers.
func WithStealth(enabled bool) Option {
	return func(b *Browser) {
		b.stealth = enabled
	}
}

// WithTimeout sets the navigation timeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(b *Browser) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithBlockedResources fails requests for the given resource types
// ("image", "font", "media", "stylesheet") to speed up page loads.
func WithBlockedResources(types ...string) Option {
	return func(b *Browser) {
		for _, t := range types {
			b.blocked = append(b.blocked, strings.ToLower(t))
		}
	}
}

// NewBrowser launches Chrome. Close must be called when the Browser is no
// longer needed.
func NewBrowser(opts ...Option) (*Browser, error) {
	b := &Browser{
		headless: true,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}

	browser, lnchr, err := b.launch()
	if err != nil {
		return nil, websum.WrapError(websum.ERESOURCE, err, "starting browser")
	}
	b.browser = browser
	b.launcher = lnchr
	return b, nil
}

// Fetch navigates to url and returns the rendered HTML. Navigation
// failures and HTTP error statuses of the main document are returned as
// websum navigation errors.
func (b *Browser) Fetch(ctx context.Context, url string) (string, error) {
	if b.closed.Load() {
		return "", websum.Errorf(websum.ERESOURCE, "browser is closed")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Held until the page is closed so Recycle cannot pull Chrome out from
	// under the navigation.
	b.mu.RLock()
	defer b.mu.RUnlock()

	page, err := b.page()
	if err != nil {
		return "", websum.WrapError(websum.ERESOURCE, err, "opening page")
	}
	defer page.Close()

	navCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	page = page.Context(navCtx)

	if len(b.blocked) > 0 {
		router := page.HijackRequests()
		if err := router.Add("*", "", b.hijack); err != nil {
			return "", fmt.Errorf("blocking resources: %w", err)
		}
		go router.Run()
		defer func() { _ = router.Stop() }()
	}

	var status atomic.Int64
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		status.Store(int64(e.Response.Status))
		return true
	})
	go wait()

	if err := page.Navigate(url); err != nil {
		if statusErr := websum.ClassifyStatus(url, int(status.Load())); statusErr != nil {
			return "", statusErr
		}
		return "", ClassifyError(ctx, url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return "", ClassifyError(ctx, url, err)
	}
	if err := websum.ClassifyStatus(url, int(status.Load())); err != nil {
		return "", err
	}

	html, err := page.HTML()
	if err != nil {
		return "", ClassifyError(ctx, url, err)
	}
	return html, nil
}

// Recycle starts a new Chrome process and closes the old one. If the new
// process cannot be started the old one stays in use and an ERESOURCE
// error is returned.
func (b *Browser) Recycle() error {
	if b.closed.Load() {
		return websum.Errorf(websum.ERESOURCE, "browser is closed")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	browser, lnchr, err := b.launch()
	if err != nil {
		return websum.WrapError(websum.ERESOURCE, err, "recycling browser")
	}

	old, oldLauncher := b.browser, b.launcher
	b.browser, b.launcher = browser, lnchr
	if old != nil {
		_ = old.Close()
	}
	if oldLauncher != nil {
		oldLauncher.Kill()
	}
	return nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (b *Browser) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var err error
	if b.browser != nil {
		err = b.browser.Close()
		b.browser = nil
	}
	if b.launcher != nil {
		b.launcher.Kill()
		b.launcher = nil
	}
	return err
}

// LauncherPID returns the process ID of the running Chrome launcher.
func (b *Browser) LauncherPID() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.launcher == nil {
		return 0
	}
	return b.launcher.PID()
}

// page opens a tab on the current Chrome process. The caller must hold mu.
func (b *Browser) page() (*rod.Page, error) {
	browser := b.browser
	if browser == nil {
		return nil, errors.New("no active browser")
	}
	if b.stealth {
		return stealth.Page(browser)
	}
	return browser.Page(proto.TargetCreateTarget{})
}

func (b *Browser) launch() (*rod.Browser, *launcher.Launcher, error) {
	lnchr := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(b.headless)
	if b.stealth {
		lnchr = lnchr.Set("disable-blink-features", "AutomationControlled")
	}

	u, err := lnchr.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		lnchr.Kill()
		return nil, nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return browser, lnchr, nil
}

func (b *Browser) hijack(h *rod.Hijack) {
	if IsBlocked(b.blocked, string(h.Request.Type())) {
		h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		return
	}
	h.ContinueRequest(&proto.FetchContinueRequest{})
}

// IsBlocked reports whether resType is one of the blocked resource types.
// Plural forms ("images", "fonts") are accepted in blocked.
func IsBlocked(blocked []string, resType string) bool {
	resType = strings.ToLower(resType)
	for _, t := range blocked {
		if t == resType || t == resType+"s" {
			return true
		}
	}
	return false
}

// ClassifyError turns a rod navigation failure into a websum navigation
// error. Cancellation of ctx by the caller is returned as the context
// error so it is never retried.
func ClassifyError(ctx context.Context, url string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(ctxErr, context.Canceled) {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return websum.NavigationError(url, websum.ReasonTimeout, 0, err)
	}

	var navErr *rod.NavigationError
	if errors.As(err, &navErr) && strings.Contains(navErr.Reason, "TIMED_OUT") {
		return websum.NavigationError(url, websum.ReasonTimeout, 0, err)
	}
	return websum.NavigationError(url, websum.ReasonOther, 0, err)
}
