// Package slog provides logging decorators for websum services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/websum"
)

var _ websum.Browser = (*LoggingBrowser)(nil)

// LoggingBrowser wraps a Browser with logging. Successful navigations are
// logged at debug level, failures and recycles at info or warn.
type LoggingBrowser struct {
	next   websum.Browser
	logger *slog.Logger
}

// NewLoggingBrowser creates a new LoggingBrowser.
func NewLoggingBrowser(next websum.Browser, logger *slog.Logger) *LoggingBrowser {
	return &LoggingBrowser{next: next, logger: logger}
}

// Fetch logs the navigation and delegates to the wrapped browser.
func (b *LoggingBrowser) Fetch(ctx context.Context, url string) (html string, err error) {
	defer func(begin time.Time) {
		if err != nil {
			b.logger.Warn("fetch failed",
				"url", url,
				"code", websum.ErrorCode(err),
				"reason", websum.ErrorDetails(err)["reason"],
				"duration", time.Since(begin),
				"err", err,
			)
			return
		}
		b.logger.Debug("fetch",
			"url", url,
			"bytes", len(html),
			"duration", time.Since(begin),
		)
	}(time.Now())
	return b.next.Fetch(ctx, url)
}

// Recycle logs the recycle and delegates to the wrapped browser.
func (b *LoggingBrowser) Recycle() (err error) {
	defer func(begin time.Time) {
		b.logger.Info("browser recycle",
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return b.next.Recycle()
}

// Close delegates to the wrapped browser.
func (b *LoggingBrowser) Close() error {
	return b.next.Close()
}
