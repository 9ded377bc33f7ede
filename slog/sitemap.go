package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/websum"
)

var _ websum.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with debug logging.
type LoggingSitemapService struct {
	next   websum.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next websum.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs the operation.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *websum.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		limit := 0
		if filter != nil {
			limit = filter.Limit
		}
		s.logger.Info("sitemap discovery",
			"url", baseURL,
			"count", len(urls),
			"limit", limit,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, filter)
}
