package mock

import (
	"context"

	"github.com/fwojciec/websum"
)

var _ websum.Browser = (*Browser)(nil)

// Browser is a mock implementation of websum.Browser.
type Browser struct {
	FetchFn   func(ctx context.Context, url string) (string, error)
	RecycleFn func() error
	CloseFn   func() error
}

func (b *Browser) Fetch(ctx context.Context, url string) (string, error) {
	return b.FetchFn(ctx, url)
}

func (b *Browser) Recycle() error {
	return b.RecycleFn()
}

func (b *Browser) Close() error {
	return b.CloseFn()
}
