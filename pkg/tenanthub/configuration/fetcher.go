package configuration

import (
	"context"
)

// RemoteFetcher downloads the configuration published for an app ID.
//
// Errors are retried when errors.IsRetryable reports them transient, for
// example an *errors.StatusError with a 5xx code.
type RemoteFetcher interface {
	Fetch(ctx context.Context, appID string) (map[string]any, error)
}

// FetcherFunc adapts a function to RemoteFetcher.
type FetcherFunc func(ctx context.Context, appID string) (map[string]any, error)

// Fetch implements RemoteFetcher.
func (f FetcherFunc) Fetch(ctx context.Context, appID string) (map[string]any, error) {
	return f(ctx, appID)
}
