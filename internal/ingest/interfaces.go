package ingest

import (
	"context"
	"io"
	"time"
)

// Locator discovers the most likely favicon URL for a site.
type Locator interface {
	// Locate returns a resolved favicon URL, or ErrNoCandidate when the
	// base URL is missing or malformed. A fetchable page without an icon
	// link still yields the conventional /favicon.ico fallback.
	Locate(ctx context.Context, siteURL string) (string, error)
}

// ImageFetcher downloads a candidate favicon and returns canonical PNG bytes.
type ImageFetcher interface {
	Fetch(ctx context.Context, imageURL string) ([]byte, error)
}

// Hasher computes content digests for dedup identity.
type Hasher interface {
	Hash(data []byte) (string, error)
}

// BlobStore writes normalized image bytes and returns a retrievable address.
// Puts are overwrite-allowed and idempotent by key.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data io.Reader) (string, error)
}

// Publisher pushes per-company outcome events to Pub/Sub (or similar).
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// RetryPolicy decides whether and when a failed call is retried.
type RetryPolicy interface {
	ShouldRetry(err error, attempt int) bool
	Backoff(attempt int) time.Duration
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run IDs (UUIDs).
type IDGenerator interface {
	NewID() (string, error)
}
