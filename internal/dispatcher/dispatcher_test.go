package dispatcher

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kalinka5/osint-vm/internal/hash/sha256"
	"github.com/Kalinka5/osint-vm/internal/ingest"
	"github.com/Kalinka5/osint-vm/internal/store"
	storememory "github.com/Kalinka5/osint-vm/internal/store/memory"
	blobmemory "github.com/Kalinka5/osint-vm/internal/storage/memory"
	"github.com/Kalinka5/osint-vm/internal/worker"
)

type suffixLocator struct{}

func (suffixLocator) Locate(_ context.Context, siteURL string) (string, error) {
	if siteURL == "" {
		return "", ingest.ErrNoCandidate
	}
	return siteURL + "/favicon.ico", nil
}

// urlPayloadFetcher returns the favicon URL itself as the image payload, so
// companies sharing a website produce byte-identical favicons.
type urlPayloadFetcher struct{}

func (urlPayloadFetcher) Fetch(_ context.Context, imageURL string) ([]byte, error) {
	return []byte("favicon-of-" + imageURL), nil
}

type blockingLocator struct{}

func (blockingLocator) Locate(ctx context.Context, _ string) (string, error) {
	<-ctx.Done()
	return "", fmt.Errorf("locate favicon: %w", ctx.Err())
}

func seedCompanies(t *testing.T, stores *storememory.Store, total, distinctSites int) []store.Company {
	t.Helper()
	for i := 0; i < total; i++ {
		_, err := stores.CreateCompany(context.Background(), store.Company{
			About:   fmt.Sprintf("company %d", i),
			Website: fmt.Sprintf("https://site-%d.example.com", i%distinctSites),
		})
		require.NoError(t, err)
	}
	companies, err := stores.ListCompaniesNeedingImage(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, total)
	return companies
}

func TestDispatcher_SharedFaviconsAreDeduplicated(t *testing.T) {
	t.Parallel()

	stores := storememory.New()
	blobs := blobmemory.NewBlobStore()
	companies := seedCompanies(t, stores, 100, 30)

	w := worker.New(
		suffixLocator{},
		urlPayloadFetcher{},
		sha256.New(),
		stores,
		stores,
		blobs,
		nil,
		nil,
		nil,
		worker.Config{BlobPrefix: "favicons"},
		zap.NewNop(),
	)

	outcomes, summary := New(w, 10, zap.NewNop()).Run(context.Background(), companies)

	require.Len(t, outcomes, 100)
	require.Equal(t, 100, summary.Total)
	require.Equal(t, 100, summary.Done)
	require.Equal(t, 70, summary.Reused, "30 distinct favicons across 100 companies")
	require.Empty(t, summary.Failed)

	// Exactly one ledger row and one blob per distinct favicon. Races may
	// re-put the same digest-derived key but never create extra objects.
	require.Equal(t, 30, stores.ImageCount())
	require.Equal(t, 30, blobs.Len())

	// Every company ended up with an image reference, so a re-run selects
	// nothing.
	remaining, err := stores.ListCompaniesNeedingImage(context.Background())
	require.NoError(t, err)
	require.Empty(t, remaining)
}

func TestDispatcher_FailuresNeverAbortTheBatch(t *testing.T) {
	t.Parallel()

	stores := storememory.New()
	companies := seedCompanies(t, stores, 10, 10)
	// Strip the website from half of them so the locator fails.
	for i, c := range companies {
		if i%2 == 0 {
			c.Website = ""
			companies[i] = c
		}
	}

	w := worker.New(
		suffixLocator{},
		urlPayloadFetcher{},
		sha256.New(),
		stores,
		stores,
		blobmemory.NewBlobStore(),
		nil,
		nil,
		nil,
		worker.Config{BlobPrefix: "favicons"},
		zap.NewNop(),
	)

	outcomes, summary := New(w, 3, zap.NewNop()).Run(context.Background(), companies)

	require.Len(t, outcomes, 10)
	require.Equal(t, 10, summary.Total)
	require.Equal(t, 5, summary.Done)
	require.Equal(t, 5, summary.Failed[ingest.ReasonNoFavicon])
	for _, outcome := range outcomes {
		require.Contains(t, []ingest.State{ingest.StateDone, ingest.StateFailed}, outcome.State)
	}
}

func TestDispatcher_CancelStopsDispatchingNewCompanies(t *testing.T) {
	t.Parallel()

	stores := storememory.New()
	companies := seedCompanies(t, stores, 100, 100)

	w := worker.New(
		blockingLocator{},
		urlPayloadFetcher{},
		sha256.New(),
		stores,
		stores,
		blobmemory.NewBlobStore(),
		nil,
		nil,
		nil,
		worker.Config{BlobPrefix: "favicons"},
		zap.NewNop(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	outcomes, summary := New(w, 2, zap.NewNop()).Run(ctx, companies)

	// In-flight companies still reach a terminal state; the rest are never
	// dispatched.
	require.Equal(t, len(outcomes), summary.Total)
	require.Less(t, summary.Total, 100)
	for _, outcome := range outcomes {
		require.Equal(t, ingest.StateFailed, outcome.State)
		require.Equal(t, ingest.ReasonNoFavicon, outcome.Reason)
	}
}

func TestDispatcher_ConcurrencyIsClamped(t *testing.T) {
	t.Parallel()

	d := New(nil, 0, nil)
	require.Equal(t, 1, d.concurrency)

	d = New(nil, 500, nil)
	require.Equal(t, maxConcurrency, d.concurrency)
}
