package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestLocator(t *testing.T) *FaviconLocator {
	t.Helper()
	return NewFaviconLocator(Config{
		UserAgent:   "osintvm-test",
		PageTimeout: 2 * time.Second,
	}, zap.NewNop())
}

func TestFaviconLocator_LinkTagAbsoluteHref(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head>
			<link rel="stylesheet" href="/styles.css">
			<link rel="icon" href="https://cdn.example.com/fav.png">
		</head><body></body></html>`)
	}))
	defer server.Close()

	got, err := newTestLocator(t).Locate(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/fav.png", got)
}

func TestFaviconLocator_RelativeHrefResolvedAgainstBase(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><link rel="shortcut icon" href="/static/favicon.ico"></head></html>`)
	}))
	defer server.Close()

	got, err := newTestLocator(t).Locate(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, server.URL+"/static/favicon.ico", got)
}

func TestFaviconLocator_RelMatchIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><link rel="Shortcut Icon" href="/fav.ico"></head></html>`)
	}))
	defer server.Close()

	got, err := newTestLocator(t).Locate(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, server.URL+"/fav.ico", got)
}

func TestFaviconLocator_NoLinkFallsBackToConventionalPath(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><title>no icons here</title></head></html>`)
	}))
	defer server.Close()

	got, err := newTestLocator(t).Locate(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, server.URL+"/favicon.ico", got)
}

func TestFaviconLocator_PageFetchFailureProbesConventionalPath(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/favicon.ico" {
			w.Write([]byte("icon bytes"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	got, err := newTestLocator(t).Locate(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, server.URL+"/favicon.ico", got)
}

func TestFaviconLocator_DeadSiteYieldsNoCandidate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := newTestLocator(t).Locate(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrNoCandidate)
}

func TestFaviconLocator_UnreachableSiteYieldsNoCandidate(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	_, err := newTestLocator(t).Locate(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrNoCandidate)
}

func TestFaviconLocator_SameSiteCanBeLocatedRepeatedly(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head><link rel="icon" href="/fav.png"></head></html>`)
	}))
	defer server.Close()

	locator := newTestLocator(t)
	for i := 0; i < 2; i++ {
		got, err := locator.Locate(context.Background(), server.URL)
		require.NoError(t, err)
		require.Equal(t, server.URL+"/fav.png", got)
	}
}

func TestFaviconLocator_FirstMatchingLinkWins(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<html><head>
			<link rel="icon" href="/first.png">
			<link rel="apple-touch-icon" href="/second.png">
		</head></html>`)
	}))
	defer server.Close()

	got, err := newTestLocator(t).Locate(context.Background(), server.URL)
	require.NoError(t, err)
	require.Equal(t, server.URL+"/first.png", got)
}

func TestFaviconLocator_RejectsUnusableSiteURLs(t *testing.T) {
	t.Parallel()

	locator := newTestLocator(t)
	for _, siteURL := range []string{"", "   ", "not a url at all", "ftp://example.com", "/relative/path"} {
		_, err := locator.Locate(context.Background(), siteURL)
		require.ErrorIs(t, err, ErrNoCandidate, "siteURL=%q", siteURL)
	}
}

func TestFaviconLocator_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestLocator(t).Locate(ctx, "https://example.com")
	require.ErrorIs(t, err, context.Canceled)
}
