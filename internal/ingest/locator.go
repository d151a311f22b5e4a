package ingest

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"
)

// ErrNoCandidate signals that no favicon URL could be located: the site URL
// is missing or not an absolute http(s) URL, or the page fetch failed and
// the conventional /favicon.ico path is unreachable too.
var ErrNoCandidate = errors.New("no favicon candidate")

// FaviconLocator discovers favicon URLs by fetching the site's page with a
// Colly collector and scanning link elements whose rel contains "icon".
type FaviconLocator struct {
	baseCollector *colly.Collector
	timeout       time.Duration
	logger        *zap.Logger
}

// NewFaviconLocator builds a FaviconLocator.
func NewFaviconLocator(cfg Config, logger *zap.Logger) *FaviconLocator {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := colly.NewCollector(colly.Async(false))
	c.AllowURLRevisit = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	timeout := cfg.PageTimeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}
	return &FaviconLocator{
		baseCollector: c,
		timeout:       timeout,
		logger:        logger,
	}
}

// Locate resolves the favicon URL for the given site. The page is fetched
// with a bounded timeout; the first link element whose rel attribute
// contains the token "icon" (case-insensitive) wins, with its href resolved
// against the base URL. A missing link falls back to
// scheme://host/favicon.ico. When the page fetch itself failed the fallback
// is probed first, so a dead site yields ErrNoCandidate rather than a
// candidate that is known to be unreachable.
func (l *FaviconLocator) Locate(ctx context.Context, siteURL string) (string, error) {
	base, err := parseBaseURL(siteURL)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("locate favicon: %w", err)
	}

	collector := l.baseCollector.Clone()
	collector.SetRequestTimeout(l.timeout)

	var found string
	collector.OnHTML("link[rel]", func(e *colly.HTMLElement) {
		if found != "" {
			return
		}
		rel := strings.ToLower(e.Attr("rel"))
		if !strings.Contains(rel, "icon") {
			return
		}
		href := strings.TrimSpace(e.Attr("href"))
		if href == "" {
			return
		}
		// AbsoluteURL handles both absolute and relative hrefs.
		if resolved := e.Request.AbsoluteURL(href); resolved != "" {
			found = resolved
		}
	})

	visitErr := collector.Visit(base.String())
	collector.Wait()

	if found != "" {
		return found, nil
	}

	fallback := fmt.Sprintf("%s://%s/favicon.ico", base.Scheme, base.Host)
	if visitErr == nil {
		return fallback, nil
	}
	l.logger.Debug("page fetch failed; probing /favicon.ico",
		zap.String("site", base.Host),
		zap.Error(visitErr),
	)
	if probeErr := collector.Visit(fallback); probeErr != nil {
		collector.Wait()
		return "", fmt.Errorf("%w: %s unreachable: %v", ErrNoCandidate, base.Host, probeErr)
	}
	collector.Wait()
	return fallback, nil
}

func parseBaseURL(siteURL string) (*url.URL, error) {
	siteURL = strings.TrimSpace(siteURL)
	if siteURL == "" {
		return nil, fmt.Errorf("%w: empty site url", ErrNoCandidate)
	}
	u, err := url.Parse(siteURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCandidate, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute http(s) url", ErrNoCandidate, siteURL)
	}
	return u, nil
}
