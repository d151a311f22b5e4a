package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"time"

	// Container formats favicons commonly arrive in. GIF/JPEG register via
	// the stdlib decoders, BMP/WebP via golang.org/x/image; ICO is sniffed
	// and decoded explicitly below.
	_ "image/gif"
	_ "image/jpeg"

	ico "github.com/biessek/golang-ico"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrDecode signals an unparseable image payload. Decode failures are never
// retried.
var ErrDecode = errors.New("undecodable image payload")

// StatusError reports a non-2xx response for a favicon fetch.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Code)
}

// icoMagic is the ICONDIR header shared by every .ico file.
var icoMagic = []byte{0x00, 0x00, 0x01, 0x00}

// FaviconFetcher downloads candidate favicons and normalizes them to
// canonical RGBA PNG bytes, so pixel-identical source images in different
// containers normalize to byte-identical output.
type FaviconFetcher struct {
	client   *http.Client
	maxBytes int64
	logger   *zap.Logger
}

// NewFaviconFetcher builds a FaviconFetcher. The image timeout is
// independent of, and shorter than, the page timeout since favicons are
// small binaries.
func NewFaviconFetcher(cfg Config, logger *zap.Logger) *FaviconFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.ImageTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	maxBytes := cfg.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = 2 * 1024 * 1024
	}
	return &FaviconFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
		logger:   logger,
	}
}

// Fetch GETs the favicon and returns its normalized PNG encoding.
func (f *FaviconFetcher) Fetch(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request for %s: %v", ErrDecode, imageURL, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", imageURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			f.logger.Debug("close favicon response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: imageURL, Code: resp.StatusCode}
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", imageURL, err)
	}

	normalized, err := Normalize(payload)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", imageURL, err)
	}
	return normalized, nil
}

// Normalize decodes payload in any supported container format and re-encodes
// it as RGBA PNG. The output is deterministic for a given pixel grid.
func Normalize(payload []byte) ([]byte, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecode)
	}

	var (
		img image.Image
		err error
	)
	if bytes.HasPrefix(payload, icoMagic) {
		img, err = ico.Decode(bytes.NewReader(payload))
	} else {
		img, _, err = image.Decode(bytes.NewReader(payload))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	rgba := toRGBA(img)
	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("%w: encode png: %v", ErrDecode, err)
	}
	return buf.Bytes(), nil
}

func toRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	// Re-origin at (0,0) so identical pixel grids with shifted bounds still
	// produce identical bytes.
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}
