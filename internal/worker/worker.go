// Package worker executes the per-company ingestion state machine.
package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/Kalinka5/osint-vm/internal/ingest"
	"github.com/Kalinka5/osint-vm/internal/store"
)

// Config controls Worker behavior.
type Config struct {
	ContentType string
	BlobPrefix  string
	Topic       string
}

// Worker runs one company at a time through the full pipeline: locate ->
// fetch -> hash -> lookup-or-upload -> record reference. Workers share the
// ledger and company store; everything else is per-call.
type Worker struct {
	locator   ingest.Locator
	fetcher   ingest.ImageFetcher
	hasher    ingest.Hasher
	companies store.CompanyStore
	ledger    store.ImageLedger
	blobStore ingest.BlobStore
	publisher ingest.Publisher
	retry     ingest.RetryPolicy
	clock     ingest.Clock
	cfg       Config
	logger    *zap.Logger
}

// New constructs a Worker.
func New(
	locator ingest.Locator,
	fetcher ingest.ImageFetcher,
	hasher ingest.Hasher,
	companies store.CompanyStore,
	ledger store.ImageLedger,
	blobStore ingest.BlobStore,
	publisher ingest.Publisher,
	retry ingest.RetryPolicy,
	clock ingest.Clock,
	cfg Config,
	logger *zap.Logger,
) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ContentType == "" {
		cfg.ContentType = "image/png"
	}
	if cfg.BlobPrefix == "" {
		cfg.BlobPrefix = "favicons"
	}
	if cfg.Topic == "" {
		cfg.Topic = "favicon-events"
	}
	return &Worker{
		locator:   locator,
		fetcher:   fetcher,
		hasher:    hasher,
		companies: companies,
		ledger:    ledger,
		blobStore: blobStore,
		publisher: publisher,
		retry:     retry,
		clock:     clock,
		cfg:       cfg,
		logger:    logger,
	}
}

// ProcessCompany drives one company to a terminal state. It never returns an
// error: every failure is folded into the outcome so one company can never
// abort the batch.
func (w *Worker) ProcessCompany(ctx context.Context, company store.Company) ingest.Outcome {
	ingest.WorkerStarted()
	defer ingest.WorkerFinished()

	outcome := w.runPipeline(ctx, company)
	ingest.ObserveOutcome(outcome)
	w.publishOutcome(ctx, outcome)
	return outcome
}

func (w *Worker) runPipeline(ctx context.Context, company store.Company) ingest.Outcome {
	log := w.logger.With(
		zap.Int64("company_id", company.ID),
		zap.String("website", company.Website),
	)

	// LocatingFavicon.
	faviconURL, err := w.locator.Locate(ctx, company.Website)
	if err != nil {
		log.Info("no favicon candidate", zap.Error(err))
		return w.fail(company, ingest.ReasonNoFavicon)
	}

	// Fetching (with bounded retries for transient network errors).
	var normalized []byte
	start := w.now()
	err = ingest.Retry(ctx, w.retry, func() error {
		var fetchErr error
		normalized, fetchErr = w.fetcher.Fetch(ctx, faviconURL)
		return fetchErr
	})
	ingest.ObserveFetchDuration(w.now().Sub(start))
	if err != nil {
		log.Info("favicon fetch or decode failed", zap.String("favicon_url", faviconURL), zap.Error(err))
		return w.fail(company, ingest.ReasonFetchOrDecode)
	}

	// Hashing.
	digest, err := w.hasher.Hash(normalized)
	if err != nil {
		log.Warn("hash of normalized favicon failed", zap.Error(err))
		return w.fail(company, ingest.ReasonFetchOrDecode)
	}
	log = log.With(zap.String("digest", digest))

	// Ledger lookup; on hit skip the upload entirely.
	img, reused, err := w.lookupOrUpload(ctx, log, company, digest, normalized)
	if err != nil {
		if errors.Is(err, errUpload) {
			return w.fail(company, ingest.ReasonUpload)
		}
		return w.fail(company, ingest.ReasonRecord)
	}

	// RecordingReference. A failure here leaves the stored image and its
	// ledger row intact for reuse by other companies.
	if err := w.companies.SetCompanyImage(ctx, company.ID, img.ID); err != nil {
		log.Warn("record image reference failed", zap.Int64("image_id", img.ID), zap.Error(err))
		return w.fail(company, ingest.ReasonRecord)
	}

	log.Info("company favicon ingested",
		zap.Int64("image_id", img.ID),
		zap.Bool("reused", reused),
	)
	return ingest.Outcome{
		CompanyID:     company.ID,
		Website:       company.Website,
		State:         ingest.StateDone,
		StoredImageID: img.ID,
		Digest:        digest,
		Reused:        reused,
	}
}

// errUpload separates blob store failures from ledger failures inside
// lookupOrUpload.
var errUpload = errors.New("upload failed")

// lookupOrUpload returns the stored image for the digest, uploading and
// inserting a new ledger row when none exists. Lookup-then-insert is not
// atomic across workers; a loser of the insert race re-reads the ledger and
// reuses the winner's row. Blob keys are digest-derived, so the transient
// double upload overwrites the same object and at most one blob survives.
func (w *Worker) lookupOrUpload(
	ctx context.Context,
	log *zap.Logger,
	company store.Company,
	digest string,
	normalized []byte,
) (store.StoredImage, bool, error) {
	img, err := w.ledger.FindStoredImageByDigest(ctx, digest)
	if err == nil {
		log.Debug("reusing existing stored image", zap.Int64("image_id", img.ID))
		return img, true, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		log.Warn("ledger lookup failed", zap.Error(err))
		return store.StoredImage{}, false, err
	}

	// Uploading.
	blobPath := w.buildBlobPath(digest)
	var address string
	err = ingest.Retry(ctx, w.retry, func() error {
		var putErr error
		address, putErr = w.blobStore.PutObject(ctx, blobPath, w.cfg.ContentType, bytes.NewReader(normalized))
		return putErr
	})
	if err != nil {
		log.Warn("favicon upload failed", zap.String("blob_path", blobPath), zap.Error(err))
		return store.StoredImage{}, false, fmt.Errorf("%w: %v", errUpload, err)
	}
	ingest.ObserveUpload()

	img, err = w.ledger.InsertStoredImage(ctx, company.ID, address, digest)
	if errors.Is(err, store.ErrDuplicateDigest) {
		// Lost the insert race; the winner's row is authoritative.
		existing, lookupErr := w.ledger.FindStoredImageByDigest(ctx, digest)
		if lookupErr != nil {
			log.Warn("ledger re-read after duplicate digest failed", zap.Error(lookupErr))
			return store.StoredImage{}, false, lookupErr
		}
		log.Debug("duplicate digest; reusing concurrent insert", zap.Int64("image_id", existing.ID))
		return existing, true, nil
	}
	if err != nil {
		log.Warn("ledger insert failed", zap.Error(err))
		return store.StoredImage{}, false, err
	}
	return img, false, nil
}

func (w *Worker) fail(company store.Company, reason ingest.FailureReason) ingest.Outcome {
	return ingest.Outcome{
		CompanyID: company.ID,
		Website:   company.Website,
		State:     ingest.StateFailed,
		Reason:    reason,
	}
}

func (w *Worker) buildBlobPath(digest string) string {
	return path.Join(w.cfg.BlobPrefix, digest+".png")
}

func (w *Worker) now() time.Time {
	if w.clock == nil {
		return time.Now().UTC()
	}
	return w.clock.Now()
}

// publishOutcome emits a per-company event. Having a publisher is the only
// gate; the topic argument is a label that bound publishers may ignore.
// Delivery failures are logged but never change the company's terminal state.
func (w *Worker) publishOutcome(ctx context.Context, outcome ingest.Outcome) {
	if w.publisher == nil {
		return
	}
	payload := map[string]any{
		"company_id": outcome.CompanyID,
		"website":    outcome.Website,
		"state":      string(outcome.State),
		"reason":     string(outcome.Reason),
		"image_id":   outcome.StoredImageID,
		"digest":     outcome.Digest,
		"reused":     outcome.Reused,
		"timestamp":  w.now().Format(time.RFC3339),
	}
	if _, err := w.publisher.Publish(ctx, w.cfg.Topic, payload); err != nil {
		w.logger.Warn("publish outcome failed",
			zap.Int64("company_id", outcome.CompanyID),
			zap.Error(err),
		)
	}
}
