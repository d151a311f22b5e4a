// Package app initializes and holds long-lived application services, acting
// as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"net/http"

	gstorage "cloud.google.com/go/storage"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Kalinka5/osint-vm/internal/ingest"
	"github.com/Kalinka5/osint-vm/internal/logging"
	"github.com/Kalinka5/osint-vm/internal/publisher/pubsub"
	"github.com/Kalinka5/osint-vm/internal/store"
	storememory "github.com/Kalinka5/osint-vm/internal/store/memory"
	"github.com/Kalinka5/osint-vm/internal/store/postgres"
	"github.com/Kalinka5/osint-vm/internal/storage/gcs"
	"github.com/Kalinka5/osint-vm/internal/storage/local"
	blobmemory "github.com/Kalinka5/osint-vm/internal/storage/memory"
)

// Stores is the full relational surface the app exposes: the ingestion
// pipeline uses the company store and ledger slices, the API uses all of it.
type Stores interface {
	store.CompanyStore
	store.ImageLedger
	store.AddressStore
	store.ReferenceStore
	Close()
}

// App holds all the shared, long-lived services for the application.
// It is initialized once at startup and passed to the components that need
// it; workers share its services read-only.
type App struct {
	logger    *zap.Logger
	stores    Stores
	blobs     ingest.BlobStore
	publisher ingest.Publisher
	closers   []func() error
}

// GetLogger returns the shared zap logger instance.
func (a *App) GetLogger() *zap.Logger { return a.logger }

// GetStores exposes the configured relational store.
func (a *App) GetStores() Stores { return a.stores }

// GetBlobStore exposes the configured blob storage provider.
func (a *App) GetBlobStore() ingest.BlobStore { return a.blobs }

// GetPublisher returns the outcome publisher, or nil when events are off.
func (a *App) GetPublisher() ingest.Publisher { return a.publisher }

// NewApp creates and initializes a new App based on the application's
// configuration. It reads configuration values from Viper and instantiates
// the appropriate providers, failing fast if any critical service cannot be
// initialized.
func NewApp(ctx context.Context) (*App, error) {
	l := logging.L
	l.Info("Initializing application services...")
	ingest.InitMetrics()

	a := &App{logger: l}

	if err := a.initStores(ctx); err != nil {
		return nil, err
	}
	if err := a.initBlobStore(ctx); err != nil {
		return nil, err
	}
	if err := a.initPublisher(ctx); err != nil {
		return nil, err
	}

	l.Info("Application services initialized successfully.")

	// Metrics endpoint for the whole process lifetime.
	metricsAddr := viper.GetString("metrics.addr")
	if metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", ingest.Handler())
			l.Info("Starting metrics server", zap.String("addr", metricsAddr))
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				l.Error("Metrics server failed", zap.Error(err))
			}
		}()
	}

	return a, nil
}

func (a *App) initStores(ctx context.Context) error {
	provider := viper.GetString("database.provider")
	switch provider {
	case "postgres":
		dsn := viper.GetString("database.postgres.dsn")
		if dsn == "" {
			return fmt.Errorf("database provider is 'postgres' but database.postgres.dsn is not set")
		}
		a.logger.Info("Connecting to PostgreSQL...")
		db, err := postgres.New(ctx, postgres.Config{
			DSN:      dsn,
			MaxConns: int32(viper.GetInt("database.postgres.max_conns")),
		})
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.stores = db
	case "memory":
		a.logger.Info("Using in-memory store. Data will not survive the process.")
		a.stores = storememory.New()
	default:
		return fmt.Errorf("unknown database provider: %s", provider)
	}
	return nil
}

func (a *App) initBlobStore(ctx context.Context) error {
	provider := viper.GetString("storage.provider")
	switch provider {
	case "gcs":
		bucket := viper.GetString("storage.gcs.bucket_name")
		if bucket == "" {
			return fmt.Errorf("storage provider is 'gcs' but storage.gcs.bucket_name is not set")
		}
		a.logger.Info("Using GCS storage provider", zap.String("bucket", bucket))
		client, err := gstorage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("failed to create GCS client: %w", err)
		}
		blobs, err := gcs.New(ctx, client, gcs.Config{Bucket: bucket})
		if err != nil {
			_ = client.Close()
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.blobs = blobs
		a.closers = append(a.closers, client.Close)
	case "local":
		baseDir := viper.GetString("storage.local.base_dir")
		a.logger.Info("Using local filesystem storage provider", zap.String("base_dir", baseDir))
		blobs, err := local.New(local.Config{BaseDir: baseDir})
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		a.blobs = blobs
	case "noop", "memory":
		a.logger.Info("Using in-memory storage provider. Blobs will be discarded at exit.")
		a.blobs = blobmemory.NewBlobStore()
	default:
		return fmt.Errorf("unknown storage provider: %s", provider)
	}
	return nil
}

func (a *App) initPublisher(ctx context.Context) error {
	provider := viper.GetString("events.provider")
	switch provider {
	case "pubsub":
		projectID := viper.GetString("events.gcp.project_id")
		topicID := viper.GetString("events.gcp.topic_id")
		if projectID == "" || topicID == "" {
			return fmt.Errorf("events provider is 'pubsub' but project_id or topic_id is not set")
		}
		a.logger.Info("Connecting to GCP Pub/Sub", zap.String("topic", topicID))
		pub, err := pubsub.New(ctx, projectID, topicID)
		if err != nil {
			return fmt.Errorf("failed to initialize publisher: %w", err)
		}
		a.publisher = pub
		a.closers = append(a.closers, pub.Close)
	case "noop":
		// No events; the worker treats a nil publisher as "off".
	default:
		return fmt.Errorf("unknown events provider: %s", provider)
	}
	return nil
}

// Close gracefully shuts down all services in the App container.
// It is called by a Cobra hook after the command finishes execution.
func (a *App) Close() {
	a.logger.Info("Shutting down application services...")
	if a.stores != nil {
		a.stores.Close()
	}
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			a.logger.Warn("Error closing service", zap.Error(err))
		}
	}
	// Flush buffered log entries before the process exits. Best effort.
	if err := a.logger.Sync(); err != nil {
		a.logger.Warn("Error syncing logger on shutdown", zap.Error(err))
	}
}
