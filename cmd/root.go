package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Kalinka5/osint-vm/internal/app"
	"github.com/Kalinka5/osint-vm/internal/ingest"
	"github.com/Kalinka5/osint-vm/internal/logging"
	"github.com/Kalinka5/osint-vm/pkg/config"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands will use.
// This allows us to inject a mock app during tests.
type App interface {
	Close()
	GetLogger() *zap.Logger
	GetStores() app.Stores
	GetBlobStore() ingest.BlobStore
	GetPublisher() ingest.Publisher
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp func(ctx context.Context) (App, error) = func(ctx context.Context) (App, error) {
	return app.NewApp(ctx)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "osintvm",
		Short: "Company favicon ingestion and enrichment tools.",
		Long: `osintvm ingests company favicons at scale: it locates each company's
favicon, normalizes it to a canonical PNG, deduplicates by content digest,
uploads new images to blob storage, and records the reference on the
company row. It also serves the HTTP API over the company dataset.`,

		// This hook runs AFTER config is loaded but BEFORE the subcommand's RunE.
		// This is the perfect place to build and inject the application.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// version needs no services.
			if cmd.Name() == "version" {
				return nil
			}
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}

			// Store the app instance in the context for subcommands to use.
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// This hook ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	// Initialize Viper configuration. The closure defers reading cfgFile
	// until after flag parsing has filled it in.
	cobra.OnInitialize(func() { config.InitConfig(cfgFile) })

	// Define persistent flags.
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	// Add subcommands. They pull the app out of the command context.
	cmd.AddCommand(newIngestCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	// Initialize the logger once at the very start.
	logging.InitLogger()

	// Create and execute the root command.
	if err := newRootCmd().Execute(); err != nil {
		logging.L.Fatal("Command execution failed", zap.Error(err))
	}
}
