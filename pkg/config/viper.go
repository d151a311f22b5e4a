// Package config is responsible for initializing the application's configuration.
// It uses the Viper library to read settings from a config file, environment
// variables, and command-line flags, providing a unified configuration system.
package config

import (
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/Kalinka5/osint-vm/internal/logging"
)

// InitConfig initializes the application's configuration using Viper.
// It sets up default values, defines configuration search paths, and enables
// reading from environment variables. This function is designed to be called
// once at application startup so that configuration is loaded and available
// to all other packages. A non-empty cfgFile (the --config flag) pins the
// config file explicitly instead of searching the default paths.
func InitConfig(cfgFile string) {
	// --- Set Search Paths ---
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")              // Current working directory
		viper.AddConfigPath("/etc/osintvm/")  // System-wide configuration
		viper.AddConfigPath("$HOME/.osintvm") // User-specific configuration
	}

	// --- Set Defaults ---
	// Sensible defaults for key configuration parameters. These are used if
	// the values are not provided in a config file or via environment variables.
	viper.SetDefault("ingest.user_agent", "osint-vm-favicon/1.0 (+https://github.com/Kalinka5/osint-vm)")
	viper.SetDefault("ingest.concurrency", 10)
	viper.SetDefault("ingest.page_timeout", "20s")
	viper.SetDefault("ingest.image_timeout", "10s")
	viper.SetDefault("ingest.max_image_bytes", 2*1024*1024)
	viper.SetDefault("ingest.blob_prefix", "favicons")
	viper.SetDefault("ingest.topic", "")

	viper.SetDefault("storage.provider", "noop")
	viper.SetDefault("storage.gcs.bucket_name", "")
	viper.SetDefault("storage.local.base_dir", "./blobs")

	viper.SetDefault("database.provider", "memory")
	viper.SetDefault("database.postgres.dsn", "")
	viper.SetDefault("database.postgres.max_conns", 10)

	viper.SetDefault("events.provider", "noop")
	viper.SetDefault("events.gcp.project_id", "")
	viper.SetDefault("events.gcp.topic_id", "")

	viper.SetDefault("metrics.addr", ":8080")
	viper.SetDefault("api.addr", ":8000")

	// --- Environment Variables ---
	viper.SetEnvPrefix("OSINTVM") // e.g., OSINTVM_INGEST_CONCURRENCY=50
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// --- Read Config File ---
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; not fatal, defaults and env vars suffice.
			logging.L.Warn("Config file not found; using defaults and environment variables.")
		} else {
			logging.L.Error("Error reading config file", zap.Error(err))
		}
	} else {
		logging.L.Info("Using config file", zap.String("path", viper.ConfigFileUsed()))
	}
}
