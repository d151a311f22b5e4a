package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

// TestInitConfigDefaults verifies the defaults that the rest of the app
// relies on when no config file or environment variables are present.
func TestInitConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	InitConfig("")

	require.Equal(t, 10, viper.GetInt("ingest.concurrency"))
	require.Equal(t, 20*time.Second, viper.GetDuration("ingest.page_timeout"))
	require.Equal(t, 10*time.Second, viper.GetDuration("ingest.image_timeout"))
	require.Equal(t, int64(2*1024*1024), viper.GetInt64("ingest.max_image_bytes"))
	require.Equal(t, "favicons", viper.GetString("ingest.blob_prefix"))
	require.NotEmpty(t, viper.GetString("ingest.user_agent"))

	require.Equal(t, "noop", viper.GetString("storage.provider"))
	require.Equal(t, "memory", viper.GetString("database.provider"))
	require.Equal(t, "noop", viper.GetString("events.provider"))
	require.Equal(t, ":8080", viper.GetString("metrics.addr"))
	require.Equal(t, ":8000", viper.GetString("api.addr"))
}

// TestInitConfigEnvOverride checks the OSINTVM_ env prefix wiring.
func TestInitConfigEnvOverride(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("OSINTVM_INGEST_CONCURRENCY", "25")
	t.Setenv("OSINTVM_STORAGE_PROVIDER", "local")

	InitConfig("")

	require.Equal(t, 25, viper.GetInt("ingest.concurrency"))
	require.Equal(t, "local", viper.GetString("storage.provider"))
}

// TestInitConfigExplicitFile checks that a path passed via --config is the
// file viper actually reads.
func TestInitConfigExplicitFile(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfgFile := filepath.Join(t.TempDir(), "osintvm.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("ingest:\n  concurrency: 42\n"), 0o600))

	InitConfig(cfgFile)

	require.Equal(t, cfgFile, viper.ConfigFileUsed())
	require.Equal(t, 42, viper.GetInt("ingest.concurrency"))
}
