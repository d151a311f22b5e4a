package ingest

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config captures every configuration knob that influences an ingestion run.
// All values originate from Viper so the pipeline can be configured via
// files, env vars, or CLI flags.
type Config struct {
	UserAgent     string
	Concurrency   int
	PageTimeout   time.Duration
	ImageTimeout  time.Duration
	MaxImageBytes int64
	BlobPrefix    string
	Topic         string
}

// LoadConfig constructs a Config by reading from Viper.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := Config{
		UserAgent:     v.GetString("ingest.user_agent"),
		Concurrency:   v.GetInt("ingest.concurrency"),
		PageTimeout:   v.GetDuration("ingest.page_timeout"),
		ImageTimeout:  v.GetDuration("ingest.image_timeout"),
		MaxImageBytes: v.GetInt64("ingest.max_image_bytes"),
		BlobPrefix:    v.GetString("ingest.blob_prefix"),
		Topic:         v.GetString("ingest.topic"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.UserAgent == "" {
		return fmt.Errorf("ingest.user_agent must be set")
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("ingest.concurrency must be > 0")
	}
	if c.PageTimeout <= 0 {
		return fmt.Errorf("ingest.page_timeout must be > 0")
	}
	if c.ImageTimeout <= 0 {
		return fmt.Errorf("ingest.image_timeout must be > 0")
	}
	// The favicon fetch is expected to be a small binary; it gets a shorter
	// deadline than the page fetch.
	if c.ImageTimeout > c.PageTimeout {
		return fmt.Errorf("ingest.image_timeout must not exceed ingest.page_timeout")
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("ingest.max_image_bytes must be > 0")
	}
	if c.BlobPrefix == "" {
		return fmt.Errorf("ingest.blob_prefix must be set")
	}
	return nil
}
