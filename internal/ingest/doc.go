// Package ingest implements the content-addressed favicon ingestion
// pipeline: locating a company's favicon, normalizing it to canonical PNG
// bytes, hashing those bytes for dedup identity, and describing the
// per-company outcomes the orchestrator collects.
package ingest
