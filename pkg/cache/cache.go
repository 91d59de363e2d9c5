// Package cache provides pluggable caching for expensive pipeline stages.
//
// Loading and normalizing a large ancestry document, computing the stats
// table, and laying out tens of thousands of commits are all deterministic
// in the document bytes, so their results key off a content hash and can be
// reused across runs. Backends: file (the CLI default), Redis (for the
// serve mode), and null (caching disabled).
package cache

import (
	"context"
	"time"
)

// Default TTLs per artifact kind. Everything keys off a content hash, so
// entries never go wrong, only cold; TTLs exist to bound disk usage.
const (
	DocumentTTL = 7 * 24 * time.Hour
	StatsTTL    = 7 * 24 * time.Hour
	LayoutTTL   = 7 * 24 * time.Hour
	ChartTTL    = 24 * time.Hour
)

// Cache is the storage backend contract. Get returns (nil, false, nil) on
// a miss; errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// LayoutKeyOpts captures everything that changes a computed layout beyond
// the document itself.
type LayoutKeyOpts struct {
	Width  int
	Height int
}

// Keyer generates cache keys for the pipeline's artifact kinds. docHash is
// the content hash of the raw ancestry document.
type Keyer interface {
	// DocumentKey keys the normalized, defaulted document.
	DocumentKey(docHash string) string
	// StatsKey keys the precomputed frame stats table.
	StatsKey(docHash string) string
	// LayoutKey keys a computed layout at a specific resolution.
	LayoutKey(docHash string, opts LayoutKeyOpts) string
	// ChartKey keys the rendered dashboard HTML.
	ChartKey(docHash string) string
}

// DefaultKeyer hashes key components with SHA-256 under a per-kind prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// DocumentKey generates a key for the normalized document.
func (k *DefaultKeyer) DocumentKey(docHash string) string {
	return hashKey("doc", docHash)
}

// StatsKey generates a key for the stats table.
func (k *DefaultKeyer) StatsKey(docHash string) string {
	return hashKey("stats", docHash)
}

// LayoutKey generates a key for a layout at the given resolution.
func (k *DefaultKeyer) LayoutKey(docHash string, opts LayoutKeyOpts) string {
	return hashKey("layout", docHash, opts.Width, opts.Height)
}

// ChartKey generates a key for the dashboard HTML.
func (k *DefaultKeyer) ChartKey(docHash string) string {
	return hashKey("chart", docHash)
}

// Ensure DefaultKeyer implements Keyer.
var _ Keyer = (*DefaultKeyer)(nil)
