package client

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/rs/zerolog/log"

	"github.com/vidyasangam/sangam-cli/internal/logger"
)

// NewCachingHTTPClient creates an HTTP client with disk-based caching.
// This backs the read-only leaderboard and profile fetches, which the backend
// serves with Cache-Control headers; everything else passes through.
func NewCachingHTTPClient(cacheDir string) *http.Client {
	if cacheDir == "" {
		return NewInMemoryCachingHTTPClient()
	}

	// Disk-based cache persists across runs
	transport := httpcache.NewTransport(diskcache.New(cacheDir))

	return &http.Client{
		Transport: logger.NewHTTPRequests(log.Logger, transport),
	}
}

// NewInMemoryCachingHTTPClient creates an HTTP client with in-memory caching only.
// Suitable for testing or when disk caching is not desired.
func NewInMemoryCachingHTTPClient() *http.Client {
	transport := httpcache.NewTransport(httpcache.NewMemoryCache())

	return &http.Client{
		Transport: logger.NewHTTPRequests(log.Logger, transport),
	}
}
