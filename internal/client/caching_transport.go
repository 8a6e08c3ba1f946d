package client

import (
	"net/http"
	"time"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// NewHTTPClient builds the HTTP client used for API calls.
// Requests are logged, traced and, when enabled, served from an HTTP cache
// that honours the server's Cache-Control headers.
func NewHTTPClient(cfg Config) *http.Client {
	var transport http.RoundTripper = http.DefaultTransport

	if cfg.HTTPCache {
		transport = newCachingTransport(cfg.CacheDir, transport)
	}

	transport = otelhttp.NewTransport(transport)

	return &http.Client{
		Transport: &loggingTransport{next: transport},
		Timeout:   cfg.Timeout,
	}
}

// newCachingTransport wraps next with a disk-based cache when cacheDir is set,
// otherwise an in-memory cache.
func newCachingTransport(cacheDir string, next http.RoundTripper) http.RoundTripper {
	var cache httpcache.Cache
	if cacheDir == "" {
		cache = httpcache.NewMemoryCache()
	} else {
		// Use disk-based cache for persistence across restarts
		cache = diskcache.New(cacheDir)
	}

	t := httpcache.NewTransport(cache)
	t.Transport = next
	t.MarkCachedResponses = true

	return t
}

// loggingTransport logs each request at debug level. Headers are never logged.
type loggingTransport struct {
	next http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	started := time.Now()

	resp, err := t.next.RoundTrip(req)
	if err != nil {
		log.Debug().
			Err(err).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Dur("duration", time.Since(started)).
			Msg("api request failed")
		return resp, err
	}

	log.Debug().
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Bool("cached", resp.Header.Get(httpcache.XFromCache) != "").
		Dur("duration", time.Since(started)).
		Msg("api request")

	return resp, nil
}
