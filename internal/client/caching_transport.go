package client

import (
	"net/http"

	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
)

// newCachingTransport honours Cache-Control on responses such as the root
// certificate. An empty cacheDir keeps the cache in memory.
func newCachingTransport(cacheDir string) http.RoundTripper {
	if cacheDir == "" {
		return httpcache.NewTransport(httpcache.NewMemoryCache())
	}

	return httpcache.NewTransport(diskcache.New(cacheDir))
}
