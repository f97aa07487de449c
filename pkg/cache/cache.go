package cache

import (
	"time"

	cache_pkg "github.com/patrickmn/go-cache"
)

// Handler wraps an in-memory TTL cache used for query result pages. Only one
// store generation is live at a time, so generation changes (a new ingest or
// a clear) flush the whole cache instead of tracking per-key invalidation.
type Handler struct {
	client *cache_pkg.Cache
}

func New() (*Handler, error) {
	client := cache_pkg.New(5*time.Minute, 10*time.Minute)
	return &Handler{
		client: client,
	}, nil
}

// Get returns the cached value for key, if present.
func (h *Handler) Get(key string) (interface{}, bool) {
	return h.client.Get(key)
}

// Set stores value under key with the default expiration.
func (h *Handler) Set(key string, value interface{}) {
	h.client.Set(key, value, cache_pkg.DefaultExpiration)
}

// Flush discards every cached entry.
func (h *Handler) Flush() {
	h.client.Flush()
}
