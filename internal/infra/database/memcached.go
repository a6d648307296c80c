package database

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// NewMemcached connects the client behind the identity read-through cache.
// Lookups there sit on the submission path, so the timeout is kept short.
func NewMemcached(server string) *memcache.Client {
	mc := memcache.New(server)
	mc.Timeout = 500 * time.Millisecond
	return mc
}
