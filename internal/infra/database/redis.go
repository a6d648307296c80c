package database

import (
	"github.com/redis/go-redis/v9"
)

// NewRedis connects the client that backs the lifecycle pub/sub channel and
// the search-index outbox lists.
func NewRedis(addr string, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:       addr,
		Password:   password,
		DB:         db,
		ClientName: "lorepo",
	})
}
