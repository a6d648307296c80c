package domain

type ctxKey string

const (
	RequesterCtxKey ctxKey = "lo-requester"
)

// LifecycleChannel is the redis pub/sub channel carrying lifecycle events.
const LifecycleChannel = "lorepo:lifecycle"

const (
	// SearchOutboxKey is the redis list holding pending search index
	// operations; failed operations past the retry budget land on the
	// dead-letter list.
	SearchOutboxKey     = "lorepo:search-outbox"
	SearchDeadLetterKey = "lorepo:search-outbox:dead"
)
