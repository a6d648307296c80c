package domain

// CollectionAccessMap maps a collection name to the set of statuses a
// requester may read within it.
type CollectionAccessMap map[string][]Status

// QueryCondition is one OR-able restriction handed to privileged search. A
// condition with an empty Collection restricts by status alone.
type QueryCondition struct {
	Collection string   `json:"collection,omitempty"`
	Statuses   []Status `json:"status"`
}
