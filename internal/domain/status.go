package domain

// Status is the lifecycle state of a learning object working copy.
type Status string

const (
	StatusUnreleased Status = "unreleased"
	StatusRejected   Status = "rejected"
	StatusWaiting    Status = "waiting"
	StatusReview     Status = "review"
	StatusProofing   Status = "proofing"
	StatusReleased   Status = "released"
)

// Status groups. Every call site shares these; no module declares its own.
var (
	UnreleasedGroup = []Status{StatusUnreleased, StatusRejected}
	InReviewGroup   = []Status{StatusWaiting, StatusReview, StatusProofing}
	ReleasedGroup   = []Status{StatusReleased}

	AllStatuses = []Status{
		StatusUnreleased, StatusRejected,
		StatusWaiting, StatusReview, StatusProofing,
		StatusReleased,
	}
)

// allowedTransitions is the single source of truth for legal status moves.
// Released objects never transition; a new draft is made through a revision.
var allowedTransitions = map[Status][]Status{
	StatusUnreleased: {StatusWaiting},
	StatusRejected:   {StatusWaiting},
	StatusWaiting:    {StatusUnreleased, StatusReview},
	StatusReview:     {StatusProofing, StatusRejected},
	StatusProofing:   {StatusReleased, StatusRejected},
	StatusReleased:   {},
}

func (s Status) Valid() bool {
	_, ok := allowedTransitions[s]
	return ok
}

func (s Status) In(group []Status) bool {
	for _, member := range group {
		if s == member {
			return true
		}
	}
	return false
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	return to.In(allowedTransitions[from])
}

// StatusUnion concatenates status groups without duplicates, preserving order.
func StatusUnion(groups ...[]Status) []Status {
	var union []Status
	for _, group := range groups {
		for _, s := range group {
			if !s.In(union) {
				union = append(union, s)
			}
		}
	}
	return union
}
