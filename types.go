package lorepo

// UserToken is the decoded requester identity attached to a request.
// A nil token means the request is anonymous.
type UserToken struct {
	Username      string   `json:"username"`
	Name          string   `json:"name,omitempty"`
	Email         string   `json:"email"`
	EmailVerified bool     `json:"emailVerified"`
	AccessGroups  []string `json:"accessGroups"`
}

// Event is a lifecycle notification fanned out to realtime subscribers.
type Event struct {
	Type             string `json:"type"`
	LearningObjectID string `json:"learningObjectID"`
	CUID             string `json:"cuid"`
	Collection       string `json:"collection,omitempty"`
	Status           string `json:"status"`
	Timestamp        string `json:"timestamp"`
}

const (
	EventSubmitted = "submitted"
	EventCanceled  = "canceled"
	EventUpdated   = "updated"
	EventReleased  = "released"
)

// SubmissionDocument is the shape handed to the search index when a learning
// object enters review. Materials, metrics and child objects are not part of
// the indexed form.
type SubmissionDocument struct {
	ID          string   `json:"id"`
	CUID        string   `json:"cuid"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Collection  string   `json:"collection"`
	Status      string   `json:"status"`
	Date        string   `json:"date"`
	Outcomes    []string `json:"outcomes,omitempty"`
}
