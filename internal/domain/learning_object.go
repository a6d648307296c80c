package domain

import "time"

// User identifies an author or contributor without persistence concerns.
type User struct {
	Username      string `json:"username"`
	Name          string `json:"name,omitempty"`
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"emailVerified,omitempty"`
}

// LearningObject is the working or released copy of a learning object.
// Revision starts at 0 and is only bumped when a released object is redrafted;
// Version is assigned on release. Date is string epoch milliseconds.
type LearningObject struct {
	ID           string                  `json:"id"`
	CUID         string                  `json:"cuid"`
	Name         string                  `json:"name"`
	Description  string                  `json:"description"`
	Author       User                    `json:"author"`
	Contributors []User                  `json:"contributors,omitempty"`
	Collection   string                  `json:"collection,omitempty"`
	Status       Status                  `json:"status"`
	Revision     int                     `json:"revision"`
	Version      int                     `json:"version,omitempty"`
	Outcomes     []string                `json:"outcomes,omitempty"`
	Children     []LearningObjectSummary `json:"children,omitempty"`
	Date         string                  `json:"date"`
}

// LearningObjectSummary is the lightweight child reference embedded in a
// parent object.
type LearningObjectSummary struct {
	ID         string `json:"id"`
	CUID       string `json:"cuid"`
	Name       string `json:"name"`
	Status     Status `json:"status"`
	Collection string `json:"collection,omitempty"`
	Date       string `json:"date"`
}

// Summary collapses a learning object to its child-reference form.
func (lo LearningObject) Summary() LearningObjectSummary {
	return LearningObjectSummary{
		ID:         lo.ID,
		CUID:       lo.CUID,
		Name:       lo.Name,
		Status:     lo.Status,
		Collection: lo.Collection,
		Date:       lo.Date,
	}
}

// Submittable reports whether the object carries everything review intake
// requires: a name, a description and at least one outcome.
func (lo LearningObject) Submittable() error {
	if lo.Name == "" {
		return ResourceError{Reason: ReasonBadRequest, Message: "learning object has no name"}
	}
	if lo.Description == "" {
		return ResourceError{Reason: ReasonBadRequest, Message: "learning object has no description"}
	}
	if len(lo.Outcomes) == 0 {
		return ResourceError{Reason: ReasonBadRequest, Message: "learning object has no outcomes"}
	}
	return nil
}

// HierarchicalLearningObject is a learning object with its children fully
// materialized, recursively.
type HierarchicalLearningObject struct {
	LearningObject
	Children []HierarchicalLearningObject `json:"children,omitempty"`
}

// LearningObjectUpdates is a partial update of a working copy. Nil fields are
// left untouched.
type LearningObjectUpdates struct {
	Status     *Status
	Collection *string
	Revision   *int
	Date       *string
}

// ParentQuery selects the direct parents of a child object within the working
// store. An empty Collections slice applies no collection restriction.
type ParentQuery struct {
	ChildID     string
	Statuses    []Status
	Collections []string
}

// Submission records a learning object entering review for a collection.
type Submission struct {
	LearningObjectID string     `json:"learningObjectID"`
	Collection       string     `json:"collection"`
	Timestamp        time.Time  `json:"timestamp"`
	CancelDate       *time.Time `json:"cancelDate,omitempty"`
}

// Changelog is one append-only note attached to a learning object's cuid.
type Changelog struct {
	ID     string    `json:"id"`
	CUID   string    `json:"cuid"`
	Author string    `json:"author"`
	Text   string    `json:"text"`
	Date   time.Time `json:"date"`
}
