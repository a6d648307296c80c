package usecase

import (
	"context"
	"time"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/internal/domain"
)

// LearningObjectRepository is the mutable working-copy store.
type LearningObjectRepository interface {
	Fetch(ctx context.Context, id string, full bool) (domain.LearningObject, error)
	FetchByOwner(ctx context.Context, id, username string) (domain.LearningObject, error)
	FetchRevision(ctx context.Context, id string, revision int, summary bool) (domain.LearningObject, error)
	Edit(ctx context.Context, id string, updates domain.LearningObjectUpdates) error
	EditMany(ctx context.Context, ids []string, updates domain.LearningObjectUpdates) error
	FindParentID(ctx context.Context, childID string) (string, error)
	FindParentIDs(ctx context.Context, childID string) ([]string, error)
	FetchParents(ctx context.Context, query domain.ParentQuery, full bool) ([]domain.LearningObject, error)
	LoadChildren(ctx context.Context, id string, statuses []domain.Status) ([]domain.LearningObject, error)
}

// ReleasedRepository is the immutable released-snapshot store. Add supersedes
// any previous snapshot for the same id.
type ReleasedRepository interface {
	Add(ctx context.Context, object domain.LearningObject) error
	Fetch(ctx context.Context, id string, full bool) (domain.LearningObject, error)
	FetchParents(ctx context.Context, childID string, full bool) ([]domain.LearningObject, error)
}

// SubmissionRepository stores review-intake records.
type SubmissionRepository interface {
	Record(ctx context.Context, submission domain.Submission) error
	RecordCancellation(ctx context.Context, learningObjectID string, at time.Time) error
	FetchRecent(ctx context.Context, learningObjectID string) (domain.Submission, error)
	Fetch(ctx context.Context, collection, learningObjectID string) (domain.Submission, error)
}

// SearchIndex mirrors lifecycle changes into the search collaborator. Every
// call is best-effort: failures are reported by the caller, never propagated.
type SearchIndex interface {
	PublishSubmission(ctx context.Context, doc lorepo.SubmissionDocument) error
	UpdateSubmission(ctx context.Context, id string, updates map[string]any) error
	DeleteSubmission(ctx context.Context, id string) error
	DeletePreviousRelease(ctx context.Context, id string) error
}

// LastModifiedPropagator stamps an object and its ancestors with a new
// last-modified date after a lifecycle write. HierarchyUsecase implements it.
type LastModifiedPropagator interface {
	UpdateLastModified(ctx context.Context, id string, date string) error
}

// Identity resolves usernames to full user records.
type Identity interface {
	GetUser(ctx context.Context, username string) (domain.User, error)
}

// EventPublisher fans lifecycle events out to realtime subscribers.
type EventPublisher interface {
	Publish(ctx context.Context, event lorepo.Event) error
}

// ChangelogRepository is the append-only note store keyed by cuid.
type ChangelogRepository interface {
	Append(ctx context.Context, entry domain.Changelog) error
	List(ctx context.Context, cuid string, before *time.Time) ([]domain.Changelog, error)
}
