package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/authz"
	"github.com/amberflux/lorepo/internal/domain"
)

// SubmissionUsecase orchestrates the submit, cancel and privileged status
// update flows. Authorization is checked first, then transition legality, then
// persistence; search index and realtime side effects are best-effort.
type SubmissionUsecase struct {
	objects     LearningObjectRepository
	released    ReleasedRepository
	submissions SubmissionRepository
	identity    Identity
	index       SearchIndex
	events      EventPublisher
	dates       LastModifiedPropagator
}

func NewSubmissionUsecase(
	objects LearningObjectRepository,
	released ReleasedRepository,
	submissions SubmissionRepository,
	identity Identity,
	index SearchIndex,
	events EventPublisher,
	dates LastModifiedPropagator,
) *SubmissionUsecase {
	return &SubmissionUsecase{
		objects:     objects,
		released:    released,
		submissions: submissions,
		identity:    identity,
		index:       index,
		events:      events,
		dates:       dates,
	}
}

type SubmitInput struct {
	Requester        *lorepo.UserToken
	LearningObjectID string
	Collection       string
}

// SubmitForReview moves an unreleased or rejected object into waiting under
// the target collection. Only the author with a verified email may submit, and
// the object must pass submittable validation.
func (uc *SubmissionUsecase) SubmitForReview(ctx context.Context, input SubmitInput) (domain.LearningObject, error) {
	if input.Requester == nil {
		return domain.LearningObject{}, domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "requester required"}
	}

	object, err := uc.objects.Fetch(ctx, input.LearningObjectID, true)
	if err != nil {
		return domain.LearningObject{}, err
	}
	if object.Author.Username != input.Requester.Username {
		return domain.LearningObject{}, domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "only the author may submit a learning object"}
	}

	author, err := uc.identity.GetUser(ctx, input.Requester.Username)
	if err != nil {
		return domain.LearningObject{}, err
	}
	if !author.EmailVerified {
		return domain.LearningObject{}, domain.ResourceError{Reason: domain.ReasonForbidden, Message: "author email is not verified"}
	}

	if err := object.Submittable(); err != nil {
		return domain.LearningObject{}, err
	}
	if !domain.CanTransition(object.Status, domain.StatusWaiting) {
		return domain.LearningObject{}, domain.ResourceError{
			Reason:  domain.ReasonConflict,
			Message: "learning object cannot be submitted from status " + string(object.Status),
		}
	}

	status := domain.StatusWaiting
	err = uc.objects.Edit(ctx, object.ID, domain.LearningObjectUpdates{
		Status:     &status,
		Collection: &input.Collection,
	})
	if err != nil {
		return domain.LearningObject{}, err
	}
	if err := uc.touch(ctx, object.ID, ""); err != nil {
		return domain.LearningObject{}, err
	}

	object, err = uc.objects.Fetch(ctx, object.ID, true)
	if err != nil {
		return domain.LearningObject{}, err
	}

	uc.publishToIndex(ctx, object)

	err = uc.submissions.Record(ctx, domain.Submission{
		LearningObjectID: object.ID,
		Collection:       object.Collection,
		Timestamp:        time.Now(),
	})
	if err != nil {
		return domain.LearningObject{}, err
	}

	uc.notify(ctx, lorepo.EventSubmitted, object)
	return object, nil
}

// CancelSubmission reverts a waiting object to unreleased. A submission that
// already carries a cancellation date is an explicit error rather than a
// silent no-op.
func (uc *SubmissionUsecase) CancelSubmission(ctx context.Context, requester *lorepo.UserToken, learningObjectID string) error {
	if requester == nil {
		return domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "requester required"}
	}

	object, err := uc.objects.Fetch(ctx, learningObjectID, false)
	if err != nil {
		return err
	}
	if object.Author.Username != requester.Username {
		return domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "only the author may cancel a submission"}
	}

	// The cancel-date check comes before the status check so a repeated
	// cancel is reported as already canceled, not as a status conflict.
	recent, err := uc.submissions.FetchRecent(ctx, learningObjectID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if err == nil && recent.CancelDate != nil {
		return domain.ResourceError{Reason: domain.ReasonBadRequest, Message: "submission is already canceled"}
	}

	if object.Status != domain.StatusWaiting {
		return domain.ResourceError{Reason: domain.ReasonConflict, Message: "learning object is not waiting for review"}
	}

	err = uc.submissions.RecordCancellation(ctx, learningObjectID, time.Now())
	if err != nil {
		return err
	}

	status := domain.StatusUnreleased
	err = uc.objects.Edit(ctx, learningObjectID, domain.LearningObjectUpdates{Status: &status})
	if err != nil {
		return err
	}
	if err := uc.touch(ctx, learningObjectID, ""); err != nil {
		return err
	}

	if err := uc.index.DeleteSubmission(ctx, learningObjectID); err != nil {
		uc.reportIndexFailure(ctx, "delete submission", learningObjectID, err)
	}

	object.Status = status
	uc.notify(ctx, lorepo.EventCanceled, object)
	return nil
}

// UpdateSubmission changes the target collection of an in-review object. The
// author or an admin/editor may do this; the pending search index document is
// updated best-effort.
func (uc *SubmissionUsecase) UpdateSubmission(ctx context.Context, requester *lorepo.UserToken, learningObjectID, collection string) error {
	if requester == nil {
		return domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "requester required"}
	}

	object, err := uc.objects.Fetch(ctx, learningObjectID, false)
	if err != nil {
		return err
	}
	if object.Author.Username != requester.Username && !authz.IsAdminOrEditor(requester) {
		return domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "not allowed to modify this submission"}
	}
	if !object.Status.In(domain.InReviewGroup) {
		return domain.ResourceError{Reason: domain.ReasonConflict, Message: "learning object is not in review"}
	}

	err = uc.objects.Edit(ctx, learningObjectID, domain.LearningObjectUpdates{Collection: &collection})
	if err != nil {
		return err
	}
	if err := uc.touch(ctx, learningObjectID, ""); err != nil {
		return err
	}

	if err := uc.index.UpdateSubmission(ctx, learningObjectID, map[string]any{"collection": collection}); err != nil {
		uc.reportIndexFailure(ctx, "update submission", learningObjectID, err)
	}

	object.Collection = collection
	uc.notify(ctx, lorepo.EventUpdated, object)
	return nil
}

func (uc *SubmissionUsecase) publishToIndex(ctx context.Context, object domain.LearningObject) {
	doc := lorepo.SubmissionDocument{
		ID:          object.ID,
		CUID:        object.CUID,
		Name:        object.Name,
		Description: object.Description,
		Author:      object.Author.Username,
		Collection:  object.Collection,
		Status:      string(object.Status),
		Date:        object.Date,
		Outcomes:    object.Outcomes,
	}
	if err := uc.index.PublishSubmission(ctx, doc); err != nil {
		uc.reportIndexFailure(ctx, "publish submission", object.ID, err)
	}
}

// touch stamps the object and its ancestors after a lifecycle write. An empty
// date means now.
func (uc *SubmissionUsecase) touch(ctx context.Context, id, date string) error {
	if uc.dates == nil {
		return nil
	}
	return uc.dates.UpdateLastModified(ctx, id, date)
}

// Index unavailability must never block a status transition.
func (uc *SubmissionUsecase) reportIndexFailure(ctx context.Context, op, id string, err error) {
	slog.ErrorContext(ctx, "search index operation failed",
		slog.String("op", op),
		slog.String("learningObjectID", id),
		slog.String("error", err.Error()),
		slog.String("module", "submission"),
	)
}

func (uc *SubmissionUsecase) notify(ctx context.Context, eventType string, object domain.LearningObject) {
	if uc.events == nil {
		return
	}
	err := uc.events.Publish(ctx, lorepo.Event{
		Type:             eventType,
		LearningObjectID: object.ID,
		CUID:             object.CUID,
		Collection:       object.Collection,
		Status:           string(object.Status),
		Timestamp:        lorepo.NowMillis(),
	})
	if err != nil {
		slog.ErrorContext(ctx, "lifecycle event publish failed",
			slog.String("type", eventType),
			slog.String("error", err.Error()),
			slog.String("module", "submission"),
		)
	}
}
