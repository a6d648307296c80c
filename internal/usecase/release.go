package usecase

import (
	"context"
	"errors"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/authz"
	"github.com/amberflux/lorepo/internal/domain"
)

type StatusUpdateInput struct {
	Requester        *lorepo.UserToken
	LearningObjectID string
	Status           domain.Status
}

// UpdateStatus is the privileged status transition: reviewers moving objects
// through the review pipeline and, as the terminal case, releasing them.
// Setting status to released snapshots the working copy into the released
// store.
func (uc *SubmissionUsecase) UpdateStatus(ctx context.Context, input StatusUpdateInput) (domain.LearningObject, error) {
	if !authz.IsAdminOrEditor(input.Requester) {
		return domain.LearningObject{}, domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "only admins and editors may update status"}
	}
	if !input.Status.Valid() {
		return domain.LearningObject{}, domain.ResourceError{Reason: domain.ReasonBadRequest, Message: "unknown status"}
	}

	object, err := uc.objects.Fetch(ctx, input.LearningObjectID, true)
	if err != nil {
		return domain.LearningObject{}, err
	}
	if !domain.CanTransition(object.Status, input.Status) {
		return domain.LearningObject{}, domain.ResourceError{
			Reason:  domain.ReasonConflict,
			Message: "cannot move learning object from " + string(object.Status) + " to " + string(input.Status),
		}
	}

	if input.Status == domain.StatusReleased {
		return uc.release(ctx, object)
	}

	err = uc.objects.Edit(ctx, object.ID, domain.LearningObjectUpdates{Status: &input.Status})
	if err != nil {
		return domain.LearningObject{}, err
	}
	if err := uc.touch(ctx, object.ID, ""); err != nil {
		return domain.LearningObject{}, err
	}

	if err := uc.index.UpdateSubmission(ctx, object.ID, map[string]any{"status": string(input.Status)}); err != nil {
		uc.reportIndexFailure(ctx, "update submission", object.ID, err)
	}

	object.Status = input.Status
	uc.notify(ctx, lorepo.EventUpdated, object)
	return object, nil
}

// release writes the immutable snapshot: the working copy with children
// collapsed to bare references, stamped with the next version number. The
// previous release, if any, is superseded.
func (uc *SubmissionUsecase) release(ctx context.Context, object domain.LearningObject) (domain.LearningObject, error) {
	version := 1
	previous, err := uc.released.Fetch(ctx, object.ID, false)
	if err == nil {
		version = previous.Version + 1
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.LearningObject{}, err
	}

	status := domain.StatusReleased
	date := lorepo.NowMillis()
	err = uc.objects.Edit(ctx, object.ID, domain.LearningObjectUpdates{Status: &status, Date: &date})
	if err != nil {
		return domain.LearningObject{}, err
	}
	if err := uc.touch(ctx, object.ID, date); err != nil {
		return domain.LearningObject{}, err
	}

	snapshot := object
	snapshot.Status = status
	snapshot.Version = version
	snapshot.Date = date

	err = uc.released.Add(ctx, snapshot)
	if err != nil {
		return domain.LearningObject{}, err
	}

	if err := uc.index.DeletePreviousRelease(ctx, object.ID); err != nil {
		uc.reportIndexFailure(ctx, "delete previous release", object.ID, err)
	}
	if err := uc.index.DeleteSubmission(ctx, object.ID); err != nil {
		uc.reportIndexFailure(ctx, "delete submission", object.ID, err)
	}

	uc.notify(ctx, lorepo.EventReleased, snapshot)
	return snapshot, nil
}
