package usecase

import (
	"context"
	"errors"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/authz"
	"github.com/amberflux/lorepo/internal/domain"
)

// RevisionUsecase creates and reads numbered redrafts of previously released
// learning objects.
type RevisionUsecase struct {
	objects  LearningObjectRepository
	released ReleasedRepository
}

func NewRevisionUsecase(objects LearningObjectRepository, released ReleasedRepository) *RevisionUsecase {
	return &RevisionUsecase{objects: objects, released: released}
}

// CreateRevision baselines the working copy against the released copy's
// revision number. The author gets a fresh unreleased draft; an admin or
// editor redrafting on the author's behalf gets a proofing copy.
func (uc *RevisionUsecase) CreateRevision(ctx context.Context, username, learningObjectID string, requester *lorepo.UserToken) (int, error) {
	object, err := uc.objects.FetchByOwner(ctx, learningObjectID, username)
	if err != nil {
		return 0, err
	}

	releasedCopy, err := uc.released.Fetch(ctx, learningObjectID, false)
	if errors.Is(err, domain.ErrNotFound) {
		return 0, domain.ResourceError{Reason: domain.ReasonBadRequest, Message: "learning object has never been released"}
	}
	if err != nil {
		return 0, err
	}

	var status domain.Status
	switch {
	case requester != nil && requester.Username == releasedCopy.Author.Username:
		status = domain.StatusUnreleased
	case authz.IsAdminOrEditor(requester):
		status = domain.StatusProofing
	default:
		return 0, domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "not allowed to revise this learning object"}
	}

	revision := releasedCopy.Revision + 1
	err = uc.objects.Edit(ctx, object.ID, domain.LearningObjectUpdates{
		Revision: &revision,
		Status:   &status,
	})
	if err != nil {
		return 0, err
	}
	return revision, nil
}

type GetRevisionInput struct {
	Requester        *lorepo.UserToken
	Username         string
	LearningObjectID string
	Revision         int
	Summary          bool
}

// GetRevision fetches one numbered revision, applying the general read-access
// policy. Revision 0 denotes "no revision yet" and is never addressable.
func (uc *RevisionUsecase) GetRevision(ctx context.Context, input GetRevisionInput) (domain.LearningObject, error) {
	if input.Revision == 0 {
		return domain.LearningObject{}, domain.ResourceError{Reason: domain.ReasonNotFound, Message: "revision 0 is not addressable"}
	}

	_, err := uc.objects.FetchByOwner(ctx, input.LearningObjectID, input.Username)
	if err != nil {
		return domain.LearningObject{}, err
	}

	revision, err := uc.objects.FetchRevision(ctx, input.LearningObjectID, input.Revision, input.Summary)
	if err != nil {
		return domain.LearningObject{}, err
	}

	switch {
	case revision.Status.In(domain.ReleasedGroup):
	case input.Requester != nil && input.Requester.Username == revision.Author.Username:
	case !revision.Status.In(domain.UnreleasedGroup) && authz.HasReadAccessByCollection(input.Requester, revision.Collection):
	case !revision.Status.In(domain.UnreleasedGroup) && authz.IsAdminOrEditor(input.Requester):
	default:
		return domain.LearningObject{}, domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "not allowed to read this revision"}
	}

	return revision, nil
}
