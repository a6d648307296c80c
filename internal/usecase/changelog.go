package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/authz"
	"github.com/amberflux/lorepo/cuid"
	"github.com/amberflux/lorepo/internal/domain"
)

// ChangelogUsecase appends and lists the textual notes attached to a learning
// object's cuid. Readers without working-copy access only see entries up to
// the latest release.
type ChangelogUsecase struct {
	objects    LearningObjectRepository
	released   ReleasedRepository
	changelogs ChangelogRepository
}

func NewChangelogUsecase(objects LearningObjectRepository, released ReleasedRepository, changelogs ChangelogRepository) *ChangelogUsecase {
	return &ChangelogUsecase{objects: objects, released: released, changelogs: changelogs}
}

func (uc *ChangelogUsecase) Append(ctx context.Context, requester *lorepo.UserToken, learningObjectID, text string) (domain.Changelog, error) {
	if requester == nil {
		return domain.Changelog{}, domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "requester required"}
	}
	if text == "" {
		return domain.Changelog{}, domain.ResourceError{Reason: domain.ReasonBadRequest, Message: "changelog text required"}
	}

	object, err := uc.objects.Fetch(ctx, learningObjectID, false)
	if err != nil {
		return domain.Changelog{}, err
	}
	if object.Author.Username != requester.Username && !authz.IsAdminOrEditor(requester) {
		return domain.Changelog{}, domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "not allowed to modify this changelog"}
	}

	now := time.Now()
	entry := domain.Changelog{
		ID:     cuid.New([]byte(object.CUID+text), now).String(),
		CUID:   object.CUID,
		Author: requester.Username,
		Text:   text,
		Date:   now,
	}
	if err := uc.changelogs.Append(ctx, entry); err != nil {
		return domain.Changelog{}, err
	}
	return entry, nil
}

func (uc *ChangelogUsecase) List(ctx context.Context, requester *lorepo.UserToken, learningObjectID string) ([]domain.Changelog, error) {
	object, err := uc.objects.Fetch(ctx, learningObjectID, false)
	if err != nil {
		return nil, err
	}

	canReadWorking := requester != nil &&
		(requester.Username == object.Author.Username ||
			authz.IsAdminOrEditor(requester) ||
			authz.HasReadAccessByCollection(requester, object.Collection))
	if canReadWorking {
		return uc.changelogs.List(ctx, object.CUID, nil)
	}

	releasedCopy, err := uc.released.Fetch(ctx, learningObjectID, false)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "not allowed to read this changelog"}
	}
	if err != nil {
		return nil, err
	}

	releasedAt := lorepo.MillisToTime(releasedCopy.Date)
	return uc.changelogs.List(ctx, object.CUID, &releasedAt)
}
