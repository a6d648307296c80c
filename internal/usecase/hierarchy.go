package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/authz"
	"github.com/amberflux/lorepo/internal/domain"
)

// MaxHierarchyDepth bounds recursive tree materialization. Real curricula stay
// well under this; anything deeper is treated as malformed.
const MaxHierarchyDepth = 10

type HierarchyUsecase struct {
	objects  LearningObjectRepository
	released ReleasedRepository
}

func NewHierarchyUsecase(objects LearningObjectRepository, released ReleasedRepository) *HierarchyUsecase {
	return &HierarchyUsecase{objects: objects, released: released}
}

// IsTopLevel reports whether no working-copy object lists the given id as a
// child.
func (uc *HierarchyUsecase) IsTopLevel(ctx context.Context, id string) (bool, error) {
	_, err := uc.objects.FindParentID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

type requesterClass int

const (
	classPublic requesterClass = iota
	classAuthor
	classFullAccess
	classCollectionScoped
)

// classify places the requester into exactly one access class relative to the
// object's author. Public and collection-scoped requesters hit different
// persistence entry points, so this must be decided before querying.
func classify(requester *lorepo.UserToken, author string) (requesterClass, []string) {
	if requester == nil {
		return classPublic, nil
	}
	if requester.Username == author {
		return classAuthor, nil
	}
	if authz.IsAdminOrEditor(requester) {
		return classFullAccess, nil
	}
	if collections := authz.AccessGroupCollections(requester); len(collections) > 0 {
		return classCollectionScoped, collections
	}
	return classPublic, nil
}

// FetchParents returns the direct parents of a learning object the requester
// is allowed to see. Authors see parents in every status, full review access
// sees in-review and released parents, collection-scoped access additionally
// restricts to the requester's collections, and everyone else sees released
// parents only.
func (uc *HierarchyUsecase) FetchParents(ctx context.Context, id string, requester *lorepo.UserToken) ([]domain.LearningObject, error) {
	object, err := uc.objects.Fetch(ctx, id, false)
	if errors.Is(err, domain.ErrNotFound) {
		object, err = uc.released.Fetch(ctx, id, false)
	}
	if err != nil {
		return nil, err
	}

	class, collections := classify(requester, object.Author.Username)
	switch class {
	case classAuthor:
		return uc.objects.FetchParents(ctx, domain.ParentQuery{
			ChildID:  id,
			Statuses: domain.AllStatuses,
		}, false)
	case classFullAccess:
		return uc.objects.FetchParents(ctx, domain.ParentQuery{
			ChildID:  id,
			Statuses: domain.StatusUnion(domain.InReviewGroup, domain.ReleasedGroup),
		}, false)
	case classCollectionScoped:
		return uc.objects.FetchParents(ctx, domain.ParentQuery{
			ChildID:     id,
			Statuses:    domain.StatusUnion(domain.InReviewGroup, domain.ReleasedGroup),
			Collections: collections,
		}, false)
	default:
		return uc.released.FetchParents(ctx, id, false)
	}
}

// UpdateLastModified stamps the object with the given date (or now) and
// propagates the same timestamp to every ancestor.
func (uc *HierarchyUsecase) UpdateLastModified(ctx context.Context, id string, date string) error {
	if date == "" {
		date = lorepo.NowMillis()
	}
	err := uc.objects.Edit(ctx, id, domain.LearningObjectUpdates{Date: &date})
	if err != nil {
		return err
	}
	return uc.PropagateDateToParents(ctx, id, date)
}

// PropagateDateToParents walks the ancestor graph breadth-first with a visited
// set, so reconverging paths update each ancestor once and a malformed cyclic
// graph still terminates. Each level is written with a single multi-id update.
func (uc *HierarchyUsecase) PropagateDateToParents(ctx context.Context, childID string, date string) error {
	visited := map[string]bool{childID: true}
	frontier := []string{childID}

	for len(frontier) > 0 {
		var next []string
		for _, id := range frontier {
			parents, err := uc.objects.FindParentIDs(ctx, id)
			if err != nil {
				return err
			}
			for _, parentID := range parents {
				if visited[parentID] {
					continue
				}
				visited[parentID] = true
				next = append(next, parentID)
			}
		}
		if len(next) > 0 {
			err := uc.objects.EditMany(ctx, next, domain.LearningObjectUpdates{Date: &date})
			if err != nil {
				return err
			}
		}
		frontier = next
	}
	return nil
}

// BuildHierarchy materializes the full child tree under the given object,
// filtered to what the requester may read. Cycles are truncated at the repeat
// visit; exceeding MaxHierarchyDepth is an error.
func (uc *HierarchyUsecase) BuildHierarchy(ctx context.Context, object domain.LearningObject, requester *lorepo.UserToken) (domain.HierarchicalLearningObject, error) {
	class, _ := classify(requester, object.Author.Username)
	var statuses []domain.Status
	switch class {
	case classAuthor:
		statuses = domain.AllStatuses
	case classFullAccess, classCollectionScoped:
		statuses = domain.StatusUnion(domain.InReviewGroup, domain.ReleasedGroup)
	default:
		statuses = domain.ReleasedGroup
	}

	visited := map[string]bool{object.ID: true}
	return uc.buildSubtree(ctx, object, statuses, visited, 0)
}

// FetchHierarchy resolves an object by id and materializes its subtree for
// the requester. Objects the requester may not read are reported as not
// found rather than forbidden, so their existence is not leaked.
func (uc *HierarchyUsecase) FetchHierarchy(ctx context.Context, id string, requester *lorepo.UserToken) (domain.HierarchicalLearningObject, error) {
	object, err := uc.objects.Fetch(ctx, id, true)
	if errors.Is(err, domain.ErrNotFound) {
		object, err = uc.released.Fetch(ctx, id, true)
	}
	if err != nil {
		return domain.HierarchicalLearningObject{}, err
	}

	notFound := domain.ResourceError{Reason: domain.ReasonNotFound, Message: "learning object not found: " + id}

	class, collections := classify(requester, object.Author.Username)
	switch class {
	case classAuthor, classFullAccess:
	case classCollectionScoped:
		if object.Status.In(domain.UnreleasedGroup) {
			return domain.HierarchicalLearningObject{}, notFound
		}
		if object.Status.In(domain.InReviewGroup) && !containsString(collections, object.Collection) {
			return domain.HierarchicalLearningObject{}, notFound
		}
	default:
		if !object.Status.In(domain.ReleasedGroup) {
			return domain.HierarchicalLearningObject{}, notFound
		}
	}

	return uc.BuildHierarchy(ctx, object, requester)
}

func (uc *HierarchyUsecase) buildSubtree(ctx context.Context, object domain.LearningObject, statuses []domain.Status, visited map[string]bool, depth int) (domain.HierarchicalLearningObject, error) {
	node := domain.HierarchicalLearningObject{LearningObject: object}
	node.LearningObject.Children = nil

	// The child edges are always queried fresh: summaries embedded on the
	// object are not trustworthy here, since partial fetches leave them
	// unset.
	children, err := uc.objects.LoadChildren(ctx, object.ID, statuses)
	if err != nil {
		return node, err
	}
	if len(children) == 0 {
		return node, nil
	}
	if depth >= MaxHierarchyDepth {
		return node, domain.ResourceError{
			Reason:  domain.ReasonBadRequest,
			Message: "learning object hierarchy exceeds maximum depth",
		}
	}

	for _, child := range children {
		if visited[child.ID] {
			slog.WarnContext(ctx, "cycle in learning object hierarchy, truncating",
				slog.String("parent", object.ID),
				slog.String("child", child.ID),
				slog.String("module", "hierarchy"),
			)
			continue
		}
		visited[child.ID] = true

		subtree, err := uc.buildSubtree(ctx, child, statuses, visited, depth+1)
		if err != nil {
			return node, err
		}
		node.Children = append(node.Children, subtree)
	}
	return node, nil
}
