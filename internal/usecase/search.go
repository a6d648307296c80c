package usecase

import (
	"sort"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/authz"
	"github.com/amberflux/lorepo/internal/domain"
)

// SearchPlanner translates a requester's privilege and requested filters into
// per-collection status access and query conditions for privileged search. It
// is pure: the actual query execution belongs to the search collaborator.
type SearchPlanner struct{}

// CollectionAccessMap maps each requested collection to the statuses the
// requester may search within it. Collections outside the requester's
// privileged set fall back to released-only. With no explicit collections,
// every privileged collection gets the full authorized status set.
func (SearchPlanner) CollectionAccessMap(requested, privileged []string, statuses []domain.Status) (domain.CollectionAccessMap, error) {
	for _, s := range statuses {
		if s.In(domain.UnreleasedGroup) {
			return nil, domain.ResourceError{
				Reason:  domain.ReasonInvalidAccess,
				Message: "status " + string(s) + " is not searchable",
			}
		}
	}

	authStatuses := statuses
	if len(authStatuses) == 0 {
		authStatuses = domain.StatusUnion(domain.InReviewGroup, domain.ReleasedGroup)
	}

	accessMap := domain.CollectionAccessMap{}
	if len(requested) == 0 {
		for _, collection := range privileged {
			accessMap[collection] = authStatuses
		}
		return accessMap, nil
	}

	for _, collection := range requested {
		if containsString(privileged, collection) {
			accessMap[collection] = authStatuses
		} else {
			accessMap[collection] = domain.ReleasedGroup
		}
	}
	return accessMap, nil
}

// CollectionQueryConditions emits one OR-able condition per access map entry.
// When no explicit collection was requested and the status filter is empty or
// exactly released, a bare released condition keeps released objects outside
// the privileged collections visible.
func (SearchPlanner) CollectionQueryConditions(requestedCollections bool, statuses []domain.Status, accessMap domain.CollectionAccessMap) []domain.QueryCondition {
	collections := make([]string, 0, len(accessMap))
	for collection := range accessMap {
		collections = append(collections, collection)
	}
	sort.Strings(collections)

	conditions := make([]domain.QueryCondition, 0, len(collections)+1)
	for _, collection := range collections {
		conditions = append(conditions, domain.QueryCondition{
			Collection: collection,
			Statuses:   accessMap[collection],
		})
	}

	releasedOnly := len(statuses) == 0 ||
		(len(statuses) == 1 && statuses[0] == domain.StatusReleased)
	if !requestedCollections && releasedOnly {
		conditions = append(conditions, domain.QueryCondition{Statuses: domain.ReleasedGroup})
	}
	return conditions
}

// ValidateDraftSearch guards the drafts-only search mode: drafts belong to
// their author (or privileged reviewers), and by definition are never
// released.
func (SearchPlanner) ValidateDraftSearch(draftsOnly bool, requester *lorepo.UserToken, username string, statuses []domain.Status) error {
	if !draftsOnly {
		return nil
	}
	if requester == nil || (requester.Username != username && !authz.IsPrivileged(requester)) {
		return domain.ResourceError{Reason: domain.ReasonInvalidAccess, Message: "drafts are only visible to their author"}
	}
	for _, s := range statuses {
		if s == domain.StatusReleased {
			return domain.ResourceError{Reason: domain.ReasonBadRequest, Message: "drafts are never released"}
		}
	}
	return nil
}

func containsString(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
