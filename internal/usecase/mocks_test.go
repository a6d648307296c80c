package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/internal/domain"
)

// --- mocks ---

func applyUpdates(lo domain.LearningObject, u domain.LearningObjectUpdates) domain.LearningObject {
	if u.Status != nil {
		lo.Status = *u.Status
	}
	if u.Collection != nil {
		lo.Collection = *u.Collection
	}
	if u.Revision != nil {
		lo.Revision = *u.Revision
	}
	if u.Date != nil {
		lo.Date = *u.Date
	}
	return lo
}

type mockObjects struct {
	objects   map[string]domain.LearningObject
	revisions map[string]map[int]domain.LearningObject

	// childID -> parent ids, insertion ordered
	parents  map[string][]string
	children map[string][]string

	parentQueries []domain.ParentQuery
	editedMany    [][]string
}

func newMockObjects(objects ...domain.LearningObject) *mockObjects {
	m := &mockObjects{
		objects:   map[string]domain.LearningObject{},
		revisions: map[string]map[int]domain.LearningObject{},
		parents:   map[string][]string{},
		children:  map[string][]string{},
	}
	for _, lo := range objects {
		m.objects[lo.ID] = lo
	}
	return m
}

func (m *mockObjects) link(parentID, childID string) {
	m.parents[childID] = append(m.parents[childID], parentID)
	m.children[parentID] = append(m.children[parentID], childID)
}

func (m *mockObjects) Fetch(ctx context.Context, id string, full bool) (domain.LearningObject, error) {
	lo, ok := m.objects[id]
	if !ok {
		return domain.LearningObject{}, domain.ErrNotFound
	}
	return lo, nil
}

func (m *mockObjects) FetchByOwner(ctx context.Context, id, username string) (domain.LearningObject, error) {
	lo, ok := m.objects[id]
	if !ok || lo.Author.Username != username {
		return domain.LearningObject{}, domain.ErrNotFound
	}
	return lo, nil
}

func (m *mockObjects) FetchRevision(ctx context.Context, id string, revision int, summary bool) (domain.LearningObject, error) {
	lo, ok := m.revisions[id][revision]
	if !ok {
		return domain.LearningObject{}, domain.ErrNotFound
	}
	return lo, nil
}

func (m *mockObjects) Edit(ctx context.Context, id string, updates domain.LearningObjectUpdates) error {
	lo, ok := m.objects[id]
	if !ok {
		return domain.ErrNotFound
	}
	m.objects[id] = applyUpdates(lo, updates)
	return nil
}

func (m *mockObjects) EditMany(ctx context.Context, ids []string, updates domain.LearningObjectUpdates) error {
	m.editedMany = append(m.editedMany, ids)
	for _, id := range ids {
		if lo, ok := m.objects[id]; ok {
			m.objects[id] = applyUpdates(lo, updates)
		}
	}
	return nil
}

func (m *mockObjects) FindParentID(ctx context.Context, childID string) (string, error) {
	parents := m.parents[childID]
	if len(parents) == 0 {
		return "", domain.ErrNotFound
	}
	return parents[0], nil
}

func (m *mockObjects) FindParentIDs(ctx context.Context, childID string) ([]string, error) {
	return m.parents[childID], nil
}

func (m *mockObjects) FetchParents(ctx context.Context, query domain.ParentQuery, full bool) ([]domain.LearningObject, error) {
	m.parentQueries = append(m.parentQueries, query)
	var result []domain.LearningObject
	for _, parentID := range m.parents[query.ChildID] {
		lo, ok := m.objects[parentID]
		if !ok || !lo.Status.In(query.Statuses) {
			continue
		}
		if len(query.Collections) > 0 && !containsString(query.Collections, lo.Collection) {
			continue
		}
		result = append(result, lo)
	}
	return result, nil
}

func (m *mockObjects) LoadChildren(ctx context.Context, id string, statuses []domain.Status) ([]domain.LearningObject, error) {
	var result []domain.LearningObject
	for _, childID := range m.children[id] {
		lo, ok := m.objects[childID]
		if ok && lo.Status.In(statuses) {
			// children come back in summary form, like the real store
			lo.Children = nil
			lo.Contributors = nil
			result = append(result, lo)
		}
	}
	return result, nil
}

type mockReleased struct {
	snapshots map[string]domain.LearningObject
	parents   map[string][]string
	fetched   []string
}

func newMockReleased(objects ...domain.LearningObject) *mockReleased {
	m := &mockReleased{
		snapshots: map[string]domain.LearningObject{},
		parents:   map[string][]string{},
	}
	for _, lo := range objects {
		m.snapshots[lo.ID] = lo
	}
	return m
}

func (m *mockReleased) Add(ctx context.Context, object domain.LearningObject) error {
	m.snapshots[object.ID] = object
	return nil
}

func (m *mockReleased) Fetch(ctx context.Context, id string, full bool) (domain.LearningObject, error) {
	lo, ok := m.snapshots[id]
	if !ok {
		return domain.LearningObject{}, domain.ErrNotFound
	}
	return lo, nil
}

func (m *mockReleased) FetchParents(ctx context.Context, childID string, full bool) ([]domain.LearningObject, error) {
	m.fetched = append(m.fetched, childID)
	var result []domain.LearningObject
	for _, parentID := range m.parents[childID] {
		if lo, ok := m.snapshots[parentID]; ok {
			result = append(result, lo)
		}
	}
	return result, nil
}

type mockSubmissions struct {
	records map[string]domain.Submission
}

func newMockSubmissions() *mockSubmissions {
	return &mockSubmissions{records: map[string]domain.Submission{}}
}

func (m *mockSubmissions) Record(ctx context.Context, submission domain.Submission) error {
	m.records[submission.LearningObjectID] = submission
	return nil
}

func (m *mockSubmissions) RecordCancellation(ctx context.Context, learningObjectID string, at time.Time) error {
	s, ok := m.records[learningObjectID]
	if !ok {
		return domain.ErrNotFound
	}
	s.CancelDate = &at
	m.records[learningObjectID] = s
	return nil
}

func (m *mockSubmissions) FetchRecent(ctx context.Context, learningObjectID string) (domain.Submission, error) {
	s, ok := m.records[learningObjectID]
	if !ok {
		return domain.Submission{}, domain.ErrNotFound
	}
	return s, nil
}

func (m *mockSubmissions) Fetch(ctx context.Context, collection, learningObjectID string) (domain.Submission, error) {
	s, ok := m.records[learningObjectID]
	if !ok || s.Collection != collection {
		return domain.Submission{}, domain.ErrNotFound
	}
	return s, nil
}

type mockIdentity struct {
	users map[string]domain.User
}

func (m *mockIdentity) GetUser(ctx context.Context, username string) (domain.User, error) {
	u, ok := m.users[username]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

type mockIndex struct {
	fail bool

	published       []lorepo.SubmissionDocument
	updated         map[string]map[string]any
	deleted         []string
	releasesDeleted []string
}

func newMockIndex() *mockIndex {
	return &mockIndex{updated: map[string]map[string]any{}}
}

func (m *mockIndex) PublishSubmission(ctx context.Context, doc lorepo.SubmissionDocument) error {
	if m.fail {
		return fmt.Errorf("index unavailable")
	}
	m.published = append(m.published, doc)
	return nil
}

func (m *mockIndex) UpdateSubmission(ctx context.Context, id string, updates map[string]any) error {
	if m.fail {
		return fmt.Errorf("index unavailable")
	}
	m.updated[id] = updates
	return nil
}

func (m *mockIndex) DeleteSubmission(ctx context.Context, id string) error {
	if m.fail {
		return fmt.Errorf("index unavailable")
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockIndex) DeletePreviousRelease(ctx context.Context, id string) error {
	if m.fail {
		return fmt.Errorf("index unavailable")
	}
	m.releasesDeleted = append(m.releasesDeleted, id)
	return nil
}

type mockEvents struct {
	events []lorepo.Event
}

func (m *mockEvents) Publish(ctx context.Context, event lorepo.Event) error {
	m.events = append(m.events, event)
	return nil
}

type mockChangelogs struct {
	entries []domain.Changelog
	before  *time.Time
}

func (m *mockChangelogs) Append(ctx context.Context, entry domain.Changelog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockChangelogs) List(ctx context.Context, cuid string, before *time.Time) ([]domain.Changelog, error) {
	m.before = before
	var result []domain.Changelog
	for _, entry := range m.entries {
		if entry.CUID != cuid {
			continue
		}
		if before != nil && entry.Date.After(*before) {
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}
