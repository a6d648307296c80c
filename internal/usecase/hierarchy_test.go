package usecase

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/amberflux/lorepo"
	"github.com/amberflux/lorepo/internal/domain"
)

func TestIsTopLevel(t *testing.T) {
	objects := newMockObjects(
		submittableObject("A", "kira", domain.StatusUnreleased),
		submittableObject("B", "kira", domain.StatusUnreleased),
	)
	objects.link("A", "B")
	uc := NewHierarchyUsecase(objects, newMockReleased())

	top, err := uc.IsTopLevel(context.Background(), "A")
	if err != nil || !top {
		t.Fatalf("expected A to be top level: %v %v", top, err)
	}
	top, err = uc.IsTopLevel(context.Background(), "B")
	if err != nil || top {
		t.Fatalf("expected B not to be top level: %v %v", top, err)
	}
}

func TestFetchParentsClassification(t *testing.T) {
	child := submittableObject("C", "kira", domain.StatusUnreleased)
	parent := submittableObject("P", "kira", domain.StatusWaiting)
	parent.Collection = "nccp"
	objects := newMockObjects(child, parent)
	objects.link("P", "C")
	released := newMockReleased()
	uc := NewHierarchyUsecase(objects, released)

	// author: all statuses, no collection restriction
	_, err := uc.FetchParents(context.Background(), "C", &lorepo.UserToken{Username: "kira"})
	if err != nil {
		t.Fatalf("author fetch failed: %v", err)
	}
	q := objects.parentQueries[len(objects.parentQueries)-1]
	if !reflect.DeepEqual(q.Statuses, domain.AllStatuses) || q.Collections != nil {
		t.Fatalf("author query wrong: %+v", q)
	}

	// admin: in-review plus released
	_, err = uc.FetchParents(context.Background(), "C", &lorepo.UserToken{Username: "vet", AccessGroups: []string{"admin"}})
	if err != nil {
		t.Fatalf("admin fetch failed: %v", err)
	}
	q = objects.parentQueries[len(objects.parentQueries)-1]
	want := domain.StatusUnion(domain.InReviewGroup, domain.ReleasedGroup)
	if !reflect.DeepEqual(q.Statuses, want) || q.Collections != nil {
		t.Fatalf("admin query wrong: %+v", q)
	}

	// collection-scoped: same statuses, restricted collections
	_, err = uc.FetchParents(context.Background(), "C", &lorepo.UserToken{Username: "sol", AccessGroups: []string{"curator@nccp"}})
	if err != nil {
		t.Fatalf("curator fetch failed: %v", err)
	}
	q = objects.parentQueries[len(objects.parentQueries)-1]
	if !reflect.DeepEqual(q.Collections, []string{"nccp"}) {
		t.Fatalf("curator query missing collection restriction: %+v", q)
	}

	// public requesters hit the released store, not the working store
	queriesBefore := len(objects.parentQueries)
	_, err = uc.FetchParents(context.Background(), "C", nil)
	if err != nil {
		t.Fatalf("public fetch failed: %v", err)
	}
	if len(objects.parentQueries) != queriesBefore {
		t.Fatalf("public fetch must not query the working store")
	}
	if len(released.fetched) != 1 || released.fetched[0] != "C" {
		t.Fatalf("public fetch must query the released store, got %v", released.fetched)
	}
}

func TestPropagateDateChain(t *testing.T) {
	// A <- B <- C
	objects := newMockObjects(
		submittableObject("A", "kira", domain.StatusUnreleased),
		submittableObject("B", "kira", domain.StatusUnreleased),
		submittableObject("C", "kira", domain.StatusUnreleased),
	)
	objects.link("A", "B")
	objects.link("B", "C")
	uc := NewHierarchyUsecase(objects, newMockReleased())

	if err := uc.PropagateDateToParents(context.Background(), "C", "1800000000000"); err != nil {
		t.Fatalf("propagation failed: %v", err)
	}
	if objects.objects["B"].Date != "1800000000000" {
		t.Fatalf("B date not propagated: %s", objects.objects["B"].Date)
	}
	if objects.objects["A"].Date != "1800000000000" {
		t.Fatalf("A date not propagated: %s", objects.objects["A"].Date)
	}
	if objects.objects["C"].Date == "1800000000000" {
		t.Fatalf("propagation must not touch the starting object")
	}
}

func TestPropagateDateDiamond(t *testing.T) {
	// A has children B and C, both have child D: two paths from D to A.
	objects := newMockObjects(
		submittableObject("A", "kira", domain.StatusUnreleased),
		submittableObject("B", "kira", domain.StatusUnreleased),
		submittableObject("C", "kira", domain.StatusUnreleased),
		submittableObject("D", "kira", domain.StatusUnreleased),
	)
	objects.link("A", "B")
	objects.link("A", "C")
	objects.link("B", "D")
	objects.link("C", "D")
	uc := NewHierarchyUsecase(objects, newMockReleased())

	if err := uc.PropagateDateToParents(context.Background(), "D", "1800000000000"); err != nil {
		t.Fatalf("propagation failed: %v", err)
	}

	visited := map[string]int{}
	for _, level := range objects.editedMany {
		for _, id := range level {
			visited[id]++
		}
	}
	if visited["A"] != 1 {
		t.Fatalf("A must be updated exactly once, got %d", visited["A"])
	}
	if visited["B"] != 1 || visited["C"] != 1 {
		t.Fatalf("each parent must be updated exactly once: %v", visited)
	}
}

func TestPropagateTerminatesOnCycle(t *testing.T) {
	objects := newMockObjects(
		submittableObject("A", "kira", domain.StatusUnreleased),
		submittableObject("B", "kira", domain.StatusUnreleased),
	)
	// malformed: A and B are each other's parent
	objects.link("A", "B")
	objects.link("B", "A")
	uc := NewHierarchyUsecase(objects, newMockReleased())

	if err := uc.PropagateDateToParents(context.Background(), "A", "1800000000000"); err != nil {
		t.Fatalf("propagation must terminate on cycles: %v", err)
	}
}

func buildTree(objects *mockObjects, parent string, children ...string) {
	lo := objects.objects[parent]
	for _, childID := range children {
		objects.link(parent, childID)
		lo.Children = append(lo.Children, objects.objects[childID].Summary())
	}
	objects.objects[parent] = lo
}

func TestBuildHierarchy(t *testing.T) {
	objects := newMockObjects(
		submittableObject("root", "kira", domain.StatusUnreleased),
		submittableObject("mid", "kira", domain.StatusUnreleased),
		submittableObject("leaf", "kira", domain.StatusUnreleased),
	)
	buildTree(objects, "mid", "leaf")
	buildTree(objects, "root", "mid")
	uc := NewHierarchyUsecase(objects, newMockReleased())

	tree, err := uc.BuildHierarchy(context.Background(), objects.objects["root"], &lorepo.UserToken{Username: "kira"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].ID != "mid" {
		t.Fatalf("unexpected first level: %+v", tree.Children)
	}
	if len(tree.Children[0].Children) != 1 || tree.Children[0].Children[0].ID != "leaf" {
		t.Fatalf("unexpected second level: %+v", tree.Children[0].Children)
	}
}

func TestBuildHierarchyFiltersByAccess(t *testing.T) {
	root := submittableObject("root", "kira", domain.StatusReleased)
	draft := submittableObject("draft", "kira", domain.StatusUnreleased)
	public := submittableObject("public", "kira", domain.StatusReleased)
	objects := newMockObjects(root, draft, public)
	buildTree(objects, "root", "draft", "public")
	uc := NewHierarchyUsecase(objects, newMockReleased())

	// anonymous readers only see released children
	tree, err := uc.BuildHierarchy(context.Background(), objects.objects["root"], nil)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].ID != "public" {
		t.Fatalf("expected only released child, got %+v", tree.Children)
	}

	// the author sees everything
	tree, err = uc.BuildHierarchy(context.Background(), objects.objects["root"], &lorepo.UserToken{Username: "kira"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(tree.Children) != 2 {
		t.Fatalf("expected both children for author, got %+v", tree.Children)
	}
}

func TestBuildHierarchyTruncatesCycle(t *testing.T) {
	objects := newMockObjects(
		submittableObject("A", "kira", domain.StatusUnreleased),
		submittableObject("B", "kira", domain.StatusUnreleased),
	)
	buildTree(objects, "A", "B")
	buildTree(objects, "B", "A")
	uc := NewHierarchyUsecase(objects, newMockReleased())

	tree, err := uc.BuildHierarchy(context.Background(), objects.objects["A"], &lorepo.UserToken{Username: "kira"})
	if err != nil {
		t.Fatalf("cycle must truncate, not fail: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].ID != "B" {
		t.Fatalf("unexpected children: %+v", tree.Children)
	}
	if len(tree.Children[0].Children) != 0 {
		t.Fatalf("cycle must be truncated at the repeat visit")
	}
}

func TestBuildHierarchyDepthLimit(t *testing.T) {
	var all []domain.LearningObject
	for i := 0; i <= MaxHierarchyDepth+1; i++ {
		all = append(all, submittableObject(fmt.Sprintf("N%d", i), "kira", domain.StatusUnreleased))
	}
	objects := newMockObjects(all...)
	for i := 0; i <= MaxHierarchyDepth; i++ {
		buildTree(objects, fmt.Sprintf("N%d", i), fmt.Sprintf("N%d", i+1))
	}
	uc := NewHierarchyUsecase(objects, newMockReleased())

	_, err := uc.BuildHierarchy(context.Background(), objects.objects["N0"], &lorepo.UserToken{Username: "kira"})
	if !errors.Is(err, domain.ErrBadRequest) {
		t.Fatalf("expected depth limit error, got %v", err)
	}
}

func TestUpdateLastModified(t *testing.T) {
	objects := newMockObjects(
		submittableObject("A", "kira", domain.StatusUnreleased),
		submittableObject("B", "kira", domain.StatusUnreleased),
	)
	objects.link("A", "B")
	uc := NewHierarchyUsecase(objects, newMockReleased())

	if err := uc.UpdateLastModified(context.Background(), "B", "1800000000000"); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if objects.objects["B"].Date != "1800000000000" {
		t.Fatalf("edited object date not set")
	}
	if objects.objects["A"].Date != "1800000000000" {
		t.Fatalf("parent date not propagated")
	}
}

func TestFetchHierarchy(t *testing.T) {
	objects := newMockObjects(
		submittableObject("root", "kira", domain.StatusReleased),
		submittableObject("leaf", "kira", domain.StatusReleased),
	)
	buildTree(objects, "root", "leaf")
	uc := NewHierarchyUsecase(objects, newMockReleased())

	tree, err := uc.FetchHierarchy(context.Background(), "root", nil)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if tree.ID != "root" || len(tree.Children) != 1 || tree.Children[0].ID != "leaf" {
		t.Fatalf("unexpected tree: %+v", tree)
	}
}

func TestFetchHierarchyHidesDraftsFromPublic(t *testing.T) {
	objects := newMockObjects(
		submittableObject("draft", "kira", domain.StatusUnreleased),
	)
	uc := NewHierarchyUsecase(objects, newMockReleased())

	_, err := uc.FetchHierarchy(context.Background(), "draft", nil)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for public reader, got %v", err)
	}

	// the author still reads their own draft
	tree, err := uc.FetchHierarchy(context.Background(), "draft", &lorepo.UserToken{Username: "kira"})
	if err != nil {
		t.Fatalf("author fetch failed: %v", err)
	}
	if tree.ID != "draft" {
		t.Fatalf("unexpected tree: %+v", tree)
	}
}

func TestBuildHierarchyMaterializesGrandchildren(t *testing.T) {
	// Only edges exist; no object carries embedded child summaries, which is
	// what a partial fetch from the store returns.
	objects := newMockObjects(
		submittableObject("root", "kira", domain.StatusUnreleased),
		submittableObject("mid", "kira", domain.StatusUnreleased),
		submittableObject("leaf", "kira", domain.StatusUnreleased),
	)
	objects.link("root", "mid")
	objects.link("mid", "leaf")
	uc := NewHierarchyUsecase(objects, newMockReleased())

	tree, err := uc.BuildHierarchy(context.Background(), objects.objects["root"], &lorepo.UserToken{Username: "kira"})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if len(tree.Children) != 1 || tree.Children[0].ID != "mid" {
		t.Fatalf("unexpected first level: %+v", tree.Children)
	}
	mid := tree.Children[0]
	if len(mid.Children) != 1 || mid.Children[0].ID != "leaf" {
		t.Fatalf("grandchild dropped: mid has %d children, want 1", len(mid.Children))
	}
}
