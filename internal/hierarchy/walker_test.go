package hierarchy

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ram/internal/domain/query"
	"ram/internal/domain/ram"
	"ram/internal/errs"
)

type fakeNode struct {
	id     string
	parent string
	run    string
	status string
	start  time.Time
}

func (n fakeNode) NodeID() string       { return n.id }
func (n fakeNode) ParentNodeID() string { return n.parent }

func (n fakeNode) Value(field query.Field) (any, bool) {
	switch field {
	case query.FieldID:
		return n.id, true
	case query.FieldParentID:
		return n.parent, true
	case query.FieldTestRunID:
		return n.run, true
	case query.FieldTestingStatus:
		return n.status, true
	case query.FieldStartDate:
		return n.start, true
	default:
		return nil, false
	}
}

type fakeStore struct {
	nodes      []fakeNode
	gets       int
	childCalls int
}

func (s *fakeStore) source() Source[fakeNode] {
	return Source[fakeNode]{
		Kind: "fake",
		Get: func(_ context.Context, id string) (fakeNode, error) {
			s.gets++
			for _, n := range s.nodes {
				if n.id == id {
					return n, nil
				}
			}
			return fakeNode{}, ram.ErrNotFound
		},
		GetMany: func(_ context.Context, ids []string) ([]fakeNode, error) {
			var out []fakeNode
			for _, n := range s.nodes {
				if slices.Contains(ids, n.id) {
					out = append(out, n)
				}
			}
			return out, nil
		},
		Children: func(_ context.Context, parentIDs []string, restrict query.Criterion) ([]fakeNode, error) {
			s.childCalls++
			var out []fakeNode
			for _, n := range s.nodes {
				if !slices.Contains(parentIDs, n.parent) {
					continue
				}
				ok, err := query.Match(restrict, n)
				if err != nil {
					return nil, err
				}
				if ok {
					out = append(out, n)
				}
			}
			return out, nil
		},
	}
}

type memoryCache struct {
	values map[string]string
}

func (c *memoryCache) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := c.values[key]
	return v, ok, nil
}

func (c *memoryCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	c.values[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.values, key)
	return nil
}

func (c *memoryCache) DeletePrefix(_ context.Context, prefix string) (int64, error) {
	var n int64
	for key := range c.values {
		if strings.HasPrefix(key, prefix) {
			delete(c.values, key)
			n++
		}
	}
	return n, nil
}

func visitIDs(visits []Visit[fakeNode]) []string {
	out := make([]string, len(visits))
	for i, v := range visits {
		out[i] = v.Node.id
	}
	return out
}

func chain(ids ...string) []fakeNode {
	nodes := make([]fakeNode, len(ids))
	for i, id := range ids {
		nodes[i] = fakeNode{id: id, status: "PASSED", run: "tr-1"}
		if i > 0 {
			nodes[i].parent = ids[i-1]
		}
	}
	return nodes
}

func TestDescendantsReturnsWholeSubtreeBreadthFirst(t *testing.T) {
	store := &fakeStore{nodes: []fakeNode{
		{id: "root"},
		{id: "a", parent: "root"},
		{id: "b", parent: "root"},
		{id: "a1", parent: "a"},
		{id: "b1", parent: "b"},
		{id: "a1x", parent: "a1"},
		{id: "other"},
	}}
	w := NewWalker(store.source(), Options{})

	got, err := w.Descendants(context.Background(), "root", DescendantQuery{})
	if err != nil {
		t.Fatalf("Descendants() error = %v", err)
	}
	want := []string{"a", "b", "a1", "b1", "a1x"}
	if diff := cmp.Diff(want, visitIDs(got)); diff != "" {
		t.Fatalf("Descendants() mismatch (-want +got):\n%s", diff)
	}
	if store.childCalls != 4 {
		t.Fatalf("Children calls = %d, want one per level (4)", store.childCalls)
	}
}

func TestDescendantsRestrictionPrunesBranch(t *testing.T) {
	store := &fakeStore{nodes: []fakeNode{
		{id: "A", status: "PASSED"},
		{id: "B", parent: "A", status: "FAILED"},
		{id: "C", parent: "B", status: "PASSED"},
		{id: "D", parent: "A", status: "PASSED"},
	}}
	w := NewWalker(store.source(), Options{})

	got, err := w.Descendants(context.Background(), "A", DescendantQuery{
		Restrict: query.Eq(query.FieldTestingStatus, "PASSED"),
	})
	if err != nil {
		t.Fatalf("Descendants() error = %v", err)
	}
	if diff := cmp.Diff([]string{"D"}, visitIDs(got)); diff != "" {
		t.Fatalf("Descendants() mismatch (-want +got):\n%s", diff)
	}
}

func TestDescendantsDepthTagging(t *testing.T) {
	store := &fakeStore{nodes: chain("n0", "n1", "n2", "n3", "n4")}
	w := NewWalker(store.source(), Options{})

	got, err := w.Descendants(context.Background(), "n0", DescendantQuery{IncludeStart: true})
	if err != nil {
		t.Fatalf("Descendants() error = %v", err)
	}
	if len(got) != 5 {
		t.Fatalf("Descendants() len = %d, want 5", len(got))
	}
	for i, v := range got {
		if v.Depth != i {
			t.Fatalf("depth of %s = %d, want %d", v.Node.id, v.Depth, i)
		}
	}
}

func TestDescendantsIncludeStartHonorsRestriction(t *testing.T) {
	store := &fakeStore{nodes: []fakeNode{
		{id: "s", status: "FAILED"},
		{id: "c", parent: "s", status: "PASSED"},
	}}
	w := NewWalker(store.source(), Options{})

	got, err := w.Descendants(context.Background(), "s", DescendantQuery{
		Restrict:     query.Eq(query.FieldTestingStatus, "PASSED"),
		IncludeStart: true,
	})
	if err != nil {
		t.Fatalf("Descendants() error = %v", err)
	}
	if diff := cmp.Diff([]string{"c"}, visitIDs(got)); diff != "" {
		t.Fatalf("Descendants() mismatch (-want +got):\n%s", diff)
	}
}

func TestDescendantsDetectsCycle(t *testing.T) {
	store := &fakeStore{nodes: []fakeNode{
		{id: "x", parent: "z"},
		{id: "y", parent: "x"},
		{id: "z", parent: "y"},
	}}
	w := NewWalker(store.source(), Options{})

	_, err := w.Descendants(context.Background(), "x", DescendantQuery{})
	if !errors.Is(err, ram.ErrCorruptHierarchy) {
		t.Fatalf("Descendants() error = %v, want ErrCorruptHierarchy", err)
	}
	if stage, ok := errs.StageOf(err); !ok || stage != errs.StageTraversal {
		t.Fatalf("StageOf() = %q, %v", stage, ok)
	}
}

func TestDescendantsMaxDepth(t *testing.T) {
	store := &fakeStore{nodes: chain("n0", "n1", "n2", "n3")}
	w := NewWalker(store.source(), Options{MaxDepth: 2})

	_, err := w.Descendants(context.Background(), "n0", DescendantQuery{})
	if !errors.Is(err, ram.ErrCorruptHierarchy) {
		t.Fatalf("Descendants() error = %v, want ErrCorruptHierarchy", err)
	}
}

func TestDescendantsChunksLargeFrontier(t *testing.T) {
	nodes := []fakeNode{{id: "root"}}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		nodes = append(nodes, fakeNode{id: id, parent: "root"}, fakeNode{id: id + "1", parent: id})
	}
	store := &fakeStore{nodes: nodes}
	w := NewWalker(store.source(), Options{FrontierChunk: 2})

	got, err := w.Descendants(context.Background(), "root", DescendantQuery{})
	if err != nil {
		t.Fatalf("Descendants() error = %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("Descendants() len = %d, want 10", len(got))
	}
	// levels: root (1 call), five children in chunks of two (3 calls), five leaves (3 calls)
	if store.childCalls != 7 {
		t.Fatalf("Children calls = %d, want 7", store.childCalls)
	}
}

func TestDescendantsUnknownStart(t *testing.T) {
	w := NewWalker((&fakeStore{}).source(), Options{})
	_, err := w.Descendants(context.Background(), "missing", DescendantQuery{})
	if !errors.Is(err, ram.ErrNotFound) {
		t.Fatalf("Descendants() error = %v, want ErrNotFound", err)
	}
}

func TestDescendantsRejectsInvalidRestriction(t *testing.T) {
	w := NewWalker((&fakeStore{nodes: chain("n0")}).source(), Options{})
	_, err := w.Descendants(context.Background(), "n0", DescendantQuery{Restrict: query.In(query.FieldTestingStatus)})
	if !errors.Is(err, ram.ErrInvalidFilter) {
		t.Fatalf("Descendants() error = %v, want ErrInvalidFilter", err)
	}
	if stage, _ := errs.StageOf(err); stage != errs.StageFilterBuild {
		t.Fatalf("StageOf() = %q, want filter-build", stage)
	}
}

func TestAncestorsDirectParentFirst(t *testing.T) {
	store := &fakeStore{nodes: chain("n0", "n1", "n2", "n3")}
	w := NewWalker(store.source(), Options{})

	got, err := w.Ancestors(context.Background(), "n3", AncestorQuery{})
	if err != nil {
		t.Fatalf("Ancestors() error = %v", err)
	}
	if diff := cmp.Diff([]string{"n2", "n1", "n0"}, visitIDs(got)); diff != "" {
		t.Fatalf("Ancestors() mismatch (-want +got):\n%s", diff)
	}
	if got[0].Depth != 1 || got[2].Depth != 3 {
		t.Fatalf("Ancestors() depths = %d..%d", got[0].Depth, got[2].Depth)
	}
}

func TestAncestorsStopAtScopeBoundary(t *testing.T) {
	store := &fakeStore{nodes: []fakeNode{
		{id: "foreign", run: "tr-0"},
		{id: "p", parent: "foreign", run: "tr-1"},
		{id: "c", parent: "p", run: "tr-1"},
	}}
	w := NewWalker(store.source(), Options{})

	got, err := w.Ancestors(context.Background(), "c", AncestorQuery{Within: query.Eq(query.FieldTestRunID, "tr-1")})
	if err != nil {
		t.Fatalf("Ancestors() error = %v", err)
	}
	if diff := cmp.Diff([]string{"p"}, visitIDs(got)); diff != "" {
		t.Fatalf("Ancestors() mismatch (-want +got):\n%s", diff)
	}
}

func TestAncestorsDanglingParentEndsChain(t *testing.T) {
	store := &fakeStore{nodes: []fakeNode{
		{id: "p", parent: "gone"},
		{id: "c", parent: "p"},
	}}
	w := NewWalker(store.source(), Options{})

	got, err := w.Ancestors(context.Background(), "c", AncestorQuery{})
	if err != nil {
		t.Fatalf("Ancestors() error = %v", err)
	}
	if diff := cmp.Diff([]string{"p"}, visitIDs(got)); diff != "" {
		t.Fatalf("Ancestors() mismatch (-want +got):\n%s", diff)
	}
}

func TestAncestorsDetectsCycle(t *testing.T) {
	store := &fakeStore{nodes: []fakeNode{
		{id: "a", parent: "b"},
		{id: "b", parent: "a"},
	}}
	w := NewWalker(store.source(), Options{})

	if _, err := w.Ancestors(context.Background(), "a", AncestorQuery{}); !errors.Is(err, ram.ErrCorruptHierarchy) {
		t.Fatalf("Ancestors() error = %v, want ErrCorruptHierarchy", err)
	}
}

func TestAncestorsUsesCache(t *testing.T) {
	store := &fakeStore{nodes: chain("n0", "n1", "n2")}
	cache := &memoryCache{values: map[string]string{}}
	w := NewWalker(store.source(), Options{Cache: cache})

	first, err := w.Ancestors(context.Background(), "n2", AncestorQuery{})
	if err != nil {
		t.Fatalf("Ancestors() error = %v", err)
	}
	if got := cache.values["ancestors:fake:n2"]; got != `["n1","n0"]` {
		t.Fatalf("cached chain = %q", got)
	}

	getsBefore := store.gets
	second, err := w.Ancestors(context.Background(), "n2", AncestorQuery{})
	if err != nil {
		t.Fatalf("Ancestors() error = %v", err)
	}
	if store.gets != getsBefore {
		t.Fatalf("cached walk issued %d Get calls", store.gets-getsBefore)
	}
	if diff := cmp.Diff(visitIDs(first), visitIDs(second)); diff != "" {
		t.Fatalf("cached chain mismatch (-first +second):\n%s", diff)
	}
}

func TestAncestorsDanglingChainIsNotCached(t *testing.T) {
	store := &fakeStore{nodes: []fakeNode{{id: "c", parent: "p"}}}
	cache := &memoryCache{values: map[string]string{}}
	w := NewWalker(store.source(), Options{Cache: cache})

	got, err := w.Ancestors(context.Background(), "c", AncestorQuery{})
	if err != nil || len(got) != 0 {
		t.Fatalf("Ancestors() = %v, %v; want empty chain", visitIDs(got), err)
	}
	if _, ok := cache.values["ancestors:fake:c"]; ok {
		t.Fatalf("chain ending at a missing parent was cached")
	}

	store.nodes = append(store.nodes, fakeNode{id: "p"})
	got, err = w.Ancestors(context.Background(), "c", AncestorQuery{})
	if err != nil {
		t.Fatalf("Ancestors() error = %v", err)
	}
	if diff := cmp.Diff([]string{"p"}, visitIDs(got)); diff != "" {
		t.Fatalf("Ancestors() after parent arrived mismatch (-want +got):\n%s", diff)
	}
}

func TestInvalidateAncestorsForgetsMovedParent(t *testing.T) {
	store := &fakeStore{nodes: chain("n0", "n1", "n2")}
	cache := &memoryCache{values: map[string]string{"ancestors:other:x": `[]`}}
	w := NewWalker(store.source(), Options{Cache: cache})

	if _, err := w.Ancestors(context.Background(), "n2", AncestorQuery{}); err != nil {
		t.Fatalf("Ancestors() error = %v", err)
	}
	store.nodes[2].parent = "n0"
	if err := w.InvalidateAncestors(context.Background()); err != nil {
		t.Fatalf("InvalidateAncestors() error = %v", err)
	}
	if _, ok := cache.values["ancestors:other:x"]; !ok {
		t.Fatalf("InvalidateAncestors() removed another kind's entry")
	}

	got, err := w.Ancestors(context.Background(), "n2", AncestorQuery{})
	if err != nil {
		t.Fatalf("Ancestors() error = %v", err)
	}
	if diff := cmp.Diff([]string{"n0"}, visitIDs(got)); diff != "" {
		t.Fatalf("Ancestors() after move mismatch (-want +got):\n%s", diff)
	}
}

func TestHasDescendantMatchingShortCircuits(t *testing.T) {
	store := &fakeStore{nodes: []fakeNode{
		{id: "r", status: "PASSED"},
		{id: "a", parent: "r", status: "PASSED"},
		{id: "b", parent: "a", status: "FAILED"},
		{id: "c", parent: "b", status: "PASSED"},
	}}
	w := NewWalker(store.source(), Options{})

	found, err := w.HasDescendantMatching(context.Background(), "r", query.Eq(query.FieldTestingStatus, "FAILED"))
	if err != nil {
		t.Fatalf("HasDescendantMatching() error = %v", err)
	}
	if !found {
		t.Fatalf("HasDescendantMatching() = false, want true")
	}
	if store.childCalls != 2 {
		t.Fatalf("Children calls = %d, want 2", store.childCalls)
	}

	found, err = w.HasDescendantMatching(context.Background(), "b", query.Eq(query.FieldTestingStatus, "FAILED"))
	if err != nil || found {
		t.Fatalf("HasDescendantMatching(b) = %v, %v", found, err)
	}
}

func TestAllAncestorsSatisfy(t *testing.T) {
	store := &fakeStore{nodes: []fakeNode{
		{id: "r", status: "PASSED"},
		{id: "a", parent: "r", status: "PASSED"},
		{id: "b", parent: "a", status: "FAILED"},
		{id: "c", parent: "b", status: "PASSED"},
	}}
	w := NewWalker(store.source(), Options{})
	passed := query.Eq(query.FieldTestingStatus, "PASSED")

	cases := map[string]bool{"r": true, "b": true, "c": false}
	for id, want := range cases {
		got, err := w.AllAncestorsSatisfy(context.Background(), id, passed)
		if err != nil {
			t.Fatalf("AllAncestorsSatisfy(%s) error = %v", id, err)
		}
		if got != want {
			t.Fatalf("AllAncestorsSatisfy(%s) = %v, want %v", id, got, want)
		}
	}
}

func TestDeepestDescendant(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := &fakeStore{nodes: []fakeNode{
		{id: "r", status: "PASSED"},
		{id: "a", parent: "r", status: "FAILED", start: t0},
		{id: "a1", parent: "a", status: "FAILED", start: t0.Add(2 * time.Minute)},
		{id: "b", parent: "r", status: "PASSED"},
		{id: "b1", parent: "b", status: "FAILED", start: t0.Add(time.Minute)},
	}}
	w := NewWalker(store.source(), Options{})

	got, ok, err := w.DeepestDescendant(context.Background(), "r", DescendantQuery{IncludeStart: true}, query.Eq(query.FieldTestingStatus, "FAILED"))
	if err != nil {
		t.Fatalf("DeepestDescendant() error = %v", err)
	}
	if !ok || got.Node.id != "b1" || got.Depth != 2 {
		t.Fatalf("DeepestDescendant() = %+v, %v", got, ok)
	}

	_, ok, err = w.DeepestDescendant(context.Background(), "b1", DescendantQuery{}, query.Eq(query.FieldTestingStatus, "FAILED"))
	if err != nil || ok {
		t.Fatalf("DeepestDescendant(leaf) = %v, %v", ok, err)
	}
}
