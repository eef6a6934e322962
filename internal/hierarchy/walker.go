// Package hierarchy walks parent/child trees stored as flat rows with a
// parent pointer. A walk loads one level per store round trip, so the cost
// of a traversal is bounded by the depth of the tree, not by its size.
package hierarchy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ram/internal/bootstrap/logging"
	"ram/internal/domain/query"
	"ram/internal/domain/ram"
	"ram/internal/errs"
	"ram/internal/ports"
)

const (
	DefaultMaxDepth      = 256
	DefaultFrontierChunk = 500
)

// Node is a tree element. ParentNodeID is empty for roots.
type Node interface {
	query.Record
	NodeID() string
	ParentNodeID() string
}

// Source is the store access a Walker needs for one node kind.
type Source[N Node] struct {
	// Kind names the hierarchy in logs and cache keys.
	Kind string
	Get  func(ctx context.Context, id string) (N, error)
	// GetMany returns the nodes with the given ids in any order.
	GetMany func(ctx context.Context, ids []string) ([]N, error)
	// Children returns the direct children of parentIDs matching restrict,
	// in store order.
	Children func(ctx context.Context, parentIDs []string, restrict query.Criterion) ([]N, error)
}

type Options struct {
	MaxDepth      int
	FrontierChunk int
	// Cache holds ancestor id chains when set. Parent pointers never
	// change, so entries stay valid for the life of a node.
	Cache    ports.Cache
	CacheTTL time.Duration
}

type Walker[N Node] struct {
	src  Source[N]
	opts Options
}

func NewWalker[N Node](src Source[N], opts Options) *Walker[N] {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.FrontierChunk <= 0 {
		opts.FrontierChunk = DefaultFrontierChunk
	}
	return &Walker[N]{src: src, opts: opts}
}

// Visit is a node reached by a walk and its distance in edges from the
// start node.
type Visit[N Node] struct {
	Node  N
	Depth int
}

type DescendantQuery struct {
	// Restrict is applied while expanding: a node that does not match is
	// left out together with its subtree.
	Restrict query.Criterion
	// IncludeStart reports the start node at depth 0 when it matches Restrict.
	IncludeStart bool
}

type AncestorQuery struct {
	// Within stops the walk below the first ancestor that does not match.
	Within query.Criterion
}

// Descendants returns the subtree below startID breadth first. Nodes of one
// depth keep the order the store returned them in.
func (w *Walker[N]) Descendants(ctx context.Context, startID string, q DescendantQuery) ([]Visit[N], error) {
	var out []Visit[N]
	err := w.walkDown(ctx, startID, q, func(v Visit[N]) (bool, error) {
		out = append(out, v)
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// HasDescendantMatching reports whether any node below startID matches
// predicate. The walk is unrestricted and stops at the first match.
func (w *Walker[N]) HasDescendantMatching(ctx context.Context, startID string, predicate query.Criterion) (bool, error) {
	if err := validate(predicate); err != nil {
		return false, err
	}
	found := false
	err := w.walkDown(ctx, startID, DescendantQuery{}, func(v Visit[N]) (bool, error) {
		ok, err := query.Match(predicate, v.Node)
		if err != nil {
			return false, errs.Staged(errs.StageFilterBuild, err)
		}
		found = ok
		return ok, nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// DeepestDescendant returns the matching node with the largest depth.
// Among equally deep candidates the earliest start date wins, then walk
// order.
func (w *Walker[N]) DeepestDescendant(ctx context.Context, startID string, q DescendantQuery, predicate query.Criterion) (Visit[N], bool, error) {
	if err := validate(predicate); err != nil {
		return Visit[N]{}, false, err
	}
	var (
		best  Visit[N]
		found bool
	)
	err := w.walkDown(ctx, startID, q, func(v Visit[N]) (bool, error) {
		ok, err := query.Match(predicate, v.Node)
		if err != nil {
			return false, errs.Staged(errs.StageFilterBuild, err)
		}
		if !ok {
			return false, nil
		}
		if !found || v.Depth > best.Depth || (v.Depth == best.Depth && startsBefore(v.Node, best.Node)) {
			best, found = v, true
		}
		return false, nil
	})
	if err != nil {
		return Visit[N]{}, false, err
	}
	return best, found, nil
}

// Ancestors returns the chain above startID, direct parent first at depth 1.
// A parent id that no longer resolves ends the chain.
func (w *Walker[N]) Ancestors(ctx context.Context, startID string, q AncestorQuery) ([]Visit[N], error) {
	if err := validate(q.Within); err != nil {
		return nil, err
	}
	ctx = w.logContext(ctx, startID)

	chain, err := w.ancestorChain(ctx, startID)
	if err != nil {
		return nil, err
	}

	out := make([]Visit[N], 0, len(chain))
	for i, node := range chain {
		if !q.Within.IsZero() {
			ok, err := query.Match(q.Within, node)
			if err != nil {
				return nil, errs.Staged(errs.StageFilterBuild, err)
			}
			if !ok {
				break
			}
		}
		out = append(out, Visit[N]{Node: node, Depth: i + 1})
	}
	return out, nil
}

// AllAncestorsSatisfy reports whether every ancestor of startID matches
// predicate. It is true for a root.
func (w *Walker[N]) AllAncestorsSatisfy(ctx context.Context, startID string, predicate query.Criterion) (bool, error) {
	if err := validate(predicate); err != nil {
		return false, err
	}
	ancestors, err := w.Ancestors(ctx, startID, AncestorQuery{})
	if err != nil {
		return false, err
	}
	for _, a := range ancestors {
		ok, err := query.Match(predicate, a.Node)
		if err != nil {
			return false, errs.Staged(errs.StageFilterBuild, err)
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// walkDown feeds visit with every reached node until visit asks to stop.
func (w *Walker[N]) walkDown(ctx context.Context, startID string, q DescendantQuery, visit func(Visit[N]) (stop bool, err error)) error {
	if err := validate(q.Restrict); err != nil {
		return err
	}
	ctx = w.logContext(ctx, startID)

	start, err := w.src.Get(ctx, startID)
	if err != nil {
		return errs.Staged(errs.StageTraversal, errs.Wrapf(err, "get %s %s", w.src.Kind, startID))
	}

	if q.IncludeStart {
		ok, err := query.Match(q.Restrict, start)
		if err != nil {
			return errs.Staged(errs.StageFilterBuild, err)
		}
		if ok {
			stop, err := visit(Visit[N]{Node: start, Depth: 0})
			if err != nil || stop {
				return err
			}
		}
	}

	visited := map[string]struct{}{startID: {}}
	frontier := []string{startID}
	for depth := 1; len(frontier) > 0; depth++ {
		children, err := w.children(ctx, frontier, q.Restrict)
		if err != nil {
			return errs.Staged(errs.StageTraversal, errs.Wrapf(err, "expand %s level %d", w.src.Kind, depth))
		}
		if len(children) > 0 && depth > w.opts.MaxDepth {
			return w.corrupt(ctx, startID, fmt.Errorf("%w: %s %s is deeper than %d levels", ram.ErrCorruptHierarchy, w.src.Kind, startID, w.opts.MaxDepth))
		}

		next := make([]string, 0, len(children))
		for _, child := range children {
			id := child.NodeID()
			if _, seen := visited[id]; seen {
				return w.corrupt(ctx, startID, fmt.Errorf("%w: %s %s reached twice below %s", ram.ErrCorruptHierarchy, w.src.Kind, id, startID))
			}
			visited[id] = struct{}{}

			stop, err := visit(Visit[N]{Node: child, Depth: depth})
			if err != nil || stop {
				return err
			}
			next = append(next, id)
		}
		frontier = next
	}
	return nil
}

func (w *Walker[N]) children(ctx context.Context, parentIDs []string, restrict query.Criterion) ([]N, error) {
	if len(parentIDs) <= w.opts.FrontierChunk {
		return w.src.Children(ctx, parentIDs, restrict)
	}
	var out []N
	for start := 0; start < len(parentIDs); start += w.opts.FrontierChunk {
		end := min(start+w.opts.FrontierChunk, len(parentIDs))
		batch, err := w.src.Children(ctx, parentIDs[start:end], restrict)
		if err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (w *Walker[N]) ancestorChain(ctx context.Context, startID string) ([]N, error) {
	if chain, ok := w.cachedChain(ctx, startID); ok {
		return chain, nil
	}

	start, err := w.src.Get(ctx, startID)
	if err != nil {
		return nil, errs.Staged(errs.StageTraversal, errs.Wrapf(err, "get %s %s", w.src.Kind, startID))
	}

	visited := map[string]struct{}{startID: {}}
	var chain []N
	complete := true
	for parentID := start.ParentNodeID(); parentID != ""; {
		if len(chain) >= w.opts.MaxDepth {
			return nil, w.corrupt(ctx, startID, fmt.Errorf("%w: %s %s has more than %d ancestors", ram.ErrCorruptHierarchy, w.src.Kind, startID, w.opts.MaxDepth))
		}
		if _, seen := visited[parentID]; seen {
			return nil, w.corrupt(ctx, startID, fmt.Errorf("%w: %s %s is its own ancestor", ram.ErrCorruptHierarchy, w.src.Kind, parentID))
		}
		visited[parentID] = struct{}{}

		parent, err := w.src.Get(ctx, parentID)
		if errors.Is(err, ram.ErrNotFound) {
			logging.Warn(ctx, "dangling parent reference", slog.String("parent_id", parentID))
			complete = false
			break
		}
		if err != nil {
			return nil, errs.Staged(errs.StageTraversal, errs.Wrapf(err, "get %s %s", w.src.Kind, parentID))
		}
		chain = append(chain, parent)
		parentID = parent.ParentNodeID()
	}

	// A chain cut short by a missing parent may grow once the parent arrives.
	if complete {
		w.storeChain(ctx, startID, chain)
	}
	return chain, nil
}

// InvalidateAncestors drops every cached ancestor chain of this walker's
// node kind. Writers that may move or add nodes call it in the same
// transaction as the write.
func (w *Walker[N]) InvalidateAncestors(ctx context.Context) error {
	if w.opts.Cache == nil {
		return nil
	}
	removed, err := w.opts.Cache.DeletePrefix(ctx, w.cachePrefix())
	if err != nil {
		return errs.Wrapf(err, "invalidate %s ancestor cache", w.src.Kind)
	}
	if removed > 0 {
		logging.Info(ctx, "ancestor cache invalidated", slog.String("kind", w.src.Kind), slog.Int64("entries", removed))
	}
	return nil
}

func (w *Walker[N]) cachePrefix() string {
	return "ancestors:" + w.src.Kind + ":"
}

func (w *Walker[N]) cacheKey(id string) string {
	return w.cachePrefix() + id
}

func (w *Walker[N]) cachedChain(ctx context.Context, startID string) ([]N, bool) {
	if w.opts.Cache == nil || w.src.GetMany == nil {
		return nil, false
	}
	raw, found, err := w.opts.Cache.Get(ctx, w.cacheKey(startID))
	if err != nil {
		logging.Warn(ctx, "read ancestor cache failed", slog.Any("err", errs.Loggable(err)))
		return nil, false
	}
	if !found {
		return nil, false
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		logging.Warn(ctx, "decode ancestor cache failed", slog.Any("err", errs.Loggable(err)))
		return nil, false
	}
	if len(ids) == 0 {
		return nil, true
	}

	nodes, err := w.src.GetMany(ctx, ids)
	if err != nil {
		logging.Warn(ctx, "load cached ancestors failed", slog.Any("err", errs.Loggable(err)))
		return nil, false
	}
	byID := make(map[string]N, len(nodes))
	for _, n := range nodes {
		byID[n.NodeID()] = n
	}
	chain := make([]N, 0, len(ids))
	for _, id := range ids {
		n, ok := byID[id]
		if !ok {
			return nil, false
		}
		chain = append(chain, n)
	}
	return chain, true
}

func (w *Walker[N]) storeChain(ctx context.Context, startID string, chain []N) {
	if w.opts.Cache == nil {
		return
	}
	ids := make([]string, len(chain))
	for i, n := range chain {
		ids[i] = n.NodeID()
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return
	}
	if err := w.opts.Cache.Set(ctx, w.cacheKey(startID), string(raw), w.opts.CacheTTL); err != nil {
		logging.Warn(ctx, "write ancestor cache failed", slog.Any("err", errs.Loggable(err)))
	}
}

func (w *Walker[N]) corrupt(ctx context.Context, startID string, err error) error {
	err = errs.Staged(errs.StageTraversal, errs.WithStack(err))
	logging.Error(ctx, "corrupt hierarchy", slog.String("start_id", startID), slog.Any("err", errs.Loggable(err)))
	return err
}

func (w *Walker[N]) logContext(ctx context.Context, startID string) context.Context {
	return logging.WithAttrs(ctx,
		slog.String("component", "hierarchy"),
		slog.String("kind", w.src.Kind),
		slog.String("start_id", startID),
	)
}

func validate(c query.Criterion) error {
	if c.IsZero() {
		return nil
	}
	return errs.Staged(errs.StageFilterBuild, c.Validate())
}

func startsBefore(a, b query.Record) bool {
	av, _ := a.Value(query.FieldStartDate)
	bv, _ := b.Value(query.FieldStartDate)
	at, aok := av.(time.Time)
	bt, bok := bv.(time.Time)
	if !aok || at.IsZero() {
		return false
	}
	if !bok || bt.IsZero() {
		return true
	}
	return at.Before(bt)
}
