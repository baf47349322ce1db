// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/antgroup/hugescm/modules/zeta/object"
)

// leaf is a flattened (path, mode, oid) tree entry — the index-unpack
// analogue of pkg/zeta/odb's TreeEntry, minus the recursion-local
// bookkeeping that package needs for rebuilding trees.
type leaf struct {
	Path string
	Mode FileMode
	OID  OID
}

func flattenTree(ctx context.Context, store Store, parent string, t *object.Tree, out map[string]leaf) error {
	for _, e := range t.Entries {
		full := filepath.Join(parent, e.Name)
		if e.Type() != object.TreeObject {
			out[full] = leaf{Path: full, Mode: e.Mode, OID: e.Hash}
			continue
		}
		sub, err := store.Tree(ctx, e.Hash)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrUnpackFailed, full, err)
		}
		if err := flattenTree(ctx, store, full, sub, out); err != nil {
			return err
		}
	}
	return nil
}

// loadTree flattens oid's tree into a path→leaf map. The null OID
// reads as the empty tree.
func loadTree(ctx context.Context, store Store, oid OID) (map[string]leaf, error) {
	out := make(map[string]leaf)
	if oid.IsZero() {
		return out, nil
	}
	t, err := store.Tree(ctx, oid)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnpackFailed, err)
	}
	if err := flattenTree(ctx, store, "", t, out); err != nil {
		return nil, err
	}
	return out, nil
}

func unionPaths(maps ...map[string]leaf) []string {
	seen := make(map[string]struct{})
	for _, m := range maps {
		for p := range m {
			seen[p] = struct{}{}
		}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// FastForward unpacks 1, 2 or 3+ trees into idx per §4.D, overwriting
// the working tree for anything that changes. aggressive enables
// trivial auto-resolution (one side untouched, or both sides agree)
// in the 3+ case instead of leaving the path staged for the driver.
func FastForward(ctx context.Context, store Store, wt *WorkingTree, idx *Index, oids []OID, aggressive bool) error {
	trees := make([]map[string]leaf, 0, len(oids))
	for _, oid := range oids {
		t, err := loadTree(ctx, store, oid)
		if err != nil {
			return err
		}
		trees = append(trees, t)
	}
	switch len(trees) {
	case 0:
		return fmt.Errorf("%w: no trees supplied", ErrUnpackFailed)
	case 1:
		return onewayUnpack(ctx, store, wt, idx, trees[0])
	case 2:
		return twowayUnpack(ctx, store, wt, idx, trees[0], trees[1])
	default:
		base := trees[len(trees)-3]
		head := trees[len(trees)-2]
		remote := trees[len(trees)-1]
		return threewayUnpack(ctx, store, wt, idx, base, head, remote, aggressive)
	}
}

// onewayUnpack replaces the whole index with tree (§4.D "n = 1").
func onewayUnpack(ctx context.Context, store Store, wt *WorkingTree, idx *Index, tree map[string]leaf) error {
	for _, path := range unionPaths(tree) {
		l := tree[path]
		if err := idx.AddCacheinfo(l.Mode, l.OID, path); err != nil {
			return fmt.Errorf("%w: %w", ErrUnpackFailed, err)
		}
		if err := idx.Checkout(ctx, store, wt, path); err != nil {
			return fmt.Errorf("%w: %w", ErrUnpackFailed, err)
		}
	}
	return nil
}

// twowayUnpack moves the index from old to new, removing paths gone
// in new and materialising anything added or changed (§4.D "n = 2").
func twowayUnpack(ctx context.Context, store Store, wt *WorkingTree, idx *Index, old, newTree map[string]leaf) error {
	for _, path := range unionPaths(old, newTree) {
		o, hasOld := old[path]
		n, hasNew := newTree[path]
		switch {
		case !hasNew:
			idx.RemoveEntry(path)
			if err := wt.Remove(path); err != nil {
				return fmt.Errorf("%w: %w", ErrUnpackFailed, err)
			}
		case !hasOld || o.OID != n.OID || o.Mode != n.Mode:
			if err := idx.AddCacheinfo(n.Mode, n.OID, path); err != nil {
				return fmt.Errorf("%w: %w", ErrUnpackFailed, err)
			}
			if err := idx.Checkout(ctx, store, wt, path); err != nil {
				return fmt.Errorf("%w: %w", ErrUnpackFailed, err)
			}
		default:
			if err := idx.AddCacheinfo(n.Mode, n.OID, path); err != nil {
				return fmt.Errorf("%w: %w", ErrUnpackFailed, err)
			}
		}
	}
	return nil
}

// threewayUnpack populates stage 1/2/3 entries for every path touched
// by base/head/remote (§4.D "n ≥ 3"). With aggressive set, a path
// untouched on one side, or agreeing on both sides, resolves straight
// to stage 0 instead of being left for the driver.
func threewayUnpack(ctx context.Context, store Store, wt *WorkingTree, idx *Index, base, head, remote map[string]leaf, aggressive bool) error {
	for _, path := range unionPaths(base, head, remote) {
		o, hasO := base[path]
		h, hasH := head[path]
		r, hasR := remote[path]

		if aggressive {
			if resolved, l, ok := trivialThreeway(hasO, o, hasH, h, hasR, r); ok {
				if !resolved {
					idx.RemoveEntry(path)
					if err := wt.Remove(path); err != nil {
						return fmt.Errorf("%w: %w", ErrUnpackFailed, err)
					}
					continue
				}
				if err := idx.AddCacheinfo(l.Mode, l.OID, path); err != nil {
					return fmt.Errorf("%w: %w", ErrUnpackFailed, err)
				}
				if err := idx.Checkout(ctx, store, wt, path); err != nil {
					return fmt.Errorf("%w: %w", ErrUnpackFailed, err)
				}
				continue
			}
		}

		if hasO {
			idx.SetStage(path, StageBase, o.Mode, o.OID)
		}
		if hasH {
			idx.SetStage(path, StageOurs, h.Mode, h.OID)
		}
		if hasR {
			idx.SetStage(path, StageTheirs, r.Mode, r.OID)
		}
	}
	return nil
}

// trivialThreeway reports whether (o, h, r) can be resolved without a
// content merge: ok is false when the path still needs staging.
// When ok is true and resolved is false, the path is a clean deletion
// (remove from index and working tree); when resolved is true, l
// holds the winning entry.
func trivialThreeway(hasO bool, o leaf, hasH bool, h leaf, hasR bool, r leaf) (resolved bool, l leaf, ok bool) {
	switch {
	case hasH && hasR && h.OID == r.OID && h.Mode == r.Mode:
		return true, h, true
	case hasO && o.OID == h.OID && o.Mode == h.Mode:
		// head untouched: take remote's state verbatim, add or delete.
		if !hasR {
			return false, leaf{}, true
		}
		return true, r, true
	case hasO && o.OID == r.OID && o.Mode == r.Mode:
		// remote untouched: take head's state verbatim, add or delete.
		if !hasH {
			return false, leaf{}, true
		}
		return true, h, true
	case !hasO && !hasH && hasR:
		return true, r, true
	case !hasO && hasH && !hasR:
		return true, h, true
	default:
		return false, leaf{}, false
	}
}
