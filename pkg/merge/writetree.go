// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/antgroup/hugescm/modules/plumbing/filemode"
	"github.com/antgroup/hugescm/modules/zeta/object"
)

// ErrIndexHasConflicts is returned by WriteTree when the index still
// carries stage 1..3 entries for some path (§4.E step 6 "try to write
// the index as a tree").
var ErrIndexHasConflicts = fmt.Errorf("merge: index has unmerged entries")

// WriteTree rebuilds the tree object graph for every stage-0 entry in
// idx and returns the root OID, failing if any path remains
// unresolved. Grounded on pkg/zeta/odb/tree.go's treeMaker: entries
// are grouped by directory bottom-up, then encoded and hashed via the
// store (§1's write-tree collaborator).
func WriteTree(ctx context.Context, store Store, idx *Index) (OID, error) {
	for _, p := range idx.Paths() {
		if idx.Unresolved(p) {
			return ZeroOID, fmt.Errorf("%w: %s", ErrIndexHasConflicts, p)
		}
	}
	trees := map[string]*object.Tree{"": {}}
	for _, p := range idx.Paths() {
		e, ok := idx.Get(p, StageMerged)
		if !ok {
			continue
		}
		makeRecursiveTrees(trees, p, e.Mode, e.OID)
	}
	return writeTreeRecursive(store, "", trees, trees[""])
}

func makeRecursiveTrees(trees map[string]*object.Tree, fullPath string, mode FileMode, oid OID) {
	parts := strings.Split(fullPath, "/")
	var cur string
	for i, part := range parts {
		parent := cur
		cur = path.Join(cur, part)
		if _, ok := trees[cur]; ok {
			continue
		}
		te := &object.TreeEntry{Name: part}
		if i == len(parts)-1 {
			te.Mode = mode
			te.Hash = oid
		} else {
			te.Mode = filemode.Dir
			trees[cur] = &object.Tree{}
		}
		trees[parent].Entries = append(trees[parent].Entries, te)
	}
}

func writeTreeRecursive(store Store, parent string, trees map[string]*object.Tree, t *object.Tree) (OID, error) {
	for i, e := range t.Entries {
		if e.Mode != filemode.Dir {
			continue
		}
		name := path.Join(parent, e.Name)
		sub, ok := trees[name]
		if !ok {
			return ZeroOID, fmt.Errorf("merge: unreachable tree entry %s", name)
		}
		oid, err := writeTreeRecursive(store, name, trees, sub)
		if err != nil {
			return ZeroOID, err
		}
		e.Hash = oid
		t.Entries[i] = e
	}
	sort.Sort(object.SubtreeOrder(t.Entries))
	return store.WriteEncoded(t)
}
