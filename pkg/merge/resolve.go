// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/antgroup/hugescm/pkg/tr"
)

// LoadIndexFunc reads the current on-disk index under an already-held
// lock — index I/O is the external collaborator §1 leaves out of
// scope; Resolve/Octopus only need something that returns a fresh
// in-memory snapshot.
type LoadIndexFunc func() (*Index, error)

// StrategyOptions collects the collaborators a strategy needs beyond
// the object store: where the index and its lock file live, how to
// load the current index, how to persist it back, and which text
// merge driver to run for content conflicts.
type StrategyOptions struct {
	IndexPath   string
	WorkTreeDir string
	LoadIndex   LoadIndexFunc
	Persist     PersistIndexFunc
	Driver      MergeTextDriver
}

// Result is a strategy's outcome: the resulting tree when one was
// produced, and how many paths were left conflicted.
type Result struct {
	Tree      OID
	Conflicts int
}

// Resolve performs a three-way merge of head against remote relative
// to bases, per §4.E. bases, head and remote are commit OIDs (a zero
// head or remote reads as the unborn/empty tree); Baseless merges are
// refused with exit code 2.
func Resolve(ctx context.Context, store Store, opts StrategyOptions, bases []OID, head, remote OID) (*Result, error) {
	if len(bases) == 0 {
		return nil, Refused(ErrBaseless)
	}

	lock, err := AcquireLock(opts.IndexPath)
	if err != nil {
		return nil, Refused(err)
	}
	idx, err := opts.LoadIndex()
	if err != nil {
		_ = lock.Rollback()
		return nil, Refused(err)
	}

	oids := make([]OID, 0, len(bases)+2)
	for _, b := range bases {
		tree, terr := resolveTree(ctx, store, b)
		if terr != nil {
			_ = lock.Rollback()
			return nil, Refused(terr)
		}
		oids = append(oids, tree)
	}
	headTree, err := resolveTree(ctx, store, head)
	if err != nil {
		_ = lock.Rollback()
		return nil, Refused(err)
	}
	remoteTree, err := resolveTree(ctx, store, remote)
	if err != nil {
		_ = lock.Rollback()
		return nil, Refused(err)
	}
	oids = append(oids, headTree, remoteTree)

	wt := NewWorkingTree(opts.WorkTreeDir)
	if err := FastForward(ctx, store, wt, idx, oids, true); err != nil {
		_ = lock.Rollback()
		return nil, Refused(err)
	}

	fmt.Fprintln(os.Stderr, tr.W("Trying simple merge."))

	treeOID, werr := WriteTree(ctx, store, idx)
	if werr == nil {
		if err := lock.Commit(idx, opts.Persist); err != nil {
			return nil, Refused(err)
		}
		return &Result{Tree: treeOID}, nil
	}
	if !errors.Is(werr, ErrIndexHasConflicts) {
		_ = lock.Rollback()
		return nil, Refused(werr)
	}

	fmt.Fprintln(os.Stderr, tr.W("Simple merge failed, trying Automatic merge."))
	cb := InternalMergeCallback(opts.Driver)
	conflicts, _ := MergeAll(ctx, store, wt, idx, cb, true, false)

	if err := lock.Commit(idx, opts.Persist); err != nil {
		return nil, Refused(err)
	}
	if conflicts > 0 {
		return &Result{Conflicts: conflicts}, ConflictsLeft(nil)
	}
	treeOID, err = WriteTree(ctx, store, idx)
	if err != nil {
		return &Result{Conflicts: conflicts}, nil
	}
	return &Result{Tree: treeOID}, nil
}

// resolveTree turns a commit OID into its root tree OID; the zero OID
// (no head, no remote) reads as the empty tree rather than an error.
func resolveTree(ctx context.Context, store Store, commit OID) (OID, error) {
	if commit.IsZero() {
		return ZeroOID, nil
	}
	return CommitTree(ctx, store, commit)
}
