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

// MergeBaseFunc computes the merge bases between remote and refs,
// ordered the same way as refs. History traversal is the external
// collaborator §1 leaves out of scope.
type MergeBaseFunc func(ctx context.Context, remote OID, refs []OID) ([]OID, error)

// LocalChangesFunc reports paths in the working tree that differ from
// tree — the octopus precondition check (§4.F) needs a working-tree
// diff, which §1 also leaves external.
type LocalChangesFunc func(ctx context.Context, tree OID) ([]string, error)

// OctopusOptions extends StrategyOptions with the collaborators unique
// to the iterative fold.
type OctopusOptions struct {
	StrategyOptions
	MergeBase    MergeBaseFunc
	LocalChanges LocalChangesFunc
}

// Octopus folds remotes onto head one at a time, fast-forwarding where
// possible and falling back to (D)+(C) otherwise, per §4.F. bases are
// informational: zero and empty-tree bases are silently dropped (§6)
// and the rest are not consumed. The non-fast-forward branch unpacks
// against the trees of the merge bases opts.MergeBase computes for
// each remote.
func Octopus(ctx context.Context, store Store, opts OctopusOptions, bases []OID, head OID, remotes []OID) (*Result, error) {
	if len(remotes) < 2 {
		return nil, Refused(ErrTooFewRemotes)
	}

	emptyTree := store.EmptyTree().Hash
	realBases := make([]OID, 0, len(bases))
	for _, b := range bases {
		if !b.IsZero() && b != emptyTree {
			realBases = append(realBases, b)
		}
	}

	referenceCommits := []OID{head}
	references := 1
	referenceTree, err := resolveTree(ctx, store, head)
	if err != nil {
		return nil, Refused(err)
	}
	headTree := referenceTree

	offending, err := opts.LocalChanges(ctx, referenceTree)
	if err != nil {
		return nil, Refused(err)
	}
	if len(offending) > 0 {
		for _, p := range offending {
			fmt.Fprintln(os.Stderr, p)
		}
		return nil, Refused(ErrLocalChanges)
	}

	wt := NewWorkingTree(opts.WorkTreeDir)
	nonFFMerge := false
	var ret error
	conflicts := 0

	for _, remote := range remotes {
		name := remoteName(remote)

		if ret != nil {
			fmt.Fprintln(os.Stderr, tr.W("Automated merge did not work. Should not be doing an octopus."))
			return &Result{Tree: referenceTree, Conflicts: conflicts}, Refused(ErrOctopusCarryingConflict)
		}

		mergeBases, err := opts.MergeBase(ctx, remote, referenceCommits)
		if err != nil {
			return nil, Refused(err)
		}
		if len(mergeBases) == 0 {
			return nil, Refused(ErrCommonCommitNotFound)
		}
		if containsOID(mergeBases, remote) {
			fmt.Fprintf(os.Stderr, "%s\n", tr.Sprintf("Already up to date with %s.", name))
			continue
		}

		if !nonFFMerge && canFastForward(mergeBases, referenceCommits, references) {
			fmt.Fprintf(os.Stderr, "%s\n", tr.Sprintf("Fast-forwarding to %s.", name))
			lock, err := AcquireLock(opts.IndexPath)
			if err != nil {
				return nil, Refused(err)
			}
			idx, err := opts.LoadIndex()
			if err != nil {
				_ = lock.Rollback()
				return nil, Refused(err)
			}
			remoteTree, err := resolveTree(ctx, store, remote)
			if err != nil {
				_ = lock.Rollback()
				return nil, Refused(err)
			}
			if err := FastForward(ctx, store, wt, idx, []OID{headTree, remoteTree}, false); err != nil {
				_ = lock.Rollback()
				return nil, Refused(err)
			}
			newTree, err := WriteTree(ctx, store, idx)
			if err != nil {
				_ = lock.Rollback()
				return nil, Refused(err)
			}
			if err := lock.Commit(idx, opts.Persist); err != nil {
				return nil, Refused(err)
			}
			references = 0
			referenceTree = newTree
			referenceCommits = append(referenceCommits, remote)
			references++
			continue
		}

		nonFFMerge = true
		fmt.Fprintf(os.Stderr, "%s\n", tr.Sprintf("Trying simple merge with %s.", name))

		lock, err := AcquireLock(opts.IndexPath)
		if err != nil {
			return nil, Refused(err)
		}
		idx, err := opts.LoadIndex()
		if err != nil {
			_ = lock.Rollback()
			return nil, Refused(err)
		}
		remoteTree, err := resolveTree(ctx, store, remote)
		if err != nil {
			_ = lock.Rollback()
			return nil, Refused(err)
		}
		unpackOIDs := make([]OID, 0, len(mergeBases)+2)
		for _, b := range mergeBases {
			baseTree, err := resolveTree(ctx, store, b)
			if err != nil {
				_ = lock.Rollback()
				return nil, Refused(err)
			}
			unpackOIDs = append(unpackOIDs, baseTree)
		}
		unpackOIDs = append(unpackOIDs, referenceTree, remoteTree)
		if err := FastForward(ctx, store, wt, idx, unpackOIDs, true); err != nil {
			_ = lock.Rollback()
			return nil, Refused(err)
		}

		newTree, werr := WriteTree(ctx, store, idx)
		if werr == nil {
			if err := lock.Commit(idx, opts.Persist); err != nil {
				return nil, Refused(err)
			}
			referenceTree = newTree
			ret = nil
		} else if errors.Is(werr, ErrIndexHasConflicts) {
			fmt.Fprintln(os.Stderr, tr.W("Simple merge did not work, trying automatic merge."))
			cb := InternalMergeCallback(opts.Driver)
			n, _ := MergeAll(ctx, store, wt, idx, cb, true, false)
			if err := lock.Commit(idx, opts.Persist); err != nil {
				return nil, Refused(err)
			}
			conflicts += n
			if n > 0 {
				ret = ErrOctopusCarryingConflict
			} else {
				newTree, err = WriteTree(ctx, store, idx)
				if err != nil {
					return nil, Refused(err)
				}
				referenceTree = newTree
				ret = nil
			}
		} else {
			_ = lock.Rollback()
			return nil, Refused(werr)
		}

		referenceCommits = append(referenceCommits, remote)
		references++
	}

	if ret != nil {
		return &Result{Tree: referenceTree, Conflicts: conflicts}, ConflictsLeft(nil)
	}
	return &Result{Tree: referenceTree, Conflicts: conflicts}, nil
}

func containsOID(set []OID, target OID) bool {
	for _, o := range set {
		if o == target {
			return true
		}
	}
	return false
}

// canFastForward reports whether the trailing `references` merge
// bases line up pairwise with the trailing `references` entries of
// referenceCommits — both mergeBases and referenceCommits are indexed
// from the same position (mergeBases is "ordered the same way as
// refs", and refs is referenceCommits itself), so the window has to
// be taken from the same end of both slices.
//
// references resets to 0 on every fast-forward fold and grows again
// from there; the window left standing after a reset is whatever was
// folded in most recently, not whatever was folded in first.
// referenceCommits is append-only here, so that window is its tail —
// indexing from the front would keep comparing against the original
// head long after it stopped being the fold's tip.
func canFastForward(mergeBases, referenceCommits []OID, references int) bool {
	if references > len(mergeBases) || references > len(referenceCommits) {
		return false
	}
	baseWindow := mergeBases[len(mergeBases)-references:]
	refWindow := referenceCommits[len(referenceCommits)-references:]
	for i := 0; i < references; i++ {
		if baseWindow[i] != refWindow[i] {
			return false
		}
	}
	return true
}

// remoteName looks up the human-readable name for remote via the
// GITHEAD_<hex> environment convention, falling back to the hex OID.
func remoteName(remote OID) string {
	hex := remote.String()
	if name := os.Getenv("GITHEAD_" + hex); name != "" {
		return name
	}
	return hex
}
