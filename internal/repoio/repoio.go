// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package repoio wires the external collaborators pkg/merge leaves
// abstract — object store, on-disk index, working-tree root — to a
// real on-disk zeta repository, the way cmd/zeta's command package
// wires pkg/zeta.Open for every subcommand.
package repoio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	fmtindex "github.com/antgroup/hugescm/modules/plumbing/format/index"
	"github.com/antgroup/hugescm/modules/zeta/object"
	"github.com/antgroup/hugescm/pkg/zeta/odb"

	"github.com/antgroup/zeta-merge/pkg/merge"
)

// ErrNotRepository is returned by Discover when cwd is not inside a
// zeta working copy.
type ErrNotRepository struct {
	CWD string
}

func (e *ErrNotRepository) Error() string {
	return fmt.Sprintf("'%s' not a zeta repository", e.CWD)
}

// Discover walks upward from cwd looking for a ".zeta" control
// directory, the way pkg/zeta/misc.go's FindZetaDir does, returning
// the worktree root and the control directory path.
func Discover(cwd string) (worktreeDir, zetaDir string, err error) {
	if len(cwd) == 0 {
		if cwd, err = os.Getwd(); err != nil {
			return "", "", err
		}
	}
	current, err := filepath.Abs(cwd)
	if err != nil {
		return "", "", err
	}
	for {
		if odb.IsZetaDir(current) {
			return filepath.Dir(current), current, nil
		}
		candidate := filepath.Join(current, ".zeta")
		if odb.IsZetaDir(candidate) {
			return current, candidate, nil
		}
		parent := filepath.Dir(current)
		if current == parent {
			return "", "", &ErrNotRepository{CWD: cwd}
		}
		current = parent
	}
}

// OpenStore opens the object database rooted at zetaDir.
func OpenStore(zetaDir string) (*odb.ODB, error) {
	return odb.NewODB(zetaDir)
}

// indexFileName matches odb's own private "index" file name inside
// the control directory, so CLI reads/writes land on the same file
// the rest of zeta's tooling would use.
const indexFileName = "index"

func indexPath(zetaDir string) string {
	return filepath.Join(zetaDir, indexFileName)
}

// IndexPath returns the on-disk path of the repository's index file,
// for AcquireLock's ".lock" sibling.
func IndexPath(zetaDir string) string {
	return indexPath(zetaDir)
}

// LoadIndex decodes the on-disk index into a *merge.Index, treating a
// missing file as an empty index (§4.A/§5 — first merge in a fresh
// checkout has nothing staged yet).
func LoadIndex(zetaDir string) (*merge.Index, error) {
	idx := merge.NewIndex()
	fd, err := os.Open(indexPath(zetaDir))
	if err != nil {
		if os.IsNotExist(err) {
			return idx, nil
		}
		return nil, err
	}
	defer fd.Close()

	raw := &fmtindex.Index{}
	if err := fmtindex.NewDecoder(fd).Decode(raw); err != nil {
		return nil, err
	}
	for _, e := range raw.Entries {
		idx.SetStage(e.Name, merge.Stage(e.Stage), e.Mode, e.Hash)
	}
	return idx, nil
}

// PersistIndex encodes idx back to the on-disk index format, used as
// the PersistIndexFunc every strategy commits through its Lock.
func PersistIndex(zetaDir string) merge.PersistIndexFunc {
	return func(idx *merge.Index) error {
		raw := &fmtindex.Index{Version: fmtindex.EncodeVersionSupported}
		for _, path := range idx.Paths() {
			for stage := merge.StageMerged; stage <= merge.StageTheirs; stage++ {
				e, ok := idx.Get(path, stage)
				if !ok {
					continue
				}
				raw.Entries = append(raw.Entries, &fmtindex.Entry{
					Name:  e.Path,
					Mode:  e.Mode,
					Hash:  e.OID,
					Stage: fmtindex.Stage(e.Stage),
				})
			}
		}
		tmp := indexPath(zetaDir) + ".tmp"
		fd, err := os.Create(tmp)
		if err != nil {
			return err
		}
		if err := fmtindex.NewEncoder(fd).Encode(raw); err != nil {
			_ = fd.Close()
			return err
		}
		if err := fd.Close(); err != nil {
			return err
		}
		return os.Rename(tmp, indexPath(zetaDir))
	}
}

// MergeBase returns the pairwise merge base between remote and each
// ref in refs, one result per ref and in the same order — the shape
// MergeBaseFunc's contract requires, since canFastForward in
// pkg/merge/octopus.go indexes the returned slice positionally
// against refs (which is always the caller's own referenceCommits).
// Each pairwise base goes straight through *object.Commit's own
// MergeBase method; a ref with no common ancestor against remote
// reports the whole call as unrelated history.
func MergeBase(store merge.Store) merge.MergeBaseFunc {
	return func(ctx context.Context, remote merge.OID, refs []merge.OID) ([]merge.OID, error) {
		if len(refs) == 0 {
			return nil, nil
		}
		remoteCommit, err := store.Commit(ctx, remote)
		if err != nil {
			return nil, err
		}
		bases := make([]merge.OID, len(refs))
		for i, ref := range refs {
			refCommit, err := store.Commit(ctx, ref)
			if err != nil {
				return nil, err
			}
			found, err := remoteCommit.MergeBase(ctx, refCommit)
			if err != nil {
				return nil, err
			}
			if len(found) == 0 {
				return nil, nil
			}
			bases[i] = found[0].Hash
		}
		return bases, nil
	}
}

// LocalChanges reports paths whose working-tree content no longer
// matches tree, the octopus precondition check (§4.F). It is a
// leaner stand-in for worktree_status.go's diffTreeWithWorktree
// (merkletrie-based): rather than pulling in go-git's merkletrie for
// a single yes/no precondition, it walks tree's leaves directly and
// rehashes each working-tree file with the store's own content
// hasher, which is all the octopus guard needs.
func LocalChanges(store merge.Store, wt *merge.WorkingTree) merge.LocalChangesFunc {
	return func(ctx context.Context, tree merge.OID) ([]string, error) {
		if tree.IsZero() {
			return nil, nil
		}
		t, err := store.Tree(ctx, tree)
		if err != nil {
			return nil, err
		}
		var offending []string
		if err := walkTreeLeaves(ctx, store, "", t, func(path string, oid merge.OID) error {
			if !wt.Exists(path) {
				offending = append(offending, path)
				return nil
			}
			content, err := wt.ReadFile(path)
			if err != nil {
				return err
			}
			got, err := store.HashTo(ctx, bytes.NewReader(content), int64(len(content)))
			if err != nil {
				return err
			}
			if got != oid {
				offending = append(offending, path)
			}
			return nil
		}); err != nil {
			return nil, err
		}
		return offending, nil
	}
}

func walkTreeLeaves(ctx context.Context, store merge.Store, parent string, t *object.Tree, fn func(path string, oid merge.OID) error) error {
	for _, e := range t.Entries {
		full := filepath.Join(parent, e.Name)
		if e.Type() != object.TreeObject {
			if err := fn(full, e.Hash); err != nil {
				return err
			}
			continue
		}
		sub, err := store.Tree(ctx, e.Hash)
		if err != nil {
			return err
		}
		if err := walkTreeLeaves(ctx, store, full, sub, fn); err != nil {
			return err
		}
	}
	return nil
}

