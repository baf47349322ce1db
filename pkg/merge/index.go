// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Stage identifies which side of a three-way merge an index entry
// belongs to (§3 "Index entry").
type Stage int

const (
	// StageMerged holds the resolved, stage-0 entry for a path.
	StageMerged Stage = 0
	// StageBase is the common ancestor ("orig").
	StageBase Stage = 1
	// StageOurs is our side.
	StageOurs Stage = 2
	// StageTheirs is their side.
	StageTheirs Stage = 3
)

// Entry is a single (path, mode, oid) record at a given stage.
type Entry struct {
	Path  string
	Mode  FileMode
	OID   OID
	Stage Stage
}

// Index is an ordered mapping from (path, stage) to entry (§3
// "Index"). It is not safe for concurrent use; callers serialize
// access to it via a Lock (§5).
type Index struct {
	byPath map[string]map[Stage]Entry
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{byPath: make(map[string]map[Stage]Entry)}
}

// reservedNames are rejected regardless of platform, the way zeta's
// worktree.validPath rejects its own control directory name.
var reservedNames = map[string]bool{
	".":  true,
	"..": true,
}

// verifyPath validates path per §3: no ".." components, no embedded
// NUL, no platform-reserved name.
func verifyPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	if strings.IndexByte(path, 0) >= 0 {
		return fmt.Errorf("%w: %q: embedded NUL", ErrInvalidPath, path)
	}
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' })
	if len(parts) == 0 {
		return fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, part := range parts {
		if part == ".." {
			return fmt.Errorf("%w: %q: cannot use '..'", ErrInvalidPath, path)
		}
		if reservedNames[strings.ToLower(part)] {
			return fmt.Errorf("%w: %q: reserved name %q", ErrInvalidPath, path, part)
		}
	}
	return nil
}

// stagesFor returns the stage map for path, creating it if absent.
func (idx *Index) stagesFor(path string) map[Stage]Entry {
	m, ok := idx.byPath[path]
	if !ok {
		m = make(map[Stage]Entry)
		idx.byPath[path] = m
	}
	return m
}

// SetStage installs entry at its recorded stage, replacing anything
// already there for that (path, stage) pair.
func (idx *Index) SetStage(path string, stage Stage, mode FileMode, oid OID) {
	m := idx.stagesFor(path)
	m[stage] = Entry{Path: path, Mode: mode, OID: oid, Stage: stage}
}

// Get returns the entry at (path, stage), if any.
func (idx *Index) Get(path string, stage Stage) (Entry, bool) {
	m, ok := idx.byPath[path]
	if !ok {
		return Entry{}, false
	}
	e, ok := m[stage]
	return e, ok
}

// AddCacheinfo validates path for mode, then installs a stage-0 entry
// for (mode, oid, path), superseding any stage 1..3 entries already
// present for that path (§3 invariant, §4.A).
func (idx *Index) AddCacheinfo(mode FileMode, oid OID, path string) error {
	if err := verifyPath(path); err != nil {
		return err
	}
	idx.byPath[path] = map[Stage]Entry{
		StageMerged: {Path: path, Mode: mode, OID: oid, Stage: StageMerged},
	}
	return nil
}

// RemoveEntry removes every stage entry for path (§4.A).
func (idx *Index) RemoveEntry(path string) {
	delete(idx.byPath, path)
}

// Checkout materialises the stage-0 entry for path into the working
// tree via wt, forcibly overwriting any existing file and preserving
// the recorded mode (§4.A).
func (idx *Index) Checkout(ctx context.Context, store Store, wt *WorkingTree, path string) error {
	e, ok := idx.Get(path, StageMerged)
	if !ok {
		return fmt.Errorf("merge: %s is not present in the cache", path)
	}
	blob, err := store.Blob(ctx, e.OID)
	if err != nil {
		return err
	}
	defer blob.Close()
	content, err := io.ReadAll(blob.Contents)
	if err != nil {
		return err
	}
	return wt.WriteFile(path, e.Mode, content)
}

// HasStageZero reports whether path already has a resolved, stage-0
// entry — "already merged" per §4.C.
func (idx *Index) HasStageZero(path string) bool {
	_, ok := idx.Get(path, StageMerged)
	return ok
}

// Unresolved reports whether path carries any stage 1..3 entry.
func (idx *Index) Unresolved(path string) bool {
	m, ok := idx.byPath[path]
	if !ok {
		return false
	}
	_, hasBase := m[StageBase]
	_, hasOurs := m[StageOurs]
	_, hasTheirs := m[StageTheirs]
	return hasBase || hasOurs || hasTheirs
}

// Paths returns every path present in the index, in ascending order
// (§3 "Index" ordering).
func (idx *Index) Paths() []string {
	paths := make([]string, 0, len(idx.byPath))
	for p := range idx.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Triple builds the logical (orig, ours, theirs) triple for path from
// whatever stage 1..3 entries are present (§3 "Per-path triple").
func (idx *Index) Triple(path string) Triple {
	m := idx.byPath[path]
	t := Triple{Path: path}
	if e, ok := m[StageBase]; ok {
		t.Orig = &Side{Mode: e.Mode, OID: e.OID}
	}
	if e, ok := m[StageOurs]; ok {
		t.Ours = &Side{Mode: e.Mode, OID: e.OID}
	}
	if e, ok := m[StageTheirs]; ok {
		t.Theirs = &Side{Mode: e.Mode, OID: e.OID}
	}
	return t
}

// Clone returns a deep copy; changes to the copy do not affect idx.
func (idx *Index) Clone() *Index {
	out := NewIndex()
	for p, m := range idx.byPath {
		cp := make(map[Stage]Entry, len(m))
		for s, e := range m {
			cp[s] = e
		}
		out.byPath[p] = cp
	}
	return out
}
