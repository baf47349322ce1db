// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/antgroup/hugescm/modules/diferenco"
	"github.com/antgroup/hugescm/modules/plumbing/filemode"
)

// Side is one arm of a per-path merge triple: the (mode, OID) pair
// recorded for a path on one side, or nil when the path is absent on
// that side (§3 "Per-path triple").
type Side struct {
	Mode FileMode
	OID  OID
}

// Triple is the logical (orig, ours, theirs) input to MergeOneFile.
type Triple struct {
	Path   string
	Orig   *Side
	Ours   *Side
	Theirs *Side
}

func sameOID(a, b *Side) bool  { return a != nil && b != nil && a.OID == b.OID }
func sameMode(a, b *Side) bool { return a != nil && b != nil && a.Mode == b.Mode }

// MergeOneFile decides the merged working-tree and index state for a
// single path from its (orig, ours, theirs) triple, per §4.B. A
// content conflict returns conflict=true together with an error
// wrapping ErrContentConflict, after writing the conflict-marked text
// to the working tree. Every other refusal (permission conflict,
// symlink/submodule, untracked file, unhandled case) and every
// infrastructure failure returns conflict=false with a non-nil error.
// In all error cases no stage-0 entry is written.
func MergeOneFile(ctx context.Context, store Store, wt *WorkingTree, idx *Index, driver MergeTextDriver, t Triple) (conflict bool, err error) {
	switch {
	case isTrivialDelete(t):
		return mergeTrivialDelete(wt, idx, t)
	case t.Orig == nil && t.Ours != nil && t.Theirs == nil:
		// Add-on-ours-only: the working tree already holds ours' bytes.
		return false, idx.AddCacheinfo(t.Ours.Mode, t.Ours.OID, t.Path)
	case t.Orig == nil && t.Ours == nil && t.Theirs != nil:
		return mergeAddTheirsOnly(ctx, store, wt, idx, t)
	case t.Orig == nil && t.Ours != nil && t.Theirs != nil && sameOID(t.Ours, t.Theirs):
		return mergeAddIdentical(ctx, store, wt, idx, t)
	case t.Ours != nil && t.Theirs != nil:
		return mergeContentModifyBoth(ctx, store, wt, idx, driver, t)
	default:
		return false, fmt.Errorf("%w: %s %s %s", ErrUnhandledCase, sideString(t.Orig), sideString(t.Ours), sideString(t.Theirs))
	}
}

func sideString(s *Side) string {
	if s == nil {
		return "-"
	}
	return s.OID.String()
}

// isTrivialDelete matches §4.B case 1: orig present and exactly one of
// ours/theirs is absent while the other is unchanged from orig.
func isTrivialDelete(t Triple) bool {
	if t.Orig == nil {
		return false
	}
	if t.Ours == nil {
		return t.Theirs == nil || sameOID(t.Orig, t.Theirs)
	}
	if t.Theirs == nil {
		return sameOID(t.Orig, t.Ours)
	}
	return false
}

func mergeTrivialDelete(wt *WorkingTree, idx *Index, t Triple) (bool, error) {
	if t.Ours == nil && t.Theirs == nil {
		idx.RemoveEntry(t.Path)
		return false, nil
	}
	surviving := t.Ours
	if t.Ours == nil {
		surviving = t.Theirs
	}
	if !sameMode(t.Orig, surviving) {
		return false, fmt.Errorf("%w: %s", ErrModifyDeletePermission, t.Path)
	}
	if t.Theirs == nil {
		// orig present, ours unchanged, theirs deleted: remove from
		// both the working tree and the index.
		if err := wt.Remove(t.Path); err != nil {
			return false, err
		}
	}
	idx.RemoveEntry(t.Path)
	return false, nil
}

func mergeAddTheirsOnly(ctx context.Context, store Store, wt *WorkingTree, idx *Index, t Triple) (bool, error) {
	if wt.Exists(t.Path) {
		return false, fmt.Errorf("%w: %s", ErrUntrackedWouldBeOverwritten, t.Path)
	}
	if err := idx.AddCacheinfo(t.Theirs.Mode, t.Theirs.OID, t.Path); err != nil {
		return false, err
	}
	if err := idx.Checkout(ctx, store, wt, t.Path); err != nil {
		return false, err
	}
	return false, nil
}

func mergeAddIdentical(ctx context.Context, store Store, wt *WorkingTree, idx *Index, t Triple) (bool, error) {
	if !sameMode(t.Ours, t.Theirs) {
		return false, fmt.Errorf("%w: added identically but permissions conflict %o->%o", ErrPermissionConflict, t.Ours.Mode, t.Theirs.Mode)
	}
	if err := idx.AddCacheinfo(t.Ours.Mode, t.Ours.OID, t.Path); err != nil {
		return false, err
	}
	if err := idx.Checkout(ctx, store, wt, t.Path); err != nil {
		return false, err
	}
	return false, nil
}

// MergeTextDriver invokes the xdiff-style three-way merge engine over
// three in-memory texts and reports whether conflict markers remain.
type MergeTextDriver func(ctx context.Context, textO, textA, textB, labelO, labelA, labelB string) (merged string, conflicts bool, err error)

// DefaultMergeTextDriver delegates directly to the collaborator
// engine (§1), using the histogram algorithm and zealous diff3 style
// the spec calls for ("zealous alnum").
func DefaultMergeTextDriver(ctx context.Context, textO, textA, textB, labelO, labelA, labelB string) (string, bool, error) {
	return diferenco.Merge(ctx, &diferenco.MergeOptions{
		TextO: textO, TextA: textA, TextB: textB,
		LabelO: labelO, LabelA: labelA, LabelB: labelB,
		A:     diferenco.Histogram,
		Style: diferenco.STYLE_ZEALOUS_DIFF3,
	})
}

func mergeContentModifyBoth(ctx context.Context, store Store, wt *WorkingTree, idx *Index, driver MergeTextDriver, t Triple) (bool, error) {
	if isLinkOrSubmodule(t.Ours.Mode) || isLinkOrSubmodule(t.Theirs.Mode) {
		return false, fmt.Errorf("%w: %s", ErrSymlinkOrSubmoduleConflict, t.Path)
	}
	if !sameMode(t.Ours, t.Theirs) {
		return false, fmt.Errorf("%w orig->ours,theirs: %s", ErrPermissionConflict, t.Path)
	}
	textO, err := readBlobText(ctx, store, t.Orig)
	if err != nil {
		return false, err
	}
	textA, err := readBlobText(ctx, store, t.Ours)
	if err != nil {
		return false, err
	}
	textB, err := readBlobText(ctx, store, t.Theirs)
	if err != nil {
		return false, err
	}
	merged, conflicts, err := driver(ctx, textO, textA, textB, "orig", "ours", "theirs")
	if err != nil {
		return false, fmt.Errorf("merge: internal merge failed for %s: %w", t.Path, err)
	}
	if conflicts || t.Orig == nil {
		// No ancestor, or the engine left conflict markers: report the
		// conflict and leave the index untouched (§9 open question 1).
		if err := wt.WriteFile(t.Path, t.Ours.Mode, []byte(merged)); err != nil {
			return false, err
		}
		return true, fmt.Errorf("%w: %s", ErrContentConflict, t.Path)
	}
	if err := wt.WriteFile(t.Path, t.Ours.Mode, []byte(merged)); err != nil {
		return false, err
	}
	newOID, err := store.HashTo(ctx, bytes.NewReader([]byte(merged)), int64(len(merged)))
	if err != nil {
		return false, err
	}
	if err := idx.AddCacheinfo(t.Ours.Mode, newOID, t.Path); err != nil {
		return false, err
	}
	return false, nil
}

func isLinkOrSubmodule(m FileMode) bool {
	return m == filemode.Symlink || m == filemode.Submodule
}

func readBlobText(ctx context.Context, store Store, s *Side) (string, error) {
	if s == nil {
		return "", nil
	}
	blob, err := store.Blob(ctx, s.OID)
	if err != nil {
		return "", err
	}
	defer blob.Close()
	data, err := io.ReadAll(blob.Contents)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
