// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"context"
	"fmt"
	"os"

	"github.com/antgroup/hugescm/modules/command"
	"github.com/sirupsen/logrus"
)

// MergeCallback is the per-file merge dispatch point (§9 "String-name
// dispatch for the per-file merge callback"): a function value taking
// a path's triple and returning whether it was left unresolved.
type MergeCallback func(ctx context.Context, store Store, wt *WorkingTree, idx *Index, t Triple) (conflict bool, err error)

// InternalMergeCallback wraps MergeOneFile, invoked directly
// in-process — the preferred path per §9 over shelling out.
func InternalMergeCallback(driver MergeTextDriver) MergeCallback {
	return func(ctx context.Context, store Store, wt *WorkingTree, idx *Index, t Triple) (bool, error) {
		return MergeOneFile(ctx, store, wt, idx, driver, t)
	}
}

// SpawnMergeCallback shells out to a named helper program with
// stringified OIDs, modes and the path, mirroring the merge-one-file
// CLI's own argument contract (§6.1). Its exit code is taken as the
// merge result for the path: nonzero means conflict (§5 "External
// subprocesses"). The helper is responsible for its own working-tree
// and index side effects; this callback does not re-read them back
// into idx.
func SpawnMergeCallback(name string, extraArgs ...string) MergeCallback {
	return func(ctx context.Context, store Store, wt *WorkingTree, idx *Index, t Triple) (bool, error) {
		args := append(append([]string{}, extraArgs...),
			oidOrEmpty(t.Orig), oidOrEmpty(t.Ours), oidOrEmpty(t.Theirs),
			t.Path, modeOrEmpty(t.Orig), modeOrEmpty(t.Ours), modeOrEmpty(t.Theirs))
		cmd := command.NewFromOptions(ctx, &command.RunOpts{Stderr: os.Stderr}, name, args...)
		if err := cmd.Run(); err != nil {
			return true, fmt.Errorf("merge: helper %s failed for %s: %w", name, t.Path, err)
		}
		return false, nil
	}
}

func oidOrEmpty(s *Side) string {
	if s == nil {
		return ""
	}
	return s.OID.String()
}

func modeOrEmpty(s *Side) string {
	if s == nil {
		return ""
	}
	return fmt.Sprintf("%o", uint32(s.Mode))
}

// MergePath locates path in the index. A path already at stage 0 is
// treated as already merged. Otherwise it builds the triple from
// whatever stage 1..3 entries are present and invokes cb (§4.C).
func MergePath(ctx context.Context, store Store, wt *WorkingTree, idx *Index, path string, cb MergeCallback) (bool, error) {
	if idx.HasStageZero(path) {
		return false, nil
	}
	return cb(ctx, store, wt, idx, idx.Triple(path))
}

// MergeAll scans the index left to right and invokes cb once per
// unresolved path (§4.C). With oneshot set, every conflict is tallied
// and the scan continues; without it, the scan stops at the first
// conflict. quiet suppresses the per-failure diagnostic.
func MergeAll(ctx context.Context, store Store, wt *WorkingTree, idx *Index, cb MergeCallback, oneshot, quiet bool) (conflicts int, err error) {
	for _, path := range idx.Paths() {
		if idx.HasStageZero(path) || !idx.Unresolved(path) {
			continue
		}
		_, mergeErr := MergePath(ctx, store, wt, idx, path, cb)
		if mergeErr == nil {
			continue
		}
		if !quiet {
			logrus.Errorf("merge program failed for %s: %v", path, mergeErr)
		}
		conflicts++
		if !oneshot {
			return conflicts, mergeErr
		}
	}
	return conflicts, nil
}
