// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Command merge-one-file is the per-path three-way merge helper
// (§6.1): given a path's orig/our/their blob ids and modes, it
// resolves the single path and updates the repository index and
// working tree accordingly.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/alecthomas/kong"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/plumbing/filemode"

	"github.com/antgroup/zeta-merge/internal/repoio"
	"github.com/antgroup/zeta-merge/pkg/merge"
)

// posixModeMask mirrors the S_IFMT-style classification
// modules/zeta/object/tree.go uses locally (unexported there) to
// decide an entry's object type; merge-one-file needs the same
// regular/directory/symlink check on raw octal mode arguments.
const (
	posixModeMask = 0170000
	posixModeReg  = 0100000
	posixModeDir  = 0040000
	posixModeLnk  = 0120000
)

type app struct {
	OrigBlob  string `arg:"" name:"orig-blob" help:"Original blob OID, or empty if absent"`
	OurBlob   string `arg:"" name:"our-blob" help:"Our blob OID, or empty if absent"`
	TheirBlob string `arg:"" name:"their-blob" help:"Their blob OID, or empty if absent"`
	Path      string `arg:"" name:"path" help:"Path in the repository"`
	OrigMode  string `arg:"" name:"orig-mode" help:"Original octal mode, or empty"`
	OurMode   string `arg:"" name:"our-mode" help:"Our octal mode, or empty"`
	TheirMode string `arg:"" name:"their-mode" help:"Their octal mode, or empty"`
}

func parseSide(oidStr, modeStr string) (*merge.Side, error) {
	if len(oidStr) == 0 {
		return nil, nil
	}
	oid, err := plumbing.NewHashEx(oidStr)
	if err != nil {
		return nil, fmt.Errorf("invalid blob oid %q: %w", oidStr, err)
	}
	raw, err := strconv.ParseUint(modeStr, 8, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid mode %q: %w", modeStr, err)
	}
	mode := filemode.FileMode(raw)
	switch raw & posixModeMask {
	case posixModeReg, posixModeDir, posixModeLnk:
	default:
		return nil, fmt.Errorf("invalid mode %o: not regular, directory or symlink", raw)
	}
	return &merge.Side{Mode: mode, OID: oid}, nil
}

func (a *app) triple() (merge.Triple, error) {
	orig, err := parseSide(a.OrigBlob, a.OrigMode)
	if err != nil {
		return merge.Triple{}, fmt.Errorf("orig: %w", err)
	}
	ours, err := parseSide(a.OurBlob, a.OurMode)
	if err != nil {
		return merge.Triple{}, fmt.Errorf("our: %w", err)
	}
	theirs, err := parseSide(a.TheirBlob, a.TheirMode)
	if err != nil {
		return merge.Triple{}, fmt.Errorf("their: %w", err)
	}
	return merge.Triple{Path: a.Path, Orig: orig, Ours: ours, Theirs: theirs}, nil
}

func run(a *app) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	worktreeDir, zetaDir, err := repoio.Discover(cwd)
	if err != nil {
		return err
	}
	store, err := repoio.OpenStore(zetaDir)
	if err != nil {
		return err
	}

	t, err := a.triple()
	if err != nil {
		return err
	}

	lock, err := merge.AcquireLock(repoio.IndexPath(zetaDir))
	if err != nil {
		return err
	}
	idx, err := repoio.LoadIndex(zetaDir)
	if err != nil {
		_ = lock.Rollback()
		return err
	}
	wt := merge.NewWorkingTree(worktreeDir)

	conflict, mergeErr := merge.MergeOneFile(context.Background(), store, wt, idx, merge.DefaultMergeTextDriver, t)
	if mergeErr != nil {
		_ = lock.Rollback()
		if conflict {
			fmt.Fprintln(os.Stderr, mergeErr)
		}
		return mergeErr
	}
	return lock.Commit(idx, repoio.PersistIndex(zetaDir))
}

func main() {
	var a app
	kong.Parse(&a,
		kong.Name("merge-one-file"),
		kong.Description("Run a per-path three-way merge"),
		kong.UsageOnError(),
	)
	if err := run(&a); err != nil {
		fmt.Fprintf(os.Stderr, "merge-one-file: %v\n", err)
		os.Exit(1)
	}
}
