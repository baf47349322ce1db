// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Command merge-resolve runs the resolve strategy (§6.2): one or more
// base commits, a head and a single remote, separated by a literal
// "--" the way git's own plumbing merge strategies split their
// argument lists. kong's generic positional-argument model has no
// room for that split, so kong is not used here: arguments are parsed
// by hand, and -h/--help prints the usage line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/antgroup/hugescm/modules/plumbing"

	"github.com/antgroup/zeta-merge/internal/repoio"
	"github.com/antgroup/zeta-merge/pkg/merge"
)

const usage = "usage: merge-resolve <base>... -- <head> <remote>"

func splitArgs(argv []string) (bases []string, rest []string, err error) {
	for i, a := range argv {
		if a == "--" {
			return argv[:i], argv[i+1:], nil
		}
	}
	return nil, nil, fmt.Errorf("%s: missing \"--\" separator", usage)
}

func parseHash(s string) (merge.OID, error) {
	if len(s) == 0 {
		return merge.ZeroOID, nil
	}
	return plumbing.NewHashEx(s)
}

func run(argv []string) error {
	bases, rest, err := splitArgs(argv)
	if err != nil {
		return &merge.ExitError{Code: 2, Err: err}
	}
	if len(bases) == 0 {
		return merge.Refused(merge.ErrBaseless)
	}
	if len(rest) != 2 {
		return &merge.ExitError{Code: 2, Err: fmt.Errorf("%s: need exactly one head and one remote", usage)}
	}

	baseOIDs := make([]merge.OID, 0, len(bases))
	for _, b := range bases {
		oid, err := parseHash(b)
		if err != nil {
			return &merge.ExitError{Code: 2, Err: fmt.Errorf("invalid base %q: %w", b, err)}
		}
		baseOIDs = append(baseOIDs, oid)
	}
	head, err := parseHash(rest[0])
	if err != nil {
		return &merge.ExitError{Code: 2, Err: fmt.Errorf("invalid head %q: %w", rest[0], err)}
	}
	remote, err := parseHash(rest[1])
	if err != nil {
		return &merge.ExitError{Code: 2, Err: fmt.Errorf("invalid remote %q: %w", rest[1], err)}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	worktreeDir, zetaDir, err := repoio.Discover(cwd)
	if err != nil {
		return merge.Refused(err)
	}
	store, err := repoio.OpenStore(zetaDir)
	if err != nil {
		return merge.Refused(err)
	}

	opts := merge.StrategyOptions{
		IndexPath:   repoio.IndexPath(zetaDir),
		WorkTreeDir: worktreeDir,
		LoadIndex:   func() (*merge.Index, error) { return repoio.LoadIndex(zetaDir) },
		Persist:     repoio.PersistIndex(zetaDir),
		Driver:      merge.DefaultMergeTextDriver,
	}

	res, err := merge.Resolve(context.Background(), store, opts, baseOIDs, head, remote)
	if err != nil {
		if res != nil && res.Conflicts > 0 {
			fmt.Fprintf(os.Stderr, "merge-resolve: %d conflict(s) left in the index\n", res.Conflicts)
		}
		return err
	}
	return nil
}

// kong's generic flag/positional model has no native "<a>... -- <b>
// <c>" split, so it is not used here for argument binding; argv is
// parsed by hand in run, and -h/--help is handled the same plain way
// every other git-style plumbing command handles it.
func main() {
	argv := os.Args[1:]
	if len(argv) > 0 && (argv[0] == "-h" || argv[0] == "--help") {
		fmt.Println(usage)
		return
	}
	if err := run(argv); err != nil {
		fmt.Fprintf(os.Stderr, "merge-resolve: %v\n", err)
		os.Exit(merge.ExitCode(err))
	}
}
