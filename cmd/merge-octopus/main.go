// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Command merge-octopus runs the octopus strategy (§6.3): an optional
// list of base commits, a head and at least two remotes, separated by
// a literal "--". Like merge-resolve, the "--" split sits outside
// kong's positional-argument model, so argv is parsed by hand.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/antgroup/hugescm/modules/plumbing"

	"github.com/antgroup/zeta-merge/internal/repoio"
	"github.com/antgroup/zeta-merge/pkg/merge"
)

const usage = "usage: merge-octopus [<base>...] -- <head> <remote1> <remote2> [<remotes>...]"

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
	if len(rest) < 3 {
		return refused("merge-octopus requires a head and at least two remotes")
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
	remotes := make([]merge.OID, 0, len(rest)-1)
	for _, r := range rest[1:] {
		oid, err := parseHash(r)
		if err != nil {
			return &merge.ExitError{Code: 2, Err: fmt.Errorf("invalid remote %q: %w", r, err)}
		}
		remotes = append(remotes, oid)
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
	wt := merge.NewWorkingTree(worktreeDir)

	opts := merge.OctopusOptions{
		StrategyOptions: merge.StrategyOptions{
			IndexPath:   repoio.IndexPath(zetaDir),
			WorkTreeDir: worktreeDir,
			LoadIndex:   func() (*merge.Index, error) { return repoio.LoadIndex(zetaDir) },
			Persist:     repoio.PersistIndex(zetaDir),
			Driver:      merge.DefaultMergeTextDriver,
		},
		MergeBase:    repoio.MergeBase(store),
		LocalChanges: repoio.LocalChanges(store, wt),
	}

	res, err := merge.Octopus(context.Background(), store, opts, baseOIDs, head, remotes)
	if err != nil {
		if res != nil && res.Conflicts > 0 {
			fmt.Fprintf(os.Stderr, "merge-octopus: %d conflict(s) left in the index\n", res.Conflicts)
		}
		return err
	}
	return nil
}

// refused wraps a plain message as an exit-2 argument error, matching
// the wrong-arity cases §6 groups under "refused to attempt".
func refused(msg string) error {
	return &merge.ExitError{Code: 2, Err: fmt.Errorf("%s: %s", usage, msg)}
}

func main() {
	argv := os.Args[1:]
	if len(argv) > 0 && (argv[0] == "-h" || argv[0] == "--help") {
		fmt.Println(usage)
		return
	}
	if err := run(argv); err != nil {
		fmt.Fprintf(os.Stderr, "merge-octopus: %v\n", err)
		os.Exit(merge.ExitCode(err))
	}
}
