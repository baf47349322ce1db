// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import "errors"

// Error taxonomy (§7). Strategies translate these into the exit codes
// §6 defines; the per-path merger never recovers from them itself.
var (
	// ErrInvalidPath is returned by index primitives when a path fails
	// validation (".." component, embedded NUL, reserved name).
	ErrInvalidPath = errors.New("merge: invalid path")

	// ErrUntrackedWouldBeOverwritten is the add-on-theirs-only guard
	// (§4.B case 3).
	ErrUntrackedWouldBeOverwritten = errors.New("merge: untracked working tree file would be overwritten by merge")

	// ErrPermissionConflict covers both the identical-add mode conflict
	// and the content-modify case where ours and theirs differ in mode.
	ErrPermissionConflict = errors.New("merge: permission conflict")

	// ErrModifyDeletePermission is the trivial-delete variant where the
	// surviving side also changed mode (§4.B case 1).
	ErrModifyDeletePermission = errors.New("merge: deleted on one branch, permissions changed on the other")

	// ErrUnhandledCase is returned when none of the six per-path cases
	// match — an orig/ours/theirs triple the merger has no rule for.
	ErrUnhandledCase = errors.New("merge: not handling case")

	// ErrSymlinkOrSubmoduleConflict is returned instead of attempting a
	// textual three-way merge when either side's mode is a symlink or
	// submodule (§4.B "Three-way text merge").
	ErrSymlinkOrSubmoduleConflict = errors.New("merge: refusing to merge symlink or submodule content")

	// ErrContentConflict signals the text merge left conflict markers.
	ErrContentConflict = errors.New("merge: content conflict")

	// ErrBaseless is returned by Resolve when no merge base was
	// supplied (§4.E, §6).
	ErrBaseless = errors.New("merge: refusing to merge unrelated histories without a base")

	// ErrTooManyRemotes describes a resolve invocation with more than
	// one remote (octopus is refused there, §6). Resolve takes a single
	// remote and never returns it; cmd/merge-resolve reports that case
	// with its own usage error.
	ErrTooManyRemotes = errors.New("merge: resolve accepts exactly one remote")

	// ErrTooFewRemotes is returned by Octopus when invoked with fewer
	// than two remotes (§6, §8).
	ErrTooFewRemotes = errors.New("merge: octopus requires at least two remotes")

	// ErrLocalChanges is the octopus precondition failure: the working
	// copy has uncommitted changes against the reference tree (§4.F).
	ErrLocalChanges = errors.New("merge: local changes would be overwritten")

	// ErrCommonCommitNotFound is fatal inside octopus when no merge
	// base exists between a remote and the folded reference set.
	ErrCommonCommitNotFound = errors.New("merge: unable to find common commit")

	// ErrOctopusCarryingConflict is returned when a previous fold step
	// left conflicts: octopus refuses to carry them into the next
	// remote (§4.F step 1).
	ErrOctopusCarryingConflict = errors.New("merge: automated merge did not work; refusing to continue octopus")

	// ErrUnpackFailed wraps a tree-unpack collaborator failure (§4.D).
	ErrUnpackFailed = errors.New("merge: unpack-trees failed")
)

// ExitCoder lets a CLI front-end translate a strategy error into the
// exact process exit code §6 specifies, the way pkg/kong's ExitCoder
// maps a command error to os.Exit.
type ExitCoder interface {
	error
	ExitCode() int
}

// ExitError pairs a message with an explicit exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }
func (e *ExitError) Unwrap() error { return e.Err }
func (e *ExitError) ExitCode() int { return e.Code }

// Refused wraps err as an exit-2 "refused to attempt" failure.
func Refused(err error) *ExitError { return &ExitError{Code: 2, Err: err} }

// ConflictsLeft wraps err (possibly nil) as an exit-1 "completed with
// conflicts" result.
func ConflictsLeft(err error) *ExitError {
	if err == nil {
		err = errors.New("merge: completed with conflicts")
	}
	return &ExitError{Code: 1, Err: err}
}

// ExitCode returns the process exit code for err per §6/§7: 0 for
// nil, the code carried by an ExitCoder, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	return 1
}
