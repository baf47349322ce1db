// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/nightlyone/lockfile"
)

// ErrIndexLockFailed is returned when the on-disk index lock cannot
// be acquired — "die on error" per §5.
var ErrIndexLockFailed = fmt.Errorf("merge: unable to acquire index lock")

// PersistIndexFunc writes the in-memory index back to its real,
// on-disk format. Index serialization itself is the external
// collaborator §1 leaves out of scope; Lock only owns the critical
// section around it.
type PersistIndexFunc func(*Index) error

// Lock is the scoped index-lock resource of §5: acquired before any
// mutation, released exactly once, either by Commit (persist then
// release) or Rollback (release without persisting, leaving the prior
// index intact).
type Lock struct {
	lf       lockfile.Lockfile
	released bool
}

// AcquireLock takes the ".lock" sibling of indexPath. Failure to
// acquire is fatal to the caller (§5 "die on error"): wrap the
// returned error with Refused at the strategy boundary.
func AcquireLock(indexPath string) (*Lock, error) {
	lf, err := lockfile.New(filepath.Clean(indexPath) + ".lock")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexLockFailed, err)
	}
	// lockfile treats a lock already held by this same process as its
	// own and re-takes it; a second holder in-process is still a holder.
	if owner, err := lf.GetOwner(); err == nil && owner.Pid == os.Getpid() {
		return nil, fmt.Errorf("%w: %w", ErrIndexLockFailed, lockfile.ErrBusy)
	}
	if err := lf.TryLock(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIndexLockFailed, err)
	}
	return &Lock{lf: lf}, nil
}

// Commit persists idx via persist, then releases the lock. The lock
// is released even when persist fails, since the failure itself
// already means the critical section is over; the caller still sees
// the error and must treat it as an infrastructure failure.
func (l *Lock) Commit(idx *Index, persist PersistIndexFunc) error {
	if l.released {
		return fmt.Errorf("merge: lock already released")
	}
	perr := persist(idx)
	l.released = true
	if err := l.lf.Unlock(); err != nil && perr == nil {
		return err
	}
	return perr
}

// Rollback releases the lock without persisting, leaving whatever
// index state existed before the lock was taken untouched (§5 "On any
// error inside the critical section, rollback").
func (l *Lock) Rollback() error {
	if l.released {
		return nil
	}
	l.released = true
	return l.lf.Unlock()
}
