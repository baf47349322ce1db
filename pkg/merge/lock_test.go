// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLockRejectsSecondHolder(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index")

	lock, err := AcquireLock(indexPath)
	require.NoError(t, err)

	_, err = AcquireLock(indexPath)
	assert.ErrorIs(t, err, ErrIndexLockFailed)

	require.NoError(t, lock.Rollback())

	lock2, err := AcquireLock(indexPath)
	require.NoError(t, err)
	require.NoError(t, lock2.Rollback())
}

func TestLockCommitPersistsAndReleases(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index")
	lock, err := AcquireLock(indexPath)
	require.NoError(t, err)

	idx := NewIndex()
	var persisted *Index
	err = lock.Commit(idx, func(i *Index) error {
		persisted = i
		return nil
	})
	require.NoError(t, err)
	assert.Same(t, idx, persisted)

	// Lock must be free for a new holder now.
	lock2, err := AcquireLock(indexPath)
	require.NoError(t, err)
	require.NoError(t, lock2.Rollback())
}

func TestLockCommitTwiceFails(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index")
	lock, err := AcquireLock(indexPath)
	require.NoError(t, err)

	require.NoError(t, lock.Commit(NewIndex(), func(*Index) error { return nil }))
	err = lock.Commit(NewIndex(), func(*Index) error { return nil })
	assert.Error(t, err)
}

func TestLockRollbackIsIdempotent(t *testing.T) {
	indexPath := filepath.Join(t.TempDir(), "index")
	lock, err := AcquireLock(indexPath)
	require.NoError(t, err)

	require.NoError(t, lock.Rollback())
	require.NoError(t, lock.Rollback())
}
