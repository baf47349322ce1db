// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"context"
	"testing"

	"github.com/antgroup/hugescm/modules/plumbing/filemode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyPath(t *testing.T) {
	assert.NoError(t, verifyPath("a/b/c.txt"))
	assert.ErrorIs(t, verifyPath(""), ErrInvalidPath)
	assert.ErrorIs(t, verifyPath("a/../b"), ErrInvalidPath)
	assert.ErrorIs(t, verifyPath("a/b\x00c"), ErrInvalidPath)
	assert.ErrorIs(t, verifyPath("a/.."), ErrInvalidPath)
}

func TestAddCacheinfoSupersedesStages(t *testing.T) {
	idx := NewIndex()
	idx.SetStage("f.txt", StageBase, filemode.Regular, hashBytes([]byte("o")))
	idx.SetStage("f.txt", StageOurs, filemode.Regular, hashBytes([]byte("a")))
	idx.SetStage("f.txt", StageTheirs, filemode.Regular, hashBytes([]byte("b")))
	require.True(t, idx.Unresolved("f.txt"))

	resolved := hashBytes([]byte("merged"))
	require.NoError(t, idx.AddCacheinfo(filemode.Regular, resolved, "f.txt"))

	assert.False(t, idx.Unresolved("f.txt"))
	assert.True(t, idx.HasStageZero("f.txt"))
	e, ok := idx.Get("f.txt", StageMerged)
	require.True(t, ok)
	assert.Equal(t, resolved, e.OID)
}

func TestCheckoutWritesWorkingTreeFile(t *testing.T) {
	store := newMemStore()
	content := []byte("hello world\n")
	oid := store.putBlob(content)

	idx := NewIndex()
	require.NoError(t, idx.AddCacheinfo(filemode.Regular, oid, "greeting.txt"))

	wt := NewWorkingTree(t.TempDir())
	require.NoError(t, idx.Checkout(context.Background(), store, wt, "greeting.txt"))

	got, err := wt.ReadFile("greeting.txt")
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestTripleBuildsFromStages(t *testing.T) {
	idx := NewIndex()
	o, a, b := hashBytes([]byte("o")), hashBytes([]byte("a")), hashBytes([]byte("b"))
	idx.SetStage("f.txt", StageBase, filemode.Regular, o)
	idx.SetStage("f.txt", StageOurs, filemode.Regular, a)
	idx.SetStage("f.txt", StageTheirs, filemode.Executable, b)

	tr := idx.Triple("f.txt")
	require.NotNil(t, tr.Orig)
	require.NotNil(t, tr.Ours)
	require.NotNil(t, tr.Theirs)
	assert.Equal(t, o, tr.Orig.OID)
	assert.Equal(t, a, tr.Ours.OID)
	assert.Equal(t, b, tr.Theirs.OID)
	assert.Equal(t, filemode.Executable, tr.Theirs.Mode)
}

func TestCloneIsIndependent(t *testing.T) {
	idx := NewIndex()
	require.NoError(t, idx.AddCacheinfo(filemode.Regular, hashBytes([]byte("x")), "a.txt"))

	clone := idx.Clone()
	clone.RemoveEntry("a.txt")

	assert.True(t, idx.HasStageZero("a.txt"))
	assert.False(t, clone.HasStageZero("a.txt"))
}

func TestPathsSorted(t *testing.T) {
	idx := NewIndex()
	for _, p := range []string{"z.txt", "a.txt", "m/b.txt"} {
		require.NoError(t, idx.AddCacheinfo(filemode.Regular, hashBytes([]byte(p)), p))
	}
	assert.Equal(t, []string{"a.txt", "m/b.txt", "z.txt"}, idx.Paths())
}
