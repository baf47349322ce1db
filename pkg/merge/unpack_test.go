// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"context"
	"testing"

	"github.com/antgroup/hugescm/modules/plumbing/filemode"
	"github.com/antgroup/hugescm/modules/zeta/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileEntry(name string, mode FileMode, oid OID) *object.TreeEntry {
	return &object.TreeEntry{Name: name, Mode: mode, Hash: oid}
}

func TestFastForwardOneway(t *testing.T) {
	store := newMemStore()
	idx := NewIndex()
	wt := NewWorkingTree(t.TempDir())

	aOID := store.putBlob([]byte("a content"))
	tree := &object.Tree{Entries: []*object.TreeEntry{fileEntry("a.txt", filemode.Regular, aOID)}}
	treeOID := store.putTree(tree)

	require.NoError(t, FastForward(context.Background(), store, wt, idx, []OID{treeOID}, true))
	assert.True(t, idx.HasStageZero("a.txt"))
	got, err := wt.ReadFile("a.txt")
	require.NoError(t, err)
	assert.Equal(t, "a content", string(got))
}

func TestFastForwardTwowayRemovesAndAdds(t *testing.T) {
	store := newMemStore()
	idx := NewIndex()
	wt := NewWorkingTree(t.TempDir())

	oldOID := store.putBlob([]byte("old"))
	oldTree := store.putTree(&object.Tree{Entries: []*object.TreeEntry{fileEntry("old.txt", filemode.Regular, oldOID)}})
	newOID := store.putBlob([]byte("new"))
	newTree := store.putTree(&object.Tree{Entries: []*object.TreeEntry{fileEntry("new.txt", filemode.Regular, newOID)}})

	require.NoError(t, FastForward(context.Background(), store, wt, idx, []OID{oldTree, newTree}, true))
	assert.False(t, idx.HasStageZero("old.txt"))
	assert.True(t, idx.HasStageZero("new.txt"))
	assert.False(t, wt.Exists("old.txt"))
	assert.True(t, wt.Exists("new.txt"))
}

func TestFastForwardThreewayAggressiveResolvesUntouchedSide(t *testing.T) {
	store := newMemStore()
	idx := NewIndex()
	wt := NewWorkingTree(t.TempDir())

	sharedOID := store.putBlob([]byte("shared"))
	changedOID := store.putBlob([]byte("changed by remote"))

	base := store.putTree(&object.Tree{Entries: []*object.TreeEntry{fileEntry("f.txt", filemode.Regular, sharedOID)}})
	head := store.putTree(&object.Tree{Entries: []*object.TreeEntry{fileEntry("f.txt", filemode.Regular, sharedOID)}})
	remote := store.putTree(&object.Tree{Entries: []*object.TreeEntry{fileEntry("f.txt", filemode.Regular, changedOID)}})

	require.NoError(t, FastForward(context.Background(), store, wt, idx, []OID{base, head, remote}, true))
	assert.True(t, idx.HasStageZero("f.txt"))
	assert.False(t, idx.Unresolved("f.txt"))
	e, ok := idx.Get("f.txt", StageMerged)
	require.True(t, ok)
	assert.Equal(t, changedOID, e.OID)
}

func TestFastForwardThreewayNonAggressiveStagesConflict(t *testing.T) {
	store := newMemStore()
	idx := NewIndex()
	wt := NewWorkingTree(t.TempDir())

	baseOID := store.putBlob([]byte("base"))
	oursOID := store.putBlob([]byte("ours"))
	theirsOID := store.putBlob([]byte("theirs"))

	base := store.putTree(&object.Tree{Entries: []*object.TreeEntry{fileEntry("f.txt", filemode.Regular, baseOID)}})
	head := store.putTree(&object.Tree{Entries: []*object.TreeEntry{fileEntry("f.txt", filemode.Regular, oursOID)}})
	remote := store.putTree(&object.Tree{Entries: []*object.TreeEntry{fileEntry("f.txt", filemode.Regular, theirsOID)}})

	require.NoError(t, FastForward(context.Background(), store, wt, idx, []OID{base, head, remote}, false))
	assert.False(t, idx.HasStageZero("f.txt"))
	assert.True(t, idx.Unresolved("f.txt"))
	tr := idx.Triple("f.txt")
	assert.Equal(t, baseOID, tr.Orig.OID)
	assert.Equal(t, oursOID, tr.Ours.OID)
	assert.Equal(t, theirsOID, tr.Theirs.OID)
}

func TestFastForwardNestedDirectories(t *testing.T) {
	store := newMemStore()
	idx := NewIndex()
	wt := NewWorkingTree(t.TempDir())

	innerOID := store.putBlob([]byte("nested"))
	innerTree := store.putTree(&object.Tree{Entries: []*object.TreeEntry{fileEntry("inner.txt", filemode.Regular, innerOID)}})
	rootTree := store.putTree(&object.Tree{Entries: []*object.TreeEntry{fileEntry("sub", filemode.Dir, innerTree)}})

	require.NoError(t, FastForward(context.Background(), store, wt, idx, []OID{rootTree}, true))
	assert.True(t, idx.HasStageZero("sub/inner.txt"))
	got, err := wt.ReadFile("sub/inner.txt")
	require.NoError(t, err)
	assert.Equal(t, "nested", string(got))
}
