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

func TestWriteTreeRefusesUnresolvedPaths(t *testing.T) {
	store := newMemStore()
	idx := NewIndex()
	idx.SetStage("f.txt", StageOurs, filemode.Regular, store.putBlob([]byte("ours")))
	idx.SetStage("f.txt", StageTheirs, filemode.Regular, store.putBlob([]byte("theirs")))

	_, err := WriteTree(context.Background(), store, idx)
	assert.ErrorIs(t, err, ErrIndexHasConflicts)
}

func TestWriteTreeRoundTripsFlatEntries(t *testing.T) {
	store := newMemStore()
	idx := NewIndex()
	require.NoError(t, idx.AddCacheinfo(filemode.Regular, store.putBlob([]byte("a")), "a.txt"))
	require.NoError(t, idx.AddCacheinfo(filemode.Regular, store.putBlob([]byte("b")), "b.txt"))

	treeOID, err := WriteTree(context.Background(), store, idx)
	require.NoError(t, err)

	tree, err := store.Tree(context.Background(), treeOID)
	require.NoError(t, err)
	names := make([]string, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		names = append(names, e.Name)
	}
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, names)
}

func TestWriteTreeRoundTripsNestedEntries(t *testing.T) {
	store := newMemStore()
	idx := NewIndex()
	require.NoError(t, idx.AddCacheinfo(filemode.Regular, store.putBlob([]byte("nested")), "dir/sub/file.txt"))
	require.NoError(t, idx.AddCacheinfo(filemode.Regular, store.putBlob([]byte("top")), "top.txt"))

	rootOID, err := WriteTree(context.Background(), store, idx)
	require.NoError(t, err)

	root, err := store.Tree(context.Background(), rootOID)
	require.NoError(t, err)
	require.Len(t, root.Entries, 2)

	var dirEntry *object.TreeEntry
	for _, e := range root.Entries {
		if e.Name == "dir" {
			dirEntry = e
		}
	}
	require.NotNil(t, dirEntry)
	assert.Equal(t, filemode.Dir, dirEntry.Mode)

	sub, err := store.Tree(context.Background(), dirEntry.Hash)
	require.NoError(t, err)
	require.Len(t, sub.Entries, 1)
	assert.Equal(t, "sub", sub.Entries[0].Name)
}
