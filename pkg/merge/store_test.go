// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/zeta/object"
)

// memStore is a minimal in-memory Store, content-addressed the same
// way the real object store is, used so every test in this package can
// exercise the merge state machine without a real backend.ODB.
type memStore struct {
	blobs   map[OID][]byte
	trees   map[OID]*object.Tree
	commits map[OID]*object.Commit
}

func newMemStore() *memStore {
	return &memStore{
		blobs:   make(map[OID][]byte),
		trees:   make(map[OID]*object.Tree),
		commits: make(map[OID]*object.Commit),
	}
}

func hashBytes(b []byte) OID {
	h := plumbing.NewHasher()
	_, _ = h.Write(b)
	return h.Sum()
}

func (s *memStore) putBlob(content []byte) OID {
	oid := hashBytes(content)
	s.blobs[oid] = content
	return oid
}

func (s *memStore) putTree(t *object.Tree) OID {
	var buf bytes.Buffer
	if err := t.Encode(&buf); err != nil {
		panic(err)
	}
	oid := hashBytes(buf.Bytes())
	s.trees[oid] = t
	return oid
}

func (s *memStore) putCommit(tree OID, parents ...OID) OID {
	c := &object.Commit{Tree: tree, Parents: parents, Message: "test commit"}
	oid := hashBytes(append(append([]byte{}, tree[:]...), byte(len(s.commits))))
	c.Hash = oid
	s.commits[oid] = c
	return oid
}

func (s *memStore) Blob(ctx context.Context, oid plumbing.Hash) (*object.Blob, error) {
	b, ok := s.blobs[oid]
	if !ok {
		return nil, fmt.Errorf("memStore: blob not found: %s", oid)
	}
	return &object.Blob{Contents: bytes.NewReader(b), Size: int64(len(b))}, nil
}

func (s *memStore) Tree(ctx context.Context, oid plumbing.Hash) (*object.Tree, error) {
	t, ok := s.trees[oid]
	if !ok {
		return nil, fmt.Errorf("memStore: tree not found: %s", oid)
	}
	return t, nil
}

func (s *memStore) Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error) {
	c, ok := s.commits[oid]
	if !ok {
		return nil, fmt.Errorf("memStore: commit not found: %s", oid)
	}
	return c, nil
}

func (s *memStore) HashTo(ctx context.Context, r io.Reader, size int64) (plumbing.Hash, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	oid := hashBytes(data)
	s.blobs[oid] = data
	return oid, nil
}

func (s *memStore) WriteEncoded(e object.Encoder) (plumbing.Hash, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf); err != nil {
		return plumbing.ZeroHash, err
	}
	oid := hashBytes(buf.Bytes())
	if t, ok := e.(*object.Tree); ok {
		s.trees[oid] = t
	}
	return oid, nil
}

func (s *memStore) EmptyTree() *object.Tree {
	return &object.Tree{}
}
