// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"context"
	"io"

	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/zeta/backend"
	"github.com/antgroup/hugescm/modules/zeta/object"
)

// BlankBlobOID is the OID of the empty blob; absent ancestors read as
// this blob's (empty) content.
var BlankBlobOID = backend.BLANK_BLOB_HASH

// Store is the object-store collaborator §1 of the spec leaves
// external: blob/tree read and write, content hashing, and the
// precomputed empty tree. *odb.ODB (github.com/antgroup/hugescm/pkg/zeta/odb)
// satisfies this directly.
type Store interface {
	Blob(ctx context.Context, oid plumbing.Hash) (*object.Blob, error)
	Tree(ctx context.Context, oid plumbing.Hash) (*object.Tree, error)
	Commit(ctx context.Context, oid plumbing.Hash) (*object.Commit, error)
	HashTo(ctx context.Context, r io.Reader, size int64) (plumbing.Hash, error)
	WriteEncoded(e object.Encoder) (plumbing.Hash, error)
	EmptyTree() *object.Tree
}

// CommitTree resolves a commit OID to its root tree OID, used by the
// octopus strategy to turn a remote/head commit into a tree before
// unpacking it (§4.F).
func CommitTree(ctx context.Context, store Store, oid plumbing.Hash) (plumbing.Hash, error) {
	c, err := store.Commit(ctx, oid)
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return c.Tree, nil
}
