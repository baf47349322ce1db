// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

// Package merge implements the tree-merging strategies of zeta: a
// per-path three-way file merger, a resolve strategy that composes it
// with a tree unpack, and an octopus strategy that folds N remotes
// against a single base.
//
// The package deliberately treats the object store, OID hashing, file
// modes and the textual three-way merge engine as external
// collaborators, provided by github.com/antgroup/hugescm. Only the
// merge state machine itself — the index primitives, the per-path
// merger, the driver, and the resolve/octopus strategies — lives here.
package merge

import (
	"github.com/antgroup/hugescm/modules/plumbing"
	"github.com/antgroup/hugescm/modules/plumbing/filemode"
)

// OID is the opaque content address of a blob, tree or commit.
type OID = plumbing.Hash

// FileMode is a small integer describing a tree entry's type: regular
// file, symlink, directory or submodule.
type FileMode = filemode.FileMode

// ZeroOID is the distinguished null OID meaning "absent".
var ZeroOID = plumbing.ZeroHash
