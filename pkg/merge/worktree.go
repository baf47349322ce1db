// Copyright ©️ Ant Group. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package merge

import (
	"io"
	"os"

	"github.com/antgroup/hugescm/modules/plumbing/filemode"
	"github.com/antgroup/hugescm/modules/vfs"
)

// WorkingTree is the checkout-primitives collaborator §1 leaves
// external: reading, writing and removing files at recorded paths.
// modules/vfs.VFS, bound to the repository root, satisfies this.
type WorkingTree struct {
	fs vfs.VFS
}

// NewWorkingTree binds a working tree rooted at dir.
func NewWorkingTree(dir string) *WorkingTree {
	return &WorkingTree{fs: vfs.NewVFS(dir)}
}

// Exists reports whether path is present in the working tree,
// regardless of what it contains — used by the add-on-theirs-only
// untracked guard (§4.B case 3).
func (w *WorkingTree) Exists(path string) bool {
	_, err := w.fs.Lstat(path)
	return err == nil
}

// ReadFile reads the full content at path.
func (w *WorkingTree) ReadFile(path string) ([]byte, error) {
	f, err := w.fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// WriteFile writes content to path with the given mode, unlinking any
// existing file first (§4.B "Writing the buffer is atomic at the
// write level: unlink-then-create-then-write_all").
func (w *WorkingTree) WriteFile(path string, mode FileMode, content []byte) error {
	if err := w.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	perm := os.FileMode(0o644)
	if mode == filemode.Executable {
		perm = 0o755
	}
	f, err := w.fs.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Remove deletes path if present; absence is not an error.
func (w *WorkingTree) Remove(path string) error {
	if err := w.fs.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
