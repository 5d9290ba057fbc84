// Package previewfs exposes an already-rendered output tree for local
// preview, read-only, via FUSE or NFS — adapted from the teacher's
// internal/fs (FUSE root node) and internal/nfsmount (go-nfs server
// over a billy.Filesystem), pointed at Sitix's OutputStore instead of
// mache's projected graph.
//
// Mounting happens strictly after a build completes: the mount layer
// never renders anything itself, only serves bytes the render pass
// already wrote (spec.md §5's single-threaded render model is never
// shared with a mount's request goroutines).
package previewfs

import (
	"fmt"
	"os"

	billy "github.com/go-git/go-billy/v5"
)

var errReadOnly = fmt.Errorf("previewfs: read-only filesystem")

// ReadOnly wraps a billy.Filesystem, rejecting every mutating call.
// Grounded on the teacher's nfsmount.GraphFS, which rejects writes
// the same way when its writeBack callback isn't configured.
type ReadOnly struct {
	billy.Filesystem
}

// Wrap returns fs as a read-only billy.Filesystem.
func Wrap(fs billy.Filesystem) *ReadOnly {
	return &ReadOnly{Filesystem: fs}
}

func (r *ReadOnly) Create(filename string) (billy.File, error) {
	return nil, errReadOnly
}

func (r *ReadOnly) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_APPEND|os.O_TRUNC) != 0 {
		return nil, errReadOnly
	}
	return r.Filesystem.Open(filename)
}

func (r *ReadOnly) Rename(oldpath, newpath string) error {
	return errReadOnly
}

func (r *ReadOnly) Remove(filename string) error {
	return errReadOnly
}

func (r *ReadOnly) MkdirAll(filename string, perm os.FileMode) error {
	return errReadOnly
}

func (r *ReadOnly) TempFile(dir, prefix string) (billy.File, error) {
	return nil, errReadOnly
}

func (r *ReadOnly) Symlink(target, link string) error {
	return errReadOnly
}

func (r *ReadOnly) Chroot(path string) (billy.Filesystem, error) {
	inner, err := r.Filesystem.Chroot(path)
	if err != nil {
		return nil, err
	}
	return &ReadOnly{Filesystem: inner}, nil
}

