package previewfs

import (
	"io"
	"strings"
	"sync"
	"sync/atomic"

	billy "github.com/go-git/go-billy/v5"
	"github.com/winfsp/cgofuse/fuse"
)

// FS is a read-only FUSE filesystem over a billy.Filesystem, grounded
// on the teacher's cgofuse-based mount in cmd/mount.go (FileSystemHost
// over a FileSystemBase-embedding type) rather than the go-fuse/v2
// variant in internal/fs/root.go, since winfsp/cgofuse is the driver
// this module actually depends on.
type FS struct {
	fuse.FileSystemBase

	fs billy.Filesystem

	mu      sync.Mutex
	handles map[uint64]billy.File
	nextFH  uint64
}

// NewFS serves fs read-only over FUSE.
func NewFS(fs billy.Filesystem) *FS {
	return &FS{fs: Wrap(fs), handles: make(map[uint64]billy.File)}
}

func clean(path string) string {
	return strings.TrimPrefix(path, "/")
}

func (f *FS) Getattr(path string, stat *fuse.Stat_t, fh uint64) int {
	info, err := f.fs.Stat(clean(path))
	if err != nil {
		return -fuse.ENOENT
	}
	if info.IsDir() {
		stat.Mode = fuse.S_IFDIR | 0o555
	} else {
		stat.Mode = fuse.S_IFREG | 0o444
	}
	stat.Size = info.Size()
	mtime := info.ModTime().Unix()
	stat.Mtim.Sec, stat.Ctim.Sec, stat.Atim.Sec = mtime, mtime, mtime
	return 0
}

func (f *FS) Opendir(path string) (int, uint64) {
	return f.open(path)
}

func (f *FS) Open(path string, flags int) (int, uint64) {
	return f.open(path)
}

func (f *FS) open(path string) (int, uint64) {
	file, err := f.fs.Open(clean(path))
	if err != nil {
		return -fuse.ENOENT, 0
	}
	f.mu.Lock()
	fh := atomic.AddUint64(&f.nextFH, 1)
	f.handles[fh] = file
	f.mu.Unlock()
	return 0, fh
}

func (f *FS) Read(path string, buff []byte, ofst int64, fh uint64) int {
	f.mu.Lock()
	file, ok := f.handles[fh]
	f.mu.Unlock()
	if !ok {
		return -fuse.EBADF
	}
	n, err := file.ReadAt(buff, ofst)
	if err != nil && err != io.EOF {
		return -fuse.EIO
	}
	return n
}

func (f *FS) Release(path string, fh uint64) int {
	return f.releaseHandle(fh)
}

func (f *FS) Releasedir(path string, fh uint64) int {
	return f.releaseHandle(fh)
}

func (f *FS) releaseHandle(fh uint64) int {
	f.mu.Lock()
	file, ok := f.handles[fh]
	delete(f.handles, fh)
	f.mu.Unlock()
	if !ok {
		return -fuse.EBADF
	}
	_ = file.Close()
	return 0
}

func (f *FS) Readdir(path string, fill func(name string, stat *fuse.Stat_t, ofst int64) bool, ofst int64, fh uint64) int {
	infos, err := f.fs.ReadDir(clean(path))
	if err != nil {
		return -fuse.ENOENT
	}
	fill(".", nil, 0)
	fill("..", nil, 0)
	for _, info := range infos {
		fill(info.Name(), nil, 0)
	}
	return 0
}
