package previewfs

import (
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	billy "github.com/go-git/go-billy/v5"
	"github.com/winfsp/cgofuse/fuse"

	"github.com/sitix-run/sitix/internal/nfsmount"
)

// MountFUSE mounts fs read-only at mountPoint using cgofuse, blocking
// until SIGINT/SIGTERM, then unmounts. Grounded on the teacher's
// mountFUSE (cmd/mount.go): same mount option set, minus the
// writable/query-dir extensions Sitix's read-only preview has no use
// for.
func MountFUSE(fs billy.Filesystem, mountPoint string) error {
	host := fuse.NewFileSystemHost(NewFS(fs))
	host.SetCapReaddirPlus(true)

	opts := []string{
		"-o", "ro",
		"-o", fmt.Sprintf("uid=%d", os.Getuid()),
		"-o", fmt.Sprintf("gid=%d", os.Getgid()),
		"-o", "fsname=sitix",
		"-o", "subtype=sitix",
	}
	if runtime.GOOS == "darwin" {
		opts = append(opts, "-o", "nobrowse")
	}

	if !host.Mount(mountPoint, opts) {
		return fmt.Errorf("previewfs: fuse mount failed")
	}
	return nil
}

// MountNFS starts a read-only NFS server over fs and mounts it at
// mountPoint, blocking until SIGINT/SIGTERM. Grounded on the teacher's
// mountNFS (cmd/mount.go), reusing nfsmount.Server/Mount/Unmount
// directly since they already take a bare billy.Filesystem.
func MountNFS(fs billy.Filesystem, mountPoint string) error {
	srv, err := nfsmount.NewServer(Wrap(fs))
	if err != nil {
		return fmt.Errorf("previewfs: start nfs server: %w", err)
	}
	defer func() { _ = srv.Close() }()

	if err := nfsmount.Mount(srv.Port(), mountPoint, false); err != nil {
		return err
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	if err := nfsmount.Unmount(mountPoint); err != nil {
		return fmt.Errorf("previewfs: unmount %s: %w", mountPoint, err)
	}
	return nil
}
