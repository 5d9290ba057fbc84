package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sitix-run/sitix/internal/previewfs"
	"github.com/sitix-run/sitix/internal/store"
)

var mountCmd = &cobra.Command{
	Use:   "mount OUTPUT_DIR MOUNTPOINT",
	Short: "Mount an already-built output directory read-only for local preview",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir, mountPoint := args[0], args[1]

		out, err := store.NewOSStore(outDir)
		if err != nil {
			return fmt.Errorf("sitix: open output dir %q: %w", outDir, err)
		}
		fmt.Printf("mounting %s at %s (%s)...\n", outDir, mountPoint, mountBackend)
		switch mountBackend {
		case "nfs":
			return previewfs.MountNFS(out.Filesystem(), mountPoint)
		case "fuse":
			return previewfs.MountFUSE(out.Filesystem(), mountPoint)
		default:
			return fmt.Errorf("sitix: unknown mount backend %q (use fuse or nfs)", mountBackend)
		}
	},
}
