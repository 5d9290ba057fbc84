// Package cmd wires the cobra-based `sitix` driver: `build`, `watch`,
// and `mount` subcommands over the core scope/parser/render engine.
// Grounded on the teacher's cmd/ package (global flag vars registered
// in init(), a cobra.Command per verb, RunE doing the real work) —
// generalised from mache's schema/data/mount-point flags to sitix's
// SOURCE_DIR / -o / -c / -w surface (spec.md §6).
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	outputDir    string
	configFlags  []string
	watchAfter   bool
	mountBackend string
)

func init() {
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(mountCmd)

	for _, c := range []*cobra.Command{buildCmd, watchCmd} {
		c.Flags().StringVarP(&outputDir, "output", "o", "output", "output directory")
		c.Flags().StringArrayVarP(&configFlags, "config", "c", nil, "NAME=VALUE config entry (repeatable)")
	}
	watchCmd.Flags().BoolVarP(&watchAfter, "watch", "w", true, "enter watch loop after the initial build")

	mountCmd.Flags().StringVar(&mountBackend, "backend", "fuse", "mount backend: fuse or nfs")
}

var rootCmd = &cobra.Command{
	Use:   "sitix",
	Short: "Sitix: a static-site template engine",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
