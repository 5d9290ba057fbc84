package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sitix-run/sitix/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [SOURCE_DIR]",
	Short: "Render SOURCE_DIR once, then re-render on every change",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := ""
		if len(args) == 1 {
			source = args[0]
		}

		d, err := newDriver(source, cmd.Flags().Changed("output"))
		if err != nil {
			return err
		}
		defer d.close()

		if err := d.initialPass(); err != nil {
			return err
		}
		fmt.Printf("built %s -> %s\n", d.sourceDir, d.outDir)

		if !watchAfter {
			return nil
		}

		stream, err := watcher.NewInotifyStream(d.sourceDir)
		if err != nil {
			return fmt.Errorf("sitix: start watcher: %w", err)
		}
		defer func() { _ = stream.Close() }()

		w := watcher.NewWatcher(stream, d.graph, d.renderPath, d.removePath)
		fmt.Printf("watching %s for changes (ctrl-c to stop)...\n", d.sourceDir)
		return w.Run()
	},
}

func (d *driver) renderPath(path string) error {
	d.source.Evict(path)
	return d.buildAndHash(path)
}

func (d *driver) removePath(path string) error {
	return d.output.Filesystem().Remove(path)
}
