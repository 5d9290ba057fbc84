package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [SOURCE_DIR]",
	Short: "Render SOURCE_DIR into the output directory once",
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

		start := time.Now()
		if err := d.initialPass(); err != nil {
			return err
		}
		fmt.Printf("built %s -> %s in %v\n", d.sourceDir, d.outDir, time.Since(start))
		return nil
	},
}
