package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkoelbl/treescope/pkg/fsops"
	"github.com/mkoelbl/treescope/pkg/pipeline"
	"github.com/mkoelbl/treescope/pkg/tree"
)

// scanCommand creates the scan command for walking a directory tree.
func (c *CLI) scanCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a directory tree and print statistics",
		Long: `Scan walks the directory tree rooted at path and prints folder
statistics. With --output, the scanned tree is written as JSON for
later use.

Results are cached locally for faster subsequent runs; --refresh
forces a rescan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := c.pipelineOptions(args[0])
			mergeScanDefaults(&opts, defaults)
			return c.runScan(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the scanned tree as JSON")
	cmd.Flags().BoolVar(&opts.IncludeFiles, "files", false, "include regular files as leaf nodes")
	cmd.Flags().BoolVar(&opts.ShowHidden, "hidden", false, "include hidden entries")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "limit scan depth (0 = config default)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass the scan cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// mergeScanDefaults fills unset flag fields from the config defaults.
// Flags that were left at their zero value inherit the config.
func mergeScanDefaults(opts *pipeline.Options, defaults pipeline.Options) {
	opts.Root = defaults.Root
	opts.Logger = defaults.Logger
	opts.Geometry = defaults.Geometry
	if !opts.IncludeFiles {
		opts.IncludeFiles = defaults.IncludeFiles
	}
	if !opts.ShowHidden {
		opts.ShowHidden = defaults.ShowHidden
	}
	if opts.MaxDepth == 0 {
		opts.MaxDepth = defaults.MaxDepth
	}
}

// runScan walks the tree and reports statistics.
func (c *CLI) runScan(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	t, hit, err := runner.ScanWithCacheInfo(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Scanned %d folders", t.Len()))

	printSuccess("Scanned %s", opts.Root)
	printStats(t.Len(), t.MaxDepth(), hit)
	if n := t.UnreadableCount(); n > 0 {
		printWarning("%d folders could not be read", n)
	}

	if output != "" {
		data, err := tree.Marshal(t)
		if err != nil {
			return fmt.Errorf("serialize tree: %w", err)
		}
		if err := os.WriteFile(output, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", output, err)
		}
		printFile(output)
	}

	printNextStep("Render it", fmt.Sprintf("%s render %s", appName, opts.Root))
	return nil
}

// infoCommand creates the info command for folder properties.
func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info [path]",
		Short: "Show folder properties",
		Long:  `Info reports recursive size, file and folder counts, modification time, and usage of the volume the folder lives on.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			props, err := fsops.Stat(args[0])
			if err != nil {
				return err
			}

			printKeyValue("Name", props.Name)
			printKeyValue("Path", props.Path)
			printKeyValue("Size", formatBytes(props.SizeBytes))
			printKeyValue("Files", fmt.Sprintf("%d", props.Files))
			printKeyValue("Folders", fmt.Sprintf("%d", props.Dirs))
			printKeyValue("Modified", props.Modified.Format("2006-01-02 15:04:05"))
			if props.Unreadable > 0 {
				printWarning("%d entries could not be read", props.Unreadable)
			}
			if v := props.Volume; v != nil {
				printKeyValue("Volume", fmt.Sprintf("%s (%s free of %s, %.1f%% used)",
					v.MountPath, formatBytes(int64(v.FreeBytes)), formatBytes(int64(v.TotalBytes)), v.UsedPercent))
			}
			return nil
		},
	}
}

// formatBytes renders a byte count in human units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
