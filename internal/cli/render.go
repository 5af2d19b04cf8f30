package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mkoelbl/treescope/pkg/pipeline"
)

// renderCommand creates the render command for exporting diagrams.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		output     string
		formatsStr string
		noCache    bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "render [path]",
		Short: "Render a directory tree diagram to file",
		Long: `Render scans the directory tree rooted at path, computes the
diagram layout, and writes the requested output formats.

The term format prints to stdout instead of a file. Results are
cached locally for faster subsequent runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := c.pipelineOptions(args[0])
			mergeScanDefaults(&opts, defaults)
			opts.Formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.Formats); err != nil {
				return err
			}
			return c.runRender(cmd.Context(), opts, output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, png, json, term (comma-separated)")
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "highlight the folder at this path")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "mark unresolved overlaps in the output")
	cmd.Flags().BoolVar(&opts.IncludeFiles, "files", false, "include regular files as leaf nodes")
	cmd.Flags().BoolVar(&opts.ShowHidden, "hidden", false, "include hidden entries")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "limit scan depth (0 = config default)")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "bypass the scan cache")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

// runRender executes the pipeline and writes each artifact.
func (c *CLI) runRender(ctx context.Context, opts pipeline.Options, output string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Rendered %d folders", res.Stats.NodeCount))

	printSuccess("Rendered %s", opts.Root)
	printStats(res.Stats.NodeCount, res.Stats.MaxDepth, res.CacheInfo.RenderHit)
	if res.Stats.Overlaps > 0 {
		printWarning("%d node pairs still overlap", res.Stats.Overlaps)
	}

	base := basePath(output, opts.Root)
	for _, format := range opts.Formats {
		data := res.Artifacts[format]
		if format == pipeline.FormatTerm {
			fmt.Println(string(data))
			continue
		}

		path := artifactPath(base, output, format, len(opts.Formats))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}

// basePath derives the base output path from output and the scanned
// root. When output is empty, the root's base name is used. A known
// format extension on output is stripped so multiple formats can share
// the base.
func basePath(output, root string) string {
	if output == "" {
		base := filepath.Base(filepath.Clean(root))
		if base == string(filepath.Separator) || base == "." {
			base = "tree"
		}
		return base
	}
	ext := strings.TrimPrefix(filepath.Ext(output), ".")
	if pipeline.ValidFormats[ext] {
		return strings.TrimSuffix(output, "."+ext)
	}
	return output
}

// artifactPath builds the output file path for one format. A single
// explicit output with a matching extension is kept verbatim.
func artifactPath(base, output, format string, formatCount int) string {
	if output != "" && formatCount == 1 && strings.HasSuffix(output, "."+format) {
		return output
	}
	return base + "." + format
}
