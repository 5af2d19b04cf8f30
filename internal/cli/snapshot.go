package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkoelbl/treescope/pkg/diagram"
	"github.com/mkoelbl/treescope/pkg/pipeline"
	"github.com/mkoelbl/treescope/pkg/store"
)

// snapshotCommand creates the snapshot command group for publishing
// diagrams to MongoDB.
func (c *CLI) snapshotCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Publish and manage diagram snapshots",
		Long: `Snapshot publishes laid-out diagrams to a MongoDB collection so
they can be shared or compared later. The connection URI comes from
store.mongo_uri in the config file.`,
	}

	cmd.AddCommand(c.snapshotPushCommand())
	cmd.AddCommand(c.snapshotPullCommand())
	cmd.AddCommand(c.snapshotListCommand())
	cmd.AddCommand(c.snapshotDeleteCommand())

	return cmd
}

// openStore connects to the configured snapshot store.
func (c *CLI) openStore(ctx context.Context) (*store.SnapshotStore, error) {
	uri, err := c.requireMongo()
	if err != nil {
		return nil, err
	}

	sp := newSpinnerWithContext(ctx, "Connecting to snapshot store")
	sp.Start()
	st, err := store.NewSnapshotStore(ctx, uri)
	sp.Stop()
	return st, err
}

// snapshotPushCommand creates the "snapshot push" subcommand.
func (c *CLI) snapshotPushCommand() *cobra.Command {
	var (
		name    string
		noCache bool
	)
	opts := pipeline.Options{}

	cmd := &cobra.Command{
		Use:   "push [path]",
		Short: "Scan, lay out, and publish a diagram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			defaults := c.pipelineOptions(args[0])
			mergeScanDefaults(&opts, defaults)
			if name == "" {
				name = filepath.Base(filepath.Clean(opts.Root))
			}
			return c.runSnapshotPush(cmd.Context(), opts, name, noCache)
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "snapshot name (default: root folder name)")
	cmd.Flags().BoolVar(&opts.IncludeFiles, "files", false, "include regular files as leaf nodes")
	cmd.Flags().BoolVar(&opts.ShowHidden, "hidden", false, "include hidden entries")
	cmd.Flags().IntVar(&opts.MaxDepth, "max-depth", 0, "limit scan depth (0 = config default)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runSnapshotPush(ctx context.Context, opts pipeline.Options, name string, noCache bool) error {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Formats = []string{pipeline.FormatJSON}
	res, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}

	st, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close(ctx)

	snap, err := st.Save(ctx, name, res.Diagram)
	if err != nil {
		return err
	}

	printSuccess("Published snapshot %q", snap.Name)
	printDetail("ID: %s", snap.ID)
	printDetail("Folders: %d", len(snap.Diagram.Nodes))
	return nil
}

// snapshotPullCommand creates the "snapshot pull" subcommand.
func (c *CLI) snapshotPullCommand() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "pull [name]",
		Short: "Download a published diagram as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			snap, err := st.Load(ctx, args[0])
			if err != nil {
				return err
			}

			data, err := diagram.Marshal(snap.Diagram)
			if err != nil {
				return err
			}

			path := output
			if path == "" {
				path = snap.Name + ".json"
			}
			if err := os.WriteFile(path, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}

			printSuccess("Pulled snapshot %q", snap.Name)
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <name>.json)")
	return cmd
}

// snapshotListCommand creates the "snapshot list" subcommand.
func (c *CLI) snapshotListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List published snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			snaps, err := st.List(ctx)
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				printInfo("No snapshots published")
				return nil
			}

			for _, s := range snaps {
				fmt.Printf("%s  %s  %s\n",
					StyleValue.Render(fmt.Sprintf("%-24s", s.Name)),
					StyleDim.Render(s.CreatedAt.Format("2006-01-02 15:04")),
					StyleDim.Render(s.Root))
			}
			return nil
		},
	}
}

// snapshotDeleteCommand creates the "snapshot delete" subcommand.
func (c *CLI) snapshotDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [name]",
		Short: "Delete a published snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close(ctx)

			if err := st.Delete(ctx, args[0]); err != nil {
				return err
			}
			printSuccess("Deleted snapshot %q", args[0])
			return nil
		},
	}
}
