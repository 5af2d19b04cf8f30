package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkoelbl/treescope/pkg/template"
)

// templateCommand creates the template command group for reusable
// folder structures.
func (c *CLI) templateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Save and apply folder-structure templates",
		Long: `Templates capture the shape of a folder subtree as an indented
text file so the same structure can be recreated elsewhere. Template
files live in a .templates directory (under the working directory by
default).`,
	}

	cmd.AddCommand(c.templateSaveCommand())
	cmd.AddCommand(c.templateApplyCommand())
	cmd.AddCommand(c.templateListCommand())

	return cmd
}

// templatesDirFlag adds the shared --dir flag.
func templatesDirFlag(cmd *cobra.Command, dir *string) {
	cmd.Flags().StringVar(dir, "dir", template.Dir, "templates directory")
}

// templateSaveCommand creates the "template save" subcommand.
func (c *CLI) templateSaveCommand() *cobra.Command {
	var (
		name string
		dir  string
	)

	cmd := &cobra.Command{
		Use:   "save [folder]",
		Short: "Save a folder's structure as a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := c.pipelineOptions(args[0])
			runner, err := c.newRunner(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer runner.Close()

			t, err := runner.Scan(cmd.Context(), opts)
			if err != nil {
				return err
			}

			root, err := template.FromTree(t, t.RootPath())
			if err != nil {
				return err
			}
			if name == "" {
				name = filepath.Base(t.RootPath())
			}

			path, err := template.Save(dir, name, root)
			if err != nil {
				return err
			}
			printSuccess("Saved template %q", name)
			printFile(path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "template name (default: folder name)")
	templatesDirFlag(cmd, &dir)
	return cmd
}

// templateApplyCommand creates the "template apply" subcommand.
func (c *CLI) templateApplyCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "apply [name] [target]",
		Short: "Create a template's folder structure under target",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			tmpl, err := template.Load(dir, args[0])
			if err != nil {
				return err
			}

			created, err := template.Apply(tmpl, args[1])
			if err != nil {
				return err
			}

			printSuccess("Applied template %q: %d folders created", args[0], len(created))
			for _, p := range created {
				printFile(p)
			}
			printNextStep("View it", fmt.Sprintf("%s view %s", appName, args[1]))
			return nil
		},
	}

	templatesDirFlag(cmd, &dir)
	return cmd
}

// templateListCommand creates the "template list" subcommand.
func (c *CLI) templateListCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List saved templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := template.List(dir)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("No templates saved")
				return nil
			}
			for _, n := range names {
				fmt.Println(StyleValue.Render(n))
			}
			return nil
		},
	}

	templatesDirFlag(cmd, &dir)
	return cmd
}
