package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zulandar/chargeyard/internal/config"
	"github.com/zulandar/chargeyard/internal/export"
	"github.com/zulandar/chargeyard/internal/gantt"
	"github.com/zulandar/chargeyard/internal/project"
)

func newExportCmd() *cobra.Command {
	var (
		configPath string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export a project as JSON",
		Long: `Writes the project's name, client, custom fields, phases and tasks as
indented JSON. By default the file is named after the project, with
whitespace replaced by underscores and a _gantt.json suffix. Use -o - for
stdout.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				if _, err := a.currentUser(cmd.Context()); err != nil {
					return err
				}
				p, err := project.Get(a.db, args[0])
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := export.Write(&buf, p); err != nil {
					return err
				}
				if output == "" {
					output = export.Filename(p.Name)
				}
				return writeOutput(cmd, output, buf.Bytes())
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, - for stdout")
	return cmd
}

// writeOutput writes data to path, or to the command's stdout for "-".
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	if path == "-" {
		_, err := cmd.OutOrStdout().Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(data))
	return nil
}

func newGanttCmd() *cobra.Command {
	var (
		configPath string
		format     string
		output     string
	)

	cmd := &cobra.Command{
		Use:   "gantt <project-id>",
		Short: "Render a project's Gantt chart",
		Long: `Renders the project's schedule as a printable HTML page or an SVG image.
Tasks are grouped by phase; months are sized by the days they cover and
single-day tasks are drawn as milestones.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			render, ext, err := ganttRenderer(format)
			if err != nil {
				return err
			}
			return withApp(configPath, func(a *app) error {
				if _, err := a.currentUser(cmd.Context()); err != nil {
					return err
				}
				p, err := project.Get(a.db, args[0])
				if err != nil {
					return err
				}
				chart, err := gantt.Build(p)
				if err != nil {
					return err
				}
				var buf bytes.Buffer
				if err := render(&buf, chart, a.cfg.Gantt); err != nil {
					return err
				}
				if output == "" {
					output = "-"
				}
				if output == "." {
					output = p.ID + ext
				}
				return writeOutput(cmd, output, buf.Bytes())
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVarP(&format, "format", "f", "html", "html or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file, . for <project-id>.<format>; stdout by default")
	return cmd
}

type ganttRender func(w io.Writer, c *gantt.Chart, opts config.GanttConfig) error

func ganttRenderer(format string) (ganttRender, string, error) {
	switch format {
	case "html":
		return func(w io.Writer, c *gantt.Chart, _ config.GanttConfig) error {
			return gantt.RenderHTML(w, c)
		}, ".html", nil
	case "svg":
		return gantt.RenderSVG, ".svg", nil
	}
	return nil, "", fmt.Errorf("unknown format %q: use html or svg", format)
}
