package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/notify"
	"github.com/zulandar/chargeyard/internal/project"
	"github.com/zulandar/chargeyard/internal/timeline"
)

func newProjectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project management commands",
	}

	cmd.AddCommand(newProjectCreateCmd())
	cmd.AddCommand(newProjectListCmd())
	cmd.AddCommand(newProjectShowCmd())
	cmd.AddCommand(newProjectUpdateCmd())
	cmd.AddCommand(newProjectDeleteCmd())
	cmd.AddCommand(newProjectProgressCmd())
	return cmd
}

func newProjectCreateCmd() *cobra.Command {
	var (
		configPath string
		opts       project.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectCreate(cmd, configPath, opts)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.Name, "name", "", "project name (required)")
	cmd.Flags().StringVar(&opts.Client, "client", "", "client name")
	cmd.MarkFlagRequired("name")
	return cmd
}

func runProjectCreate(cmd *cobra.Command, configPath string, opts project.CreateOpts) error {
	return withWriter(cmd, configPath, func(a *app, p *models.Profile) error {
		opts.OwnerID = p.ID
		created, err := project.Create(a.db, opts)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created project %s: %s\n", created.ID, created.Name)
		return nil
	})
}

func newProjectListCmd() *cobra.Command {
	var (
		configPath string
		filters    project.ListFilters
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, most recently updated first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProjectList(cmd, configPath, filters)
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&filters.Client, "client", "", "filter by client")
	return cmd
}

func runProjectList(cmd *cobra.Command, configPath string, filters project.ListFilters) error {
	return withApp(configPath, func(a *app) error {
		if _, err := a.currentUser(cmd.Context()); err != nil {
			return err
		}
		list, err := project.List(a.db, filters)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No projects found.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCLIENT\tPHASES\tTASKS\tPROGRESS\tUPDATED")
		for _, s := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s %d%%\t%s\n",
				s.ID, s.Name, dash(s.Client), s.PhaseCount, s.TaskCount,
				s.ProgressStatus, s.ProgressPercent, s.UpdatedAt.Local().Format("2006-01-02"))
		}
		return w.Flush()
	})
}

func newProjectShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a project's phases, fields and tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(configPath, func(a *app) error {
				if _, err := a.currentUser(cmd.Context()); err != nil {
					return err
				}
				p, err := project.Get(a.db, args[0])
				if err != nil {
					return err
				}
				return printProject(cmd.OutOrStdout(), p)
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func printProject(out io.Writer, p *models.Project) error {
	fmt.Fprintf(out, "Project:  %s\n", p.Name)
	fmt.Fprintf(out, "ID:       %s\n", p.ID)
	fmt.Fprintf(out, "Client:   %s\n", dash(p.Client))
	fmt.Fprintf(out, "Progress: %s (%d%%)\n", p.ProgressStatus, p.ProgressPercent)
	fmt.Fprintf(out, "Updated:  %s\n", p.UpdatedAt.Local().Format("2006-01-02 15:04"))

	if len(p.CustomFields) > 0 {
		fmt.Fprintln(out, "\nCustom fields:")
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  ID\tNAME\tTYPE\tOPTIONS\tREQUIRED")
		for _, f := range p.CustomFields {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%t\n", f.ID, f.Name, f.Type, dash(strings.Join(f.Options, ", ")), f.Required)
		}
		w.Flush()
	}

	phaseNames := make(map[string]string, len(p.Phases))
	for _, ph := range p.Phases {
		phaseNames[ph.ID] = ph.Name
	}
	fmt.Fprintf(out, "\nPhases (%d):\n", len(p.Phases))
	for _, ph := range p.Phases {
		fmt.Fprintf(out, "  %s  %-24s %s\n", ph.ID, ph.Name, ph.Color)
	}

	fmt.Fprintf(out, "\nTasks (%d):\n", len(p.Tasks))
	if len(p.Tasks) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tPHASE\tNAME\tSTART\tEND\tFIELDS")
	for _, t := range p.Tasks {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%s\t%s\n", t.ID, dash(phaseNames[t.PhaseID]), t.Name,
			timeline.FormatDisplayDate(t.StartDate), timeline.FormatDisplayDate(t.EndDate), dash(fieldSummary(p, t)))
	}
	return w.Flush()
}

// fieldSummary renders a task's custom values as "Name=value" pairs in
// field definition order.
func fieldSummary(p *models.Project, t models.Task) string {
	var parts []string
	for _, f := range p.CustomFields {
		v, ok := t.CustomFields[f.ID]
		if !ok {
			continue
		}
		parts = append(parts, f.Name+"="+formatFieldValue(v))
	}
	return strings.Join(parts, ", ")
}

func formatFieldValue(v models.FieldValue) string {
	switch v.Type {
	case models.FieldNumber:
		if v.Number != nil {
			return strconv.FormatFloat(*v.Number, 'f', -1, 64)
		}
	case models.FieldDate:
		return v.Date
	case models.FieldSelect:
		return v.Option
	}
	return v.Text
}

func newProjectUpdateCmd() *cobra.Command {
	var (
		configPath string
		name       string
		client     string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a project or change its client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts project.UpdateOpts
			if cmd.Flags().Changed("name") {
				opts.Name = &name
			}
			if cmd.Flags().Changed("client") {
				opts.Client = &client
			}
			if opts.Name == nil && opts.Client == nil {
				return fmt.Errorf("nothing to update: pass --name or --client")
			}
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				p, err := project.Update(a.db, args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated project %s: %s (%s)\n", p.ID, p.Name, dash(p.Client))
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&name, "name", "", "new project name")
	cmd.Flags().StringVar(&client, "client", "", "new client name")
	return cmd
}

func newProjectDeleteCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a project with its budget, notes, permits and utilities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				if err := project.Delete(a.db, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted project %s\n", args[0])
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newProjectProgressCmd() *cobra.Command {
	var (
		configPath string
		status     string
		percent    int
	)

	cmd := &cobra.Command{
		Use:   "progress <id>",
		Short: "Set a project's progress status and percent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				p, err := project.SetProgress(a.db, args[0], status, percent)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project %s: %s (%d%%)\n", p.ID, p.ProgressStatus, p.ProgressPercent)
				a.announce(cmd.Context(), notify.ProgressEvent(*p))
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&status, "status", models.ProgressInProgress, "Pending, In Progress, Completed or On Hold")
	cmd.Flags().IntVar(&percent, "percent", 0, "percent complete, 0..100")
	return cmd
}
