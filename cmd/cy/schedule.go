package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/project"
)

func newPhaseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "phase",
		Short: "Manage project phases",
	}

	cmd.AddCommand(newPhaseAddCmd())
	return cmd
}

func newPhaseAddCmd() *cobra.Command {
	var (
		configPath string
		ph         models.Phase
	)

	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a phase to a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				p, err := project.AddPhase(a.db, args[0], ph)
				if err != nil {
					return err
				}
				added := p.Phases[len(p.Phases)-1]
				fmt.Fprintf(cmd.OutOrStdout(), "Added phase %s: %s (%s)\n", added.ID, added.Name, added.Color)
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&ph.Name, "name", "", "phase name (required)")
	cmd.Flags().StringVar(&ph.Color, "color", "", "bar color, e.g. #3b82f6")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newFieldCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "field",
		Short: "Manage custom task fields",
	}

	cmd.AddCommand(newFieldAddCmd())
	cmd.AddCommand(newFieldRemoveCmd())
	return cmd
}

func newFieldAddCmd() *cobra.Command {
	var (
		configPath string
		f          models.CustomField
	)

	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Define a custom field on a project's tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				p, err := project.AddField(a.db, args[0], f)
				if err != nil {
					return err
				}
				added := p.CustomFields[len(p.CustomFields)-1]
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s field %s: %s\n", added.Type, added.ID, added.Name)
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&f.Name, "name", "", "field name (required)")
	cmd.Flags().StringVar(&f.Type, "type", models.FieldText, "text, number, date or select")
	cmd.Flags().StringSliceVar(&f.Options, "options", nil, "comma-separated choices for select fields")
	cmd.Flags().BoolVar(&f.Required, "required", false, "every task must set this field")
	cmd.MarkFlagRequired("name")
	return cmd
}

func newFieldRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remove <project-id> <field-id>",
		Short: "Delete a custom field and its values on every task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				if _, err := project.RemoveField(a.db, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed field %s\n", args[1])
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage scheduled tasks",
	}

	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskRemoveCmd())
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var (
		configPath string
		t          models.Task
		values     []string
	)

	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Schedule a task in a phase",
		Long: `Adds a task to a project. Dates are YYYY-MM-DD; a task whose start and
end fall on the same day is drawn as a milestone.

Custom field values are given as --field <field-id>=<value> and are typed by
the field's definition.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if t.EndDate == "" {
				t.EndDate = t.StartDate
			}
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				p, err := project.Get(a.db, args[0])
				if err != nil {
					return err
				}
				if t.CustomFields, err = parseFieldValues(p.CustomFields, values); err != nil {
					return err
				}
				p, err = project.AddTask(a.db, args[0], t)
				if err != nil {
					return err
				}
				added := p.Tasks[len(p.Tasks)-1]
				fmt.Fprintf(cmd.OutOrStdout(), "Added task %s: %s (%s to %s)\n", added.ID, added.Name, added.StartDate, added.EndDate)
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&t.PhaseID, "phase", "", "phase ID (required)")
	cmd.Flags().StringVar(&t.Name, "name", "", "task name (required)")
	cmd.Flags().StringVar(&t.StartDate, "start", "", "start date YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&t.EndDate, "end", "", "end date YYYY-MM-DD (defaults to start)")
	cmd.Flags().StringArrayVar(&values, "field", nil, "custom field value as <field-id>=<value> (repeatable)")
	cmd.MarkFlagRequired("phase")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("start")
	return cmd
}

// parseFieldValues turns id=value pairs into typed values. Unknown ids
// are passed through as text so validation reports them.
func parseFieldValues(fields []models.CustomField, pairs []string) (map[string]models.FieldValue, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	types := make(map[string]string, len(fields))
	for _, f := range fields {
		types[f.ID] = f.Type
	}
	out := make(map[string]models.FieldValue, len(pairs))
	for _, pair := range pairs {
		id, raw, ok := strings.Cut(pair, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("field value %q must be <field-id>=<value>", pair)
		}
		v := models.FieldValue{Type: types[id]}
		switch v.Type {
		case models.FieldNumber:
			n, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("field %s: %q is not a number", id, raw)
			}
			v.Number = &n
		case models.FieldDate:
			v.Date = raw
		case models.FieldSelect:
			v.Option = raw
		default:
			v.Type = models.FieldText
			v.Text = raw
		}
		out[id] = v
	}
	return out, nil
}

func newTaskRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remove <project-id> <task-id>",
		Short: "Remove a task from a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				if _, err := project.RemoveTask(a.db, args[0], args[1]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", args[1])
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}
