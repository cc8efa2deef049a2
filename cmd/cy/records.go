package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/zulandar/chargeyard/internal/budget"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/note"
	"github.com/zulandar/chargeyard/internal/notify"
	"github.com/zulandar/chargeyard/internal/permit"
	"github.com/zulandar/chargeyard/internal/project"
	"github.com/zulandar/chargeyard/internal/utility"
)

// changed returns v when the named flag was set on the command line.
func changed[T any](cmd *cobra.Command, name string, v *T) *T {
	if cmd.Flags().Changed(name) {
		return v
	}
	return nil
}

// listRecords checks the session and the project before listing.
func listRecords(cmd *cobra.Command, configPath, projectID string, fn func(a *app) error) error {
	return withApp(configPath, func(a *app) error {
		if _, err := a.currentUser(cmd.Context()); err != nil {
			return err
		}
		if err := project.Exists(a.db, projectID); err != nil {
			return err
		}
		return fn(a)
	})
}

func newDeleteCmd(noun string, del func(a *app, id string) error) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a " + noun,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				if err := del(a, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s\n", noun, args[0])
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

// Budget.

func newBudgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage budget line items",
	}

	cmd.AddCommand(newBudgetAddCmd())
	cmd.AddCommand(newBudgetListCmd())
	cmd.AddCommand(newBudgetUpdateCmd())
	cmd.AddCommand(newDeleteCmd("budget item", func(a *app, id string) error { return budget.Delete(a.db, id) }))
	cmd.AddCommand(newBudgetSummaryCmd())
	return cmd
}

func newBudgetAddCmd() *cobra.Command {
	var (
		configPath string
		opts       budget.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a budget line item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, configPath, func(a *app, p *models.Profile) error {
				opts.ProjectID = args[0]
				opts.CreatedBy = p.ID
				item, err := budget.Create(a.db, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s item %s: %s %s\n", item.ItemType, item.ID, item.Description, formatMoney(item.Amount))
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.Description, "description", "", "line item description (required)")
	cmd.Flags().Float64Var(&opts.Amount, "amount", 0, "amount in dollars")
	cmd.Flags().StringVar(&opts.ItemType, "type", models.BudgetOriginal, "original or change_order")
	cmd.MarkFlagRequired("description")
	return cmd
}

func newBudgetListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's budget items",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRecords(cmd, configPath, args[0], func(a *app) error {
				items, err := budget.List(a.db, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No budget items found.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
				fmt.Fprintln(w, "ID\tTYPE\tAMOUNT\tDESCRIPTION\t")
				for _, it := range items {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", it.ID, it.ItemType, formatMoney(it.Amount), truncate(it.Description, 48))
				}
				return w.Flush()
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newBudgetUpdateCmd() *cobra.Command {
	var (
		configPath  string
		description string
		amount      float64
		itemType    string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a budget item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := budget.UpdateOpts{
				Description: changed(cmd, "description", &description),
				Amount:      changed(cmd, "amount", &amount),
				ItemType:    changed(cmd, "type", &itemType),
			}
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				item, err := budget.Update(a.db, args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated budget item %s: %s %s\n", item.ID, item.Description, formatMoney(item.Amount))
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().Float64Var(&amount, "amount", 0, "new amount")
	cmd.Flags().StringVar(&itemType, "type", "", "original or change_order")
	return cmd
}

func newBudgetSummaryCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "summary <project-id>",
		Short: "Show original, change order and total budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRecords(cmd, configPath, args[0], func(a *app) error {
				s, err := budget.ProjectSummary(a.db, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Original:      %14s\n", formatMoney(s.Original))
				fmt.Fprintf(out, "Change orders: %14s\n", formatMoney(s.ChangeOrders))
				fmt.Fprintf(out, "Total:         %14s\n", formatMoney(s.Total))
				fmt.Fprintf(out, "Items:         %14d\n", s.Items)
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

// Notes.

func newNoteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "note",
		Short: "Manage project notes",
	}

	cmd.AddCommand(newNoteAddCmd())
	cmd.AddCommand(newNoteListCmd())
	cmd.AddCommand(newNoteUpdateCmd())
	cmd.AddCommand(newDeleteCmd("note", func(a *app, id string) error { return note.Delete(a.db, id) }))
	return cmd
}

func newNoteAddCmd() *cobra.Command {
	var (
		configPath string
		opts       note.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "add <project-id> <content>",
		Short: "Add a note to a project",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, configPath, func(a *app, p *models.Profile) error {
				opts.ProjectID = args[0]
				opts.Content = strings.Join(args[1:], " ")
				opts.AuthorID = p.ID
				n, err := note.Create(a.db, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s note %s\n", n.NoteTag, n.ID)
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.Tag, "tag", models.NoteGeneral, "general, update, issue or milestone")
	return cmd
}

func newNoteListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's notes, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRecords(cmd, configPath, args[0], func(a *app) error {
				notes, err := note.List(a.db, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(notes) == 0 {
					fmt.Fprintln(out, "No notes found.")
					return nil
				}
				for _, n := range notes {
					fmt.Fprintf(out, "[%s] %s  %s  (%s)\n", n.NoteTag, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.AuthorName, n.ID)
					fmt.Fprintf(out, "  %s\n\n", n.Content)
				}
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newNoteUpdateCmd() *cobra.Command {
	var (
		configPath string
		content    string
		tag        string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a note's content or tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := note.UpdateOpts{
				Content: changed(cmd, "content", &content),
				Tag:     changed(cmd, "tag", &tag),
			}
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				n, err := note.Update(a.db, args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s note %s\n", n.NoteTag, n.ID)
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&content, "content", "", "new content")
	cmd.Flags().StringVar(&tag, "tag", "", "general, update, issue or milestone")
	return cmd
}

// Permits.

func newPermitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permit",
		Short: "Track permit applications",
	}

	cmd.AddCommand(newPermitAddCmd())
	cmd.AddCommand(newPermitListCmd())
	cmd.AddCommand(newPermitUpdateCmd())
	cmd.AddCommand(newDeleteCmd("permit", func(a *app, id string) error { return permit.Delete(a.db, id) }))
	return cmd
}

func newPermitAddCmd() *cobra.Command {
	var (
		configPath string
		opts       permit.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a permit application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				opts.ProjectID = args[0]
				p, err := permit.Create(a.db, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s permit %s (%s)\n", p.PermitType, p.ID, p.Status)
				if a.notify.Enabled() {
					a.announce(cmd.Context(), notify.PermitEvent(a.projectName(p.ProjectID), *p))
				}
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&opts.PermitType, "type", "", "permit type: "+strings.Join(permit.Types, ", ")+" (required)")
	cmd.Flags().StringVar(&opts.Status, "status", "", "status: "+strings.Join(permit.Statuses, ", "))
	cmd.Flags().StringVar(&opts.SubmittedDate, "submitted", "", "submitted date YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.ApprovedDate, "approved", "", "approved date YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.PermitNumber, "number", "", "permit number")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	cmd.MarkFlagRequired("type")
	return cmd
}

func newPermitListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's permits",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRecords(cmd, configPath, args[0], func(a *app) error {
				permits, err := permit.List(a.db, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(permits) == 0 {
					fmt.Fprintln(out, "No permits found.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tTYPE\tSTATUS\tNUMBER\tSUBMITTED\tAPPROVED")
				for _, p := range permits {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.PermitType, p.Status,
						dash(p.PermitNumber), dash(p.SubmittedDate), dash(p.ApprovedDate))
				}
				return w.Flush()
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newPermitUpdateCmd() *cobra.Command {
	var (
		configPath string
		v          permit.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a permit; an empty date clears it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := permit.UpdateOpts{
				PermitType:    changed(cmd, "type", &v.PermitType),
				Status:        changed(cmd, "status", &v.Status),
				SubmittedDate: changed(cmd, "submitted", &v.SubmittedDate),
				ApprovedDate:  changed(cmd, "approved", &v.ApprovedDate),
				PermitNumber:  changed(cmd, "number", &v.PermitNumber),
				Notes:         changed(cmd, "notes", &v.Notes),
			}
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				prev, err := permit.Get(a.db, args[0])
				if err != nil {
					return err
				}
				p, err := permit.Update(a.db, args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %s permit %s (%s)\n", p.PermitType, p.ID, p.Status)
				if p.Status != prev.Status && a.notify.Enabled() {
					a.announce(cmd.Context(), notify.PermitEvent(a.projectName(p.ProjectID), *p))
				}
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	cmd.Flags().StringVar(&v.PermitType, "type", "", "permit type")
	cmd.Flags().StringVar(&v.Status, "status", "", "status")
	cmd.Flags().StringVar(&v.SubmittedDate, "submitted", "", "submitted date YYYY-MM-DD")
	cmd.Flags().StringVar(&v.ApprovedDate, "approved", "", "approved date YYYY-MM-DD")
	cmd.Flags().StringVar(&v.PermitNumber, "number", "", "permit number")
	cmd.Flags().StringVar(&v.Notes, "notes", "", "notes")
	return cmd
}

// Utilities.

func newUtilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "utility",
		Short: "Track utility service applications",
	}

	cmd.AddCommand(newUtilityAddCmd())
	cmd.AddCommand(newUtilityListCmd())
	cmd.AddCommand(newUtilityUpdateCmd())
	cmd.AddCommand(newDeleteCmd("utility", func(a *app, id string) error { return utility.Delete(a.db, id) }))
	return cmd
}

func addUtilityFlags(cmd *cobra.Command, v *utility.CreateOpts) {
	cmd.Flags().StringVar(&v.UtilityName, "name", "", "utility company")
	cmd.Flags().StringVar(&v.ApplicationStatus, "status", "", "application status: "+strings.Join(utility.Statuses, ", "))
	cmd.Flags().StringVar(&v.DesignReviewStatus, "design-review", "", "design review status")
	cmd.Flags().StringVar(&v.ApplicationSubmittedDate, "submitted", "", "application submitted date YYYY-MM-DD")
	cmd.Flags().StringVar(&v.MeterSetDate, "meter-set", "", "meter set date YYYY-MM-DD")
	cmd.Flags().StringVar(&v.ServiceActivationDate, "activated", "", "service activation date YYYY-MM-DD")
	cmd.Flags().StringVar(&v.Notes, "notes", "", "notes")
}

func newUtilityAddCmd() *cobra.Command {
	var (
		configPath string
		opts       utility.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "add <project-id>",
		Short: "Add a utility application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				opts.ProjectID = args[0]
				u, err := utility.Create(a.db, opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added utility %s: %s (%s)\n", u.ID, u.UtilityName, u.ApplicationStatus)
				if a.notify.Enabled() {
					a.announce(cmd.Context(), notify.UtilityEvent(a.projectName(u.ProjectID), *u))
				}
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	addUtilityFlags(cmd, &opts)
	cmd.MarkFlagRequired("name")
	return cmd
}

func newUtilityListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List a project's utility applications",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return listRecords(cmd, configPath, args[0], func(a *app) error {
				list, err := utility.List(a.db, args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(list) == 0 {
					fmt.Fprintln(out, "No utility applications found.")
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUTILITY\tSTATUS\tDESIGN REVIEW\tSUBMITTED\tMETER SET\tACTIVATED")
				for _, u := range list {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", u.ID, u.UtilityName, u.ApplicationStatus,
						dash(u.DesignReviewStatus), dash(u.ApplicationSubmittedDate), dash(u.MeterSetDate), dash(u.ServiceActivationDate))
				}
				return w.Flush()
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	return cmd
}

func newUtilityUpdateCmd() *cobra.Command {
	var (
		configPath string
		v          utility.CreateOpts
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a utility application; an empty date clears it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := utility.UpdateOpts{
				UtilityName:              changed(cmd, "name", &v.UtilityName),
				ApplicationStatus:        changed(cmd, "status", &v.ApplicationStatus),
				DesignReviewStatus:       changed(cmd, "design-review", &v.DesignReviewStatus),
				ApplicationSubmittedDate: changed(cmd, "submitted", &v.ApplicationSubmittedDate),
				MeterSetDate:             changed(cmd, "meter-set", &v.MeterSetDate),
				ServiceActivationDate:    changed(cmd, "activated", &v.ServiceActivationDate),
				Notes:                    changed(cmd, "notes", &v.Notes),
			}
			return withWriter(cmd, configPath, func(a *app, _ *models.Profile) error {
				prev, err := utility.Get(a.db, args[0])
				if err != nil {
					return err
				}
				u, err := utility.Update(a.db, args[0], opts)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated utility %s: %s (%s)\n", u.ID, u.UtilityName, u.ApplicationStatus)
				if u.ApplicationStatus != prev.ApplicationStatus && a.notify.Enabled() {
					a.announce(cmd.Context(), notify.UtilityEvent(a.projectName(u.ProjectID), *u))
				}
				return nil
			})
		},
	}

	addConfigFlag(cmd, &configPath)
	addUtilityFlags(cmd, &v)
	return cmd
}
