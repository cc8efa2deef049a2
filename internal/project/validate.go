package project

import (
	"math"
	"slices"
	"strings"

	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/timeline"
)

// DefaultPhaseColor is used for phases created without a color.
const DefaultPhaseColor = "#3b82f6"

// ValidateField checks a custom field definition.
func ValidateField(f models.CustomField) error {
	if strings.TrimSpace(f.Name) == "" {
		return apperr.Invalid("custom field name is required")
	}
	switch f.Type {
	case models.FieldText, models.FieldDate, models.FieldNumber:
		if len(f.Options) > 0 {
			return apperr.Invalid("custom field %q: options are only allowed on select fields", f.Name)
		}
	case models.FieldSelect:
		if len(f.Options) == 0 {
			return apperr.Invalid("custom field %q: select fields need at least one option", f.Name)
		}
	default:
		return apperr.Invalid("custom field %q: type %q must be text, date, select or number", f.Name, f.Type)
	}
	return nil
}

// ValidatePhase checks a phase definition.
func ValidatePhase(p models.Phase) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Invalid("phase name is required")
	}
	return nil
}

// ValidateTask checks a task against the project's phases and custom field
// definitions.
func ValidateTask(t models.Task, phases []models.Phase, fields []models.CustomField) error {
	if strings.TrimSpace(t.Name) == "" {
		return apperr.Invalid("task name is required")
	}
	if t.StartDate == "" || t.EndDate == "" {
		return apperr.Invalid("task %q: start and end dates are required", t.Name)
	}
	if _, err := timeline.ParseDate(t.StartDate); err != nil {
		return apperr.Invalid("task %q: start date %q is not YYYY-MM-DD", t.Name, t.StartDate)
	}
	if _, err := timeline.ParseDate(t.EndDate); err != nil {
		return apperr.Invalid("task %q: end date %q is not YYYY-MM-DD", t.Name, t.EndDate)
	}
	if !slices.ContainsFunc(phases, func(p models.Phase) bool { return p.ID == t.PhaseID }) {
		return apperr.Invalid("task %q: unknown phase %q", t.Name, t.PhaseID)
	}
	return ValidateFieldValues(t.Name, t.CustomFields, fields)
}

// ValidateFieldValues checks a task's tagged custom field values against
// the definitions: every key must name a defined field, the tag must match
// the field type, and required fields must be present.
func ValidateFieldValues(task string, values map[string]models.FieldValue, fields []models.CustomField) error {
	defs := make(map[string]models.CustomField, len(fields))
	for _, f := range fields {
		defs[f.ID] = f
	}
	for id, v := range values {
		def, ok := defs[id]
		if !ok {
			return apperr.Invalid("task %q: unknown custom field %q", task, id)
		}
		if v.Type != def.Type {
			return apperr.Invalid("task %q: field %q holds a %s value, want %s", task, def.Name, v.Type, def.Type)
		}
		switch def.Type {
		case models.FieldNumber:
			if v.Number == nil || math.IsNaN(*v.Number) || math.IsInf(*v.Number, 0) {
				return apperr.Invalid("task %q: field %q needs a finite number", task, def.Name)
			}
		case models.FieldDate:
			if _, err := timeline.ParseDate(v.Date); err != nil {
				return apperr.Invalid("task %q: field %q date %q is not YYYY-MM-DD", task, def.Name, v.Date)
			}
		case models.FieldSelect:
			if !slices.Contains(def.Options, v.Option) {
				return apperr.Invalid("task %q: field %q option %q is not one of %v", task, def.Name, v.Option, def.Options)
			}
		}
	}
	for _, f := range fields {
		if !f.Required {
			continue
		}
		if _, ok := values[f.ID]; !ok {
			return apperr.Invalid("task %q: required field %q is missing", task, f.Name)
		}
	}
	return nil
}

// validateProject checks the whole project document before a write.
func validateProject(p *models.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return apperr.Invalid("project name is required")
	}
	seen := map[string]bool{}
	for _, f := range p.CustomFields {
		if err := ValidateField(f); err != nil {
			return err
		}
		if seen[f.ID] {
			return apperr.Invalid("duplicate custom field id %q", f.ID)
		}
		seen[f.ID] = true
	}
	seen = map[string]bool{}
	for _, ph := range p.Phases {
		if err := ValidatePhase(ph); err != nil {
			return err
		}
		if seen[ph.ID] {
			return apperr.Invalid("duplicate phase id %q", ph.ID)
		}
		seen[ph.ID] = true
	}
	seen = map[string]bool{}
	for _, t := range p.Tasks {
		if err := ValidateTask(t, p.Phases, p.CustomFields); err != nil {
			return err
		}
		if seen[t.ID] {
			return apperr.Invalid("duplicate task id %q", t.ID)
		}
		seen[t.ID] = true
	}
	if p.ProgressPercent < 0 || p.ProgressPercent > 100 {
		return apperr.Invalid("progress percent %d must be between 0 and 100", p.ProgressPercent)
	}
	if p.ProgressStatus != "" && !validProgress(p.ProgressStatus) {
		return apperr.Invalid("progress status %q must be Pending, In Progress, Completed or On Hold", p.ProgressStatus)
	}
	return nil
}

func validProgress(status string) bool {
	switch status {
	case models.ProgressPending, models.ProgressInProgress, models.ProgressCompleted, models.ProgressOnHold:
		return true
	}
	return false
}
