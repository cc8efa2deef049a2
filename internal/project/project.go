// Package project provides project lifecycle operations: create, list,
// update and delete, plus the phase, task and custom field edits that
// rewrite the project's embedded JSON columns.
package project

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/models"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for creating a new project.
type CreateOpts struct {
	Name         string
	Client       string
	OwnerID      string
	CustomFields []models.CustomField
	Phases       []models.Phase
	Tasks        []models.Task
}

// UpdateOpts lists the fields to change. Nil fields are left alone.
type UpdateOpts struct {
	Name         *string
	Client       *string
	CustomFields *[]models.CustomField
	Phases       *[]models.Phase
	Tasks        *[]models.Task
}

// ListFilters holds optional filters for listing projects.
type ListFilters struct {
	Client  string
	OwnerID string
}

// Summary is one row of the project list.
type Summary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Client          string    `json:"client"`
	TaskCount       int       `json:"task_count"`
	PhaseCount      int       `json:"phase_count"`
	ProgressStatus  string    `json:"progress_status"`
	ProgressPercent int       `json:"progress_percent"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultPhases returns the phases a project starts with when none are
// given.
func DefaultPhases() []models.Phase {
	return []models.Phase{
		{Name: "Contract & Design", Color: "#3b82f6"},
		{Name: "Permitting", Color: "#f59e0b"},
		{Name: "Construction & Execution", Color: "#10b981"},
	}
}

// Create validates and stores a new project. Missing phase, task and field
// ids are assigned; a project without phases gets DefaultPhases.
func Create(db *gorm.DB, opts CreateOpts) (*models.Project, error) {
	p := models.Project{
		ID:             uuid.NewString(),
		Name:           strings.TrimSpace(opts.Name),
		Client:         strings.TrimSpace(opts.Client),
		OwnerID:        opts.OwnerID,
		CustomFields:   slices.Clone(opts.CustomFields),
		Phases:         slices.Clone(opts.Phases),
		Tasks:          slices.Clone(opts.Tasks),
		ProgressStatus: models.ProgressPending,
	}
	if len(p.Phases) == 0 {
		p.Phases = DefaultPhases()
	}
	normalize(&p)
	if err := validateProject(&p); err != nil {
		return nil, err
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("project: create: %w", err)
	}
	return &p, nil
}

// Get retrieves a project by ID.
func Get(db *gorm.DB, id string) (*models.Project, error) {
	var p models.Project
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("project: %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("project: get %s: %w", id, err)
	}
	normalize(&p)
	return &p, nil
}

// List returns project summaries matching filters, most recently updated
// first.
func List(db *gorm.DB, filters ListFilters) ([]Summary, error) {
	q := db.Model(&models.Project{})
	if filters.Client != "" {
		q = q.Where("client = ?", filters.Client)
	}
	if filters.OwnerID != "" {
		q = q.Where("owner_id = ?", filters.OwnerID)
	}

	var projects []models.Project
	if err := q.Order("updated_at DESC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project: list: %w", err)
	}
	out := make([]Summary, 0, len(projects))
	for _, p := range projects {
		out = append(out, Summary{
			ID:              p.ID,
			Name:            p.Name,
			Client:          p.Client,
			TaskCount:       len(p.Tasks),
			PhaseCount:      len(p.Phases),
			ProgressStatus:  p.ProgressStatus,
			ProgressPercent: p.ProgressPercent,
			UpdatedAt:       p.UpdatedAt,
		})
	}
	return out, nil
}

// Update applies opts to a project after validating the result.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Project, error) {
	return mutate(db, id, func(p *models.Project) error {
		if opts.Name != nil {
			p.Name = strings.TrimSpace(*opts.Name)
		}
		if opts.Client != nil {
			p.Client = strings.TrimSpace(*opts.Client)
		}
		if opts.CustomFields != nil {
			p.CustomFields = slices.Clone(*opts.CustomFields)
		}
		if opts.Phases != nil {
			p.Phases = slices.Clone(*opts.Phases)
		}
		if opts.Tasks != nil {
			p.Tasks = slices.Clone(*opts.Tasks)
		}
		return nil
	})
}

// SetProgress records the project's progress status and percent complete.
func SetProgress(db *gorm.DB, id, status string, percent int) (*models.Project, error) {
	return mutate(db, id, func(p *models.Project) error {
		if !validProgress(status) {
			return apperr.Invalid("progress status %q must be Pending, In Progress, Completed or On Hold", status)
		}
		p.ProgressStatus = status
		p.ProgressPercent = percent
		return nil
	})
}

// AddPhase appends a phase. Phases keep their order; it is the chart's row
// grouping order.
func AddPhase(db *gorm.DB, projectID string, ph models.Phase) (*models.Project, error) {
	return mutate(db, projectID, func(p *models.Project) error {
		p.Phases = append(p.Phases, ph)
		return nil
	})
}

// AddField appends a custom field definition.
func AddField(db *gorm.DB, projectID string, f models.CustomField) (*models.Project, error) {
	return mutate(db, projectID, func(p *models.Project) error {
		p.CustomFields = append(p.CustomFields, f)
		return nil
	})
}

// RemoveField deletes a custom field definition and drops its values from
// every task.
func RemoveField(db *gorm.DB, projectID, fieldID string) (*models.Project, error) {
	return mutate(db, projectID, func(p *models.Project) error {
		i := slices.IndexFunc(p.CustomFields, func(f models.CustomField) bool { return f.ID == fieldID })
		if i < 0 {
			return fmt.Errorf("project: field %s: %w", fieldID, apperr.ErrNotFound)
		}
		p.CustomFields = slices.Delete(p.CustomFields, i, i+1)
		for _, t := range p.Tasks {
			delete(t.CustomFields, fieldID)
		}
		return nil
	})
}

// AddTask appends a task. It must reference one of the project's phases
// and its custom field values must match the definitions.
func AddTask(db *gorm.DB, projectID string, t models.Task) (*models.Project, error) {
	return mutate(db, projectID, func(p *models.Project) error {
		p.Tasks = append(p.Tasks, t)
		return nil
	})
}

// RemoveTask deletes a task by id.
func RemoveTask(db *gorm.DB, projectID, taskID string) (*models.Project, error) {
	return mutate(db, projectID, func(p *models.Project) error {
		i := slices.IndexFunc(p.Tasks, func(t models.Task) bool { return t.ID == taskID })
		if i < 0 {
			return fmt.Errorf("project: task %s: %w", taskID, apperr.ErrNotFound)
		}
		p.Tasks = slices.Delete(p.Tasks, i, i+1)
		return nil
	})
}

// Delete removes a project and all its budget items, notes, permits and
// utilities.
func Delete(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{&models.BudgetItem{}, &models.Note{}, &models.Permit{}, &models.Utility{}} {
			if err := tx.Where("project_id = ?", id).Delete(m).Error; err != nil {
				return fmt.Errorf("project: delete %s records: %w", id, err)
			}
		}
		result := tx.Where("id = ?", id).Delete(&models.Project{})
		if result.Error != nil {
			return fmt.Errorf("project: delete %s: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("project: %s: %w", id, apperr.ErrNotFound)
		}
		return nil
	})
}

// Exists reports whether a project with id exists. Sub-record services use
// it to reject writes against missing projects.
func Exists(db *gorm.DB, id string) error {
	var count int64
	if err := db.Model(&models.Project{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("project: check %s: %w", id, err)
	}
	if count == 0 {
		return fmt.Errorf("project: %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// mutate loads a project, applies fn, validates and saves it in one
// transaction.
func mutate(db *gorm.DB, id string, fn func(*models.Project) error) (*models.Project, error) {
	var out *models.Project
	err := db.Transaction(func(tx *gorm.DB) error {
		p, err := Get(tx, id)
		if err != nil {
			return err
		}
		if err := fn(p); err != nil {
			return err
		}
		normalize(p)
		if err := validateProject(p); err != nil {
			return err
		}
		if err := tx.Save(p).Error; err != nil {
			return fmt.Errorf("project: save %s: %w", id, err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// normalize assigns missing ids and default colors and replaces nil slices
// so the JSON columns never hold null.
func normalize(p *models.Project) {
	if p.CustomFields == nil {
		p.CustomFields = []models.CustomField{}
	}
	if p.Phases == nil {
		p.Phases = []models.Phase{}
	}
	if p.Tasks == nil {
		p.Tasks = []models.Task{}
	}
	for i := range p.CustomFields {
		if p.CustomFields[i].ID == "" {
			p.CustomFields[i].ID = uuid.NewString()
		}
	}
	for i := range p.Phases {
		if p.Phases[i].ID == "" {
			p.Phases[i].ID = uuid.NewString()
		}
		if p.Phases[i].Color == "" {
			p.Phases[i].Color = DefaultPhaseColor
		}
	}
	for i := range p.Tasks {
		if p.Tasks[i].ID == "" {
			p.Tasks[i].ID = uuid.NewString()
		}
	}
}
