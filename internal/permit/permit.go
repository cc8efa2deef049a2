// Package permit tracks permit applications for a project.
package permit

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/project"
	"github.com/zulandar/chargeyard/internal/timeline"
	"gorm.io/gorm"
)

// Types and Statuses list the accepted values in display order.
var (
	Types    = []string{models.PermitElectrical, models.PermitBuilding, models.PermitPlanning, models.PermitFire, models.PermitOther}
	Statuses = []string{models.PermitPending, models.PermitInReview, models.PermitApproved, models.PermitCorrectionsRequired}
)

// CreateOpts holds parameters for adding a permit.
type CreateOpts struct {
	ProjectID     string
	PermitType    string
	Status        string // defaults to Pending
	SubmittedDate string
	ApprovedDate  string
	PermitNumber  string
	Notes         string
}

// UpdateOpts lists the fields to change. Nil fields are left alone; an
// empty string clears a date.
type UpdateOpts struct {
	PermitType    *string
	Status        *string
	SubmittedDate *string
	ApprovedDate  *string
	PermitNumber  *string
	Notes         *string
}

func validate(p *models.Permit) error {
	if !slices.Contains(Types, p.PermitType) {
		return apperr.Invalid("permit type %q must be one of %v", p.PermitType, Types)
	}
	if !slices.Contains(Statuses, p.Status) {
		return apperr.Invalid("permit status %q must be one of %v", p.Status, Statuses)
	}
	for name, d := range map[string]string{"submitted": p.SubmittedDate, "approved": p.ApprovedDate} {
		if d != "" && !timeline.IsDate(d) {
			return apperr.Invalid("permit %s date %q is not YYYY-MM-DD", name, d)
		}
	}
	return nil
}

// Create adds a permit to an existing project.
func Create(db *gorm.DB, opts CreateOpts) (*models.Permit, error) {
	p := models.Permit{
		ID:            uuid.NewString(),
		ProjectID:     opts.ProjectID,
		PermitType:    opts.PermitType,
		Status:        opts.Status,
		SubmittedDate: opts.SubmittedDate,
		ApprovedDate:  opts.ApprovedDate,
		PermitNumber:  opts.PermitNumber,
		Notes:         opts.Notes,
	}
	if p.Status == "" {
		p.Status = models.PermitPending
	}
	if err := validate(&p); err != nil {
		return nil, err
	}
	if err := project.Exists(db, opts.ProjectID); err != nil {
		return nil, err
	}
	if err := db.Create(&p).Error; err != nil {
		return nil, fmt.Errorf("permit: create: %w", err)
	}
	return &p, nil
}

// Get retrieves a permit by ID.
func Get(db *gorm.DB, id string) (*models.Permit, error) {
	var p models.Permit
	if err := db.Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("permit: %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("permit: get %s: %w", id, err)
	}
	return &p, nil
}

// List returns a project's permits, oldest first.
func List(db *gorm.DB, projectID string) ([]models.Permit, error) {
	var permits []models.Permit
	if err := db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&permits).Error; err != nil {
		return nil, fmt.Errorf("permit: list %s: %w", projectID, err)
	}
	return permits, nil
}

// Update changes only the fields set in opts.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Permit, error) {
	p, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	set := func(col string, src *string, dst *string) {
		if src != nil {
			*dst = *src
			updates[col] = *src
		}
	}
	set("permit_type", opts.PermitType, &p.PermitType)
	set("status", opts.Status, &p.Status)
	set("submitted_date", opts.SubmittedDate, &p.SubmittedDate)
	set("approved_date", opts.ApprovedDate, &p.ApprovedDate)
	set("permit_number", opts.PermitNumber, &p.PermitNumber)
	set("notes", opts.Notes, &p.Notes)
	if len(updates) == 0 {
		return p, nil
	}
	if err := validate(p); err != nil {
		return nil, err
	}
	if err := db.Model(&models.Permit{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("permit: update %s: %w", id, err)
	}
	return Get(db, id)
}

// Delete removes a permit.
func Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Permit{})
	if result.Error != nil {
		return fmt.Errorf("permit: delete %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("permit: %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
