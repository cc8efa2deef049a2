// Package utility tracks coordination with utility companies: service
// applications, design review and meter set dates.
package utility

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/project"
	"github.com/zulandar/chargeyard/internal/timeline"
	"gorm.io/gorm"
)

// Statuses lists the accepted application statuses in display order.
var Statuses = []string{models.UtilityPending, models.UtilityInReview, models.UtilityApproved, models.UtilityDenied}

// CreateOpts holds parameters for adding a utility record.
type CreateOpts struct {
	ProjectID                string
	UtilityName              string
	ApplicationStatus        string // defaults to Pending
	DesignReviewStatus       string
	ApplicationSubmittedDate string
	MeterSetDate             string
	ServiceActivationDate    string
	Notes                    string
}

// UpdateOpts lists the fields to change. Nil fields are left alone.
type UpdateOpts struct {
	UtilityName              *string
	ApplicationStatus        *string
	DesignReviewStatus       *string
	ApplicationSubmittedDate *string
	MeterSetDate             *string
	ServiceActivationDate    *string
	Notes                    *string
}

func validate(u *models.Utility) error {
	if strings.TrimSpace(u.UtilityName) == "" {
		return apperr.Invalid("utility name is required")
	}
	if !slices.Contains(Statuses, u.ApplicationStatus) {
		return apperr.Invalid("application status %q must be one of %v", u.ApplicationStatus, Statuses)
	}
	dates := []struct{ name, value string }{
		{"application submitted", u.ApplicationSubmittedDate},
		{"meter set", u.MeterSetDate},
		{"service activation", u.ServiceActivationDate},
	}
	for _, d := range dates {
		if d.value != "" && !timeline.IsDate(d.value) {
			return apperr.Invalid("%s date %q is not YYYY-MM-DD", d.name, d.value)
		}
	}
	return nil
}

// Create adds a utility record to an existing project.
func Create(db *gorm.DB, opts CreateOpts) (*models.Utility, error) {
	u := models.Utility{
		ID:                       uuid.NewString(),
		ProjectID:                opts.ProjectID,
		UtilityName:              strings.TrimSpace(opts.UtilityName),
		ApplicationStatus:        opts.ApplicationStatus,
		DesignReviewStatus:       opts.DesignReviewStatus,
		ApplicationSubmittedDate: opts.ApplicationSubmittedDate,
		MeterSetDate:             opts.MeterSetDate,
		ServiceActivationDate:    opts.ServiceActivationDate,
		Notes:                    opts.Notes,
	}
	if u.ApplicationStatus == "" {
		u.ApplicationStatus = models.UtilityPending
	}
	if err := validate(&u); err != nil {
		return nil, err
	}
	if err := project.Exists(db, opts.ProjectID); err != nil {
		return nil, err
	}
	if err := db.Create(&u).Error; err != nil {
		return nil, fmt.Errorf("utility: create: %w", err)
	}
	return &u, nil
}

// Get retrieves a utility record by ID.
func Get(db *gorm.DB, id string) (*models.Utility, error) {
	var u models.Utility
	if err := db.Where("id = ?", id).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("utility: %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("utility: get %s: %w", id, err)
	}
	return &u, nil
}

// List returns a project's utility records, oldest first.
func List(db *gorm.DB, projectID string) ([]models.Utility, error) {
	var out []models.Utility
	if err := db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("utility: list %s: %w", projectID, err)
	}
	return out, nil
}

// Update changes only the fields set in opts.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Utility, error) {
	u, err := Get(db, id)
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
	set("utility_name", opts.UtilityName, &u.UtilityName)
	set("application_status", opts.ApplicationStatus, &u.ApplicationStatus)
	set("design_review_status", opts.DesignReviewStatus, &u.DesignReviewStatus)
	set("application_submitted_date", opts.ApplicationSubmittedDate, &u.ApplicationSubmittedDate)
	set("meter_set_date", opts.MeterSetDate, &u.MeterSetDate)
	set("service_activation_date", opts.ServiceActivationDate, &u.ServiceActivationDate)
	set("notes", opts.Notes, &u.Notes)
	if len(updates) == 0 {
		return u, nil
	}
	if err := validate(u); err != nil {
		return nil, err
	}
	if err := db.Model(&models.Utility{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("utility: update %s: %w", id, err)
	}
	return Get(db, id)
}

// Delete removes a utility record.
func Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Utility{})
	if result.Error != nil {
		return fmt.Errorf("utility: delete %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("utility: %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}
