// Package budget manages a project's budget line items and their totals.
package budget

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/project"
	"gorm.io/gorm"
)

// CreateOpts holds parameters for adding a budget item.
type CreateOpts struct {
	ProjectID   string
	Description string
	Amount      float64
	ItemType    string // original (default) or change_order
	CreatedBy   string
}

// UpdateOpts lists the fields to change. Nil fields are left alone.
type UpdateOpts struct {
	Description *string
	Amount      *float64
	ItemType    *string
}

// Summary totals a project's budget.
type Summary struct {
	Original     float64 `json:"original"`
	ChangeOrders float64 `json:"change_orders"`
	Total        float64 `json:"total"`
	Items        int     `json:"items"`
}

func validate(item *models.BudgetItem) error {
	if strings.TrimSpace(item.Description) == "" {
		return apperr.Invalid("budget description is required")
	}
	if math.IsNaN(item.Amount) || math.IsInf(item.Amount, 0) {
		return apperr.Invalid("budget amount must be a finite number")
	}
	switch item.ItemType {
	case models.BudgetOriginal, models.BudgetChangeOrder:
	default:
		return apperr.Invalid("budget type %q must be original or change_order", item.ItemType)
	}
	return nil
}

// Create adds a budget item to an existing project.
func Create(db *gorm.DB, opts CreateOpts) (*models.BudgetItem, error) {
	item := models.BudgetItem{
		ID:          uuid.NewString(),
		ProjectID:   opts.ProjectID,
		Description: strings.TrimSpace(opts.Description),
		Amount:      opts.Amount,
		ItemType:    opts.ItemType,
		CreatedBy:   opts.CreatedBy,
	}
	if item.ItemType == "" {
		item.ItemType = models.BudgetOriginal
	}
	if err := validate(&item); err != nil {
		return nil, err
	}
	if err := project.Exists(db, opts.ProjectID); err != nil {
		return nil, err
	}
	if err := db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("budget: create: %w", err)
	}
	return &item, nil
}

// Get retrieves a budget item by ID.
func Get(db *gorm.DB, id string) (*models.BudgetItem, error) {
	var item models.BudgetItem
	if err := db.Where("id = ?", id).First(&item).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("budget: item %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("budget: get %s: %w", id, err)
	}
	return &item, nil
}

// List returns a project's budget items, oldest first.
func List(db *gorm.DB, projectID string) ([]models.BudgetItem, error) {
	var items []models.BudgetItem
	if err := db.Where("project_id = ?", projectID).Order("created_at ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("budget: list %s: %w", projectID, err)
	}
	return items, nil
}

// Update changes the fields set in opts.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.BudgetItem, error) {
	item, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if opts.Description != nil {
		item.Description = strings.TrimSpace(*opts.Description)
	}
	if opts.Amount != nil {
		item.Amount = *opts.Amount
	}
	if opts.ItemType != nil {
		item.ItemType = *opts.ItemType
	}
	if err := validate(item); err != nil {
		return nil, err
	}
	err = db.Model(&models.BudgetItem{}).Where("id = ?", id).Updates(map[string]interface{}{
		"description": item.Description,
		"amount":      item.Amount,
		"item_type":   item.ItemType,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("budget: update %s: %w", id, err)
	}
	return item, nil
}

// Delete removes a budget item.
func Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.BudgetItem{})
	if result.Error != nil {
		return fmt.Errorf("budget: delete %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("budget: item %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// Summarize totals items by type.
func Summarize(items []models.BudgetItem) Summary {
	var s Summary
	for _, it := range items {
		if it.ItemType == models.BudgetChangeOrder {
			s.ChangeOrders += it.Amount
		} else {
			s.Original += it.Amount
		}
	}
	s.Total = s.Original + s.ChangeOrders
	s.Items = len(items)
	return s
}

// ProjectSummary loads and totals a project's budget.
func ProjectSummary(db *gorm.DB, projectID string) (Summary, error) {
	items, err := List(db, projectID)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(items), nil
}
