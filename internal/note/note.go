// Package note manages free-text project notes.
package note

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/project"
	"gorm.io/gorm"
)

// UnknownAuthor is shown for notes whose author profile is gone.
const UnknownAuthor = "Unknown"

// CreateOpts holds parameters for adding a note.
type CreateOpts struct {
	ProjectID string
	Content   string
	Tag       string // defaults to general
	AuthorID  string
}

// UpdateOpts lists the fields to change. Nil fields are left alone.
type UpdateOpts struct {
	Content *string
	Tag     *string
}

// ValidTag reports whether tag is a known note tag.
func ValidTag(tag string) bool {
	switch tag {
	case models.NoteGeneral, models.NoteUpdate, models.NoteIssue, models.NoteMilestone:
		return true
	}
	return false
}

func validate(n *models.Note) error {
	if strings.TrimSpace(n.Content) == "" {
		return apperr.Invalid("note content is required")
	}
	if !ValidTag(n.NoteTag) {
		return apperr.Invalid("note tag %q must be general, update, issue or milestone", n.NoteTag)
	}
	return nil
}

// Create adds a note to an existing project.
func Create(db *gorm.DB, opts CreateOpts) (*models.Note, error) {
	n := models.Note{
		ID:        uuid.NewString(),
		ProjectID: opts.ProjectID,
		Content:   strings.TrimSpace(opts.Content),
		NoteTag:   opts.Tag,
		AuthorID:  opts.AuthorID,
	}
	if n.NoteTag == "" {
		n.NoteTag = models.NoteGeneral
	}
	if err := validate(&n); err != nil {
		return nil, err
	}
	if err := project.Exists(db, opts.ProjectID); err != nil {
		return nil, err
	}
	if err := db.Create(&n).Error; err != nil {
		return nil, fmt.Errorf("note: create: %w", err)
	}
	return Get(db, n.ID)
}

// Get retrieves a note by ID with its author name filled in.
func Get(db *gorm.DB, id string) (*models.Note, error) {
	var n models.Note
	if err := db.Preload("Author").Where("id = ?", id).First(&n).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("note: %s: %w", id, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("note: get %s: %w", id, err)
	}
	fillAuthor(&n)
	return &n, nil
}

// List returns a project's notes, newest first.
func List(db *gorm.DB, projectID string) ([]models.Note, error) {
	var notes []models.Note
	if err := db.Preload("Author").Where("project_id = ?", projectID).Order("created_at DESC").Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("note: list %s: %w", projectID, err)
	}
	for i := range notes {
		fillAuthor(&notes[i])
	}
	return notes, nil
}

// Update changes a note's content or tag.
func Update(db *gorm.DB, id string, opts UpdateOpts) (*models.Note, error) {
	n, err := Get(db, id)
	if err != nil {
		return nil, err
	}
	if opts.Content != nil {
		n.Content = strings.TrimSpace(*opts.Content)
	}
	if opts.Tag != nil {
		n.NoteTag = *opts.Tag
	}
	if err := validate(n); err != nil {
		return nil, err
	}
	err = db.Model(&models.Note{}).Where("id = ?", id).Updates(map[string]interface{}{
		"content":  n.Content,
		"note_tag": n.NoteTag,
	}).Error
	if err != nil {
		return nil, fmt.Errorf("note: update %s: %w", id, err)
	}
	return Get(db, id)
}

// Delete removes a note.
func Delete(db *gorm.DB, id string) error {
	result := db.Where("id = ?", id).Delete(&models.Note{})
	if result.Error != nil {
		return fmt.Errorf("note: delete %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("note: %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func fillAuthor(n *models.Note) {
	n.AuthorName = UnknownAuthor
	if n.Author != nil {
		if name := n.Author.DisplayName(); name != "" {
			n.AuthorName = name
		}
	}
}
