package dashboard

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/chargeyard/internal/models"
	"gorm.io/gorm"
)

// StatusCount is the number of rows sharing one status.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// NoteRow is a recent note with the project it belongs to.
type NoteRow struct {
	models.Note
	ProjectName string `json:"project_name"`
}

// Overview summarizes every project for the dashboard landing view.
type Overview struct {
	Projects    int64         `json:"projects"`
	ByProgress  []StatusCount `json:"by_progress"`
	Permits     []StatusCount `json:"permits"`
	Utilities   []StatusCount `json:"utilities"`
	BudgetTotal float64       `json:"budget_total"`
	RecentNotes []NoteRow     `json:"recent_notes"`
}

// countBy groups model rows by column and counts each group.
func countBy(db *gorm.DB, model any, column string) ([]StatusCount, error) {
	var rows []StatusCount
	if err := db.Model(model).
		Select(column + " as status, count(*) as count").
		Group(column).
		Order(column + " ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("dashboard: count %s: %w", column, err)
	}
	if rows == nil {
		rows = []StatusCount{}
	}
	return rows, nil
}

// RecentNotes returns the newest notes across all projects.
func RecentNotes(db *gorm.DB, limit int) ([]NoteRow, error) {
	var notes []models.Note
	if err := db.Order("created_at DESC").Limit(limit).Find(&notes).Error; err != nil {
		return nil, fmt.Errorf("dashboard: recent notes: %w", err)
	}
	ids := make([]string, 0, len(notes))
	for _, n := range notes {
		ids = append(ids, n.ProjectID)
	}
	var projects []models.Project
	if len(ids) > 0 {
		if err := db.Select("id, name").Where("id IN ?", ids).Find(&projects).Error; err != nil {
			return nil, fmt.Errorf("dashboard: recent notes: %w", err)
		}
	}
	names := make(map[string]string, len(projects))
	for _, p := range projects {
		names[p.ID] = p.Name
	}

	rows := make([]NoteRow, len(notes))
	for i, n := range notes {
		rows[i] = NoteRow{Note: n, ProjectName: names[n.ProjectID]}
	}
	return rows, nil
}

// GetOverview collects the landing-page counts.
func GetOverview(db *gorm.DB) (*Overview, error) {
	var o Overview
	if err := db.Model(&models.Project{}).Count(&o.Projects).Error; err != nil {
		return nil, fmt.Errorf("dashboard: count projects: %w", err)
	}
	var err error
	if o.ByProgress, err = countBy(db, &models.Project{}, "progress_status"); err != nil {
		return nil, err
	}
	if o.Permits, err = countBy(db, &models.Permit{}, "status"); err != nil {
		return nil, err
	}
	if o.Utilities, err = countBy(db, &models.Utility{}, "application_status"); err != nil {
		return nil, err
	}
	if err := db.Model(&models.BudgetItem{}).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&o.BudgetTotal).Error; err != nil {
		return nil, fmt.Errorf("dashboard: budget total: %w", err)
	}
	if o.RecentNotes, err = RecentNotes(db, 10); err != nil {
		return nil, err
	}
	return &o, nil
}

func (s *server) handleOverview(c *gin.Context) {
	o, err := GetOverview(s.db)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}
