// Package export writes a project as a downloadable JSON document.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/zulandar/chargeyard/internal/models"
)

var whitespace = regexp.MustCompile(`\s+`)

// Document is the exported shape of a project.
type Document struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Client       string               `json:"client"`
	CreatedAt    time.Time            `json:"createdAt"`
	CustomFields []models.CustomField `json:"customFields"`
	Phases       []models.Phase       `json:"phases"`
	Tasks        []models.Task        `json:"tasks"`
}

// Filename is the download name for a project: whitespace runs become
// underscores, suffixed with _gantt.json.
func Filename(name string) string {
	return whitespace.ReplaceAllString(name, "_") + "_gantt.json"
}

// FromProject builds the export document for p.
func FromProject(p *models.Project) Document {
	d := Document{
		ID:           p.ID,
		Name:         p.Name,
		Client:       p.Client,
		CreatedAt:    p.CreatedAt,
		CustomFields: p.CustomFields,
		Phases:       p.Phases,
		Tasks:        p.Tasks,
	}
	if d.CustomFields == nil {
		d.CustomFields = []models.CustomField{}
	}
	if d.Phases == nil {
		d.Phases = []models.Phase{}
	}
	if d.Tasks == nil {
		d.Tasks = []models.Task{}
	}
	return d
}

// Write encodes p as 2-space indented JSON.
func Write(w io.Writer, p *models.Project) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(FromProject(p)); err != nil {
		return fmt.Errorf("export: %s: %w", p.Name, err)
	}
	return nil
}
