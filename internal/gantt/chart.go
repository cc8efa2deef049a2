// Package gantt turns a project into a Gantt chart model and renders it as
// a printable HTML page or an SVG image.
package gantt

import (
	"errors"
	"fmt"
	"time"

	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/timeline"
)

// ErrNoTasks is returned by Build for a project without tasks; there is no
// date range to draw.
var ErrNoTasks = errors.New("gantt: project has no tasks")

// Row is one task line: sidebar label plus bar placement.
type Row struct {
	Task      models.Task  `json:"task"`
	Bar       timeline.Bar `json:"bar"`
	Milestone bool         `json:"milestone"`
	Dates     string       `json:"dates"`
}

// Group is a phase header followed by its tasks, in task order.
type Group struct {
	Phase models.Phase `json:"phase"`
	Rows  []Row        `json:"rows"`
}

// Chart is the layout of a whole project.
type Chart struct {
	Title  string           `json:"title"`
	Client string           `json:"client"`
	Start  time.Time        `json:"start"`
	End    time.Time        `json:"end"`
	Months []timeline.Month `json:"months"`
	Groups []Group          `json:"groups"`
	Legend []models.Phase   `json:"legend"`
}

// RowCount is the number of sidebar lines: one per phase plus one per task
// row.
func (c *Chart) RowCount() int {
	n := 0
	for _, g := range c.Groups {
		n += 1 + len(g.Rows)
	}
	return n
}

// Build lays out p. The date range spans every task, including tasks whose
// phase no longer exists; those tasks get no row. Every phase gets a group,
// even when it has no tasks.
func Build(p *models.Project) (*Chart, error) {
	if len(p.Tasks) == 0 {
		return nil, ErrNoTasks
	}
	dates := make([]string, 0, 2*len(p.Tasks))
	for _, t := range p.Tasks {
		dates = append(dates, t.StartDate, t.EndDate)
	}
	start, end, err := timeline.Range(dates...)
	if err != nil {
		return nil, fmt.Errorf("gantt: %s: %w", p.Name, err)
	}

	c := &Chart{
		Title:  p.Name,
		Client: p.Client,
		Start:  start,
		End:    end,
		Months: timeline.Months(start, end),
		Legend: p.Phases,
	}
	for _, ph := range p.Phases {
		g := Group{Phase: ph, Rows: []Row{}}
		for _, t := range p.Tasks {
			if t.PhaseID != ph.ID {
				continue
			}
			bar, err := timeline.BarPosition(t.StartDate, t.EndDate, start, end)
			if err != nil {
				return nil, fmt.Errorf("gantt: task %q: %w", t.Name, err)
			}
			g.Rows = append(g.Rows, Row{
				Task:      t,
				Bar:       bar,
				Milestone: timeline.IsMilestone(t.StartDate, t.EndDate),
				Dates:     dateLabel(t),
			})
		}
		c.Groups = append(c.Groups, g)
	}
	return c, nil
}

func dateLabel(t models.Task) string {
	if timeline.IsMilestone(t.StartDate, t.EndDate) {
		return timeline.FormatDisplayDate(t.StartDate)
	}
	return timeline.FormatDisplayDate(t.StartDate) + " - " + timeline.FormatDisplayDate(t.EndDate)
}
