package models

import "time"

// Custom field types.
const (
	FieldText   = "text"
	FieldDate   = "date"
	FieldSelect = "select"
	FieldNumber = "number"
)

// Project progress statuses.
const (
	ProgressPending    = "Pending"
	ProgressInProgress = "In Progress"
	ProgressCompleted  = "Completed"
	ProgressOnHold     = "On Hold"
)

// Project is one installation project. Phases, tasks and custom field
// definitions are stored as JSON columns on the project row.
type Project struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	Name            string        `gorm:"size:255;not null" json:"name"`
	Client          string        `gorm:"size:255" json:"client"`
	OwnerID         string        `gorm:"size:36;index" json:"owner_id,omitempty"`
	CustomFields    []CustomField `gorm:"serializer:json;type:json" json:"custom_fields"`
	Phases          []Phase       `gorm:"serializer:json;type:json" json:"phases"`
	Tasks           []Task        `gorm:"serializer:json;type:json" json:"tasks"`
	ProgressStatus  string        `gorm:"size:16;default:Pending" json:"progress_status"`
	ProgressPercent int           `gorm:"default:0" json:"progress_percent"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at" gorm:"index"`
}

// Phase is a named, colored grouping of tasks.
type Phase struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Task is a scheduled unit of work within a phase. Dates are YYYY-MM-DD.
type Task struct {
	ID           string                `json:"id"`
	PhaseID      string                `json:"phaseId"`
	Name         string                `json:"name"`
	StartDate    string                `json:"startDate"`
	EndDate      string                `json:"endDate"`
	CustomFields map[string]FieldValue `json:"customFields,omitempty"`
}

// CustomField defines an extra column on a project's tasks.
type CustomField struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required,omitempty"`
}

// FieldValue is a task's value for one custom field, tagged by type. Only
// the member matching Type is meaningful.
type FieldValue struct {
	Type   string   `json:"type"`
	Text   string   `json:"text,omitempty"`
	Number *float64 `json:"number,omitempty"`
	Date   string   `json:"date,omitempty"`
	Option string   `json:"option,omitempty"`
}
