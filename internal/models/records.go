package models

import "time"

// Budget item types.
const (
	BudgetOriginal    = "original"
	BudgetChangeOrder = "change_order"
)

// Note tags.
const (
	NoteGeneral   = "general"
	NoteUpdate    = "update"
	NoteIssue     = "issue"
	NoteMilestone = "milestone"
)

// Permit types and statuses.
const (
	PermitElectrical = "Electrical"
	PermitBuilding   = "Building"
	PermitPlanning   = "Planning"
	PermitFire       = "Fire"
	PermitOther      = "Other"

	PermitPending             = "Pending"
	PermitInReview            = "In Review"
	PermitApproved            = "Approved"
	PermitCorrectionsRequired = "Corrections Required"
)

// Utility application statuses.
const (
	UtilityPending  = "Pending"
	UtilityInReview = "In Review"
	UtilityApproved = "Approved"
	UtilityDenied   = "Denied"
)

// BudgetItem is one line of a project's budget.
type BudgetItem struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID   string    `gorm:"size:36;index;not null" json:"project_id"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Amount      float64   `gorm:"not null" json:"amount"`
	ItemType    string    `gorm:"size:16;default:original" json:"item_type"`
	CreatedBy   string    `gorm:"size:36" json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Note is a free-text entry on a project.
type Note struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID  string    `gorm:"size:36;index;not null" json:"project_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	NoteTag    string    `gorm:"size:16;default:general" json:"note_tag"`
	AuthorID   string    `gorm:"size:36;index" json:"author_id,omitempty"`
	AuthorName string    `gorm:"-" json:"author_name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`

	Author *Profile `gorm:"foreignKey:AuthorID" json:"-"`
}

// Permit tracks one permit application.
type Permit struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID     string    `gorm:"size:36;index;not null" json:"project_id"`
	PermitType    string    `gorm:"size:16;not null" json:"permit_type"`
	Status        string    `gorm:"size:32;default:Pending" json:"status"`
	SubmittedDate string    `gorm:"size:10" json:"submitted_date,omitempty"`
	ApprovedDate  string    `gorm:"size:10" json:"approved_date,omitempty"`
	PermitNumber  string    `gorm:"size:64" json:"permit_number,omitempty"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Utility tracks coordination with one utility company.
type Utility struct {
	ID                       string    `gorm:"primaryKey;size:36" json:"id"`
	ProjectID                string    `gorm:"size:36;index;not null" json:"project_id"`
	UtilityName              string    `gorm:"size:255;not null" json:"utility_name"`
	ApplicationStatus        string    `gorm:"size:16;default:Pending" json:"application_status"`
	DesignReviewStatus       string    `gorm:"size:64" json:"design_review_status,omitempty"`
	ApplicationSubmittedDate string    `gorm:"size:10" json:"application_submitted_date,omitempty"`
	MeterSetDate             string    `gorm:"size:10" json:"meter_set_date,omitempty"`
	ServiceActivationDate    string    `gorm:"size:10" json:"service_activation_date,omitempty"`
	Notes                    string    `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt                time.Time `json:"created_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}
