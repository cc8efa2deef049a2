package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/chargeyard/internal/budget"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/note"
	"github.com/zulandar/chargeyard/internal/permit"
	"github.com/zulandar/chargeyard/internal/project"
	"github.com/zulandar/chargeyard/internal/utility"
)

type budgetRequest struct {
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	ItemType    *string  `json:"item_type"`
}

type noteRequest struct {
	Content *string `json:"content"`
	Tag     *string `json:"note_tag"`
}

type permitRequest struct {
	PermitType    *string `json:"permit_type"`
	Status        *string `json:"status"`
	SubmittedDate *string `json:"submitted_date"`
	ApprovedDate  *string `json:"approved_date"`
	PermitNumber  *string `json:"permit_number"`
	Notes         *string `json:"notes"`
}

type utilityRequest struct {
	UtilityName              *string `json:"utility_name"`
	ApplicationStatus        *string `json:"application_status"`
	DesignReviewStatus       *string `json:"design_review_status"`
	ApplicationSubmittedDate *string `json:"application_submitted_date"`
	MeterSetDate             *string `json:"meter_set_date"`
	ServiceActivationDate    *string `json:"service_activation_date"`
	Notes                    *string `json:"notes"`
}

// listFor answers 404 for a missing project before listing its records,
// so an empty list always means an existing project with no records.
func listFor[T any](s *server, c *gin.Context, list func(projectID string) ([]T, error)) {
	id := c.Param("id")
	if err := project.Exists(s.db, id); err != nil {
		s.fail(c, err)
		return
	}
	out, err := list(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	if out == nil {
		out = []T{}
	}
	c.JSON(http.StatusOK, out)
}

// respond writes v with status, or the error.
func (s *server) respond(c *gin.Context, status int, v any, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	if v == nil {
		c.Status(status)
		return
	}
	c.JSON(status, v)
}

// Budget.

func (s *server) handleListBudget(c *gin.Context) {
	listFor(s, c, func(id string) ([]models.BudgetItem, error) { return budget.List(s.db, id) })
}

func (s *server) handleBudgetSummary(c *gin.Context) {
	if err := project.Exists(s.db, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	sum, err := budget.ProjectSummary(s.db, c.Param("id"))
	s.respond(c, http.StatusOK, sum, err)
}

func (s *server) handleCreateBudget(c *gin.Context) {
	var req budgetRequest
	if !s.bind(c, &req) {
		return
	}
	item, err := budget.Create(s.db, budget.CreateOpts{
		ProjectID:   c.Param("id"),
		Description: deref(req.Description),
		Amount:      deref(req.Amount),
		ItemType:    deref(req.ItemType),
		CreatedBy:   currentProfile(c).ID,
	})
	s.respond(c, http.StatusCreated, item, err)
}

func (s *server) handleUpdateBudget(c *gin.Context) {
	var req budgetRequest
	if !s.bind(c, &req) {
		return
	}
	item, err := budget.Update(s.db, c.Param("id"), budget.UpdateOpts{
		Description: req.Description,
		Amount:      req.Amount,
		ItemType:    req.ItemType,
	})
	s.respond(c, http.StatusOK, item, err)
}

func (s *server) handleDeleteBudget(c *gin.Context) {
	s.respond(c, http.StatusNoContent, nil, budget.Delete(s.db, c.Param("id")))
}

// Notes.

func (s *server) handleListNotes(c *gin.Context) {
	listFor(s, c, func(id string) ([]models.Note, error) { return note.List(s.db, id) })
}

func (s *server) handleCreateNote(c *gin.Context) {
	var req noteRequest
	if !s.bind(c, &req) {
		return
	}
	n, err := note.Create(s.db, note.CreateOpts{
		ProjectID: c.Param("id"),
		Content:   deref(req.Content),
		Tag:       deref(req.Tag),
		AuthorID:  currentProfile(c).ID,
	})
	s.respond(c, http.StatusCreated, n, err)
}

func (s *server) handleUpdateNote(c *gin.Context) {
	var req noteRequest
	if !s.bind(c, &req) {
		return
	}
	n, err := note.Update(s.db, c.Param("id"), note.UpdateOpts{Content: req.Content, Tag: req.Tag})
	s.respond(c, http.StatusOK, n, err)
}

func (s *server) handleDeleteNote(c *gin.Context) {
	s.respond(c, http.StatusNoContent, nil, note.Delete(s.db, c.Param("id")))
}

// Permits.

func (s *server) handleListPermits(c *gin.Context) {
	listFor(s, c, func(id string) ([]models.Permit, error) { return permit.List(s.db, id) })
}

func (s *server) handleCreatePermit(c *gin.Context) {
	var req permitRequest
	if !s.bind(c, &req) {
		return
	}
	p, err := permit.Create(s.db, permit.CreateOpts{
		ProjectID:     c.Param("id"),
		PermitType:    deref(req.PermitType),
		Status:        deref(req.Status),
		SubmittedDate: deref(req.SubmittedDate),
		ApprovedDate:  deref(req.ApprovedDate),
		PermitNumber:  deref(req.PermitNumber),
		Notes:         deref(req.Notes),
	})
	if err == nil {
		s.announcePermit(c, p)
	}
	s.respond(c, http.StatusCreated, p, err)
}

func (s *server) handleUpdatePermit(c *gin.Context) {
	var req permitRequest
	if !s.bind(c, &req) {
		return
	}
	prev, err := permit.Get(s.db, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	p, err := permit.Update(s.db, c.Param("id"), permit.UpdateOpts(req))
	if err == nil && p.Status != prev.Status {
		s.announcePermit(c, p)
	}
	s.respond(c, http.StatusOK, p, err)
}

func (s *server) handleDeletePermit(c *gin.Context) {
	s.respond(c, http.StatusNoContent, nil, permit.Delete(s.db, c.Param("id")))
}

// Utilities.

func (s *server) handleListUtilities(c *gin.Context) {
	listFor(s, c, func(id string) ([]models.Utility, error) { return utility.List(s.db, id) })
}

func (s *server) handleCreateUtility(c *gin.Context) {
	var req utilityRequest
	if !s.bind(c, &req) {
		return
	}
	u, err := utility.Create(s.db, utility.CreateOpts{
		ProjectID:                c.Param("id"),
		UtilityName:              deref(req.UtilityName),
		ApplicationStatus:        deref(req.ApplicationStatus),
		DesignReviewStatus:       deref(req.DesignReviewStatus),
		ApplicationSubmittedDate: deref(req.ApplicationSubmittedDate),
		MeterSetDate:             deref(req.MeterSetDate),
		ServiceActivationDate:    deref(req.ServiceActivationDate),
		Notes:                    deref(req.Notes),
	})
	if err == nil {
		s.announceUtility(c, u)
	}
	s.respond(c, http.StatusCreated, u, err)
}

func (s *server) handleUpdateUtility(c *gin.Context) {
	var req utilityRequest
	if !s.bind(c, &req) {
		return
	}
	prev, err := utility.Get(s.db, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	u, err := utility.Update(s.db, c.Param("id"), utility.UpdateOpts(req))
	if err == nil && u.ApplicationStatus != prev.ApplicationStatus {
		s.announceUtility(c, u)
	}
	s.respond(c, http.StatusOK, u, err)
}

func (s *server) handleDeleteUtility(c *gin.Context) {
	s.respond(c, http.StatusNoContent, nil, utility.Delete(s.db, c.Param("id")))
}
