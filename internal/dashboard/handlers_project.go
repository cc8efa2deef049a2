package dashboard

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/chargeyard/internal/export"
	"github.com/zulandar/chargeyard/internal/gantt"
	"github.com/zulandar/chargeyard/internal/metrics"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/notify"
	"github.com/zulandar/chargeyard/internal/project"
)

type projectRequest struct {
	Name         *string               `json:"name"`
	Client       *string               `json:"client"`
	CustomFields *[]models.CustomField `json:"custom_fields"`
	Phases       *[]models.Phase       `json:"phases"`
	Tasks        *[]models.Task        `json:"tasks"`
}

type progressRequest struct {
	Status  string `json:"status"`
	Percent int    `json:"percent"`
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func (s *server) handleListProjects(c *gin.Context) {
	list, err := project.List(s.db, project.ListFilters{Client: c.Query("client")})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *server) handleGetProject(c *gin.Context) {
	p, err := project.Get(s.db, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *server) handleCreateProject(c *gin.Context) {
	var req projectRequest
	if !s.bind(c, &req) {
		return
	}
	p, err := project.Create(s.db, project.CreateOpts{
		Name:         deref(req.Name),
		Client:       deref(req.Client),
		OwnerID:      currentProfile(c).ID,
		CustomFields: deref(req.CustomFields),
		Phases:       deref(req.Phases),
		Tasks:        deref(req.Tasks),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *server) handleUpdateProject(c *gin.Context) {
	var req projectRequest
	if !s.bind(c, &req) {
		return
	}
	p, err := project.Update(s.db, c.Param("id"), project.UpdateOpts{
		Name:         req.Name,
		Client:       req.Client,
		CustomFields: req.CustomFields,
		Phases:       req.Phases,
		Tasks:        req.Tasks,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *server) handleDeleteProject(c *gin.Context) {
	if err := project.Delete(s.db, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) handleSetProgress(c *gin.Context) {
	var req progressRequest
	if !s.bind(c, &req) {
		return
	}
	p, err := project.SetProgress(s.db, c.Param("id"), req.Status, req.Percent)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.announce(c, notify.ProgressEvent(*p))
	c.JSON(http.StatusOK, p)
}

func (s *server) handleAddPhase(c *gin.Context) {
	var ph models.Phase
	if !s.bind(c, &ph) {
		return
	}
	p, err := project.AddPhase(s.db, c.Param("id"), ph)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *server) handleAddField(c *gin.Context) {
	var f models.CustomField
	if !s.bind(c, &f) {
		return
	}
	p, err := project.AddField(s.db, c.Param("id"), f)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *server) handleRemoveField(c *gin.Context) {
	p, err := project.RemoveField(s.db, c.Param("id"), c.Param("fieldId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *server) handleAddTask(c *gin.Context) {
	var t models.Task
	if !s.bind(c, &t) {
		return
	}
	p, err := project.AddTask(s.db, c.Param("id"), t)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *server) handleRemoveTask(c *gin.Context) {
	p, err := project.RemoveTask(s.db, c.Param("id"), c.Param("taskId"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *server) handleExport(c *gin.Context) {
	p, err := project.Get(s.db, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := export.Write(&buf, p); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename(p.Name)}))
	c.Data(http.StatusOK, "application/json", buf.Bytes())
}

// chart loads a project and lays out its Gantt chart.
func (s *server) chart(c *gin.Context) (*gantt.Chart, bool) {
	p, err := project.Get(s.db, c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	ch, err := gantt.Build(p)
	if err != nil {
		s.fail(c, err)
		return nil, false
	}
	return ch, true
}

func (s *server) handleGanttJSON(c *gin.Context) {
	ch, ok := s.chart(c)
	if !ok {
		return
	}
	metrics.IncrementGanttRender("json")
	c.JSON(http.StatusOK, ch)
}

func (s *server) handleGanttHTML(c *gin.Context) {
	ch, ok := s.chart(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := gantt.RenderHTML(&buf, ch); err != nil {
		s.fail(c, err)
		return
	}
	metrics.IncrementGanttRender("html")
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *server) handleGanttSVG(c *gin.Context) {
	ch, ok := s.chart(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := gantt.RenderSVG(&buf, ch, s.gantt); err != nil {
		s.fail(c, err)
		return
	}
	metrics.IncrementGanttRender("svg")
	c.Data(http.StatusOK, "image/svg+xml", buf.Bytes())
}
