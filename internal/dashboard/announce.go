package dashboard

import (
	"github.com/gin-gonic/gin"
	"github.com/zulandar/chargeyard/internal/models"
	"github.com/zulandar/chargeyard/internal/notify"
	"github.com/zulandar/chargeyard/internal/project"
	"go.uber.org/zap"
)

// announce posts a status change to the configured chat channels. Delivery
// failures are logged and never fail the request.
func (s *server) announce(c *gin.Context, ev notify.Event) {
	if !s.notify.Enabled() {
		return
	}
	if err := s.notify.Announce(c.Request.Context(), ev); err != nil {
		s.log.Warn("status notification failed", zap.String("title", ev.Title), zap.Error(err))
	}
}

func (s *server) projectName(id string) string {
	p, err := project.Get(s.db, id)
	if err != nil {
		return id
	}
	return p.Name
}

func (s *server) announcePermit(c *gin.Context, p *models.Permit) {
	if s.notify.Enabled() {
		s.announce(c, notify.PermitEvent(s.projectName(p.ProjectID), *p))
	}
}

func (s *server) announceUtility(c *gin.Context, u *models.Utility) {
	if s.notify.Enabled() {
		s.announce(c, notify.UtilityEvent(s.projectName(u.ProjectID), *u))
	}
}
