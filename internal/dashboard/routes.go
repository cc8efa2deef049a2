package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zulandar/chargeyard/internal/db"
	"go.uber.org/zap"
)

// registerRoutes sets up all dashboard routes on the Gin router.
func registerRoutes(router *gin.Engine, s *server) {
	// Health and metrics.
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", s.handleReady)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Accounts.
	router.POST("/api/auth/signup", s.handleSignUp)
	router.POST("/api/auth/login", s.handleLogin)

	api := router.Group("/api", s.authRequired())
	api.POST("/auth/logout", s.handleLogout)
	api.POST("/auth/refresh", s.handleRefresh)
	api.GET("/me", s.handleMe)
	api.GET("/events", s.handleEvents)
	api.GET("/overview", s.handleOverview)

	// Reads, open to every signed-in role.
	api.GET("/projects", s.handleListProjects)
	api.GET("/projects/:id", s.handleGetProject)
	api.GET("/projects/:id/export", s.handleExport)
	api.GET("/projects/:id/gantt", s.handleGanttJSON)
	api.GET("/projects/:id/budget", s.handleListBudget)
	api.GET("/projects/:id/budget/summary", s.handleBudgetSummary)
	api.GET("/projects/:id/notes", s.handleListNotes)
	api.GET("/projects/:id/permits", s.handleListPermits)
	api.GET("/projects/:id/utilities", s.handleListUtilities)

	// Writes, admin only.
	w := api.Group("", s.requireWrite(), countWrites())
	w.POST("/projects", s.handleCreateProject)
	w.PUT("/projects/:id", s.handleUpdateProject)
	w.DELETE("/projects/:id", s.handleDeleteProject)
	w.PUT("/projects/:id/progress", s.handleSetProgress)
	w.POST("/projects/:id/phases", s.handleAddPhase)
	w.POST("/projects/:id/fields", s.handleAddField)
	w.POST("/projects/:id/tasks", s.handleAddTask)
	w.DELETE("/projects/:id/fields/:fieldId", s.handleRemoveField)
	w.DELETE("/projects/:id/tasks/:taskId", s.handleRemoveTask)

	w.POST("/projects/:id/budget", s.handleCreateBudget)
	w.PUT("/budget/:id", s.handleUpdateBudget)
	w.DELETE("/budget/:id", s.handleDeleteBudget)
	w.POST("/projects/:id/notes", s.handleCreateNote)
	w.PUT("/notes/:id", s.handleUpdateNote)
	w.DELETE("/notes/:id", s.handleDeleteNote)
	w.POST("/projects/:id/permits", s.handleCreatePermit)
	w.PUT("/permits/:id", s.handleUpdatePermit)
	w.DELETE("/permits/:id", s.handleDeletePermit)
	w.POST("/projects/:id/utilities", s.handleCreateUtility)
	w.PUT("/utilities/:id", s.handleUpdateUtility)
	w.DELETE("/utilities/:id", s.handleDeleteUtility)

	w.GET("/users", s.handleListUsers)
	w.PUT("/users/:id/role", s.handleUpdateRole)

	// Printable pages.
	pages := router.Group("/projects", s.authRequired())
	pages.GET("/:id/gantt", s.handleGanttHTML)
	pages.GET("/:id/gantt.svg", s.handleGanttSVG)
}

func (s *server) handleReady(c *gin.Context) {
	if err := db.Ping(s.db); err != nil {
		s.log.Warn("readiness check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "db_not_ready", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
