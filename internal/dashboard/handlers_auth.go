package dashboard

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/chargeyard/internal/apperr"
	"github.com/zulandar/chargeyard/internal/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type roleRequest struct {
	Role string `json:"role"`
}

// bind decodes the JSON body into v, answering 400 on failure.
func (s *server) bind(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		s.fail(c, apperr.Invalid("malformed request body: %v", err))
		return false
	}
	return true
}

func (s *server) setSessionCookie(c *gin.Context, tok *auth.Token) {
	maxAge := int(time.Until(tok.ExpiresAt).Seconds())
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(tokenCookie, tok.Value, maxAge, "/", "", false, true)
}

func (s *server) handleSignUp(c *gin.Context) {
	var req auth.Credentials
	if !s.bind(c, &req) {
		return
	}
	p, err := s.auth.SignUp(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *server) handleLogin(c *gin.Context) {
	var req loginRequest
	if !s.bind(c, &req) {
		return
	}
	tok, err := s.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setSessionCookie(c, tok)
	c.JSON(http.StatusOK, tok)
}

func (s *server) handleLogout(c *gin.Context) {
	if err := s.auth.SignOut(c.Request.Context(), c.GetString(tokenKey)); err != nil {
		s.fail(c, err)
		return
	}
	c.SetCookie(tokenCookie, "", -1, "/", "", false, true)
	c.Status(http.StatusNoContent)
}

func (s *server) handleRefresh(c *gin.Context) {
	tok, err := s.auth.Refresh(c.Request.Context(), c.GetString(tokenKey))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.setSessionCookie(c, tok)
	c.JSON(http.StatusOK, tok)
}

func (s *server) handleMe(c *gin.Context) {
	p := currentProfile(c)
	c.JSON(http.StatusOK, gin.H{
		"profile":   p,
		"can_write": auth.CanWrite(p.Role),
	})
}

func (s *server) handleListUsers(c *gin.Context) {
	users, err := s.auth.ListUsers(c.Request.Context(), currentProfile(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *server) handleUpdateRole(c *gin.Context) {
	var req roleRequest
	if !s.bind(c, &req) {
		return
	}
	p, err := s.auth.UpdateRole(c.Request.Context(), currentProfile(c), c.Param("id"), req.Role)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
