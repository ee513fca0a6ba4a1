package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lycanzy/experimentdocumentationapp/internal/api/middleware"
	"github.com/lycanzy/experimentdocumentationapp/internal/domain"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      domain.User `json:"user"`
}

// Login handles POST /auth/login.
func (s *Server) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	user, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		_ = c.Error(err)
		return
	}

	token, expiresAt, err := middleware.GenerateToken(s.jwtCfg, *user)
	if err != nil {
		_ = c.Error(err)
		return
	}

	actor := domain.Actor{UserID: user.ID, Username: user.Username, IsAdmin: user.IsAdmin}
	if err := s.audit.LogAction(ctx, s.store.Queries(), "user.login", "user", user.ID, actor, nil); err != nil {
		s.logger(c).Warn("audit log write failed",
			zap.Error(err),
			zap.String("action", "user.login"),
			zap.String("user_id", user.ID),
		)
	}

	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt, User: *user})
}

// GetCurrentUser handles GET /auth/me.
func (s *Server) GetCurrentUser(c *gin.Context) {
	actor, ok := actorFromCtx(c)
	if !ok {
		return
	}
	user, err := s.users.Get(c.Request.Context(), actor.UserID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}
