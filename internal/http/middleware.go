package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"boardshop/internal/mylogger"
	"boardshop/internal/session"
)

const sessionContextKey = "session"

// requireSession resolves the bearer token into a session or aborts with 401.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing session token"})
			return
		}

		sess, err := s.sessions.Parse(strings.TrimSpace(token))
		if err != nil {
			mylogger.Debug(c.Request.Context(), s.logger, "Rejected session token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session token"})
			return
		}

		c.Set(sessionContextKey, sess)
		c.Next()
	}
}

func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionContextKey).(*session.Session)
}

type sessionResp struct {
	Token     string `json:"token"`
	SessionID string `json:"session_id"`
}

// @Summary Start a session
// @Description Issues a bearer token that identifies the visitor's cart, login and recovery state.
// @Tags sessions
// @Produce json
// @Success 201 {object} sessionResp
// @Failure 500 {object} errorResp
// @Router /sessions [post]
func (s *Server) createSession(c *gin.Context) {
	token, sess, err := s.sessions.Issue()
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResp{Token: token, SessionID: sess.ID})
}
