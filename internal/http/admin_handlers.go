package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type adminLoginReq struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary Admin login
// @Tags admin
// @Accept json
// @Security BearerAuth
// @Param input body adminLoginReq true "Credentials"
// @Success 204
// @Failure 401 {object} errorResp
// @Router /admin/login [post]
func (s *Server) adminLogin(c *gin.Context) {
	var req adminLoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if err := s.accounts.AdminLogin(c.Request.Context(), currentSession(c), req.Username, req.Password); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Admin logout
// @Tags admin
// @Security BearerAuth
// @Success 204
// @Router /admin/logout [post]
func (s *Server) adminLogout(c *gin.Context) {
	if err := s.accounts.AdminLogout(c.Request.Context(), currentSession(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Registered users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} userResp
// @Failure 403 {object} errorResp
// @Router /admin/users [get]
func (s *Server) adminUsers(c *gin.Context) {
	users, err := s.accounts.RegisteredUsers(c.Request.Context(), currentSession(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]userResp, 0, len(users))
	for i := range users {
		out = append(out, toUserResp(&users[i]))
	}
	c.JSON(http.StatusOK, out)
}

// @Summary User statistics
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.UserStats
// @Failure 403 {object} errorResp
// @Router /admin/stats [get]
func (s *Server) adminStats(c *gin.Context) {
	stats, err := s.accounts.UserStats(c.Request.Context(), currentSession(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// @Summary Delete user
// @Tags admin
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} errorResp
// @Failure 404 {object} errorResp
// @Router /admin/users/{id} [delete]
func (s *Server) adminDeleteUser(c *gin.Context) {
	if err := s.accounts.DeleteUser(c.Request.Context(), currentSession(c), c.Param("id")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
