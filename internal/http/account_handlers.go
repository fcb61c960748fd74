package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"boardshop/internal/domain"
	"boardshop/internal/service"
)

// userResp is the public view of a user; the password hash never leaves the service.
type userResp struct {
	ID           string    `json:"id"`
	Name         string    `json:"nombre"`
	Username     string    `json:"usuario"`
	Email        string    `json:"email"`
	BirthDate    string    `json:"fechaNacimiento"`
	Comments     string    `json:"comentarios,omitempty"`
	RegisteredAt time.Time `json:"fechaRegistro"`
}

func toUserResp(u *domain.User) userResp {
	return userResp{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		Email:        u.Email,
		BirthDate:    u.BirthDate,
		Comments:     u.Comments,
		RegisteredAt: u.RegisteredAt,
	}
}

// @Summary Register
// @Description Creates the account and logs this session in.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.RegisterInput true "Account"
// @Success 201 {object} userResp
// @Failure 400 {object} errorResp
// @Failure 409 {object} errorResp
// @Router /auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	u, err := s.accounts.Register(c.Request.Context(), currentSession(c), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toUserResp(u))
}

type loginReq struct {
	Identifier string `json:"identifier" binding:"required"`
	Password   string `json:"password" binding:"required"`
	Remember   bool   `json:"remember"`
}

// @Summary Login
// @Description Identifier is an email or a username.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body loginReq true "Credentials"
// @Success 200 {object} userResp
// @Failure 400 {object} errorResp
// @Failure 401 {object} errorResp
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	u, err := s.accounts.Login(c.Request.Context(), currentSession(c), req.Identifier, req.Password, req.Remember)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResp(u))
}

// @Summary Logout
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Router /auth/logout [post]
func (s *Server) logout(c *gin.Context) {
	if err := s.accounts.Logout(c.Request.Context(), currentSession(c)); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} userResp
// @Failure 401 {object} errorResp
// @Router /auth/me [get]
func (s *Server) me(c *gin.Context) {
	u, err := s.accounts.CurrentUser(c.Request.Context(), currentSession(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResp(u))
}

// @Summary Update profile
// @Description Omitted fields keep their value; an empty password leaves it unchanged.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body service.ProfileUpdate true "Changes"
// @Success 200 {object} userResp
// @Failure 400 {object} errorResp
// @Failure 401 {object} errorResp
// @Failure 409 {object} errorResp
// @Router /auth/me [put]
func (s *Server) updateMe(c *gin.Context) {
	var req service.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	u, err := s.accounts.UpdateProfile(c.Request.Context(), currentSession(c), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResp(u))
}

// @Summary Remembered login identifier
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string
// @Router /auth/remembered [get]
func (s *Server) remembered(c *gin.Context) {
	id, err := s.accounts.RememberedUser(c.Request.Context(), currentSession(c))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"identifier": id})
}

type recoveryCodeReq struct {
	Email string `json:"email" binding:"required"`
}

type recoveryCodeResp struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// @Summary Request a recovery code
// @Description The code is included in the response only when the server runs with expose_recovery_code.
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body recoveryCodeReq true "Email"
// @Success 202 {object} recoveryCodeResp
// @Failure 404 {object} errorResp
// @Router /auth/recovery/code [post]
func (s *Server) sendRecoveryCode(c *gin.Context) {
	var req recoveryCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	code, err := s.accounts.SendVerificationCode(c.Request.Context(), currentSession(c), req.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, recoveryCodeResp{Message: "recovery code sent", Code: code})
}

type verifyCodeReq struct {
	Email string `json:"email" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// @Summary Verify a recovery code
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body verifyCodeReq true "Code"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} errorResp
// @Failure 410 {object} errorResp
// @Router /auth/recovery/verify [post]
func (s *Server) verifyRecoveryCode(c *gin.Context) {
	var req verifyCodeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if err := s.accounts.VerifyRecoveryCode(c.Request.Context(), currentSession(c), req.Email, req.Code); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"valid": true})
}

type resetPasswordReq struct {
	Email    string `json:"email" binding:"required"`
	Code     string `json:"code" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// @Summary Reset password
// @Tags auth
// @Accept json
// @Security BearerAuth
// @Param input body resetPasswordReq true "New password"
// @Success 204
// @Failure 400 {object} errorResp
// @Failure 410 {object} errorResp
// @Router /auth/recovery/reset [post]
func (s *Server) resetPassword(c *gin.Context) {
	var req resetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid json")
		return
	}
	if err := s.accounts.ResetPassword(c.Request.Context(), currentSession(c), req.Email, req.Code, req.Password); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
