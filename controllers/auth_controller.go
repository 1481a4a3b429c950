package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPayload struct {
	Email string `json:"email"`
}

type resetPayload struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type changePasswordPayload struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type AuthController struct {
	AuthSvc *services.AuthService
	UserSvc *services.UserService
}

func NewAuthController(auth *services.AuthService, users *services.UserService) *AuthController {
	return &AuthController{AuthSvc: auth, UserSvc: users}
}

func (ctrl *AuthController) Login(c *gin.Context) {
	var payload loginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		badRequest(c, "email and password required")
		return
	}
	res, err := ctrl.AuthSvc.Login(c.Request.Context(), payload.Email, payload.Password, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, res)
}

func (ctrl *AuthController) Register(c *gin.Context) {
	var in services.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	u, err := ctrl.AuthSvc.Register(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, u, "account created")
}

func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	var payload forgotPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if err := ctrl.AuthSvc.ForgotPassword(c.Request.Context(), payload.Email); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "if the email exists, a reset link has been sent")
}

func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	var payload resetPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if err := ctrl.AuthSvc.ResetPassword(c.Request.Context(), payload.Token, payload.Password); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "password updated")
}

func (ctrl *AuthController) ChangePassword(c *gin.Context) {
	var payload changePasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	p := principal(c)
	if err := ctrl.AuthSvc.ChangePassword(c.Request.Context(), p.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "password changed")
}

func (ctrl *AuthController) Logout(c *gin.Context) {
	if err := ctrl.AuthSvc.Logout(c.Request.Context(), principal(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "signed out")
}

// ---------------------------
// Self service
// ---------------------------

func (ctrl *AuthController) Me(c *gin.Context) {
	u, err := ctrl.UserSvc.Get(c.Request.Context(), principal(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, u)
}

func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	var in services.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	a := actor(c)
	// role, email and hostel are admin-only fields even on your own account
	a.Role = nonAdmin(a.Role)
	u, err := ctrl.UserSvc.Update(c.Request.Context(), a, a.ID, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, u)
}

func nonAdmin(r models.Role) models.Role {
	if r == models.RoleAdmin {
		return ""
	}
	return r
}

func (ctrl *AuthController) GetSessions(c *gin.Context) {
	p := principal(c)
	list, err := ctrl.AuthSvc.ListSessions(c.Request.Context(), p.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	out := make([]gin.H, 0, len(list))
	for _, s := range list {
		out = append(out, gin.H{
			"id":         s.ID,
			"userAgent":  s.UserAgent,
			"ip":         s.IP,
			"createdAt":  s.CreatedAt,
			"lastSeenAt": s.LastSeenAt,
			"expiresAt":  s.ExpiresAt,
			"current":    s.ID == p.SessionID,
		})
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *AuthController) RevokeSession(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.AuthSvc.RevokeSession(c.Request.Context(), principal(c).ID, id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "session revoked")
}

func (ctrl *AuthController) RevokeOtherSessions(c *gin.Context) {
	if err := ctrl.AuthSvc.RevokeOthers(c.Request.Context(), principal(c)); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "other sessions revoked")
}
