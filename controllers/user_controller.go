package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

type UserController struct {
	UserSvc *services.UserService
}

func NewUserController(svc *services.UserService) *UserController {
	return &UserController{UserSvc: svc}
}

func (ctrl *UserController) GetUsers(c *gin.Context) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return
	}
	f := services.UserFilter{
		Role:     models.Role(strings.ToUpper(c.Query("role"))),
		HostelID: scopedHostel(c, hostelID),
		Search:   c.Query("q"),
		Page:     page(c),
	}
	list, total, err := ctrl.UserSvc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, list, total, f.Page)
}

func (ctrl *UserController) GetUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	u, err := ctrl.UserSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if a := actor(c); !a.IsAdmin() && (u.HostelID == nil || !a.Manages(*u.HostelID)) {
		respondError(c, services.ErrUserNotFound)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, u)
}

func (ctrl *UserController) CreateUser(c *gin.Context) {
	var in services.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	out, err := ctrl.UserSvc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, out, "user created")
}

func (ctrl *UserController) UpdateUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.UserInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	u, err := ctrl.UserSvc.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, u)
}

func (ctrl *UserController) DeleteUser(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if id == actor(c).ID {
		badRequest(c, "you cannot delete your own account")
		return
	}
	if err := ctrl.UserSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "user deleted")
}
