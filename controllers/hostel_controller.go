package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-backend/services"
	"hostel-backend/utils"
)

type HostelController struct {
	HostelSvc *services.HostelService
}

func NewHostelController(svc *services.HostelService) *HostelController {
	return &HostelController{HostelSvc: svc}
}

func (ctrl *HostelController) GetHostels(c *gin.Context) {
	p := page(c)
	list, total, err := ctrl.HostelSvc.List(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, list, total, p)
}

func (ctrl *HostelController) GetHostel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	h, err := ctrl.HostelSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, h)
}

func (ctrl *HostelController) CreateHostel(c *gin.Context) {
	var in services.HostelInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	h, err := ctrl.HostelSvc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, h, "hostel created")
}

func (ctrl *HostelController) UpdateHostel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if !actor(c).Manages(id) {
		respondError(c, services.ErrNotAllowed)
		return
	}
	var in services.HostelInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	h, err := ctrl.HostelSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, h)
}

func (ctrl *HostelController) DeleteHostel(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.HostelSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "hostel deleted")
}

func (ctrl *HostelController) GetStats(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if !actor(c).Manages(id) {
		respondError(c, services.ErrNotAllowed)
		return
	}
	stats, err := ctrl.HostelSvc.Stats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, stats)
}

type assignWardenRequest struct {
	UserID uint `json:"userId" binding:"required"`
}

func (ctrl *HostelController) AssignWarden(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req assignWardenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "userId is required")
		return
	}
	h, err := ctrl.HostelSvc.AssignWarden(c.Request.Context(), id, req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, h, "warden assigned")
}
