package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

type MaintenanceController struct {
	MaintenanceSvc *services.MaintenanceService
}

func NewMaintenanceController(svc *services.MaintenanceService) *MaintenanceController {
	return &MaintenanceController{MaintenanceSvc: svc}
}

func (ctrl *MaintenanceController) GetRequests(c *gin.Context) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return
	}
	roomID, ok := queryUint(c, "roomId")
	if !ok {
		return
	}
	f := services.MaintenanceFilter{
		HostelID: hostelID,
		RoomID:   roomID,
		Status:   models.MaintenanceStatus(strings.ToUpper(c.Query("status"))),
		Page:     page(c),
	}
	list, total, err := ctrl.MaintenanceSvc.List(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, list, total, f.Page)
}

func (ctrl *MaintenanceController) CreateRequest(c *gin.Context) {
	var in services.MaintenanceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	in.Priority = models.Priority(strings.ToUpper(string(in.Priority)))
	out, err := ctrl.MaintenanceSvc.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, out, "maintenance request created")
}

func (ctrl *MaintenanceController) SetStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	status := models.MaintenanceStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	out, err := ctrl.MaintenanceSvc.SetStatus(c.Request.Context(), actor(c), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *MaintenanceController) DeleteRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.MaintenanceSvc.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "maintenance request deleted")
}
