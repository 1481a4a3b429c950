package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

type LeaveController struct {
	LeaveSvc *services.LeaveService
}

func NewLeaveController(svc *services.LeaveService) *LeaveController {
	return &LeaveController{LeaveSvc: svc}
}

type leaveRequest struct {
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
	Reason    string `json:"reason"`
	Type      string `json:"type"`
}

type reviewRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note"`
}

func (ctrl *LeaveController) GetLeaves(c *gin.Context) {
	userID, ok := queryUint(c, "userId")
	if !ok {
		return
	}
	f := services.LeaveFilter{
		UserID: userID,
		Status: models.LeaveStatus(strings.ToUpper(c.Query("status"))),
		Page:   page(c),
	}
	list, total, err := ctrl.LeaveSvc.List(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, list, total, f.Page)
}

func (ctrl *LeaveController) CreateLeave(c *gin.Context) {
	var req leaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "startDate and endDate are required")
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		badRequest(c, "invalid startDate, expected YYYY-MM-DD")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		badRequest(c, "invalid endDate, expected YYYY-MM-DD")
		return
	}
	out, err := ctrl.LeaveSvc.Create(c.Request.Context(), actor(c), services.LeaveInput{
		StartDate: start,
		EndDate:   end,
		Reason:    req.Reason,
		Type:      models.LeaveType(strings.ToUpper(strings.TrimSpace(req.Type))),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, out, "leave request submitted")
}

func (ctrl *LeaveController) ReviewLeave(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	out, err := ctrl.LeaveSvc.Review(c.Request.Context(), actor(c), id, req.Approve, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *LeaveController) CancelLeave(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.LeaveSvc.Cancel(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "leave request withdrawn")
}
