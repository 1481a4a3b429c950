package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

type ComplaintController struct {
	ComplaintSvc *services.ComplaintService
}

func NewComplaintController(svc *services.ComplaintService) *ComplaintController {
	return &ComplaintController{ComplaintSvc: svc}
}

func (ctrl *ComplaintController) GetComplaints(c *gin.Context) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return
	}
	f := services.ComplaintFilter{
		HostelID: hostelID,
		Status:   models.ComplaintStatus(strings.ToUpper(c.Query("status"))),
		Page:     page(c),
	}
	list, total, err := ctrl.ComplaintSvc.List(c.Request.Context(), actor(c), f)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, list, total, f.Page)
}

func (ctrl *ComplaintController) GetComplaint(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	out, err := ctrl.ComplaintSvc.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *ComplaintController) CreateComplaint(c *gin.Context) {
	var in services.ComplaintInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	in.Priority = models.Priority(strings.ToUpper(string(in.Priority)))
	out, err := ctrl.ComplaintSvc.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, out, "complaint submitted")
}

func (ctrl *ComplaintController) UpdateComplaint(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.ComplaintUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	in.Status = models.ComplaintStatus(strings.ToUpper(string(in.Status)))
	out, err := ctrl.ComplaintSvc.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *ComplaintController) DeleteComplaint(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.ComplaintSvc.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "complaint deleted")
}
