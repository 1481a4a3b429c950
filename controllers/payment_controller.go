package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

type PaymentController struct {
	PaymentSvc *services.PaymentService
}

func NewPaymentController(svc *services.PaymentService) *PaymentController {
	return &PaymentController{PaymentSvc: svc}
}

func (ctrl *PaymentController) GetPayments(c *gin.Context) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return
	}
	userID, ok := queryUint(c, "userId")
	if !ok {
		return
	}
	bookingID, ok := queryUint(c, "bookingId")
	if !ok {
		return
	}
	from, ok := queryDate(c, "from")
	if !ok {
		return
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return
	}

	f := services.PaymentFilter{
		UserID:    userID,
		BookingID: bookingID,
		Status:    models.PaymentStatus(strings.ToUpper(c.Query("status"))),
		Type:      models.PaymentType(strings.ToUpper(c.Query("type"))),
		From:      from,
		To:        to,
		Page:      page(c),
	}
	if a := actor(c); a.IsResidentLike() || a.Role == models.RoleStaff {
		f.UserID = &a.ID
	} else {
		f.HostelID = scopedHostel(c, hostelID)
	}

	list, total, err := ctrl.PaymentSvc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, list, total, f.Page)
}

func (ctrl *PaymentController) GetPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := ctrl.PaymentSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	a := actor(c)
	if p.UserID != a.ID && (p.HostelID == nil || !a.Manages(*p.HostelID)) && !a.IsAdmin() {
		respondError(c, services.ErrPaymentNotFound)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, p)
}

func (ctrl *PaymentController) CreatePayment(c *gin.Context) {
	var in services.PaymentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	in.Type = models.PaymentType(strings.ToUpper(string(in.Type)))
	in.Status = models.PaymentStatus(strings.ToUpper(string(in.Status)))

	_, hostelID, err := ctrl.PaymentSvc.Owner(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	if !actor(c).ManagesRecord(hostelID) {
		respondError(c, services.ErrNotAllowed)
		return
	}

	p, err := ctrl.PaymentSvc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, p, "payment recorded")
}

func (ctrl *PaymentController) UpdatePaymentStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	status := models.PaymentStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	current, err := ctrl.PaymentSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if !actor(c).ManagesRecord(current.HostelID) {
		respondError(c, services.ErrNotAllowed)
		return
	}
	p, err := ctrl.PaymentSvc.UpdateStatus(c.Request.Context(), id, status, req.Method)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, p)
}

func (ctrl *PaymentController) DeletePayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.PaymentSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "payment deleted")
}
