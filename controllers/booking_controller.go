package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type CreateBookingRequest struct {
	RoomID uint  `json:"roomId" binding:"required"`
	UserID *uint `json:"userId"`

	// guest details, used when userId is absent
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	CNIC          string `json:"cnic"`
	Address       string `json:"address"`
	GuardianName  string `json:"guardianName"`
	GuardianPhone string `json:"guardianPhone"`

	CheckIn         string  `json:"checkIn" binding:"required"`
	CheckOut        string  `json:"checkOut"`
	TotalAmount     float64 `json:"totalAmount"`
	SecurityDeposit float64 `json:"securityDeposit"`
	PaymentStatus   string  `json:"paymentStatus"`
	Notes           string  `json:"notes"`
}

type UpdateBookingRequest struct {
	CheckIn         *string  `json:"checkIn"`
	CheckOut        *string  `json:"checkOut"`
	TotalAmount     *float64 `json:"totalAmount"`
	SecurityDeposit *float64 `json:"securityDeposit"`
	Notes           *string  `json:"notes"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
	Method string `json:"method"`
}

// ---------------------------
// Controller
// ---------------------------

type BookingController struct {
	BookingSvc *services.BookingService
}

func NewBookingController(svc *services.BookingService) *BookingController {
	return &BookingController{BookingSvc: svc}
}

func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload: roomId and checkIn are required")
		return
	}

	in := services.CreateBookingInput{
		RoomID:          req.RoomID,
		UserID:          req.UserID,
		TotalAmount:     req.TotalAmount,
		SecurityDeposit: req.SecurityDeposit,
		PaymentStatus:   models.PaymentStatus(strings.ToUpper(strings.TrimSpace(req.PaymentStatus))),
		Notes:           req.Notes,
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		badRequest(c, "invalid checkIn, expected YYYY-MM-DD")
		return
	}
	in.CheckIn = checkIn
	if req.CheckOut != "" {
		checkOut, err := parseDate(req.CheckOut)
		if err != nil {
			badRequest(c, "invalid checkOut, expected YYYY-MM-DD")
			return
		}
		in.CheckOut = &checkOut
	}
	if req.UserID == nil {
		in.Guest = &services.GuestInput{
			Name:          req.Name,
			Email:         req.Email,
			Phone:         req.Phone,
			CNIC:          req.CNIC,
			Address:       req.Address,
			GuardianName:  req.GuardianName,
			GuardianPhone: req.GuardianPhone,
		}
	}

	hostelID, err := ctrl.BookingSvc.RoomHostel(c.Request.Context(), req.RoomID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !actor(c).Manages(hostelID) {
		respondError(c, services.ErrNotAllowed)
		return
	}

	res, err := ctrl.BookingSvc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, res, "booking created")
}

func (ctrl *BookingController) GetBookings(c *gin.Context) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return
	}
	roomID, ok := queryUint(c, "roomId")
	if !ok {
		return
	}
	userID, ok := queryUint(c, "userId")
	if !ok {
		return
	}

	a := actor(c)
	f := services.BookingFilter{
		RoomID: roomID,
		UserID: userID,
		Status: models.BookingStatus(strings.ToUpper(c.Query("status"))),
		Page:   page(c),
	}
	if a.IsResidentLike() {
		f.UserID = &a.ID
	} else {
		f.HostelID = scopedHostel(c, hostelID)
	}

	list, total, err := ctrl.BookingSvc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, list, total, f.Page)
}

func (ctrl *BookingController) GetBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	b, err := ctrl.BookingSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	a := actor(c)
	if a.IsResidentLike() && b.UserID != a.ID {
		respondError(c, services.ErrBookingNotFound)
		return
	}
	if !a.IsResidentLike() && !a.Manages(b.HostelID) {
		respondError(c, services.ErrNotAllowed)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, b)
}

func (ctrl *BookingController) UpdateBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	in := services.UpdateBookingInput{
		TotalAmount:     req.TotalAmount,
		SecurityDeposit: req.SecurityDeposit,
		Notes:           req.Notes,
	}
	if req.CheckIn != nil {
		t, err := parseDate(*req.CheckIn)
		if err != nil {
			badRequest(c, "invalid checkIn, expected YYYY-MM-DD")
			return
		}
		in.CheckIn = &t
	}
	if req.CheckOut != nil {
		t, err := parseDate(*req.CheckOut)
		if err != nil {
			badRequest(c, "invalid checkOut, expected YYYY-MM-DD")
			return
		}
		in.CheckOut = &t
	}

	if !ctrl.canManage(c, id) {
		return
	}
	b, err := ctrl.BookingSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, b)
}

func (ctrl *BookingController) UpdateBookingStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	status := models.BookingStatus(strings.ToUpper(strings.TrimSpace(req.Status)))

	if !ctrl.canManage(c, id) {
		return
	}
	b, err := ctrl.BookingSvc.UpdateStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, b, "booking status updated")
}

func (ctrl *BookingController) DeleteBooking(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if !ctrl.canManage(c, id) {
		return
	}
	if err := ctrl.BookingSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "booking deleted")
}

// canManage writes the error response itself when the caller may not edit the booking.
func (ctrl *BookingController) canManage(c *gin.Context, id uint) bool {
	b, err := ctrl.BookingSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !actor(c).Manages(b.HostelID) {
		respondError(c, services.ErrNotAllowed)
		return false
	}
	return true
}
