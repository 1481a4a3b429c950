package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

type RoomController struct {
	RoomSvc *services.RoomService
}

func NewRoomController(svc *services.RoomService) *RoomController {
	return &RoomController{RoomSvc: svc}
}

func (ctrl *RoomController) GetRooms(c *gin.Context) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return
	}
	f := services.RoomFilter{
		HostelID: hostelID,
		Status:   models.RoomStatus(strings.ToUpper(c.Query("status"))),
		Page:     page(c),
	}
	rooms, total, err := ctrl.RoomSvc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, rooms, total, f.Page)
}

func (ctrl *RoomController) GetRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	room, err := ctrl.RoomSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

func (ctrl *RoomController) GetAvailability(c *gin.Context) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return
	}
	out, err := ctrl.RoomSvc.Availability(c.Request.Context(), hostelID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *RoomController) CreateRoom(c *gin.Context) {
	var in services.RoomInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if !actor(c).Manages(in.HostelID) {
		respondError(c, services.ErrNotAllowed)
		return
	}
	room, err := ctrl.RoomSvc.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, room, "room created")
}

func (ctrl *RoomController) UpdateRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in services.RoomUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if !ctrl.canManage(c, id) {
		return
	}
	// moving a room needs authority over the destination too
	if in.HostelID != nil && !actor(c).Manages(*in.HostelID) {
		respondError(c, services.ErrNotAllowed)
		return
	}
	room, err := ctrl.RoomSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

func (ctrl *RoomController) SetRoomStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	if !ctrl.canManage(c, id) {
		return
	}
	status := models.RoomStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	room, err := ctrl.RoomSvc.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, room)
}

func (ctrl *RoomController) DeleteRoom(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if !ctrl.canManage(c, id) {
		return
	}
	if err := ctrl.RoomSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "room deleted")
}

// canManage writes the error response itself when the caller may not edit the room.
func (ctrl *RoomController) canManage(c *gin.Context, roomID uint) bool {
	room, err := ctrl.RoomSvc.Get(c.Request.Context(), roomID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !actor(c).Manages(room.HostelID) {
		respondError(c, services.ErrNotAllowed)
		return false
	}
	return true
}
