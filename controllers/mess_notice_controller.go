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
// Mess menu
// ---------------------------

type MessMenuController struct {
	MenuSvc *services.MessMenuService
}

func NewMessMenuController(svc *services.MessMenuService) *MessMenuController {
	return &MessMenuController{MenuSvc: svc}
}

func (ctrl *MessMenuController) GetMenu(c *gin.Context) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return
	}
	if a := actor(c); !a.IsAdmin() || hostelID == nil {
		hostelID = a.HostelID
	}
	if hostelID == nil {
		badRequest(c, "hostelId is required")
		return
	}
	week, err := ctrl.MenuSvc.Week(c.Request.Context(), *hostelID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, week)
}

func (ctrl *MessMenuController) UpsertMenu(c *gin.Context) {
	var in services.MessMenuInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	a := actor(c)
	if in.HostelID == 0 && a.HostelID != nil {
		in.HostelID = *a.HostelID
	}
	if !a.Manages(in.HostelID) {
		respondError(c, services.ErrNotAllowed)
		return
	}
	out, err := ctrl.MenuSvc.Upsert(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *MessMenuController) DeleteMenu(c *gin.Context) {
	hostelID, ok := paramID(c, "hostelId")
	if !ok {
		return
	}
	if !actor(c).Manages(hostelID) {
		respondError(c, services.ErrNotAllowed)
		return
	}
	if err := ctrl.MenuSvc.Delete(c.Request.Context(), hostelID, c.Param("day")); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "menu removed")
}

// ---------------------------
// Notices
// ---------------------------

type NoticeController struct {
	NoticeSvc *services.NoticeService
}

func NewNoticeController(svc *services.NoticeService) *NoticeController {
	return &NoticeController{NoticeSvc: svc}
}

type noticeRequest struct {
	HostelID  *uint    `json:"hostelId"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Priority  string   `json:"priority"`
	Audience  []string `json:"audience"`
	ExpiresAt string   `json:"expiresAt"`
}

func (r noticeRequest) input() (services.NoticeInput, error) {
	in := services.NoticeInput{
		HostelID: r.HostelID,
		Title:    r.Title,
		Content:  r.Content,
		Priority: models.Priority(strings.ToUpper(strings.TrimSpace(r.Priority))),
		Audience: r.Audience,
	}
	if r.ExpiresAt != "" {
		t, err := parseDate(r.ExpiresAt)
		if err != nil {
			return in, err
		}
		in.ExpiresAt = &t
	}
	return in, nil
}

func (ctrl *NoticeController) GetNotices(c *gin.Context) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return
	}
	list, err := ctrl.NoticeSvc.List(c.Request.Context(), actor(c), hostelID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

func (ctrl *NoticeController) CreateNotice(c *gin.Context) {
	var req noticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, "invalid expiresAt, expected YYYY-MM-DD")
		return
	}
	out, err := ctrl.NoticeSvc.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, out, "notice posted")
}

func (ctrl *NoticeController) UpdateNotice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req noticeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, "invalid expiresAt, expected YYYY-MM-DD")
		return
	}
	out, err := ctrl.NoticeSvc.Update(c.Request.Context(), actor(c), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *NoticeController) DeleteNotice(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.NoticeSvc.Delete(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "notice deleted")
}
