package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hostel-backend/services"
	"hostel-backend/utils"
)

type ReportController struct {
	ReportSvc     *services.ReportService
	AutomationSvc *services.AutomationService
}

func NewReportController(reports *services.ReportService, automation *services.AutomationService) *ReportController {
	return &ReportController{ReportSvc: reports, AutomationSvc: automation}
}

func (ctrl *ReportController) hostel(c *gin.Context) (*uint, bool) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return nil, false
	}
	return scopedHostel(c, hostelID), true
}

func (ctrl *ReportController) GetSummary(c *gin.Context) {
	hostelID, ok := ctrl.hostel(c)
	if !ok {
		return
	}
	out, err := ctrl.ReportSvc.Summary(c.Request.Context(), hostelID, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func months(c *gin.Context) int {
	n, _ := strconv.Atoi(c.DefaultQuery("months", "6"))
	return n
}

func (ctrl *ReportController) GetTrend(c *gin.Context) {
	hostelID, ok := ctrl.hostel(c)
	if !ok {
		return
	}
	out, err := ctrl.ReportSvc.Trend(c.Request.Context(), hostelID, months(c), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *ReportController) GetHostelBreakdown(c *gin.Context) {
	out, err := ctrl.ReportSvc.HostelBreakdown(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, out)
}

func (ctrl *ReportController) ExportReport(c *gin.Context) {
	hostelID, ok := ctrl.hostel(c)
	if !ok {
		return
	}
	points, err := ctrl.ReportSvc.Trend(c.Request.Context(), hostelID, months(c), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	if err := utils.WriteCSV(c, "report", services.ReportCSVHeader, services.TrendRows(points)); err != nil {
		_ = c.Error(err)
	}
}

// ---------------------------
// Automation
// ---------------------------

func (ctrl *ReportController) SyncAutomation(c *gin.Context) {
	logs, err := ctrl.AutomationSvc.Sync(c.Request.Context(), time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, logs, strconv.Itoa(len(logs))+" automation tasks logged")
}

func (ctrl *ReportController) GetAutomationLogs(c *gin.Context) {
	hostelID, ok := ctrl.hostel(c)
	if !ok {
		return
	}
	logs, err := ctrl.AutomationSvc.Logs(c.Request.Context(), hostelID, page(c))
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, logs)
}
