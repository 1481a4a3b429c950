package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

type PayrollController struct {
	PayrollSvc *services.PayrollService
}

func NewPayrollController(svc *services.PayrollService) *PayrollController {
	return &PayrollController{PayrollSvc: svc}
}

func (ctrl *PayrollController) filter(c *gin.Context, employeeParam string) (services.PayrollFilter, bool) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return services.PayrollFilter{}, false
	}
	employeeID, ok := queryUint(c, employeeParam)
	if !ok {
		return services.PayrollFilter{}, false
	}
	f := services.PayrollFilter{
		HostelID:   scopedHostel(c, hostelID),
		EmployeeID: employeeID,
		Month:      strings.TrimSpace(c.Query("month")),
		Status:     models.SalaryStatus(strings.ToUpper(c.Query("status"))),
		Page:       page(c),
	}
	// staff and wardens only see their own pay
	if a := actor(c); !a.IsAdmin() {
		f.HostelID = nil
		f.EmployeeID = &a.ID
	}
	return f, true
}

// ---------------------------
// Staff salaries
// ---------------------------

func (ctrl *PayrollController) GetSalaries(c *gin.Context) {
	f, ok := ctrl.filter(c, "staffId")
	if !ok {
		return
	}
	list, total, err := ctrl.PayrollSvc.ListSalaries(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, list, total, f.Page)
}

func (ctrl *PayrollController) GetSalary(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	row, err := ctrl.PayrollSvc.GetSalary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if a := actor(c); !a.IsAdmin() && row.StaffID != a.ID {
		respondError(c, services.ErrSalaryNotFound)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, row)
}

type salaryRequest struct {
	services.PayrollInput
	StaffID  uint `json:"staffId"`
	WardenID uint `json:"wardenId"`
}

func (r salaryRequest) input() services.PayrollInput {
	in := r.PayrollInput
	if in.EmployeeID == 0 {
		in.EmployeeID = r.StaffID
	}
	if in.EmployeeID == 0 {
		in.EmployeeID = r.WardenID
	}
	return in
}

func (ctrl *PayrollController) CreateSalary(c *gin.Context) {
	var req salaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	in := req.input()
	home, err := ctrl.PayrollSvc.StaffHostel(c.Request.Context(), in.EmployeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	a := actor(c)
	if !a.ManagesRecord(home) || (in.HostelID != nil && !a.Manages(*in.HostelID)) {
		respondError(c, services.ErrNotAllowed)
		return
	}
	row, err := ctrl.PayrollSvc.CreateSalary(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, row, "salary recorded")
}

func (ctrl *PayrollController) UpdateSalary(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req salaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if !ctrl.canManageSalary(c, id) {
		return
	}
	row, err := ctrl.PayrollSvc.UpdateSalary(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, row)
}

func (ctrl *PayrollController) PaySalary(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if !ctrl.canManageSalary(c, id) {
		return
	}
	row, err := ctrl.PayrollSvc.MarkSalaryPaid(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, row, "salary marked as paid")
}

func (ctrl *PayrollController) DeleteSalary(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if !ctrl.canManageSalary(c, id) {
		return
	}
	if err := ctrl.PayrollSvc.DeleteSalary(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "salary deleted")
}

type generateRequest struct {
	Month    string `json:"month"`
	HostelID *uint  `json:"hostelId"`
}

func (ctrl *PayrollController) GenerateSalaries(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if req.Month == "" {
		req.Month = time.Now().Format("2006-01")
	}
	// wardens only run payroll for their own hostel
	if a := actor(c); !a.IsAdmin() {
		if req.HostelID == nil {
			req.HostelID = a.HostelID
		}
		if !a.ManagesRecord(req.HostelID) {
			respondError(c, services.ErrNotAllowed)
			return
		}
	}
	rows, err := ctrl.PayrollSvc.GenerateMonthly(c.Request.Context(), req.Month, req.HostelID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, rows, "salaries generated")
}

// canManageSalary writes the error response itself when the caller may not edit the row.
func (ctrl *PayrollController) canManageSalary(c *gin.Context, id uint) bool {
	row, err := ctrl.PayrollSvc.GetSalary(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !actor(c).ManagesRecord(row.HostelID) {
		respondError(c, services.ErrNotAllowed)
		return false
	}
	return true
}

// ---------------------------
// Warden payments
// ---------------------------

func (ctrl *PayrollController) GetWardenPayments(c *gin.Context) {
	f, ok := ctrl.filter(c, "wardenId")
	if !ok {
		return
	}
	list, total, err := ctrl.PayrollSvc.ListWardenPayments(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, list, total, f.Page)
}

func (ctrl *PayrollController) CreateWardenPayment(c *gin.Context) {
	var req salaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	row, err := ctrl.PayrollSvc.CreateWardenPayment(c.Request.Context(), req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, row, "warden payment recorded")
}

func (ctrl *PayrollController) UpdateWardenPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req salaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	row, err := ctrl.PayrollSvc.UpdateWardenPayment(c.Request.Context(), id, req.input())
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, row)
}

func (ctrl *PayrollController) PayWarden(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	row, err := ctrl.PayrollSvc.MarkWardenPaymentPaid(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, row, "warden payment marked as paid")
}

func (ctrl *PayrollController) DeleteWardenPayment(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.PayrollSvc.DeleteWardenPayment(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "warden payment deleted")
}
