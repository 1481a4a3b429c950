package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"hostel-backend/models"
	"hostel-backend/services"
	"hostel-backend/utils"
)

type ExpenseController struct {
	ExpenseSvc *services.ExpenseService
}

func NewExpenseController(svc *services.ExpenseService) *ExpenseController {
	return &ExpenseController{ExpenseSvc: svc}
}

type expenseRequest struct {
	HostelID uint    `json:"hostelId"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Amount   float64 `json:"amount"`
	Date     string  `json:"date"`
	Notes    string  `json:"notes"`
}

func (r expenseRequest) input() (services.ExpenseInput, error) {
	in := services.ExpenseInput{
		HostelID: r.HostelID,
		Title:    r.Title,
		Category: r.Category,
		Amount:   r.Amount,
		Notes:    r.Notes,
	}
	if r.Date != "" {
		d, err := parseDate(r.Date)
		if err != nil {
			return in, err
		}
		in.Date = d
	}
	return in, nil
}

func (ctrl *ExpenseController) filter(c *gin.Context) (services.ExpenseFilter, bool) {
	hostelID, ok := queryUint(c, "hostelId")
	if !ok {
		return services.ExpenseFilter{}, false
	}
	from, ok := queryDate(c, "from")
	if !ok {
		return services.ExpenseFilter{}, false
	}
	to, ok := queryDate(c, "to")
	if !ok {
		return services.ExpenseFilter{}, false
	}
	return services.ExpenseFilter{
		HostelID: scopedHostel(c, hostelID),
		Category: strings.TrimSpace(c.Query("category")),
		Status:   models.ExpenseStatus(strings.ToUpper(c.Query("status"))),
		From:     from,
		To:       to,
		Page:     page(c),
	}, true
}

func (ctrl *ExpenseController) GetExpenses(c *gin.Context) {
	f, ok := ctrl.filter(c)
	if !ok {
		return
	}
	list, total, err := ctrl.ExpenseSvc.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	listResponse(c, list, total, f.Page)
}

func (ctrl *ExpenseController) ExportExpenses(c *gin.Context) {
	f, ok := ctrl.filter(c)
	if !ok {
		return
	}
	rows, err := ctrl.ExpenseSvc.ExportRows(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := utils.WriteCSV(c, "expenses", services.ExpenseCSVHeader, rows); err != nil {
		_ = c.Error(err)
	}
}

func (ctrl *ExpenseController) CreateExpense(c *gin.Context) {
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, "invalid date, expected YYYY-MM-DD")
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
	e, err := ctrl.ExpenseSvc.Create(c.Request.Context(), in, a.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusCreated, e, "expense recorded")
}

func (ctrl *ExpenseController) UpdateExpense(c *gin.Context) {
	id, ok := ctrl.managedID(c)
	if !ok {
		return
	}
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	in, err := req.input()
	if err != nil {
		badRequest(c, "invalid date, expected YYYY-MM-DD")
		return
	}
	e, err := ctrl.ExpenseSvc.Update(c.Request.Context(), id, in)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, e)
}

func (ctrl *ExpenseController) SetExpenseStatus(c *gin.Context) {
	id, ok := ctrl.managedID(c)
	if !ok {
		return
	}
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status is required")
		return
	}
	status := models.ExpenseStatus(strings.ToUpper(strings.TrimSpace(req.Status)))
	e, err := ctrl.ExpenseSvc.SetStatus(c.Request.Context(), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, e)
}

func (ctrl *ExpenseController) DeleteExpense(c *gin.Context) {
	id, ok := ctrl.managedID(c)
	if !ok {
		return
	}
	if err := ctrl.ExpenseSvc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	utils.JSONSuccessMessage(c, http.StatusOK, nil, "expense deleted")
}

func (ctrl *ExpenseController) managedID(c *gin.Context) (uint, bool) {
	id, ok := paramID(c, "id")
	if !ok {
		return 0, false
	}
	e, err := ctrl.ExpenseSvc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	if !actor(c).Manages(e.HostelID) {
		respondError(c, services.ErrNotAllowed)
		return 0, false
	}
	return id, true
}
