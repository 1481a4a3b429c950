package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostel-backend/models"
)

func TestExpense_StatusWorkflow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewExpenseService(db, nopLogger())
	ctx := context.Background()
	h := seedHostel(t, db, "Ledger")
	clerk := seedUser(t, db, "clerk@example.com", models.RoleStaff, &h.ID)
	date := time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC)

	var verr *ValidationError
	_, err := svc.Create(ctx, ExpenseInput{HostelID: h.ID, Title: "Gas", Amount: 0, Date: date}, clerk.ID)
	assert.ErrorAs(t, err, &verr)

	e, err := svc.Create(ctx, ExpenseInput{HostelID: h.ID, Title: " Gas bill ", Category: "Utilities", Amount: 4200, Date: date}, clerk.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExpensePending, e.Status)
	assert.Equal(t, "Gas bill", e.Title)

	_, err = svc.SetStatus(ctx, e.ID, models.ExpensePaid)
	assert.ErrorIs(t, err, ErrInvalidTransition, "pending expenses are approved before payment")
	_, err = svc.SetStatus(ctx, e.ID, "SETTLED")
	assert.ErrorAs(t, err, &verr)

	e, err = svc.SetStatus(ctx, e.ID, models.ExpenseApproved)
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseApproved, e.Status)
	e, err = svc.SetStatus(ctx, e.ID, models.ExpenseApproved)
	require.NoError(t, err, "repeating the current status is a no-op")
	e, err = svc.SetStatus(ctx, e.ID, models.ExpensePaid)
	require.NoError(t, err)
	assert.Equal(t, models.ExpensePaid, e.Status)

	_, err = svc.SetStatus(ctx, e.ID, models.ExpenseRejected)
	assert.ErrorIs(t, err, ErrInvalidTransition, "paid is terminal")

	rejected, err := svc.Create(ctx, ExpenseInput{HostelID: h.ID, Title: "Paint", Amount: 900, Date: date}, clerk.ID)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, rejected.ID, models.ExpenseRejected)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, rejected.ID, models.ExpenseApproved)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, svc.Delete(ctx, rejected.ID))
	assert.ErrorIs(t, svc.Delete(ctx, rejected.ID), ErrExpenseNotFound)
}

func TestExpense_ExportRows(t *testing.T) {
	db := setupTestDB(t)
	svc := NewExpenseService(db, nopLogger())
	ctx := context.Background()
	h := seedHostel(t, db, "Export")
	other := seedHostel(t, db, "Other")
	clerk := seedUser(t, db, "export@example.com", models.RoleStaff, &h.ID)

	late, err := svc.Create(ctx, ExpenseInput{HostelID: h.ID, Title: "Internet", Category: "Utilities", Amount: 3000,
		Date: time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), Notes: "fibre, 100mbps"}, clerk.ID)
	require.NoError(t, err)
	early, err := svc.Create(ctx, ExpenseInput{HostelID: h.ID, Title: "Groceries", Category: "Mess", Amount: 1250.5,
		Date: time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)}, clerk.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, ExpenseInput{HostelID: other.ID, Title: "Elsewhere", Amount: 10,
		Date: time.Date(2026, 10, 5, 0, 0, 0, 0, time.UTC)}, clerk.ID)
	require.NoError(t, err)
	_, err = svc.Create(ctx, ExpenseInput{HostelID: h.ID, Title: "Last month", Amount: 10,
		Date: time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)}, clerk.ID)
	require.NoError(t, err)

	from := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	rows, err := svc.ExportRows(ctx, ExpenseFilter{HostelID: &h.ID, From: &from, To: &to, Page: Page{PageSize: 1}})
	require.NoError(t, err)
	require.Len(t, rows, 2, "export ignores pagination")
	assert.Len(t, ExpenseCSVHeader, len(rows[0]))

	assert.Equal(t, []string{
		itoa(early.ID), itoa(h.ID), "2026-10-02", "Groceries", "Mess", "1250.50", "PENDING", "",
	}, rows[0])
	assert.Equal(t, []string{
		itoa(late.ID), itoa(h.ID), "2026-10-20", "Internet", "Utilities", "3000.00", "PENDING", "fibre, 100mbps",
	}, rows[1])
}

func itoa(v uint) string { return fmt.Sprint(v) }
