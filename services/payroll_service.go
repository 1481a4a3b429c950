package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-backend/models"
	"hostel-backend/utils"
)

// PayrollService handles monthly staff salaries and warden payments.
type PayrollService struct {
	DB       *gorm.DB
	Notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

func NewPayrollService(db *gorm.DB, notifier Notifier, log *zap.Logger) *PayrollService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &PayrollService{DB: db, Notifier: notifier, log: log.Named("payroll"), now: time.Now}
}

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// PayrollInput is shared by salaries and warden payments; EmployeeID is the
// staff or warden user id.
type PayrollInput struct {
	EmployeeID  uint    `json:"employeeId"`
	HostelID    *uint   `json:"hostelId"`
	Month       string  `json:"month"`
	BasicSalary float64 `json:"basicSalary"`
	Allowances  float64 `json:"allowances"`
	Deductions  float64 `json:"deductions"`
	Notes       string  `json:"notes"`
}

func (in *PayrollInput) validate() error {
	in.Month = strings.TrimSpace(in.Month)
	if in.EmployeeID == 0 {
		return invalid("employeeId", "is required")
	}
	if !monthPattern.MatchString(in.Month) {
		return invalid("month", "must be YYYY-MM")
	}
	if in.BasicSalary < 0 || in.Allowances < 0 || in.Deductions < 0 {
		return invalid("basicSalary", "amounts must not be negative")
	}
	if in.NetAmount() < 0 {
		return invalid("deductions", "deductions exceed salary")
	}
	return nil
}

func (in PayrollInput) NetAmount() float64 {
	return in.BasicSalary + in.Allowances - in.Deductions
}

func (s *PayrollService) loadEmployee(db *gorm.DB, id uint, role models.Role) (*models.User, error) {
	var u models.User
	if err := db.First(&u, id).Error; err != nil {
		return nil, notFoundOr(err, ErrUserNotFound)
	}
	if u.Role != role {
		return nil, invalid("employeeId", "user %d is not %s", id, role)
	}
	return &u, nil
}

// StaffHostel returns the hostel a staff member is attached to, if any.
func (s *PayrollService) StaffHostel(ctx context.Context, staffID uint) (*uint, error) {
	staff, err := s.loadEmployee(s.DB.WithContext(ctx), staffID, models.RoleStaff)
	if err != nil {
		return nil, err
	}
	return staff.HostelID, nil
}

func (s *PayrollService) CreateSalary(ctx context.Context, in PayrollInput) (*models.Salary, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	staff, err := s.loadEmployee(db, in.EmployeeID, models.RoleStaff)
	if err != nil {
		return nil, err
	}
	if in.HostelID == nil {
		in.HostelID = staff.HostelID
	}

	row := models.Salary{
		StaffID:     in.EmployeeID,
		HostelID:    in.HostelID,
		Month:       in.Month,
		BasicSalary: in.BasicSalary,
		Allowances:  in.Allowances,
		Deductions:  in.Deductions,
		NetAmount:   in.NetAmount(),
		Status:      models.SalaryPending,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := db.Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("salary_exists", fmt.Sprintf("salary for %s already recorded", in.Month))
		}
		return nil, fmt.Errorf("create salary: %w", err)
	}
	return &row, nil
}

func (s *PayrollService) GetSalary(ctx context.Context, id uint) (*models.Salary, error) {
	var row models.Salary
	if err := s.DB.WithContext(ctx).Preload("Staff").First(&row, id).Error; err != nil {
		return nil, notFoundOr(err, ErrSalaryNotFound)
	}
	return &row, nil
}

type PayrollFilter struct {
	HostelID   *uint
	EmployeeID *uint
	Month      string
	Status     models.SalaryStatus
	Page
}

func (f PayrollFilter) scope(q *gorm.DB, employeeCol string) *gorm.DB {
	if f.HostelID != nil {
		q = q.Where("hostel_id = ?", *f.HostelID)
	}
	if f.EmployeeID != nil {
		q = q.Where(employeeCol+" = ?", *f.EmployeeID)
	}
	if f.Month != "" {
		q = q.Where("month = ?", f.Month)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	return q
}

func (s *PayrollService) ListSalaries(ctx context.Context, f PayrollFilter) ([]models.Salary, int64, error) {
	q := f.scope(s.DB.WithContext(ctx).Model(&models.Salary{}), "staff_id")
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count salaries: %w", err)
	}
	var list []models.Salary
	if err := f.Page.apply(q).Preload("Staff").Order("month DESC, id DESC").Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list salaries: %w", err)
	}
	return list, total, nil
}

func (s *PayrollService) UpdateSalary(ctx context.Context, id uint, in PayrollInput) (*models.Salary, error) {
	row, err := s.GetSalary(ctx, id)
	if err != nil {
		return nil, err
	}
	in.EmployeeID = row.StaffID
	if in.Month == "" {
		in.Month = row.Month
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"month":        in.Month,
		"basic_salary": in.BasicSalary,
		"allowances":   in.Allowances,
		"deductions":   in.Deductions,
		"net_amount":   in.NetAmount(),
		"notes":        strings.TrimSpace(in.Notes),
	}
	if err := s.DB.WithContext(ctx).Model(row).Updates(updates).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("salary_exists", fmt.Sprintf("salary for %s already recorded", in.Month))
		}
		return nil, fmt.Errorf("update salary %d: %w", id, err)
	}
	return s.GetSalary(ctx, id)
}

// MarkSalaryPaid stamps PaidAt and queues the payslip email.
func (s *PayrollService) MarkSalaryPaid(ctx context.Context, id uint) (*models.Salary, error) {
	row, err := s.GetSalary(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Status == models.SalaryPaid {
		return row, nil
	}
	now := s.now()
	res := s.DB.WithContext(ctx).Model(&models.Salary{}).
		Where("id = ? AND status <> ?", id, models.SalaryPaid).
		Updates(map[string]interface{}{"status": models.SalaryPaid, "paid_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("mark salary %d paid: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		// a concurrent call got there first and sent the payslip
		return s.GetSalary(ctx, id)
	}
	row.Status = models.SalaryPaid
	row.PaidAt = &now

	if row.Staff != nil {
		s.Notifier.Notify(ctx, utils.SalaryPaidMail(row.Staff.Name, row.Staff.Email, row.Month, row.NetAmount, now.Format("2006-01-02")))
	}
	return row, nil
}

func (s *PayrollService) DeleteSalary(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.Salary{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete salary %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSalaryNotFound
	}
	return nil
}

// GenerateMonthly creates PENDING salary rows from staff profiles for everyone
// without one for the month. Existing rows are left untouched.
func (s *PayrollService) GenerateMonthly(ctx context.Context, month string, hostelID *uint) ([]models.Salary, error) {
	if !monthPattern.MatchString(month) {
		return nil, invalid("month", "must be YYYY-MM")
	}

	var created []models.Salary
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Preload("StaffProfile").Where("role = ?", models.RoleStaff)
		if hostelID != nil {
			q = q.Where("hostel_id = ?", *hostelID)
		}
		var staff []models.User
		if err := q.Find(&staff).Error; err != nil {
			return fmt.Errorf("load staff: %w", err)
		}

		var existing []uint
		if err := tx.Model(&models.Salary{}).Where("month = ?", month).Pluck("staff_id", &existing).Error; err != nil {
			return fmt.Errorf("load existing salaries: %w", err)
		}
		have := make(map[uint]bool, len(existing))
		for _, id := range existing {
			have[id] = true
		}

		for _, u := range staff {
			if have[u.ID] || u.StaffProfile == nil {
				continue
			}
			created = append(created, models.Salary{
				StaffID:     u.ID,
				HostelID:    u.HostelID,
				Month:       month,
				BasicSalary: u.StaffProfile.BaseSalary,
				NetAmount:   u.StaffProfile.BaseSalary,
				Status:      models.SalaryPending,
			})
		}
		if len(created) == 0 {
			return nil
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create salaries: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("monthly salaries generated", zap.String("month", month), zap.Int("count", len(created)))
	return created, nil
}

func (s *PayrollService) CreateWardenPayment(ctx context.Context, in PayrollInput) (*models.WardenPayment, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	db := s.DB.WithContext(ctx)
	warden, err := s.loadEmployee(db, in.EmployeeID, models.RoleWarden)
	if err != nil {
		return nil, err
	}
	if in.HostelID == nil {
		in.HostelID = warden.HostelID
	}

	row := models.WardenPayment{
		WardenID:    in.EmployeeID,
		HostelID:    in.HostelID,
		Month:       in.Month,
		BasicSalary: in.BasicSalary,
		Allowances:  in.Allowances,
		Deductions:  in.Deductions,
		NetAmount:   in.NetAmount(),
		Status:      models.SalaryPending,
		Notes:       strings.TrimSpace(in.Notes),
	}
	if err := db.Create(&row).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("salary_exists", fmt.Sprintf("warden payment for %s already recorded", in.Month))
		}
		return nil, fmt.Errorf("create warden payment: %w", err)
	}
	return &row, nil
}

func (s *PayrollService) GetWardenPayment(ctx context.Context, id uint) (*models.WardenPayment, error) {
	var row models.WardenPayment
	if err := s.DB.WithContext(ctx).Preload("Warden").First(&row, id).Error; err != nil {
		return nil, notFoundOr(err, ErrSalaryNotFound)
	}
	return &row, nil
}

func (s *PayrollService) ListWardenPayments(ctx context.Context, f PayrollFilter) ([]models.WardenPayment, int64, error) {
	q := f.scope(s.DB.WithContext(ctx).Model(&models.WardenPayment{}), "warden_id")
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count warden payments: %w", err)
	}
	var list []models.WardenPayment
	if err := f.Page.apply(q).Preload("Warden").Order("month DESC, id DESC").Find(&list).Error; err != nil {
		return nil, 0, fmt.Errorf("list warden payments: %w", err)
	}
	return list, total, nil
}

func (s *PayrollService) UpdateWardenPayment(ctx context.Context, id uint, in PayrollInput) (*models.WardenPayment, error) {
	row, err := s.GetWardenPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	in.EmployeeID = row.WardenID
	if in.Month == "" {
		in.Month = row.Month
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"month":        in.Month,
		"basic_salary": in.BasicSalary,
		"allowances":   in.Allowances,
		"deductions":   in.Deductions,
		"net_amount":   in.NetAmount(),
		"notes":        strings.TrimSpace(in.Notes),
	}
	if err := s.DB.WithContext(ctx).Model(row).Updates(updates).Error; err != nil {
		if isDuplicate(err) {
			return nil, conflict("salary_exists", fmt.Sprintf("warden payment for %s already recorded", in.Month))
		}
		return nil, fmt.Errorf("update warden payment %d: %w", id, err)
	}
	return s.GetWardenPayment(ctx, id)
}

func (s *PayrollService) MarkWardenPaymentPaid(ctx context.Context, id uint) (*models.WardenPayment, error) {
	row, err := s.GetWardenPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	if row.Status == models.SalaryPaid {
		return row, nil
	}
	now := s.now()
	res := s.DB.WithContext(ctx).Model(&models.WardenPayment{}).
		Where("id = ? AND status <> ?", id, models.SalaryPaid).
		Updates(map[string]interface{}{"status": models.SalaryPaid, "paid_at": now})
	if res.Error != nil {
		return nil, fmt.Errorf("mark warden payment %d paid: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.GetWardenPayment(ctx, id)
	}
	row.Status = models.SalaryPaid
	row.PaidAt = &now

	if row.Warden != nil {
		s.Notifier.Notify(ctx, utils.SalaryPaidMail(row.Warden.Name, row.Warden.Email, row.Month, row.NetAmount, now.Format("2006-01-02")))
	}
	return row, nil
}

func (s *PayrollService) DeleteWardenPayment(ctx context.Context, id uint) error {
	res := s.DB.WithContext(ctx).Delete(&models.WardenPayment{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete warden payment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSalaryNotFound
	}
	return nil
}
