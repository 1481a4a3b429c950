package models

// All lists every table in parent -> child order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&ResidentProfile{},
		&StaffProfile{},
		&Hostel{},
		&Room{},
		&Booking{},
		&Payment{},
		&Salary{},
		&WardenPayment{},
		&Expense{},
		&Complaint{},
		&LeaveRequest{},
		&MaintenanceRequest{},
		&MessMenu{},
		&Notice{},
		&AutomationLog{},
		&Session{},
	}
}
