package services

import (
	"errors"
	"fmt"
)

// Error kinds. Controllers map these to HTTP status codes with errors.Is.
var (
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

// DomainError carries a client-safe message and the kind it belongs to.
type DomainError struct {
	Code    string
	Message string
	kind    error
}

func (e *DomainError) Error() string { return e.Message }
func (e *DomainError) Unwrap() error { return e.kind }

func notFound(code, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg, kind: ErrNotFound}
}

func conflict(code, msg string) *DomainError {
	return &DomainError{Code: code, Message: msg, kind: ErrConflict}
}

var (
	ErrUserNotFound        = notFound("user_not_found", "user not found")
	ErrHostelNotFound      = notFound("hostel_not_found", "hostel not found")
	ErrRoomNotFound        = notFound("room_not_found", "room not found")
	ErrBookingNotFound     = notFound("booking_not_found", "booking not found")
	ErrPaymentNotFound     = notFound("payment_not_found", "payment not found")
	ErrSalaryNotFound      = notFound("salary_not_found", "salary record not found")
	ErrExpenseNotFound     = notFound("expense_not_found", "expense not found")
	ErrComplaintNotFound   = notFound("complaint_not_found", "complaint not found")
	ErrLeaveNotFound       = notFound("leave_not_found", "leave request not found")
	ErrMaintenanceNotFound = notFound("maintenance_not_found", "maintenance request not found")
	ErrNoticeNotFound      = notFound("notice_not_found", "notice not found")
	ErrSessionNotFound     = notFound("session_not_found", "session not found")

	ErrRoomFull           = conflict("room_full", "room is at full capacity")
	ErrInvalidTransition  = conflict("invalid_transition", "status transition not allowed")
	ErrDuplicate          = conflict("duplicate", "a record with the same unique fields already exists")
	ErrRoomHasOccupants   = conflict("room_has_occupants", "room has active bookings")
	ErrHostelHasOccupants = conflict("hostel_has_occupants", "hostel has rooms with active bookings")
	ErrCapacityBelowUsage = conflict("capacity_below_usage", "capacity cannot be lower than the number of active bookings")
	ErrAlreadyReviewed    = conflict("already_reviewed", "request has already been reviewed")
	ErrRoomStatusRace     = conflict("room_status_changed", "room status changed concurrently, retry")

	ErrInvalidCredentials     = &DomainError{Code: "invalid_credentials", Message: "invalid email or password", kind: ErrUnauthorized}
	ErrInvalidToken           = &DomainError{Code: "invalid_token", Message: "invalid or expired token", kind: ErrUnauthorized}
	ErrPasswordChangeRequired = &DomainError{Code: "password_change_required", Message: "password change required", kind: ErrForbidden}
	ErrNotAllowed             = &DomainError{Code: "forbidden", Message: "you are not allowed to perform this action", kind: ErrForbidden}
)

// ValidationError is a 400: bad or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
