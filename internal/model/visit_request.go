package model

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	VisitRequestStatusPending   = "pending"
	VisitRequestStatusConfirmed = "confirmed"
	VisitRequestStatusDeclined  = "declined"
	VisitRequestStatusCompleted = "completed"

	visitRequestNameMaxLength    = 100
	visitRequestEmailMaxLength   = 320
	visitRequestPhoneMaxLength   = 15
	visitRequestMessageMaxLength = 2000

	preferredTimeLayout = "15:04"
)

var (
	ErrInvalidVisitRequestProperty = errors.New("invalid_visit_request_property")
	ErrInvalidVisitRequestName     = errors.New("invalid_visit_request_name")
	ErrInvalidVisitRequestEmail    = errors.New("invalid_visit_request_email")
	ErrInvalidVisitRequestPhone    = errors.New("invalid_visit_request_phone")
	ErrInvalidVisitRequestStatus   = errors.New("invalid_visit_request_status")
	ErrVisitDateInPast             = errors.New("visit_date_in_past")
	ErrVisitTimeOutsideHours       = errors.New("visit_time_outside_hours")
	ErrInvalidVisitSchedule        = errors.New("invalid_visit_schedule")
)

// BusinessHours is the inclusive window in which visits can be scheduled.
type BusinessHours struct {
	Open  string
	Close string
}

// DefaultBusinessHours is the visit scheduling window used when none is configured.
var DefaultBusinessHours = BusinessHours{Open: "09:00", Close: "18:00"}

// VisitRequest is a customer request to view a specific property at a preferred
// date and time.
type VisitRequest struct {
	ID            string `gorm:"primaryKey;size:36"`
	PropertyID    string `gorm:"not null;size:36;index"`
	Name          string `gorm:"not null;size:100"`
	Email         string `gorm:"not null;size:320"`
	Phone         string `gorm:"not null;size:15"`
	PreferredDate time.Time `gorm:"not null"`
	PreferredTime string    `gorm:"not null;size:5"`
	Message       string    `gorm:"size:2000"`
	Status        string    `gorm:"not null;size:20;index"`
	AgentReply    string    `gorm:"size:2000"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// VisitRequestInput holds the raw values used to construct a VisitRequest.
// Now and Hours default to the current time and DefaultBusinessHours when unset.
type VisitRequestInput struct {
	PropertyID    string
	Name          string
	Email         string
	Phone         string
	PreferredDate time.Time
	PreferredTime string
	Message       string
	Now           time.Time
	Hours         BusinessHours
}

// NewVisitRequest constructs a pending VisitRequest with validated fields.
func NewVisitRequest(input VisitRequestInput) (VisitRequest, error) {
	propertyID := strings.TrimSpace(input.PropertyID)
	if propertyID == "" {
		return VisitRequest{}, ErrInvalidVisitRequestProperty
	}

	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > visitRequestNameMaxLength {
		return VisitRequest{}, fmt.Errorf("%w: empty or too long", ErrInvalidVisitRequestName)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || len(email) > visitRequestEmailMaxLength {
		return VisitRequest{}, fmt.Errorf("%w: empty or too long", ErrInvalidVisitRequestEmail)
	}
	if _, parseErr := mail.ParseAddress(email); parseErr != nil {
		return VisitRequest{}, fmt.Errorf("%w: %v", ErrInvalidVisitRequestEmail, parseErr)
	}

	phone := strings.TrimSpace(input.Phone)
	if phone == "" || len(phone) > visitRequestPhoneMaxLength {
		return VisitRequest{}, fmt.Errorf("%w: empty or too long", ErrInvalidVisitRequestPhone)
	}

	now := input.Now
	if now.IsZero() {
		now = time.Now()
	}
	hours := input.Hours
	if strings.TrimSpace(hours.Open) == "" || strings.TrimSpace(hours.Close) == "" {
		hours = DefaultBusinessHours
	}

	preferredTime := strings.TrimSpace(input.PreferredTime)
	if scheduleErr := ValidateVisitSchedule(input.PreferredDate, preferredTime, now, hours); scheduleErr != nil {
		return VisitRequest{}, scheduleErr
	}

	return VisitRequest{
		ID:            uuid.NewString(),
		PropertyID:    propertyID,
		Name:          name,
		Email:         email,
		Phone:         phone,
		PreferredDate: truncateToDate(input.PreferredDate),
		PreferredTime: preferredTime,
		Message:       truncateField(strings.TrimSpace(input.Message), visitRequestMessageMaxLength),
		Status:        VisitRequestStatusPending,
	}, nil
}

// ValidateVisitSchedule rejects past dates and times outside the business-hours
// window. Bounds are inclusive.
func ValidateVisitSchedule(preferredDate time.Time, preferredTime string, now time.Time, hours BusinessHours) error {
	if preferredDate.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidVisitSchedule)
	}
	if truncateToDate(preferredDate).Before(truncateToDate(now)) {
		return ErrVisitDateInPast
	}

	parsedTime, parseErr := time.Parse(preferredTimeLayout, preferredTime)
	if parseErr != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVisitSchedule, parseErr)
	}
	openTime, openErr := time.Parse(preferredTimeLayout, hours.Open)
	if openErr != nil {
		return fmt.Errorf("%w: open bound: %v", ErrInvalidVisitSchedule, openErr)
	}
	closeTime, closeErr := time.Parse(preferredTimeLayout, hours.Close)
	if closeErr != nil {
		return fmt.Errorf("%w: close bound: %v", ErrInvalidVisitSchedule, closeErr)
	}

	if parsedTime.Before(openTime) || parsedTime.After(closeTime) {
		return fmt.Errorf("%w: %s outside %s-%s", ErrVisitTimeOutsideHours, preferredTime, hours.Open, hours.Close)
	}
	return nil
}

// ValidateVisitRequestStatus rejects statuses outside the closed enumeration.
func ValidateVisitRequestStatus(status string) error {
	switch status {
	case VisitRequestStatusPending, VisitRequestStatusConfirmed, VisitRequestStatusDeclined, VisitRequestStatusCompleted:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidVisitRequestStatus, status)
	}
}

func truncateToDate(value time.Time) time.Time {
	year, month, day := value.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, value.Location())
}
