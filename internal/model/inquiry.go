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
	InquiryOriginProperty   = "property"
	InquiryOriginGeneral    = "general"
	InquiryOriginContact    = "contact"
	InquiryOriginHome       = "home"
	InquiryOriginNewsletter = "newsletter"

	InquiryCategoryBuy         = "buy"
	InquiryCategorySell        = "sell"
	InquiryCategoryRent        = "rent"
	InquiryCategoryInformation = "information"
	InquiryCategoryGeneral     = "general"
	InquiryCategoryOther       = "other"

	InquiryPriorityLow    = "low"
	InquiryPriorityMedium = "medium"
	InquiryPriorityHigh   = "high"
	InquiryPriorityUrgent = "urgent"

	inquiryNameMaxLength    = 100
	inquiryEmailMaxLength   = 320
	inquiryPhoneMaxLength   = 15
	inquiryMessageMaxLength = 4000
	inquirySubjectMaxLength = 200
	inquiryBudgetMaxLength  = 50
)

var (
	ErrInvalidInquiryName    = errors.New("invalid_inquiry_name")
	ErrInvalidInquiryEmail   = errors.New("invalid_inquiry_email")
	ErrInvalidInquiryMessage = errors.New("invalid_inquiry_message")
	ErrInvalidInquiryOrigin  = errors.New("invalid_inquiry_origin")
)

// Inquiry is a customer-submitted question, optionally tied to a property listing.
type Inquiry struct {
	ID            string  `gorm:"primaryKey;size:36"`
	Name          string  `gorm:"not null;size:100"`
	Email         string  `gorm:"not null;size:320"`
	Phone         string  `gorm:"size:15"`
	Message       string  `gorm:"not null;size:4000"`
	Origin        string  `gorm:"not null;size:20;index"`
	Category      string  `gorm:"not null;size:20"`
	PropertyID    *string `gorm:"size:36;index"`
	Subject       string  `gorm:"size:200"`
	Budget        string  `gorm:"size:50"`
	Priority      string  `gorm:"not null;size:10;index"`
	Answered      bool    `gorm:"not null;index"`
	Answer        string  `gorm:"size:4000"`
	AnsweredAt    *time.Time
	InternalNotes string    `gorm:"size:2000"`
	CreatedAt     time.Time `gorm:"autoCreateTime"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime"`
}

// InquiryInput holds the raw values used to construct an Inquiry.
type InquiryInput struct {
	Name          string
	Email         string
	Phone         string
	Message       string
	Origin        string
	Category      string
	PropertyID    string
	Subject       string
	Budget        string
	InternalNotes string
}

// NewInquiry constructs an Inquiry with validated, normalized fields. Free-form
// category input falls back to the general category; priority is derived, never
// accepted from the caller.
func NewInquiry(input InquiryInput) (Inquiry, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(name) > inquiryNameMaxLength {
		return Inquiry{}, fmt.Errorf("%w: empty or too long", ErrInvalidInquiryName)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || len(email) > inquiryEmailMaxLength {
		return Inquiry{}, fmt.Errorf("%w: empty or too long", ErrInvalidInquiryEmail)
	}
	if _, parseErr := mail.ParseAddress(email); parseErr != nil {
		return Inquiry{}, fmt.Errorf("%w: %v", ErrInvalidInquiryEmail, parseErr)
	}

	message := strings.TrimSpace(input.Message)
	if message == "" || len(message) > inquiryMessageMaxLength {
		return Inquiry{}, fmt.Errorf("%w: empty or too long", ErrInvalidInquiryMessage)
	}

	origin := strings.TrimSpace(input.Origin)
	if validateErr := validateInquiryOrigin(origin); validateErr != nil {
		return Inquiry{}, validateErr
	}

	var propertyID *string
	trimmedPropertyID := strings.TrimSpace(input.PropertyID)
	if trimmedPropertyID != "" {
		propertyID = &trimmedPropertyID
	}

	category := NormalizeInquiryCategory(input.Category)

	return Inquiry{
		ID:            uuid.NewString(),
		Name:          name,
		Email:         email,
		Phone:         truncateField(strings.TrimSpace(input.Phone), inquiryPhoneMaxLength),
		Message:       message,
		Origin:        origin,
		Category:      category,
		PropertyID:    propertyID,
		Subject:       truncateField(strings.TrimSpace(input.Subject), inquirySubjectMaxLength),
		Budget:        truncateField(strings.TrimSpace(input.Budget), inquiryBudgetMaxLength),
		Priority:      DeriveInquiryPriority(category, propertyID != nil),
		InternalNotes: strings.TrimSpace(input.InternalNotes),
	}, nil
}

// NormalizeInquiryCategory maps free-form classification input onto the closed
// category enumeration; unrecognized values fall back to the general category.
func NormalizeInquiryCategory(rawCategory string) string {
	switch strings.ToLower(strings.TrimSpace(rawCategory)) {
	case InquiryCategoryBuy:
		return InquiryCategoryBuy
	case InquiryCategorySell:
		return InquiryCategorySell
	case InquiryCategoryRent:
		return InquiryCategoryRent
	case InquiryCategoryInformation, "visit":
		return InquiryCategoryInformation
	case InquiryCategoryOther:
		return InquiryCategoryOther
	default:
		return InquiryCategoryGeneral
	}
}

// DeriveInquiryPriority derives the handling priority from the category and
// whether the inquiry is linked to a property.
func DeriveInquiryPriority(category string, hasProperty bool) string {
	if (category == InquiryCategoryBuy || category == InquiryCategorySell) && hasProperty {
		return InquiryPriorityHigh
	}
	return InquiryPriorityMedium
}

func validateInquiryOrigin(origin string) error {
	switch origin {
	case InquiryOriginProperty, InquiryOriginGeneral, InquiryOriginContact, InquiryOriginHome, InquiryOriginNewsletter:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrInvalidInquiryOrigin, origin)
	}
}

// truncateField cuts on rune boundaries so a trimmed value stays valid UTF-8.
func truncateField(value string, max int) string {
	runes := []rune(value)
	if len(runes) <= max {
		return value
	}
	return string(runes[:max])
}
