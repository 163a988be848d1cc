package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/RepettoEstates/listing_svc/internal/model"
)

const (
	errorMessageLoadInquirySnapshot      = "lifecycle: load inquiry snapshot"
	errorMessageLoadVisitRequestSnapshot = "lifecycle: load visit request snapshot"
)

// InquirySnapshot captures the notification-relevant fields of a persisted
// inquiry as they existed immediately before the current update.
type InquirySnapshot struct {
	Answered bool
	Answer   string
}

// VisitRequestSnapshot captures the notification-relevant fields of a persisted
// visit request as they existed immediately before the current update.
type VisitRequestSnapshot struct {
	Status string
}

// LoadInquirySnapshot reads the prior state of the inquiry with the given
// identifier. A missing record (creation, or a race with a concurrent delete)
// yields a nil snapshot and no error; the pending write must not fail.
func LoadInquirySnapshot(ctx context.Context, database *gorm.DB, inquiryID string) (*InquirySnapshot, error) {
	trimmedID := strings.TrimSpace(inquiryID)
	if trimmedID == "" {
		return nil, nil
	}

	var prior model.Inquiry
	findErr := database.WithContext(ctx).Select("answered", "answer").First(&prior, "id = ?", trimmedID).Error
	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", errorMessageLoadInquirySnapshot, findErr)
	}

	return &InquirySnapshot{Answered: prior.Answered, Answer: prior.Answer}, nil
}

// LoadVisitRequestSnapshot reads the prior status of the visit request with the
// given identifier. Missing records yield a nil snapshot and no error.
func LoadVisitRequestSnapshot(ctx context.Context, database *gorm.DB, visitRequestID string) (*VisitRequestSnapshot, error) {
	trimmedID := strings.TrimSpace(visitRequestID)
	if trimmedID == "" {
		return nil, nil
	}

	var prior model.VisitRequest
	findErr := database.WithContext(ctx).Select("status").First(&prior, "id = ?", trimmedID).Error
	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", errorMessageLoadVisitRequestSnapshot, findErr)
	}

	return &VisitRequestSnapshot{Status: prior.Status}, nil
}
