package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	propertyTitleMaxLength          = 255
	propertyImageURLMaxLength       = 500
	propertyDescriptionMinLength    = 50
	propertyDescriptionMaxLength    = 8000
)

var (
	ErrInvalidPropertyTitle       = errors.New("invalid_property_title")
	ErrInvalidPropertyPrice       = errors.New("invalid_property_price")
	ErrInvalidPropertyDescription = errors.New("invalid_property_description")
	ErrInvalidPropertyCounts      = errors.New("invalid_property_counts")
	ErrInvalidPropertyImage       = errors.New("invalid_property_image")
)

// Property is a real-estate listing.
type Property struct {
	ID           string  `gorm:"primaryKey;size:36"`
	Title        string  `gorm:"not null;size:255"`
	Price        int64   `gorm:"not null"`
	ImageURL     string  `gorm:"not null;size:500"`
	Description  string  `gorm:"not null;size:8000"`
	Bedrooms     int     `gorm:"not null"`
	Bathrooms    int     `gorm:"not null"`
	ParkingSpots int     `gorm:"not null"`
	SellerID     *string `gorm:"size:36;index;constraint:OnDelete:SET NULL"`
	ListedOn     time.Time
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

// PropertyInput holds the raw values used to construct a Property.
type PropertyInput struct {
	Title        string
	Price        int64
	ImageURL     string
	Description  string
	Bedrooms     int
	Bathrooms    int
	ParkingSpots int
	SellerID     string
	ListedOn     time.Time
}

// NewProperty constructs a Property with validated, normalized fields.
func NewProperty(input PropertyInput) (Property, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" || len(title) > propertyTitleMaxLength {
		return Property{}, fmt.Errorf("%w: empty or too long", ErrInvalidPropertyTitle)
	}

	if input.Price <= 0 {
		return Property{}, fmt.Errorf("%w: must be positive", ErrInvalidPropertyPrice)
	}

	imageURL := strings.TrimSpace(input.ImageURL)
	if imageURL == "" || len(imageURL) > propertyImageURLMaxLength {
		return Property{}, fmt.Errorf("%w: empty or too long", ErrInvalidPropertyImage)
	}

	description := strings.TrimSpace(input.Description)
	if len(description) < propertyDescriptionMinLength {
		return Property{}, fmt.Errorf("%w: shorter than %d characters", ErrInvalidPropertyDescription, propertyDescriptionMinLength)
	}
	if len(description) > propertyDescriptionMaxLength {
		return Property{}, fmt.Errorf("%w: too long", ErrInvalidPropertyDescription)
	}

	if input.Bedrooms < 0 || input.Bathrooms < 0 || input.ParkingSpots < 0 {
		return Property{}, fmt.Errorf("%w: negative", ErrInvalidPropertyCounts)
	}

	listedOn := input.ListedOn
	if listedOn.IsZero() {
		listedOn = time.Now().UTC().Truncate(24 * time.Hour)
	}

	var sellerID *string
	trimmedSellerID := strings.TrimSpace(input.SellerID)
	if trimmedSellerID != "" {
		sellerID = &trimmedSellerID
	}

	return Property{
		ID:           uuid.NewString(),
		Title:        title,
		Price:        input.Price,
		ImageURL:     imageURL,
		Description:  description,
		Bedrooms:     input.Bedrooms,
		Bathrooms:    input.Bathrooms,
		ParkingSpots: input.ParkingSpots,
		SellerID:     sellerID,
		ListedOn:     listedOn,
	}, nil
}
