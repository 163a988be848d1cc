package model

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	sellerNameMaxLength     = 255
	sellerEmailMaxLength    = 320
	sellerPhotoURLMaxLength = 500
)

var (
	ErrInvalidSellerName  = errors.New("invalid_seller_name")
	ErrInvalidSellerPhone = errors.New("invalid_seller_phone")
	ErrInvalidSellerEmail = errors.New("invalid_seller_email")
)

var sellerPhoneExpression = regexp.MustCompile(`^\d{10}$`)

// Seller is the agent assigned to listed properties.
type Seller struct {
	ID        string `gorm:"primaryKey;size:36"`
	FirstName string `gorm:"not null;size:255"`
	LastName  string `gorm:"not null;size:255"`
	Phone     string `gorm:"not null;size:10"`
	Email     string `gorm:"size:320"`
	PhotoURL  string `gorm:"size:500"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// SellerInput holds the raw values used to construct a Seller.
type SellerInput struct {
	FirstName string
	LastName  string
	Phone     string
	Email     string
	PhotoURL  string
}

// NewSeller constructs a Seller with validated, normalized fields.
func NewSeller(input SellerInput) (Seller, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	if firstName == "" || lastName == "" {
		return Seller{}, fmt.Errorf("%w: empty", ErrInvalidSellerName)
	}
	if len(firstName) > sellerNameMaxLength || len(lastName) > sellerNameMaxLength {
		return Seller{}, fmt.Errorf("%w: too long", ErrInvalidSellerName)
	}

	phone := strings.TrimSpace(input.Phone)
	if !sellerPhoneExpression.MatchString(phone) {
		return Seller{}, fmt.Errorf("%w: must be 10 digits", ErrInvalidSellerPhone)
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email != "" {
		if len(email) > sellerEmailMaxLength {
			return Seller{}, fmt.Errorf("%w: too long", ErrInvalidSellerEmail)
		}
		if _, parseErr := mail.ParseAddress(email); parseErr != nil {
			return Seller{}, fmt.Errorf("%w: %v", ErrInvalidSellerEmail, parseErr)
		}
	}

	return Seller{
		ID:        uuid.NewString(),
		FirstName: firstName,
		LastName:  lastName,
		Phone:     phone,
		Email:     email,
		PhotoURL:  strings.TrimSpace(input.PhotoURL),
	}, nil
}

// FullName joins the seller's first and last name.
func (seller Seller) FullName() string {
	return strings.TrimSpace(seller.FirstName + " " + seller.LastName)
}
