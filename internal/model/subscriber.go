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
	subscriberEmailMaxLength = 320
	subscriberNameMaxLength  = 100
	subscriberTokenMaxLength = 100
)

var (
	ErrInvalidSubscriberEmail = errors.New("invalid_subscriber_email")
	ErrInvalidSubscriberName  = errors.New("invalid_subscriber_name")
)

// Subscriber is a newsletter subscription. The confirmation token is single-use
// and cleared on confirmation.
type Subscriber struct {
	ID                string `gorm:"primaryKey;size:36"`
	Email             string `gorm:"not null;size:320;uniqueIndex"`
	Name              string `gorm:"size:100"`
	Active            bool   `gorm:"not null;index"`
	Confirmed         bool   `gorm:"not null"`
	ConfirmationToken string `gorm:"size:100;index"`
	ConfirmedAt       time.Time
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

// SubscriberInput holds the raw values used to construct a Subscriber.
type SubscriberInput struct {
	Email string
	Name  string
}

// NewSubscriber constructs an active, unconfirmed Subscriber with a fresh
// confirmation token.
func NewSubscriber(input SubscriberInput) (Subscriber, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || len(email) > subscriberEmailMaxLength {
		return Subscriber{}, fmt.Errorf("%w: empty or too long", ErrInvalidSubscriberEmail)
	}
	if _, parseErr := mail.ParseAddress(email); parseErr != nil {
		return Subscriber{}, fmt.Errorf("%w: %v", ErrInvalidSubscriberEmail, parseErr)
	}

	name := strings.TrimSpace(input.Name)
	if len(name) > subscriberNameMaxLength {
		return Subscriber{}, fmt.Errorf("%w: too long", ErrInvalidSubscriberName)
	}

	return Subscriber{
		ID:                uuid.NewString(),
		Email:             email,
		Name:              name,
		Active:            true,
		Confirmed:         false,
		ConfirmationToken: uuid.NewString(),
	}, nil
}
