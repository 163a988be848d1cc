package notifications

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/gomail.v2"
)

const (
	smtpDefaultPort = 587

	mailHeaderFrom    = "From"
	mailHeaderTo      = "To"
	mailHeaderSubject = "Subject"
	mailBodyPlainText = "text/plain"
)

var (
	// ErrMissingSMTPHost indicates the SMTP host configuration was omitted.
	ErrMissingSMTPHost = errors.New("notifications: missing smtp host")
	// ErrMissingSenderAddress indicates the sender address configuration was omitted.
	ErrMissingSenderAddress = errors.New("notifications: missing sender address")
	// ErrMissingRecipient indicates a send was attempted without a recipient.
	ErrMissingRecipient = errors.New("notifications: missing recipient")
)

// EmailSender sends an email message to a recipient.
type EmailSender interface {
	SendEmail(ctx context.Context, recipient string, subject string, body string) error
}

// SMTPMailerConfig captures the SMTP connection settings for outbound mail.
type SMTPMailerConfig struct {
	Host          string
	Port          int
	Username      string
	Password      string
	SenderAddress string
}

// SMTPMailer delivers email over SMTP.
type SMTPMailer struct {
	dialer        *gomail.Dialer
	senderAddress string
}

// NewSMTPMailer constructs an SMTPMailer from validated configuration.
func NewSMTPMailer(configuration SMTPMailerConfig) (*SMTPMailer, error) {
	host := strings.TrimSpace(configuration.Host)
	if host == "" {
		return nil, ErrMissingSMTPHost
	}

	senderAddress := strings.TrimSpace(configuration.SenderAddress)
	if senderAddress == "" {
		return nil, ErrMissingSenderAddress
	}

	port := configuration.Port
	if port <= 0 {
		port = smtpDefaultPort
	}

	return &SMTPMailer{
		dialer:        gomail.NewDialer(host, port, strings.TrimSpace(configuration.Username), configuration.Password),
		senderAddress: senderAddress,
	}, nil
}

// SendEmail delivers one plain-text message. gomail cannot cancel a send in
// flight, so the dial-and-send runs on its own goroutine and is abandoned when
// the context expires; a hung SMTP server therefore cannot stall the caller
// past its deadline.
func (mailer *SMTPMailer) SendEmail(ctx context.Context, recipient string, subject string, body string) error {
	trimmedRecipient := strings.TrimSpace(recipient)
	if trimmedRecipient == "" {
		return ErrMissingRecipient
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("notifications: send email: %w", ctxErr)
	}

	message := gomail.NewMessage()
	message.SetHeader(mailHeaderFrom, mailer.senderAddress)
	message.SetHeader(mailHeaderTo, trimmedRecipient)
	message.SetHeader(mailHeaderSubject, subject)
	message.SetBody(mailBodyPlainText, body)

	sendResult := make(chan error, 1)
	go func() {
		sendResult <- mailer.dialer.DialAndSend(message)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("notifications: send email: %w", ctx.Err())
	case sendErr := <-sendResult:
		if sendErr != nil {
			return fmt.Errorf("notifications: send email: %w", sendErr)
		}
		return nil
	}
}
