package notifications

import (
	"fmt"
	"strings"
	"text/template"
)

const (
	subjectInquiryReceived          = "New inquiry from {{.CustomerName}}"
	subjectInquiryAnswered          = "We answered your inquiry"
	subjectVisitRequestReceived     = "New visit request for {{.PropertyTitle}}"
	subjectVisitConfirmed           = "Your visit to {{.PropertyTitle}} is confirmed"
	subjectVisitDeclined            = "About your visit request for {{.PropertyTitle}}"
	subjectSubscriptionConfirmation = "Confirm your newsletter subscription"
	subjectSubscriptionWelcome      = "Welcome to our newsletter"

	bodyInquiryReceived = `A new inquiry arrived.

Name: {{.CustomerName}}
Email: {{.CustomerEmail}}
{{- if .CustomerPhone}}
Phone: {{.CustomerPhone}}
{{- end}}
{{- if .PropertyTitle}}
Property: {{.PropertyTitle}}
{{- end}}
Category: {{.Category}}
Priority: {{.Priority}}

Message:
{{.Message}}
`

	bodyInquiryAnswered = `Hello {{.CustomerName}},

Thank you for getting in touch. Here is our answer to your inquiry:

{{.Answer}}

Your original message:
{{.Message}}

Kind regards,
{{.AgencyName}}
`

	bodyVisitRequestReceived = `A new visit request arrived.

Property: {{.PropertyTitle}}
Name: {{.CustomerName}}
Email: {{.CustomerEmail}}
Phone: {{.CustomerPhone}}
Preferred date: {{.PreferredDate}}
Preferred time: {{.PreferredTime}}
{{- if .Message}}

Message:
{{.Message}}
{{- end}}
`

	bodyVisitConfirmed = `Hello {{.CustomerName}},

Your visit to {{.PropertyTitle}} on {{.PreferredDate}} at {{.PreferredTime}} is confirmed.
{{- if .AgentReply}}

Note from our agent:
{{.AgentReply}}
{{- end}}

Kind regards,
{{.AgencyName}}
`

	bodyVisitDeclined = `Hello {{.CustomerName}},

Unfortunately we cannot host your visit to {{.PropertyTitle}} on {{.PreferredDate}} at {{.PreferredTime}}.
{{- if .AgentReply}}

Note from our agent:
{{.AgentReply}}
{{- end}}

Please reply to this message to arrange a different slot.

Kind regards,
{{.AgencyName}}
`

	bodySubscriptionConfirmation = `Hello{{if .CustomerName}} {{.CustomerName}}{{end}},

Please confirm your newsletter subscription by opening the link below:

{{.ConfirmationURL}}

If you did not request this subscription you can ignore this message.
`

	bodySubscriptionWelcome = `Hello{{if .CustomerName}} {{.CustomerName}}{{end}},

Your subscription is confirmed. You will now receive our property news and featured listings.

Kind regards,
{{.AgencyName}}
`
)

// MessageData carries every value the notice templates can reference. Kinds
// use the subset that applies to them.
type MessageData struct {
	AgencyName      string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	PropertyTitle   string
	Category        string
	Priority        string
	Message         string
	Answer          string
	PreferredDate   string
	PreferredTime   string
	AgentReply      string
	ConfirmationURL string
}

type messageTemplate struct {
	subject *template.Template
	body    *template.Template
}

var messageTemplates = map[Kind]messageTemplate{
	KindInquiryReceived:          parseMessageTemplate(KindInquiryReceived, subjectInquiryReceived, bodyInquiryReceived),
	KindInquiryAnswered:          parseMessageTemplate(KindInquiryAnswered, subjectInquiryAnswered, bodyInquiryAnswered),
	KindVisitRequestReceived:     parseMessageTemplate(KindVisitRequestReceived, subjectVisitRequestReceived, bodyVisitRequestReceived),
	KindVisitConfirmed:           parseMessageTemplate(KindVisitConfirmed, subjectVisitConfirmed, bodyVisitConfirmed),
	KindVisitDeclined:            parseMessageTemplate(KindVisitDeclined, subjectVisitDeclined, bodyVisitDeclined),
	KindSubscriptionConfirmation: parseMessageTemplate(KindSubscriptionConfirmation, subjectSubscriptionConfirmation, bodySubscriptionConfirmation),
	KindSubscriptionWelcome:      parseMessageTemplate(KindSubscriptionWelcome, subjectSubscriptionWelcome, bodySubscriptionWelcome),
}

func parseMessageTemplate(kind Kind, subjectText string, bodyText string) messageTemplate {
	return messageTemplate{
		subject: template.Must(template.New(string(kind) + "_subject").Parse(subjectText)),
		body:    template.Must(template.New(string(kind) + "_body").Parse(bodyText)),
	}
}

// RenderMessage renders the subject and body for the given notice kind.
func RenderMessage(kind Kind, data MessageData) (string, string, error) {
	selected, kindKnown := messageTemplates[kind]
	if !kindKnown {
		return "", "", fmt.Errorf("notifications: unknown notice kind: %s", kind)
	}

	var subjectBuilder strings.Builder
	if executeErr := selected.subject.Execute(&subjectBuilder, data); executeErr != nil {
		return "", "", fmt.Errorf("notifications: render subject: %w", executeErr)
	}

	var bodyBuilder strings.Builder
	if executeErr := selected.body.Execute(&bodyBuilder, data); executeErr != nil {
		return "", "", fmt.Errorf("notifications: render body: %w", executeErr)
	}

	return strings.TrimSpace(subjectBuilder.String()), bodyBuilder.String(), nil
}
