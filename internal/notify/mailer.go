// Package notify sends outbound email over SMTP.
package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"gopkg.in/gomail.v2"

	"github.com/spec-kit/leadflow/internal/config"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer delivers messages.
type Mailer interface {
	Send(msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer sends through a gomail dialer.
type SMTPMailer struct {
	from   string
	dialer dialer
}

// NewSMTPMailer builds a mailer from notification settings.
func NewSMTPMailer(cfg config.NotificationConfig) *SMTPMailer {
	return &SMTPMailer{
		from:   cfg.EmailFrom,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
	}
}

// Send delivers msg as an HTML email.
func (s *SMTPMailer) Send(msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send smtp mail: %w", err)
	}
	return nil
}

var assignmentTemplate = template.Must(template.New("assignment").Parse(
	`<p>Hello {{.Assignee}},</p>
<p>The lead <strong>{{.LeadName}}</strong>{{if .Company}} ({{.Company}}){{end}} has been assigned to you.</p>
{{if .NextFollowup}}<p>Next follow-up: {{.NextFollowup}}</p>{{end}}
<p>LeadFlow CRM</p>`))

// AssignmentData fills the assignment email.
type AssignmentData struct {
	Assignee     string
	LeadName     string
	Company      string
	NextFollowup string
}

// RenderAssignment renders the assignment notification body.
func RenderAssignment(data AssignmentData) (string, error) {
	var body bytes.Buffer
	if err := assignmentTemplate.Execute(&body, data); err != nil {
		return "", fmt.Errorf("render assignment email: %w", err)
	}
	return body.String(), nil
}
