// Package mail delivers verification codes and invitations.
package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Sender delivers an HTML message.
type Sender interface {
	Send(address, subject, body string) error
}

type SMTP struct {
	Server   string
	Port     int
	User     string
	Password string
	From     string
}

func (s *SMTP) Send(address, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", address)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	d := gomail.NewDialer(s.Server, s.Port, s.User, s.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", address, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them. Used when no
// SMTP server is configured.
type LogSender struct {
	Logger logrus.FieldLogger
}

func (s *LogSender) Send(address, subject, body string) error {
	s.Logger.WithFields(logrus.Fields{
		"to":      address,
		"subject": subject,
	}).Info(body)
	return nil
}

var (
	verificationTmpl = template.Must(template.New("verification").Parse(
		`<h2>Welcome to Mini Trello</h2>
<p>Your verification code is:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{.Code}}</p>
<p>This code expires in {{.Minutes}} minutes.</p>`))

	invitationTmpl = template.Must(template.New("invitation").Parse(
		`<h2>You have been invited to a board</h2>
<p>{{.Inviter}} invited you to join <strong>{{.Board}}</strong> as {{.Role}}.</p>
{{if .Message}}<blockquote>{{.Message}}</blockquote>{{end}}
<p><a href="{{.Link}}">Open Mini Trello</a> to accept or decline.</p>`))
)

// Mailer renders and sends the application's emails.
type Mailer struct {
	sender      Sender
	frontendURL string
}

func NewMailer(sender Sender, frontendURL string) *Mailer {
	return &Mailer{sender: sender, frontendURL: frontendURL}
}

func (m *Mailer) SendVerificationCode(address, code string, minutes int) error {
	var buf bytes.Buffer
	err := verificationTmpl.Execute(&buf, struct {
		Code    string
		Minutes int
	}{code, minutes})
	if err != nil {
		return err
	}
	return m.sender.Send(address, "Your Mini Trello verification code", buf.String())
}

func (m *Mailer) SendInvitation(address, inviter, board, role, message string) error {
	var buf bytes.Buffer
	err := invitationTmpl.Execute(&buf, struct {
		Inviter, Board, Role, Message, Link string
	}{inviter, board, role, message, m.frontendURL + "/invitations"})
	if err != nil {
		return err
	}
	return m.sender.Send(address, fmt.Sprintf("Invitation to join %s", board), buf.String())
}
