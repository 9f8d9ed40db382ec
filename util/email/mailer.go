package email

import (
	"errors"
	"time"

	mail "gopkg.in/mail.v2"
)

const senderName = "CivicCircle"

// ErrNotConfigured is returned by Send when no SMTP credentials were given.
var ErrNotConfigured = errors.New("smtp credentials not configured")

type Message struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

type Mailer struct {
	dialer     *mail.Dialer
	sender     string
	configured bool
}

func NewMailer(host string, port int, username, password, sender string, timeout time.Duration) *Mailer {
	dialer := mail.NewDialer(host, port, username, password)
	dialer.Timeout = timeout
	// one delivery attempt per message
	dialer.RetryFailure = false

	if sender == "" {
		sender = username
	}

	return &Mailer{
		dialer:     dialer,
		sender:     sender,
		configured: username != "" && password != "",
	}
}

func (m *Mailer) Configured() bool {
	return m != nil && m.configured
}

// Send delivers a multipart message with a plain text body and an HTML
// alternative. It makes a single attempt and never dials when unconfigured.
func (m *Mailer) Send(msg Message) error {
	if !m.Configured() {
		return ErrNotConfigured
	}

	message := mail.NewMessage()
	message.SetAddressHeader("From", m.sender, senderName)
	message.SetHeader("To", msg.To)
	message.SetHeader("Subject", msg.Subject)
	message.SetBody("text/plain", msg.TextBody)
	if msg.HTMLBody != "" {
		message.AddAlternative("text/html", msg.HTMLBody)
	}

	return m.dialer.DialAndSend(message)
}
