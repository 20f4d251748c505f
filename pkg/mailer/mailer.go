package mailer

import (
	"fmt"
	"log"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer sends transactional email over SMTP. A nil dialer (no SMTP
// configured) turns every send into a logged no-op so the rest of the
// service does not depend on mail being available.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

// New creates a Mailer. Empty host disables sending.
func New(host, port, username, password, from string) *Mailer {
	if host == "" {
		return &Mailer{from: from}
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		p = 587
	}
	return &Mailer{dialer: gomail.NewDialer(host, p, username, password), from: from}
}

// SendWelcome sends the first-login welcome email
func (m *Mailer) SendWelcome(to, name string) error {
	subject := "Welcome to Research Hub"
	body := fmt.Sprintf(
		"<p>Hi %s,</p><p>Your Research Hub profile is ready. Follow researchers in your field, share your work and join the discussion.</p>",
		name)
	return m.send(to, subject, body)
}

func (m *Mailer) send(to, subject, htmlBody string) error {
	if m.dialer == nil {
		log.Printf("mailer: SMTP not configured, skipping mail to %s (%s)", to, subject)
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	return m.dialer.DialAndSend(msg)
}
