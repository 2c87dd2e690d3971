package mail

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/danglnh07/concord/util"
)

// Display name shown as the sender of outgoing mail.
const senderName = "Concord"

// EmailService sends transactional mail, currently just the welcome email
// queued after a first sign-in.
type EmailService struct {
	Host  string
	Port  string
	Email string
	Auth  smtp.Auth
}

func NewEmailService(config *util.Config) *EmailService {
	smtpAuth := smtp.PlainAuth("", config.Email, config.AppPassword, config.SMTPHost)

	return &EmailService{
		Host:  config.SMTPHost,
		Port:  config.SMTPPort,
		Email: config.Email,
		Auth:  smtpAuth,
	}
}

// message assembles the raw HTML email. Headers are written in a fixed
// order so the output is deterministic.
func (service *EmailService) message(to, subject, body string) []byte {
	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s <%s>\r\n", senderName, service.Email))
	message.WriteString(fmt.Sprintf("To: %s\r\n", to))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)
	return []byte(message.String())
}

func (service *EmailService) SendEmail(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", service.Host, service.Port)
	return smtp.SendMail(
		addr,
		service.Auth,
		service.Email,
		[]string{to},
		service.message(to, subject, body),
	)
}
