package mailSender

import (
	"todo_api/internal/models"

	"gopkg.in/gomail.v2"
)

type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
}

func (m *Mailer) Send(msg models.Message) error {
	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)

	return dialer.DialAndSend(m.Compose(msg))
}

func (m *Mailer) Compose(msg models.Message) *gomail.Message {
	gm := gomail.NewMessage()
	gm.SetHeader("To", msg.Email)
	gm.SetHeader("From", m.Username)
	gm.SetHeader("Subject", msg.Subject)

	gm.SetBody("text/plain", msg.Body)

	return gm
}
