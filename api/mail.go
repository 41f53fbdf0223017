package main

import (
	"bytes"
	_ "embed"
	"html/template"
	"log"

	"github.com/go-mail/mail/v2"
)

//go:embed templates/welcome.tmpl
var welcomeTemplateSrc string

var welcomeTemplate = template.Must(template.New("welcome").Parse(welcomeTemplateSrc))

type mailer struct {
	dialer *mail.Dialer
	sender string
}

func newMailer(host string, port int, username string, password string, sender string) *mailer {
	dialer := mail.NewDialer(host, port, username, password)
	return &mailer{
		dialer: dialer,
		sender: sender,
	}
}

func (m *mailer) send(to string, tmpl *template.Template, data any) error {
	var subject bytes.Buffer
	err := tmpl.ExecuteTemplate(&subject, "subject", data)
	if err != nil {
		return err
	}
	var plainBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&plainBody, "plainBody", data)
	if err != nil {
		return err
	}
	var htmlBody bytes.Buffer
	err = tmpl.ExecuteTemplate(&htmlBody, "htmlBody", data)
	if err != nil {
		return err
	}

	msg := mail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.sender)
	msg.SetHeader("Subject", subject.String())
	msg.SetBody("text/plain", plainBody.String())
	msg.AddAlternative("text/html", htmlBody.String())

	for i := 0; i < 3; i++ {
		err = m.dialer.DialAndSend(msg)
		if err == nil {
			break
		}
	}
	return err
}

// sendWelcomeEmail mails a greeting to a freshly registered user. Delivery
// is best-effort and never blocks or fails the registration request.
func (app *application) sendWelcomeEmail(u *user) {
	if app.mailer == nil {
		return
	}
	go func() {
		err := app.mailer.send(u.Email, welcomeTemplate, u)
		if err != nil {
			log.Println(err)
		}
	}()
}
