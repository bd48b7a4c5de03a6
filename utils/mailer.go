package utils

import (
	"bytes"
	"html/template"
	"strings"

	"gopkg.in/gomail.v2"
)

// SMTPMailer dispatches rendered campaign emails over SMTP
type SMTPMailer struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

func NewSMTPMailer(host string, port int, username, password, fromEmail, fromName string) *SMTPMailer {
	return &SMTPMailer{
		Host:      host,
		Port:      port,
		Username:  username,
		Password:  password,
		FromEmail: fromEmail,
		FromName:  fromName,
	}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetAddressHeader("From", m.FromEmail, m.FromName)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(msg)
}

// Shared HTML shell for every campaign email
var emailLayout = template.Must(template.New("email").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Georgia, serif; line-height: 1.7; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .content { margin: 20px 0; }
        .audio { margin: 20px 0; padding: 15px; background-color: #f4f1ec; border-radius: 6px; }
        .audio a { color: #2c3e50; font-weight: bold; }
        .footer { margin-top: 40px; font-size: 12px; color: #7f8c8d; border-top: 1px solid #eee; padding-top: 10px; }
    </style>
</head>
<body>
    <div class="content">
{{range .Paragraphs}}        <p>{{.}}</p>
{{end}}    </div>
{{if .AudioURL}}    <div class="audio">
        <p>🎧 <a href="{{.AudioURL}}">Press play to listen to this lesson</a></p>
    </div>
{{end}}    <div class="footer">
        <p>You are receiving this because you enrolled in one of our programs.</p>
        <p><a href="{{.UnsubscribeURL}}">Unsubscribe</a> from these emails.</p>
    </div>
</body>
</html>`))

// BuildEmailHTML wraps rendered campaign copy in the shared layout. Blank
// lines in the copy become paragraphs.
func BuildEmailHTML(body, audioURL, unsubscribeURL string) string {
	var paragraphs []string
	for _, p := range strings.Split(body, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	data := struct {
		Paragraphs     []string
		AudioURL       string
		UnsubscribeURL string
	}{paragraphs, audioURL, unsubscribeURL}

	var buf bytes.Buffer
	if err := emailLayout.Execute(&buf, data); err != nil {
		return body
	}
	return buf.String()
}
