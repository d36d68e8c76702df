package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/Dosada05/hackathon-portal/config"
	"github.com/Dosada05/hackathon-portal/models"
)

//go:embed templates/*.html
var emailTemplates embed.FS

type EmailService struct {
	cfg       *config.Config
	templates *template.Template
}

func NewEmailService(cfg *config.Config) (*EmailService, error) {
	t, err := template.ParseFS(emailTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга шаблонов писем: %w", err)
	}
	return &EmailService{cfg: cfg, templates: t}, nil
}

func (s *EmailService) SendEmail(ctx context.Context, to []string, subject string, body string) error {
	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := net.JoinHostPort(s.cfg.SMTPHost, strconv.Itoa(s.cfg.SMTPPort))
	tlsconfig := &tls.Config{ServerName: s.cfg.SMTPHost}
	dialer := &net.Dialer{}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		// Прямое TLS-соединение (обычно порт 465)
		conn, err := (&tls.Dialer{NetDialer: dialer, Config: tlsconfig}).DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("ошибка TLS соединения: %w", err)
		}
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
	} else {
		// STARTTLS (обычно порт 587)
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("ошибка соединения SMTP: %w", err)
		}
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			conn.Close()
			return fmt.Errorf("ошибка создания SMTP клиента: %w", err)
		}
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("ошибка команды STARTTLS: %w", err)
		}
	}
	defer client.Quit()

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("ошибка аутентификации SMTP: %w", err)
		}
	}

	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("ошибка MAIL FROM: %w", err)
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			return fmt.Errorf("ошибка RCPT TO: %w", err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("ошибка команды DATA: %w", err)
	}
	if _, err = w.Write(msg); err != nil {
		return fmt.Errorf("ошибка записи сообщения: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("ошибка закрытия DATA: %w", err)
	}
	return nil
}

func (s *EmailService) GenerateEmailBody(name string, data interface{}) (string, error) {
	var body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&body, name, data); err != nil {
		return "", fmt.Errorf("ошибка выполнения шаблона %s: %w", name, err)
	}
	return body.String(), nil
}

func (s *EmailService) SendSubmissionConfirmation(ctx context.Context, event *models.Event, submission *models.Submission) error {
	title := event.Title
	if title == "" {
		title = event.Name
	}
	loc := s.cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	templateData := struct {
		Title       string
		Submission  *models.Submission
		SubmittedAt string
		PortalURL   string
	}{
		Title:       title,
		Submission:  submission,
		SubmittedAt: submission.SubmittedAt.In(loc).Format(models.DeadlineLayout),
		PortalURL:   s.cfg.PublicURL,
	}

	htmlBody, err := s.GenerateEmailBody("submission_confirmation.html", templateData)
	if err != nil {
		return fmt.Errorf("ошибка генерации тела письма о приёме заявки: %w", err)
	}
	return s.SendEmail(ctx, []string{submission.Email}, title+": submission received", htmlBody)
}
