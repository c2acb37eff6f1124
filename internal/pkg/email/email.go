package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tutorhub/backoffice/internal/app/models"
	"github.com/tutorhub/backoffice/internal/pkg/kst"
)

// Sender delivers one HTML message.
type Sender interface {
	SendHTML(ctx context.Context, toEmail, subject, htmlBody string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
}

// Enabled reports whether enough is configured to send mail.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.FromEmail != ""
}

// SMTPSender sends mail through an SMTP relay.
type SMTPSender struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewSMTPSender creates a new SMTPSender
func NewSMTPSender(config SMTPConfig, logger zerolog.Logger) *SMTPSender {
	return &SMTPSender{
		config: config,
		logger: logger,
	}
}

// buildMessage renders headers and body. Header order is fixed.
func buildMessage(from, to, subject, htmlBody string) []byte {
	headers := map[string]string{
		"From":         from,
		"To":           to,
		"Subject":      subject,
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// SendHTML sends an HTML email. The context only guards the start of the call; net/smtp
// does not support cancellation mid-session.
func (s *SMTPSender) SendHTML(ctx context.Context, toEmail, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.config.Username != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	from := fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	message := buildMessage(from, toEmail, subject, htmlBody)
	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{toEmail}, message); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	conn, err := tls.Dial("tcp", serverAddress, &tls.Config{ServerName: s.config.Host})
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if auth != nil {
		if err = client.Auth(auth); err != nil {
			s.logger.Error().Err(err).Msg("SMTP authentication failed")
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}
	return nil
}

// StudentLookup resolves the recipient of a reminder.
type StudentLookup interface {
	GetStudent(ctx context.Context, id int64) (*models.Student, error)
}

// ReminderMailer emails students about their next-day classes. Students without an
// email address are skipped.
type ReminderMailer struct {
	students StudentLookup
	sender   Sender
	logger   zerolog.Logger
}

// NewReminderMailer creates a new ReminderMailer
func NewReminderMailer(students StudentLookup, sender Sender, logger zerolog.Logger) *ReminderMailer {
	return &ReminderMailer{students: students, sender: sender, logger: logger}
}

// NotifyUpcoming sends the reminder for one schedule.
func (m *ReminderMailer) NotifyUpcoming(ctx context.Context, s *models.Schedule) error {
	student, err := m.students.GetStudent(ctx, s.StudentID)
	if err != nil {
		return fmt.Errorf("failed to load student %d: %w", s.StudentID, err)
	}
	if student.Email == nil || *student.Email == "" {
		m.logger.Debug().Int64("studentId", s.StudentID).Msg("Student has no email, reminder skipped")
		return nil
	}

	subject, body := ReminderMessage(student.Name, s)
	return m.sender.SendHTML(ctx, *student.Email, subject, body)
}

// ReminderMessage renders the subject and HTML body of a class reminder. Times are KST.
func ReminderMessage(studentName string, s *models.Schedule) (subject, body string) {
	date := kst.DateKey(s.StartTime)
	start := kst.TimeOfDayOf(s.StartTime).String()
	end := kst.TimeOfDayOf(s.EndTime).String()

	subject = fmt.Sprintf("Class reminder: %s %s KST", date, start)
	body = fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<p>Hello %s,</p>
				<p>This is a reminder that you have a class tomorrow, <strong>%s</strong>, from <strong>%s</strong> to <strong>%s</strong> (Korea Standard Time).</p>
				<p>If you cannot attend, please contact your academy.</p>
			</div>
		</body>
		</html>
	`, html.EscapeString(studentName), date, start, end)
	return subject, body
}
