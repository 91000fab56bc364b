package authcore

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer is the outbound email collaborator. Delivery failures surface as
// errors; callers decide what state to roll back.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// ConsoleMailer is a development implementation that logs emails instead of
// sending them.
type ConsoleMailer struct{}

func (c *ConsoleMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	slog.Info("email (console)", "to", to, "subject", subject, "bytes", len(htmlBody))
	return nil
}

// SMTPMailer delivers mail through a plain SMTP relay.
type SMTPMailer struct {
	Addr string // host:port
	From string
	Auth smtp.Auth // optional
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := smtp.SendMail(m.Addr, m.Auth, m.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// ResetCodeEmailSubject states the validity window so the user knows how
// long the code lives.
const ResetCodeEmailSubject = "Your password reset code (valid for 10 min)"

// ResetCodeEmailBody renders the HTML body carrying the one-time code.
func ResetCodeEmailBody(name, code string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
  <head><meta charset="UTF-8" /><title>Verification Code</title></head>
  <body style="margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f8f8f8;">
    <table style="max-width: 600px; margin: auto; background-color: #ffffff; padding: 40px 20px;" width="100%%" cellspacing="0" cellpadding="0" align="center">
      <tbody>
        <tr>
          <td style="padding-top: 30px;">
            <p style="font-size: 16px; color: #333;">Hi %s,</p>
            <p style="font-size: 16px; color: #333;">This is your one time verification code.</p>
            <div style="margin: 30px 0; padding: 20px; background-color: #f2f2f2; text-align: center; border-radius: 8px;"><span style="font-size: 36px; letter-spacing: 12px; font-weight: bold; color: #333;">%s</span></div>
            <p style="font-size: 14px; color: #666;">This code is only active for the <span style="font-weight: bold;">next 10 minutes</span>. Once the code expires you will have to resubmit a request for a code.</p>
          </td>
        </tr>
      </tbody>
    </table>
  </body>
</html>`, name, code)
}
