// Package notify delivers the end-of-session summary email.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"mime"
	"net/smtp"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dip-trader/internal/config"
	"dip-trader/internal/models"
)

// EmailNotifier sends the session summary over SMTP, attaching the report
// files produced during the session.
type EmailNotifier struct {
	smtpHost string
	smtpPort int
	username string
	password string
	from     string
	to       string
	enabled  bool
	logger   zerolog.Logger
}

// NewEmailNotifier creates an email notifier from config. Missing host,
// from, or to addresses disable it.
func NewEmailNotifier(cfg config.EmailConfig, logger zerolog.Logger) *EmailNotifier {
	return &EmailNotifier{
		smtpHost: cfg.SMTPHost,
		smtpPort: cfg.SMTPPort,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		to:       cfg.To,
		enabled:  cfg.Enabled && cfg.SMTPHost != "" && cfg.From != "" && cfg.To != "",
		logger:   logger,
	}
}

// IsEnabled returns whether the notifier will actually send email.
func (e *EmailNotifier) IsEnabled() bool {
	return e.enabled
}

// SendReport emails the session summary with the report files attached.
// Disabled notifiers return nil.
func (e *EmailNotifier) SendReport(ctx context.Context, sum models.TradingSummary, reportPaths []string) error {
	if !e.enabled {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("Trading Summary %s - %d trade(s)",
		sum.StartedAt.Format("2006-01-02"), sum.TotalTrades)
	body := buildSummaryBody(sum)

	msg, err := buildMessage(e.from, e.to, subject, body, reportPaths)
	if err != nil {
		return fmt.Errorf("building summary email: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", e.smtpHost, e.smtpPort)

	var auth smtp.Auth
	if e.username != "" && e.password != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.smtpHost)
	}

	if e.smtpPort == 465 {
		err = e.sendWithTLS(addr, auth, msg)
	} else {
		err = smtp.SendMail(addr, auth, e.from, []string{e.to}, msg)
	}
	if err != nil {
		return fmt.Errorf("sending summary email: %w", err)
	}

	e.logger.Info().Str("to", e.to).Int("attachments", len(reportPaths)).Msg("Summary email sent")
	return nil
}

func buildSummaryBody(sum models.TradingSummary) string {
	var sb strings.Builder
	mode := "LIVE"
	if sum.Mode == models.ModePaper {
		mode = "PAPER"
	}
	sb.WriteString(fmt.Sprintf("Session %s [%s]\n", sum.SessionID, mode))
	sb.WriteString(fmt.Sprintf("Symbol: %s (benchmark %s)\n", sum.Symbol, sum.BenchmarkSymbol))
	sb.WriteString(fmt.Sprintf("Started: %s\n", sum.StartedAt.Format("2006-01-02 15:04:05")))
	if !sum.EndedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("Ended: %s\n", sum.EndedAt.Format("2006-01-02 15:04:05")))
	}
	sb.WriteString("\n")
	if sum.BaselinePrice > 0 {
		sb.WriteString(fmt.Sprintf("Baseline: %.2f\n", sum.BaselinePrice))
		sb.WriteString(fmt.Sprintf("Final: %.2f (%.2f%% decline)\n", sum.FinalPrice, sum.TotalDeclinePct))
	}
	sb.WriteString(fmt.Sprintf("Trades executed: %d\n", sum.TotalTrades))
	if sum.TotalTrades > 0 {
		sb.WriteString(fmt.Sprintf("Entry price: $%.2f\n", sum.EntryPrice))
	}
	return sb.String()
}

// buildMessage assembles a MIME multipart message with the given attachments.
// Unreadable attachments are skipped rather than aborting the send.
func buildMessage(from, to, subject, body string, attachments []string) ([]byte, error) {
	boundary := fmt.Sprintf("dip-trader-%d", time.Now().UnixNano())

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", subject)
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n", boundary)
	buf.WriteString("\r\n")

	fmt.Fprintf(&buf, "--%s\r\n", boundary)
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.WriteString(body)
	buf.WriteString("\r\n")

	for _, path := range attachments {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		name := filepath.Base(path)
		ctype := mime.TypeByExtension(filepath.Ext(path))
		if ctype == "" {
			ctype = "application/octet-stream"
		}

		fmt.Fprintf(&buf, "--%s\r\n", boundary)
		fmt.Fprintf(&buf, "Content-Type: %s; name=%q\r\n", ctype, name)
		buf.WriteString("Content-Transfer-Encoding: base64\r\n")
		fmt.Fprintf(&buf, "Content-Disposition: attachment; filename=%q\r\n\r\n", name)

		encoded := base64.StdEncoding.EncodeToString(data)
		for len(encoded) > 76 {
			buf.WriteString(encoded[:76])
			buf.WriteString("\r\n")
			encoded = encoded[76:]
		}
		buf.WriteString(encoded)
		buf.WriteString("\r\n")
	}

	fmt.Fprintf(&buf, "--%s--\r\n", boundary)
	return buf.Bytes(), nil
}

// sendWithTLS sends email using implicit TLS (port 465).
func (e *EmailNotifier) sendWithTLS(addr string, auth smtp.Auth, msg []byte) error {
	tlsConfig := &tls.Config{
		ServerName: e.smtpHost,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("TLS dial failed: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.smtpHost)
	if err != nil {
		return fmt.Errorf("creating SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth failed: %w", err)
		}
	}

	if err := client.Mail(e.from); err != nil {
		return fmt.Errorf("SMTP MAIL command failed: %w", err)
	}
	if err := client.Rcpt(e.to); err != nil {
		return fmt.Errorf("SMTP RCPT command failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing email body: %w", err)
	}

	return client.Quit()
}

// NoOpNotifier is used when email is not configured.
type NoOpNotifier struct{}

// NewNoOpNotifier creates a notifier that discards everything.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// SendReport does nothing.
func (n *NoOpNotifier) SendReport(ctx context.Context, sum models.TradingSummary, reportPaths []string) error {
	return nil
}
