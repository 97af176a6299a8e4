// Package notify delivers spreadsheet artifacts by email.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
)

const (
	DefaultSubject = "Your extraction report"
	DefaultBody    = "Please find your extraction report attached."
)

// Outcome is the best-effort delivery result. Reason is one of the constants.Mail* values,
// with send failures carrying the cause after "send_failed: ".
type Outcome struct {
	Sent   bool
	Reason string
}

// Sender delivers one artifact.
type Sender interface {
	Send(ctx context.Context, to, path, subject, body string) Outcome
}

// Envelope is a fully rendered message ready for the wire.
type Envelope struct {
	From string
	To   []string
	Data []byte
}

// DeliverFunc puts an envelope on the wire.
type DeliverFunc func(ctx context.Context, cfg common.MailConfig, env Envelope) error

type SMTPSender struct {
	cfg     common.MailConfig
	deliver DeliverFunc
	logger  *slog.Logger
}

type SenderOption func(*SMTPSender)

// WithDeliver replaces the SMTP transport.
func WithDeliver(fn DeliverFunc) SenderOption {
	return func(s *SMTPSender) {
		if fn != nil {
			s.deliver = fn
		}
	}
}

func NewSMTPSender(cfg common.MailConfig, logger *slog.Logger, opts ...SenderOption) *SMTPSender {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	s := &SMTPSender{cfg: cfg, deliver: deliverSMTP, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Send never returns an error; every failure is reported in the Outcome.
func (s *SMTPSender) Send(ctx context.Context, to, path, subject, body string) Outcome {
	if !s.cfg.Configured() {
		return Outcome{Reason: constants.MailNotConfigured}
	}
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Outcome{Reason: constants.MailFileNotFound}
		}
		return s.failed(to, path, err)
	}
	if subject == "" {
		subject = DefaultSubject
	}
	if body == "" {
		body = DefaultBody
	}

	data, err := BuildMessage(s.cfg.From, to, subject, body, filepath.Base(path), content)
	if err != nil {
		return s.failed(to, path, err)
	}
	start := time.Now()
	if err := s.deliver(ctx, s.cfg, Envelope{From: s.cfg.From, To: []string{to}, Data: data}); err != nil {
		return s.failed(to, path, err)
	}
	s.logger.Info("notify.mail.sent", "to", to, "path", path, "bytes", len(data), "elapsed_ms", time.Since(start).Milliseconds())
	return Outcome{Sent: true, Reason: constants.MailSent}
}

func (s *SMTPSender) failed(to, path string, err error) Outcome {
	s.logger.Error("notify.mail.failed", "to", to, "path", path, "error", err)
	return Outcome{Reason: fmt.Sprintf("%s: %v", constants.MailSendFailed, err)}
}

// BuildMessage renders a multipart/mixed message with a plain-text body and the
// spreadsheet attached as base64.
func BuildMessage(from, to, subject, body, fileName string, attachment []byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/mixed; boundary=%q\r\n\r\n", mw.Boundary())

	text, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/plain; charset=utf-8"},
		"Content-Transfer-Encoding": {"7bit"},
	})
	if err != nil {
		return nil, err
	}
	if _, err := text.Write([]byte(body)); err != nil {
		return nil, err
	}

	att, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {constants.XLSXMime},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": fileName})},
	})
	if err != nil {
		return nil, err
	}
	enc := base64.StdEncoding.EncodeToString(attachment)
	for len(enc) > 76 {
		if _, err := att.Write([]byte(enc[:76] + "\r\n")); err != nil {
			return nil, err
		}
		enc = enc[76:]
	}
	if _, err := att.Write([]byte(enc)); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// deliverSMTP speaks SMTP to cfg.Host, upgrading with STARTTLS when UseTLS is set.
func deliverSMTP(ctx context.Context, cfg common.MailConfig, env Envelope) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	c, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() { _ = c.Close() }()

	if cfg.UseTLS {
		if err := c.StartTLS(&tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if err := c.Auth(smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.Mail(env.From); err != nil {
		return err
	}
	for _, rcpt := range env.To {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(env.Data); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
