package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
)

func mailConfig() common.MailConfig {
	return common.MailConfig{Host: "smtp.example.com", Port: 587, User: "bot@example.com", Password: "secret", UseTLS: true}
}

func writeArtifact(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extraction_abcd1234.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("fake-xlsx-bytes"), 0o644))
	return path
}

func TestSend_NotConfigured(t *testing.T) {
	cfg := mailConfig()
	cfg.Password = ""
	s := NewSMTPSender(cfg, nil, WithDeliver(func(context.Context, common.MailConfig, Envelope) error {
		t.Fatal("must not deliver")
		return nil
	}))
	out := s.Send(context.Background(), "to@example.com", writeArtifact(t), "", "")
	assert.Equal(t, Outcome{Reason: constants.MailNotConfigured}, out)
}

func TestSend_FileNotFound(t *testing.T) {
	s := NewSMTPSender(mailConfig(), nil)
	out := s.Send(context.Background(), "to@example.com", filepath.Join(t.TempDir(), "nope.xlsx"), "", "")
	assert.Equal(t, Outcome{Reason: constants.MailFileNotFound}, out)
}

func TestSend_DeliveryFailure(t *testing.T) {
	s := NewSMTPSender(mailConfig(), nil, WithDeliver(func(context.Context, common.MailConfig, Envelope) error {
		return errors.New("connection refused")
	}))
	out := s.Send(context.Background(), "to@example.com", writeArtifact(t), "", "")
	assert.False(t, out.Sent)
	assert.Equal(t, "send_failed: connection refused", out.Reason)
}

func TestSend_Message(t *testing.T) {
	var got Envelope
	s := NewSMTPSender(mailConfig(), nil, WithDeliver(func(_ context.Context, _ common.MailConfig, env Envelope) error {
		got = env
		return nil
	}))
	path := writeArtifact(t)
	out := s.Send(context.Background(), "to@example.com", path, "", "")
	require.Equal(t, Outcome{Sent: true, Reason: constants.MailSent}, out)

	assert.Equal(t, "bot@example.com", got.From, "MAIL_FROM falls back to SMTP_USER")
	assert.Equal(t, []string{"to@example.com"}, got.To)

	msg, err := mail.ReadMessage(bytes.NewReader(got.Data))
	require.NoError(t, err)
	assert.Equal(t, DefaultSubject, msg.Header.Get("Subject"))
	assert.Equal(t, "to@example.com", msg.Header.Get("To"))

	mt, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/mixed", mt)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	body, err := mr.NextPart()
	require.NoError(t, err)
	b, _ := io.ReadAll(body)
	assert.Equal(t, DefaultBody, string(b))

	att, err := mr.NextPart()
	require.NoError(t, err)
	assert.Equal(t, constants.XLSXMime, att.Header.Get("Content-Type"))
	assert.Equal(t, "extraction_abcd1234.xlsx", att.FileName())
	raw, _ := io.ReadAll(att)
	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(string(raw), "\r\n", ""))
	require.NoError(t, err)
	assert.Equal(t, "fake-xlsx-bytes", string(decoded))
}

type recordingSender struct {
	mu    sync.Mutex
	calls []string
	delay time.Duration
}

func (r *recordingSender) Send(_ context.Context, to, _, _, _ string) Outcome {
	time.Sleep(r.delay)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, to)
	return Outcome{Sent: true, Reason: constants.MailSent}
}

func TestQueue_DrainsOnShutdown(t *testing.T) {
	sender := &recordingSender{delay: 5 * time.Millisecond}
	var mu sync.Mutex
	var done []Outcome
	q := NewQueue(sender, nil, WithWorkers(2), WithQueueSize(8), WithSendTimeout(time.Second),
		WithOnDone(func(_ Job, o Outcome) {
			mu.Lock()
			defer mu.Unlock()
			done = append(done, o)
		}))

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), Job{To: "u@example.com"}))
	}
	q.Shutdown(context.Background())

	assert.Len(t, sender.calls, 5)
	assert.Len(t, done, 5)
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{To: "late@example.com"}), ErrQueueClosed)
	q.Shutdown(context.Background())
}

func TestQueue_BackpressureHonorsContext(t *testing.T) {
	block := make(chan struct{})
	sender := senderFunc(func() Outcome { <-block; return Outcome{} })
	q := NewQueue(sender, nil, WithWorkers(1), WithQueueSize(1))
	defer func() {
		close(block)
		q.Shutdown(context.Background())
	}()

	require.NoError(t, q.Enqueue(context.Background(), Job{To: "a"}))
	// the first job may or may not have been picked up yet; fill until full
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = q.Enqueue(ctx, Job{To: "b"})
	}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_ShutdownReleasesBlockedEnqueuer(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	sender := senderFunc(func() Outcome { <-block; return Outcome{} })
	q := NewQueue(sender, nil, WithWorkers(1), WithQueueSize(1))

	full, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = q.Enqueue(full, Job{To: "fill"})
	}
	require.ErrorIs(t, err, context.DeadlineExceeded)

	blocked := make(chan error, 1)
	go func() { blocked <- q.Enqueue(context.Background(), Job{To: "late"}) }()
	time.Sleep(20 * time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		q.Shutdown(ctx)
	}()

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("enqueuer still blocked after shutdown")
	}
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.ErrorIs(t, q.Enqueue(context.Background(), Job{To: "after"}), ErrQueueClosed)
}

type senderFunc func() Outcome

func (f senderFunc) Send(context.Context, string, string, string, string) Outcome { return f() }
