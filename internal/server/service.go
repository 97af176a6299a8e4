// Package server exposes the extraction pipeline as a gRPC service.
package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
	"github.com/joseph-ayodele/docextract/internal/notify"
	"github.com/joseph-ayodele/docextract/internal/pipeline"
	"github.com/joseph-ayodele/docextract/internal/repository"
)

// Extractor is the pipeline entry point the service drives.
type Extractor interface {
	Extract(ctx context.Context, path string, req pipeline.Request) (*pipeline.Result, error)
	ModelName() string
}

// MailQueue accepts deliveries to run in the background.
type MailQueue interface {
	Enqueue(ctx context.Context, job notify.Job) error
}

type Config struct {
	ArtifactDir    string
	ExtractTimeout time.Duration
	TempDir        string
}

// ExtractionService implements ExtractionServer. Repo, Queue and Sender are optional.
type ExtractionService struct {
	cfg    Config
	proc   Extractor
	repo   repository.ExtractionRepository
	queue  MailQueue
	sender notify.Sender
	logger *slog.Logger
}

type Option func(*ExtractionService)

func WithRepository(r repository.ExtractionRepository) Option {
	return func(s *ExtractionService) { s.repo = r }
}

func WithMailQueue(q MailQueue) Option {
	return func(s *ExtractionService) { s.queue = q }
}

func WithSender(sender notify.Sender) Option {
	return func(s *ExtractionService) { s.sender = sender }
}

var _ ExtractionServer = (*ExtractionService)(nil)

func NewExtractionService(cfg Config, proc Extractor, logger *slog.Logger, opts ...Option) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = "generated_excel"
	}
	s := &ExtractionService{cfg: cfg, proc: proc, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *ExtractionService) Extract(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	fileName := strings.TrimSpace(stringField(req, "file_name"))
	encoded := stringField(req, "content")
	notifyEmail := strings.TrimSpace(stringField(req, "notify_email"))

	v := common.NewValidator().
		Field("file_name", fileName, common.Required, common.PDFFileName).
		Field("content", encoded, common.Required)
	if notifyEmail != "" {
		v.Field("notify_email", notifyEmail, common.Email)
	}
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, common.InvalidArgumentError("content must be base64")
	}

	preq := pipeline.NormalizeRequest(pipeline.Request{
		DocumentType: stringField(req, "document_type"),
		Fields:       pipeline.ParseFields(stringField(req, "fields")),
	})
	s.logger.Info("server.extract.received", "req_id", rid, "file_name", fileName, "bytes", len(content))

	tmp, err := s.writeTemp(content)
	if err != nil {
		s.logger.Error("server.extract.tempfile", "req_id", rid, "error", err)
		return nil, common.InternalError("could not stage upload")
	}
	defer func() { _ = os.Remove(tmp) }()

	var rawID *uuid.UUID
	rawOutcome := pipeline.Skipped("persistence disabled")
	if s.repo != nil {
		rawOutcome = pipeline.BestEffort(ctx, s.logger, "repository.insert_raw", func(ctx context.Context) error {
			rec, err := s.repo.InsertRaw(ctx, repository.RawInput{
				FileName:     fileName,
				FileContent:  content,
				DocumentType: preq.DocumentType,
				Fields:       preq.Fields,
				LLMModel:     s.proc.ModelName(),
			})
			if err == nil {
				rawID = &rec.ID
			}
			return err
		})
	}

	ectx, cancel := common.WithTimeout(ctx, s.cfg.ExtractTimeout)
	res, err := s.proc.Extract(ectx, tmp, preq)
	cancel()
	if err != nil {
		s.logger.Error("server.extract.failed", "req_id", rid, "error", err)
		return nil, common.ToStatus(err)
	}
	resp := res.Response()

	processedOutcome := pipeline.Skipped("persistence disabled")
	if s.repo != nil {
		processedOutcome = pipeline.BestEffort(ctx, s.logger, "repository.insert_processed", func(ctx context.Context) error {
			_, err := s.repo.InsertProcessed(ctx, repository.ProcessedInput{
				RawID:        rawID,
				FileName:     fileName,
				DocumentType: preq.DocumentType,
				Fields:       preq.Fields,
				Response:     resp,
				LLMModel:     res.Model,
			})
			return err
		})
	}

	note := constants.EmailNoteUnauthenticated
	if notifyEmail != "" {
		note = s.queueEmail(ctx, rid, notifyEmail, res.ExcelPath)
	}

	resp["email_sent"] = false
	resp["email_note"] = note
	resp["extract_path"] = res.Kind.String()
	resp["persistence"] = map[string]any{
		"raw":       outcomeValue(rawOutcome),
		"processed": outcomeValue(processedOutcome),
	}
	if rawID != nil {
		resp["raw_id"] = rawID.String()
	}

	out, err := structpb.NewStruct(wireSafe(resp).(map[string]any))
	if err != nil {
		s.logger.Error("server.extract.encode", "req_id", rid, "error", err)
		return nil, common.InternalErrorf("encode response: %v", err)
	}
	s.logger.Info("server.extract.ok", "req_id", rid, "email_note", note, "excel_path", res.ExcelPath)
	return out, nil
}

func (s *ExtractionService) queueEmail(ctx context.Context, rid, to, excelPath string) string {
	if excelPath == "" {
		return constants.EmailNoteNoArtifact
	}
	if s.queue == nil {
		s.logger.Warn("server.extract.no_mail_queue", "req_id", rid)
		return constants.MailNotConfigured
	}
	err := s.queue.Enqueue(ctx, notify.Job{
		To:        to,
		Path:      excelPath,
		Subject:   notify.DefaultSubject,
		Body:      notify.DefaultBody,
		RequestID: rid,
	})
	if err != nil {
		s.logger.Warn("server.extract.enqueue_failed", "req_id", rid, "error", err)
		return fmt.Sprintf("%s: %v", constants.MailSendFailed, err)
	}
	return constants.EmailNoteQueued
}

func (s *ExtractionService) SendReport(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	to := strings.TrimSpace(stringField(req, "email"))
	if to == "" {
		return nil, common.InvalidArgumentError("email is required to receive the report")
	}
	path, err := s.artifactPath(stringField(req, "excel_path"))
	if err != nil {
		return nil, err
	}
	if s.sender == nil {
		return structpb.NewStruct(map[string]any{"sent": false, "note": constants.MailNotConfigured})
	}
	out := s.sender.Send(ctx, to, path, notify.DefaultSubject, notify.DefaultBody)
	return structpb.NewStruct(map[string]any{"sent": out.Sent, "note": out.Reason})
}

func (s *ExtractionService) DownloadRaw(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	rawID := strings.TrimSpace(stringField(req, "raw_id"))
	if err := common.ValidateAndReturnError(common.NewValidator().Field("raw_id", rawID, common.Required, common.UUID)); err != nil {
		return nil, err
	}
	if s.repo == nil {
		return nil, common.NotFoundError("file not found or not stored")
	}
	content, name, err := s.repo.GetRawFile(ctx, uuid.MustParse(rawID))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.NotFoundError("file not found or not stored")
		}
		s.logger.Error("server.download_raw.failed", "raw_id", rawID, "error", err)
		return nil, common.InternalError("could not read stored file")
	}
	return structpb.NewStruct(map[string]any{
		"file_name":    name,
		"content":      base64.StdEncoding.EncodeToString(content),
		"content_type": constants.PDFMime,
	})
}

func (s *ExtractionService) DownloadReport(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path, err := s.artifactPath(stringField(req, "excel_path"))
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, common.InternalError("could not read report")
	}
	return structpb.NewStruct(map[string]any{
		"file_name":    filepath.Base(path),
		"content":      base64.StdEncoding.EncodeToString(content),
		"content_type": constants.XLSXMime,
	})
}

// artifactPath admits only existing files under the artifact directory.
func (s *ExtractionService) artifactPath(p string) (string, error) {
	clean, err := common.CleanArtifactPath(s.cfg.ArtifactDir, p)
	if err != nil {
		return "", common.InvalidArgumentError("invalid path")
	}
	if st, err := os.Stat(clean); err != nil || st.IsDir() {
		return "", common.NotFoundError("file not found")
	}
	return clean, nil
}

func (s *ExtractionService) writeTemp(content []byte) (string, error) {
	f, err := os.CreateTemp(s.cfg.TempDir, "docextract-*."+constants.PDFExt)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func stringField(s *structpb.Struct, key string) string {
	if s == nil {
		return ""
	}
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func outcomeValue(o pipeline.Outcome) map[string]any {
	return map[string]any{"ok": o.OK, "reason": o.Reason}
}

// wireSafe converts values structpb cannot take directly ([]string, typed maps).
func wireSafe(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = wireSafe(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = wireSafe(val)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = val
		}
		return out
	case []map[string]any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = wireSafe(val)
		}
		return out
	default:
		return v
	}
}
