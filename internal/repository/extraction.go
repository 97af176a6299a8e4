package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/common"
)

// Record identifies a stored row.
type Record struct {
	ID        uuid.UUID
	CreatedAt time.Time
}

type RawInput struct {
	FileName     string
	FileContent  []byte
	DocumentType string
	Fields       []string
	LLMModel     string
}

type ProcessedInput struct {
	RawID        *uuid.UUID
	FileName     string
	DocumentType string
	Fields       []string
	Response     any
	LLMModel     string
}

type ExtractionRepository interface {
	InsertRaw(ctx context.Context, in RawInput) (Record, error)
	InsertProcessed(ctx context.Context, in ProcessedInput) (Record, error)
	GetRawFile(ctx context.Context, id uuid.UUID) ([]byte, string, error)
}

type extractionRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewExtractionRepository(db *DB, logger *slog.Logger) ExtractionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &extractionRepo{db: db, logger: logger}
}

func (r *extractionRepo) InsertRaw(ctx context.Context, in RawInput) (Record, error) {
	fields, err := jsonColumn(in.Fields)
	if err != nil {
		return Record{}, err
	}
	rec := Record{ID: uuid.New(), CreatedAt: time.Now().UTC()}
	q, args := entsql.Dialect(r.db.Dialect).
		Insert(tableRaw).
		Columns("id", "file_name", "file_content", "document_type", "fields", "llm_model", "created_at").
		Values(rec.ID.String(), StripNUL(in.FileName), in.FileContent, StripNUL(in.DocumentType), fields, StripNUL(in.LLMModel), rec.CreatedAt).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to insert raw extraction", "file_name", in.FileName, "error", err)
		return Record{}, fmt.Errorf("%w: insert raw: %v", common.ErrDatabase, err)
	}
	r.logger.Debug("raw extraction stored", "id", rec.ID, "bytes", len(in.FileContent))
	return rec, nil
}

func (r *extractionRepo) InsertProcessed(ctx context.Context, in ProcessedInput) (Record, error) {
	fields, err := jsonColumn(in.Fields)
	if err != nil {
		return Record{}, err
	}
	response, err := jsonColumn(in.Response)
	if err != nil {
		return Record{}, err
	}
	var rawID any
	if in.RawID != nil {
		rawID = in.RawID.String()
	}
	rec := Record{ID: uuid.New(), CreatedAt: time.Now().UTC()}
	q, args := entsql.Dialect(r.db.Dialect).
		Insert(tableProcessed).
		Columns("id", "raw_id", "file_name", "document_type", "fields", "response", "llm_model", "created_at").
		Values(rec.ID.String(), rawID, StripNUL(in.FileName), StripNUL(in.DocumentType), fields, response, StripNUL(in.LLMModel), rec.CreatedAt).
		Query()
	if err := r.db.Driver.Exec(ctx, q, args, nil); err != nil {
		r.logger.Error("failed to insert processed extraction", "file_name", in.FileName, "error", err)
		return Record{}, fmt.Errorf("%w: insert processed: %v", common.ErrDatabase, err)
	}
	return rec, nil
}

// GetRawFile returns the stored PDF bytes and name. A missing row or empty content is ErrNotFound.
func (r *extractionRepo) GetRawFile(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	q, args := entsql.Dialect(r.db.Dialect).
		Select("file_content", "file_name").
		From(entsql.Table(tableRaw)).
		Where(entsql.EQ("id", id.String())).
		Limit(1).
		Query()

	var rows entsql.Rows
	if err := r.db.Driver.Query(ctx, q, args, &rows); err != nil {
		return nil, "", fmt.Errorf("%w: get raw file: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, "", fmt.Errorf("%w: get raw file: %v", common.ErrDatabase, err)
		}
		return nil, "", common.ErrNotFound
	}
	var content []byte
	var name *string
	if err := rows.Scan(&content, &name); err != nil {
		return nil, "", fmt.Errorf("%w: scan raw file: %v", common.ErrDatabase, err)
	}
	if len(content) == 0 {
		return nil, "", common.ErrNotFound
	}
	fileName := constants.DefaultRawFileName
	if name != nil && strings.TrimSpace(*name) != "" {
		fileName = *name
	}
	return content, fileName, nil
}

func jsonColumn(v any) (string, error) {
	b, err := json.Marshal(StripNUL(v))
	if err != nil {
		return "", fmt.Errorf("marshal json column: %w", err)
	}
	return string(b), nil
}

// StripNUL removes \x00 from every string in v, descending into maps and slices.
// Postgres rejects NUL in TEXT and JSONB.
func StripNUL(v any) any {
	switch t := v.(type) {
	case string:
		return strings.ReplaceAll(t, "\x00", "")
	case []string:
		out := make([]string, len(t))
		for i, s := range t {
			out[i] = strings.ReplaceAll(s, "\x00", "")
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[strings.ReplaceAll(k, "\x00", "")] = StripNUL(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = StripNUL(val)
		}
		return out
	default:
		return v
	}
}
