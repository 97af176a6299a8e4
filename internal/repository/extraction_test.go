package repository

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/internal/common"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:", slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(slog.Default()) })
	require.NoError(t, db.Migrate(ctx))
	require.NoError(t, db.Migrate(ctx), "migrations are idempotent")
	return db
}

func TestInsertRawAndGetRawFile(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewExtractionRepository(db, nil)

	rec, err := repo.InsertRaw(ctx, RawInput{
		FileName:     "inv\x00oice.pdf",
		FileContent:  []byte("%PDF-1.4 body"),
		DocumentType: "invoice",
		Fields:       []string{"invoice_number", "to\x00tal"},
		LLMModel:     "gemini-2.0-flash",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.False(t, rec.CreatedAt.IsZero())

	content, name, err := repo.GetRawFile(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 body", string(content))
	assert.Equal(t, "invoice.pdf", name)

	var fields string
	queryOne(t, db, "SELECT fields FROM extraction_raw WHERE id = ?", rec.ID.String(), &fields)
	assert.JSONEq(t, `["invoice_number","total"]`, fields)
}

func TestGetRawFile_NotFoundAndEmpty(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewExtractionRepository(db, nil)

	_, _, err := repo.GetRawFile(ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	rec, err := repo.InsertRaw(ctx, RawInput{FileName: "a.pdf", DocumentType: "invoice", LLMModel: "m"})
	require.NoError(t, err)
	_, _, err = repo.GetRawFile(ctx, rec.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetRawFile_DefaultName(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewExtractionRepository(db, nil)

	rec, err := repo.InsertRaw(ctx, RawInput{FileName: "", FileContent: []byte("x"), DocumentType: "invoice", LLMModel: "m"})
	require.NoError(t, err)
	_, name, err := repo.GetRawFile(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "document.pdf", name)
}

func TestInsertProcessed(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	repo := NewExtractionRepository(db, nil)

	raw, err := repo.InsertRaw(ctx, RawInput{FileName: "a.pdf", FileContent: []byte("x"), DocumentType: "invoice", LLMModel: "m"})
	require.NoError(t, err)

	response := map[string]any{
		"invoice_number": "INV\x00-9",
		"lines":          []any{map[string]any{"desc": "a\x00b"}},
		"total_amount":   nil,
	}
	rec, err := repo.InsertProcessed(ctx, ProcessedInput{
		RawID:        &raw.ID,
		FileName:     "a.pdf",
		DocumentType: "invoice",
		Fields:       []string{"invoice_number", "total_amount"},
		Response:     response,
		LLMModel:     "m",
	})
	require.NoError(t, err)

	var stored string
	queryOne(t, db, "SELECT response FROM extraction_processed WHERE id = ?", rec.ID.String(), &stored)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(stored), &got))
	assert.Equal(t, "INV-9", got["invoice_number"])
	assert.Equal(t, []any{map[string]any{"desc": "ab"}}, got["lines"])

	_, err = repo.InsertProcessed(ctx, ProcessedInput{FileName: "b.pdf", DocumentType: "invoice", Response: map[string]any{}, LLMModel: "m"})
	require.NoError(t, err, "raw_id is optional")
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, db.HealthCheck(context.Background(), 0, slog.Default()))
}

func TestStripNUL(t *testing.T) {
	in := map[string]any{"k\x00": []any{"a\x00", 1.0, map[string]any{"n": "\x00x"}}, "s": []string{"q\x00"}}
	assert.Equal(t, map[string]any{"k": []any{"a", 1.0, map[string]any{"n": "x"}}, "s": []string{"q"}}, StripNUL(in))
}

func queryOne(t *testing.T, db *DB, q string, arg any, dest any) {
	t.Helper()
	var rows entsql.Rows
	require.NoError(t, db.Driver.Query(context.Background(), q, []any{arg}, &rows))
	defer func() { _ = rows.Close() }()
	require.True(t, rows.Next())
	require.NoError(t, rows.Scan(dest))
}
