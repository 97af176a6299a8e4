package repository

import (
	"context"
	"testing"

	"entgo.io/ent"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/docextract/db/ent/schema"
)

func tableColumns(t *testing.T, db *DB, table string) []string {
	t.Helper()
	var rows entsql.Rows
	require.NoError(t, db.Driver.Query(context.Background(), "PRAGMA table_info("+table+")", []any{}, &rows))
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, typ        string
			dflt             any
		)
		require.NoError(t, rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())
	return cols
}

func fieldNames(fields []ent.Field) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Descriptor().Name)
	}
	return out
}

// The hand-written DDL must stay in step with the ent schema used for codegen.
func TestMigrate_MatchesEntSchema(t *testing.T) {
	db := openTestDB(t)
	assert.Equal(t, fieldNames(schema.ExtractionRaw{}.Fields()), tableColumns(t, db, tableRaw))
	assert.Equal(t, fieldNames(schema.ExtractionProcessed{}.Fields()), tableColumns(t, db, tableProcessed))
}
