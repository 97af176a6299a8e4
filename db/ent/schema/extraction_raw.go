package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"

	"github.com/google/uuid"
)

// ExtractionRaw is an uploaded document as received.
type ExtractionRaw struct {
	ent.Schema
}

func (ExtractionRaw) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "extraction_raw"},
	}
}

func (ExtractionRaw) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		field.String("file_name"),
		field.Bytes("file_content").
			Optional().
			SchemaType(map[string]string{dialect.Postgres: "bytea"}),
		field.String("document_type"),
		field.Strings("fields").
			SchemaType(map[string]string{dialect.Postgres: "jsonb"}),
		field.String("llm_model"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (ExtractionRaw) Edges() []ent.Edge {
	return []ent.Edge{
		// ONE upload -> MANY processed results
		edge.To("processed", ExtractionProcessed.Type).
			Annotations(entsql.OnDelete(entsql.SetNull)),
	}
}
