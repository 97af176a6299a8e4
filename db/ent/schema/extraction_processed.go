package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"

	"github.com/google/uuid"
)

// ExtractionProcessed is the response returned for one upload.
type ExtractionProcessed struct {
	ent.Schema
}

func (ExtractionProcessed) Annotations() []schema.Annotation {
	return []schema.Annotation{
		entsql.Annotation{Table: "extraction_processed"},
	}
}

func (ExtractionProcessed) Fields() []ent.Field {
	return []ent.Field{
		field.UUID("id", uuid.UUID{}).
			Default(uuid.New).
			Immutable(),
		field.UUID("raw_id", uuid.UUID{}).
			Optional().
			Nillable(),
		field.String("file_name"),
		field.String("document_type"),
		field.Strings("fields").
			SchemaType(map[string]string{dialect.Postgres: "jsonb"}),
		field.JSON("response", map[string]any{}).
			SchemaType(map[string]string{dialect.Postgres: "jsonb"}),
		field.String("llm_model"),
		field.Time("created_at").
			Default(time.Now).
			Immutable(),
	}
}

func (ExtractionProcessed) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("raw", ExtractionRaw.Type).
			Ref("processed").
			Field("raw_id").
			Unique(),
	}
}

func (ExtractionProcessed) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("raw_id"),
	}
}
