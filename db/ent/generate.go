package main

import (
	"log"

	"entgo.io/ent/entc"
	"entgo.io/ent/entc/gen"
)

// Generates typed clients for the extraction tables into gen/ent. The repository
// builds its queries with the dialect SQL builder, so running this is optional.
func main() {
	err := entc.Generate(
		"./db/ent/schema",
		&gen.Config{
			Target:  "gen/ent",
			Package: "github.com/joseph-ayodele/docextract/gen/ent",
		},
	)
	if err != nil {
		log.Fatal(err)
	}
}
