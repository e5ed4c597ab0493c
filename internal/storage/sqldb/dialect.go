// ABOUTME: Backend dialects for the relational stores
// ABOUTME: Captures placeholder style, write-return timing, id coercion, and schema per engine
package sqldb

import (
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Dialect describes how one relational engine differs from another. Stores
// consult it so no caller ever branches on the backend.
type Dialect struct {
	Name       string
	DriverName string
	BindType   int

	// Returning is true when INSERT ... RETURNING yields the written row.
	// Otherwise the row is re-read inside the same transaction.
	Returning bool

	// NativeUUID is true when id columns are typed UUID and want uuid.UUID arguments
	NativeUUID bool

	// JSONPlaceholder is the placeholder used for snapshot columns
	JSONPlaceholder string

	Schema string
}

// SQLite stores ids as text and reads back rows after each insert
var SQLite = Dialect{
	Name:            "sqlite",
	DriverName:      "sqlite",
	BindType:        sqlx.QUESTION,
	Returning:       false,
	NativeUUID:      false,
	JSONPlaceholder: "?",
	Schema:          sqliteSchema,
}

// Postgres uses native UUID and JSONB columns and INSERT ... RETURNING
var Postgres = Dialect{
	Name:            "postgres",
	DriverName:      "postgres",
	BindType:        sqlx.DOLLAR,
	Returning:       true,
	NativeUUID:      true,
	JSONPlaceholder: "CAST(? AS JSONB)",
	Schema:          postgresSchema,
}

// Rebind converts ? placeholders to the dialect's placeholder syntax
func (d Dialect) Rebind(query string) string {
	return sqlx.Rebind(d.BindType, query)
}

// ID coerces a canonical id into the argument type the engine expects
func (d Dialect) ID(id string) any {
	if !d.NativeUUID {
		return id
	}
	if u, err := uuid.Parse(id); err == nil {
		return u
	}
	return id
}

// Statements splits the schema into individual statements
func (d Dialect) Statements() []string {
	var out []string
	for _, stmt := range strings.Split(d.Schema, ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
