package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialectQuote(t *testing.T) {
	tests := []struct {
		name    string
		dialect *dialect
		ident   string
		want    string
	}{
		{"sqlite plain", sqliteDialect, "users", `"users"`},
		{"postgres schema", postgresDialect, "public.users", `"public"."users"`},
		{"postgres embedded quote", postgresDialect, `we"ird`, `"we""ird"`},
		{"mysql plain", mysqlDialect, "users", "`users`"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.quote(tt.ident))
		})
	}
}

func TestDialectInsertSQL(t *testing.T) {
	tests := []struct {
		name    string
		dialect *dialect
		columns []string
		want    string
	}{
		{"sqlite", sqliteDialect, []string{"id", "name"}, `INSERT INTO "users" ("id", "name") VALUES (?, ?)`},
		{"postgres", postgresDialect, []string{"id", "name"}, `INSERT INTO "users" ("id", "name") VALUES ($1, $2)`},
		{"mysql", mysqlDialect, []string{"id"}, "INSERT INTO `users` (`id`) VALUES (?)"},
		{"sqlite defaults", sqliteDialect, nil, `INSERT INTO "users" DEFAULT VALUES`},
		{"mysql defaults", mysqlDialect, nil, "INSERT INTO `users` () VALUES ()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.insertSQL("users", tt.columns))
		})
	}
}
