package dialect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"mysql", MySQL},
		{"mariadb", MySQL},
		{"sqlite", SQLite},
		{"sqlite3", SQLite},
		{"postgres", Postgres},
		{"postgresql", Postgres},
		{"pgx", Postgres},
		{"oracle", "oracle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.name))
		})
	}
}
