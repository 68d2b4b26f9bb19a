package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgErrorClassification(t *testing.T) {
	exclusion := fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23P01"})
	unique := &pgconn.PgError{Code: "23505"}

	assert.True(t, IsExclusionViolation(exclusion))
	assert.False(t, IsUniqueViolation(exclusion))
	assert.True(t, IsUniqueViolation(unique))
	assert.False(t, IsExclusionViolation(errors.New("plain")))
	assert.False(t, IsSerializationFailure(nil))
}

func TestPostgresConfig_DatabaseURL(t *testing.T) {
	cfg := PostgresConfig{Host: "db", Port: "5432", User: "svc", Password: "p@ss", DBName: "scheduling", SSLMode: "disable"}
	assert.Equal(t, "postgres://svc:p%40ss@db:5432/scheduling?sslmode=disable", cfg.DatabaseURL())
}
