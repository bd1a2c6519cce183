package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewPostgresValidation(t *testing.T) {
	_, err := NewPostgres(Config{})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPostgres(Config{Connection: Connection{Host: "localhost"}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{Connection: Connection{Host: "db", DbName: "pbcodec"}}.withDefaults()
	assert.Equal(t, "5432", cfg.Connection.Port)
	assert.Equal(t, "disable", cfg.Connection.SSLMode)
	assert.Equal(t, "pbcodec_dead_letters", cfg.DeadLetterTable)
	assert.Equal(t, 50, cfg.ConnectionDetails.MaxOpenConns)
	assert.Equal(t, 25, cfg.ConnectionDetails.MaxIdleConns)
	assert.Equal(t, time.Minute, cfg.ConnectionDetails.ConnMaxLifetime)

	custom := Config{DeadLetterTable: "poison", ConnectionDetails: ConnectionDetails{MaxOpenConns: 5}}.withDefaults()
	assert.Equal(t, "poison", custom.DeadLetterTable)
	assert.Equal(t, 5, custom.ConnectionDetails.MaxOpenConns)
}

func TestDSN(t *testing.T) {
	c := Connection{Host: "db", Port: "6432", User: "pb", Password: "secret", DbName: "pbcodec", SSLMode: "require"}
	assert.Equal(t, "postgres://pb:secret@db:6432/pbcodec?sslmode=require", dsn(c))
}

func TestDSNEscapesCredentials(t *testing.T) {
	c := Connection{
		Host:     "db",
		Port:     "5432",
		User:     "dead letters",
		Password: "it's a p@ss/word?&x=1",
		DbName:   "pbcodec",
		SSLMode:  "disable",
	}

	parsed, err := pgconn.ParseConfig(dsn(c))
	require.NoError(t, err)
	assert.Equal(t, "db", parsed.Host)
	assert.Equal(t, uint16(5432), parsed.Port)
	assert.Equal(t, c.User, parsed.User)
	assert.Equal(t, c.Password, parsed.Password)
	assert.Equal(t, "pbcodec", parsed.Database)
}

func TestNewDeadLetter(t *testing.T) {
	letter := newDeadLetter("k1", []byte{0x0a}, map[string]string{"origin": "stable"}, errors.New("bad wire type"))
	assert.Equal(t, "k1", letter.Key)
	assert.Equal(t, []byte{0x0a}, letter.Payload)
	assert.Equal(t, map[string]string{"origin": "stable"}, letter.Headers)
	assert.Equal(t, "bad wire type", letter.Reason)

	empty := newDeadLetter("", nil, nil, nil)
	assert.Equal(t, []byte{}, empty.Payload)
	assert.Empty(t, empty.Reason)
}

func TestOperationsWithoutConnection(t *testing.T) {
	pg := newPostgres(Config{}.withDefaults())
	ctx := context.Background()

	assert.ErrorIs(t, pg.Migrate(ctx), ErrNotConnected)
	assert.ErrorIs(t, pg.StoreDeadLetter(ctx, "k", nil, nil, nil), ErrNotConnected)
	_, err := pg.ListDeadLetters(ctx, 10)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.ErrorIs(t, pg.DeleteDeadLetter(ctx, 1), ErrNotConnected)
	assert.ErrorIs(t, pg.healthCheck(ctx), ErrNotConnected)
	assert.NoError(t, pg.GracefulShutdown())
	assert.NoError(t, pg.GracefulShutdown())
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"not found", gorm.ErrRecordNotFound, ErrRecordNotFound},
		{"gorm duplicate", gorm.ErrDuplicatedKey, ErrDuplicateKey},
		{"gorm foreign key", gorm.ErrForeignKeyViolated, ErrForeignKey},
		{"pg duplicate", &pgconn.PgError{Code: "23505"}, ErrDuplicateKey},
		{"pg undefined table", &pgconn.PgError{Code: "42P01"}, ErrUndefinedTable},
		{"pg bad text", &pgconn.PgError{Code: "22P02"}, ErrInvalidData},
		{"pg admin shutdown", &pgconn.PgError{Code: "57P01"}, ErrConnectionFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TranslateError(tt.err)
			assert.ErrorIs(t, got, tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}

	assert.NoError(t, TranslateError(nil))
	other := &pgconn.PgError{Code: "XX000"}
	require.Equal(t, error(other), TranslateError(other))
}
