package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	ErrRecordNotFound   = errors.New("record not found")
	ErrDuplicateKey     = errors.New("duplicate key violation")
	ErrForeignKey       = errors.New("foreign key violation")
	ErrInvalidData      = errors.New("invalid data")
	ErrUndefinedTable   = errors.New("undefined table")
	ErrConnectionFailed = errors.New("connection failed")
	ErrNotConnected     = errors.New("database not connected")
	ErrInvalidConfig    = errors.New("invalid config")
)

// pgErrors maps PostgreSQL SQLSTATE codes onto the package sentinels.
var pgErrors = map[string]error{
	"23505": ErrDuplicateKey,
	"23503": ErrForeignKey,
	"22001": ErrInvalidData,
	"22P02": ErrInvalidData,
	"23502": ErrInvalidData,
	"42P01": ErrUndefinedTable,
	"08000": ErrConnectionFailed,
	"08003": ErrConnectionFailed,
	"08006": ErrConnectionFailed,
	"57P01": ErrConnectionFailed,
}

// TranslateError converts gorm and PostgreSQL errors into the package
// sentinels, keeping the original error in the chain.
func TranslateError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return errors.Join(ErrRecordNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(ErrDuplicateKey, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return errors.Join(ErrForeignKey, err)
	case errors.Is(err, gorm.ErrInvalidData):
		return errors.Join(ErrInvalidData, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if sentinel, ok := pgErrors[pgErr.Code]; ok {
			return errors.Join(sentinel, err)
		}
	}
	return err
}
