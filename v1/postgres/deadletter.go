package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// DeadLetter is a message a pipeline could not transcode, kept with the
// reason it was skipped.
type DeadLetter struct {
	ID        uint64            `gorm:"primaryKey"`
	Key       string            `gorm:"size:1024"`
	Payload   []byte            `gorm:"not null"`
	Headers   map[string]string `gorm:"serializer:json;type:jsonb"`
	Reason    string            `gorm:"type:text"`
	CreatedAt time.Time         `gorm:"index"`
}

func newDeadLetter(key string, body []byte, headers map[string]string, cause error) *DeadLetter {
	letter := &DeadLetter{
		Key:     key,
		Payload: body,
		Headers: headers,
	}
	if letter.Payload == nil {
		letter.Payload = []byte{}
	}
	if cause != nil {
		letter.Reason = cause.Error()
	}
	return letter
}

// table scopes a query to the configured dead-letter table.
func (p *Postgres) table(ctx context.Context) (*gorm.DB, error) {
	db := p.DB()
	if db == nil {
		return nil, ErrNotConnected
	}
	return db.WithContext(ctx).Table(p.cfg.DeadLetterTable), nil
}

// Migrate creates or updates the dead-letter table.
func (p *Postgres) Migrate(ctx context.Context) error {
	db, err := p.table(ctx)
	if err != nil {
		return err
	}
	return TranslateError(db.AutoMigrate(&DeadLetter{}))
}

// StoreDeadLetter saves a skipped message.
func (p *Postgres) StoreDeadLetter(ctx context.Context, key string, body []byte, headers map[string]string, cause error) (err error) {
	start := time.Now()
	defer func() {
		p.observeOperation("store_dead_letter", time.Since(start), err, int64(len(body)))
	}()

	db, err := p.table(ctx)
	if err != nil {
		return err
	}
	return TranslateError(db.Create(newDeadLetter(key, body, headers, cause)).Error)
}

// ListDeadLetters returns up to limit dead letters, oldest first. A limit of
// zero or less returns all of them.
func (p *Postgres) ListDeadLetters(ctx context.Context, limit int) ([]DeadLetter, error) {
	db, err := p.table(ctx)
	if err != nil {
		return nil, err
	}
	query := db.Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var letters []DeadLetter
	if err := query.Find(&letters).Error; err != nil {
		return nil, TranslateError(err)
	}
	return letters, nil
}

// DeleteDeadLetter removes a dead letter once it has been dealt with.
// Deleting an unknown id returns ErrRecordNotFound.
func (p *Postgres) DeleteDeadLetter(ctx context.Context, id uint64) error {
	db, err := p.table(ctx)
	if err != nil {
		return err
	}
	res := db.Delete(&DeadLetter{}, id)
	if res.Error != nil {
		return TranslateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}
