package postgres

import (
	"time"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

func (p *Postgres) observeOperation(operation string, duration time.Duration, err error, size int64) {
	if p.observer != nil {
		p.observer.ObserveOperation(observability.OperationContext{
			Component:   "postgres",
			Operation:   operation,
			Resource:    p.cfg.Connection.DbName,
			SubResource: p.cfg.DeadLetterTable,
			Duration:    duration,
			Error:       err,
			Size:        size,
		})
	}
}
