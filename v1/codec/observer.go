package codec

import (
	"time"

	"github.com/Aleph-Alpha/pbcodec/v1/observability"
)

func (c *Codec) observeOperation(operation string, duration time.Duration, err error, size int64) {
	if c.observer == nil {
		return
	}
	c.observer.ObserveOperation(observability.OperationContext{
		Component:   "codec",
		Operation:   operation,
		Resource:    c.cfg.ClassName,
		SubResource: c.cfg.Scope,
		Duration:    duration,
		Error:       err,
		Size:        size,
	})
}
