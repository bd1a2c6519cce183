package rabbit

import (
	"context"
	"errors"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

var (
	ErrConnectionFailed     = errors.New("connection failed")
	ErrConnectionLost       = errors.New("connection lost")
	ErrChannelClosed        = errors.New("channel closed")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrAccessDenied         = errors.New("access denied")
	ErrNotFound             = errors.New("exchange or queue not found")
	ErrResourceLocked       = errors.New("resource locked")
	ErrPreconditionFailed   = errors.New("precondition failed")
	ErrMessageTooLarge      = errors.New("message too large")
	ErrNoRoute              = errors.New("no route")
	ErrResourceError        = errors.New("server resource error")
	ErrServerError          = errors.New("server error")
	ErrInvalidConfig        = errors.New("invalid config")

	// ErrPublishNacked is returned when the broker refuses a published message
	ErrPublishNacked = errors.New("publish not acknowledged by broker")
)

// amqpErrors maps AMQP reply codes onto the package sentinels.
var amqpErrors = map[int]error{
	amqp.ContentTooLarge:    ErrMessageTooLarge,
	amqp.NoRoute:            ErrNoRoute,
	amqp.NoConsumers:        ErrNoRoute,
	amqp.ConnectionForced:   ErrConnectionLost,
	amqp.InvalidPath:        ErrInvalidConfig,
	amqp.AccessRefused:      ErrAccessDenied,
	amqp.NotAllowed:         ErrAccessDenied,
	amqp.NotFound:           ErrNotFound,
	amqp.ResourceLocked:     ErrResourceLocked,
	amqp.PreconditionFailed: ErrPreconditionFailed,
	amqp.ChannelError:       ErrChannelClosed,
	amqp.ResourceError:      ErrResourceError,
	amqp.InternalError:      ErrServerError,
	amqp.FrameError:         ErrServerError,
	amqp.UnexpectedFrame:    ErrServerError,
}

// TranslateError converts AMQP errors into the package sentinels, keeping
// the original error in the chain. Errors it does not recognise are
// returned unchanged.
func (rb *RabbitClient) TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, amqp.ErrCredentials) || errors.Is(err, amqp.ErrSASL) {
		return errors.Join(ErrAuthenticationFailed, err)
	}

	var amqpErr *amqp.Error
	if errors.As(err, &amqpErr) {
		if sentinel, ok := amqpErrors[amqpErr.Code]; ok {
			return errors.Join(sentinel, err)
		}
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"), strings.Contains(msg, "no such host"):
		return errors.Join(ErrConnectionFailed, err)
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "broken pipe"), strings.Contains(msg, "eof"):
		return errors.Join(ErrConnectionLost, err)
	default:
		return err
	}
}

// IsRetryableError reports whether the operation may succeed when repeated.
func (rb *RabbitClient) IsRetryableError(err error) bool {
	switch {
	case errors.Is(err, ErrConnectionFailed),
		errors.Is(err, ErrConnectionLost),
		errors.Is(err, ErrChannelClosed),
		errors.Is(err, ErrResourceLocked),
		errors.Is(err, ErrResourceError),
		errors.Is(err, ErrPublishNacked):
		return true
	default:
		return false
	}
}

// IsPermanentError reports whether retrying is pointless.
func (rb *RabbitClient) IsPermanentError(err error) bool {
	switch {
	case errors.Is(err, ErrAuthenticationFailed),
		errors.Is(err, ErrAccessDenied),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrPreconditionFailed),
		errors.Is(err, ErrMessageTooLarge),
		errors.Is(err, ErrInvalidConfig):
		return true
	default:
		return false
	}
}
