package kafka

import (
	"context"
	"errors"
	"strings"

	"github.com/segmentio/kafka-go"
)

var (
	ErrConnectionFailed             = errors.New("connection failed")
	ErrConnectionLost               = errors.New("connection lost")
	ErrBrokerNotAvailable           = errors.New("broker not available")
	ErrAuthenticationFailed         = errors.New("authentication failed")
	ErrAuthorizationFailed          = errors.New("authorization failed")
	ErrTopicNotFound                = errors.New("topic not found")
	ErrGroupCoordinatorNotAvailable = errors.New("group coordinator not available")
	ErrRebalanceInProgress          = errors.New("rebalance in progress")
	ErrOffsetOutOfRange             = errors.New("offset out of range")
	ErrMessageTooLarge              = errors.New("message too large")
	ErrInvalidMessage               = errors.New("invalid message")
	ErrLeaderNotAvailable           = errors.New("leader not available")
	ErrNotLeaderForPartition        = errors.New("not leader for partition")
	ErrRequestTimedOut              = errors.New("request timed out")
	ErrNetworkError                 = errors.New("network error")
	ErrInvalidConfig                = errors.New("invalid config")

	// ErrWriterNotInitialized is returned when publishing on a consumer or a closed client
	ErrWriterNotInitialized = errors.New("writer not initialized")

	// ErrReaderNotInitialized is returned when consuming on a producer or a closed client
	ErrReaderNotInitialized = errors.New("reader not initialized")
)

// kafkaErrors maps broker error codes onto the package sentinels.
var kafkaErrors = map[kafka.Error]error{
	kafka.LeaderNotAvailable:           ErrLeaderNotAvailable,
	kafka.NotLeaderForPartition:        ErrNotLeaderForPartition,
	kafka.RequestTimedOut:              ErrRequestTimedOut,
	kafka.BrokerNotAvailable:           ErrBrokerNotAvailable,
	kafka.ReplicaNotAvailable:          ErrBrokerNotAvailable,
	kafka.NotEnoughReplicas:            ErrBrokerNotAvailable,
	kafka.NotEnoughReplicasAfterAppend: ErrBrokerNotAvailable,
	kafka.MessageSizeTooLarge:          ErrMessageTooLarge,
	kafka.RecordListTooLarge:           ErrMessageTooLarge,
	kafka.InvalidMessage:               ErrInvalidMessage,
	kafka.OffsetOutOfRange:             ErrOffsetOutOfRange,
	kafka.UnknownTopicOrPartition:      ErrTopicNotFound,
	kafka.InvalidTopic:                 ErrTopicNotFound,
	kafka.GroupLoadInProgress:          ErrGroupCoordinatorNotAvailable,
	kafka.GroupCoordinatorNotAvailable: ErrGroupCoordinatorNotAvailable,
	kafka.NotCoordinatorForGroup:       ErrGroupCoordinatorNotAvailable,
	kafka.RebalanceInProgress:          ErrRebalanceInProgress,
	kafka.SASLAuthenticationFailed:     ErrAuthenticationFailed,
	kafka.UnsupportedSASLMechanism:     ErrAuthenticationFailed,
	kafka.IllegalSASLState:             ErrAuthenticationFailed,
	kafka.TopicAuthorizationFailed:     ErrAuthorizationFailed,
	kafka.GroupAuthorizationFailed:     ErrAuthorizationFailed,
	kafka.ClusterAuthorizationFailed:   ErrAuthorizationFailed,
	kafka.NetworkException:             ErrNetworkError,
	kafka.InvalidConfiguration:         ErrInvalidConfig,
}

// TranslateError converts Kafka-specific errors into the package sentinels,
// keeping the original error in the chain. Errors it does not recognise
// are returned unchanged.
func (k *KafkaClient) TranslateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var kerr kafka.Error
	if errors.As(err, &kerr) {
		if sentinel, ok := kafkaErrors[kerr]; ok {
			return errors.Join(sentinel, err)
		}
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"):
		return errors.Join(ErrConnectionFailed, err)
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "broken pipe"):
		return errors.Join(ErrConnectionLost, err)
	case strings.Contains(msg, "i/o timeout"):
		return errors.Join(ErrRequestTimedOut, err)
	case strings.Contains(msg, "dial"), strings.Contains(msg, "no such host"):
		return errors.Join(ErrNetworkError, err)
	default:
		return err
	}
}

// IsRetryableError reports whether the operation may succeed when repeated.
func (k *KafkaClient) IsRetryableError(err error) bool {
	switch {
	case errors.Is(err, ErrConnectionFailed),
		errors.Is(err, ErrConnectionLost),
		errors.Is(err, ErrBrokerNotAvailable),
		errors.Is(err, ErrLeaderNotAvailable),
		errors.Is(err, ErrNotLeaderForPartition),
		errors.Is(err, ErrRequestTimedOut),
		errors.Is(err, ErrNetworkError),
		errors.Is(err, ErrGroupCoordinatorNotAvailable),
		errors.Is(err, ErrRebalanceInProgress):
		return true
	default:
		return false
	}
}

// IsPermanentError reports whether retrying is pointless.
func (k *KafkaClient) IsPermanentError(err error) bool {
	switch {
	case k.IsAuthenticationError(err),
		errors.Is(err, ErrTopicNotFound),
		errors.Is(err, ErrMessageTooLarge),
		errors.Is(err, ErrInvalidMessage),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, context.Canceled):
		return true
	default:
		return false
	}
}

// IsAuthenticationError reports whether err is an authentication or
// authorization failure.
func (k *KafkaClient) IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrAuthenticationFailed) || errors.Is(err, ErrAuthorizationFailed)
}
