package consumer

import (
	"errors"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"trainer-workload-service/internal/workload"
)

// isTerminal reports whether retrying the message could ever succeed.
// Validation, capacity and not-found rejections are deterministic, so the
// message is nacked straight to the dead-letter queue instead of cycling
// through broker redelivery.
func isTerminal(err error) bool {
	var validationErr *workload.ValidationError
	var capacityErr *workload.CapacityExceededError
	var notFoundErr *workload.NotFoundError

	return errors.As(err, &validationErr) ||
		errors.As(err, &capacityErr) ||
		errors.As(err, &notFoundErr)
}

// transactionID extracts the producer's correlation id from the message
// headers, falling back to the AMQP correlation-id property and finally to a
// generated id so processing logs are always correlatable.
func transactionID(msg amqp.Delivery) string {
	if v, ok := msg.Headers[transactionIDHeader]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	if msg.CorrelationId != "" {
		return msg.CorrelationId
	}
	return uuid.NewString()
}
