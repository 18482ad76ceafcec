package logger

import (
	"context"

	"github.com/sirupsen/logrus"
)

func New() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	log.SetLevel(logrus.InfoLevel)
	return log
}

type transactionIDKey struct{}

// WithTransactionID binds the message's correlation id into the context so
// every log line emitted while processing it can be correlated with the
// producer side.
func WithTransactionID(ctx context.Context, transactionID string) context.Context {
	return context.WithValue(ctx, transactionIDKey{}, transactionID)
}

// TransactionID returns the correlation id bound into ctx, if any.
func TransactionID(ctx context.Context) string {
	id, _ := ctx.Value(transactionIDKey{}).(string)
	return id
}

// FromContext returns a log entry carrying the context's transaction id.
func FromContext(ctx context.Context, log *logrus.Logger) *logrus.Entry {
	if id := TransactionID(ctx); id != "" {
		return log.WithField("transaction_id", id)
	}
	return logrus.NewEntry(log)
}
