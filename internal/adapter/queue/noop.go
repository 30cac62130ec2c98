package queue

import "go.uber.org/zap"

// NoopQueue drops every message. Used when no broker is configured.
type NoopQueue struct {
	log *zap.Logger
}

func NewNoopQueue(log *zap.Logger) MessageQueue {
	log.Info("Events disabled, using no-op queue")
	return &NoopQueue{log: log}
}

func (q *NoopQueue) Publish(subject string, data []byte) error {
	q.log.Debug("Dropping event", zap.String("subject", subject), zap.Int("bytes", len(data)))
	return nil
}

func (q *NoopQueue) Subscribe(subject string, handler func(data []byte) error) error {
	return nil
}

func (q *NoopQueue) Ping() error  { return nil }
func (q *NoopQueue) Close() error { return nil }
