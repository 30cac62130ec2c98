package queue

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/pkg/config"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Ping() error
	Close() error
}

// New connects the broker selected by cfg.Driver.
func New(cfg config.EventsConfig, log *zap.Logger) (MessageQueue, error) {
	switch cfg.Driver {
	case "", "none":
		return NewNoopQueue(log), nil
	case "nats":
		return NewNATSQueue(cfg.URL, log)
	case "rabbitmq":
		return NewRabbitMQQueue(cfg.URL, log)
	default:
		return nil, fmt.Errorf("unknown events driver %q", cfg.Driver)
	}
}
