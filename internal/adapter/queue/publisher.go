package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/seu-repo/outlet-kpi/internal/domain"
	"github.com/seu-repo/outlet-kpi/internal/ports"
)

// EventPublisher sends session events as JSON on one subject.
type EventPublisher struct {
	mq      MessageQueue
	subject string
	log     *zap.Logger
}

func NewEventPublisher(mq MessageQueue, subject string, log *zap.Logger) ports.EventPublisher {
	return &EventPublisher{mq: mq, subject: subject, log: log}
}

func (p *EventPublisher) PublishSessionComputed(ctx context.Context, ev domain.SessionEvent) error {
	if ev.Type == "" {
		ev.Type = domain.EventSessionComputed
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}
	if err := p.mq.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish session event: %w", err)
	}
	p.log.Debug("Published session event",
		zap.String("subject", p.subject),
		zap.String("session_id", ev.SessionID),
	)
	return nil
}

// SubscribeSessionEvents decodes session events from subject and hands them
// to fn. Malformed payloads are logged and dropped.
func SubscribeSessionEvents(mq MessageQueue, subject string, fn func(domain.SessionEvent) error, log *zap.Logger) error {
	return mq.Subscribe(subject, func(data []byte) error {
		var ev domain.SessionEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			log.Warn("Dropping malformed session event", zap.String("subject", subject), zap.Error(err))
			return nil
		}
		return fn(ev)
	})
}
