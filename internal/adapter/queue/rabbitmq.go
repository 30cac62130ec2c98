package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const rabbitReconnectDelay = 5 * time.Second

var errQueueClosed = errors.New("rabbitmq: queue closed")

// amqpChannel is the part of *amqp.Channel the queue uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// amqpConnection is the part of *amqp.Connection the queue uses.
type amqpConnection interface {
	Channel() (amqpChannel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	IsClosed() bool
	Close() error
}

type dialFunc func(url string) (amqpConnection, error)

type amqpConn struct{ *amqp.Connection }

func (c amqpConn) Channel() (amqpChannel, error) {
	ch, err := c.Connection.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func dialAMQP(url string) (amqpConnection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return amqpConn{conn}, nil
}

type subscription struct {
	subject string
	handler func(data []byte) error
}

// RabbitMQQueue publishes to fanout exchanges named after the subject. Each
// subscription gets an exclusive auto-delete queue bound to the exchange and
// is declared again after a reconnect.
type RabbitMQQueue struct {
	url        string
	dial       dialFunc
	retryDelay time.Duration
	log        *zap.Logger

	mu      sync.RWMutex
	conn    amqpConnection
	channel amqpChannel
	subs    []subscription
	closed  bool
	done    chan struct{}
}

func NewRabbitMQQueue(url string, log *zap.Logger) (MessageQueue, error) {
	return newRabbitMQQueue(url, dialAMQP, rabbitReconnectDelay, log)
}

func newRabbitMQQueue(url string, dial dialFunc, retryDelay time.Duration, log *zap.Logger) (*RabbitMQQueue, error) {
	q := &RabbitMQQueue{
		url:        url,
		dial:       dial,
		retryDelay: retryDelay,
		log:        log,
		done:       make(chan struct{}),
	}
	notify, err := q.connect()
	if err != nil {
		return nil, err
	}
	go q.monitorConnection(notify)

	log.Info("Successfully connected to RabbitMQ")
	return q, nil
}

// connect dials, opens a channel and restores every recorded subscription.
func (q *RabbitMQQueue) connect() (chan *amqp.Error, error) {
	conn, err := q.dial(q.url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}
	notify := conn.NotifyClose(make(chan *amqp.Error, 1))

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		conn.Close()
		return nil, errQueueClosed
	}
	for _, sub := range q.subs {
		if err := consume(ch, sub, q.log); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to restore subscription to %s: %w", sub.subject, err)
		}
	}
	q.conn, q.channel = conn, ch
	return notify, nil
}

func (q *RabbitMQQueue) Publish(subject string, data []byte) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.channel == nil {
		return fmt.Errorf("rabbitmq: channel not available")
	}
	if err := q.channel.ExchangeDeclare(subject, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: declare exchange: %w", err)
	}
	err := q.channel.PublishWithContext(context.Background(), subject, "", false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        data,
		Timestamp:   time.Now(),
	})
	if err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

func (q *RabbitMQQueue) Subscribe(subject string, handler func(data []byte) error) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.channel == nil {
		return fmt.Errorf("rabbitmq: channel not available")
	}
	sub := subscription{subject: subject, handler: handler}
	if err := consume(q.channel, sub, q.log); err != nil {
		return err
	}
	q.subs = append(q.subs, sub)

	q.log.Info("Subscribed to RabbitMQ exchange", zap.String("exchange", subject))
	return nil
}

func consume(ch amqpChannel, sub subscription, log *zap.Logger) error {
	if err := ch.ExchangeDeclare(sub.subject, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: declare exchange: %w", err)
	}
	queue, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: declare queue: %w", err)
	}
	if err := ch.QueueBind(queue.Name, "", sub.subject, false, nil); err != nil {
		return fmt.Errorf("rabbitmq: bind queue: %w", err)
	}
	msgs, err := ch.Consume(queue.Name, "", true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume: %w", err)
	}

	// msgs is closed with the channel; connect starts a new consumer.
	go func() {
		for msg := range msgs {
			if err := sub.handler(msg.Body); err != nil {
				log.Error("Error processing RabbitMQ message",
					zap.String("exchange", sub.subject),
					zap.Error(err),
				)
			}
		}
	}()
	return nil
}

func (q *RabbitMQQueue) Ping() error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.conn == nil || q.conn.IsClosed() {
		return fmt.Errorf("rabbitmq: connection closed")
	}
	return nil
}

func (q *RabbitMQQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.done)
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

func (q *RabbitMQQueue) monitorConnection(notify chan *amqp.Error) {
	for notify != nil {
		reason, ok := <-notify
		if !ok || reason == nil {
			return
		}
		q.log.Warn("RabbitMQ connection lost, reconnecting...", zap.String("reason", reason.Reason))
		notify = q.reconnect()
	}
}

// reconnect retries until connected or closed; nil means closed.
func (q *RabbitMQQueue) reconnect() chan *amqp.Error {
	for {
		select {
		case <-q.done:
			return nil
		case <-time.After(q.retryDelay):
		}
		notify, err := q.connect()
		if errors.Is(err, errQueueClosed) {
			return nil
		}
		if err != nil {
			q.log.Error("Failed to reconnect to RabbitMQ", zap.Error(err))
			continue
		}
		q.log.Info("Successfully reconnected to RabbitMQ")
		return notify
	}
}
