package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type fakeChannel struct {
	mu        sync.Mutex
	consumers []chan amqp.Delivery
	bindings  []string
	published []string
	closed    bool
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	return amqp.Queue{Name: "amq.gen-test"}, nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bindings = append(c.bindings, exchange)
	return nil
}

func (c *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make(chan amqp.Delivery, 4)
	c.consumers = append(c.consumers, msgs)
	return msgs, nil
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, exchange)
	return nil
}

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		for _, msgs := range c.consumers {
			close(msgs)
		}
	}
	return nil
}

func (c *fakeChannel) deliver(body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, msgs := range c.consumers {
		msgs <- amqp.Delivery{Body: []byte(body)}
	}
}

func (c *fakeChannel) bindingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.bindings)
}

type fakeConnection struct {
	mu      sync.Mutex
	channel *fakeChannel
	notify  chan *amqp.Error
	closed  bool
}

func (c *fakeConnection) Channel() (amqpChannel, error) { return c.channel, nil }

func (c *fakeConnection) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = receiver
	return receiver
}

func (c *fakeConnection) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConnection) Close() error {
	c.shutdown(nil)
	return nil
}

// drop simulates the broker going away.
func (c *fakeConnection) drop() {
	c.shutdown(&amqp.Error{Code: amqp.ConnectionForced, Reason: "broker restarted"})
}

func (c *fakeConnection) shutdown(reason *amqp.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.channel.Close()
	if c.notify != nil {
		if reason != nil {
			c.notify <- reason
		}
		close(c.notify)
	}
}

type fakeBroker struct {
	mu    sync.Mutex
	conns []*fakeConnection
	fail  int
}

func (b *fakeBroker) dial(url string) (amqpConnection, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail > 0 {
		b.fail--
		return nil, errors.New("connection refused")
	}
	conn := &fakeConnection{channel: &fakeChannel{}}
	b.conns = append(b.conns, conn)
	return conn, nil
}

func (b *fakeBroker) conn(i int) *fakeConnection {
	b.mu.Lock()
	defer b.mu.Unlock()
	if i >= len(b.conns) {
		return nil
	}
	return b.conns[i]
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func receive(t *testing.T, got <-chan string) string {
	t.Helper()
	select {
	case body := <-got:
		return body
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return ""
	}
}

func TestRabbitMQQueue_SubscriptionSurvivesReconnect(t *testing.T) {
	// Arrange
	broker := &fakeBroker{}
	q, err := newRabbitMQQueue("amqp://test", broker.dial, time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer q.Close()

	got := make(chan string, 4)
	err = q.Subscribe("outlet-kpi.sessions", func(data []byte) error {
		got <- string(data)
		return nil
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	broker.conn(0).channel.deliver("before")
	if body := receive(t, got); body != "before" {
		t.Fatalf("expected before, got %q", body)
	}

	// Act
	broker.mu.Lock()
	broker.fail = 2
	broker.mu.Unlock()
	broker.conn(0).drop()
	waitFor(t, "the subscription to be restored", func() bool {
		c := broker.conn(1)
		return c != nil && c.channel.bindingCount() == 1
	})
	broker.conn(1).channel.deliver("after")

	// Assert
	if body := receive(t, got); body != "after" {
		t.Errorf("expected after, got %q", body)
	}
	if err := q.Ping(); err != nil {
		t.Errorf("expected healthy connection after reconnect, got %v", err)
	}
	if err := q.Publish("outlet-kpi.sessions", []byte("{}")); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if n := len(broker.conn(1).channel.published); n != 1 {
		t.Errorf("expected publish on the new channel, got %d", n)
	}
}

func TestRabbitMQQueue_CloseStopsReconnect(t *testing.T) {
	// Arrange
	broker := &fakeBroker{}
	q, err := newRabbitMQQueue("amqp://test", broker.dial, time.Millisecond, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}

	// Act
	if err := q.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	// Assert
	if c := broker.conn(1); c != nil {
		t.Error("expected no redial after Close")
	}
	if err := q.Ping(); err == nil {
		t.Error("expected Ping to fail after Close")
	}
	if err := q.Close(); err != nil {
		t.Errorf("expected second Close to be a no-op, got %v", err)
	}
}

func TestNewRabbitMQQueue_DialError(t *testing.T) {
	// Arrange
	broker := &fakeBroker{fail: 1}

	// Act
	_, err := newRabbitMQQueue("amqp://test", broker.dial, time.Millisecond, zap.NewNop())

	// Assert
	if err == nil {
		t.Fatal("expected dial error")
	}
}
