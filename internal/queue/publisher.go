package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// DefaultBookingQueue is the durable queue booking events are routed to.
const DefaultBookingQueue = "booking.created"

// DefaultDialTimeout bounds the TCP connect and AMQP handshake of one dial.
const DefaultDialTimeout = 3 * time.Second

// Publisher sends booking events to RabbitMQ over the default exchange.
// The connection and channel are opened lazily and reopened after the
// broker drops them.  A publish never waits past its context, neither
// for the dial nor for another publish holding the connection.  Publisher
// is safe for concurrent use.
type Publisher struct {
	url         string
	queue       string
	log         logrus.FieldLogger
	dialTimeout time.Duration

	// sem is a one-slot lock guarding conn and ch.
	sem  chan struct{}
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewPublisher returns a Publisher for the given broker URL and queue.
// No connection is made until the first publish.
func NewPublisher(url, queue string, log logrus.FieldLogger) *Publisher {
	if queue == "" {
		queue = DefaultBookingQueue
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Publisher{
		url:         url,
		queue:       queue,
		log:         log,
		dialTimeout: DefaultDialTimeout,
		sem:         make(chan struct{}, 1),
	}
}

func (p *Publisher) lock(ctx context.Context) error {
	select {
	case p.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Publisher) unlock() { <-p.sem }

// PublishBookingCreated publishes ev as a persistent JSON message.  Errors
// are logged and returned so the caller can choose to ignore them.
func (p *Publisher) PublishBookingCreated(ctx context.Context, ev BookingCreatedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		p.log.WithError(err).Error("rabbitmq: marshal event failed")
		return err
	}

	if err := p.lock(ctx); err != nil {
		p.log.WithError(err).WithField("reference", ev.ReferenceID).Warn("rabbitmq: publisher busy")
		return err
	}
	defer p.unlock()

	ch, err := p.channelLocked(ctx)
	if err != nil {
		p.log.WithError(err).Error("rabbitmq: channel unavailable")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    ev.ReferenceID,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		p.log.WithError(err).WithField("reference", ev.ReferenceID).Error("rabbitmq: publish failed")
		p.resetLocked()
		return err
	}
	return nil
}

// Close releases the broker connection.
func (p *Publisher) Close() error {
	p.sem <- struct{}{}
	defer p.unlock()
	var errs []error
	if p.ch != nil {
		errs = append(errs, p.ch.Close())
	}
	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}
	p.ch, p.conn = nil, nil
	return errors.Join(errs...)
}

func (p *Publisher) channelLocked(ctx context.Context) (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed() {
		return p.ch, nil
	}
	p.resetLocked()

	timeout := p.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Locale: "en_US",
		Dial:   amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *Publisher) resetLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}
