// Package service holds the outbound integrations of the API process.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/config"
	"github.com/iliyamo/nfc-tracker/internal/metrics"
	"github.com/iliyamo/nfc-tracker/internal/queue"
)

var (
	// ErrBufferFull is returned when the publisher goroutine is behind
	// and the event was dropped.
	ErrBufferFull = errors.New("publisher buffer full")
	// ErrPublisherClosed is returned after Close.
	ErrPublisherClosed = errors.New("publisher closed")
)

const defaultDialTimeout = 30 * time.Second

// Publisher sends tap.recorded events to RabbitMQ. Events are queued in
// memory and delivered by one background goroutine, so a slow or dead
// broker never holds up the request that recorded the tap. The connection
// is opened lazily and reused; a circuit breaker stops dialing a broker
// that keeps failing.
type Publisher struct {
	cfg     config.QueueConfig
	log     *zap.Logger
	breaker *gobreaker.CircuitBreaker[struct{}]

	// guards events against sends after Close
	stateMu sync.RWMutex
	closed  bool
	events  chan queue.TapRecordedEvent
	done    chan struct{}

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel

	// send delivers one message; replaced in tests.
	send func(ctx context.Context, msg amqp.Publishing) error
}

// NewPublisher builds a publisher and, when publishing is enabled, starts
// its delivery goroutine. Close stops it.
func NewPublisher(cfg config.QueueConfig, log *zap.Logger) *Publisher {
	if cfg.BufferSize < 1 {
		cfg.BufferSize = 1
	}
	p := &Publisher{
		cfg:    cfg,
		log:    log,
		events: make(chan queue.TapRecordedEvent, cfg.BufferSize),
		done:   make(chan struct{}),
	}
	p.send = p.sendAMQP
	p.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "tap-publisher",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.PublisherBreakerState.Set(float64(to))
			log.Warn("publisher: breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	if cfg.Enabled {
		go p.loop()
	} else {
		close(p.done)
	}
	return p
}

// PublishTapRecorded queues ev for delivery and returns at once. It
// reports ErrBufferFull when the queue is full and ErrPublisherClosed
// after Close; delivery failures are only logged.
func (p *Publisher) PublishTapRecorded(_ context.Context, ev queue.TapRecordedEvent) error {
	if !p.cfg.Enabled {
		return nil
	}
	p.stateMu.RLock()
	defer p.stateMu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	select {
	case p.events <- ev:
		return nil
	default:
		metrics.EventsPublishedTotal.WithLabelValues(metrics.OutcomeDropped).Inc()
		p.log.Warn("publisher: buffer full, tap event dropped",
			zap.String("tag_id", ev.TagID),
			zap.Uint64("tap_id", ev.TapID),
		)
		return ErrBufferFull
	}
}

func (p *Publisher) loop() {
	defer close(p.done)
	for ev := range p.events {
		_ = p.deliver(context.Background(), ev)
	}
}

// deliver publishes ev as a persistent JSON message through the breaker.
func (p *Publisher) deliver(ctx context.Context, ev queue.TapRecordedEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal tap event: %w", err)
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         p.cfg.TapQueue,
		Body:         body,
	}

	_, err = p.breaker.Execute(func() (struct{}, error) {
		sendCtx := ctx
		if p.cfg.PublishTimeout > 0 {
			var cancel context.CancelFunc
			sendCtx, cancel = context.WithTimeout(ctx, p.cfg.PublishTimeout)
			defer cancel()
		}
		return struct{}{}, p.send(sendCtx, msg)
	})
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(metrics.OutcomeError).Inc()
		p.log.Warn("publisher: tap event not published",
			zap.Error(err),
			zap.String("tag_id", ev.TagID),
			zap.Uint64("tap_id", ev.TapID),
		)
		return err
	}
	metrics.EventsPublishedTotal.WithLabelValues(metrics.OutcomeOK).Inc()
	return nil
}

func (p *Publisher) sendAMQP(ctx context.Context, msg amqp.Publishing) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}
	err := p.ch.PublishWithContext(ctx, "", p.cfg.TapQueue, false, false, msg)
	if err != nil {
		// force a fresh dial on the next attempt
		p.closeLocked()
		return fmt.Errorf("publish: %w", err)
	}
	return nil
}

func (p *Publisher) dialTimeout() time.Duration {
	if p.cfg.PublishTimeout > 0 {
		return p.cfg.PublishTimeout
	}
	return defaultDialTimeout
}

func (p *Publisher) ensureChannel() error {
	if p.ch != nil && !p.ch.IsClosed() {
		return nil
	}
	p.closeLocked()

	// amqp.Dial waits up to 30s for the handshake regardless of ctx.
	conn, err := amqp.DialConfig(p.cfg.URL, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(p.dialTimeout()),
	})
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("channel open: %w", err)
	}
	if _, err := ch.QueueDeclare(p.cfg.TapQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return nil
}

func (p *Publisher) closeLocked() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Close stops accepting events, waits for the queued ones to be attempted
// and releases the broker connection. It is safe to call more than once.
func (p *Publisher) Close() error {
	p.stateMu.Lock()
	if !p.closed {
		p.closed = true
		if p.cfg.Enabled {
			close(p.events)
		}
	}
	p.stateMu.Unlock()
	<-p.done

	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeLocked()
	return nil
}
