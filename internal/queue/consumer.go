package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/config"
	"github.com/iliyamo/nfc-tracker/internal/metrics"
)

var errDeliveriesClosed = errors.New("deliveries channel closed")

// StartTapConsumer consumes cfg.TapQueue and appends one line per tap to
// cfg.AuditLogPath. Broker outages are retried with exponential backoff;
// it only returns once ctx is cancelled.
func StartTapConsumer(ctx context.Context, cfg config.QueueConfig, log *zap.Logger) error {
	audit := NewAuditLog(cfg.AuditLogPath)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = time.Second
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0 // retry until ctx is done

	attempt := 0
	operation := func() error {
		conn, err := amqp.Dial(cfg.URL)
		if err != nil {
			return fmt.Errorf("dial broker: %w", err)
		}
		defer func() { _ = conn.Close() }()

		// a consume loop that ran and then lost the broker starts over with short waits
		b.Reset()
		attempt = 0

		err = consume(ctx, conn, cfg.TapQueue, audit, log)
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		attempt++
		log.Warn("tap-consumer: broker unavailable, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("next_retry_in", next),
		)
	}

	err := backoff.RetryNotify(operation, backoff.WithContext(b, ctx), notify)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Info("tap-consumer: stopped")
		return nil
	}
	return err
}

func consume(ctx context.Context, conn *amqp.Connection, queueName string, audit *AuditLog, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("tap-consumer: set QoS failed", zap.Error(err))
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	log.Info("tap-consumer: consuming", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errDeliveriesClosed
			}
			if err := audit.HandleMessage(d.Body); err != nil {
				log.Error("tap-consumer: handle message failed", zap.Error(err), zap.String("message_id", d.MessageId))
				metrics.AuditRecordsTotal.WithLabelValues(metrics.OutcomeError).Inc()
				_ = d.Nack(false, false) // drop rather than requeue into a tight loop
				continue
			}
			metrics.AuditRecordsTotal.WithLabelValues(metrics.OutcomeOK).Inc()
			_ = d.Ack(false)
		}
	}
}

// AuditLog appends tap records to a file, creating its directory on
// first write.
type AuditLog struct {
	path string
	mu   sync.Mutex
}

func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

// HandleMessage decodes a tap.recorded body and appends its audit line.
func (a *AuditLog) HandleMessage(body []byte) error {
	var ev TapRecordedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.TagID == "" {
		return errors.New("event without tag_id")
	}
	return a.Append(ev)
}

func (a *AuditLog) Append(ev TapRecordedEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if dir := filepath.Dir(a.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// FormatAuditLine renders ev as a single newline-terminated line.
func FormatAuditLine(ev TapRecordedEvent) string {
	location := "none"
	if ev.LocationData != nil && *ev.LocationData != "" {
		location = oneLine(*ev.LocationData)
	}
	return fmt.Sprintf("[%s] Tap recorded | tap_id=%d | tag=%q | empresa_id=%d | ip=%s | ua=%q | location=%s\n",
		ev.RecordedAt, ev.TapID, ev.TagID, ev.TenantID, orDash(ev.IPAddress), oneLine(ev.UserAgent), location)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
