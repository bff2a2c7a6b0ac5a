package tapclient

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/iliyamo/nfc-tracker/internal/model"
)

// Diagnostics ships progress entries to the backend's client-log sink.
// Each Send runs on its own goroutine; failures are logged locally at
// debug level and otherwise dropped. A nil *Diagnostics discards
// everything.
type Diagnostics struct {
	client    *Client
	sourceURL string
	timeout   time.Duration
	log       *zap.Logger
	wg        sync.WaitGroup
}

// NewDiagnostics returns a sink posting through client. sourceURL is
// reported as the page the entries came from.
func NewDiagnostics(client *Client, sourceURL string, log *zap.Logger) *Diagnostics {
	if log == nil {
		log = zap.NewNop()
	}
	return &Diagnostics{client: client, sourceURL: sourceURL, timeout: 10 * time.Second, log: log}
}

// Send queues one entry and returns immediately. details, when non-nil,
// is sent as a JSON string.
func (d *Diagnostics) Send(level, msg string, details any) {
	if d == nil || d.client == nil {
		return
	}
	entry := model.ClientLogEntry{
		Level:     level,
		Message:   msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		SourceURL: d.sourceURL,
	}
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			s := string(b)
			entry.Details = &s
		}
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()
		if err := d.client.SendLog(ctx, entry); err != nil {
			d.log.Debug("client log not delivered", zap.Error(err), zap.String("message", msg))
		}
	}()
}

// Wait blocks until every queued entry has been attempted. The tap flow
// never calls it; command line tools and tests do before exiting.
func (d *Diagnostics) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
