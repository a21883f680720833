package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/pkordes/dockgate/internal/domain"
	"github.com/pkordes/dockgate/internal/metrics"
)

var errGatewayRefused = errors.New("gateway refused the message")

// Dispatcher composes notices and delivers them on background goroutines.
type Dispatcher struct {
	gateway Gateway
	timeout time.Duration
	sem     *semaphore.Weighted
	wg      sync.WaitGroup
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewDispatcher returns a Dispatcher allowing at most concurrency deliveries
// in flight, each bounded by timeout.
func NewDispatcher(gw Gateway, concurrency int64, timeout time.Duration, m *metrics.Metrics, logger *slog.Logger) *Dispatcher {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		gateway: gw,
		timeout: timeout,
		sem:     semaphore.NewWeighted(concurrency),
		metrics: m,
		logger:  logger,
	}
}

// Notify delivers n asynchronously and returns immediately. Deliveries run on
// their own context so a finished HTTP request cannot cancel them.
func (d *Dispatcher) Notify(n Notice) {
	text, ok := Compose(n)
	if !ok {
		return
	}
	dest := n.Visit.Phone
	if dest == "" {
		d.logger.Debug("notification skipped, no destination", "event", n.Event, "visit_id", n.Visit.ID)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(n.Event, n.Visit.ID.String(), dest, text)
	}()
}

func (d *Dispatcher) deliver(ev domain.Event, visitID, dest, text string) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.fail(ev, visitID, &domain.NotificationError{Event: ev, Destination: dest, Err: err})
		return
	}
	defer d.sem.Release(1)

	d.metrics.NotificationStarted()
	defer d.metrics.NotificationDone()

	sent, err := d.gateway.Send(ctx, dest, text)
	if err == nil && !sent {
		err = errGatewayRefused
	}
	if err != nil {
		d.fail(ev, visitID, &domain.NotificationError{Event: ev, Destination: dest, Err: err})
		return
	}
	d.metrics.Notification(string(ev), metrics.ResultOK)
	d.logger.Debug("notification sent", "event", ev, "visit_id", visitID)
}

func (d *Dispatcher) fail(ev domain.Event, visitID string, err *domain.NotificationError) {
	d.metrics.Notification(string(ev), metrics.ResultError)
	d.logger.Warn("notification failed", "event", ev, "visit_id", visitID, "error", err)
}

// Wait blocks until every queued delivery has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
