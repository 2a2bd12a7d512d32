package auditlog

import (
	"context"
	"log/slog"
	"sync"

	"github.com/asso7/concert_ledger/internal/core/domain"
)

// Worker drains a buffered channel of events into a Store on one goroutine.
type Worker struct {
	eventCh chan domain.AuditEvent
	store   Store
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
}

func NewWorker(store Store, bufferSize int, logger *slog.Logger) *Worker {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		eventCh: make(chan domain.AuditEvent, bufferSize),
		store:   store,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
	}
}

func (w *Worker) Start() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.ctx.Done():
				w.logger.Info("Draining audit events before shutdown", slog.Int("remaining_events", len(w.eventCh)))
				for len(w.eventCh) > 0 {
					w.save(context.Background(), <-w.eventCh)
				}
				return
			case event := <-w.eventCh:
				w.save(w.ctx, event)
			}
		}
	}()
}

func (w *Worker) save(ctx context.Context, event domain.AuditEvent) {
	if err := w.store.SaveAuditEvent(ctx, event); err != nil {
		w.logger.Error("Failed to save audit event", slog.String("error", err.Error()), slog.String("event_type", string(event.Type)))
	}
}

// Log enqueues the event, dropping it with a warning when the buffer is full.
func (w *Worker) Log(event domain.AuditEvent) {
	select {
	case w.eventCh <- event:
	default:
		w.logger.Warn("Audit channel full, dropping event", slog.String("event_type", string(event.Type)))
	}
}

// Shutdown stops the worker after persisting everything still buffered.
func (w *Worker) Shutdown() {
	w.cancel()
	w.wg.Wait()
}

var _ Sink = (*Worker)(nil)
