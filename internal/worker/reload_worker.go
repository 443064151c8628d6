// Package worker triggers dataset reloads from broker messages and on a
// fixed interval.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wastedash/internal/aggregate"
	"wastedash/internal/amqp"
	"wastedash/internal/log"
)

// Reloader rebuilds the current snapshot.
type Reloader interface {
	Reload(ctx context.Context) (*aggregate.Snapshot, error)
}

// Subscriber delivers dataset.updated messages until ctx is done.
type Subscriber interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// ReloadWorker reloads the dataset in response to import notifications
// and, when an interval is set, periodically as a fallback for lost
// messages.
type ReloadWorker struct {
	reloader Reloader
	interval time.Duration
	logger   *log.Logger
}

func NewReloadWorker(reloader Reloader, interval time.Duration, logger *log.Logger) *ReloadWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReloadWorker{
		reloader: reloader,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleDatasetUpdated reloads the dataset for one import notification.
func (w *ReloadWorker) HandleDatasetUpdated(ctx context.Context, msg *amqp.DatasetUpdatedMessage) error {
	w.logger.InfoContext(ctx, "Processing dataset update",
		log.FieldMessageType, amqp.MessageTypeDatasetUpdated,
		log.FieldSource, msg.Source,
		log.FieldRows, msg.Rows,
		"import_id", msg.ImportID)

	snap, err := w.reloader.Reload(ctx)
	if err != nil {
		return fmt.Errorf("reload after update from %s: %w", msg.Source, err)
	}
	if msg.Rows > 0 && snap.Len()+snap.Rejected.Total() != msg.Rows {
		w.logger.WarnContext(ctx, "Reloaded row count differs from import",
			"announced", msg.Rows,
			log.FieldKept, snap.Len(),
			log.FieldRejected, snap.Rejected.Total())
	}
	return nil
}

// RunConsumer processes messages from sub until ctx is done.
func (w *ReloadWorker) RunConsumer(ctx context.Context, sub Subscriber) error {
	err := sub.Consume(ctx, w.HandleDatasetUpdated)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// RunPeriodic reloads every interval until ctx is done. It returns
// immediately when no interval is configured.
func (w *ReloadWorker) RunPeriodic(ctx context.Context) error {
	if w.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("Periodic reload enabled", "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.reloader.Reload(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic reload failed", log.FieldError, err, log.FieldOperation, log.OpReload)
			}
		}
	}
}
