package worker

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kmutua/feedback-gateway/internal/dispatcher"
	"github.com/kmutua/feedback-gateway/internal/kafka"
	"github.com/kmutua/feedback-gateway/internal/metrics"
	"github.com/kmutua/feedback-gateway/internal/model"
	"github.com/kmutua/feedback-gateway/internal/repository"
)

// Consumer is the slice of the Kafka consumer the sender needs; tests
// feed messages through a fake.
type Consumer interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Commit(ctx context.Context, m kafka.Message) error
}

// GreetingSender:
// - fetches greeting envelopes from Kafka,
// - submits the SMS through the provider dispatcher,
// - batches notification status updates into periodic transactions.
//
// Failures never travel back to the webhook that queued the greeting;
// they end up as status=failed rows and log lines.
type GreetingSender struct {
	// Dependencies
	DB            *sqlx.DB
	Consumer      Consumer
	Notifications repository.NotificationsRepository
	Dispatch      *dispatcher.Dispatcher

	// Behavior
	Workers   int           // number of goroutines processing messages
	BatchSize int           // max buffered updates per flush (items)
	BatchWait time.Duration // max time to wait before flush
}

// NewGreetingSender builds a worker with sane defaults.
func NewGreetingSender(
	db *sqlx.DB,
	consumer Consumer,
	notificationsRepo repository.NotificationsRepository,
	dispatch *dispatcher.Dispatcher,
) *GreetingSender {
	return &GreetingSender{
		DB:            db,
		Consumer:      consumer,
		Notifications: notificationsRepo,
		Dispatch:      dispatch,
		Workers:       16,
		BatchSize:     100,
		BatchWait:     300 * time.Millisecond,
	}
}

// Run starts the worker and blocks until ctx is cancelled.
func (w *GreetingSender) Run(ctx context.Context) error {
	if w.Workers <= 0 {
		w.Workers = 16
	}
	if w.BatchSize <= 0 {
		w.BatchSize = 100
	}
	if w.BatchWait <= 0 {
		w.BatchWait = 300 * time.Millisecond
	}

	// Channel for worker results → batch writer
	updates := make(chan updateItem, w.BatchSize*2)
	defer close(updates)

	// Start batch writer
	go w.runBatchWriter(ctx, updates)

	// Fetch loop → fan-out to processors
	msgCh := make(chan kafka.Message, w.Workers*2)

	// Fetcher goroutine
	go func() {
		defer close(msgCh)
		for {
			select {
			case <-ctx.Done():
				return
			default:
				m, err := w.Consumer.Fetch(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Printf("[greeting] kafka fetch err: %v", err)
					time.Sleep(200 * time.Millisecond)
					continue
				}
				msgCh <- m
			}
		}
	}()

	// Start processors
	for i := 0; i < w.Workers; i++ {
		go w.runProcessor(ctx, msgCh, updates)
	}

	// Block until shutdown
	<-ctx.Done()
	return nil
}

type updateItem struct {
	id     string
	status model.NotificationStatus // sent | failed
}

func (w *GreetingSender) runProcessor(ctx context.Context, in <-chan kafka.Message, out chan<- updateItem) {
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-in:
			if !ok {
				return
			}
			w.processOne(ctx, m, out)
		}
	}
}

func (w *GreetingSender) processOne(ctx context.Context, m kafka.Message, out chan<- updateItem) {
	// Parse envelope: { id, customer_id, sms:{phone,text} }
	var env model.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil || env.ID == "" {
		_ = w.Consumer.Commit(ctx, m) // poison → commit, skip
		if err != nil {
			log.Printf("[greeting] bad envelope json: %v", err)
		} else {
			log.Printf("[greeting] envelope missing id")
		}
		return
	}

	if err := w.Dispatch.Send(ctx, env.SMS); err != nil {
		log.Printf("[greeting] send failed id=%s phone=%s: %v", env.ID, env.SMS.Phone, err)
		metrics.GreetingsTotal.WithLabelValues("failed").Inc()
		out <- updateItem{id: env.ID, status: model.StatusFailed}
	} else {
		metrics.GreetingsTotal.WithLabelValues("sent").Inc()
		out <- updateItem{id: env.ID, status: model.StatusSent}
	}

	// Always commit (at-least-once; the status row records the outcome)
	if err := w.Consumer.Commit(ctx, m); err != nil {
		log.Printf("[greeting] commit err: %v", err)
	}
}

// runBatchWriter does size/time-based flush of notification status updates.
func (w *GreetingSender) runBatchWriter(ctx context.Context, in <-chan updateItem) {
	tick := time.NewTicker(w.BatchWait)
	defer tick.Stop()

	var sent, failed []string

	reset := func() {
		sent = sent[:0]
		failed = failed[:0]
	}

	flush := func() {
		if len(sent) == 0 && len(failed) == 0 {
			return
		}

		tx, err := w.DB.BeginTxx(ctx, nil)
		if err != nil {
			log.Printf("[greeting] begin tx err: %v", err)
			reset()
			return
		}
		defer func() { _ = tx.Rollback() }()

		if len(sent) > 0 {
			if err := w.Notifications.BatchUpdateStatus(ctx, tx, sent, model.StatusSent); err != nil {
				log.Printf("[greeting] batch update sent err: %v", err)
				return
			}
		}
		if len(failed) > 0 {
			if err := w.Notifications.BatchUpdateStatus(ctx, tx, failed, model.StatusFailed); err != nil {
				log.Printf("[greeting] batch update failed err: %v", err)
				return
			}
		}

		if err := tx.Commit(); err != nil {
			log.Printf("[greeting] tx commit err: %v", err)
			return
		}

		log.Printf("[greeting] flushed: sent=%d failed=%d", len(sent), len(failed))

		reset()
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return

		case u, ok := <-in:
			if !ok {
				flush()
				return
			}
			switch u.status {
			case model.StatusSent:
				sent = append(sent, u.id)
			case model.StatusFailed:
				failed = append(failed, u.id)
			}

			if len(sent)+len(failed) >= w.BatchSize {
				flush()
			}

		case <-tick.C:
			flush()
		}
	}
}
