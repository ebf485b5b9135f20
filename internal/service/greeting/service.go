package greeting

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/kmutua/feedback-gateway/internal/metrics"
	"github.com/kmutua/feedback-gateway/internal/model"
	"github.com/kmutua/feedback-gateway/internal/repository"
	"github.com/kmutua/feedback-gateway/internal/util"
)

const KafkaTopic = "greetings.send"

// Text builds the fixed thank-you body asking the payer to rate the
// service 1 to 5.
func Text(firstName string) string {
	return fmt.Sprintf(
		"Hi %s, thank you for your payment! "+
			"Could you please rate our service on a scale of 1 to 5? "+
			"Also, let us know if you're comfortable providing additional feedback about our business.",
		firstName,
	)
}

// Service schedules greeting sends. Enqueue is the explicit handoff
// between the payment webhook and the sender worker: it persists a
// queued notification plus an outbox event in one transaction, and the
// worker picks the job up from Kafka.
type Service struct {
	db            *sqlx.DB
	notifications repository.NotificationsRepository
	outbox        repository.OutboxRepository
}

// New constructs the greeting service.
func New(
	db *sqlx.DB,
	notificationsRepo repository.NotificationsRepository,
	outboxRepo repository.OutboxRepository,
) *Service {
	return &Service{
		db:            db,
		notifications: notificationsRepo,
		outbox:        outboxRepo,
	}
}

// Enqueue generates a ULID and writes `notifications(queued)` and
// `outbox` within a single transaction. Returns the notification ID.
func (s *Service) Enqueue(ctx context.Context, c *model.Customer) (string, error) {
	id := util.NewID()

	n := model.Notification{
		ID:         id,
		CustomerID: c.ID,
		Phone:      c.Phone,
		Text:       Text(c.FirstName),
		Status:     model.StatusQueued,
	}

	env := model.Envelope{
		ID:         id,
		CustomerID: c.ID,
		SMS:        model.SMS{Phone: n.Phone, Text: n.Text},
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("marshal envelope: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.notifications.InsertQueued(ctx, tx, n); err != nil {
		return "", fmt.Errorf("insert notification queued: %w", err)
	}

	if err := s.outbox.Insert(ctx, tx, "notification", id, KafkaTopic, payload); err != nil {
		return "", fmt.Errorf("insert outbox: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}

	metrics.GreetingsTotal.WithLabelValues("queued").Inc()

	return id, nil
}
