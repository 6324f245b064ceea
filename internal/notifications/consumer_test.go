package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/email"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	"github.com/shopvite/shopvite-backend/pkg/logger"
	"github.com/shopvite/shopvite-backend/pkg/outbox/payloads"
)

type recordingRepo struct {
	created []*models.Notification
	err     error
}

func (r *recordingRepo) Create(ctx context.Context, notification *models.Notification) error {
	if r.err != nil {
		return r.err
	}
	r.created = append(r.created, notification)
	return nil
}

type fixedUserLoader struct {
	users map[uuid.UUID]*models.User
}

func (l *fixedUserLoader) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := l.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

type recordingSender struct {
	sent []email.Message
	err  error
}

func (s *recordingSender) Send(ctx context.Context, msg email.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func newTestConsumer(repo *recordingRepo, users *fixedUserLoader, sender *recordingSender) *Consumer {
	return &Consumer{
		repo:   repo,
		users:  users,
		sender: sender,
		logg:   logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}
}

func TestHandleOrderCreatedWritesRowAndEmails(t *testing.T) {
	userID := uuid.New()
	repo := &recordingRepo{}
	sender := &recordingSender{}
	users := &fixedUserLoader{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "buyer@example.com"},
	}}
	consumer := newTestConsumer(repo, users, sender)

	data, _ := json.Marshal(payloads.OrderCreatedEvent{
		OrderID:     uuid.New(),
		UserID:      userID,
		OrderNumber: 100042,
		TotalCents:  5698,
		Currency:    enums.CurrencyUSD,
		ItemCount:   2,
	})
	if err := consumer.handleOrderCreated(context.Background(), data, context.Background()); err != nil {
		t.Fatalf("handleOrderCreated: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(repo.created))
	}
	row := repo.created[0]
	if row.Type != enums.NotificationTypeOrderUpdate || row.UserID != userID {
		t.Fatalf("unexpected notification %+v", row)
	}
	if len(sender.sent) != 1 || sender.sent[0].To != "buyer@example.com" {
		t.Fatalf("expected email to buyer, got %+v", sender.sent)
	}
}

func TestEmailFailureDoesNotFailHandling(t *testing.T) {
	userID := uuid.New()
	repo := &recordingRepo{}
	sender := &recordingSender{err: errors.New("smtp down")}
	users := &fixedUserLoader{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "buyer@example.com"},
	}}
	consumer := newTestConsumer(repo, users, sender)

	data, _ := json.Marshal(payloads.OrderStatusChangedEvent{
		OrderID:     uuid.New(),
		UserID:      userID,
		OrderNumber: 100042,
		FromStatus:  enums.OrderStatusPending,
		ToStatus:    enums.OrderStatusConfirmed,
	})
	if err := consumer.handleOrderStatusChanged(context.Background(), data, context.Background()); err != nil {
		t.Fatalf("expected handler to swallow email failure, got %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected notification row despite email failure, got %d", len(repo.created))
	}
}

func TestHandlePaymentFailedEscalatesPriority(t *testing.T) {
	userID := uuid.New()
	repo := &recordingRepo{}
	sender := &recordingSender{}
	users := &fixedUserLoader{users: map[uuid.UUID]*models.User{
		userID: {ID: userID, Email: "buyer@example.com"},
	}}
	consumer := newTestConsumer(repo, users, sender)

	reason := "card declined"
	data, _ := json.Marshal(payloads.PaymentStatusEvent{
		PaymentID:     uuid.New(),
		OrderID:       uuid.New(),
		UserID:        userID,
		Status:        enums.PaymentStatusFailed,
		AmountCents:   5698,
		FailureReason: &reason,
	})
	if err := consumer.handlePaymentStatus(context.Background(), data, context.Background()); err != nil {
		t.Fatalf("handlePaymentStatus: %v", err)
	}

	row := repo.created[0]
	if row.Priority != enums.NotificationPriorityUrgent {
		t.Fatalf("expected urgent priority, got %s", row.Priority)
	}
	if row.Type != enums.NotificationTypePaymentUpdate {
		t.Fatalf("unexpected type %s", row.Type)
	}
}

func TestRepoFailurePropagates(t *testing.T) {
	userID := uuid.New()
	repo := &recordingRepo{err: errors.New("db down")}
	sender := &recordingSender{}
	users := &fixedUserLoader{users: map[uuid.UUID]*models.User{}}
	consumer := newTestConsumer(repo, users, sender)

	data, _ := json.Marshal(payloads.OrderCreatedEvent{UserID: userID, OrderNumber: 1})
	if err := consumer.handleOrderCreated(context.Background(), data, context.Background()); err == nil {
		t.Fatal("expected repo error to propagate")
	}
}
