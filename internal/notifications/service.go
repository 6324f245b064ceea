package notifications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopvite/shopvite-backend/internal/uow"
	"github.com/shopvite/shopvite-backend/pkg/db/models"
	"github.com/shopvite/shopvite-backend/pkg/enums"
	pkgerrors "github.com/shopvite/shopvite-backend/pkg/errors"
	"github.com/shopvite/shopvite-backend/pkg/pagination"
)

type uowRunner interface {
	Run(ctx context.Context, fn func(u *uow.UnitOfWork) error) error
	Repos() *uow.UnitOfWork
}

// ListInput filters a user's notification feed.
type ListInput struct {
	Pagination pagination.Params
	UnreadOnly bool
}

// NotificationDTO is the API shape of a notification.
type NotificationDTO struct {
	ID        uuid.UUID                  `json:"id"`
	Type      enums.NotificationType     `json:"type"`
	Priority  enums.NotificationPriority `json:"priority"`
	Title     string                     `json:"title"`
	Message   string                     `json:"message"`
	Link      *string                    `json:"link,omitempty"`
	ReadAt    *time.Time                 `json:"read_at,omitempty"`
	CreatedAt time.Time                  `json:"created_at"`
}

// ListResult is a page of notifications plus the unread badge count.
type ListResult struct {
	Notifications []NotificationDTO `json:"notifications"`
	UnreadCount   int64             `json:"unread_count"`
	Pagination    pagination.Result `json:"pagination"`
}

// Service exposes the per-user notification feed.
type Service interface {
	List(ctx context.Context, userID uuid.UUID, input ListInput) (*ListResult, error)
	MarkRead(ctx context.Context, userID, id uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	runner uowRunner
}

// NewService wires the notification service.
func NewService(runner uowRunner) (Service, error) {
	if runner == nil {
		return nil, errors.New("notifications: runner is required")
	}
	return &service{runner: runner}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID, input ListInput) (*ListResult, error) {
	params := input.Pagination.Normalize()
	repos := s.runner.Repos()

	notifications, total, err := repos.Notifications.ListByUser(ctx, userID, input.UnreadOnly, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list notifications")
	}
	unread, err := repos.Notifications.CountUnread(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count unread")
	}

	result := &ListResult{
		Notifications: make([]NotificationDTO, 0, len(notifications)),
		UnreadCount:   unread,
		Pagination:    pagination.BuildResult(params, total),
	}
	for i := range notifications {
		result.Notifications = append(result.Notifications, fromModel(&notifications[i]))
	}
	return result, nil
}

func (s *service) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	err := s.runner.Repos().Notifications.MarkRead(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Notification not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark notification read")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.runner.Repos().Notifications.MarkAllRead(ctx, userID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark all read")
	}
	return nil
}

func fromModel(notification *models.Notification) NotificationDTO {
	return NotificationDTO{
		ID:        notification.ID,
		Type:      notification.Type,
		Priority:  notification.Priority,
		Title:     notification.Title,
		Message:   notification.Message,
		Link:      notification.Link,
		ReadAt:    notification.ReadAt,
		CreatedAt: notification.CreatedAt,
	}
}
