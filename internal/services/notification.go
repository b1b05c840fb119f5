package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/modelhub-backend/internal/data/repos"
	types "github.com/yungbote/modelhub-backend/internal/domain"
	domainagg "github.com/yungbote/modelhub-backend/internal/domain/aggregates"
	"github.com/yungbote/modelhub-backend/internal/domain/roles"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
	"github.com/yungbote/modelhub-backend/internal/platform/redisbus"
)

type NotificationService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*types.InboxItem, error)
	MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error)
	Send(ctx context.Context, adminID uuid.UUID, message string, recipients []uuid.UUID) (domainagg.NotificationEvent, error)
}

type notificationService struct {
	log           *logger.Logger
	gate          PermissionGate
	notifications repos.NotificationRepo
	agg           domainagg.NotificationAggregate
	bus           redisbus.Bus
}

func NewNotificationService(
	log *logger.Logger,
	gate PermissionGate,
	notifications repos.NotificationRepo,
	agg domainagg.NotificationAggregate,
	bus redisbus.Bus,
) NotificationService {
	return &notificationService{
		log:           log.With("service", "NotificationService"),
		gate:          gate,
		notifications: notifications,
		agg:           agg,
		bus:           bus,
	}
}

func (s *notificationService) List(ctx context.Context, userID uuid.UUID) ([]*types.InboxItem, error) {
	const op = "NotificationService.List"
	if _, err := s.gate.Require(ctx, op, userID, roles.Member); err != nil {
		return nil, err
	}
	out, err := s.notifications.ListForUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	return out, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	const op = "NotificationService.MarkRead"
	if _, err := s.gate.Require(ctx, op, userID, roles.Member); err != nil {
		return err
	}
	return s.agg.MarkRead(ctx, domainagg.MarkNotificationReadInput{
		NotificationID: notificationID,
		UserID:         userID,
	})
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	const op = "NotificationService.MarkAllRead"
	if _, err := s.gate.Require(ctx, op, userID, roles.Member); err != nil {
		return 0, err
	}
	return s.agg.MarkAllRead(ctx, userID)
}

func (s *notificationService) Send(ctx context.Context, adminID uuid.UUID, message string, recipients []uuid.UUID) (domainagg.NotificationEvent, error) {
	const op = "NotificationService.Send"
	if _, err := s.gate.Require(ctx, op, adminID, roles.Admin); err != nil {
		return domainagg.NotificationEvent{}, err
	}
	ev, err := s.agg.Notify(ctx, domainagg.NotifyInput{
		Message:      strings.TrimSpace(message),
		RecipientIDs: recipients,
	})
	if err != nil {
		return ev, err
	}
	publishEvents(ctx, s.log, s.bus, ev)
	return ev, nil
}
