package notification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/modelhub-backend/internal/domain"
	"github.com/yungbote/modelhub-backend/internal/platform/dbctx"
	"github.com/yungbote/modelhub-backend/internal/platform/logger"
)

const deliveryBatchSize = 500

type NotificationRepo interface {
	Create(dbc dbctx.Context, n *types.Notification) (*types.Notification, error)
	// CreateDeliveries inserts every row in one statement per batch.
	CreateDeliveries(dbc dbctx.Context, rows []*types.NotificationDelivery) error
	ListForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.InboxItem, error)
	ListDeliveries(dbc dbctx.Context, notificationID uuid.UUID) ([]*types.NotificationDelivery, error)
	DeliveryExists(dbc dbctx.Context, notificationID, userID uuid.UUID) (bool, error)

	MarkRead(dbc dbctx.Context, notificationID, userID uuid.UUID, at time.Time) (int64, error)
	MarkAllRead(dbc dbctx.Context, userID uuid.UUID, at time.Time) (int64, error)
	DeleteDeliveriesForUser(dbc dbctx.Context, userID uuid.UUID) error
}

type notificationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNotificationRepo(db *gorm.DB, baseLog *logger.Logger) NotificationRepo {
	return &notificationRepo{db: db, log: baseLog.With("repo", "NotificationRepo")}
}

func (r *notificationRepo) Create(dbc dbctx.Context, n *types.Notification) (*types.Notification, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if err := t.WithContext(dbc.Ctx).Create(n).Error; err != nil {
		return nil, err
	}
	return n, nil
}

func (r *notificationRepo) CreateDeliveries(dbc dbctx.Context, rows []*types.NotificationDelivery) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return nil
	}
	return t.WithContext(dbc.Ctx).
		Omit("Notification").
		CreateInBatches(&rows, deliveryBatchSize).Error
}

func (r *notificationRepo) ListForUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.InboxItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.InboxItem
	if err := t.WithContext(dbc.Ctx).
		Table("notification_delivery AS d").
		Select("n.id AS id, n.message AS message, n.sent_at AS sent_at, d.is_read AS is_read").
		Joins("JOIN notification AS n ON n.id = d.notification_id").
		Where("d.user_id = ?", userID).
		Order("n.sent_at DESC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *notificationRepo) ListDeliveries(dbc dbctx.Context, notificationID uuid.UUID) ([]*types.NotificationDelivery, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var out []*types.NotificationDelivery
	if err := t.WithContext(dbc.Ctx).
		Where("notification_id = ?", notificationID).
		Order("user_id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *notificationRepo) DeliveryExists(dbc dbctx.Context, notificationID, userID uuid.UUID) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var n int64
	if err := t.WithContext(dbc.Ctx).
		Model(&types.NotificationDelivery{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkRead only flips unread rows, so read_at keeps the first read time.
func (r *notificationRepo) MarkRead(dbc dbctx.Context, notificationID, userID uuid.UUID, at time.Time) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.NotificationDelivery{}).
		Where("notification_id = ? AND user_id = ? AND is_read = ?", notificationID, userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) MarkAllRead(dbc dbctx.Context, userID uuid.UUID, at time.Time) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.NotificationDelivery{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": at})
	return res.RowsAffected, res.Error
}

func (r *notificationRepo) DeleteDeliveriesForUser(dbc dbctx.Context, userID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	return t.WithContext(dbc.Ctx).
		Where("user_id = ?", userID).
		Delete(&types.NotificationDelivery{}).Error
}
