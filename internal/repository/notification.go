// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"

	"gorm.io/gorm"

	"murmur/internal/models"
	"murmur/internal/observability"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

// NotificationRepository archives delivered notifications. It doubles as a
// notifications.Sink.
type NotificationRepository interface {
	Name() string
	Deliver(ctx context.Context, n *models.Notification) error
	Create(ctx context.Context, record *models.NotificationRecord) error
	ListByRecipient(ctx context.Context, recipientID uint, limit int) ([]models.NotificationRecord, error)
	CountByRecipient(ctx context.Context, recipientID uint) (int64, error)
}

// notificationRepository implements NotificationRepository
type notificationRepository struct {
	db       *gorm.DB
	network  string
	instance string
}

// NewNotificationRepository creates a repository scoped to one network
// instance. Rows archived by earlier instances of the same network stay in
// the table but are never listed.
func NewNotificationRepository(db *gorm.DB, network, instance string) NotificationRepository {
	return &notificationRepository{db: db, network: network, instance: instance}
}

func (r *notificationRepository) Name() string { return "archive" }

func (r *notificationRepository) Deliver(ctx context.Context, n *models.Notification) error {
	return r.Create(ctx, models.NewNotificationRecord(r.network, r.instance, n))
}

func (r *notificationRepository) Create(ctx context.Context, record *models.NotificationRecord) error {
	defer observability.TrackQuery("create", "notifications")()

	if record.Network == "" {
		record.Network = r.network
	}
	if record.Instance == "" {
		record.Instance = r.instance
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint, limit int) ([]models.NotificationRecord, error) {
	defer observability.TrackQuery("list", "notifications")()

	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var records []models.NotificationRecord
	if err := r.db.WithContext(ctx).
		Where("network = ? AND instance = ? AND recipient_id = ?", r.network, r.instance, recipientID).
		Order("id ASC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return records, nil
}

func (r *notificationRepository) CountByRecipient(ctx context.Context, recipientID uint) (int64, error) {
	defer observability.TrackQuery("count", "notifications")()

	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.NotificationRecord{}).
		Where("network = ? AND instance = ? AND recipient_id = ?", r.network, r.instance, recipientID).
		Count(&count).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return count, nil
}
