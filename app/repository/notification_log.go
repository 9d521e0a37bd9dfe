package repository

import (
	"context"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
)

type NotificationLogRepository struct {
	db DBTX
}

func NewNotificationLogRepository(db DBTX) *NotificationLogRepository {
	return &NotificationLogRepository{db: db}
}

func (r *NotificationLogRepository) Create(ctx context.Context, log *entity.NotificationLog) error {
	query := `
		INSERT INTO notification_logs (
			charge_id, provider_name, transaction_id, status_code, remote_ip,
			payload, status, error, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		nullableUint64Value(log.ChargeID),
		log.ProviderName,
		nullableStringValue(log.TransactionID),
		nullableStringValue(log.StatusCode),
		log.RemoteIP,
		log.Payload,
		log.Status,
		nullableStringValue(log.Error),
		log.CreatedAt,
		log.UpdatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	log.ID = uint64(id)

	return nil
}
