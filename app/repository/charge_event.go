package repository

import (
	"context"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
)

type ChargeEventRepository struct {
	db DBTX
}

func NewChargeEventRepository(db DBTX) *ChargeEventRepository {
	return &ChargeEventRepository{db: db}
}

func (r *ChargeEventRepository) Create(ctx context.Context, event *entity.ChargeEvent) error {
	query := `
		INSERT INTO charge_events (
			resource_type, resource_external_id, charge_external_id, event_type,
			old_status, new_status, payload_json, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		event.ResourceType,
		event.ResourceExternalID,
		event.ChargeExternalID,
		event.EventType,
		nullableStringValue(event.OldStatus),
		event.NewStatus,
		nullableStringValue(event.PayloadJSON),
		event.CreatedAt,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	event.ID = uint64(id)

	return nil
}
