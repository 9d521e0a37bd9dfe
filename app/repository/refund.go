package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

var ErrRefundAlreadyExists = errors.New("refund already exists")

const refundColumns = `
	id, external_id, charge_external_id, amount_cents, status, gateway_transaction_id,
	user_external_id, user_email, version, created_at, updated_at`

type RefundRepository struct {
	db DBTX
}

func NewRefundRepository(db DBTX) *RefundRepository {
	return &RefundRepository{db: db}
}

func (r *RefundRepository) Create(ctx context.Context, refund *entity.Refund) error {
	query := `
		INSERT INTO refunds (
			external_id, charge_external_id, amount_cents, status, gateway_transaction_id,
			user_external_id, user_email, version, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		refund.ExternalID,
		refund.ChargeExternalID,
		refund.AmountCents,
		string(refund.Status),
		nullableStringValue(refund.GatewayTransactionID),
		nullableStringValue(refund.UserExternalID),
		nullableStringValue(refund.UserEmail),
		refund.Version,
		refund.CreatedAt,
		refund.UpdatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrRefundAlreadyExists
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	refund.ID = uint64(id)
	return nil
}

func (r *RefundRepository) Update(ctx context.Context, refund *entity.Refund) error {
	query := `
		UPDATE refunds SET
			status = ?,
			gateway_transaction_id = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		string(refund.Status),
		nullableStringValue(refund.GatewayTransactionID),
		refund.UpdatedAt,
		refund.ID,
		refund.Version,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrOptimisticLock
	}

	refund.Version++
	return nil
}

func (r *RefundRepository) FindByExternalID(ctx context.Context, externalID string) (*entity.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE external_id = ?`

	refund := &entity.Refund{}
	if err := scanRefund(conn(ctx, r.db).QueryRowContext(ctx, query, externalID), refund); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return refund, nil
}

func (r *RefundRepository) FindByChargeAndGatewayTransactionID(ctx context.Context, chargeExternalID, reference string) (*entity.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE charge_external_id = ? AND gateway_transaction_id = ? LIMIT 1`

	refund := &entity.Refund{}
	if err := scanRefund(conn(ctx, r.db).QueryRowContext(ctx, query, chargeExternalID, reference), refund); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return refund, nil
}

func (r *RefundRepository) ListByChargeExternalID(ctx context.Context, chargeExternalID string) ([]*entity.Refund, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE charge_external_id = ? ORDER BY id ASC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, chargeExternalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refunds := make([]*entity.Refund, 0)
	for rows.Next() {
		item := &entity.Refund{}
		if err := scanRefund(rows, item); err != nil {
			return nil, err
		}
		refunds = append(refunds, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return refunds, nil
}

func scanRefund(scan rowScanner, refund *entity.Refund) error {
	var refundStatus string
	var transactionID sql.NullString
	var userExternalID sql.NullString
	var userEmail sql.NullString

	err := scan.Scan(
		&refund.ID,
		&refund.ExternalID,
		&refund.ChargeExternalID,
		&refund.AmountCents,
		&refundStatus,
		&transactionID,
		&userExternalID,
		&userEmail,
		&refund.Version,
		&refund.CreatedAt,
		&refund.UpdatedAt,
	)
	if err != nil {
		return err
	}

	refund.Status = status.RefundStatus(refundStatus)
	refund.GatewayTransactionID = stringPtrFromNull(transactionID)
	refund.UserExternalID = stringPtrFromNull(userExternalID)
	refund.UserEmail = stringPtrFromNull(userEmail)
	return nil
}
