package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
	"github.com/vibast-solutions/ms-go-connector/app/status"
)

const chargeColumns = `
	c.id, c.external_id, c.gateway_account_id, c.amount_cents, c.currency, c.description, c.reference,
	c.status, c.gateway_transaction_id, c.capture_attempts, c.historic, c.version,
	c.created_at, c.updated_at`

type ChargeRepository struct {
	db DBTX
}

func NewChargeRepository(db DBTX) *ChargeRepository {
	return &ChargeRepository{db: db}
}

// Update writes the mutable columns if the stored version still matches the
// one read, and bumps the version on success.
func (r *ChargeRepository) Update(ctx context.Context, charge *entity.Charge) error {
	query := `
		UPDATE charges SET
			status = ?,
			gateway_transaction_id = ?,
			capture_attempts = ?,
			version = version + 1,
			updated_at = ?
		WHERE id = ? AND version = ?
	`

	result, err := conn(ctx, r.db).ExecContext(ctx, query,
		string(charge.Status),
		nullableStringValue(charge.GatewayTransactionID),
		charge.CaptureAttempts,
		charge.UpdatedAt,
		charge.ID,
		charge.Version,
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

	charge.Version++
	return nil
}

func (r *ChargeRepository) FindByExternalID(ctx context.Context, externalID string) (*entity.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges c WHERE c.external_id = ?`
	return r.findOne(ctx, query, externalID)
}

// FindByExternalIDForUpdate locks the charge row until the surrounding
// transaction ends.
func (r *ChargeRepository) FindByExternalIDForUpdate(ctx context.Context, externalID string) (*entity.Charge, error) {
	query := `SELECT ` + chargeColumns + ` FROM charges c WHERE c.external_id = ? FOR UPDATE`
	return r.findOne(ctx, query, externalID)
}

func (r *ChargeRepository) FindByProviderTransactionID(ctx context.Context, providerName, transactionID string) (*entity.Charge, error) {
	query := `
		SELECT ` + chargeColumns + `
		FROM charges c
		INNER JOIN gateway_accounts ga ON ga.id = c.gateway_account_id
		WHERE ga.provider_name = ? AND c.gateway_transaction_id = ?
		LIMIT 1
	`
	return r.findOne(ctx, query, providerName, transactionID)
}

func (r *ChargeRepository) ListByStatuses(ctx context.Context, statuses []status.ChargeStatus, createdBefore time.Time, limit int32) ([]*entity.Charge, error) {
	if len(statuses) == 0 {
		return []*entity.Charge{}, nil
	}

	placeholders := make([]string, 0, len(statuses))
	args := make([]interface{}, 0, len(statuses)+2)
	for _, s := range statuses {
		placeholders = append(placeholders, "?")
		args = append(args, string(s))
	}
	args = append(args, createdBefore, limit)

	query := `
		SELECT ` + chargeColumns + `
		FROM charges c
		WHERE c.status IN (` + strings.Join(placeholders, ", ") + `)
		  AND c.created_at <= ?
		ORDER BY c.created_at ASC
		LIMIT ?
	`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	charges := make([]*entity.Charge, 0)
	for rows.Next() {
		item := &entity.Charge{}
		if err := scanCharge(rows, item); err != nil {
			return nil, err
		}
		charges = append(charges, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return charges, nil
}

func (r *ChargeRepository) findOne(ctx context.Context, query string, args ...interface{}) (*entity.Charge, error) {
	charge := &entity.Charge{}
	if err := scanCharge(conn(ctx, r.db).QueryRowContext(ctx, query, args...), charge); err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return charge, nil
}

func scanCharge(scan rowScanner, charge *entity.Charge) error {
	var chargeStatus string
	var transactionID sql.NullString

	err := scan.Scan(
		&charge.ID,
		&charge.ExternalID,
		&charge.GatewayAccountID,
		&charge.AmountCents,
		&charge.Currency,
		&charge.Description,
		&charge.Reference,
		&chargeStatus,
		&transactionID,
		&charge.CaptureAttempts,
		&charge.Historic,
		&charge.Version,
		&charge.CreatedAt,
		&charge.UpdatedAt,
	)
	if err != nil {
		return err
	}

	charge.Status = status.ChargeStatus(chargeStatus)
	charge.GatewayTransactionID = stringPtrFromNull(transactionID)
	return nil
}
