package repository

import (
	"context"
	"database/sql"

	"github.com/vibast-solutions/ms-go-connector/app/entity"
)

type GatewayAccountRepository struct {
	db DBTX
}

func NewGatewayAccountRepository(db DBTX) *GatewayAccountRepository {
	return &GatewayAccountRepository{db: db}
}

func (r *GatewayAccountRepository) FindByID(ctx context.Context, id uint64) (*entity.GatewayAccount, error) {
	query := `
		SELECT id, provider_name, type, description, credentials_json, notification_cidrs_json,
			timeout_seconds, created_at, updated_at
		FROM gateway_accounts
		WHERE id = ?
	`

	account := &entity.GatewayAccount{}
	var credentialsJSON string
	var cidrsJSON sql.NullString

	err := conn(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.ProviderName,
		&account.Type,
		&account.Description,
		&credentialsJSON,
		&cidrsJSON,
		&account.TimeoutSeconds,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if account.Credentials, err = parseStringMap(credentialsJSON); err != nil {
		return nil, err
	}
	if account.NotificationCIDRs, err = parseStringList(cidrsJSON.String); err != nil {
		return nil, err
	}

	return account, nil
}
