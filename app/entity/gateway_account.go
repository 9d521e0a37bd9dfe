package entity

import "time"

const (
	AccountTypeTest = "test"
	AccountTypeLive = "live"
)

// Credential keys understood by the providers.
const (
	CredentialMerchantCode           = "merchant_code"
	CredentialUsername               = "username"
	CredentialPassword               = "password"
	CredentialShaInPassphrase        = "sha_in_passphrase"
	CredentialShaOutPassphrase       = "sha_out_passphrase"
	CredentialSecretKey              = "secret_key"
	CredentialWebhookSecretPrimary   = "webhook_secret_primary"
	CredentialWebhookSecretSecondary = "webhook_secret_secondary"
)

type GatewayAccount struct {
	ID uint64

	ProviderName string
	Type         string
	Description  string

	Credentials map[string]string

	// NotificationCIDRs narrows the source ranges trusted for IP-verified
	// notifications. Empty means the configured defaults.
	NotificationCIDRs []string

	// TimeoutSeconds overrides the default gateway client timeout when > 0.
	TimeoutSeconds int32

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *GatewayAccount) Credential(key string) string {
	if a.Credentials == nil {
		return ""
	}
	return a.Credentials[key]
}

func (a *GatewayAccount) IsLive() bool {
	return a.Type == AccountTypeLive
}
