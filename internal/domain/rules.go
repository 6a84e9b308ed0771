package domain

import "context"

// AutoRemoveMode selects which visibility transition reverses rewards.
// Values mirror the original extension's settings enum.
type AutoRemoveMode int

const (
	AutoRemoveOnHide   AutoRemoveMode = 1
	AutoRemoveOnDelete AutoRemoveMode = 2
)

// RuleConfig is the immutable snapshot of reward amounts and thresholds,
// loaded once at engine construction. Missing settings fall back to the zero
// defaults; the engine never fails to construct due to missing configuration.
type RuleConfig struct {
	MoneyForPost       float64
	PostMinimumLength  int
	MoneyForDiscussion float64
	MoneyForLike       float64
	AutoRemove         AutoRemoveMode
	CascadeRemove      bool
	IgnoreMentions     bool
}

// SettingsRepository is the read-only key→value settings provider.
// Get returns ErrSettingNotFound for unknown keys.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
}

// PermissionOracle answers permission and capability questions. It is the
// boundary to the forum's permission subsystem.
type PermissionOracle interface {
	HasPermission(ctx context.Context, account *Account, permission string) (bool, error)
	// Can returns nil if actor holds the capability over target, and
	// ErrPermissionDenied otherwise.
	Can(ctx context.Context, actor *Account, capability string, target *Account) error
}

// BalanceNotifier publishes a balance-changed notification carrying the
// updated account, for downstream consumers such as the realtime hub.
type BalanceNotifier interface {
	PublishBalanceChanged(ctx context.Context, account *Account) error
}
