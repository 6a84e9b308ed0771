package rules

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
)

// Settings keys, mirroring the original extension's names.
const (
	keyMoneyForPost       = "money.moneyforpost"
	keyPostMinimumLength  = "money.postminimumlength"
	keyMoneyForDiscussion = "money.moneyfordiscussion"
	keyMoneyForLike       = "money.moneyforlike"
	keyAutoRemove         = "money.autoremove"
	keyCascadeRemove      = "money.cascaderemove"
	keyIgnoreMentions     = "money.ignorenotifyingusers"
)

// LoadRuleConfig reads the reward configuration from the settings provider.
// Missing keys fall back to their documented defaults; only infrastructure
// failures surface as errors, so a blank settings table still yields a
// working (zero-amount) engine.
func LoadRuleConfig(ctx context.Context, settings domain.SettingsRepository) (domain.RuleConfig, error) {
	cfg := domain.RuleConfig{AutoRemove: domain.AutoRemoveOnHide}

	var err error
	if cfg.MoneyForPost, err = getFloat(ctx, settings, keyMoneyForPost, 0); err != nil {
		return cfg, err
	}
	if cfg.PostMinimumLength, err = getInt(ctx, settings, keyPostMinimumLength, 0); err != nil {
		return cfg, err
	}
	if cfg.MoneyForDiscussion, err = getFloat(ctx, settings, keyMoneyForDiscussion, 0); err != nil {
		return cfg, err
	}
	if cfg.MoneyForLike, err = getFloat(ctx, settings, keyMoneyForLike, 0); err != nil {
		return cfg, err
	}

	mode, err := getInt(ctx, settings, keyAutoRemove, int(domain.AutoRemoveOnHide))
	if err != nil {
		return cfg, err
	}
	cfg.AutoRemove = domain.AutoRemoveMode(mode)

	if cfg.CascadeRemove, err = getBool(ctx, settings, keyCascadeRemove, false); err != nil {
		return cfg, err
	}
	if cfg.IgnoreMentions, err = getBool(ctx, settings, keyIgnoreMentions, false); err != nil {
		return cfg, err
	}

	return cfg, nil
}

func getFloat(ctx context.Context, settings domain.SettingsRepository, key string, fallback float64) (float64, error) {
	raw, err := settings.Get(ctx, key)
	if errors.Is(err, domain.ErrSettingNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		slog.Warn("Invalid float setting, using default", "key", key, "value", raw)
		return fallback, nil
	}
	return value, nil
}

func getInt(ctx context.Context, settings domain.SettingsRepository, key string, fallback int) (int, error) {
	raw, err := settings.Get(ctx, key)
	if errors.Is(err, domain.ErrSettingNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		slog.Warn("Invalid integer setting, using default", "key", key, "value", raw)
		return fallback, nil
	}
	return value, nil
}

func getBool(ctx context.Context, settings domain.SettingsRepository, key string, fallback bool) (bool, error) {
	raw, err := settings.Get(ctx, key)
	if errors.Is(err, domain.ErrSettingNotFound) {
		return fallback, nil
	}
	if err != nil {
		return fallback, err
	}

	value, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("Invalid boolean setting, using default", "key", key, "value", raw)
		return fallback, nil
	}
	return value, nil
}
