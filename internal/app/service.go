package app

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/yukyra-eren/flarum-ext-money/internal/adapter/metrics"
	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
	"github.com/yukyra-eren/flarum-ext-money/internal/rules"
)

const settingsRefreshInterval = time.Minute

// Service is the application layer. It owns the rule engine and is the only
// component that references multiple domain components.
//
// Settings live in the database and can change at runtime; the service
// periodically reloads them and swaps in a fresh engine snapshot, so handlers
// always see a consistent config.
type Service struct {
	accounts    domain.AccountRepository
	settings    domain.SettingsRepository
	permissions domain.PermissionOracle
	notifier    domain.BalanceNotifier

	engine atomic.Pointer[rules.Engine]
	clock  clockwork.Clock

	refreshStopCh chan struct{}
	stopOnce      sync.Once
}

// NewService loads the initial rule config and starts the settings refresh
// timer.
func NewService(ctx context.Context, accounts domain.AccountRepository, settings domain.SettingsRepository, permissions domain.PermissionOracle, notifier domain.BalanceNotifier, clock clockwork.Clock) (*Service, error) {
	s := &Service{
		accounts:      accounts,
		settings:      settings,
		permissions:   permissions,
		notifier:      notifier,
		clock:         clock,
		refreshStopCh: make(chan struct{}),
	}

	cfg, err := rules.LoadRuleConfig(ctx, settings)
	if err != nil {
		return nil, err
	}
	s.engine.Store(rules.NewEngine(cfg, accounts, permissions, notifier))

	s.startRefreshTimer()
	return s, nil
}

// GetBalance retrieves an account with its current balance.
func (s *Service) GetBalance(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return s.accounts.GetByID(ctx, accountID)
}

// EditBalance sets an account's balance to an absolute value on behalf of the
// actor. The edit runs through the same rule path as a forum profile save, so
// the actor needs the edit_money capability over the target account.
func (s *Service) EditBalance(ctx context.Context, actorID, accountID uuid.UUID, balance float64) (*domain.Account, error) {
	actor, err := s.accounts.GetByID(ctx, actorID)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	event := domain.AccountSaving{
		Account:    account,
		Actor:      actor,
		Attributes: map[string]any{"money": balance},
	}
	if err := s.engine.Load().HandleEvent(ctx, event); err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			metrics.BalanceEditsTotal.WithLabelValues("denied").Inc()
		} else {
			metrics.BalanceEditsTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.BalanceEditsTotal.WithLabelValues("applied").Inc()
	return s.accounts.GetByID(ctx, accountID)
}

// HandleForumEvent runs a forum event through the rule engine.
func (s *Service) HandleForumEvent(ctx context.Context, event domain.Event) error {
	if err := s.engine.Load().HandleEvent(ctx, event); err != nil {
		metrics.RuleEventsTotal.WithLabelValues(event.Kind(), "error").Inc()
		return err
	}
	metrics.RuleEventsTotal.WithLabelValues(event.Kind(), "ok").Inc()
	return nil
}

// RuleConfig returns the config snapshot the engine currently runs with.
func (s *Service) RuleConfig() domain.RuleConfig {
	return s.engine.Load().Config()
}

// RefreshRuleConfig reloads settings and swaps in a new engine snapshot if
// the config changed.
func (s *Service) RefreshRuleConfig(ctx context.Context) {
	cfg, err := rules.LoadRuleConfig(ctx, s.settings)
	if err != nil {
		slog.Error("Failed to reload rule settings", "error", err)
		return
	}

	if cfg == s.engine.Load().Config() {
		return
	}

	s.engine.Store(rules.NewEngine(cfg, s.accounts, s.permissions, s.notifier))
	slog.Info("Rule settings reloaded",
		"money_for_post", cfg.MoneyForPost,
		"money_for_discussion", cfg.MoneyForDiscussion,
		"money_for_like", cfg.MoneyForLike,
		"auto_remove", int(cfg.AutoRemove))
}

func (s *Service) startRefreshTimer() {
	ticker := s.clock.NewTicker(settingsRefreshInterval)
	go func() {
		for {
			select {
			case <-ticker.Chan():
				s.RefreshRuleConfig(context.Background())
			case <-s.refreshStopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the settings refresh timer.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.refreshStopCh)
	})
}
