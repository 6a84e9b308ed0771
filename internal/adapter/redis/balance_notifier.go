package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yukyra-eren/flarum-ext-money/internal/adapter/metrics"
	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
	"github.com/yukyra-eren/flarum-ext-money/internal/platform/retry"
)

// balanceChannel is the Pub/Sub channel carrying balance-changed updates for
// every account. Consumers route by the account id in the payload.
const balanceChannel = "money:balance_changed"

// BalanceUpdate is the message published when an account's balance changes.
type BalanceUpdate struct {
	AccountID uuid.UUID `json:"account_id"`
	Username  string    `json:"username"`
	Balance   float64   `json:"balance"`
}

// BalanceNotifier implements domain.BalanceNotifier via Redis Pub/Sub.
type BalanceNotifier struct {
	rdb *goredis.Client
}

func NewBalanceNotifier(rdb *goredis.Client) *BalanceNotifier {
	return &BalanceNotifier{rdb: rdb}
}

var publishPolicy = retry.Policy{
	MaxAttempts:    3,
	InitialBackoff: 50 * time.Millisecond,
	OnRetry: func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Retrying balance notification publish", "attempt", attempt, "backoff", backoff, "error", err)
	},
}

func classifyPublishError(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop
	}
	return retry.Retry
}

// PublishBalanceChanged publishes the updated account on the balance channel.
// Transient failures are retried with backoff; a lost notification only
// delays the realtime display, the balance itself is already persisted.
func (n *BalanceNotifier) PublishBalanceChanged(ctx context.Context, account *domain.Account) error {
	msg := BalanceUpdate{
		AccountID: account.ID,
		Username:  account.Username,
		Balance:   account.Balance,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal balance update: %w", err)
	}

	err = retry.DoVoid(ctx, publishPolicy, classifyPublishError, func() error {
		return n.rdb.Publish(ctx, balanceChannel, data).Err()
	})
	if err != nil {
		metrics.BalanceNotificationsTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to publish balance update: %w", err)
	}

	metrics.BalanceNotificationsTotal.WithLabelValues("published").Inc()
	return nil
}

// Subscription is an active balance-update subscription.
type Subscription struct {
	sub    *goredis.PubSub
	Ch     <-chan BalanceUpdate
	cancel context.CancelFunc
}

// Close unsubscribes and closes the subscription.
func (s *Subscription) Close() {
	s.cancel()
	_ = s.sub.Close()
}

// Subscribe starts receiving balance updates. Slow receivers drop messages
// rather than blocking the subscriber loop.
func (n *BalanceNotifier) Subscribe(ctx context.Context) *Subscription {
	sub := n.rdb.Subscribe(ctx, balanceChannel)

	subCtx, cancel := context.WithCancel(ctx)
	ch := make(chan BalanceUpdate, 64)

	go func() {
		defer close(ch)
		msgCh := sub.Channel()
		for {
			select {
			case msg, ok := <-msgCh:
				if !ok {
					return
				}
				var update BalanceUpdate
				if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
					slog.Error("Failed to unmarshal balance update", "error", err)
					continue
				}
				select {
				case ch <- update:
				default:
					// Drop if receiver is slow
				}
			case <-subCtx.Done():
				return
			}
		}
	}()

	return &Subscription{sub: sub, Ch: ch, cancel: cancel}
}
