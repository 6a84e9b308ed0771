package rules

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"unicode/utf8"

	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
)

// EditMoneyCapability must be held by an actor to set another account's
// balance directly.
const EditMoneyCapability = "edit_money"

// Engine applies the reward rules to incoming forum events. It is stateless
// apart from the immutable config snapshot; every handler runs synchronously
// to completion in the caller's context.
type Engine struct {
	cfg         domain.RuleConfig
	accounts    domain.AccountRepository
	permissions domain.PermissionOracle
	notifier    domain.BalanceNotifier
}

func NewEngine(cfg domain.RuleConfig, accounts domain.AccountRepository, permissions domain.PermissionOracle, notifier domain.BalanceNotifier) *Engine {
	return &Engine{
		cfg:         cfg,
		accounts:    accounts,
		permissions: permissions,
		notifier:    notifier,
	}
}

// Config returns the immutable rule configuration snapshot.
func (e *Engine) Config() domain.RuleConfig {
	return e.cfg
}

// HandleEvent dispatches a forum event to its rule handler. The switch is
// exhaustive over the domain.Event union; an unknown variant is a programming
// error.
func (e *Engine) HandleEvent(ctx context.Context, event domain.Event) error {
	switch ev := event.(type) {
	case domain.PostPosted:
		return e.handlePostPosted(ctx, ev)
	case domain.PostRestored:
		return e.handlePostRestored(ctx, ev)
	case domain.PostHidden:
		return e.handlePostHidden(ctx, ev)
	case domain.PostDeleted:
		return e.handlePostDeleted(ctx, ev)
	case domain.DiscussionStarted:
		return e.handleDiscussionStarted(ctx, ev)
	case domain.DiscussionRestored:
		return e.handleDiscussionRestored(ctx, ev)
	case domain.DiscussionHidden:
		return e.handleDiscussionHidden(ctx, ev)
	case domain.DiscussionDeleted:
		return e.handleDiscussionDeleted(ctx, ev)
	case domain.PostLiked:
		return e.handlePostLiked(ctx, ev)
	case domain.PostUnliked:
		return e.handlePostUnliked(ctx, ev)
	case domain.AccountSaving:
		return e.handleAccountSaving(ctx, ev)
	default:
		return fmt.Errorf("unhandled event type %T", event)
	}
}

// Award adds delta to the account's balance, persists it and publishes a
// balance-changed notification. A nil account is a no-op returning false.
// Balances are not clamped: deductions mirror earlier awards and may push the
// balance below zero.
func (e *Engine) Award(ctx context.Context, account *domain.Account, delta float64) (bool, error) {
	if account == nil {
		return false, nil
	}

	updated, err := e.accounts.AdjustBalance(ctx, account.ID, delta)
	if err != nil {
		return false, fmt.Errorf("adjust balance: %w", err)
	}

	e.publishBalanceChanged(ctx, updated)
	return true, nil
}

// AwardForPost awards delta to the account only if it is eligible to earn in
// the post's discussion. Used for every post-keyed reward and deduction.
func (e *Engine) AwardForPost(ctx context.Context, account *domain.Account, delta float64, post *domain.Post) error {
	if account == nil || post == nil {
		return nil
	}

	eligible, err := e.CanEarn(ctx, account, post.Discussion)
	if err != nil {
		return err
	}
	if !eligible {
		return nil
	}

	_, err = e.Award(ctx, account, delta)
	return err
}

func (e *Engine) handlePostPosted(ctx context.Context, ev domain.PostPosted) error {
	if ev.Post == nil {
		return nil
	}
	// The opening post is rewarded through the discussion-level rule.
	if ev.Post.Number <= 1 || !e.meetsMinimumLength(ev.Post.Content) {
		return nil
	}
	return e.AwardForPost(ctx, ev.Actor, e.cfg.MoneyForPost, ev.Post)
}

func (e *Engine) handlePostRestored(ctx context.Context, ev domain.PostRestored) error {
	if !e.reversiblePost(ev.Post, domain.AutoRemoveOnHide) {
		return nil
	}
	return e.AwardForPost(ctx, ev.Post.Owner, e.cfg.MoneyForPost, ev.Post)
}

func (e *Engine) handlePostHidden(ctx context.Context, ev domain.PostHidden) error {
	if !e.reversiblePost(ev.Post, domain.AutoRemoveOnHide) {
		return nil
	}
	return e.AwardForPost(ctx, ev.Post.Owner, -e.cfg.MoneyForPost, ev.Post)
}

func (e *Engine) handlePostDeleted(ctx context.Context, ev domain.PostDeleted) error {
	if !e.reversiblePost(ev.Post, domain.AutoRemoveOnDelete) {
		return nil
	}
	return e.AwardForPost(ctx, ev.Post.Owner, -e.cfg.MoneyForPost, ev.Post)
}

func (e *Engine) handleDiscussionStarted(ctx context.Context, ev domain.DiscussionStarted) error {
	eligible, err := e.CanEarn(ctx, ev.Actor, ev.Discussion)
	if err != nil {
		return err
	}
	if !eligible {
		return nil
	}
	_, err = e.Award(ctx, ev.Actor, e.cfg.MoneyForDiscussion)
	return err
}

func (e *Engine) handleDiscussionRestored(ctx context.Context, ev domain.DiscussionRestored) error {
	if e.cfg.AutoRemove != domain.AutoRemoveOnHide || ev.Discussion == nil {
		return nil
	}

	eligible, err := e.CanEarn(ctx, ev.Discussion.Starter, ev.Discussion)
	if err != nil {
		return err
	}
	if eligible {
		if _, err := e.Award(ctx, ev.Discussion.Starter, e.cfg.MoneyForDiscussion); err != nil {
			return err
		}
	}

	e.cascadePosts(ctx, ev.Discussion, 1)
	return nil
}

func (e *Engine) handleDiscussionHidden(ctx context.Context, ev domain.DiscussionHidden) error {
	if e.cfg.AutoRemove != domain.AutoRemoveOnHide || ev.Discussion == nil {
		return nil
	}

	// Removal deliberately skips the eligibility re-check: the deduction
	// mirrors an award that was already vetted when it was granted.
	if _, err := e.Award(ctx, ev.Discussion.Starter, -e.cfg.MoneyForDiscussion); err != nil {
		return err
	}

	e.cascadePosts(ctx, ev.Discussion, -1)
	return nil
}

func (e *Engine) handleDiscussionDeleted(ctx context.Context, ev domain.DiscussionDeleted) error {
	if e.cfg.AutoRemove != domain.AutoRemoveOnDelete || ev.Discussion == nil {
		return nil
	}

	if _, err := e.Award(ctx, ev.Discussion.Starter, -e.cfg.MoneyForDiscussion); err != nil {
		return err
	}

	e.cascadePosts(ctx, ev.Discussion, -1)
	return nil
}

func (e *Engine) handlePostLiked(ctx context.Context, ev domain.PostLiked) error {
	if ev.Post == nil {
		return nil
	}
	// Likes carry no per-tag eligibility veto, only post rewards do.
	_, err := e.Award(ctx, ev.Post.Owner, e.cfg.MoneyForLike)
	return err
}

func (e *Engine) handlePostUnliked(ctx context.Context, ev domain.PostUnliked) error {
	if ev.Post == nil {
		return nil
	}
	_, err := e.Award(ctx, ev.Post.Owner, -e.cfg.MoneyForLike)
	return err
}

// handleAccountSaving intercepts account edits that touch the money field.
// The actor needs the edit_money capability over the target; a denied edit
// propagates as an error and no mutation happens.
func (e *Engine) handleAccountSaving(ctx context.Context, ev domain.AccountSaving) error {
	raw, present := ev.Attributes["money"]
	if !present || ev.Account == nil {
		return nil
	}

	balance, err := parseMoneyAttribute(raw)
	if err != nil {
		return err
	}

	if err := e.permissions.Can(ctx, ev.Actor, EditMoneyCapability, ev.Account); err != nil {
		return err
	}

	updated, err := e.accounts.SetBalance(ctx, ev.Account.ID, balance)
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}

	e.publishBalanceChanged(ctx, updated)
	return nil
}

// cascadePosts mirrors, per qualifying post, the reward the post originally
// earned, scaled by +1 (reinstate) or -1 (reverse). Per-post failures are
// logged and skipped so one bad row does not abort the rest of the sweep.
func (e *Engine) cascadePosts(ctx context.Context, discussion *domain.Discussion, multiplier float64) {
	if !e.cfg.CascadeRemove {
		return
	}

	for _, post := range discussion.Posts {
		if post == nil || post.Kind != domain.PostKindComment || post.Number <= 1 || !post.Visible() {
			continue
		}
		if !e.meetsMinimumLength(post.Content) {
			continue
		}
		if err := e.AwardForPost(ctx, post.Owner, multiplier*e.cfg.MoneyForPost, post); err != nil {
			slog.Error("Cascade award failed", "post_id", post.ID, "error", err)
		}
	}
}

// reversiblePost reports whether a hide/restore/delete transition on the post
// should move money under the configured auto-remove mode.
func (e *Engine) reversiblePost(post *domain.Post, mode domain.AutoRemoveMode) bool {
	if e.cfg.AutoRemove != mode || post == nil {
		return false
	}
	return post.Kind == domain.PostKindComment && e.meetsMinimumLength(post.Content)
}

func (e *Engine) meetsMinimumLength(content string) bool {
	normalized := NormalizeContent(content, e.cfg.IgnoreMentions)
	return utf8.RuneCountInString(normalized) >= e.cfg.PostMinimumLength
}

func (e *Engine) publishBalanceChanged(ctx context.Context, account *domain.Account) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.PublishBalanceChanged(ctx, account); err != nil {
		slog.Warn("Failed to publish balance change", "account_id", account.ID, "error", err)
	}
}

func parseMoneyAttribute(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		value, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid money attribute %q", v)
		}
		return value, nil
	default:
		return 0, fmt.Errorf("invalid money attribute type %T", raw)
	}
}
