package rules

import (
	"context"

	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
)

// CanEarn decides whether an account may earn or lose money in a discussion.
// Any tag on the discussion for which the account holds the disable-money
// permission vetoes earning. A discussion without tags is always eligible.
// The check applies to every account including administrators; there is no
// privileged bypass.
func (e *Engine) CanEarn(ctx context.Context, account *domain.Account, discussion *domain.Discussion) (bool, error) {
	if account == nil || discussion == nil {
		return false, nil
	}

	for _, tag := range discussion.Tags {
		disabled, err := e.permissions.HasPermission(ctx, account, tag.DisableMoneyPermission())
		if err != nil {
			return false, err
		}
		if disabled {
			return false, nil
		}
	}

	return true, nil
}
