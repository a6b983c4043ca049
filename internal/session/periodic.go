package session

import (
	"context"
	"time"

	"storefront-client/internal/auth"
)

// Run performs the proactive expiry check every CheckInterval and once
// immediately whenever the session becomes authenticated. It returns when ctx
// is done.
func (c *Controller) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	if c.Snapshot().Authenticated {
		c.checkAndLog(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.becameAuthenticated:
			c.checkAndLog(ctx)
		case <-ticker.C:
			c.checkAndLog(ctx)
		}
	}
}

func (c *Controller) checkAndLog(ctx context.Context) {
	if _, err := c.CheckExpiry(ctx); err != nil {
		c.log.Warn("proactive refresh failed", "err", err)
	}
}

// CheckExpiry refreshes the token pair when the access token expires within
// the lookahead window and has not expired yet. A failed refresh forces a full
// Logout, except when ctx was cancelled or the session changed while the
// refresh was in flight. It reports whether a refresh happened.
func (c *Controller) CheckExpiry(ctx context.Context) (bool, error) {
	if !c.Snapshot().Authenticated {
		return false, nil
	}
	access, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return false, err
	}
	refresh, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return false, err
	}
	if access == "" || refresh == "" {
		return false, nil
	}

	exp, ok := auth.TokenExpiration(access)
	if !ok {
		return false, nil
	}
	remaining := exp.Sub(c.inspector.Now())
	if remaining <= 0 || remaining >= c.lookahead {
		return false, nil
	}

	c.logFor(ctx).Debug("access token near expiry; refreshing", "remaining", remaining.String())
	if _, err := c.Refresh(ctx, TriggerPeriodic); err != nil {
		if abandoned(ctx, err) || IsKind(err, KindSuperseded) {
			return false, err
		}
		if lerr := c.Logout(ctx); lerr != nil {
			c.logFor(ctx).Error("logout after failed refresh", "err", lerr)
		}
		return false, err
	}
	return true, nil
}
