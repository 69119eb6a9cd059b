package services

import (
	"context"
	"math"
	"strconv"
	"time"

	"food-builder/session"
)

const (
	ThrottleCooldownCapSeconds = 30

	keyLoginFailCount     = "login_fail_count"
	keyLoginCooldownUntil = "login_cooldown_until"
)

// LoginThrottle slows down repeated failed sign-ins from one chat. Its state
// lives in the chat's client state store, so it survives restarts.
type LoginThrottle struct {
	store session.Store
	now   func() time.Time
}

func NewLoginThrottle(store session.Store) *LoginThrottle {
	return &LoginThrottle{store: store, now: time.Now}
}

// WaitSeconds returns how many seconds the chat must wait before trying again
// (0 if no cooldown).
func (t *LoginThrottle) WaitSeconds(ctx context.Context) (int, error) {
	raw, ok, err := t.store.Get(ctx, keyLoginCooldownUntil)
	if err != nil || !ok {
		return 0, err
	}
	until, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return 0, nil // unreadable = no throttle
	}
	now := t.now()
	if now.Before(until) {
		return int(until.Sub(now).Seconds()) + 1, nil // round up
	}
	return 0, nil
}

// RecordFailed increments the fail count and sets the cooldown to
// min(30, 2^fail_count) seconds from now.
func (t *LoginThrottle) RecordFailed(ctx context.Context) error {
	count := 0
	if raw, ok, err := t.store.Get(ctx, keyLoginFailCount); err != nil {
		return err
	} else if ok {
		count, _ = strconv.Atoi(raw)
	}
	count++
	until := t.now().Add(time.Duration(CooldownSecondsForFailCount(count)) * time.Second)
	if err := t.store.Set(ctx, keyLoginFailCount, strconv.Itoa(count)); err != nil {
		return err
	}
	return t.store.Set(ctx, keyLoginCooldownUntil, until.UTC().Format(time.RFC3339Nano))
}

// RecordSuccess resets the fail count and cooldown.
func (t *LoginThrottle) RecordSuccess(ctx context.Context) error {
	return t.store.Delete(ctx, keyLoginFailCount, keyLoginCooldownUntil)
}

// CooldownSecondsForFailCount returns min(30, 2^failCount).
func CooldownSecondsForFailCount(failCount int) int {
	s := int(math.Pow(2, float64(failCount)))
	if s > ThrottleCooldownCapSeconds || s <= 0 {
		return ThrottleCooldownCapSeconds
	}
	return s
}
