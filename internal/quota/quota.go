// Package quota tracks the per-session daily allowance of case views for
// anonymous readers.
//
// A session's record is {remaining, last_updated}. On every check the record
// is reset to the full allowance if last_updated is at least 24 hours old,
// then decremented if any allowance remains. The check-and-decrement must be
// atomic per session: two simultaneous page loads from the same browser must
// never both be granted the last remaining unit.
package quota

import (
	"context"
	"time"
)

// ResetInterval is how long a session's allowance lasts before it refills.
const ResetInterval = 24 * time.Hour

// SessionTTL is how long an untouched session survives in the store before
// the store's own expiry policy reclaims it.
const SessionTTL = 14 * 24 * time.Hour

// Store is the per-session quota store. Implementations must serialize
// CheckAndDecrement calls for the same key, including calls racing with
// session creation.
type Store interface {
	// Exists reports whether the key carries a quota entry.
	Exists(ctx context.Context, key string) (bool, error)

	// Init creates (or refills) the session with the full allowance.
	Init(ctx context.Context, key string, allowance int, now time.Time) error

	// CheckAndDecrement applies the daily reset if due, then consumes one
	// unit of allowance if any remains. It returns whether the view was
	// granted and the allowance remaining afterwards. A missing or
	// unreadable record is treated as a fresh full-allowance session.
	CheckAndDecrement(ctx context.Context, key string, now time.Time, allowance int) (granted bool, remaining int, err error)
}
