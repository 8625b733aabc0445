package revocation

import (
	"context"
	"time"
)

// Store records tokens that were invalidated before their natural expiry.
// Entries are keyed by the token's jti and must stop matching once the
// shadowed token would have expired anyway, so the set never grows without
// bound.
type Store interface {
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	Contains(ctx context.Context, jti string) (bool, error)
}
