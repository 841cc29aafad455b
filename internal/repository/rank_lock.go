package repository

import (
	"context"
)

// RankLocker serialises rank assignment for one (user, provider) pair.
// Implementations: in-process (single instance) or Redis (several instances
// sharing one database).
type RankLocker interface {
	// Lock blocks until the key is held or ctx is done. The returned func
	// releases the key and must be called exactly once.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func rankLockKey(userID, providerID string) string {
	return "connhub:rank:" + userID + "\x00" + providerID
}

type nopRankLocker struct{}

// NopRankLocker relies on the database alone for rank serialisation.
func NopRankLocker() RankLocker { return nopRankLocker{} }

func (nopRankLocker) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}
