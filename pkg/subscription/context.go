package subscription

import "context"

type levelCtxKey struct{}

type levelCacheEntry struct {
	userID string
	level  SubscriptionLevel
}

// WithLevel stores a resolved level for the given user in the context.
// Intended for request-scoped memoization only: the level depends on the
// current time, so a cached value must never outlive a single request.
func WithLevel(ctx context.Context, userID string, level SubscriptionLevel) context.Context {
	return context.WithValue(ctx, levelCtxKey{}, levelCacheEntry{userID: userID, level: level})
}

// LevelFromContext retrieves a previously resolved level for the given user.
// Returns false when no level was cached or it belongs to a different user.
func LevelFromContext(ctx context.Context, userID string) (SubscriptionLevel, bool) {
	entry, ok := ctx.Value(levelCtxKey{}).(levelCacheEntry)
	if !ok || entry.userID != userID {
		return "", false
	}
	return entry.level, true
}
