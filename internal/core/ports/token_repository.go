package ports

import "context"

// TokenRepository persists the durable one-token-per-user binding.
type TokenRepository interface {
	// GetOrCreate stores candidate as the user's token iff the user has no
	// token yet, and returns whichever key ends up bound. The upsert must be
	// atomic so concurrent logins observe a single winner.
	GetOrCreate(ctx context.Context, userID, candidate string) (string, error)

	// UserIDByKey resolves a presented token back to its owner. Unknown
	// tokens return domain.ErrInvalidCredentials.
	UserIDByKey(ctx context.Context, key string) (string, error)
}
