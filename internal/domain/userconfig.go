package domain

import "context"

// UserConfigLookup reads the default location a user saved earlier.
// ok is false when the user never set one. Implementations must be safe
// for concurrent use.
type UserConfigLookup interface {
	Get(ctx context.Context, userID string) (location string, ok bool, err error)
}

// UserConfigStore is the full config collaborator used by the location
// command. The resolver only ever reads.
type UserConfigStore interface {
	UserConfigLookup
	Set(ctx context.Context, userID, location string) error
	Delete(ctx context.Context, userID string) error
}
