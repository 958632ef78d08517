package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Tier identifies which source supplied a resolved location.
type Tier int

const (
	FromMessage Tier = iota + 1
	FromUserConfig
	FromSystemDefault
)

func (t Tier) String() string {
	switch t {
	case FromMessage:
		return "message"
	case FromUserConfig:
		return "user_config"
	case FromSystemDefault:
		return "system_default"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MarshalText encodes the tier by name for JSON payloads and headers.
func (t Tier) MarshalText() ([]byte, error) {
	switch t {
	case FromMessage, FromUserConfig, FromSystemDefault:
		return []byte(t.String()), nil
	default:
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
}

// UnmarshalText decodes a tier name written by MarshalText.
func (t *Tier) UnmarshalText(b []byte) error {
	switch string(b) {
	case "message":
		*t = FromMessage
	case "user_config":
		*t = FromUserConfig
	case "system_default":
		*t = FromSystemDefault
	default:
		return fmt.Errorf("unknown tier %q", b)
	}
	return nil
}

// ResolutionResult is the outcome of Resolve. Location is never empty.
type ResolutionResult struct {
	Location string `json:"location"`
	Tier     Tier   `json:"tier"`
	Matched  string `json:"matched,omitempty"` // text that matched, FromMessage only
	Method   Method `json:"-"`
}

// Resolver picks the location for a diary entry: the message text first, then
// the user's saved default, then the system default.
type Resolver struct {
	dict          *Dictionary
	lookup        UserConfigLookup
	systemDefault string
	lookupTimeout time.Duration
	logger        *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLookupTimeout bounds each user config lookup. A lookup that times out
// counts as "no saved default".
func WithLookupTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.lookupTimeout = d }
}

// NewResolver creates a Resolver. lookup may be nil, which skips the user
// config tier. systemDefault must not be blank.
func NewResolver(dict *Dictionary, lookup UserConfigLookup, systemDefault string, logger *slog.Logger, opts ...ResolverOption) (*Resolver, error) {
	systemDefault = strings.TrimSpace(systemDefault)
	if systemDefault == "" {
		return nil, ErrEmptySystemDefault
	}
	if dict == nil {
		dict = NewDictionary()
	}
	if logger == nil {
		logger = slog.Default()
	}
	r := &Resolver{
		dict:          dict,
		lookup:        lookup,
		systemDefault: systemDefault,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Dictionary returns the dictionary the resolver scans.
func (r *Resolver) Dictionary() *Dictionary { return r.dict }

// SystemDefault returns the tier 3 location.
func (r *Resolver) SystemDefault() string { return r.systemDefault }

// Resolve returns the location for message written by userID. An empty or
// whitespace-only message is treated as no message. Resolve does not fail:
// a lookup error is logged and treated as no saved default.
func (r *Resolver) Resolve(ctx context.Context, message, userID string) ResolutionResult {
	if !isBlank(message) {
		if ex, ok := r.dict.Extract(message); ok {
			return ResolutionResult{
				Location: ex.Entry.CanonicalID,
				Tier:     FromMessage,
				Matched:  ex.Matched,
				Method:   ex.Method,
			}
		}
	}

	if loc, ok := r.savedDefault(ctx, userID); ok {
		return ResolutionResult{Location: loc, Tier: FromUserConfig}
	}

	return ResolutionResult{Location: r.systemDefault, Tier: FromSystemDefault}
}

// savedDefault reads the user's stored location. The stored value is trusted
// as canonical and not checked against the dictionary.
func (r *Resolver) savedDefault(ctx context.Context, userID string) (string, bool) {
	if r.lookup == nil || isBlank(userID) {
		return "", false
	}
	if r.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.lookupTimeout)
		defer cancel()
	}

	loc, ok, err := r.lookup.Get(ctx, userID)
	if err != nil {
		r.logger.Warn("user config lookup failed, using system default",
			"user_id", userID,
			"error", err,
		)
		return "", false
	}
	loc = strings.TrimSpace(loc)
	if !ok || loc == "" {
		return "", false
	}
	return loc, true
}
