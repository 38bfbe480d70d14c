package identity

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/golang-jwt/jwt/v5"

	"atelier/internal/store/ports"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/platform/sentinel"
	"atelier/pkg/requestcontext"
)

// Claims are the token claims the coordinator cares about. The subject
// carries the user ID.
type Claims struct {
	jwt.RegisteredClaims
}

// Resolver decides the acting principal for a request. A valid bearer token
// resolves to a User; anything else resolves to a Guest backed by a lazily
// provisioned device ID.
type Resolver struct {
	cache      ports.LocalCache
	signingKey []byte
	logger     *slog.Logger

	mu       sync.Mutex
	deviceID id.DeviceID
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets a logger for resolution diagnostics.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver constructs a Resolver. signingKey verifies bearer tokens.
func NewResolver(cache ports.LocalCache, signingKey string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		cache:      cache,
		signingKey: []byte(signingKey),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve returns the acting principal. An invalid or expired token is not
// fatal: the caller proceeds as a guest, and the rejection is logged.
func (r *Resolver) Resolve(ctx context.Context) (Principal, error) {
	if token := requestcontext.AuthToken(ctx); token != "" {
		user, err := r.validate(token)
		if err == nil {
			return user, nil
		}
		if r.logger != nil {
			r.logger.WarnContext(ctx, "bearer token rejected, continuing as guest", "error", err)
		}
	}

	deviceID, err := r.ensureDeviceID(ctx)
	if err != nil {
		return nil, err
	}
	return Guest{
		DeviceID:                  deviceID,
		ApproximateNetworkAddress: requestcontext.ClientIP(ctx),
	}, nil
}

func (r *Resolver) validate(token string) (User, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return r.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return User{}, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}

	userID, err := id.ParseUserID(claims.Subject)
	if err != nil {
		return User{}, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token subject is not a user id")
	}
	return User{UserID: userID, AuthToken: token}, nil
}

// ensureDeviceID returns the persisted device ID, minting and persisting one
// on first use. The minted ID is kept in memory so a cache write failure
// does not hand out a different identity on the next call.
func (r *Resolver) ensureDeviceID(ctx context.Context) (id.DeviceID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deviceID != "" {
		return r.deviceID, nil
	}

	stored, err := r.cache.DeviceID(ctx)
	switch {
	case err == nil:
		r.deviceID = stored
		return stored, nil
	case errors.Is(err, sentinel.ErrNotFound):
		// First run on this device.
	default:
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "load device id")
	}

	minted := id.NewDeviceID()
	if err := r.cache.SaveDeviceID(ctx, minted); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "persist device id")
	}
	r.deviceID = minted
	if r.logger != nil {
		device := DescribeDevice(ctx)
		r.logger.InfoContext(ctx, "guest device provisioned",
			"device_id", minted.String(),
			"browser", device.Browser,
			"browser_version", device.BrowserVersion,
			"os", device.OS,
			"mobile", device.Mobile,
		)
	}
	return minted, nil
}
