package identity

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"atelier/internal/store/local"
	id "atelier/pkg/domain"
	dErrors "atelier/pkg/domain-errors"
	"atelier/pkg/requestcontext"
)

const signingKey = "test-signing-key"

func mintToken(t *testing.T, subject, key string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func TestResolveUserFromValidToken(t *testing.T) {
	resolver := NewResolver(local.NewMemoryCache(), signingKey)
	subject := "7b4a3a1e-9d0f-4c9a-8b1f-2f6f6b6a5c4d"
	token := mintToken(t, subject, signingKey, time.Hour)
	ctx := requestcontext.WithAuthToken(context.Background(), token)

	principal, err := resolver.Resolve(ctx)
	require.NoError(t, err)

	user, ok := principal.(User)
	require.True(t, ok)
	assert.Equal(t, subject, user.UserID.String())
	assert.Equal(t, token, user.AuthToken)
}

func TestResolveFallsBackToGuest(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "no token",
			token: func(t *testing.T) string { return "" },
		},
		{
			name: "expired token",
			token: func(t *testing.T) string {
				return mintToken(t, "7b4a3a1e-9d0f-4c9a-8b1f-2f6f6b6a5c4d", signingKey, -time.Hour)
			},
		},
		{
			name: "wrong key",
			token: func(t *testing.T) string {
				return mintToken(t, "7b4a3a1e-9d0f-4c9a-8b1f-2f6f6b6a5c4d", "other-key", time.Hour)
			},
		},
		{
			name: "subject is not a user id",
			token: func(t *testing.T) string {
				return mintToken(t, "not-a-uuid", signingKey, time.Hour)
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resolver := NewResolver(local.NewMemoryCache(), signingKey)
			ctx := context.Background()
			if token := tc.token(t); token != "" {
				ctx = requestcontext.WithAuthToken(ctx, token)
			}
			ctx = requestcontext.WithClientIP(ctx, "203.0.113.9")

			principal, err := resolver.Resolve(ctx)
			require.NoError(t, err)

			guest, ok := principal.(Guest)
			require.True(t, ok)
			assert.True(t, guest.DeviceID.IsGuest())
			assert.Equal(t, "203.0.113.9", guest.ApproximateNetworkAddress)
		})
	}
}

func TestDeviceIDMintedOnceAndPersisted(t *testing.T) {
	cache := local.NewMemoryCache()
	resolver := NewResolver(cache, signingKey)
	ctx := context.Background()

	first, err := resolver.Resolve(ctx)
	require.NoError(t, err)
	second, err := resolver.Resolve(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.(Guest).DeviceID, second.(Guest).DeviceID)

	stored, err := cache.DeviceID(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.(Guest).DeviceID, stored)

	// A fresh resolver on the same device reuses the persisted ID.
	other := NewResolver(cache, signingKey)
	third, err := other.Resolve(ctx)
	require.NoError(t, err)
	assert.Equal(t, stored, third.(Guest).DeviceID)
}

func TestValidateRejectionCodes(t *testing.T) {
	resolver := NewResolver(local.NewMemoryCache(), signingKey)

	_, err := resolver.validate(mintToken(t, "x", signingKey, -time.Minute))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))

	_, err = resolver.validate("garbage")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestDescribeDevice(t *testing.T) {
	ctx := requestcontext.WithUserAgent(context.Background(),
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")

	desc := DescribeDevice(ctx)
	assert.Equal(t, "Safari", desc.Browser)
	assert.True(t, desc.Mobile)

	assert.Equal(t, DeviceDescriptor{}, DescribeDevice(context.Background()))
}

func TestProvisioningLogsDeviceDescriptor(t *testing.T) {
	var buf bytes.Buffer
	resolver := NewResolver(local.NewMemoryCache(), signingKey,
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	ctx := requestcontext.WithUserAgent(context.Background(),
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")

	principal, err := resolver.Resolve(ctx)
	require.NoError(t, err)
	_, ok := principal.(Guest)
	require.True(t, ok)

	logged := buf.String()
	assert.Contains(t, logged, "guest device provisioned")
	assert.Contains(t, logged, "browser=Safari")
	assert.Contains(t, logged, "mobile=true")

	// Only the first resolution provisions; the next one is silent.
	buf.Reset()
	_, err = resolver.Resolve(ctx)
	require.NoError(t, err)
	assert.Empty(t, buf.String())
}

func TestGuestDeviceIDFormat(t *testing.T) {
	deviceID := id.NewDeviceID()
	parsed, err := id.ParseDeviceID(deviceID.String())
	require.NoError(t, err)
	assert.Equal(t, deviceID, parsed)
}
