package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newClaims(issuedAt time.Time, ttl time.Duration) *jwt.RegisteredClaims {
	return &jwt.RegisteredClaims{
		Subject:   "user-1",
		Issuer:    "vivah-auth",
		Audience:  jwt.ClaimStrings{"vivah-booking"},
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		NotBefore: jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
	}
}

func TestJWTAuthenticator_RoundTrip(t *testing.T) {
	a := NewJWTAuthenticator("vivah-booking", "vivah-auth")

	token, err := a.GenerateToken(newClaims(time.Now(), time.Hour), testSecret)
	require.NoError(t, err)

	parsed := &jwt.RegisteredClaims{}
	_, err = a.ValidateTokenWithClaims(token, testSecret, parsed)
	require.NoError(t, err)
	assert.Equal(t, "user-1", parsed.Subject)
}

func TestJWTAuthenticator_Rejects(t *testing.T) {
	issued := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	a := NewJWTAuthenticator("vivah-booking", "vivah-auth").WithClock(func() time.Time { return issued })

	token, err := a.GenerateToken(newClaims(issued, time.Hour), testSecret)
	require.NoError(t, err)

	tests := []struct {
		name    string
		auth    JWTAuthenticator
		token   string
		secret  string
		wantErr error
	}{
		{
			name:    "wrong secret",
			auth:    a,
			token:   token,
			secret:  "another-secret-another-secret-xx",
			wantErr: jwt.ErrTokenSignatureInvalid,
		},
		{
			name:    "garbage",
			auth:    a,
			token:   "not-a-token",
			secret:  testSecret,
			wantErr: jwt.ErrTokenMalformed,
		},
		{
			name:    "expired",
			auth:    a.WithClock(func() time.Time { return issued.Add(2 * time.Hour) }),
			token:   token,
			secret:  testSecret,
			wantErr: jwt.ErrTokenExpired,
		},
		{
			name:    "wrong audience",
			auth:    NewJWTAuthenticator("other", "vivah-auth").WithClock(func() time.Time { return issued }),
			token:   token,
			secret:  testSecret,
			wantErr: jwt.ErrTokenInvalidAudience,
		},
		{
			name:    "issuer used as audience",
			auth:    NewJWTAuthenticator("vivah-auth", "vivah-auth").WithClock(func() time.Time { return issued }),
			token:   token,
			secret:  testSecret,
			wantErr: jwt.ErrTokenInvalidAudience,
		},
		{
			name:    "wrong issuer",
			auth:    NewJWTAuthenticator("vivah-booking", "other").WithClock(func() time.Time { return issued }),
			token:   token,
			secret:  testSecret,
			wantErr: jwt.ErrTokenInvalidIssuer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.auth.ValidateTokenWithClaims(tt.token, tt.secret, &jwt.RegisteredClaims{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
