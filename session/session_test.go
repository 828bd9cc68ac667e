package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoginAndClear(t *testing.T) {
	ctx := context.Background()
	sess := New(NewMemoryStore())

	require.NoError(t, sess.SaveLogin(ctx, "tok-1", UserTypeProducer))

	token, err := sess.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	producer, err := sess.IsProducer(ctx)
	require.NoError(t, err)
	assert.True(t, producer)

	require.NoError(t, sess.Clear(ctx))

	token, err = sess.Token(ctx)
	require.NoError(t, err)
	assert.Empty(t, token)

	// Role falls back to consumer once cleared.
	role, err := sess.UserType(ctx)
	require.NoError(t, err)
	assert.Equal(t, UserTypeConsumer, role)
}

func TestClearKeepsWelcomeFlag(t *testing.T) {
	ctx := context.Background()
	sess := New(NewMemoryStore())

	require.NoError(t, sess.MarkWelcomeSeen(ctx))
	require.NoError(t, sess.SaveLogin(ctx, "tok", ""))
	require.NoError(t, sess.Clear(ctx))

	seen, err := sess.HasSeenWelcome(ctx)
	require.NoError(t, err)
	assert.True(t, seen, "onboarding flag must survive logout")
}

func TestSaveLoginDefaultsToConsumer(t *testing.T) {
	ctx := context.Background()
	sess := New(NewMemoryStore())

	require.NoError(t, sess.SaveLogin(ctx, "tok", ""))
	role, err := sess.UserType(ctx)
	require.NoError(t, err)
	assert.Equal(t, UserTypeConsumer, role)
}

func TestTokenExpired(t *testing.T) {
	ctx := context.Background()

	makeToken := func(exp time.Time) string {
		claims := jwt.MapClaims{"sub": "u1", "exp": exp.Unix()}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
		require.NoError(t, err)
		return signed
	}

	cases := []struct {
		name    string
		token   string
		expired bool
	}{
		{"no token", "", false},
		{"opaque token", "not-a-jwt", false},
		{"future exp", makeToken(time.Now().Add(time.Hour)), false},
		{"past exp", makeToken(time.Now().Add(-time.Hour)), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sess := New(NewMemoryStore())
			if tc.token != "" {
				require.NoError(t, sess.SaveLogin(ctx, tc.token, ""))
			}
			expired, err := sess.TokenExpired(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.expired, expired)
		})
	}
}
