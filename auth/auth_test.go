package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer   abc ", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		got, err := BearerToken(tt.header)
		if !tt.ok {
			assert.True(t, errx.IsCode(err, ErrMissingToken), tt.header)
			continue
		}
		require.NoError(t, err, tt.header)
		assert.Equal(t, tt.token, got)
	}
}

func TestJWTVerifier(t *testing.T) {
	v := NewJWTVerifier("top-secret", "authenticated")
	userID := uuid.New()

	valid, err := v.SignToken(JWTClaims{
		Email: "ana@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	require.NoError(t, err)

	expired, err := v.SignToken(JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID.String(),
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	}})
	require.NoError(t, err)

	other, err := NewJWTVerifier("other-secret", "").SignToken(JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   userID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	require.NoError(t, err)

	notUUID, err := v.SignToken(JWTClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "service-role",
		Audience:  jwt.ClaimStrings{"authenticated"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}})
	require.NoError(t, err)

	s, err := v.Verify(context.Background(), valid)
	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, "ana@example.com", s.Email)

	for name, tok := range map[string]string{"expired": expired, "wrong key": other, "subject": notUUID, "garbage": "x.y.z"} {
		_, err := v.Verify(context.Background(), tok)
		assert.True(t, errx.IsCode(err, ErrUnauthorized), name)
	}
}

func TestJWTVerifier_NoSecret(t *testing.T) {
	_, err := NewJWTVerifier("", "").Verify(context.Background(), "abc")
	assert.True(t, errx.IsCode(err, ErrVerifierSetup))
}

func TestSupabaseVerifier(t *testing.T) {
	userID := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/user", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"` + userID.String() + `","email":"a@b.c","role":"authenticated"}`))
	}))
	defer srv.Close()

	v := NewSupabaseVerifier(srv.URL+"/", "anon", time.Second)

	s, err := v.Verify(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, userID, s.UserID)
	assert.Equal(t, "authenticated", s.Role)

	_, err = v.Verify(context.Background(), "bad")
	assert.True(t, errx.IsCode(err, ErrUnauthorized))
}

func TestSupabaseVerifier_Unreachable(t *testing.T) {
	v := NewSupabaseVerifier("http://127.0.0.1:1", "anon", 200*time.Millisecond)
	_, err := v.Verify(context.Background(), "tok")
	assert.True(t, errx.IsCode(err, ErrUpstream))
	assert.Equal(t, http.StatusUnauthorized, errx.StatusOf(err))
}

func TestAuthenticateAndChain(t *testing.T) {
	want := Session{UserID: uuid.New()}
	failing := VerifierFunc(func(context.Context, string) (Session, error) {
		return Session{}, errors.New("nope")
	})
	passing := VerifierFunc(func(_ context.Context, tok string) (Session, error) {
		if tok == "t" {
			return want, nil
		}
		return Session{}, authErrors.New(ErrUnauthorized)
	})

	got, err := Authenticate(context.Background(), Chain{failing, passing}, "Bearer t")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Authenticate(context.Background(), Chain{failing, passing}, "Bearer x")
	assert.True(t, errx.IsCode(err, ErrUnauthorized))

	_, err = Authenticate(context.Background(), nil, "Bearer t")
	assert.True(t, errx.IsCode(err, ErrVerifierSetup))

	_, err = Authenticate(context.Background(), Chain{}, "Bearer t")
	assert.True(t, errx.IsCode(err, ErrVerifierSetup))
}

func TestSessionContext(t *testing.T) {
	s := Session{UserID: uuid.New()}
	ctx := WithSession(context.Background(), s)
	got, ok := SessionFrom(ctx)
	assert.True(t, ok)
	assert.Equal(t, s, got)
	assert.True(t, Session{}.IsSystem())
}
