package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/Abraxas-365/crmturbo/errx"
	"github.com/google/uuid"
)

var (
	authErrors = errx.NewRegistry("AUTH")

	ErrUnauthorized  = authErrors.Register("UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Unauthorized")
	ErrMissingToken  = authErrors.Register("MISSING_TOKEN", errx.TypeAuthorization, http.StatusUnauthorized, "Unauthorized")
	ErrVerifierSetup = authErrors.Register("VERIFIER_SETUP", errx.TypeInternal, http.StatusInternalServerError, "Token verifier is not configured")
	ErrUpstream      = authErrors.Register("UPSTREAM", errx.TypeUnavailable, http.StatusUnauthorized, "Unauthorized")
)

// SystemUserID owns conversations whose instance has no known user
var SystemUserID = uuid.Nil

// Session identifies the authenticated caller of a request.
// It is passed explicitly to every data operation.
type Session struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// IsSystem reports whether the session is the sentinel owner
func (s Session) IsSystem() bool {
	return s.UserID == SystemUserID
}

// TokenVerifier turns a bearer token into a Session
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (Session, error)
}

// VerifierFunc adapts a function to TokenVerifier
type VerifierFunc func(ctx context.Context, token string) (Session, error)

func (f VerifierFunc) Verify(ctx context.Context, token string) (Session, error) {
	return f(ctx, token)
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", authErrors.New(ErrMissingToken)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", authErrors.New(ErrMissingToken)
	}
	return token, nil
}

// Authenticate verifies an Authorization header with v
func Authenticate(ctx context.Context, v TokenVerifier, header string) (Session, error) {
	token, err := BearerToken(header)
	if err != nil {
		return Session{}, err
	}
	if v == nil {
		return Session{}, authErrors.New(ErrVerifierSetup)
	}
	return v.Verify(ctx, token)
}

// Chain tries each verifier in order and returns the first success
type Chain []TokenVerifier

func (c Chain) Verify(ctx context.Context, token string) (Session, error) {
	var lastErr error = authErrors.New(ErrVerifierSetup)
	for _, v := range c {
		s, err := v.Verify(ctx, token)
		if err == nil {
			return s, nil
		}
		lastErr = err
	}
	return Session{}, lastErr
}

type sessionKey struct{}

// WithSession stores s in ctx
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFrom returns the session stored by WithSession
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
