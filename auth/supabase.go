package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SupabaseVerifier asks the auth service who owns a token
type SupabaseVerifier struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

func NewSupabaseVerifier(baseURL, anonKey string, timeout time.Duration) *SupabaseVerifier {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &SupabaseVerifier{
		baseURL:    strings.TrimRight(baseURL, "/"),
		anonKey:    anonKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type supabaseUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (v *SupabaseVerifier) Verify(ctx context.Context, token string) (Session, error) {
	if v.baseURL == "" || v.anonKey == "" {
		return Session{}, authErrors.New(ErrVerifierSetup)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return Session{}, authErrors.NewWithCause(ErrUpstream, err)
	}
	req.Header.Set("apikey", v.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return Session{}, authErrors.NewWithCause(ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Session{}, authErrors.New(ErrUnauthorized).WithDetail("status", resp.StatusCode)
	}

	var user supabaseUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return Session{}, authErrors.NewWithCause(ErrUpstream, fmt.Errorf("decode user: %w", err))
	}
	id, err := uuid.Parse(user.ID)
	if err != nil {
		return Session{}, authErrors.NewWithCause(ErrUnauthorized, err)
	}
	return Session{UserID: id, Email: user.Email, Role: user.Role}, nil
}
