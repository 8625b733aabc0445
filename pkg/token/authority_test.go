package token_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"diarychat/pkg/token"
)

type memStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]time.Time)}
}

func (s *memStore) Add(_ context.Context, jti string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[jti] = expiresAt
	return nil
}

func (s *memStore) Contains(_ context.Context, jti string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[jti]
	return ok, nil
}

func (s *memStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func newTestAuthority(store *memStore) (*token.Authority, *time.Time) {
	a := token.NewAuthority([]byte("test-secret"), store)
	current := time.Now()
	a.Now = func() time.Time { return current }
	return a, &current
}

func TestIssueAndVerify(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthority(newMemStore())

	access, err := a.IssueAccess("u42")
	assert.NoError(t, err)

	userID, err := a.Verify(ctx, access, token.KindAccess)
	assert.NoError(t, err)
	assert.Equal(t, "u42", userID)

	refresh, err := a.IssueRefresh("u42")
	assert.NoError(t, err)

	userID, err = a.Verify(ctx, refresh, token.KindRefresh)
	assert.NoError(t, err)
	assert.Equal(t, "u42", userID)
}

func TestVerifyExpired(t *testing.T) {
	ctx := context.Background()
	a, now := newTestAuthority(newMemStore())

	access, err := a.IssueAccess("u42")
	assert.NoError(t, err)

	*now = now.Add(a.AccessTTL + time.Minute)

	_, err = a.Verify(ctx, access, token.KindAccess)
	assert.ErrorIs(t, err, token.ErrExpired)

	// The refresh token outlives the access token by design.
	refresh, err := a.IssueRefresh("u42")
	assert.NoError(t, err)
	*now = now.Add(a.RefreshTTL + time.Minute)
	_, err = a.Verify(ctx, refresh, token.KindRefresh)
	assert.ErrorIs(t, err, token.ErrExpired)
}

func TestVerifyGarbage(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthority(newMemStore())

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "not a jwt", raw: "hello there"},
		{name: "truncated", raw: "eyJhbGciOiJIUzI1NiJ9.e30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Verify(ctx, tt.raw, token.KindAccess)
			assert.ErrorIs(t, err, token.ErrInvalid)
		})
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a, _ := newTestAuthority(store)

	other := token.NewAuthority([]byte("other-secret"), store)
	foreign, err := other.IssueAccess("u42")
	assert.NoError(t, err)

	_, err = a.Verify(ctx, foreign, token.KindAccess)
	assert.ErrorIs(t, err, token.ErrInvalid)
}

func TestVerifyWrongKind(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthority(newMemStore())

	access, err := a.IssueAccess("u42")
	assert.NoError(t, err)
	refresh, err := a.IssueRefresh("u42")
	assert.NoError(t, err)

	_, err = a.Verify(ctx, access, token.KindRefresh)
	assert.ErrorIs(t, err, token.ErrWrongKind)

	_, err = a.Verify(ctx, refresh, token.KindAccess)
	assert.ErrorIs(t, err, token.ErrWrongKind)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthority(newMemStore())

	access, err := a.IssueAccess("u42")
	assert.NoError(t, err)

	assert.NoError(t, a.Revoke(ctx, access))

	_, err = a.Verify(ctx, access, token.KindAccess)
	assert.ErrorIs(t, err, token.ErrRevoked)

	// Other tokens of the same user are untouched.
	second, err := a.IssueAccess("u42")
	assert.NoError(t, err)
	userID, err := a.Verify(ctx, second, token.KindAccess)
	assert.NoError(t, err)
	assert.Equal(t, "u42", userID)
}

func TestRevokeExpiredIsNoop(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	a, now := newTestAuthority(store)

	access, err := a.IssueAccess("u42")
	assert.NoError(t, err)

	*now = now.Add(a.AccessTTL + time.Minute)

	assert.NoError(t, a.Revoke(ctx, access))
	assert.Equal(t, 0, store.len())
}

func TestRefresh(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthority(newMemStore())

	refresh, err := a.IssueRefresh("u42")
	assert.NoError(t, err)

	access, err := a.Refresh(ctx, refresh)
	assert.NoError(t, err)

	userID, err := a.Verify(ctx, access, token.KindAccess)
	assert.NoError(t, err)
	assert.Equal(t, "u42", userID)

	// The refresh token is not rotated and keeps working.
	_, err = a.Refresh(ctx, refresh)
	assert.NoError(t, err)
}

func TestRefreshWithAccessToken(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthority(newMemStore())

	access, err := a.IssueAccess("u42")
	assert.NoError(t, err)

	_, err = a.Refresh(ctx, access)
	assert.ErrorIs(t, err, token.ErrWrongKind)
}

func TestRefreshWithRevokedToken(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAuthority(newMemStore())

	refresh, err := a.IssueRefresh("u42")
	assert.NoError(t, err)
	assert.NoError(t, a.Revoke(ctx, refresh))

	_, err = a.Refresh(ctx, refresh)
	assert.ErrorIs(t, err, token.ErrRevoked)
}
