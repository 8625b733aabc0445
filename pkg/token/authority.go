package token

import (
	"context"
	"fmt"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"

	"diarychat/pkg/revocation"
)

const (
	DefaultAccessTTL  = time.Hour
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Authority issues, verifies, refreshes and revokes bearer tokens. Expiry is
// evaluated against Now at the verifying process; no clock skew compensation.
type Authority struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Revoked    revocation.Store
	Now        func() time.Time
}

func NewAuthority(secret []byte, revoked revocation.Store) *Authority {
	return &Authority{
		Secret:     secret,
		AccessTTL:  DefaultAccessTTL,
		RefreshTTL: DefaultRefreshTTL,
		Revoked:    revoked,
		Now:        time.Now,
	}
}

func (a *Authority) IssueAccess(userID string) (string, error) {
	return a.issue(userID, KindAccess, a.AccessTTL)
}

func (a *Authority) IssueRefresh(userID string) (string, error) {
	return a.issue(userID, KindRefresh, a.RefreshTTL)
}

func (a *Authority) issue(userID string, kind Kind, ttl time.Duration) (string, error) {
	now := a.Now().UTC()
	claims := &Claims{
		Kind: kind,
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Secret)
	if err != nil {
		return "", fmt.Errorf("token signing: %w", err)
	}
	return signed, nil
}

// Verify checks signature, kind, expiry and revocation, in that order, and
// returns the subject user id. Callers branch on the error kind: ErrExpired
// is worth a refresh attempt, everything else is a hard reject.
func (a *Authority) Verify(ctx context.Context, raw string, kind Kind) (string, error) {
	claims, err := a.parse(raw)
	if err != nil {
		return "", err
	}

	if claims.Kind != kind {
		return "", ErrWrongKind
	}
	if claims.ExpiresAt <= a.Now().Unix() {
		return "", ErrExpired
	}

	revoked, err := a.Revoked.Contains(ctx, claims.Id)
	if err != nil {
		return "", fmt.Errorf("revocation lookup: %w", err)
	}
	if revoked {
		return "", ErrRevoked
	}

	return claims.Subject, nil
}

// Refresh verifies a refresh token and issues a new access token for the
// same subject. The refresh token itself is not rotated.
func (a *Authority) Refresh(ctx context.Context, rawRefresh string) (string, error) {
	userID, err := a.Verify(ctx, rawRefresh, KindRefresh)
	if err != nil {
		return "", err
	}
	return a.IssueAccess(userID)
}

// Revoke shadows the token in the revocation set for exactly its remaining
// lifetime. Revoking an already-expired token is a no-op.
func (a *Authority) Revoke(ctx context.Context, raw string) error {
	claims, err := a.parse(raw)
	if err != nil {
		return err
	}

	expiresAt := time.Unix(claims.ExpiresAt, 0)
	if !expiresAt.After(a.Now()) {
		return nil
	}
	return a.Revoked.Add(ctx, claims.Id, expiresAt)
}

func (a *Authority) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		method, ok := t.Method.(*jwt.SigningMethodHMAC)
		if !ok || method.Alg() != "HS256" {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return a.Secret, nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" || claims.Id == "" {
		return nil, ErrInvalid
	}
	return claims, nil
}
