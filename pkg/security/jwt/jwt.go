// Package jwt issues and verifies the access and refresh tokens of paperqa.
//
// Usage:
//
//	j, err := jwt.New(opts, nil)
//	pair, err := j.Issue(ctx, "42", map[string]any{"role": "admin"})
//	claims, err := j.Verify(ctx, pair.AccessToken)
package jwt

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v4"
	"github.com/kart-io/logger"

	jwtopts "github.com/kart-io/paperqa/pkg/options/jwt"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

// Token kinds carried in the "typ" claim.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// Claims is the verified content of a token.
type Claims struct {
	Subject   string
	Kind      string
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Extra     map[string]any
}

// TokenPair is the result of Issue and Refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type customClaims struct {
	gojwt.RegisteredClaims
	Kind  string         `json:"typ"`
	Extra map[string]any `json:"extra,omitempty"`
}

// JWT signs and verifies tokens with an HMAC key.
type JWT struct {
	opts   *jwtopts.Options
	method gojwt.SigningMethod
	store  Store
	now    func() time.Time
}

// New creates a JWT. store may be nil, in which case refresh tokens can be
// reused until they expire.
func New(opts *jwtopts.Options, store Store) (*JWT, error) {
	if opts == nil {
		return nil, fmt.Errorf("jwt options cannot be nil")
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, errs[0]
	}
	method := gojwt.GetSigningMethod(opts.SigningMethod)
	if method == nil {
		return nil, fmt.Errorf("unsupported signing method: %s", opts.SigningMethod)
	}
	return &JWT{opts: opts, method: method, store: store, now: time.Now}, nil
}

// Issue returns a new access and refresh token for subject.
func (j *JWT) Issue(ctx context.Context, subject string, extra map[string]any) (*TokenPair, error) {
	access, err := j.sign(subject, KindAccess, j.opts.Expired, extra)
	if err != nil {
		return nil, err
	}
	refresh, err := j.sign(subject, KindRefresh, j.opts.MaxRefresh, extra)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(j.opts.Expired.Seconds()),
	}, nil
}

// Verify parses an access token.
func (j *JWT) Verify(ctx context.Context, token string) (*Claims, error) {
	return j.verify(ctx, token, KindAccess)
}

// Refresh exchanges a refresh token for a new pair. The old refresh token is
// revoked when a store is configured.
func (j *JWT) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := j.verify(ctx, refreshToken, KindRefresh)
	if err != nil {
		return nil, err
	}
	if j.store != nil {
		if err := j.store.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt)); err != nil {
			logger.Warnw("failed to revoke refresh token", "jti", claims.ID, "error", err.Error())
		}
	}
	return j.Issue(ctx, claims.Subject, claims.Extra)
}

func (j *JWT) sign(subject, kind string, ttl time.Duration, extra map[string]any) (string, error) {
	jti, err := generateTokenID()
	if err != nil {
		return "", err
	}
	now := j.now()
	claims := &customClaims{
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    j.opts.Issuer,
			IssuedAt:  gojwt.NewNumericDate(now),
			NotBefore: gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(ttl)),
			ID:        jti,
		},
		Kind:  kind,
		Extra: extra,
	}
	s, err := gojwt.NewWithClaims(j.method, claims).SignedString([]byte(j.opts.Key))
	if err != nil {
		return "", errno.ErrInternal.WithCause(err).WithMessage("failed to sign token")
	}
	return s, nil
}

func (j *JWT) verify(ctx context.Context, token, kind string) (*Claims, error) {
	if token == "" {
		return nil, errno.ErrInvalidToken.WithMessage("token is empty")
	}

	parser := gojwt.NewParser(gojwt.WithValidMethods([]string{j.method.Alg()}))
	parsed, err := parser.ParseWithClaims(token, &customClaims{}, func(*gojwt.Token) (any, error) {
		return []byte(j.opts.Key), nil
	})
	if err != nil {
		return nil, mapParseError(err)
	}
	c, ok := parsed.Claims.(*customClaims)
	if !ok || !parsed.Valid {
		return nil, errno.ErrInvalidToken
	}
	if c.Kind != kind {
		return nil, errno.ErrInvalidToken.WithMessage("unexpected token type")
	}
	if j.opts.Issuer != "" && c.Issuer != j.opts.Issuer {
		return nil, errno.ErrInvalidToken.WithMessage("unexpected issuer")
	}

	if j.store != nil {
		revoked, err := j.store.IsRevoked(ctx, c.ID)
		if err != nil {
			return nil, errno.ErrInternal.WithCause(err).WithMessage("failed to check token revocation")
		}
		if revoked {
			return nil, errno.ErrInvalidToken.WithMessage("token has been revoked")
		}
	}

	out := &Claims{
		Subject: c.Subject,
		Kind:    c.Kind,
		ID:      c.ID,
		Extra:   c.Extra,
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out, nil
}

// mapParseError maps jwt parse errors to Errnos.
func mapParseError(err error) *errno.Errno {
	var ve *gojwt.ValidationError
	if errors.As(err, &ve) {
		switch {
		case ve.Errors&gojwt.ValidationErrorExpired != 0:
			return errno.ErrTokenExpired
		case ve.Errors&gojwt.ValidationErrorSignatureInvalid != 0:
			return errno.ErrInvalidToken.WithMessage("invalid signature")
		case ve.Errors&gojwt.ValidationErrorMalformed != 0:
			return errno.ErrInvalidToken.WithMessage("malformed token")
		case ve.Errors&gojwt.ValidationErrorNotValidYet != 0:
			return errno.ErrInvalidToken.WithMessage("token not valid yet")
		}
	}
	return errno.ErrInvalidToken.WithCause(err)
}

func generateTokenID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", errno.ErrInternal.WithCause(err).WithMessage("failed to generate token ID")
	}
	return hex.EncodeToString(b), nil
}
