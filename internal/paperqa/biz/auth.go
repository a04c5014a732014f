package biz

import (
	"context"
	"errors"
	"strconv"

	"github.com/kart-io/logger"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/kart-io/paperqa/internal/model"
	"github.com/kart-io/paperqa/internal/paperqa/store"
	"github.com/kart-io/paperqa/pkg/security/jwt"
	errno "github.com/kart-io/paperqa/pkg/utils/errors"
)

// TokenIssuer issues and refreshes token pairs.
type TokenIssuer interface {
	Issue(ctx context.Context, subject string, extra map[string]any) (*jwt.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*jwt.TokenPair, error)
}

// AuthBiz handles authentication business logic.
type AuthBiz struct {
	store  store.Factory
	tokens TokenIssuer
	cost   int
}

// NewAuthBiz creates a new AuthBiz.
func NewAuthBiz(s store.Factory, tokens TokenIssuer) *AuthBiz {
	return &AuthBiz{store: s, tokens: tokens, cost: bcrypt.DefaultCost}
}

// Register creates an active user with the default role.
func (b *AuthBiz) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), b.cost)
	if err != nil {
		return nil, errno.ErrInternal.WithCause(err)
	}

	user := &model.User{
		Username: req.Username,
		Password: string(hashed),
		Email:    req.Email,
		FullName: req.FullName,
		Role:     model.RoleUser,
		Active:   true,
	}
	if err := b.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || b.exists(ctx, req.Username) {
			return nil, errno.ErrAlreadyExists.WithMessage("username already taken")
		}
		return nil, errno.ErrDatabase.WithCause(err)
	}
	logger.Infow("user registered", "username", user.Username, "user_id", user.ID)
	return user, nil
}

// Login authenticates a user and returns a token pair.
func (b *AuthBiz) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error) {
	user, err := b.store.Users().Get(ctx, req.Username)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, errno.ErrInvalidCredentials
		}
		return nil, errno.ErrDatabase.WithCause(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errno.ErrInvalidCredentials
	}
	if !user.Active {
		return nil, errno.ErrAccountDisabled
	}

	pair, err := b.tokens.Issue(ctx, strconv.FormatUint(user.ID, 10), map[string]any{
		"username": user.Username,
		"role":     user.Role,
	})
	if err != nil {
		return nil, err
	}
	return toTokenPair(pair), nil
}

// Refresh exchanges a refresh token for a new pair.
func (b *AuthBiz) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	pair, err := b.tokens.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	return toTokenPair(pair), nil
}

func (b *AuthBiz) exists(ctx context.Context, username string) bool {
	_, err := b.store.Users().Get(ctx, username)
	return err == nil
}

func toTokenPair(p *jwt.TokenPair) *model.TokenPair {
	return &model.TokenPair{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    p.ExpiresIn,
	}
}
