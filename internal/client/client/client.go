package client

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/client/models"
)

// Client is the authentication API.
type Client interface {
	CreateSession(ctx context.Context, email, password string) (models.TokenPair, error)
	VerifyToken(ctx context.Context, token string) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Register(ctx context.Context, r models.Registration) (*models.User, error)
	Activate(ctx context.Context, uid, token string) error
	ResetPassword(ctx context.Context, email string) error
	ResetPasswordConfirm(ctx context.Context, c models.PasswordResetConfirmation) error
	Me(ctx context.Context) (*models.User, error)
	Close() error
}

// API paths, relative to the base URL.
const (
	PathCreate       = "/auth/jwt/create/"
	PathVerify       = "/auth/jwt/verify/"
	PathRefresh      = "/auth/jwt/refresh/"
	PathUsers        = "/auth/users/"
	PathActivation   = "/auth/users/activation/"
	PathResetRequest = "/auth/users/reset_password/"
	PathResetConfirm = "/auth/users/reset_password_confirm/"
	PathMe           = "/auth/users/me/"
)
