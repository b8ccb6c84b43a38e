package auth

import (
	"context"
	"time"

	"github.com/MMagesh23/AMS/internal/apperr"
	"github.com/MMagesh23/AMS/internal/model"
)

// UserStore is the slice of the user table the auth service needs.
type UserStore interface {
	GetUserByUserID(ctx context.Context, userID string) (*model.User, error)
	CreateUser(ctx context.Context, user model.User) (model.User, error)
	UpdateUserPassword(ctx context.Context, id, passwordHash string) error
}

// Service handles registration, login and password changes.
type Service struct {
	users      UserStore
	issuer     string
	signingKey string
	tokenTTL   time.Duration
}

// NewService creates an auth service.
func NewService(users UserStore, issuer, signingKey string, tokenTTL time.Duration) *Service {
	return &Service{users: users, issuer: issuer, signingKey: signingKey, tokenTTL: tokenTTL}
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string     `json:"token"`
	Role      model.Role `json:"role"`
	ExpiresAt time.Time  `json:"expiresAt"`
}

// RegisterAdmin creates an admin account. Hidden route in the original app.
func (s *Service) RegisterAdmin(ctx context.Context, userID, password, confirm string) error {
	if userID == "" || password == "" {
		return apperr.Validation("userID and password required")
	}
	if password != confirm {
		return apperr.Validation("passwords don't match")
	}
	existing, err := s.users.GetUserByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return apperr.Conflict("admin already exists")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	_, err = s.users.CreateUser(ctx, model.User{UserID: userID, PasswordHash: hash, Role: model.RoleAdmin})
	return err
}

// Login authenticates an admin or teacher and issues a token.
func (s *Service) Login(ctx context.Context, userID, password string) (LoginResult, error) {
	user, err := s.users.GetUserByUserID(ctx, userID)
	if err != nil {
		return LoginResult{}, err
	}
	if user == nil {
		return LoginResult{}, apperr.NotFound("user not found")
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return LoginResult{}, apperr.Unauthorized("invalid credentials")
	}
	token, exp, err := Issue(user.ID, user.Role, s.issuer, s.signingKey, s.tokenTTL)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, Role: user.Role, ExpiresAt: exp}, nil
}

// ChangeAdminPassword updates an admin account's password.
func (s *Service) ChangeAdminPassword(ctx context.Context, userID, newPassword, confirm string) error {
	if newPassword == "" {
		return apperr.Validation("new password required")
	}
	if newPassword != confirm {
		return apperr.Validation("passwords do not match")
	}
	user, err := s.users.GetUserByUserID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil || user.Role != model.RoleAdmin {
		return apperr.NotFound("admin not found")
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdateUserPassword(ctx, user.ID, hash)
}
