package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"guardx/internal/common"
	"guardx/internal/common/security"
	"guardx/internal/domain/model"
	"guardx/internal/domain/repository"
)

const TokenTypeBearer = "bearer"

type AuthService struct {
	userRepo repository.UserRepository
	tokens   *security.TokenIssuer
}

func NewAuthService(userRepo repository.UserRepository, tokens *security.TokenIssuer) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string          `json:"access_token"`
	TokenType   string          `json:"token_type"`
	UserInfo    model.UserInfo  `json:"user_info"`
	Clearance   model.Clearance `json:"clearance_level"`
	Unit        string          `json:"unit"`
}

// Authenticate checks a username and password against the credential
// table. Unknown users and wrong passwords are indistinguishable.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	if username == "" || password == "" {
		return nil, common.ErrUnauthorized
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !security.CheckPasswordHash(password, user.HashedPassword) {
		return nil, common.ErrUnauthorized
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			slog.Warn("Login rejected", "username", req.Username)
		}
		return nil, err
	}

	token, err := s.tokens.GenerateToken(user.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	slog.Info("Login succeeded", "username", user.Username, "clearance", user.Clearance)
	return &LoginResponse{
		AccessToken: token,
		TokenType:   TokenTypeBearer,
		UserInfo:    user.Info(),
		Clearance:   user.Clearance,
		Unit:        user.Unit,
	}, nil
}

// UserFromSubject resolves a verified token subject. Subjects that are no
// longer in the credential table are unauthorized.
func (s *AuthService) UserFromSubject(ctx context.Context, username string) (*model.User, error) {
	if username == "" {
		return nil, common.ErrUnauthorized
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("unknown token subject %q: %w", username, common.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// CurrentUser verifies a raw bearer token and resolves its user.
func (s *AuthService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	username, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, err
	}
	return s.UserFromSubject(ctx, username)
}
