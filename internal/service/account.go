package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/event-management/internal/model"
	"github.com/Shivanand-hulikatti/event-management/internal/notify"
	"github.com/Shivanand-hulikatti/event-management/internal/repository"
	"github.com/rs/zerolog"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues access tokens for authenticated users.
type TokenIssuer interface {
	Generate(userID string, role model.Role) (string, error)
}

// AccountService creates users and exchanges credentials for tokens.
type AccountService struct {
	users    repository.UserStore
	hasher   PasswordHasher
	tokens   TokenIssuer
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(
	users repository.UserStore,
	hasher PasswordHasher,
	tokens TokenIssuer,
	notifier notify.Notifier,
	logger zerolog.Logger,
) *AccountService {
	return &AccountService{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		notifier: notifier,
		logger:   logger.With().Str("component", "accounts").Logger(),
	}
}

// SignUp creates a user. The role defaults to attendee.
func (s *AccountService) SignUp(ctx context.Context, req model.SignUpRequest) (*model.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Role == "" {
		req.Role = model.RoleAttendee
	}
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         req.Role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			s.logger.Warn().Str("email", req.Email).Msg("sign-up with existing email")
			return nil, repository.ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	s.notifier.Notify(ctx, notify.Welcome(user))
	return user, nil
}

// Login verifies credentials and issues a token.
func (s *AccountService) Login(ctx context.Context, req model.LoginRequest) (*model.LoginResult, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	user, err := s.users.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn().Str("email", req.Email).Msg("login with unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		s.logger.Warn().Str("user_id", user.ID).Msg("failed login attempt")
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("user logged in")
	return &model.LoginResult{
		Token:  token,
		UserID: user.ID,
		Email:  user.Email,
		Name:   user.Name,
		Role:   user.Role,
	}, nil
}
