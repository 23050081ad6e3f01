package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vds/vds-go/internal/crypto"
	"github.com/vds/vds-go/internal/logging"
	"github.com/vds/vds-go/internal/model"
	"github.com/vds/vds-go/internal/repository"
)

const (
	minPasswordLength = 6
	maxPasswordLength = 40
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameRequired   = errors.New("username is required")
	ErrPasswordLength     = fmt.Errorf("password must be %d to %d characters", minPasswordLength, maxPasswordLength)
	ErrUsernameTaken      = errors.New("username already exists")
)

// CredentialRepository is the auth service's credential table.
type CredentialRepository interface {
	Create(ctx context.Context, cred *model.Credential) error
	GetByUsername(ctx context.Context, username string) (*model.Credential, error)
	RecordLogin(ctx context.Context, username string, at time.Time) error
}

// CredentialService handles credential registration and login for the auth service.
type CredentialService struct {
	repo      CredentialRepository
	jwtSecret string
	jwtExpiry time.Duration
	now       func() time.Time
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(repo CredentialRepository, secret string, expiry time.Duration) *CredentialService {
	return &CredentialService{
		repo:      repo,
		jwtSecret: secret,
		jwtExpiry: expiry,
		now:       time.Now,
	}
}

// Create registers a credential. The password is hashed with a fresh salt on every call.
func (s *CredentialService) Create(ctx context.Context, req model.CreateCredentialRequest) (model.CredentialResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return model.CredentialResponse{}, ErrUsernameRequired
	}
	if n := utf8.RuneCountInString(req.Password); n < minPasswordLength || n > maxPasswordLength {
		return model.CredentialResponse{}, ErrPasswordLength
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.CredentialResponse{}, err
	}

	cred := &model.Credential{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC().Truncate(time.Microsecond),
	}

	if err := s.repo.Create(ctx, cred); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return model.CredentialResponse{}, ErrUsernameTaken
		}
		return model.CredentialResponse{}, err
	}

	logging.FromContext(ctx).Info("credential created", "username", username)
	return cred.ToResponse(), nil
}

// Login verifies the password, records the login time and issues a token.
func (s *CredentialService) Login(ctx context.Context, req model.LoginRequest) (model.TokenResponse, error) {
	username := strings.TrimSpace(req.Username)

	cred, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return model.TokenResponse{}, ErrInvalidCredentials
		}
		return model.TokenResponse{}, err
	}

	match, err := crypto.VerifyPassword(req.Password, cred.PasswordHash)
	if err != nil {
		return model.TokenResponse{}, err
	}
	if !match {
		return model.TokenResponse{}, ErrInvalidCredentials
	}

	if err := s.repo.RecordLogin(ctx, cred.Username, s.now().UTC().Truncate(time.Microsecond)); err != nil {
		return model.TokenResponse{}, err
	}

	token, err := crypto.GenerateToken(cred.Username, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.TokenResponse{}, err
	}

	return model.TokenResponse{Token: token, Username: cred.Username}, nil
}

// Get returns the public view of a credential.
func (s *CredentialService) Get(ctx context.Context, username string) (model.CredentialResponse, error) {
	cred, err := s.repo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrCredentialNotFound) {
			return model.CredentialResponse{}, fmt.Errorf("%w: credential %s", ErrNotFound, username)
		}
		return model.CredentialResponse{}, err
	}

	return cred.ToResponse(), nil
}
