package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vds/vds-go/internal/authclient"
	"github.com/vds/vds-go/internal/logging"
	"github.com/vds/vds-go/internal/metrics"
	"github.com/vds/vds-go/internal/model"
	"github.com/vds/vds-go/internal/repository"
)

// AccountStore persists accounts keyed by email.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (model.Account, error)
	ListByName(ctx context.Context, name string) ([]model.Account, error)
	Save(ctx context.Context, a *model.Account) error
}

// CredentialStore is the remote auth service. CreateCredential fails with an
// error matching authclient.ErrConflict when the username exists.
type CredentialStore interface {
	CreateCredential(ctx context.Context, username, secret string) (model.Credential, error)
	FindByUsername(ctx context.Context, username string) (model.Credential, error)
}

// AccountService provisions accounts: a credential is created in the auth
// service first and the account is written only after that succeeds.
type AccountService struct {
	accounts    AccountStore
	credentials CredentialStore
	now         func() time.Time
}

// NewAccountService creates a new AccountService. A nil now uses time.Now.
func NewAccountService(accounts AccountStore, credentials CredentialStore, now func() time.Time) *AccountService {
	if now == nil {
		now = time.Now
	}
	return &AccountService{
		accounts:    accounts,
		credentials: credentials,
		now:         now,
	}
}

// Create provisions a credential and then an account for draft.Email.
func (s *AccountService) Create(ctx context.Context, draft model.AccountDraft, cred model.CredentialDraft) (model.Account, error) {
	key, err := normalizeKey(draft.Email)
	if err != nil {
		metrics.RecordProvisioning(metrics.OutcomeInvalid)
		return model.Account{}, err
	}
	if err := validateDraft(key, draft, cred); err != nil {
		metrics.RecordProvisioning(metrics.OutcomeInvalid)
		return model.Account{}, err
	}

	logger := logging.FromContext(ctx).With("key", key)

	_, err = s.accounts.FindByEmail(ctx, key)
	switch {
	case err == nil:
		metrics.RecordProvisioning(metrics.OutcomeAlreadyExists)
		return model.Account{}, fmt.Errorf("%w: account %s", ErrAlreadyExists, key)
	case !errors.Is(err, repository.ErrAccountNotFound):
		metrics.RecordProvisioning(metrics.OutcomeError)
		return model.Account{}, fmt.Errorf("find account: %w", err)
	}

	if _, err := s.credentials.CreateCredential(ctx, key, cred.Secret); err != nil {
		logger.Warn("credential creation failed", "conflict", errors.Is(err, authclient.ErrConflict), "error", err)
		metrics.RecordProvisioning(metrics.OutcomeDependencyFailure)
		return model.Account{}, fmt.Errorf("%w: create credential: %w", ErrDependencyFailure, err)
	}

	account := model.Account{
		Name:        draft.Name,
		Email:       key,
		CreatedDate: s.timestamp(),
		Age:         draft.Age,
		Gender:      draft.Gender,
		Weight:      draft.Weight,
		Height:      draft.Height,
	}

	if err := s.accounts.Save(ctx, &account); err != nil {
		logger.Warn("account save failed after credential was created",
			"event", "orphaned_credential",
			"username", key,
			"error", err,
		)
		metrics.RecordOrphanedCredential()

		if errors.Is(err, repository.ErrDuplicateEmail) {
			metrics.RecordProvisioning(metrics.OutcomeAlreadyExists)
			return model.Account{}, fmt.Errorf("%w: account %s", ErrAlreadyExists, key)
		}
		metrics.RecordProvisioning(metrics.OutcomeError)
		return model.Account{}, fmt.Errorf("save account: %w", err)
	}

	metrics.RecordProvisioning(metrics.OutcomeCreated)
	logger.Info("account created", "account_id", account.ID)
	return account, nil
}

// Update applies patch to the account identified by key. The credential is not touched.
func (s *AccountService) Update(ctx context.Context, key string, patch model.AccountPatch) (model.Account, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return model.Account{}, err
	}
	if patch.Gender != nil && !patch.Gender.Valid() {
		return model.Account{}, fmt.Errorf("%w: unknown gender %q", ErrInvalidArgument, *patch.Gender)
	}
	if negative(patch.Age) || negative(patch.Weight) || negative(patch.Height) {
		return model.Account{}, fmt.Errorf("%w: age, weight and height must not be negative", ErrInvalidArgument)
	}

	account, err := s.find(ctx, key)
	if err != nil {
		return model.Account{}, err
	}

	patch.Apply(&account)

	// ModifiedDate always moves forward and never precedes CreatedDate.
	floor := account.CreatedDate
	if account.ModifiedDate != nil && account.ModifiedDate.After(floor) {
		floor = *account.ModifiedDate
	}
	modified := s.timestamp()
	if !modified.After(floor) {
		modified = floor.Add(time.Microsecond)
	}
	account.ModifiedDate = &modified

	if err := s.accounts.Save(ctx, &account); err != nil {
		return model.Account{}, fmt.Errorf("save account: %w", err)
	}

	return account, nil
}

// FindByKey returns the account identified by key.
func (s *AccountService) FindByKey(ctx context.Context, key string) (model.Account, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return model.Account{}, err
	}
	return s.find(ctx, key)
}

// ListByName returns every account with the given display name.
func (s *AccountService) ListByName(ctx context.Context, name string) ([]model.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	}

	accounts, err := s.accounts.ListByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if accounts == nil {
		accounts = []model.Account{}
	}
	return accounts, nil
}

// Credential returns the auth service's view of the account's credential.
func (s *AccountService) Credential(ctx context.Context, key string) (model.Credential, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return model.Credential{}, err
	}

	cred, err := s.credentials.FindByUsername(ctx, key)
	if err != nil {
		if errors.Is(err, authclient.ErrNotFound) {
			return model.Credential{}, fmt.Errorf("%w: credential %s", ErrNotFound, key)
		}
		return model.Credential{}, fmt.Errorf("%w: find credential: %w", ErrDependencyFailure, err)
	}
	return cred, nil
}

func (s *AccountService) find(ctx context.Context, key string) (model.Account, error) {
	account, err := s.accounts.FindByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return model.Account{}, fmt.Errorf("%w: account %s", ErrNotFound, key)
		}
		return model.Account{}, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

// timestamp is truncated to what DATETIME(6) stores so saved and returned values agree.
func (s *AccountService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("%w: identity key is required", ErrInvalidArgument)
	}
	return key, nil
}

func validateDraft(key string, draft model.AccountDraft, cred model.CredentialDraft) error {
	if strings.TrimSpace(cred.Username) != key {
		return fmt.Errorf("%w: credential username must match the account email", ErrInvalidArgument)
	}
	if strings.TrimSpace(cred.Secret) == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidArgument)
	}
	if n := utf8.RuneCountInString(cred.Secret); n < minPasswordLength || n > maxPasswordLength {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, ErrPasswordLength)
	}
	if !draft.Gender.Valid() {
		return fmt.Errorf("%w: unknown gender %q", ErrInvalidArgument, draft.Gender)
	}
	if draft.Age < 0 || draft.Weight < 0 || draft.Height < 0 {
		return fmt.Errorf("%w: age, weight and height must not be negative", ErrInvalidArgument)
	}
	return nil
}

func negative(v *int) bool {
	return v != nil && *v < 0
}
