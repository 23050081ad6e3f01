package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vds/vds-go/internal/model"
	"github.com/vds/vds-go/internal/repository"
)

// TrainingStore persists device trainings.
type TrainingStore interface {
	Create(ctx context.Context, t *model.Training) error
	Update(ctx context.Context, t *model.Training) error
	GetByID(ctx context.Context, id int64) (model.Training, error)
	ListByAccount(ctx context.Context, accountID int64) ([]model.Training, error)
}

// TrainingService records device trainings against existing accounts.
type TrainingService struct {
	trainings TrainingStore
	accounts  AccountStore
	now       func() time.Time
}

// NewTrainingService creates a new TrainingService. A nil now uses time.Now.
func NewTrainingService(trainings TrainingStore, accounts AccountStore, now func() time.Time) *TrainingService {
	if now == nil {
		now = time.Now
	}
	return &TrainingService{trainings: trainings, accounts: accounts, now: now}
}

// Create attaches a new training to the account identified by accountKey.
func (s *TrainingService) Create(ctx context.Context, accountKey string, req model.TrainingRequest) (model.Training, error) {
	if err := validateTraining(req); err != nil {
		return model.Training{}, err
	}

	account, err := s.account(ctx, accountKey)
	if err != nil {
		return model.Training{}, err
	}

	t := model.Training{
		AccountID:      account.ID,
		DeviceName:     strings.TrimSpace(req.DeviceName),
		DeviceFirmware: req.DeviceFirmware,
		CreatedDate:    s.now().UTC().Truncate(time.Microsecond),
		Time:           req.Time,
		Type:           req.Type,
		Calories:       req.Calories,
	}

	if err := s.trainings.Create(ctx, &t); err != nil {
		return model.Training{}, fmt.Errorf("create training: %w", err)
	}

	return t, nil
}

// Get returns a training by id.
func (s *TrainingService) Get(ctx context.Context, id int64) (model.Training, error) {
	t, err := s.trainings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTrainingNotFound) {
			return model.Training{}, fmt.Errorf("%w: training %d", ErrNotFound, id)
		}
		return model.Training{}, fmt.Errorf("get training: %w", err)
	}
	return t, nil
}

// ListByAccount returns the trainings of an account, most recent first.
func (s *TrainingService) ListByAccount(ctx context.Context, accountKey string) ([]model.Training, error) {
	account, err := s.account(ctx, accountKey)
	if err != nil {
		return nil, err
	}

	trainings, err := s.trainings.ListByAccount(ctx, account.ID)
	if err != nil {
		return nil, fmt.Errorf("list trainings: %w", err)
	}
	if trainings == nil {
		trainings = []model.Training{}
	}
	return trainings, nil
}

// Update replaces the recorded fields of a training. Its account and created date are kept.
func (s *TrainingService) Update(ctx context.Context, id int64, req model.TrainingRequest) (model.Training, error) {
	if err := validateTraining(req); err != nil {
		return model.Training{}, err
	}

	t, err := s.Get(ctx, id)
	if err != nil {
		return model.Training{}, err
	}

	t.DeviceName = strings.TrimSpace(req.DeviceName)
	t.DeviceFirmware = req.DeviceFirmware
	t.Time = req.Time
	t.Type = req.Type
	t.Calories = req.Calories

	if err := s.trainings.Update(ctx, &t); err != nil {
		return model.Training{}, fmt.Errorf("update training: %w", err)
	}

	return t, nil
}

func (s *TrainingService) account(ctx context.Context, key string) (model.Account, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return model.Account{}, err
	}

	account, err := s.accounts.FindByEmail(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return model.Account{}, fmt.Errorf("%w: account %s", ErrNotFound, key)
		}
		return model.Account{}, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func validateTraining(req model.TrainingRequest) error {
	if strings.TrimSpace(req.DeviceName) == "" {
		return fmt.Errorf("%w: device_name is required", ErrInvalidArgument)
	}
	if req.Time < 0 || req.Calories < 0 {
		return fmt.Errorf("%w: time and calories must not be negative", ErrInvalidArgument)
	}
	return nil
}
