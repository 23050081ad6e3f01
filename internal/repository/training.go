package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vds/vds-go/internal/model"
)

var ErrTrainingNotFound = errors.New("training not found")

const trainingColumns = `id, account_id, device_name, device_firmware, created_date, duration, type, calories`

// TrainingRepository handles training persistence.
type TrainingRepository struct {
	db *sql.DB
}

// NewTrainingRepository creates a new TrainingRepository.
func NewTrainingRepository(db *sql.DB) *TrainingRepository {
	return &TrainingRepository{db: db}
}

// Create inserts a training and sets the generated ID on it.
func (r *TrainingRepository) Create(ctx context.Context, t *model.Training) error {
	query := `INSERT INTO trainings (account_id, device_name, device_firmware, created_date, duration, type, calories)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		t.AccountID, t.DeviceName, t.DeviceFirmware, t.CreatedDate, t.Time, t.Type, t.Calories,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	t.ID = id
	return nil
}

// Update overwrites the mutable fields of an existing training.
// The owning account and created date never change.
func (r *TrainingRepository) Update(ctx context.Context, t *model.Training) error {
	query := `UPDATE trainings SET device_name = ?, device_firmware = ?, duration = ?, type = ?, calories = ?
		WHERE id = ?`

	_, err := r.db.ExecContext(ctx, query, t.DeviceName, t.DeviceFirmware, t.Time, t.Type, t.Calories, t.ID)
	return err
}

// GetByID retrieves a training by id.
func (r *TrainingRepository) GetByID(ctx context.Context, id int64) (model.Training, error) {
	query := `SELECT ` + trainingColumns + ` FROM trainings WHERE id = ?`

	var t model.Training
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&t.ID, &t.AccountID, &t.DeviceName, &t.DeviceFirmware, &t.CreatedDate, &t.Time, &t.Type, &t.Calories,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Training{}, ErrTrainingNotFound
		}
		return model.Training{}, err
	}

	return t, nil
}

// ListByAccount returns an account's trainings, most recent first.
func (r *TrainingRepository) ListByAccount(ctx context.Context, accountID int64) ([]model.Training, error) {
	query := `SELECT ` + trainingColumns + ` FROM trainings WHERE account_id = ? ORDER BY created_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trainings []model.Training
	for rows.Next() {
		var t model.Training
		if err := rows.Scan(
			&t.ID, &t.AccountID, &t.DeviceName, &t.DeviceFirmware, &t.CreatedDate, &t.Time, &t.Type, &t.Calories,
		); err != nil {
			return nil, err
		}
		trainings = append(trainings, t)
	}

	return trainings, rows.Err()
}
