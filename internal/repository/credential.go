package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/vds/vds-go/internal/model"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrDuplicateUsername  = errors.New("username already exists")
)

// CredentialRepository handles credential persistence for the auth service.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Create inserts a new credential and sets the generated ID on it.
func (r *CredentialRepository) Create(ctx context.Context, cred *model.Credential) error {
	query := `INSERT INTO credentials (username, password_hash, last_login, created_at) VALUES (?, ?, ?, ?)`

	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now().UTC()
	}

	result, err := r.db.ExecContext(ctx, query, cred.Username, cred.PasswordHash, nullTime(cred.LastLogin), cred.CreatedAt)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateUsername
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	cred.ID = id
	return nil
}

// GetByUsername retrieves a credential by its username.
func (r *CredentialRepository) GetByUsername(ctx context.Context, username string) (*model.Credential, error) {
	query := `SELECT id, username, password_hash, last_login, created_at FROM credentials WHERE username = ?`

	cred := &model.Credential{}
	var lastLogin sql.NullTime
	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&cred.ID, &cred.Username, &cred.PasswordHash, &lastLogin, &cred.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCredentialNotFound
		}
		return nil, err
	}

	cred.LastLogin = timePtr(lastLogin)
	return cred, nil
}

// RecordLogin stamps the last successful login time.
func (r *CredentialRepository) RecordLogin(ctx context.Context, username string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `UPDATE credentials SET last_login = ? WHERE username = ?`, at, username)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCredentialNotFound
	}

	return nil
}
