package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vds/vds-go/internal/model"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrDuplicateEmail  = errors.New("email already exists")
)

const accountColumns = `id, name, email, created_date, modified_date, age, gender, weight, height`

// AccountRepository handles account persistence for the account service.
type AccountRepository struct {
	db *sql.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByEmail retrieves an account by its identity key.
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, email))
}

// FindByID retrieves an account by its surrogate id.
func (r *AccountRepository) FindByID(ctx context.Context, id int64) (model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = ?`
	return scanAccount(r.db.QueryRowContext(ctx, query, id))
}

// ListByName returns every account with the given display name, oldest first.
func (r *AccountRepository) ListByName(ctx context.Context, name string) ([]model.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE name = ? ORDER BY created_date ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}

	return accounts, rows.Err()
}

// Save inserts the account when it has no id yet and updates it otherwise.
// On insert the generated id is written back. A unique-key violation on email
// is reported as ErrDuplicateEmail.
func (r *AccountRepository) Save(ctx context.Context, a *model.Account) error {
	if a.ID == 0 {
		return r.insert(ctx, a)
	}
	return r.update(ctx, a)
}

func (r *AccountRepository) insert(ctx context.Context, a *model.Account) error {
	query := `INSERT INTO accounts (name, email, created_date, modified_date, age, gender, weight, height)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		a.Name, a.Email, a.CreatedDate, nullTime(a.ModifiedDate), a.Age, string(a.Gender), a.Weight, a.Height,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	a.ID = id
	return nil
}

func (r *AccountRepository) update(ctx context.Context, a *model.Account) error {
	query := `UPDATE accounts SET name = ?, email = ?, created_date = ?, modified_date = ?,
		age = ?, gender = ?, weight = ?, height = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		a.Name, a.Email, a.CreatedDate, nullTime(a.ModifiedDate), a.Age, string(a.Gender), a.Weight, a.Height, a.ID,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateEmail
		}
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// MySQL reports 0 for an update that changes nothing, so confirm the row exists.
		if _, err := r.FindByID(ctx, a.ID); err != nil {
			return err
		}
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (model.Account, error) {
	var (
		a        model.Account
		modified sql.NullTime
		gender   string
	)
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.CreatedDate, &modified, &a.Age, &gender, &a.Weight, &a.Height)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Account{}, ErrAccountNotFound
		}
		return model.Account{}, err
	}

	a.ModifiedDate = timePtr(modified)
	a.Gender = model.Gender(gender)
	return a, nil
}
