package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mealscan/mealscan-go/internal/model"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")
)

// UserRepository handles user persistence operations.
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts user, stamping CreatedAt when it is unset.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}

	query := `INSERT INTO users (id, provider, provider_user_id, email, created_at) VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Provider, user.ProviderUserID, user.Email, user.CreatedAt,
	)
	if err != nil {
		if isDuplicateEntryError(err) {
			return ErrDuplicateUser
		}
		return err
	}

	return nil
}

// GetByProvider looks a user up by external identity.
func (r *UserRepository) GetByProvider(ctx context.Context, provider, providerUserID string) (*model.User, error) {
	query := `SELECT id, provider, provider_user_id, email, created_at
		FROM users WHERE provider = ? AND provider_user_id = ?`

	return r.scanOne(r.db.QueryRowContext(ctx, query, provider, providerUserID))
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT id, provider, provider_user_id, email, created_at FROM users WHERE id = ?`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepository) scanOne(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Provider, &user.ProviderUserID, &user.Email, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// now is the creation timestamp used for new rows. Microsecond precision
// matches DATETIME(6) so values round-trip unchanged on MySQL.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
