package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/listenupapp/listenup-lists/internal/domain"
	"github.com/listenupapp/listenup-lists/internal/store"
)

// userColumns is the ordered list of columns selected in user queries.
// Must match the scan order in scanUser.
const userColumns = `id, username, password_hash, google_id, display_name,
	created_at, updated_at, last_login_at`

// scanUser scans a sql.Row (or sql.Rows via its Scan method) into a domain.User.
func scanUser(row scanner) (*domain.User, error) {
	var u domain.User

	var (
		passwordHash sql.NullString
		googleID     sql.NullString
		createdAt    string
		updatedAt    string
		lastLoginAt  string
	)

	err := row.Scan(
		&u.ID,
		&u.Username,
		&passwordHash,
		&googleID,
		&u.DisplayName,
		&createdAt,
		&updatedAt,
		&lastLoginAt,
	)
	if err != nil {
		return nil, err
	}

	u.PasswordHash = passwordHash.String
	u.GoogleID = googleID.String

	// Parse timestamps.
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if u.LastLoginAt, err = parseTime(lastLoginAt); err != nil {
		return nil, err
	}

	return &u, nil
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertUser(ctx context.Context, db execer, user *domain.User) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO users (
			id, username, username_lower, password_hash, google_id, display_name,
			created_at, updated_at, last_login_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		store.NormalizeUsername(user.Username),
		nullString(user.PasswordHash),
		nullString(user.GoogleID),
		user.DisplayName,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		formatTime(user.LastLoginAt),
	)
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists.WithCause(err)
	}
	return err
}

// CreateUser inserts a new user into the database.
// Returns store.ErrAlreadyExists if the ID, username or Google ID already exists.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if err := insertUser(ctx, s.db, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetUserByUsername retrieves a user by username, ignoring case.
// Returns store.ErrNotFound if the user does not exist.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username_lower = ?`, store.NormalizeUsername(username))

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// RecordLogin stamps the user's last login time.
func (s *Store) RecordLogin(ctx context.Context, userID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_login_at = ? WHERE id = ?`, formatTime(at), userID)
	if err != nil {
		return fmt.Errorf("record login: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// FindOrCreateFederatedUser resolves a Google identity to a user in a single transaction.
func (s *Store) FindOrCreateFederatedUser(ctx context.Context, user *domain.User, usernames []string) (*domain.User, bool, error) {
	var (
		result  *domain.User
		created bool
	)

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+userColumns+` FROM users WHERE google_id = ?`, user.GoogleID)
		existing, err := scanUser(row)
		if err == nil {
			result = existing
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}

		for _, name := range usernames {
			var taken int
			err := tx.QueryRowContext(ctx,
				`SELECT COUNT(*) FROM users WHERE username_lower = ?`, store.NormalizeUsername(name)).Scan(&taken)
			if err != nil {
				return err
			}
			if taken > 0 {
				continue
			}

			candidate := *user
			candidate.Username = name
			if err := insertUser(ctx, tx, &candidate); err != nil {
				return err
			}
			result, created = &candidate, true
			return nil
		}

		return store.ErrAlreadyExists.WithMessage("no free username for federated user")
	})
	if err != nil {
		return nil, false, fmt.Errorf("find or create federated user: %w", err)
	}

	return result, created, nil
}

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY username_lower`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
