package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// userRepository implements repository.UserRepository for PostgreSQL.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hash, blood_type, role, firebase_uid,
	is_admin, status, suspended_until, suspension_reason, created_by, created_at, updated_at`

// isUniqueViolation checks for a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create creates a new user, minting its ID and stamping timestamps.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	ts := time.Now().UTC()
	user.CreatedAt = ts
	user.UpdatedAt = ts

	query := `
		INSERT INTO users (username, email, password_hash, blood_type, role, firebase_uid,
			is_admin, status, suspended_until, suspension_reason, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.BloodType),
		string(user.Role),
		user.FirebaseUID,
		user.IsAdmin,
		string(user.Status),
		user.SuspendedUntil,
		user.SuspensionReason,
		user.CreatedBy,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already exists", domain.ErrUserAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &domain.User{}
	var bloodType, role, status string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&bloodType,
		&role,
		&user.FirebaseUID,
		&user.IsAdmin,
		&status,
		&user.SuspendedUntil,
		&user.SuspensionReason,
		&user.CreatedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.BloodType = domain.BloodType(bloodType)
	user.Role = domain.Role(role)
	user.Status = domain.UserStatus(status)

	return user, nil
}

func (r *userRepository) getBy(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.db.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getBy(ctx, `id = $1`, id)
}

// GetByFirebaseUID retrieves a user by the external identity UID.
func (r *userRepository) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	if uid == "" {
		return nil, repository.ErrNotFound
	}
	return r.getBy(ctx, `firebase_uid = $1`, uid)
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, `username = $1`, username)
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, `email = $1`, email)
}

// Update merges the given record over the stored one and restamps UpdatedAt.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET username = $1, email = $2, password_hash = $3, blood_type = $4, role = $5,
			firebase_uid = $6, is_admin = $7, status = $8, suspended_until = $9,
			suspension_reason = $10, updated_at = $11
		WHERE id = $12
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.BloodType),
		string(user.Role),
		user.FirebaseUID,
		user.IsAdmin,
		string(user.Status),
		user.SuspendedUntil,
		user.SuspensionReason,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already exists", domain.ErrUserAlreadyExists)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a user by ID. The donor profile and documents cascade
// through foreign keys; donation records are kept.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns users matching the options, filtered then paginated.
func (r *userRepository) List(ctx context.Context, opts repository.UserListOptions) (*repository.ListResult[domain.User], error) {
	where := ` WHERE 1=1`
	var args []interface{}

	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if opts.Role != "" {
		where += ` AND role = ` + next(string(opts.Role))
	}
	if len(opts.OnlyRoles) > 0 {
		roles := make([]string, len(opts.OnlyRoles))
		for i, role := range opts.OnlyRoles {
			roles[i] = string(role)
		}
		where += ` AND role = ANY(` + next(roles) + `)`
	}
	if len(opts.ExcludeRoles) > 0 {
		roles := make([]string, len(opts.ExcludeRoles))
		for i, role := range opts.ExcludeRoles {
			roles[i] = string(role)
		}
		where += ` AND NOT (role = ANY(` + next(roles) + `))`
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY id`
	if opts.Page > 0 && opts.Limit > 0 {
		query += ` LIMIT ` + next(opts.Limit) + ` OFFSET ` + next((opts.Page-1)*opts.Limit)
	}

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return &repository.ListResult[domain.User]{
		Items: users,
		Total: total,
		Page:  opts.Page,
		Limit: opts.Limit,
	}, nil
}

// ExistsByUsername checks if a user with the given username exists.
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

// ExistsByEmail checks if a user with the given email exists.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return exists, nil
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
