package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hemolink/hemolink/internal/domain"
	"github.com/hemolink/hemolink/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, username, email, password_hash, blood_type, role, firebase_uid,
	is_admin, status, suspended_until, suspension_reason, created_by, created_at, updated_at`

// Create creates a new user, minting its ID and stamping timestamps.
func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	ts := time.Now().UTC()
	user.CreatedAt = ts
	user.UpdatedAt = ts

	query := `
		INSERT INTO users (username, email, password_hash, blood_type, role, firebase_uid,
			is_admin, status, suspended_until, suspension_reason, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.BloodType),
		string(user.Role),
		user.FirebaseUID,
		boolToInt(user.IsAdmin),
		string(user.Status),
		fmtNullTime(user.SuspendedUntil),
		user.SuspensionReason,
		nullInt64(user.CreatedBy),
		fmtTime(user.CreatedAt),
		fmtTime(user.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already exists", domain.ErrUserAlreadyExists)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert ID: %w", err)
	}
	user.ID = id

	return nil
}

// scanUser scans a single user row.
func scanUser(row interface{ Scan(...interface{}) error }) (*domain.User, error) {
	user := &domain.User{}
	var bloodType, role, status string
	var isAdmin int
	var suspendedUntil sql.NullString
	var createdBy sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&bloodType,
		&role,
		&user.FirebaseUID,
		&isAdmin,
		&status,
		&suspendedUntil,
		&user.SuspensionReason,
		&createdBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	user.BloodType = domain.BloodType(bloodType)
	user.Role = domain.Role(role)
	user.IsAdmin = isAdmin != 0
	user.Status = domain.UserStatus(status)
	user.SuspendedUntil = parseNullTime(suspendedUntil)
	user.CreatedBy = parseNullInt64(createdBy)
	user.CreatedAt = parseTime(createdAt)
	user.UpdatedAt = parseTime(updatedAt)

	return user, nil
}

func (r *userRepository) getBy(ctx context.Context, where string, arg interface{}) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getBy(ctx, `id = ?`, id)
}

// GetByFirebaseUID retrieves a user by the external identity UID.
func (r *userRepository) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	if uid == "" {
		return nil, repository.ErrNotFound
	}
	return r.getBy(ctx, `firebase_uid = ?`, uid)
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getBy(ctx, `username = ?`, username)
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, `email = ?`, email)
}

// Update merges the given record over the stored one and restamps
// UpdatedAt. The ID field selects the record and is never changed.
func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	user.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET username = ?, email = ?, password_hash = ?, blood_type = ?, role = ?,
			firebase_uid = ?, is_admin = ?, status = ?, suspended_until = ?,
			suspension_reason = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		string(user.BloodType),
		string(user.Role),
		user.FirebaseUID,
		boolToInt(user.IsAdmin),
		string(user.Status),
		fmtNullTime(user.SuspendedUntil),
		user.SuspensionReason,
		fmtTime(user.UpdatedAt),
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already exists", domain.ErrUserAlreadyExists)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete deletes a user by ID. The donor profile and documents cascade
// through foreign keys; donation records are kept.
func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// List returns users matching the options, filtered then paginated.
func (r *userRepository) List(ctx context.Context, opts repository.UserListOptions) (*repository.ListResult[domain.User], error) {
	where := ` WHERE 1=1`
	var args []interface{}

	if opts.Role != "" {
		where += ` AND role = ?`
		args = append(args, string(opts.Role))
	}
	if len(opts.OnlyRoles) > 0 {
		where += ` AND role IN (` + placeholders(len(opts.OnlyRoles)) + `)`
		for _, role := range opts.OnlyRoles {
			args = append(args, string(role))
		}
	}
	if len(opts.ExcludeRoles) > 0 {
		where += ` AND role NOT IN (` + placeholders(len(opts.ExcludeRoles)) + `)`
		for _, role := range opts.ExcludeRoles {
			args = append(args, string(role))
		}
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + where + ` ORDER BY id`
	if opts.Page > 0 && opts.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
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
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE username = ?`, username).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return count > 0, nil
}

// ExistsByEmail checks if a user with the given email exists.
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check email existence: %w", err)
	}
	return count > 0, nil
}

// placeholders returns n comma-separated SQL placeholders.
func placeholders(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		if i > 0 {
			s += ", "
		}
		s += "?"
	}
	return s
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
