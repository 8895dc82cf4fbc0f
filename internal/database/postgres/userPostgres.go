package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eventshow/eventshow/internal/entity"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

// Create inserts the account and its profile in one transaction so a
// half-registered user can never exist.
func (r *userRepository) Create(ctx context.Context, user *entity.User, profile *entity.Profile) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelReadCommitted,
	})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	now := time.Now()

	query := `
		INSERT INTO users (username, email, password_hash, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		now,
		now,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to create user: %v", err)
	}

	query = `
		INSERT INTO profiles (user_id, birthdate, location, picture, bio, token, eventpoints,
			payment_customer_id, payment_account_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err = tx.QueryRowContext(ctx, query,
		user.ID,
		profile.Birthdate,
		profile.Location,
		profile.Picture,
		profile.Bio,
		profile.Token,
		profile.Eventpoints,
		profile.PaymentCustomerID,
		profile.PaymentAccountID,
		now,
		now,
	).Scan(&profile.ID)
	if err != nil {
		return fmt.Errorf("failed to create profile: %v", err)
	}

	profile.UserID = user.ID
	user.CreatedAt = now
	user.UpdatedAt = now

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `
		SELECT id, username, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `
		SELECT id, username, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE username = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	query := `
		SELECT id, username, email, password_hash, first_name, last_name, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) scanUser(row *sql.Row) (*entity.User, error) {
	var user entity.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %v", err)
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users
		SET email = $1, first_name = $2, last_name = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		user.Email,
		user.FirstName,
		user.LastName,
		time.Now(),
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrUserNotFound
	}

	return nil
}

func (r *userRepository) GetProfile(ctx context.Context, userID int64) (*entity.Profile, error) {
	query := `
		SELECT id, user_id, birthdate, location, picture, bio, token, eventpoints,
			payment_customer_id, payment_account_id, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`
	return r.scanProfile(r.db.QueryRowContext(ctx, query, userID))
}

func (r *userRepository) GetProfileByToken(ctx context.Context, token string) (*entity.Profile, error) {
	query := `
		SELECT id, user_id, birthdate, location, picture, bio, token, eventpoints,
			payment_customer_id, payment_account_id, created_at, updated_at
		FROM profiles
		WHERE token = $1
	`
	return r.scanProfile(r.db.QueryRowContext(ctx, query, token))
}

func (r *userRepository) scanProfile(row *sql.Row) (*entity.Profile, error) {
	var profile entity.Profile
	err := row.Scan(
		&profile.ID,
		&profile.UserID,
		&profile.Birthdate,
		&profile.Location,
		&profile.Picture,
		&profile.Bio,
		&profile.Token,
		&profile.Eventpoints,
		&profile.PaymentCustomerID,
		&profile.PaymentAccountID,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %v", err)
	}
	return &profile, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, profile *entity.Profile) error {
	query := `
		UPDATE profiles
		SET birthdate = $1, location = $2, picture = $3, bio = $4,
			payment_customer_id = $5, payment_account_id = $6, updated_at = $7
		WHERE user_id = $8
	`
	result, err := r.db.ExecContext(ctx, query,
		profile.Birthdate,
		profile.Location,
		profile.Picture,
		profile.Bio,
		profile.PaymentCustomerID,
		profile.PaymentAccountID,
		time.Now(),
		profile.UserID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrProfileNotFound
	}

	return nil
}

func (r *userRepository) AddEventpoints(ctx context.Context, userID int64, delta int64) error {
	query := `
		UPDATE profiles
		SET eventpoints = eventpoints + $1, updated_at = $2
		WHERE user_id = $3 AND eventpoints + $1 >= 0
	`
	result, err := r.db.ExecContext(ctx, query, delta, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update eventpoints: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entity.ErrProfileNotFound
	}

	return nil
}
