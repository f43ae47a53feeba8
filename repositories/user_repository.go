package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-bot/models"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserConflict      = errors.New("user already registered")
	ErrUserPhoneConflict = errors.New("user phone number conflict")
	ErrUserMissingFields = errors.New("user required field missing")
	ErrStatusConflict    = errors.New("status was changed concurrently")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	// UpdateStatus меняет статус только если текущий статус равен from.
	UpdateStatus(ctx context.Context, id int64, from, to models.UserStatus) error
	Delete(ctx context.Context, id int64) error
}

type postgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

const userColumns = `id, chat_id, username, full_name, phone_number, comment, status, create_date`

func (r *postgresUserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, chat_id, username, full_name, phone_number, comment, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING create_date`

	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query,
		user.ID,
		user.ChatID,
		user.Username,
		user.FullName,
		user.PhoneNumber,
		user.Comment,
		user.Status,
	).Scan(&user.CreatedAt)

	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch {
			case pqErr.Code == pqUniqueViolation && pqErr.Constraint == "users_phone_number_key":
				return ErrUserPhoneConflict
			case pqErr.Code == pqUniqueViolation:
				return ErrUserConflict
			case isRequiredFieldViolation(pqErr):
				return ErrUserMissingFields
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(ctx, query, id)
}

func (r *postgresUserRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = $1`
	return r.scanUser(ctx, query, phone)
}

func (r *postgresUserRepository) UpdateStatus(ctx context.Context, id int64, from, to models.UserStatus) error {
	executor := getExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx,
		`UPDATE users SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update user status: %w", err)
	}
	if err := checkAffectedRows(result, ErrStatusConflict); err == nil {
		return nil
	} else if !errors.Is(err, ErrStatusConflict) {
		return err
	}

	// Ничего не обновилось: либо записи нет, либо статус уже другой.
	var current models.UserStatus
	err = executor.QueryRowContext(ctx, `SELECT status FROM users WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read user status: %w", err)
	}
	return ErrStatusConflict
}

func (r *postgresUserRepository) Delete(ctx context.Context, id int64) error {
	// team_members и команды, где пользователь капитан, удаляются каскадно.
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return checkAffectedRows(result, ErrUserNotFound)
}

// scanUser - вспомогательный метод для сканирования одного пользователя
func (r *postgresUserRepository) scanUser(ctx context.Context, query string, args ...interface{}) (*models.User, error) {
	user := &models.User{}
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.ChatID,
		&user.Username,
		&user.FullName,
		&user.PhoneNumber,
		&user.Comment,
		&user.Status,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
