package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/repositories"
)

const MaxFullNameLength = 50

// RegistrationInput - данные, собранные сценарием регистрации.
type RegistrationInput struct {
	UserID      int64
	ChatID      int64
	Username    *string
	PhoneNumber string
	FullName    string
	Comment     string
}

type UserService struct {
	users  repositories.UserRepository
	logger *slog.Logger
}

func NewUserService(users repositories.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// NormalizePhone оставляет только цифры и добавляет ведущий "+".
// Пустая строка означает, что номера нет.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return "+" + b.String()
}

// ValidateFullName обрезает пробелы и проверяет длину имени.
func ValidateFullName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	if name == "" {
		return "", ErrRegistrationIncomplete
	}
	if utf8.RuneCountInString(name) > MaxFullNameLength {
		return "", fmt.Errorf("%w: max %d characters", ErrNameTooLong, MaxFullNameLength)
	}
	return name, nil
}

// Register создаёт заявку на регистрацию со статусом Requested.
func (s *UserService) Register(ctx context.Context, in RegistrationInput) (*models.User, error) {
	phone := NormalizePhone(in.PhoneNumber)
	if phone == "" {
		return nil, ErrRegistrationIncomplete
	}
	name, err := ValidateFullName(in.FullName)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:          in.UserID,
		ChatID:      in.ChatID,
		Username:    in.Username,
		FullName:    name,
		PhoneNumber: phone,
		Comment:     strings.TrimSpace(in.Comment),
		Status:      models.UserStatusRequested,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, handleRepositoryError(err)
	}

	s.logger.InfoContext(ctx, "registration requested", slog.Int64("user_id", user.ID))
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return user, nil
}

// Approve переводит заявку Requested -> Activated.
func (s *UserService) Approve(ctx context.Context, id int64) (*models.User, error) {
	return s.transition(ctx, id, models.UserStatusActivated)
}

// Deny переводит заявку Requested -> Blocked.
func (s *UserService) Deny(ctx context.Context, id int64) (*models.User, error) {
	return s.transition(ctx, id, models.UserStatusBlocked)
}

func (s *UserService) transition(ctx context.Context, id int64, to models.UserStatus) (*models.User, error) {
	if err := s.users.UpdateStatus(ctx, id, models.UserStatusRequested, to); err != nil {
		return nil, handleRepositoryError(err)
	}
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "user status changed",
		slog.Int64("user_id", id), slog.String("status", to.String()))
	return user, nil
}

// Delete безусловно удаляет пользователя (вместе с его членством в командах).
func (s *UserService) Delete(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "user deleted", slog.Int64("user_id", id))
	return nil
}
