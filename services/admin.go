package services

import (
	"context"
	"log/slog"
)

// AdminStatus - результат проверки прав администратора.
type AdminStatus int

const (
	NotAdmin AdminStatus = iota
	Admin
	AdminCheckFailed
)

func (s AdminStatus) String() string {
	switch s {
	case Admin:
		return "admin"
	case AdminCheckFailed:
		return "check_failed"
	default:
		return "not_admin"
	}
}

// AdminChecker определяет, является ли принципал администратором.
// Ошибка возвращается только вместе с AdminCheckFailed.
type AdminChecker interface {
	CheckAdmin(ctx context.Context, principalID int64) (AdminStatus, error)
}

// AdminGate оборачивает AdminChecker: неудачная проверка логируется и считается отказом.
type AdminGate struct {
	checker AdminChecker
	logger  *slog.Logger
}

func NewAdminGate(checker AdminChecker, logger *slog.Logger) *AdminGate {
	return &AdminGate{checker: checker, logger: logger}
}

func (g *AdminGate) IsAdmin(ctx context.Context, principalID int64) bool {
	status, err := g.checker.CheckAdmin(ctx, principalID)
	if status == AdminCheckFailed {
		g.logger.WarnContext(ctx, "admin capability check failed, treating as not admin",
			slog.Int64("principal_id", principalID), slog.Any("error", err))
		return false
	}
	return status == Admin
}

// RequireAdmin возвращает ErrAdminRequired, если принципал не администратор.
func (g *AdminGate) RequireAdmin(ctx context.Context, principalID int64) error {
	if !g.IsAdmin(ctx, principalID) {
		return ErrAdminRequired
	}
	return nil
}
