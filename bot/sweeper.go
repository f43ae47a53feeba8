package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-bot/repositories"
)

// Sweeper возвращает брошенные диалоги в Idle, удаляя их данные.
type Sweeper struct {
	conversations repositories.ConversationRepository
	timeout       time.Duration
	interval      time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

func NewSweeper(conversations repositories.ConversationRepository, timeout time.Duration, logger *slog.Logger) *Sweeper {
	interval := timeout / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	return &Sweeper{
		conversations: conversations,
		timeout:       timeout,
		interval:      interval,
		now:           time.Now,
		logger:        logger,
	}
}

// Sweep выполняет один проход и возвращает число сброшенных диалогов.
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	removed, err := s.conversations.DeleteIdleBefore(ctx, s.now().Add(-s.timeout))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "abandoned conversations reset", slog.Int64("count", removed))
	}
	return removed, nil
}

// Run повторяет Sweep до отмены контекста.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				s.logger.ErrorContext(ctx, "conversation sweep failed", slog.Any("error", err))
			}
		}
	}
}
