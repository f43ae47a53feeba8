package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/tournament-bot/models"
)

type ConversationRepository interface {
	// Get возвращает сохранённый диалог или новый в состоянии Idle.
	Get(ctx context.Context, chatID, userID int64) (*models.Conversation, error)
	Save(ctx context.Context, conv *models.Conversation) error
	Delete(ctx context.Context, chatID, userID int64) error
	// DeleteIdleBefore удаляет диалоги, не обновлявшиеся с момента before.
	// Возвращает количество сброшенных диалогов.
	DeleteIdleBefore(ctx context.Context, before time.Time) (int64, error)
}

type postgresConversationRepository struct {
	db *sql.DB
}

func NewPostgresConversationRepository(db *sql.DB) ConversationRepository {
	return &postgresConversationRepository{db: db}
}

func (r *postgresConversationRepository) Get(ctx context.Context, chatID, userID int64) (*models.Conversation, error) {
	conv := &models.Conversation{ChatID: chatID, UserID: userID}
	var raw []byte
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT state, data, updated_at FROM conversations WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID).Scan(&conv.State, &raw, &conv.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return conv, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &conv.Data); err != nil {
			return nil, fmt.Errorf("failed to decode conversation data: %w", err)
		}
	}
	return conv, nil
}

func (r *postgresConversationRepository) Save(ctx context.Context, conv *models.Conversation) error {
	raw, err := json.Marshal(conv.Data)
	if err != nil {
		return fmt.Errorf("failed to encode conversation data: %w", err)
	}

	query := `
		INSERT INTO conversations (chat_id, user_id, state, data, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (chat_id, user_id)
		DO UPDATE SET state = EXCLUDED.state, data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
		RETURNING updated_at`
	err = getExecutor(ctx, r.db).QueryRowContext(ctx, query,
		conv.ChatID, conv.UserID, conv.State, raw).Scan(&conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}
	return nil
}

func (r *postgresConversationRepository) Delete(ctx context.Context, chatID, userID int64) error {
	_, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM conversations WHERE chat_id = $1 AND user_id = $2`, chatID, userID)
	return err
}

func (r *postgresConversationRepository) DeleteIdleBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM conversations WHERE updated_at < $1 AND state <> $2`, before, models.StateIdle)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep idle conversations: %w", err)
	}
	return result.RowsAffected()
}
