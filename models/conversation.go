package models

import "time"

// ConversationState - явное состояние диалога, хранится вместе с данными шага.
type ConversationState string

const (
	StateIdle                   ConversationState = ""
	StateAwaitingPhone          ConversationState = "awaiting_phone"
	StateAwaitingFullName       ConversationState = "awaiting_full_name"
	StateAwaitingComment        ConversationState = "awaiting_comment"
	StateAwaitingTeamName       ConversationState = "awaiting_team_name"
	StateManagingTeam           ConversationState = "managing_team"
	StateAwaitingMemberPhone    ConversationState = "awaiting_member_phone"
	StateAwaitingMemberToRemove ConversationState = "awaiting_member_to_remove"
)

// FlowData - данные, накапливаемые в рамках одного сценария.
type FlowData struct {
	PhoneNumber  string `json:"phone_number,omitempty"`
	FullName     string `json:"full_name,omitempty"`
	Comment      string `json:"comment,omitempty"`
	TournamentID int    `json:"tournament_id,omitempty"`
	TeamID       int    `json:"team_id,omitempty"`
}

type Conversation struct {
	ChatID    int64             `json:"chat_id" db:"chat_id"`
	UserID    int64             `json:"user_id" db:"user_id"`
	State     ConversationState `json:"state" db:"state"`
	Data      FlowData          `json:"data" db:"data"`
	UpdatedAt time.Time         `json:"updated_at" db:"updated_at"`
}

// Reset возвращает диалог в Idle и очищает данные сценария.
func (c *Conversation) Reset() {
	c.State = StateIdle
	c.Data = FlowData{}
}
