package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Dosada05/tournament-bot/models"
)

// Notifier - политика рассылки уведомлений при смене состояний.
// Доставка best-effort: ошибки транспорта логируются и не откатывают изменения.
type Notifier interface {
	RegistrationRequested(ctx context.Context, user *models.User)
	UserApproved(ctx context.Context, user *models.User)
	UserDenied(ctx context.Context, user *models.User)
	// TeamRequested отправляет администраторам карточку заявки команды.
	TeamRequested(ctx context.Context, roster *models.Roster)
	// TeamSubmitted - карточка администраторам и уведомление каждому участнику.
	TeamSubmitted(ctx context.Context, roster *models.Roster)
	TeamApproved(ctx context.Context, roster *models.Roster)
	// TeamRejected вызывается до удаления команды, пока состав ещё доступен.
	TeamRejected(ctx context.Context, roster *models.Roster)
	TeamCancelled(ctx context.Context, roster *models.Roster)
	TournamentSaved(ctx context.Context, tournament *models.Tournament, created bool)
}

// RoomPublisher рассылает события подписчикам комнаты (веб-редактору турнира).
type RoomPublisher interface {
	BroadcastToRoom(room string, message []byte)
}

// TournamentRoom - имя комнаты с событиями турнира.
func TournamentRoom(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}

// RoomEvent - сообщение, уходящее в комнату турнира.
type RoomEvent struct {
	Type         string `json:"type"`
	TournamentID int    `json:"tournament_id"`
	TeamID       int    `json:"team_id,omitempty"`
	TeamName     string `json:"team_name,omitempty"`
	Status       string `json:"status,omitempty"`
	Members      int    `json:"members,omitempty"`
}

const (
	roomEventTeamSubmitted     = "team_submitted"
	roomEventTeamEnrolled      = "team_enrolled"
	roomEventTeamRemoved       = "team_removed"
	roomEventTournamentUpdated = "tournament_updated"
	roomEventTournamentCreated = "tournament_created"
)

type Fanout struct {
	transport   Transport
	adminChatID int64
	rooms       RoomPublisher
	logger      *slog.Logger
}

// NewFanout - rooms может быть nil.
func NewFanout(transport Transport, adminChatID int64, rooms RoomPublisher, logger *slog.Logger) *Fanout {
	return &Fanout{transport: transport, adminChatID: adminChatID, rooms: rooms, logger: logger}
}

func (f *Fanout) RegistrationRequested(ctx context.Context, user *models.User) {
	markup := InlineKeyboard{{
		{Text: btnApprove, Data: callbackData(cbApproveUser, user.ID)},
		{Text: btnDeny, Data: callbackData(cbDenyUser, user.ID)},
		{Text: btnDeleteRequest, Data: callbackData(cbDeleteUser, user.ID)},
	}}
	f.deliver(ctx, "registration_requested", f.adminChatID, userRequestCard(user), markup)
}

func (f *Fanout) UserApproved(ctx context.Context, user *models.User) {
	f.deliver(ctx, "user_approved", user.ChatID, msgUserApproved, nil)
}

func (f *Fanout) UserDenied(ctx context.Context, user *models.User) {
	f.deliver(ctx, "user_denied", user.ChatID, msgUserDenied, nil)
}

func (f *Fanout) TeamRequested(ctx context.Context, roster *models.Roster) {
	markup := InlineKeyboard{{
		{Text: btnApprove, Data: callbackData(cbApproveTeam, roster.Team.ID)},
		{Text: btnDeny, Data: callbackData(cbDenyTeam, roster.Team.ID)},
	}}
	f.deliver(ctx, "team_requested", f.adminChatID, teamSubmissionCard(roster), markup)
	f.publishTeam(ctx, roomEventTeamSubmitted, roster)
}

func (f *Fanout) TeamSubmitted(ctx context.Context, roster *models.Roster) {
	f.TeamRequested(ctx, roster)
	f.toMembers(ctx, "team_submitted", roster, teamSubmittedNotice(roster))
}

func (f *Fanout) TeamApproved(ctx context.Context, roster *models.Roster) {
	f.toMembers(ctx, "team_approved", roster, teamApprovedNotice(roster))
	f.publishTeam(ctx, roomEventTeamEnrolled, roster)
}

func (f *Fanout) TeamRejected(ctx context.Context, roster *models.Roster) {
	f.toMembers(ctx, "team_rejected", roster, teamRejectedNotice(roster))
	f.publishTeam(ctx, roomEventTeamRemoved, roster)
}

func (f *Fanout) TeamCancelled(ctx context.Context, roster *models.Roster) {
	f.publishTeam(ctx, roomEventTeamRemoved, roster)
}

func (f *Fanout) TournamentSaved(ctx context.Context, t *models.Tournament, created bool) {
	kind := roomEventTournamentUpdated
	if created {
		kind = roomEventTournamentCreated
	}
	f.publish(ctx, t.ID, RoomEvent{Type: kind, TournamentID: t.ID, Status: t.Status.String()})
}

func (f *Fanout) toMembers(ctx context.Context, event string, roster *models.Roster, text string) {
	for _, m := range roster.Members {
		if m.User == nil {
			continue
		}
		f.deliver(ctx, event, m.User.ChatID, text, nil)
	}
}

func (f *Fanout) deliver(ctx context.Context, event string, chatID int64, text string, markup Markup) {
	if _, err := f.transport.Send(ctx, chatID, text, markup); err != nil {
		f.logger.WarnContext(ctx, "notification delivery failed",
			slog.String("delivery_id", uuid.NewString()),
			slog.String("event", event),
			slog.Int64("chat_id", chatID),
			slog.Any("error", err))
	}
}

func (f *Fanout) publishTeam(ctx context.Context, kind string, roster *models.Roster) {
	f.publish(ctx, roster.Tournament.ID, RoomEvent{
		Type:         kind,
		TournamentID: roster.Tournament.ID,
		TeamID:       roster.Team.ID,
		TeamName:     roster.Team.Name,
		Status:       roster.Team.Status.String(),
		Members:      roster.Size(),
	})
}

func (f *Fanout) publish(ctx context.Context, tournamentID int, event RoomEvent) {
	if f.rooms == nil {
		return
	}
	payload, err := json.Marshal(event)
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to encode room event", slog.Any("error", err))
		return
	}
	f.rooms.BroadcastToRoom(TournamentRoom(tournamentID), payload)
}
