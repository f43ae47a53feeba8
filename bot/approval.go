package bot

import (
	"context"
	"fmt"

	"github.com/Dosada05/tournament-bot/models"
)

// Все действия согласования доступны только администраторам. При отказе
// состояние не меняется.

func (b *Bot) requireAdmin(ctx context.Context, ev Event) bool {
	if err := b.svc.Admins.RequireAdmin(ctx, ev.From.ID); err != nil {
		b.answer(ctx, ev, msgAdminRequired, false)
		return false
	}
	return true
}

func (b *Bot) approveUser(ctx context.Context, ev Event, userID int64) error {
	if !b.requireAdmin(ctx, ev) {
		return nil
	}
	user, err := b.svc.Users.Approve(ctx, userID)
	if err != nil {
		return b.failCallback(ctx, ev, err)
	}

	b.notify.UserApproved(ctx, user)
	b.editActions(ctx, ev.Callback.Message, nil)
	b.answer(ctx, ev, fmt.Sprintf("✅ Approved by %s", ev.From.FullName), false)
	return nil
}

func (b *Bot) denyUser(ctx context.Context, ev Event, userID int64) error {
	if !b.requireAdmin(ctx, ev) {
		return nil
	}
	user, err := b.svc.Users.Deny(ctx, userID)
	if err != nil {
		return b.failCallback(ctx, ev, err)
	}

	b.notify.UserDenied(ctx, user)
	b.editActions(ctx, ev.Callback.Message, nil)
	b.answer(ctx, ev, fmt.Sprintf("❌ Denied by %s", ev.From.FullName), false)
	return nil
}

func (b *Bot) deleteUser(ctx context.Context, ev Event, userID int64) error {
	if !b.requireAdmin(ctx, ev) {
		return nil
	}
	if err := b.svc.Users.Delete(ctx, userID); err != nil {
		return b.failCallback(ctx, ev, err)
	}

	b.deleteMessage(ctx, ev.Callback.Message)
	b.answer(ctx, ev, fmt.Sprintf("Request deleted by %s", ev.From.FullName), false)
	return nil
}

func (b *Bot) approveTeam(ctx context.Context, ev Event, teamID int) error {
	if !b.requireAdmin(ctx, ev) {
		return nil
	}
	roster, err := b.svc.Teams.Approve(ctx, teamID)
	if err != nil {
		return b.failCallback(ctx, ev, err)
	}

	b.notify.TeamApproved(ctx, roster)
	b.deleteMessage(ctx, ev.Callback.Message)
	b.answer(ctx, ev, msgTeamApproved, false)
	return nil
}

// denyTeam: участники уведомляются до удаления команды. Одобренную команду
// с устаревшей карточки отклонить нельзя.
func (b *Bot) denyTeam(ctx context.Context, ev Event, teamID int) error {
	if !b.requireAdmin(ctx, ev) {
		return nil
	}
	if _, err := b.svc.Teams.Deny(ctx, teamID, b.rejectNotice); err != nil {
		return b.failCallback(ctx, ev, err)
	}

	b.deleteMessage(ctx, ev.Callback.Message)
	b.answer(ctx, ev, msgTeamRejected, false)
	return nil
}

func (b *Bot) rejectNotice(ctx context.Context, roster *models.Roster) {
	b.notify.TeamRejected(ctx, roster)
}

// adminDeleteTeam и adminApproveTeam работают из карточки турнира и
// перерисовывают её после изменения.
func (b *Bot) adminDeleteTeam(ctx context.Context, ev Event, teamID int) error {
	if !b.requireAdmin(ctx, ev) {
		return nil
	}
	roster, err := b.svc.Teams.Remove(ctx, teamID, b.rejectNotice)
	if err != nil {
		return b.failCallback(ctx, ev, err)
	}

	b.answer(ctx, ev, "✅ Team deleted", false)
	return b.sendTournamentDetail(ctx, ev.ChatID, ev.From.ID, roster.Tournament.ID)
}

func (b *Bot) adminApproveTeam(ctx context.Context, ev Event, teamID int) error {
	if !b.requireAdmin(ctx, ev) {
		return nil
	}
	roster, err := b.svc.Teams.Approve(ctx, teamID)
	if err != nil {
		return b.failCallback(ctx, ev, err)
	}

	b.notify.TeamApproved(ctx, roster)
	b.answer(ctx, ev, "✅ Team approved", false)
	return b.sendTournamentDetail(ctx, ev.ChatID, ev.From.ID, roster.Tournament.ID)
}
