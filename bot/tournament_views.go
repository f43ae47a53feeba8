package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/services"
)

func (b *Bot) showTournamentList(ctx context.Context, chatID, principalID int64) error {
	tournaments, err := b.svc.Tournaments.List(ctx)
	if err != nil {
		return err
	}

	if len(tournaments) == 0 {
		b.reply(ctx, chatID, msgNoTournaments, nil)
	} else {
		kb := make(InlineKeyboard, 0, len(tournaments))
		for _, t := range tournaments {
			kb = append(kb, []Button{{Text: tournamentButtonText(t), Data: callbackData(cbViewTournament, t.ID)}})
		}
		b.reply(ctx, chatID, msgTournamentList, kb)
	}

	if b.svc.Admins.IsAdmin(ctx, principalID) {
		b.sendEditorButton(ctx, chatID, principalID, 0, msgCreateTournament, btnCreateTournament)
	}
	return nil
}

// sendEditorButton отправляет кнопку, открывающую веб-редактор турнира.
func (b *Bot) sendEditorButton(ctx context.Context, chatID, principalID int64, tournamentID int, text, button string) {
	link, err := b.links.EditorURL(principalID, tournamentID)
	if err != nil {
		b.logger.WarnContext(ctx, "editor link unavailable", slog.Any("error", err))
		return
	}
	b.reply(ctx, chatID, text, ReplyKeyboard{Rows: [][]ReplyButton{{{Text: button, WebAppURL: link}}}})
}

func (b *Bot) viewTournament(ctx context.Context, ev Event, tournamentID int) error {
	if _, err := b.svc.Tournaments.Get(ctx, tournamentID); err != nil {
		return b.failCallback(ctx, ev, err)
	}
	b.answer(ctx, ev, "", false)
	return b.sendTournamentDetail(ctx, ev.ChatID, ev.From.ID, tournamentID)
}

// sendTournamentDetail показывает карточку турнира. Администратор видит составы
// и кнопки управления командами, остальные - кнопку подачи заявки.
func (b *Bot) sendTournamentDetail(ctx context.Context, chatID, principalID int64, tournamentID int) error {
	detail, err := b.svc.Tournaments.Detail(ctx, tournamentID)
	if err != nil {
		return b.failReply(ctx, chatID, err, nil)
	}
	admin := b.svc.Admins.IsAdmin(ctx, principalID)

	text := tournamentDetailText(detail.Tournament, detail.Rosters, admin)
	b.reply(ctx, chatID, text, tournamentDetailKeyboard(detail, admin, b.svc.Export.Enabled()))
	return nil
}

func tournamentDetailKeyboard(detail *services.TournamentDetail, admin, exportEnabled bool) InlineKeyboard {
	t := detail.Tournament
	var kb InlineKeyboard

	if !admin {
		if t.Status == models.TournamentStatusScheduled {
			kb = append(kb, []Button{{Text: btnJoin, Data: callbackData(cbComposeTeam, t.ID)}})
		}
		return kb
	}

	for i, r := range detail.Rosters {
		row := []Button{{Text: fmt.Sprintf("🗑️ Delete Team %d", i+1), Data: callbackData(cbAdminDeleteTeam, r.Team.ID)}}
		if r.Team.Status == models.TeamStatusRequested {
			row = append(row, Button{Text: fmt.Sprintf("✅ Approve Team %d", i+1), Data: callbackData(cbAdminApproveTeam, r.Team.ID)})
		}
		kb = append(kb, row)
	}
	kb = append(kb, []Button{
		{Text: btnEdit, Data: callbackData(cbEditTournament, t.ID)},
		{Text: btnDelete, Data: callbackData(cbDeleteTournament, t.ID)},
	})
	if exportEnabled {
		kb = append(kb, []Button{{Text: btnExport, Data: callbackData(cbExportTournament, t.ID)}})
	}
	return kb
}

func (b *Bot) editTournament(ctx context.Context, ev Event, tournamentID int) error {
	if !b.requireAdmin(ctx, ev) {
		return nil
	}
	if _, err := b.svc.Tournaments.Get(ctx, tournamentID); err != nil {
		return b.failCallback(ctx, ev, err)
	}
	b.answer(ctx, ev, "", false)
	b.sendEditorButton(ctx, ev.ChatID, ev.From.ID, tournamentID, msgEditingTournament, btnEditTournament)
	return nil
}

func (b *Bot) deleteTournament(ctx context.Context, ev Event, tournamentID int) error {
	if !b.requireAdmin(ctx, ev) {
		return nil
	}
	if err := b.svc.Tournaments.Delete(ctx, tournamentID); err != nil {
		return b.failCallback(ctx, ev, err)
	}

	b.editActions(ctx, ev.Callback.Message, InlineKeyboard{{{Text: btnRefresh, Data: cbRefreshTournaments}}})
	b.answer(ctx, ev, msgTournamentDeleted, false)
	return nil
}

func (b *Bot) exportTournament(ctx context.Context, ev Event, tournamentID int) error {
	if !b.requireAdmin(ctx, ev) {
		return nil
	}
	link, err := b.svc.Export.ExportRosters(ctx, tournamentID)
	if err != nil {
		return b.failCallback(ctx, ev, err)
	}
	b.answer(ctx, ev, "", false)
	b.reply(ctx, ev.ChatID, "📄 Rosters: "+link, nil)
	return nil
}

func encodeWebFormResponse(resp services.WebFormResponse) (string, error) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("encode web form response: %w", err)
	}
	return string(raw), nil
}
