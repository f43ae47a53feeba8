package bot

import (
	"context"
	"errors"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/services"
)

// composeTeam - вход в сценарий состава. В индивидуальном турнире команда
// из одного игрока создаётся и подаётся сразу, без промежуточных состояний.
func (b *Bot) composeTeam(ctx context.Context, ev Event, conv *models.Conversation, tournamentID int) error {
	tournament, _, err := b.svc.Teams.PrepareJoin(ctx, ev.From.ID, tournamentID)
	if err != nil {
		return b.failCallback(ctx, ev, err)
	}

	if tournament.IsSolo() {
		roster, err := b.svc.Teams.CreateSoloTeam(ctx, ev.From.ID, tournamentID)
		if err != nil {
			return b.failCallback(ctx, ev, err)
		}
		b.notify.TeamRequested(ctx, roster)
		b.answer(ctx, ev, "", false)
		b.reply(ctx, ev.ChatID, msgSoloSubmitted, nil)
		return nil
	}

	conv.Reset()
	conv.State = models.StateAwaitingTeamName
	conv.Data.TournamentID = tournamentID
	if err := b.saveConversation(ctx, conv); err != nil {
		return err
	}
	b.answer(ctx, ev, "", false)
	b.reply(ctx, ev.ChatID, msgEnterTeamName, RemoveKeyboard{})
	return nil
}

func (b *Bot) teamName(ctx context.Context, ev Event, conv *models.Conversation) error {
	if ev.Kind != EventText {
		return nil
	}

	roster, err := b.svc.Teams.CreateTeam(ctx, ev.From.ID, conv.Data.TournamentID, ev.Text)
	if errors.Is(err, services.ErrTeamNameRequired) {
		b.reply(ctx, ev.ChatID, msgEnterTeamName, nil)
		return nil
	}
	if err != nil {
		conv.Reset()
		if saveErr := b.saveConversation(ctx, conv); saveErr != nil {
			return saveErr
		}
		return b.failReply(ctx, ev.ChatID, err, nil)
	}

	return b.enterManagement(ctx, ev.ChatID, conv, roster)
}

// enterManagement возвращает диалог в цикл управления составом и показывает его.
func (b *Bot) enterManagement(ctx context.Context, chatID int64, conv *models.Conversation, roster *models.Roster) error {
	conv.State = models.StateManagingTeam
	conv.Data.TeamID = roster.Team.ID
	conv.Data.TournamentID = roster.Tournament.ID
	if err := b.saveConversation(ctx, conv); err != nil {
		return err
	}
	b.reply(ctx, chatID, teamManagementText(roster), managementKeyboard(roster))
	return nil
}

// managementKeyboard: добавление доступно, пока состав меньше players_registered,
// удаление - если есть кто-то кроме капитана.
func managementKeyboard(r *models.Roster) InlineKeyboard {
	var kb InlineKeyboard
	if r.CanAddMembers() {
		kb = append(kb, []Button{{Text: btnAddMember, Data: callbackData(cbAddMember, r.Team.ID)}})
	}
	if len(r.Removable()) > 0 {
		kb = append(kb, []Button{{Text: btnRemoveMember, Data: callbackData(cbRemoveMember, r.Team.ID)}})
	}
	kb = append(kb, []Button{
		{Text: btnSubmitTeam, Data: callbackData(cbSubmitTeam, r.Team.ID)},
		{Text: btnCancel, Data: callbackData(cbCancelTeam, r.Team.ID)},
	})
	return kb
}

func (b *Bot) captainRoster(ctx context.Context, ev Event, teamID int) (*models.Roster, error) {
	roster, err := b.svc.Teams.Roster(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !roster.IsCaptain(ev.From.ID) {
		return nil, services.ErrCaptainActionForbidden
	}
	return roster, nil
}

func (b *Bot) addMember(ctx context.Context, ev Event, conv *models.Conversation, teamID int) error {
	roster, err := b.captainRoster(ctx, ev, teamID)
	if err != nil {
		return b.failCallback(ctx, ev, err)
	}
	if !roster.CanAddMembers() {
		return b.failCallback(ctx, ev, &services.RosterSizeError{
			Count: roster.Size(), Limit: roster.Tournament.PlayersRegistered, TooMany: true,
		})
	}

	conv.State = models.StateAwaitingMemberPhone
	conv.Data.TeamID = teamID
	conv.Data.TournamentID = roster.Tournament.ID
	if err := b.saveConversation(ctx, conv); err != nil {
		return err
	}
	b.answer(ctx, ev, "", false)
	b.reply(ctx, ev.ChatID, msgEnterMemberPhone, RemoveKeyboard{})
	return nil
}

// memberPhone ищет пользователя по номеру. При ошибке диалог возвращается
// к управлению составом с сообщением об ошибке.
func (b *Bot) memberPhone(ctx context.Context, ev Event, conv *models.Conversation) error {
	phone := ev.Text
	switch {
	case ev.Kind == EventContact && ev.Contact != nil:
		phone = ev.Contact.PhoneNumber
	case ev.Kind != EventText:
		return nil
	}

	roster, err := b.svc.Teams.AddMemberByPhone(ctx, ev.From.ID, conv.Data.TeamID, phone)
	if err != nil {
		return b.backToManagement(ctx, ev, conv, err)
	}
	return b.enterManagement(ctx, ev.ChatID, conv, roster)
}

func (b *Bot) removeMember(ctx context.Context, ev Event, conv *models.Conversation, teamID int) error {
	roster, err := b.captainRoster(ctx, ev, teamID)
	if err != nil {
		return b.failCallback(ctx, ev, err)
	}
	removable := roster.Removable()
	if len(removable) == 0 {
		return b.failCallback(ctx, ev, services.ErrNoMembersToRemove)
	}

	rows := make([][]ReplyButton, 0, len(removable))
	for _, m := range removable {
		name, _ := memberContact(m)
		rows = append(rows, []ReplyButton{{Text: name}})
	}

	conv.State = models.StateAwaitingMemberToRemove
	conv.Data.TeamID = teamID
	conv.Data.TournamentID = roster.Tournament.ID
	if err := b.saveConversation(ctx, conv); err != nil {
		return err
	}
	b.answer(ctx, ev, "", false)
	b.reply(ctx, ev.ChatID, msgSelectMember, ReplyKeyboard{Rows: rows, OneTime: true})
	return nil
}

func (b *Bot) memberToRemove(ctx context.Context, ev Event, conv *models.Conversation) error {
	if ev.Kind != EventText {
		return nil
	}
	roster, err := b.svc.Teams.RemoveMemberByName(ctx, ev.From.ID, conv.Data.TeamID, ev.Text)
	if err != nil {
		return b.backToManagement(ctx, ev, conv, err)
	}
	return b.enterManagement(ctx, ev.ChatID, conv, roster)
}

// backToManagement сообщает об ошибке шага и заново показывает состав.
func (b *Bot) backToManagement(ctx context.Context, ev Event, conv *models.Conversation, cause error) error {
	if err := b.failReply(ctx, ev.ChatID, cause, RemoveKeyboard{}); err != nil {
		return err
	}
	roster, err := b.svc.Teams.Roster(ctx, conv.Data.TeamID)
	if errors.Is(err, services.ErrTeamNotFound) {
		conv.Reset()
		return b.saveConversation(ctx, conv)
	}
	if err != nil {
		return err
	}
	return b.enterManagement(ctx, ev.ChatID, conv, roster)
}

func (b *Bot) submitTeam(ctx context.Context, ev Event, conv *models.Conversation, teamID int) error {
	roster, err := b.svc.Teams.Submit(ctx, ev.From.ID, teamID)
	if err != nil {
		return b.failCallback(ctx, ev, err)
	}

	b.notify.TeamSubmitted(ctx, roster)
	b.answer(ctx, ev, msgTeamSubmitted, false)
	b.editActions(ctx, ev.Callback.Message, nil)
	b.reply(ctx, ev.ChatID, msgTeamSubmitted, nil)
	return b.leaveTeamFlow(ctx, conv, teamID)
}

func (b *Bot) cancelTeam(ctx context.Context, ev Event, conv *models.Conversation, teamID int) error {
	roster, err := b.svc.Teams.Cancel(ctx, ev.From.ID, teamID)
	if err != nil {
		return b.failCallback(ctx, ev, err)
	}

	b.notify.TeamCancelled(ctx, roster)
	b.answer(ctx, ev, msgTeamCancelled, true)
	b.editActions(ctx, ev.Callback.Message, nil)
	return b.leaveTeamFlow(ctx, conv, teamID)
}

// leaveTeamFlow сбрасывает диалог, если он относится к этой команде.
func (b *Bot) leaveTeamFlow(ctx context.Context, conv *models.Conversation, teamID int) error {
	if conv.State == models.StateIdle || conv.Data.TeamID != teamID {
		return nil
	}
	conv.Reset()
	return b.saveConversation(ctx, conv)
}
