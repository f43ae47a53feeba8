package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/repositories"
	"github.com/Dosada05/tournament-bot/services"
)

// Services - сервисы, с которыми работают сценарии бота.
type Services struct {
	Users       *services.UserService
	Teams       *services.TeamService
	Tournaments *services.TournamentService
	WebForm     *services.WebFormService
	Export      *services.ExportService
	Admins      *services.AdminGate
}

// LinkBuilder строит подписанную ссылку на веб-редактор турниров.
type LinkBuilder interface {
	EditorURL(principalID int64, tournamentID int) (string, error)
}

// Bot маршрутизирует входящие события по состоянию диалога и форме события.
// События одного диалога обрабатываются строго последовательно.
type Bot struct {
	transport     Transport
	conversations repositories.ConversationRepository
	svc           Services
	notify        Notifier
	links         LinkBuilder
	logger        *slog.Logger

	locks keyedMutex
}

func New(
	transport Transport,
	conversations repositories.ConversationRepository,
	svc Services,
	notify Notifier,
	links LinkBuilder,
	logger *slog.Logger,
) *Bot {
	return &Bot{
		transport:     transport,
		conversations: conversations,
		svc:           svc,
		notify:        notify,
		links:         links,
		logger:        logger,
		locks:         keyedMutex{entries: make(map[conversationKey]*lockEntry)},
	}
}

type conversationKey struct {
	chatID int64
	userID int64
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex - мьютекс на каждый диалог; записи удаляются, когда их никто не держит.
type keyedMutex struct {
	mu      sync.Mutex
	entries map[conversationKey]*lockEntry
}

func (k *keyedMutex) Lock(key conversationKey) func() {
	k.mu.Lock()
	e, ok := k.entries[key]
	if !ok {
		e = &lockEntry{}
		k.entries[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.entries, key)
		}
		k.mu.Unlock()
	}
}

// HandleEvent обрабатывает одно входящее событие.
func (b *Bot) HandleEvent(ctx context.Context, ev Event) {
	unlock := b.locks.Lock(conversationKey{chatID: ev.ChatID, userID: ev.From.ID})
	defer unlock()

	if err := b.dispatch(ctx, ev); err != nil {
		b.logger.ErrorContext(ctx, "event handling failed",
			slog.Int64("chat_id", ev.ChatID),
			slog.Int64("user_id", ev.From.ID),
			slog.Int("kind", int(ev.Kind)),
			slog.Any("error", err))
		if ev.Kind == EventCallback && ev.Callback != nil {
			b.answer(ctx, ev, msgGenericError, true)
			return
		}
		b.reply(ctx, ev.ChatID, msgGenericError, nil)
	}
}

func (b *Bot) dispatch(ctx context.Context, ev Event) error {
	conv, err := b.conversations.Get(ctx, ev.ChatID, ev.From.ID)
	if err != nil {
		return fmt.Errorf("load conversation: %w", err)
	}

	switch ev.Kind {
	case EventCommand:
		return b.handleCommand(ctx, ev, conv)
	case EventCallback:
		if ev.Callback == nil {
			return errors.New("callback event without payload")
		}
		return b.handleCallback(ctx, ev, conv)
	case EventWebAppData:
		return b.handleWebAppData(ctx, ev)
	case EventText, EventContact:
		return b.handleInput(ctx, ev, conv)
	}
	return nil
}

func (b *Bot) handleCommand(ctx context.Context, ev Event, conv *models.Conversation) error {
	switch ev.Command {
	case "start":
		return b.handleStart(ctx, ev, conv)
	case "tournaments":
		return b.showTournamentList(ctx, ev.ChatID, ev.From.ID)
	case "cancel":
		if conv.State == models.StateIdle {
			b.reply(ctx, ev.ChatID, msgNothingToCancel, RemoveKeyboard{})
			return nil
		}
		conv.Reset()
		if err := b.saveConversation(ctx, conv); err != nil {
			return err
		}
		b.reply(ctx, ev.ChatID, msgCancelled, RemoveKeyboard{})
		return nil
	default:
		b.reply(ctx, ev.ChatID, msgHelp, nil)
		return nil
	}
}

// handleInput направляет текст и контакты в шаг текущего сценария.
func (b *Bot) handleInput(ctx context.Context, ev Event, conv *models.Conversation) error {
	switch conv.State {
	case models.StateAwaitingPhone:
		return b.registrationPhone(ctx, ev, conv)
	case models.StateAwaitingFullName:
		return b.registrationFullName(ctx, ev, conv)
	case models.StateAwaitingComment:
		return b.registrationComment(ctx, ev, conv)
	case models.StateAwaitingTeamName:
		return b.teamName(ctx, ev, conv)
	case models.StateAwaitingMemberPhone:
		return b.memberPhone(ctx, ev, conv)
	case models.StateAwaitingMemberToRemove:
		return b.memberToRemove(ctx, ev, conv)
	}
	// Idle и управление составом ждут нажатий кнопок.
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, ev Event, conv *models.Conversation) error {
	prefix, id, err := parseCallback(ev.Callback.Data)
	if err != nil {
		b.logger.WarnContext(ctx, "unknown callback", slog.String("data", ev.Callback.Data))
		b.answer(ctx, ev, "", false)
		return nil
	}

	switch prefix {
	case cbApproveUser:
		return b.approveUser(ctx, ev, id)
	case cbDenyUser:
		return b.denyUser(ctx, ev, id)
	case cbDeleteUser:
		return b.deleteUser(ctx, ev, id)

	case cbComposeTeam:
		return b.composeTeam(ctx, ev, conv, int(id))
	case cbAddMember:
		return b.addMember(ctx, ev, conv, int(id))
	case cbRemoveMember:
		return b.removeMember(ctx, ev, conv, int(id))
	case cbSubmitTeam:
		return b.submitTeam(ctx, ev, conv, int(id))
	case cbCancelTeam:
		return b.cancelTeam(ctx, ev, conv, int(id))

	case cbApproveTeam:
		return b.approveTeam(ctx, ev, int(id))
	case cbDenyTeam:
		return b.denyTeam(ctx, ev, int(id))

	case cbViewTournament:
		return b.viewTournament(ctx, ev, int(id))
	case cbEditTournament:
		return b.editTournament(ctx, ev, int(id))
	case cbDeleteTournament:
		return b.deleteTournament(ctx, ev, int(id))
	case cbExportTournament:
		return b.exportTournament(ctx, ev, int(id))
	case cbRefreshTournaments:
		b.answer(ctx, ev, "", false)
		return b.showTournamentList(ctx, ev.ChatID, ev.From.ID)
	case cbAdminDeleteTeam:
		return b.adminDeleteTeam(ctx, ev, int(id))
	case cbAdminApproveTeam:
		return b.adminApproveTeam(ctx, ev, int(id))
	}
	return nil
}

// handleWebAppData обрабатывает данные, которые веб-форма отправила через мессенджер.
// Ответ уходит в чат JSON-текстом.
func (b *Bot) handleWebAppData(ctx context.Context, ev Event) error {
	resp := b.svc.WebForm.HandleRaw(ctx, ev.From.ID, []byte(ev.WebAppData))
	text, err := encodeWebFormResponse(resp)
	if err != nil {
		return err
	}
	b.reply(ctx, ev.ChatID, text, nil)
	return nil
}

// saveConversation сохраняет диалог; диалог в Idle удаляется.
func (b *Bot) saveConversation(ctx context.Context, conv *models.Conversation) error {
	if conv.State == models.StateIdle {
		return b.conversations.Delete(ctx, conv.ChatID, conv.UserID)
	}
	return b.conversations.Save(ctx, conv)
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, markup Markup) {
	if _, err := b.transport.Send(ctx, chatID, text, markup); err != nil {
		b.logger.WarnContext(ctx, "send failed", slog.Int64("chat_id", chatID), slog.Any("error", err))
	}
}

func (b *Bot) answer(ctx context.Context, ev Event, text string, alert bool) {
	if err := b.transport.AnswerCallback(ctx, ev.Callback.ID, text, alert); err != nil {
		b.logger.WarnContext(ctx, "callback answer failed", slog.Any("error", err))
	}
}

func (b *Bot) editActions(ctx context.Context, ref MessageRef, keyboard InlineKeyboard) {
	if err := b.transport.EditActions(ctx, ref, keyboard); err != nil {
		b.logger.WarnContext(ctx, "edit message actions failed",
			slog.Int64("chat_id", ref.ChatID), slog.Int("message_id", ref.MessageID), slog.Any("error", err))
	}
}

func (b *Bot) deleteMessage(ctx context.Context, ref MessageRef) {
	if err := b.transport.Delete(ctx, ref); err != nil {
		b.logger.WarnContext(ctx, "delete message failed",
			slog.Int64("chat_id", ref.ChatID), slog.Int("message_id", ref.MessageID), slog.Any("error", err))
	}
}

// userMessage переводит ошибку сервиса в текст для пользователя.
// Для внутренних ошибок ok == false.
func userMessage(err error) (text string, ok bool) {
	var conflict *services.EnrollmentConflictError
	var size *services.RosterSizeError
	switch {
	case errors.As(err, &conflict):
		return "❌ " + conflict.Error(), true
	case errors.As(err, &size):
		return "❌ " + size.Error(), true
	case errors.Is(err, services.ErrAdminRequired):
		return msgAdminRequired, true
	case errors.Is(err, services.ErrUserNotActivated):
		return msgNotActivated, true
	case errors.Is(err, services.ErrRegistrationClosed):
		return msgRegistrationClosed, true
	case errors.Is(err, services.ErrTournamentNotFound):
		return msgTournamentNotFound, true
	case errors.Is(err, services.ErrTeamNotFound):
		return msgTeamNotFound, true
	case errors.Is(err, services.ErrUserNotFound):
		return "❌ " + msgUserNotFound, true
	case errors.Is(err, services.ErrUserAlreadyInTeam):
		return "❌ " + msgAlreadyInTeam, true
	case errors.Is(err, services.ErrMemberNotFound):
		return msgMemberNotFound, true
	case errors.Is(err, services.ErrCannotRemoveCaptain):
		return "❌ " + msgCannotRemoveCapt, true
	case errors.Is(err, services.ErrNoMembersToRemove):
		return msgNoMembersToRemove, true
	case errors.Is(err, services.ErrCaptainActionForbidden):
		return "❌ " + msgCaptainOnly, true
	case errors.Is(err, services.ErrTeamAlreadyEnrolled):
		return "❌ " + msgTeamEnrolled, true
	case errors.Is(err, services.ErrStatusChanged):
		return msgAlreadyProcessed, true
	case errors.Is(err, services.ErrTournamentHasTeams):
		return msgTournamentInUse, true
	case errors.Is(err, services.ErrExportDisabled):
		return msgExportDisabled, true
	}
	return "", false
}

// failCallback отвечает на нажатие сообщением об ошибке.
// Внутренние ошибки возвращаются вызывающему для логирования.
func (b *Bot) failCallback(ctx context.Context, ev Event, err error) error {
	if text, ok := userMessage(err); ok {
		b.answer(ctx, ev, text, true)
		return nil
	}
	return err
}

// failReply - то же для текстовых шагов.
func (b *Bot) failReply(ctx context.Context, chatID int64, err error, markup Markup) error {
	if text, ok := userMessage(err); ok {
		b.reply(ctx, chatID, text, markup)
		return nil
	}
	return err
}
