package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/services"
)

// handleStart: администратор и известные пользователи получают статус,
// незнакомый принципал начинает регистрацию.
func (b *Bot) handleStart(ctx context.Context, ev Event, conv *models.Conversation) error {
	if conv.State != models.StateIdle {
		conv.Reset()
		if err := b.saveConversation(ctx, conv); err != nil {
			return err
		}
	}

	if b.svc.Admins.IsAdmin(ctx, ev.From.ID) {
		b.reply(ctx, ev.ChatID, msgAdminWelcome, nil)
		return b.showTournamentList(ctx, ev.ChatID, ev.From.ID)
	}

	user, err := b.svc.Users.Get(ctx, ev.From.ID)
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return b.startRegistration(ctx, ev, conv)
	case err != nil:
		return err
	}

	switch user.Status {
	case models.UserStatusActivated:
		b.reply(ctx, ev.ChatID, msgActiveWelcome, nil)
		return b.showTournamentList(ctx, ev.ChatID, ev.From.ID)
	case models.UserStatusBlocked:
		b.reply(ctx, ev.ChatID, msgBlocked, nil)
	default:
		b.reply(ctx, ev.ChatID, msgPending, nil)
	}
	return nil
}

func (b *Bot) startRegistration(ctx context.Context, ev Event, conv *models.Conversation) error {
	conv.Reset()
	conv.State = models.StateAwaitingPhone
	if err := b.saveConversation(ctx, conv); err != nil {
		return err
	}
	b.reply(ctx, ev.ChatID, msgSharePhone, ReplyKeyboard{
		Rows:    [][]ReplyButton{{{Text: msgSharePhoneButton, RequestContact: true}}},
		OneTime: true,
	})
	return nil
}

// registrationPhone принимает только событие "контакт отправлен"; остальное игнорируется.
func (b *Bot) registrationPhone(ctx context.Context, ev Event, conv *models.Conversation) error {
	if ev.Kind != EventContact || ev.Contact == nil {
		return nil
	}
	if ev.Contact.UserID != 0 && ev.Contact.UserID != ev.From.ID {
		// чужой контакт
		return nil
	}

	conv.Data.PhoneNumber = ev.Contact.PhoneNumber
	conv.State = models.StateAwaitingFullName
	if err := b.saveConversation(ctx, conv); err != nil {
		return err
	}

	var markup Markup = RemoveKeyboard{}
	if ev.From.FullName != "" {
		markup = ReplyKeyboard{Rows: [][]ReplyButton{{{Text: useNameButton(ev.From.FullName)}}}}
	}
	b.reply(ctx, ev.ChatID, msgEnterFullName, markup)
	return nil
}

func (b *Bot) registrationFullName(ctx context.Context, ev Event, conv *models.Conversation) error {
	if ev.Kind != EventText {
		return nil
	}

	text := ev.Text
	if ev.From.FullName != "" && text == useNameButton(ev.From.FullName) {
		text = ev.From.FullName
	}

	name, err := services.ValidateFullName(text)
	switch {
	case errors.Is(err, services.ErrNameTooLong):
		b.reply(ctx, ev.ChatID, msgNameTooLong, nil)
		return nil
	case err != nil:
		b.reply(ctx, ev.ChatID, msgEnterFullName, nil)
		return nil
	}

	conv.Data.FullName = name
	conv.State = models.StateAwaitingComment
	if err := b.saveConversation(ctx, conv); err != nil {
		return err
	}
	b.reply(ctx, ev.ChatID, msgEnterComment, RemoveKeyboard{})
	return nil
}

// registrationComment завершает сценарий: данные сценария очищаются при любом исходе.
func (b *Bot) registrationComment(ctx context.Context, ev Event, conv *models.Conversation) error {
	if ev.Kind != EventText {
		return nil
	}

	input := services.RegistrationInput{
		UserID:      ev.From.ID,
		ChatID:      ev.ChatID,
		Username:    ev.From.Username,
		PhoneNumber: conv.Data.PhoneNumber,
		FullName:    conv.Data.FullName,
		Comment:     ev.Text,
	}

	conv.Reset()
	if err := b.saveConversation(ctx, conv); err != nil {
		return err
	}

	user, err := b.svc.Users.Register(ctx, input)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAlreadyRegistered):
			b.reply(ctx, ev.ChatID, msgDuplicate, nil)
		case errors.Is(err, services.ErrPhoneAlreadyUsed):
			b.reply(ctx, ev.ChatID, msgPhoneUsed, nil)
		case errors.Is(err, services.ErrRegistrationIncomplete), errors.Is(err, services.ErrNameTooLong):
			b.reply(ctx, ev.ChatID, msgStartOver, nil)
		default:
			b.logger.ErrorContext(ctx, "registration failed", slog.Int64("user_id", ev.From.ID), slog.Any("error", err))
			b.reply(ctx, ev.ChatID, msgGenericError, nil)
		}
		return nil
	}

	b.notify.RegistrationRequested(ctx, user)
	b.reply(ctx, ev.ChatID, msgRegistered, nil)
	return nil
}
