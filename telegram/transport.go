package telegram

import (
	"context"
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Dosada05/tournament-bot/bot"
)

// requester - часть tgbotapi.BotAPI, через которую идут все вызовы.
type requester interface {
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Transport реализует bot.Transport поверх Bot API.
// tgbotapi не принимает context, поэтому ctx проверяется только перед вызовом.
type Transport struct {
	api requester
}

func NewTransport(api *tgbotapi.BotAPI) *Transport {
	return &Transport{api: api}
}

func (t *Transport) call(ctx context.Context, method string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	resp, err := t.api.MakeRequest(method, params)
	if err != nil {
		return nil, fmt.Errorf("telegram %s: %w", method, err)
	}
	return resp, nil
}

func (t *Transport) Send(ctx context.Context, chatID int64, text string, markup bot.Markup) (bot.MessageRef, error) {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", chatID)
	params["text"] = text
	if markup != nil {
		if err := params.AddInterface("reply_markup", encodeMarkup(markup)); err != nil {
			return bot.MessageRef{}, err
		}
	}

	resp, err := t.call(ctx, "sendMessage", params)
	if err != nil {
		return bot.MessageRef{}, err
	}
	var msg tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &msg); err != nil {
		return bot.MessageRef{}, fmt.Errorf("decode sent message: %w", err)
	}
	return bot.MessageRef{ChatID: chatID, MessageID: msg.MessageID}, nil
}

func (t *Transport) EditActions(ctx context.Context, ref bot.MessageRef, keyboard bot.InlineKeyboard) error {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", ref.ChatID)
	params.AddNonZero("message_id", ref.MessageID)
	if err := params.AddInterface("reply_markup", encodeInline(keyboard)); err != nil {
		return err
	}
	_, err := t.call(ctx, "editMessageReplyMarkup", params)
	return err
}

func (t *Transport) Delete(ctx context.Context, ref bot.MessageRef) error {
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", ref.ChatID)
	params.AddNonZero("message_id", ref.MessageID)
	_, err := t.call(ctx, "deleteMessage", params)
	return err
}

func (t *Transport) AnswerCallback(ctx context.Context, callbackID, text string, alert bool) error {
	params := tgbotapi.Params{}
	params["callback_query_id"] = callbackID
	params.AddNonEmpty("text", text)
	params.AddBool("show_alert", alert)
	_, err := t.call(ctx, "answerCallbackQuery", params)
	return err
}
