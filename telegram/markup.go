package telegram

import (
	"github.com/Dosada05/tournament-bot/bot"
)

// Разметка кодируется вручную: в tgbotapi v5.5.1 нет кнопок web_app.

type webAppInfo struct {
	URL string `json:"url"`
}

type inlineButton struct {
	Text         string      `json:"text"`
	CallbackData string      `json:"callback_data,omitempty"`
	URL          string      `json:"url,omitempty"`
	WebApp       *webAppInfo `json:"web_app,omitempty"`
}

type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type replyButton struct {
	Text           string      `json:"text"`
	RequestContact bool        `json:"request_contact,omitempty"`
	WebApp         *webAppInfo `json:"web_app,omitempty"`
}

type replyKeyboardMarkup struct {
	Keyboard        [][]replyButton `json:"keyboard"`
	ResizeKeyboard  bool            `json:"resize_keyboard"`
	OneTimeKeyboard bool            `json:"one_time_keyboard,omitempty"`
}

type replyKeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

func encodeMarkup(m bot.Markup) interface{} {
	switch m := m.(type) {
	case bot.InlineKeyboard:
		return encodeInline(m)
	case bot.ReplyKeyboard:
		rows := make([][]replyButton, 0, len(m.Rows))
		for _, row := range m.Rows {
			out := make([]replyButton, 0, len(row))
			for _, b := range row {
				rb := replyButton{Text: b.Text, RequestContact: b.RequestContact}
				if b.WebAppURL != "" {
					rb.WebApp = &webAppInfo{URL: b.WebAppURL}
				}
				out = append(out, rb)
			}
			rows = append(rows, out)
		}
		return replyKeyboardMarkup{Keyboard: rows, ResizeKeyboard: true, OneTimeKeyboard: m.OneTime}
	case bot.RemoveKeyboard:
		return replyKeyboardRemove{RemoveKeyboard: true}
	}
	return nil
}

func encodeInline(kb bot.InlineKeyboard) inlineKeyboardMarkup {
	rows := make([][]inlineButton, 0, len(kb))
	for _, row := range kb {
		out := make([]inlineButton, 0, len(row))
		for _, b := range row {
			ib := inlineButton{Text: b.Text, CallbackData: b.Data, URL: b.URL}
			if b.WebAppURL != "" {
				ib.WebApp = &webAppInfo{URL: b.WebAppURL}
			}
			out = append(out, ib)
		}
		rows = append(rows, out)
	}
	return inlineKeyboardMarkup{InlineKeyboard: rows}
}
