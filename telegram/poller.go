package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tournament-bot/bot"
)

const (
	pollTimeoutSeconds = 30
	retryDelay         = 3 * time.Second
	defaultShards      = 8
	shardBuffer        = 64
)

// Handler получает события транспорта.
type Handler func(ctx context.Context, ev bot.Event)

// updateExtras - поля апдейта, которых нет в tgbotapi v5.5.1.
type updateExtras struct {
	Message *struct {
		WebAppData *struct {
			Data string `json:"data"`
		} `json:"web_app_data"`
	} `json:"message"`
}

// Poller забирает апдейты long polling'ом и раздает их по шардам.
// События одного чата всегда попадают в один шард и обрабатываются по порядку.
type Poller struct {
	api    requester
	shards int
	logger *slog.Logger
}

func NewPoller(api *tgbotapi.BotAPI, logger *slog.Logger) *Poller {
	return &Poller{api: api, shards: defaultShards, logger: logger}
}

// Run блокируется до отмены ctx.
func (p *Poller) Run(ctx context.Context, handle Handler) error {
	queues := make([]chan bot.Event, p.shards)
	for i := range queues {
		queues[i] = make(chan bot.Event, shardBuffer)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, q := range queues {
		q := q
		g.Go(func() error {
			for ev := range q {
				p.safeHandle(gctx, handle, ev)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()
		return p.poll(gctx, func(ev bot.Event) {
			select {
			case queues[shardOf(ev.ChatID, p.shards)] <- ev:
			case <-gctx.Done():
			}
		})
	})

	return g.Wait()
}

func (p *Poller) safeHandle(ctx context.Context, handle Handler, ev bot.Event) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.ErrorContext(ctx, "panic while handling update",
				slog.Int64("chat_id", ev.ChatID), slog.Any("panic", r))
		}
	}()
	handle(ctx, ev)
}

func (p *Poller) poll(ctx context.Context, emit func(bot.Event)) error {
	offset := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, extras, err := p.fetch(offset)
		if err != nil {
			p.logger.WarnContext(ctx, "getUpdates failed", slog.Any("error", err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
			continue
		}

		for i, u := range updates {
			if u.UpdateID >= offset {
				offset = u.UpdateID + 1
			}
			var extra updateExtras
			if i < len(extras) {
				extra = extras[i]
			}
			if ev, ok := toEvent(u, extra); ok {
				emit(ev)
			}
		}
	}
}

func (p *Poller) fetch(offset int) ([]tgbotapi.Update, []updateExtras, error) {
	params := tgbotapi.Params{}
	params.AddNonZero("offset", offset)
	params.AddNonZero("timeout", pollTimeoutSeconds)
	if err := params.AddInterface("allowed_updates", []string{"message", "callback_query"}); err != nil {
		return nil, nil, err
	}

	resp, err := p.api.MakeRequest("getUpdates", params)
	if err != nil {
		return nil, nil, err
	}

	var updates []tgbotapi.Update
	if err := json.Unmarshal(resp.Result, &updates); err != nil {
		return nil, nil, fmt.Errorf("decode updates: %w", err)
	}
	var extras []updateExtras
	if err := json.Unmarshal(resp.Result, &extras); err != nil {
		return nil, nil, fmt.Errorf("decode update extras: %w", err)
	}
	return updates, extras, nil
}

func shardOf(chatID int64, shards int) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%d", chatID)
	return int(h.Sum32() % uint32(shards))
}

// toEvent переводит апдейт в событие; апдейты без отправителя пропускаются.
func toEvent(u tgbotapi.Update, extra updateExtras) (bot.Event, bool) {
	if cq := u.CallbackQuery; cq != nil {
		if cq.From == nil {
			return bot.Event{}, false
		}
		ev := bot.Event{
			Kind:     bot.EventCallback,
			From:     toPrincipal(cq.From),
			ChatID:   cq.From.ID,
			Callback: &bot.Callback{ID: cq.ID, Data: cq.Data},
		}
		if cq.Message != nil && cq.Message.Chat != nil {
			ev.ChatID = cq.Message.Chat.ID
			ev.Callback.Message = bot.MessageRef{ChatID: cq.Message.Chat.ID, MessageID: cq.Message.MessageID}
		}
		return ev, true
	}

	msg := u.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return bot.Event{}, false
	}
	ev := bot.Event{From: toPrincipal(msg.From), ChatID: msg.Chat.ID}

	switch {
	case extra.Message != nil && extra.Message.WebAppData != nil:
		ev.Kind = bot.EventWebAppData
		ev.WebAppData = extra.Message.WebAppData.Data
	case msg.Contact != nil:
		ev.Kind = bot.EventContact
		ev.Contact = &bot.Contact{PhoneNumber: msg.Contact.PhoneNumber, UserID: msg.Contact.UserID}
	case msg.IsCommand():
		ev.Kind = bot.EventCommand
		ev.Command = msg.Command()
		ev.Text = msg.CommandArguments()
	default:
		ev.Kind = bot.EventText
		ev.Text = msg.Text
	}
	return ev, true
}

func toPrincipal(u *tgbotapi.User) bot.Principal {
	p := bot.Principal{
		ID:       u.ID,
		FullName: strings.TrimSpace(u.FirstName + " " + u.LastName),
	}
	if u.UserName != "" {
		username := u.UserName
		p.Username = &username
	}
	return p
}
