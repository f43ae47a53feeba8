package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/repositories"
	"github.com/Dosada05/tournament-bot/services"
)

const (
	adminChatID int64 = -100
	adminID     int64 = 900
	cardMessage       = 77
)

var errChatUnavailable = errors.New("chat unavailable")

type sentMessage struct {
	Ref    MessageRef
	Text   string
	Markup Markup
}

type editedActions struct {
	Ref      MessageRef
	Keyboard InlineKeyboard
}

type callbackAnswer struct {
	ID    string
	Text  string
	Alert bool
}

type fakeTransport struct {
	mu        sync.Mutex
	nextID    int
	sent      []sentMessage
	edits     []editedActions
	deleted   []MessageRef
	answers   []callbackAnswer
	failChats map[int64]bool
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{failChats: make(map[int64]bool)}
}

func (f *fakeTransport) Send(_ context.Context, chatID int64, text string, markup Markup) (MessageRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failChats[chatID] {
		return MessageRef{}, errChatUnavailable
	}
	f.nextID++
	ref := MessageRef{ChatID: chatID, MessageID: f.nextID}
	f.sent = append(f.sent, sentMessage{Ref: ref, Text: text, Markup: markup})
	return ref, nil
}

func (f *fakeTransport) EditActions(_ context.Context, ref MessageRef, keyboard InlineKeyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, editedActions{Ref: ref, Keyboard: keyboard})
	return nil
}

func (f *fakeTransport) Delete(_ context.Context, ref MessageRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, ref)
	return nil
}

func (f *fakeTransport) AnswerCallback(_ context.Context, callbackID, text string, alert bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, callbackAnswer{ID: callbackID, Text: text, Alert: alert})
	return nil
}

func (f *fakeTransport) sentTo(chatID int64) []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentMessage
	for _, m := range f.sent {
		if m.Ref.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out
}

func (f *fakeTransport) lastTo(t *testing.T, chatID int64) sentMessage {
	t.Helper()
	msgs := f.sentTo(chatID)
	require.NotEmpty(t, msgs, "no messages sent to chat %d", chatID)
	return msgs[len(msgs)-1]
}

func (f *fakeTransport) lastAnswer(t *testing.T) callbackAnswer {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.answers, "no callback answers")
	return f.answers[len(f.answers)-1]
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent, f.edits, f.deleted, f.answers = nil, nil, nil, nil
}

type roomMessage struct {
	Room    string
	Payload []byte
}

type fakeRooms struct {
	mu       sync.Mutex
	messages []roomMessage
}

func (r *fakeRooms) BroadcastToRoom(room string, message []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, roomMessage{Room: room, Payload: message})
}

type fakeAdmins map[int64]bool

func (a fakeAdmins) CheckAdmin(_ context.Context, principalID int64) (services.AdminStatus, error) {
	if a[principalID] {
		return services.Admin, nil
	}
	return services.NotAdmin, nil
}

type fakeLinker struct{}

func (fakeLinker) EditorURL(principalID int64, tournamentID int) (string, error) {
	return fmt.Sprintf("https://editor.test/?p=%d&edit=%d", principalID, tournamentID), nil
}

type harness struct {
	t         *testing.T
	store     *repositories.MemoryStore
	transport *fakeTransport
	rooms     *fakeRooms
	svc       Services
	bot       *Bot

	callbacks int
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := repositories.NewMemoryStore()
	logger := discardLogger()
	transport := newFakeTransport()
	rooms := &fakeRooms{}

	admins := services.NewAdminGate(fakeAdmins{adminID: true}, logger)
	teams := services.NewTeamService(store, store.Users(), store.Tournaments(), store.Teams(), store.Members(), logger)
	tournaments := services.NewTournamentService(store.Tournaments(), teams, logger)
	fanout := NewFanout(transport, adminChatID, rooms, logger)

	svc := Services{
		Users:       services.NewUserService(store.Users(), logger),
		Teams:       teams,
		Tournaments: tournaments,
		WebForm:     services.NewWebFormService(tournaments, admins, fanout, logger),
		Export:      services.NewExportService(teams, nil, logger),
		Admins:      admins,
	}

	return &harness{
		t:         t,
		store:     store,
		transport: transport,
		rooms:     rooms,
		svc:       svc,
		bot:       New(transport, store.Conversations(), svc, fanout, fakeLinker{}, logger),
	}
}

var adminUser = Principal{ID: adminID, FullName: "Admin"}

func (h *harness) command(from Principal, cmd string) {
	h.bot.HandleEvent(context.Background(), Event{Kind: EventCommand, From: from, ChatID: from.ID, Command: cmd})
}

func (h *harness) text(from Principal, text string) {
	h.bot.HandleEvent(context.Background(), Event{Kind: EventText, From: from, ChatID: from.ID, Text: text})
}

func (h *harness) contact(from Principal, phone string, owner int64) {
	h.bot.HandleEvent(context.Background(), Event{
		Kind:    EventContact,
		From:    from,
		ChatID:  from.ID,
		Contact: &Contact{PhoneNumber: phone, UserID: owner},
	})
}

// press нажимает inline-кнопку на сообщении cardMessage в чате chatID.
func (h *harness) press(from Principal, chatID int64, data string) {
	h.callbacks++
	h.bot.HandleEvent(context.Background(), Event{
		Kind:   EventCallback,
		From:   from,
		ChatID: chatID,
		Callback: &Callback{
			ID:      fmt.Sprintf("cb-%d", h.callbacks),
			Data:    data,
			Message: MessageRef{ChatID: chatID, MessageID: cardMessage},
		},
	})
}

func (h *harness) state(userID int64) models.ConversationState {
	h.t.Helper()
	conv, err := h.store.Conversations().Get(context.Background(), userID, userID)
	require.NoError(h.t, err)
	return conv.State
}

func (h *harness) conversation(userID int64) *models.Conversation {
	h.t.Helper()
	conv, err := h.store.Conversations().Get(context.Background(), userID, userID)
	require.NoError(h.t, err)
	return conv
}

// activeUser регистрирует и одобряет пользователя в обход диалога.
func (h *harness) activeUser(id int64, name, phone string) Principal {
	h.t.Helper()
	ctx := context.Background()
	_, err := h.svc.Users.Register(ctx, services.RegistrationInput{UserID: id, ChatID: id, FullName: name, PhoneNumber: phone})
	require.NoError(h.t, err)
	_, err = h.svc.Users.Approve(ctx, id)
	require.NoError(h.t, err)
	return Principal{ID: id, FullName: name}
}

func (h *harness) tournament(perGame, registered int) *models.Tournament {
	h.t.Helper()
	tour, err := h.svc.Tournaments.Create(context.Background(), adminID, services.TournamentPayload{
		EventName:         "Summer Cup",
		EventDateTime:     "2025-07-01T18:30:00",
		LocationName:      "Arena",
		PlayersPerGame:    perGame,
		PlayersRegistered: &registered,
	})
	require.NoError(h.t, err)
	return tour
}

func inlineData(t *testing.T, markup Markup) []string {
	t.Helper()
	kb, ok := markup.(InlineKeyboard)
	require.True(t, ok, "expected inline keyboard, got %T", markup)
	var out []string
	for _, row := range kb {
		for _, b := range row {
			out = append(out, b.Data)
		}
	}
	return out
}
