package bot

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/services"
)

func TestRegistration_FullFlow(t *testing.T) {
	h := newHarness(t)
	ivan := Principal{ID: 10, FullName: "Ivan Petrov"}

	h.command(ivan, "start")
	assert.Equal(t, models.StateAwaitingPhone, h.state(ivan.ID))
	msg := h.transport.lastTo(t, ivan.ID)
	assert.Equal(t, msgSharePhone, msg.Text)
	kb, ok := msg.Markup.(ReplyKeyboard)
	require.True(t, ok)
	assert.True(t, kb.Rows[0][0].RequestContact)

	// текст вместо контакта игнорируется
	h.text(ivan, "+79990001122")
	assert.Equal(t, models.StateAwaitingPhone, h.state(ivan.ID))
	assert.Len(t, h.transport.sentTo(ivan.ID), 1)

	h.contact(ivan, "+7 999 000-11-22", ivan.ID)
	assert.Equal(t, models.StateAwaitingFullName, h.state(ivan.ID))
	msg = h.transport.lastTo(t, ivan.ID)
	assert.Equal(t, msgEnterFullName, msg.Text)
	kb, ok = msg.Markup.(ReplyKeyboard)
	require.True(t, ok)
	assert.Equal(t, "✅ Use Ivan Petrov", kb.Rows[0][0].Text)

	h.text(ivan, useNameButton(ivan.FullName))
	assert.Equal(t, models.StateAwaitingComment, h.state(ivan.ID))
	assert.Equal(t, msgEnterComment, h.transport.lastTo(t, ivan.ID).Text)

	h.text(ivan, "goalkeeper")
	assert.Equal(t, models.StateIdle, h.state(ivan.ID))
	assert.Equal(t, msgRegistered, h.transport.lastTo(t, ivan.ID).Text)

	user, err := h.svc.Users.Get(context.Background(), ivan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserStatusRequested, user.Status)
	assert.Equal(t, "Ivan Petrov", user.FullName)
	assert.Equal(t, "+79990001122", user.PhoneNumber)
	assert.Equal(t, "goalkeeper", user.Comment)

	cards := h.transport.sentTo(adminChatID)
	require.Len(t, cards, 1)
	assert.Contains(t, cards[0].Text, "Ivan Petrov (ID: 10)")
	assert.Contains(t, cards[0].Text, "+79990001122")
	assert.Equal(t, []string{"approve_user_10", "deny_user_10", "delete_user_10"}, inlineData(t, cards[0].Markup))
}

func TestRegistration_MissingDataStartsOver(t *testing.T) {
	h := newHarness(t)
	anna := Principal{ID: 12, FullName: "Anna"}
	require.NoError(t, h.store.Conversations().Save(context.Background(), &models.Conversation{
		ChatID: anna.ID,
		UserID: anna.ID,
		State:  models.StateAwaitingComment,
		Data:   models.FlowData{FullName: "Anna"},
	}))

	h.text(anna, "striker")

	assert.Equal(t, msgStartOver, h.transport.lastTo(t, anna.ID).Text)
	conv := h.conversation(anna.ID)
	assert.Equal(t, models.StateIdle, conv.State)
	assert.Equal(t, models.FlowData{}, conv.Data)
	assert.Empty(t, h.transport.sentTo(adminChatID))

	_, err := h.svc.Users.Get(context.Background(), anna.ID)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestRegistration_TypedName(t *testing.T) {
	h := newHarness(t)
	p := Principal{ID: 11, FullName: "Profile Name"}

	h.command(p, "start")
	h.contact(p, "+79990000011", 0)
	h.text(p, "  Typed Name  ")
	h.text(p, "")

	user, err := h.svc.Users.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Typed Name", user.FullName)
}

func TestRegistration_ForeignContactIgnored(t *testing.T) {
	h := newHarness(t)
	p := Principal{ID: 12, FullName: "Anna"}

	h.command(p, "start")
	h.contact(p, "+79990000012", 999)

	assert.Equal(t, models.StateAwaitingPhone, h.state(p.ID))
	assert.Len(t, h.transport.sentTo(p.ID), 1)
}

func TestRegistration_NameTooLong(t *testing.T) {
	h := newHarness(t)
	p := Principal{ID: 13}

	h.command(p, "start")
	h.contact(p, "+79990000013", p.ID)
	h.text(p, strings.Repeat("a", services.MaxFullNameLength+1))

	assert.Equal(t, models.StateAwaitingFullName, h.state(p.ID))
	assert.Equal(t, msgNameTooLong, h.transport.lastTo(t, p.ID).Text)

	h.text(p, strings.Repeat("a", services.MaxFullNameLength))
	assert.Equal(t, models.StateAwaitingComment, h.state(p.ID))
}

func TestRegistration_DuplicatePhoneRejected(t *testing.T) {
	h := newHarness(t)
	h.activeUser(20, "Owner", "+79990000020")
	p := Principal{ID: 21, FullName: "Other"}

	h.command(p, "start")
	h.contact(p, "+7 999 000 00 20", p.ID)
	h.text(p, useNameButton(p.FullName))
	h.text(p, "hi")

	assert.Equal(t, msgPhoneUsed, h.transport.lastTo(t, p.ID).Text)
	assert.Empty(t, h.transport.sentTo(adminChatID))
	assert.Equal(t, models.StateIdle, h.state(p.ID))

	_, err := h.svc.Users.Get(context.Background(), p.ID)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestStart_KnownUsers(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Users.Register(ctx, services.RegistrationInput{UserID: 30, ChatID: 30, FullName: "Pending", PhoneNumber: "+70000000030"})
	require.NoError(t, err)
	h.command(Principal{ID: 30}, "start")
	assert.Equal(t, msgPending, h.transport.lastTo(t, 30).Text)
	assert.Equal(t, models.StateIdle, h.state(30))

	active := h.activeUser(31, "Active", "+70000000031")
	h.command(active, "start")
	msgs := h.transport.sentTo(active.ID)
	require.Len(t, msgs, 2)
	assert.Equal(t, msgActiveWelcome, msgs[0].Text)
	assert.Equal(t, msgNoTournaments, msgs[1].Text)

	_, err = h.svc.Users.Register(ctx, services.RegistrationInput{UserID: 32, ChatID: 32, FullName: "Blocked", PhoneNumber: "+70000000032"})
	require.NoError(t, err)
	_, err = h.svc.Users.Deny(ctx, 32)
	require.NoError(t, err)
	h.command(Principal{ID: 32}, "start")
	assert.Equal(t, msgBlocked, h.transport.lastTo(t, 32).Text)
}

func TestStart_Admin(t *testing.T) {
	h := newHarness(t)
	tour := h.tournament(3, 5)

	h.command(adminUser, "start")

	msgs := h.transport.sentTo(adminID)
	require.Len(t, msgs, 3)
	assert.Equal(t, msgAdminWelcome, msgs[0].Text)
	assert.Equal(t, msgTournamentList, msgs[1].Text)
	assert.Equal(t, []string{callbackData(cbViewTournament, tour.ID)}, inlineData(t, msgs[1].Markup))

	assert.Equal(t, msgCreateTournament, msgs[2].Text)
	kb, ok := msgs[2].Markup.(ReplyKeyboard)
	require.True(t, ok)
	assert.Equal(t, "https://editor.test/?p=900&edit=0", kb.Rows[0][0].WebAppURL)
}

func TestStart_ResetsActiveFlow(t *testing.T) {
	h := newHarness(t)
	p := Principal{ID: 40, FullName: "Restart"}

	h.command(p, "start")
	h.contact(p, "+79990000040", p.ID)
	require.Equal(t, models.StateAwaitingFullName, h.state(p.ID))

	h.command(p, "start")
	conv := h.conversation(p.ID)
	assert.Equal(t, models.StateAwaitingPhone, conv.State)
	assert.Empty(t, conv.Data.PhoneNumber)
}

func TestCancelCommand(t *testing.T) {
	h := newHarness(t)
	p := Principal{ID: 41}

	h.command(p, "cancel")
	assert.Equal(t, msgNothingToCancel, h.transport.lastTo(t, p.ID).Text)

	h.command(p, "start")
	h.command(p, "cancel")
	assert.Equal(t, msgCancelled, h.transport.lastTo(t, p.ID).Text)
	assert.Equal(t, models.StateIdle, h.state(p.ID))
}
