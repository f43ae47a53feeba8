package bot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/services"
)

func (h *harness) pendingUser(id int64, name, phone string) {
	h.t.Helper()
	_, err := h.svc.Users.Register(context.Background(), services.RegistrationInput{
		UserID: id, ChatID: id, FullName: name, PhoneNumber: phone,
	})
	require.NoError(h.t, err)
}

func (h *harness) userStatus(id int64) models.UserStatus {
	h.t.Helper()
	u, err := h.svc.Users.Get(context.Background(), id)
	require.NoError(h.t, err)
	return u.Status
}

func TestApproveUser(t *testing.T) {
	h := newHarness(t)
	h.pendingUser(10, "Ivan", "+70000000010")

	h.press(adminUser, adminChatID, callbackData(cbApproveUser, 10))

	assert.Equal(t, models.UserStatusActivated, h.userStatus(10))
	assert.Equal(t, msgUserApproved, h.transport.lastTo(t, 10).Text)
	assert.Equal(t, []editedActions{{Ref: MessageRef{ChatID: adminChatID, MessageID: cardMessage}}}, h.transport.edits)
	assert.Equal(t, "✅ Approved by Admin", h.transport.lastAnswer(t).Text)

	// повторное нажатие не меняет статус
	h.press(adminUser, adminChatID, callbackData(cbDenyUser, 10))
	assert.Equal(t, msgAlreadyProcessed, h.transport.lastAnswer(t).Text)
	assert.Equal(t, models.UserStatusActivated, h.userStatus(10))
}

func TestDenyUser(t *testing.T) {
	h := newHarness(t)
	h.pendingUser(10, "Ivan", "+70000000010")

	h.press(adminUser, adminChatID, callbackData(cbDenyUser, 10))

	assert.Equal(t, models.UserStatusBlocked, h.userStatus(10))
	assert.Equal(t, msgUserDenied, h.transport.lastTo(t, 10).Text)
	assert.Equal(t, "❌ Denied by Admin", h.transport.lastAnswer(t).Text)
}

func TestDeleteUserRequest(t *testing.T) {
	h := newHarness(t)
	h.pendingUser(10, "Ivan", "+70000000010")

	h.press(adminUser, adminChatID, callbackData(cbDeleteUser, 10))

	_, err := h.svc.Users.Get(context.Background(), 10)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
	assert.Equal(t, []MessageRef{{ChatID: adminChatID, MessageID: cardMessage}}, h.transport.deleted)
	assert.Empty(t, h.transport.sentTo(10))
}

func TestApprovalRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	h.pendingUser(10, "Ivan", "+70000000010")
	stranger := h.activeUser(11, "Stranger", "+70000000011")

	for _, data := range []string{
		callbackData(cbApproveUser, 10),
		callbackData(cbDenyUser, 10),
		callbackData(cbDeleteUser, 10),
		callbackData(cbApproveTeam, 1),
		callbackData(cbDenyTeam, 1),
		callbackData(cbDeleteTournament, 1),
		callbackData(cbExportTournament, 1),
	} {
		h.press(stranger, adminChatID, data)
		assert.Equal(t, msgAdminRequired, h.transport.lastAnswer(t).Text, data)
	}

	assert.Equal(t, models.UserStatusRequested, h.userStatus(10))
	assert.Empty(t, h.transport.edits)
	assert.Empty(t, h.transport.deleted)
	assert.Empty(t, h.transport.sentTo(10))
}

func TestApproveTeam_CrossTeamConflict(t *testing.T) {
	h := newHarness(t)
	tour := h.tournament(2, 3)
	capA := h.activeUser(1, "CapA", "+70000000001")
	capB := h.activeUser(2, "CapB", "+70000000002")
	h.activeUser(3, "Shared", "+70000000003")

	teamA := h.startTeam(capA, tour.ID, "A")
	h.addByPhone(capA, teamA, "+70000000003")
	teamB := h.startTeam(capB, tour.ID, "B")
	h.addByPhone(capB, teamB, "+70000000003")

	h.press(adminUser, adminChatID, callbackData(cbApproveTeam, teamA))
	require.Equal(t, models.TeamStatusEnrolled, h.roster(teamA).Team.Status)

	h.transport.reset()
	h.press(adminUser, adminChatID, callbackData(cbApproveTeam, teamB))

	answer := h.transport.lastAnswer(t)
	assert.Equal(t, "❌ User Shared is already in another team", answer.Text)
	assert.True(t, answer.Alert)
	assert.Equal(t, models.TeamStatusRequested, h.roster(teamB).Team.Status)
	assert.Empty(t, h.transport.deleted)
	assert.Empty(t, h.transport.sentTo(2))
}

func TestDenyTeam_NotifiesMembersBeforeDelete(t *testing.T) {
	h := newHarness(t)
	tour := h.tournament(2, 3)
	captain := h.activeUser(1, "Captain", "+70000000001")
	h.activeUser(2, "Second", "+70000000002")
	teamID := h.startTeam(captain, tour.ID, "Owls")
	h.addByPhone(captain, teamID, "+70000000002")

	h.transport.reset()
	h.press(adminUser, adminChatID, callbackData(cbDenyTeam, teamID))

	notice := "❌ Your team Owls has been rejected for tournament Summer Cup"
	assert.Equal(t, notice, h.transport.lastTo(t, 1).Text)
	assert.Equal(t, notice, h.transport.lastTo(t, 2).Text)
	assert.Equal(t, msgTeamRejected, h.transport.lastAnswer(t).Text)
	assert.Equal(t, []MessageRef{{ChatID: adminChatID, MessageID: cardMessage}}, h.transport.deleted)

	_, err := h.svc.Teams.Roster(context.Background(), teamID)
	assert.ErrorIs(t, err, services.ErrTeamNotFound)
}

func TestDenyTeam_StaleCardAfterDetailApprove(t *testing.T) {
	h := newHarness(t)
	tour := h.tournament(1, 1)
	player := h.activeUser(1, "Solo", "+70000000001")
	h.press(player, player.ID, callbackData(cbComposeTeam, tour.ID))
	rosters, err := h.svc.Teams.ListRosters(context.Background(), tour.ID)
	require.NoError(t, err)
	require.Len(t, rosters, 1)
	teamID := rosters[0].Team.ID

	h.press(adminUser, adminID, callbackData(cbAdminApproveTeam, teamID))
	require.Equal(t, models.TeamStatusEnrolled, h.roster(teamID).Team.Status)

	h.transport.reset()
	h.press(adminUser, adminChatID, callbackData(cbDenyTeam, teamID))

	answer := h.transport.lastAnswer(t)
	assert.Equal(t, msgAlreadyProcessed, answer.Text)
	assert.True(t, answer.Alert)
	assert.Empty(t, h.transport.sentTo(player.ID))
	assert.Empty(t, h.transport.deleted)
	assert.Equal(t, models.TeamStatusEnrolled, h.roster(teamID).Team.Status)
}

func TestTournamentDetail(t *testing.T) {
	h := newHarness(t)
	tour := h.tournament(2, 3)
	captain := h.activeUser(1, "Captain", "+70000000001")
	teamID := h.startTeam(captain, tour.ID, "Owls")

	h.transport.reset()
	h.press(captain, captain.ID, callbackData(cbViewTournament, tour.ID))
	msg := h.transport.lastTo(t, captain.ID)
	assert.Contains(t, msg.Text, "🏆 Summer Cup")
	assert.NotContains(t, msg.Text, "Owls")
	assert.Equal(t, []string{callbackData(cbComposeTeam, tour.ID)}, inlineData(t, msg.Markup))

	h.press(adminUser, adminID, callbackData(cbViewTournament, tour.ID))
	msg = h.transport.lastTo(t, adminID)
	assert.Contains(t, msg.Text, "1. Owls (Pending Approval)")
	assert.Equal(t, []string{
		callbackData(cbAdminDeleteTeam, teamID),
		callbackData(cbAdminApproveTeam, teamID),
		callbackData(cbEditTournament, tour.ID),
		callbackData(cbDeleteTournament, tour.ID),
	}, inlineData(t, msg.Markup))

	h.press(adminUser, adminID, callbackData(cbAdminApproveTeam, teamID))
	assert.Equal(t, "✅ Team approved", h.transport.lastAnswer(t).Text)
	assert.Equal(t, []string{
		callbackData(cbAdminDeleteTeam, teamID),
		callbackData(cbEditTournament, tour.ID),
		callbackData(cbDeleteTournament, tour.ID),
	}, inlineData(t, h.transport.lastTo(t, adminID).Markup))

	h.press(adminUser, adminID, callbackData(cbAdminDeleteTeam, teamID))
	assert.Equal(t, "✅ Team deleted", h.transport.lastAnswer(t).Text)
	_, err := h.svc.Teams.Roster(context.Background(), teamID)
	assert.ErrorIs(t, err, services.ErrTeamNotFound)
}

func TestDeleteTournament(t *testing.T) {
	h := newHarness(t)
	busy := h.tournament(2, 3)
	captain := h.activeUser(1, "Captain", "+70000000001")
	h.startTeam(captain, busy.ID, "Owls")

	h.press(adminUser, adminID, callbackData(cbDeleteTournament, busy.ID))
	assert.Equal(t, msgTournamentInUse, h.transport.lastAnswer(t).Text)
	assert.Empty(t, h.transport.edits)

	empty := h.tournament(2, 3)
	h.press(adminUser, adminID, callbackData(cbDeleteTournament, empty.ID))
	assert.Equal(t, msgTournamentDeleted, h.transport.lastAnswer(t).Text)
	require.Len(t, h.transport.edits, 1)
	assert.Equal(t, []string{cbRefreshTournaments}, inlineData(t, h.transport.edits[0].Keyboard))

	_, err := h.svc.Tournaments.Get(context.Background(), empty.ID)
	assert.ErrorIs(t, err, services.ErrTournamentNotFound)
}

func TestEditTournamentSendsEditorLink(t *testing.T) {
	h := newHarness(t)
	tour := h.tournament(2, 3)

	h.press(adminUser, adminID, callbackData(cbEditTournament, tour.ID))

	msg := h.transport.lastTo(t, adminID)
	assert.Equal(t, msgEditingTournament, msg.Text)
	kb, ok := msg.Markup.(ReplyKeyboard)
	require.True(t, ok)
	assert.Equal(t, btnEditTournament, kb.Rows[0][0].Text)
	assert.Contains(t, kb.Rows[0][0].WebAppURL, "edit=")
}

func TestExportDisabled(t *testing.T) {
	h := newHarness(t)
	tour := h.tournament(2, 3)

	h.press(adminUser, adminID, callbackData(cbExportTournament, tour.ID))
	assert.Equal(t, msgExportDisabled, h.transport.lastAnswer(t).Text)
}

func TestWebAppData(t *testing.T) {
	h := newHarness(t)
	raw := `{"action":"create_tournament","data":{"event_name":"Night Cup","event_datetime":"2025-09-01T20:00:00","players_per_game":5}}`

	h.bot.HandleEvent(context.Background(), Event{Kind: EventWebAppData, From: adminUser, ChatID: adminID, WebAppData: raw})

	var resp services.WebFormResponse
	require.NoError(t, json.Unmarshal([]byte(h.transport.lastTo(t, adminID).Text), &resp))
	assert.Equal(t, services.ResponseTournamentCreated, resp.Type)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "Night Cup", resp.Data.EventName)

	events := decodeRoomEvents(t, h.rooms)
	require.Len(t, events, 1)
	assert.Equal(t, "tournament_created", events[0].Type)
	assert.Equal(t, resp.Data.ID, events[0].TournamentID)

	stranger := Principal{ID: 5}
	h.bot.HandleEvent(context.Background(), Event{Kind: EventWebAppData, From: stranger, ChatID: stranger.ID, WebAppData: raw})
	require.NoError(t, json.Unmarshal([]byte(h.transport.lastTo(t, stranger.ID).Text), &resp))
	assert.Equal(t, services.ResponseError, resp.Type)

	list, err := h.svc.Tournaments.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUnknownCallbackIsAnswered(t *testing.T) {
	h := newHarness(t)

	h.press(adminUser, adminID, "something_else")

	answer := h.transport.lastAnswer(t)
	assert.Empty(t, answer.Text)
	assert.Empty(t, h.transport.sent)
}
