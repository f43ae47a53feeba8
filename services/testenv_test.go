package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/repositories"
)

type testEnv struct {
	store       *repositories.MemoryStore
	users       *UserService
	teams       *TeamService
	tournaments *TournamentService
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := repositories.NewMemoryStore()
	logger := discardLogger()
	teams := NewTeamService(store, store.Users(), store.Tournaments(), store.Teams(), store.Members(), logger)
	return &testEnv{
		store:       store,
		users:       NewUserService(store.Users(), logger),
		teams:       teams,
		tournaments: NewTournamentService(store.Tournaments(), teams, logger),
	}
}

// activeUser регистрирует и сразу одобряет пользователя.
func (e *testEnv) activeUser(t *testing.T, id int64, name, phone string) *models.User {
	t.Helper()
	ctx := context.Background()
	_, err := e.users.Register(ctx, RegistrationInput{UserID: id, ChatID: id, FullName: name, PhoneNumber: phone})
	require.NoError(t, err)
	u, err := e.users.Approve(ctx, id)
	require.NoError(t, err)
	return u
}

func (e *testEnv) tournament(t *testing.T, perGame, registered int) *models.Tournament {
	t.Helper()
	tour, err := e.tournaments.Create(context.Background(), 1, TournamentPayload{
		EventName:         "Cup",
		EventDateTime:     "2025-07-01T18:30:00",
		PlayersPerGame:    perGame,
		PlayersRegistered: &registered,
	})
	require.NoError(t, err)
	return tour
}

func intPtr(v int) *int { return &v }

type mockAdminChecker struct {
	mock.Mock
}

func (m *mockAdminChecker) CheckAdmin(ctx context.Context, principalID int64) (AdminStatus, error) {
	args := m.Called(ctx, principalID)
	return args.Get(0).(AdminStatus), args.Error(1)
}
