package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/Dosada05/tournament-bot/repositories"
)

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorKind
	}{
		{ErrTeamNotFound, KindNotFound},
		{fmt.Errorf("wrapped: %w", ErrPhoneAlreadyUsed), KindConstraintViolation},
		{&RosterSizeError{Count: 6, Limit: 5, TooMany: true}, KindPolicyViolation},
		{&EnrollmentConflictError{UserID: 1, UserName: "A"}, KindPolicyViolation},
		{ErrAdminRequired, KindAccessDenied},
		{errors.New("boom"), KindInternal},
		{nil, KindInternal},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Kind(tt.err), fmt.Sprint(tt.err))
	}
}

func TestHandleRepositoryError(t *testing.T) {
	assert.NoError(t, handleRepositoryError(nil))
	assert.ErrorIs(t, handleRepositoryError(repositories.ErrUserPhoneConflict), ErrPhoneAlreadyUsed)
	assert.ErrorIs(t, handleRepositoryError(repositories.ErrTournamentInUse), ErrTournamentHasTeams)
	assert.ErrorIs(t, handleRepositoryError(repositories.ErrStatusConflict), ErrStatusChanged)
	assert.ErrorIs(t, handleRepositoryError(repositories.ErrTeamReference), ErrTournamentNotFound)

	other := errors.New("driver failure")
	assert.Same(t, other, handleRepositoryError(other))
}

func TestAdminGate(t *testing.T) {
	ctx := context.Background()
	checker := &mockAdminChecker{}
	checker.On("CheckAdmin", mock.Anything, int64(1)).Return(Admin, nil)
	checker.On("CheckAdmin", mock.Anything, int64(2)).Return(NotAdmin, nil)
	checker.On("CheckAdmin", mock.Anything, int64(3)).Return(AdminCheckFailed, errors.New("timeout"))
	gate := NewAdminGate(checker, discardLogger())

	assert.True(t, gate.IsAdmin(ctx, 1))
	assert.False(t, gate.IsAdmin(ctx, 2))
	assert.False(t, gate.IsAdmin(ctx, 3))
	assert.NoError(t, gate.RequireAdmin(ctx, 1))
	assert.ErrorIs(t, gate.RequireAdmin(ctx, 3), ErrAdminRequired)
}
