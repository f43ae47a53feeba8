package services

import (
	"context"
	"log/slog"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/repositories"
)

// TournamentDetail - турнир вместе с составами заявленных команд.
type TournamentDetail struct {
	Tournament models.Tournament
	Rosters    []models.Roster
}

type TournamentService struct {
	tournaments repositories.TournamentRepository
	teams       *TeamService
	logger      *slog.Logger
}

func NewTournamentService(tournaments repositories.TournamentRepository, teams *TeamService, logger *slog.Logger) *TournamentService {
	return &TournamentService{tournaments: tournaments, teams: teams, logger: logger}
}

func (s *TournamentService) Create(ctx context.Context, creatorID int64, payload TournamentPayload) (*models.Tournament, error) {
	t := &models.Tournament{
		Status:    models.TournamentStatusScheduled,
		CreatedBy: creatorID,
	}
	if err := payload.ToTournament(t); err != nil {
		return nil, err
	}
	if err := s.tournaments.Create(ctx, t); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "tournament created",
		slog.Int("tournament_id", t.ID), slog.Int64("created_by", creatorID))
	return t, nil
}

// Update перезаписывает редактируемые поля турнира. Статус и автор сохраняются.
func (s *TournamentService) Update(ctx context.Context, id int, payload TournamentPayload) (*models.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	if err := payload.ToTournament(t); err != nil {
		return nil, err
	}
	if err := s.tournaments.Update(ctx, t); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "tournament updated", slog.Int("tournament_id", id))
	return s.Get(ctx, id)
}

func (s *TournamentService) Get(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.tournaments.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return t, nil
}

func (s *TournamentService) List(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := s.tournaments.List(ctx)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return tournaments, nil
}

// Delete удаляет турнир. Турнир с командами удалить нельзя.
func (s *TournamentService) Delete(ctx context.Context, id int) error {
	if err := s.tournaments.Delete(ctx, id); err != nil {
		return handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "tournament deleted", slog.Int("tournament_id", id))
	return nil
}

func (s *TournamentService) Detail(ctx context.Context, id int) (*TournamentDetail, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rosters, err := s.teams.ListRosters(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TournamentDetail{Tournament: *t, Rosters: rosters}, nil
}
