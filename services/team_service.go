package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-bot/models"
	"github.com/Dosada05/tournament-bot/repositories"
)

// TeamService инкапсулирует бизнес-логику составов и заявок команд.
type TeamService struct {
	tx          repositories.TxManager
	users       repositories.UserRepository
	tournaments repositories.TournamentRepository
	teams       repositories.TeamRepository
	members     repositories.TeamMemberRepository
	logger      *slog.Logger
}

func NewTeamService(
	tx repositories.TxManager,
	users repositories.UserRepository,
	tournaments repositories.TournamentRepository,
	teams repositories.TeamRepository,
	members repositories.TeamMemberRepository,
	logger *slog.Logger,
) *TeamService {
	return &TeamService{
		tx:          tx,
		users:       users,
		tournaments: tournaments,
		teams:       teams,
		members:     members,
		logger:      logger,
	}
}

// PrepareJoin проверяет, что пользователь может подать заявку в турнир, и возвращает турнир.
func (s *TeamService) PrepareJoin(ctx context.Context, userID int64, tournamentID int) (*models.Tournament, *models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, handleRepositoryError(err)
	}
	if user.Status != models.UserStatusActivated {
		return nil, nil, ErrUserNotActivated
	}

	tournament, err := s.tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, nil, handleRepositoryError(err)
	}
	if tournament.Status != models.TournamentStatusScheduled {
		return nil, nil, ErrRegistrationClosed
	}
	return tournament, user, nil
}

// CreateSoloTeam создаёт в индивидуальном турнире команду из одного игрока
// с его именем. Команда сразу считается поданной.
func (s *TeamService) CreateSoloTeam(ctx context.Context, userID int64, tournamentID int) (*models.Roster, error) {
	tournament, user, err := s.PrepareJoin(ctx, userID, tournamentID)
	if err != nil {
		return nil, err
	}
	if !tournament.IsSolo() {
		return nil, ErrNotSoloTournament
	}
	return s.create(ctx, user, tournament.ID, user.FullName)
}

// CreateTeam создаёт команду с капитаном и переводит капитана к управлению составом.
func (s *TeamService) CreateTeam(ctx context.Context, userID int64, tournamentID int, name string) (*models.Roster, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrTeamNameRequired
	}
	_, user, err := s.PrepareJoin(ctx, userID, tournamentID)
	if err != nil {
		return nil, err
	}
	return s.create(ctx, user, tournamentID, name)
}

func (s *TeamService) create(ctx context.Context, captain *models.User, tournamentID int, name string) (*models.Roster, error) {
	team := &models.Team{
		Name:         name,
		TournamentID: tournamentID,
		CaptainID:    captain.ID,
		Status:       models.TeamStatusRequested,
	}
	if err := s.teams.CreateWithCaptain(ctx, team); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "team created",
		slog.Int("team_id", team.ID), slog.Int("tournament_id", tournamentID), slog.Int64("captain_id", captain.ID))
	return s.Roster(ctx, team.ID)
}

// Roster собирает команду, турнир, капитана и участников по внешним ключам.
func (s *TeamService) Roster(ctx context.Context, teamID int) (*models.Roster, error) {
	team, err := s.teams.GetByID(ctx, teamID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	tournament, err := s.tournaments.GetByID(ctx, team.TournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	members, err := s.members.ListByTeam(ctx, team.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members of team %d: %w", team.ID, err)
	}

	roster := &models.Roster{Team: *team, Tournament: *tournament, Members: members}
	for _, m := range members {
		if m.UserID == team.CaptainID && m.User != nil {
			roster.Captain = *m.User
			break
		}
	}
	return roster, nil
}

// captainRoster загружает состав и проверяет, что actor - капитан.
func (s *TeamService) captainRoster(ctx context.Context, actorID int64, teamID int) (*models.Roster, error) {
	roster, err := s.Roster(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if !roster.IsCaptain(actorID) {
		return nil, ErrCaptainActionForbidden
	}
	return roster, nil
}

// AddMemberByPhone добавляет в команду зарегистрированного пользователя по номеру телефона.
func (s *TeamService) AddMemberByPhone(ctx context.Context, actorID int64, teamID int, phone string) (*models.Roster, error) {
	roster, err := s.captainRoster(ctx, actorID, teamID)
	if err != nil {
		return nil, err
	}
	if roster.Team.Status == models.TeamStatusEnrolled {
		return nil, ErrTeamAlreadyEnrolled
	}

	normalized := NormalizePhone(phone)
	if normalized == "" {
		return nil, ErrUserNotFound
	}
	user, err := s.users.GetByPhone(ctx, normalized)
	if err != nil {
		return nil, handleRepositoryError(err)
	}

	exists, err := s.members.Exists(ctx, teamID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if exists {
		return nil, ErrUserAlreadyInTeam
	}

	if err := s.members.Add(ctx, &models.TeamMember{TeamID: teamID, UserID: user.ID}); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.Roster(ctx, teamID)
}

// RemoveMemberByName исключает участника, чьё имя совпадает с введённым текстом.
// Капитана исключить нельзя.
func (s *TeamService) RemoveMemberByName(ctx context.Context, actorID int64, teamID int, name string) (*models.Roster, error) {
	roster, err := s.captainRoster(ctx, actorID, teamID)
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	for _, m := range roster.Removable() {
		if m.User != nil && m.User.FullName == name {
			return s.removeMember(ctx, roster, m.UserID)
		}
	}
	if roster.Captain.FullName == name {
		return nil, ErrCannotRemoveCaptain
	}
	return nil, ErrMemberNotFound
}

func (s *TeamService) removeMember(ctx context.Context, roster *models.Roster, userID int64) (*models.Roster, error) {
	if roster.IsCaptain(userID) {
		return nil, ErrCannotRemoveCaptain
	}
	if roster.Team.Status == models.TeamStatusEnrolled {
		return nil, ErrTeamAlreadyEnrolled
	}
	if err := s.members.Remove(ctx, roster.Team.ID, userID); err != nil {
		return nil, handleRepositoryError(err)
	}
	return s.Roster(ctx, roster.Team.ID)
}

// Submit проверяет размер состава: players_per_game <= участников <= players_registered.
func (s *TeamService) Submit(ctx context.Context, actorID int64, teamID int) (*models.Roster, error) {
	roster, err := s.captainRoster(ctx, actorID, teamID)
	if err != nil {
		return nil, err
	}
	if roster.Team.Status == models.TeamStatusEnrolled {
		return nil, ErrTeamAlreadyEnrolled
	}
	if err := CheckRosterSize(roster); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "team submitted",
		slog.Int("team_id", teamID), slog.Int("members", roster.Size()))
	return roster, nil
}

// CheckRosterSize сообщает, какая граница размера состава нарушена.
func CheckRosterSize(roster *models.Roster) error {
	count := roster.Size()
	if count < roster.Tournament.PlayersPerGame {
		return &RosterSizeError{Count: count, Limit: roster.Tournament.PlayersPerGame}
	}
	if count > roster.Tournament.PlayersRegistered {
		return &RosterSizeError{Count: count, Limit: roster.Tournament.PlayersRegistered, TooMany: true}
	}
	return nil
}

// Cancel удаляет команду вместе с участниками. Доступно только капитану.
func (s *TeamService) Cancel(ctx context.Context, actorID int64, teamID int) (*models.Roster, error) {
	roster, err := s.captainRoster(ctx, actorID, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.teams.Delete(ctx, teamID); err != nil {
		return nil, handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "team cancelled", slog.Int("team_id", teamID))
	return roster, nil
}

// Approve одобряет заявку команды. Если кто-то из участников уже состоит в другой
// одобренной команде того же турнира, возвращается *EnrollmentConflictError и статус не меняется.
func (s *TeamService) Approve(ctx context.Context, teamID int) (*models.Roster, error) {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		team, err := s.teams.GetByID(ctx, teamID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if team.Status == models.TeamStatusEnrolled {
			return ErrStatusChanged
		}
		if err := s.tournaments.LockForEnrollment(ctx, team.TournamentID); err != nil {
			return handleRepositoryError(err)
		}

		conflict, err := s.members.FindEnrolledElsewhere(ctx, teamID)
		if err != nil {
			return handleRepositoryError(err)
		}
		if conflict != nil {
			return &EnrollmentConflictError{UserID: conflict.ID, UserName: conflict.FullName}
		}

		return handleRepositoryError(
			s.teams.UpdateStatus(ctx, teamID, models.TeamStatusRequested, models.TeamStatusEnrolled))
	})
	if err != nil {
		var conflict *EnrollmentConflictError
		if errors.As(err, &conflict) {
			s.logger.InfoContext(ctx, "team approval rejected",
				slog.Int("team_id", teamID), slog.Int64("conflicting_user_id", conflict.UserID))
		}
		return nil, err
	}

	s.logger.InfoContext(ctx, "team enrolled", slog.Int("team_id", teamID))
	return s.Roster(ctx, teamID)
}

// Deny отклоняет заявку, которая ещё ждёт решения. Для одобренной команды
// возвращается ErrStatusChanged и ничего не удаляется.
// beforeDelete вызывается с полным составом, пока команда ещё существует.
func (s *TeamService) Deny(ctx context.Context, teamID int, beforeDelete func(ctx context.Context, roster *models.Roster)) (*models.Roster, error) {
	var denied *models.Roster
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		team, err := s.teams.GetByID(ctx, teamID)
		if err != nil {
			return handleRepositoryError(err)
		}
		// та же блокировка, что и в Approve: решения по заявкам одного турнира идут по очереди
		if err := s.tournaments.LockForEnrollment(ctx, team.TournamentID); err != nil {
			return handleRepositoryError(err)
		}

		roster, err := s.Roster(ctx, teamID)
		if err != nil {
			return err
		}
		if roster.Team.Status != models.TeamStatusRequested {
			return ErrStatusChanged
		}
		denied = roster
		return s.delete(ctx, roster, beforeDelete)
	})
	if err != nil {
		return nil, err
	}
	return denied, nil
}

// Remove удаляет команду в любом статусе. Используется из карточки турнира.
func (s *TeamService) Remove(ctx context.Context, teamID int, beforeDelete func(ctx context.Context, roster *models.Roster)) (*models.Roster, error) {
	roster, err := s.Roster(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.delete(ctx, roster, beforeDelete); err != nil {
		return nil, err
	}
	return roster, nil
}

func (s *TeamService) delete(ctx context.Context, roster *models.Roster, beforeDelete func(ctx context.Context, roster *models.Roster)) error {
	if beforeDelete != nil {
		beforeDelete(ctx, roster)
	}
	if err := s.teams.Delete(ctx, roster.Team.ID); err != nil {
		return handleRepositoryError(err)
	}
	s.logger.InfoContext(ctx, "team removed",
		slog.Int("team_id", roster.Team.ID), slog.String("status", roster.Team.Status.String()))
	return nil
}

// ListRosters возвращает составы всех команд турнира в порядке создания.
func (s *TeamService) ListRosters(ctx context.Context, tournamentID int) ([]models.Roster, error) {
	teams, err := s.teams.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	rosters := make([]models.Roster, 0, len(teams))
	for _, team := range teams {
		roster, err := s.Roster(ctx, team.ID)
		if err != nil {
			return nil, err
		}
		rosters = append(rosters, *roster)
	}
	return rosters, nil
}
