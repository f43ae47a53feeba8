package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-bot/models"
)

var (
	ErrTournamentNotFound      = errors.New("tournament not found")
	ErrTournamentInUse         = errors.New("tournament is in use (teams exist)")
	ErrTournamentInvalidFields = errors.New("tournament fields violate constraints")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// List возвращает все турниры, кроме удалённых, от поздних к ранним.
	List(ctx context.Context) ([]models.Tournament, error)
	Update(ctx context.Context, tournament *models.Tournament) error
	Delete(ctx context.Context, id int) error
	// LockForEnrollment блокирует строку турнира до конца текущей транзакции,
	// чтобы одобрения команд одного турнира шли последовательно.
	LockForEnrollment(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, event_name, event_datetime, location_name, latitude, longitude,
	number_of_teams, players_per_game, players_registered, round_robin_rounds,
	playoff_starts_at, playoff_seeding, competition_type, comment,
	status, created_at, created_by`

func (r *postgresTournamentRepository) Create(ctx context.Context, t *models.Tournament) error {
	query := `
		INSERT INTO tournaments (
			event_name, event_datetime, location_name, latitude, longitude,
			number_of_teams, players_per_game, players_registered, round_robin_rounds,
			playoff_starts_at, playoff_seeding, competition_type, comment, status, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at`

	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query,
		t.EventName, t.EventDateTime, t.LocationName, t.Latitude, t.Longitude,
		t.NumberOfTeams, t.PlayersPerGame, t.PlayersRegistered, t.RoundRobinRounds,
		t.PlayoffStartsAt, t.PlayoffSeeding, t.CompetitionType, t.Comment, t.Status, t.CreatedBy,
	).Scan(&t.ID, &t.CreatedAt)

	return r.handleTournamentError(err)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + ` FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := scanTournament(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id), t)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	query := `SELECT ` + tournamentColumns + `
		FROM tournaments
		WHERE status <> $1
		ORDER BY event_datetime DESC, id DESC`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, models.TournamentStatusDeleted)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if scanErr := scanTournament(rows, &t); scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}
	return tournaments, nil
}

func (r *postgresTournamentRepository) Update(ctx context.Context, t *models.Tournament) error {
	// status и created_by меняются только отдельными сценариями
	query := `
		UPDATE tournaments SET
			event_name = $1,
			event_datetime = $2,
			location_name = $3,
			latitude = $4,
			longitude = $5,
			number_of_teams = $6,
			players_per_game = $7,
			players_registered = $8,
			round_robin_rounds = $9,
			playoff_starts_at = $10,
			playoff_seeding = $11,
			competition_type = $12,
			comment = $13
		WHERE id = $14`

	result, err := getExecutor(ctx, r.db).ExecContext(ctx, query,
		t.EventName, t.EventDateTime, t.LocationName, t.Latitude, t.Longitude,
		t.NumberOfTeams, t.PlayersPerGame, t.PlayersRegistered, t.RoundRobinRounds,
		t.PlayoffStartsAt, t.PlayoffSeeding, t.CompetitionType, t.Comment,
		t.ID,
	)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) Delete(ctx context.Context, id int) error {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx, `DELETE FROM tournaments WHERE id = $1`, id)
	if err != nil {
		return r.handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) LockForEnrollment(ctx context.Context, id int) error {
	var lockedID int
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT id FROM tournaments WHERE id = $1 FOR UPDATE`, id).Scan(&lockedID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTournamentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock tournament %d: %w", id, err)
	}
	return nil
}

func scanTournament(row interface{ Scan(dest ...interface{}) error }, t *models.Tournament) error {
	return row.Scan(
		&t.ID, &t.EventName, &t.EventDateTime, &t.LocationName, &t.Latitude, &t.Longitude,
		&t.NumberOfTeams, &t.PlayersPerGame, &t.PlayersRegistered, &t.RoundRobinRounds,
		&t.PlayoffStartsAt, &t.PlayoffSeeding, &t.CompetitionType, &t.Comment,
		&t.Status, &t.CreatedAt, &t.CreatedBy,
	)
}

func (r *postgresTournamentRepository) handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch {
		case pqErr.Code == pqForeignKeyViolation:
			// teams.tournament_id ON DELETE RESTRICT
			return ErrTournamentInUse
		case isRequiredFieldViolation(pqErr):
			return ErrTournamentInvalidFields
		}
	}
	return err
}
