package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-bot/models"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamInvalidFields = errors.New("team required field missing")
	ErrTeamReference     = errors.New("team references missing tournament or captain")
)

type TeamRepository interface {
	// CreateWithCaptain создаёт команду и членство капитана в одной транзакции.
	CreateWithCaptain(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Team, error)
	UpdateStatus(ctx context.Context, id int, from, to models.TeamStatus) error
	// Delete удаляет команду вместе со всеми участниками.
	Delete(ctx context.Context, id int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

const teamColumns = `id, name, tournament_id, captain_id, status, is_paid, create_date`

func (r *postgresTeamRepository) CreateWithCaptain(ctx context.Context, team *models.Team) error {
	return inTx(ctx, r.db, func(ctx context.Context) error {
		executor := getExecutor(ctx, r.db)

		query := `
			INSERT INTO teams (name, tournament_id, captain_id, status, is_paid)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, create_date`
		err := executor.QueryRowContext(ctx, query,
			team.Name, team.TournamentID, team.CaptainID, team.Status, team.IsPaid,
		).Scan(&team.ID, &team.CreatedAt)
		if err != nil {
			return handleTeamError(err)
		}

		_, err = executor.ExecContext(ctx,
			`INSERT INTO team_members (team_id, user_id) VALUES ($1, $2)`, team.ID, team.CaptainID)
		if err != nil {
			return fmt.Errorf("failed to add captain to team %d: %w", team.ID, handleTeamError(err))
		}
		return nil
	})
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE id = $1`

	team := &models.Team{}
	err := scanTeam(getExecutor(ctx, r.db).QueryRowContext(ctx, query, id), team)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	return team, nil
}

func (r *postgresTeamRepository) ListByTournament(ctx context.Context, tournamentID int) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE tournament_id = $1 ORDER BY id`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var team models.Team
		if err := scanTeam(rows, &team); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

func (r *postgresTeamRepository) UpdateStatus(ctx context.Context, id int, from, to models.TeamStatus) error {
	executor := getExecutor(ctx, r.db)
	result, err := executor.ExecContext(ctx,
		`UPDATE teams SET status = $1 WHERE id = $2 AND status = $3`, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update team status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	var exists bool
	err = executor.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM teams WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check team existence: %w", err)
	}
	if !exists {
		return ErrTeamNotFound
	}
	return ErrStatusConflict
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	return inTx(ctx, r.db, func(ctx context.Context) error {
		executor := getExecutor(ctx, r.db)
		if _, err := executor.ExecContext(ctx, `DELETE FROM team_members WHERE team_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete members of team %d: %w", id, err)
		}
		result, err := executor.ExecContext(ctx, `DELETE FROM teams WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete team %d: %w", id, err)
		}
		return checkAffectedRows(result, ErrTeamNotFound)
	})
}

func scanTeam(row interface{ Scan(dest ...interface{}) error }, team *models.Team) error {
	return row.Scan(
		&team.ID,
		&team.Name,
		&team.TournamentID,
		&team.CaptainID,
		&team.Status,
		&team.IsPaid,
		&team.CreatedAt,
	)
}

func handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := asPQError(err); ok {
		switch {
		case pqErr.Code == pqForeignKeyViolation:
			return ErrTeamReference
		case pqErr.Code == pqUniqueViolation:
			return ErrTeamMemberConflict
		case isRequiredFieldViolation(pqErr):
			return ErrTeamInvalidFields
		}
	}
	return err
}
