package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-bot/models"
)

var (
	ErrTeamMemberNotFound = errors.New("team member not found")
	ErrTeamMemberConflict = errors.New("user already in team")
)

type TeamMemberRepository interface {
	Add(ctx context.Context, member *models.TeamMember) error
	Remove(ctx context.Context, teamID int, userID int64) error
	// ListByTeam возвращает участников в порядке вступления, с заполненным User.
	ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error)
	Exists(ctx context.Context, teamID int, userID int64) (bool, error)
	// FindEnrolledElsewhere ищет участника команды, который уже состоит в другой
	// одобренной команде того же турнира. Возвращает nil, если таких нет.
	FindEnrolledElsewhere(ctx context.Context, teamID int) (*models.User, error)
}

type postgresTeamMemberRepository struct {
	db *sql.DB
}

func NewPostgresTeamMemberRepository(db *sql.DB) TeamMemberRepository {
	return &postgresTeamMemberRepository{db: db}
}

func (r *postgresTeamMemberRepository) Add(ctx context.Context, member *models.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, user_id)
		VALUES ($1, $2)
		RETURNING id, join_date`

	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, member.TeamID, member.UserID).
		Scan(&member.ID, &member.JoinedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok {
			switch pqErr.Code {
			case pqUniqueViolation:
				return ErrTeamMemberConflict
			case pqForeignKeyViolation:
				if pqErr.Constraint == "team_members_user_id_fkey" {
					return ErrUserNotFound
				}
				return ErrTeamNotFound
			}
		}
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

func (r *postgresTeamMemberRepository) Remove(ctx context.Context, teamID int, userID int64) error {
	result, err := getExecutor(ctx, r.db).ExecContext(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove team member: %w", err)
	}
	return checkAffectedRows(result, ErrTeamMemberNotFound)
}

func (r *postgresTeamMemberRepository) ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	query := `
		SELECT tm.id, tm.team_id, tm.user_id, tm.join_date,
		       u.id, u.chat_id, u.username, u.full_name, u.phone_number, u.comment, u.status, u.create_date
		FROM team_members tm
		JOIN users u ON u.id = tm.user_id
		WHERE tm.team_id = $1
		ORDER BY tm.join_date, tm.id`

	rows, err := getExecutor(ctx, r.db).QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		u := &models.User{}
		err := rows.Scan(
			&m.ID, &m.TeamID, &m.UserID, &m.JoinedAt,
			&u.ID, &u.ChatID, &u.Username, &u.FullName, &u.PhoneNumber, &u.Comment, &u.Status, &u.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		m.User = u
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresTeamMemberRepository) Exists(ctx context.Context, teamID int, userID int64) (bool, error) {
	var exists bool
	err := getExecutor(ctx, r.db).QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM team_members WHERE team_id = $1 AND user_id = $2)`,
		teamID, userID).Scan(&exists)
	return exists, err
}

func (r *postgresTeamMemberRepository) FindEnrolledElsewhere(ctx context.Context, teamID int) (*models.User, error) {
	query := `
		SELECT u.id, u.chat_id, u.username, u.full_name, u.phone_number, u.comment, u.status, u.create_date
		FROM teams t
		JOIN team_members tm ON tm.team_id = t.id
		JOIN team_members other_tm ON other_tm.user_id = tm.user_id AND other_tm.team_id <> t.id
		JOIN teams other_t ON other_t.id = other_tm.team_id
		JOIN users u ON u.id = tm.user_id
		WHERE t.id = $1
		  AND other_t.tournament_id = t.tournament_id
		  AND other_t.status = $2
		ORDER BY tm.join_date, tm.id
		LIMIT 1`

	u := &models.User{}
	err := getExecutor(ctx, r.db).QueryRowContext(ctx, query, teamID, models.TeamStatusEnrolled).Scan(
		&u.ID, &u.ChatID, &u.Username, &u.FullName, &u.PhoneNumber, &u.Comment, &u.Status, &u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment conflicts: %w", err)
	}
	return u, nil
}
