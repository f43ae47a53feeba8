package models

import "time"

// TournamentStatus представляет статусы турнира.
type TournamentStatus int

const (
	TournamentStatusDeleted            TournamentStatus = -1
	TournamentStatusScheduled          TournamentStatus = 0
	TournamentStatusEnrollmentComplete TournamentStatus = 1
	TournamentStatusInProgress         TournamentStatus = 2
	TournamentStatusCompleted          TournamentStatus = 3
)

func (s TournamentStatus) String() string {
	switch s {
	case TournamentStatusDeleted:
		return "Deleted"
	case TournamentStatusScheduled:
		return "Scheduled"
	case TournamentStatusEnrollmentComplete:
		return "Enrollment Complete"
	case TournamentStatusInProgress:
		return "In Progress"
	case TournamentStatusCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

type PlayoffStage string

const (
	PlayoffStage16    PlayoffStage = "1/16"
	PlayoffStage8     PlayoffStage = "1/8"
	PlayoffStage4     PlayoffStage = "1/4"
	PlayoffStage2     PlayoffStage = "1/2"
	PlayoffStageFinal PlayoffStage = "final"
	PlayoffStageNone  PlayoffStage = "none"
)

func (p PlayoffStage) Valid() bool {
	switch p {
	case PlayoffStage16, PlayoffStage8, PlayoffStage4, PlayoffStage2, PlayoffStageFinal, PlayoffStageNone:
		return true
	}
	return false
}

type SeedingMethod string

const (
	SeedingStandings SeedingMethod = "standings"
	SeedingRandom    SeedingMethod = "random"
)

func (s SeedingMethod) Valid() bool {
	return s == SeedingStandings || s == SeedingRandom
}

type CompetitionType string

const (
	CompetitionTeamOnly       CompetitionType = "team_only"
	CompetitionIndividualAlso CompetitionType = "individual_also"
)

func (c CompetitionType) Valid() bool {
	return c == CompetitionTeamOnly || c == CompetitionIndividualAlso
}

const (
	DefaultRoundRobinRounds = 10
	DefaultPlayoffStage     = PlayoffStage8
)

// DefaultPlayersRegistered - по умолчанию в заявку помещается один запасной игрок.
func DefaultPlayersRegistered(playersPerGame int) int {
	return playersPerGame + 1
}

// Tournament представляет турнир.
type Tournament struct {
	ID                int              `json:"id" db:"id"`
	EventName         string           `json:"event_name" db:"event_name"`
	EventDateTime     time.Time        `json:"event_datetime" db:"event_datetime"`
	LocationName      string           `json:"location_name" db:"location_name"`
	Latitude          *float64         `json:"latitude,omitempty" db:"latitude"`
	Longitude         *float64         `json:"longitude,omitempty" db:"longitude"`
	NumberOfTeams     int              `json:"number_of_teams" db:"number_of_teams"`
	PlayersPerGame    int              `json:"players_per_game" db:"players_per_game"`
	PlayersRegistered int              `json:"players_registered" db:"players_registered"`
	RoundRobinRounds  int              `json:"round_robin_rounds" db:"round_robin_rounds"`
	PlayoffStartsAt   PlayoffStage     `json:"playoff_starts_at" db:"playoff_starts_at"`
	PlayoffSeeding    SeedingMethod    `json:"playoff_seeding" db:"playoff_seeding"`
	CompetitionType   CompetitionType  `json:"competition_type" db:"competition_type"`
	Comment           string           `json:"comment" db:"comment"`
	Status            TournamentStatus `json:"status" db:"status"`
	CreatedAt         time.Time        `json:"created_at" db:"created_at"`
	CreatedBy         int64            `json:"created_by" db:"created_by"`
}

// IsSolo - индивидуальный турнир: команда из одного игрока создаётся и подаётся сразу.
func (t Tournament) IsSolo() bool {
	return t.PlayersPerGame == 1
}
