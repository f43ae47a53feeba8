package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/tournament-bot/models"
)

// EventDateTimeLayout - формат event_datetime в данных веб-формы.
const EventDateTimeLayout = "2006-01-02T15:04:05"

// eventDateTimeShortLayout - значение поля <input type="datetime-local"> без секунд.
const eventDateTimeShortLayout = "2006-01-02T15:04"

// TournamentPayload - поля турнира в том виде, в котором их отправляет и получает веб-форма.
type TournamentPayload struct {
	ID                int      `json:"id,omitempty"`
	EventName         string   `json:"event_name"`
	EventDateTime     string   `json:"event_datetime"`
	LocationName      string   `json:"location_name"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	NumberOfTeams     int      `json:"number_of_teams"`
	PlayersPerGame    int      `json:"players_per_game"`
	PlayersRegistered *int     `json:"players_registered,omitempty"`
	RoundRobinRounds  *int     `json:"round_robin_rounds,omitempty"`
	PlayoffStartsAt   string   `json:"playoff_starts_at"`
	PlayoffSeeding    string   `json:"playoff_seeding"`
	CompetitionType   string   `json:"competition_type"`
	Comment           string   `json:"comment"`

	// Заполняются сервером.
	Status    *models.TournamentStatus `json:"status,omitempty"`
	CreatedBy int64                    `json:"created_by,omitempty"`
}

// ParseEventDateTime разбирает дату турнира. Дробная часть секунд отбрасывается.
func ParseEventDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range []string{EventDateTimeLayout, eventDateTimeShortLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: event_datetime %q must look like %s", ErrValidationFailed, value, EventDateTimeLayout)
}

// ToTournament проверяет данные формы, подставляет значения по умолчанию
// и переносит их в модель. ID, статус и автор не трогаются.
func (p TournamentPayload) ToTournament(t *models.Tournament) error {
	if strings.TrimSpace(p.EventName) == "" {
		return fmt.Errorf("%w: event_name is required", ErrValidationFailed)
	}
	eventTime, err := ParseEventDateTime(p.EventDateTime)
	if err != nil {
		return err
	}
	if p.NumberOfTeams < 0 {
		return fmt.Errorf("%w: number_of_teams must not be negative", ErrValidationFailed)
	}
	if p.PlayersPerGame < 1 {
		return fmt.Errorf("%w: players_per_game must be at least 1", ErrValidationFailed)
	}

	registered := models.DefaultPlayersRegistered(p.PlayersPerGame)
	if p.PlayersRegistered != nil {
		registered = *p.PlayersRegistered
	}
	if registered < p.PlayersPerGame {
		return fmt.Errorf("%w: players_registered (%d) must be at least players_per_game (%d)",
			ErrValidationFailed, registered, p.PlayersPerGame)
	}

	rounds := models.DefaultRoundRobinRounds
	if p.RoundRobinRounds != nil {
		rounds = *p.RoundRobinRounds
	}
	if rounds < 0 {
		return fmt.Errorf("%w: round_robin_rounds must not be negative", ErrValidationFailed)
	}

	playoff := models.DefaultPlayoffStage
	if p.PlayoffStartsAt != "" {
		playoff = models.PlayoffStage(p.PlayoffStartsAt)
	}
	if !playoff.Valid() {
		return fmt.Errorf("%w: unknown playoff_starts_at %q", ErrValidationFailed, p.PlayoffStartsAt)
	}

	seeding := models.SeedingStandings
	if p.PlayoffSeeding != "" {
		seeding = models.SeedingMethod(p.PlayoffSeeding)
	}
	if !seeding.Valid() {
		return fmt.Errorf("%w: unknown playoff_seeding %q", ErrValidationFailed, p.PlayoffSeeding)
	}

	competition := models.CompetitionTeamOnly
	if p.CompetitionType != "" {
		competition = models.CompetitionType(p.CompetitionType)
	}
	if !competition.Valid() {
		return fmt.Errorf("%w: unknown competition_type %q", ErrValidationFailed, p.CompetitionType)
	}

	if (p.Latitude == nil) != (p.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be set together", ErrValidationFailed)
	}
	if p.Latitude != nil && (*p.Latitude < -90 || *p.Latitude > 90 || *p.Longitude < -180 || *p.Longitude > 180) {
		return fmt.Errorf("%w: coordinates out of range", ErrValidationFailed)
	}

	t.EventName = p.EventName
	t.EventDateTime = eventTime
	t.LocationName = p.LocationName
	t.Latitude = p.Latitude
	t.Longitude = p.Longitude
	t.NumberOfTeams = p.NumberOfTeams
	t.PlayersPerGame = p.PlayersPerGame
	t.PlayersRegistered = registered
	t.RoundRobinRounds = rounds
	t.PlayoffStartsAt = playoff
	t.PlayoffSeeding = seeding
	t.CompetitionType = competition
	t.Comment = p.Comment
	return nil
}

// PayloadFromTournament - обратное преобразование для get_tournament и ссылки редактирования.
func PayloadFromTournament(t *models.Tournament) TournamentPayload {
	registered := t.PlayersRegistered
	rounds := t.RoundRobinRounds
	status := t.Status
	return TournamentPayload{
		ID:                t.ID,
		EventName:         t.EventName,
		EventDateTime:     t.EventDateTime.Format(EventDateTimeLayout),
		LocationName:      t.LocationName,
		Latitude:          t.Latitude,
		Longitude:         t.Longitude,
		NumberOfTeams:     t.NumberOfTeams,
		PlayersPerGame:    t.PlayersPerGame,
		PlayersRegistered: &registered,
		RoundRobinRounds:  &rounds,
		PlayoffStartsAt:   string(t.PlayoffStartsAt),
		PlayoffSeeding:    string(t.PlayoffSeeding),
		CompetitionType:   string(t.CompetitionType),
		Comment:           t.Comment,
		Status:            &status,
		CreatedBy:         t.CreatedBy,
	}
}
