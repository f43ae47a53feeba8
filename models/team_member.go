package models

import "time"

type TeamMember struct {
	ID       int       `json:"id" db:"id"`
	TeamID   int       `json:"team_id" db:"team_id"`
	UserID   int64     `json:"user_id" db:"user_id"`
	JoinedAt time.Time `json:"join_date" db:"join_date"`

	User *User `json:"user,omitempty" db:"-"`
}

// Roster - команда вместе с турниром и составом, собранные по внешним ключам.
type Roster struct {
	Team       Team         `json:"team"`
	Tournament Tournament   `json:"tournament"`
	Captain    User         `json:"captain"`
	Members    []TeamMember `json:"members"`
}

func (r Roster) Size() int {
	return len(r.Members)
}

func (r Roster) IsCaptain(userID int64) bool {
	return r.Team.CaptainID == userID
}

// Removable - участники без капитана, которых можно исключить из состава.
func (r Roster) Removable() []TeamMember {
	members := make([]TeamMember, 0, len(r.Members))
	for _, m := range r.Members {
		if m.UserID != r.Team.CaptainID {
			members = append(members, m)
		}
	}
	return members
}

// CanAddMembers - состав ещё не достиг players_registered.
func (r Roster) CanAddMembers() bool {
	return r.Size() < r.Tournament.PlayersRegistered
}
