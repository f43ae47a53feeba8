package repositories

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/tournament-bot/models"
)

// MemoryStore - хранилище в памяти с теми же ограничениями, что и схема Postgres:
// уникальность, каскады, RESTRICT на турнирах. Используется в тестах и при
// STORAGE_DRIVER=memory.
type MemoryStore struct {
	mu   sync.Mutex
	txMu sync.Mutex

	data memoryData
	now  func() time.Time
}

type conversationKey struct {
	chatID int64
	userID int64
}

type memoryData struct {
	users         map[int64]models.User
	tournaments   map[int]models.Tournament
	teams         map[int]models.Team
	members       map[int]models.TeamMember
	conversations map[conversationKey]models.Conversation

	nextTournamentID int
	nextTeamID       int
	nextMemberID     int
}

type memoryTxKey struct{}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: memoryData{
			users:         make(map[int64]models.User),
			tournaments:   make(map[int]models.Tournament),
			teams:         make(map[int]models.Team),
			members:       make(map[int]models.TeamMember),
			conversations: make(map[conversationKey]models.Conversation),
		},
		now: time.Now,
	}
}

// SetClock подменяет источник времени.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }
func (s *MemoryStore) Tournaments() TournamentRepository { return memoryTournaments{s} }
func (s *MemoryStore) Teams() TeamRepository { return memoryTeams{s} }
func (s *MemoryStore) Members() TeamMemberRepository { return memoryMembers{s} }
func (s *MemoryStore) Conversations() ConversationRepository { return memoryConversations{s} }

// lock захватывает хранилище для одного вызова репозитория. Вызовы вне
// транзакции ждут txMu, поэтому откат снимка не затирает их записи.
func (s *MemoryStore) lock(ctx context.Context) (unlock func()) {
	if ctx.Value(memoryTxKey{}) != nil {
		s.mu.Lock()
		return s.mu.Unlock
	}
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// WithinTx сериализует транзакции и откатывает изменения, если fn вернула ошибку.
// Пока транзакция открыта, вызовы репозиториев из других контекстов ждут её завершения.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if ctx.Value(memoryTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snapshot := s.data.clone()
	s.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			s.restore(snapshot)
			panic(p)
		} else if err != nil {
			s.restore(snapshot)
		}
	}()

	return fn(context.WithValue(ctx, memoryTxKey{}, true))
}

func (s *MemoryStore) restore(snapshot memoryData) {
	s.mu.Lock()
	s.data = snapshot
	s.mu.Unlock()
}

func (d memoryData) clone() memoryData {
	c := d
	c.users = make(map[int64]models.User, len(d.users))
	for k, v := range d.users {
		c.users[k] = v
	}
	c.tournaments = make(map[int]models.Tournament, len(d.tournaments))
	for k, v := range d.tournaments {
		c.tournaments[k] = v
	}
	c.teams = make(map[int]models.Team, len(d.teams))
	for k, v := range d.teams {
		c.teams[k] = v
	}
	c.members = make(map[int]models.TeamMember, len(d.members))
	for k, v := range d.members {
		c.members[k] = v
	}
	c.conversations = make(map[conversationKey]models.Conversation, len(d.conversations))
	for k, v := range d.conversations {
		c.conversations[k] = v
	}
	return c
}

// deleteTeamLocked удаляет команду и её членства. Вызывается под s.mu.
func (s *MemoryStore) deleteTeamLocked(teamID int) {
	for id, m := range s.data.members {
		if m.TeamID == teamID {
			delete(s.data.members, id)
		}
	}
	delete(s.data.teams, teamID)
}

func (s *MemoryStore) membersOfLocked(teamID int) []models.TeamMember {
	members := make([]models.TeamMember, 0)
	for _, m := range s.data.members {
		if m.TeamID == teamID {
			members = append(members, m)
		}
	}
	sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })
	return members
}

// --- users ---

type memoryUsers struct{ s *MemoryStore }

func (r memoryUsers) Create(ctx context.Context, user *models.User) error {
	defer r.s.lock(ctx)()

	if strings.TrimSpace(user.FullName) == "" || strings.TrimSpace(user.PhoneNumber) == "" {
		return ErrUserMissingFields
	}
	if _, ok := r.s.data.users[user.ID]; ok {
		return ErrUserConflict
	}
	for _, u := range r.s.data.users {
		if u.PhoneNumber == user.PhoneNumber {
			return ErrUserPhoneConflict
		}
	}
	user.CreatedAt = r.s.now()
	r.s.data.users[user.ID] = *user
	return nil
}

func (r memoryUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	defer r.s.lock(ctx)()

	u, ok := r.s.data.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r memoryUsers) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	defer r.s.lock(ctx)()

	for _, u := range r.s.data.users {
		if u.PhoneNumber == phone {
			found := u
			return &found, nil
		}
	}
	return nil, ErrUserNotFound
}

func (r memoryUsers) UpdateStatus(ctx context.Context, id int64, from, to models.UserStatus) error {
	defer r.s.lock(ctx)()

	u, ok := r.s.data.users[id]
	if !ok {
		return ErrUserNotFound
	}
	if u.Status != from {
		return ErrStatusConflict
	}
	u.Status = to
	r.s.data.users[id] = u
	return nil
}

func (r memoryUsers) Delete(ctx context.Context, id int64) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.users[id]; !ok {
		return ErrUserNotFound
	}
	for teamID, t := range r.s.data.teams {
		if t.CaptainID == id {
			r.s.deleteTeamLocked(teamID)
		}
	}
	for memberID, m := range r.s.data.members {
		if m.UserID == id {
			delete(r.s.data.members, memberID)
		}
	}
	delete(r.s.data.users, id)
	return nil
}

// --- tournaments ---

type memoryTournaments struct{ s *MemoryStore }

func validTournamentRow(t *models.Tournament) bool {
	return strings.TrimSpace(t.EventName) != "" &&
		t.PlayersPerGame >= 1 &&
		t.PlayersRegistered >= t.PlayersPerGame
}

func (r memoryTournaments) Create(ctx context.Context, t *models.Tournament) error {
	defer r.s.lock(ctx)()

	if !validTournamentRow(t) {
		return ErrTournamentInvalidFields
	}
	r.s.data.nextTournamentID++
	t.ID = r.s.data.nextTournamentID
	t.CreatedAt = r.s.now()
	r.s.data.tournaments[t.ID] = *t
	return nil
}

func (r memoryTournaments) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.data.tournaments[id]
	if !ok {
		return nil, ErrTournamentNotFound
	}
	return &t, nil
}

func (r memoryTournaments) List(ctx context.Context) ([]models.Tournament, error) {
	defer r.s.lock(ctx)()

	tournaments := make([]models.Tournament, 0, len(r.s.data.tournaments))
	for _, t := range r.s.data.tournaments {
		if t.Status != models.TournamentStatusDeleted {
			tournaments = append(tournaments, t)
		}
	}
	sort.Slice(tournaments, func(i, j int) bool {
		if !tournaments[i].EventDateTime.Equal(tournaments[j].EventDateTime) {
			return tournaments[i].EventDateTime.After(tournaments[j].EventDateTime)
		}
		return tournaments[i].ID > tournaments[j].ID
	})
	return tournaments, nil
}

func (r memoryTournaments) Update(ctx context.Context, t *models.Tournament) error {
	defer r.s.lock(ctx)()

	current, ok := r.s.data.tournaments[t.ID]
	if !ok {
		return ErrTournamentNotFound
	}
	if !validTournamentRow(t) {
		return ErrTournamentInvalidFields
	}
	updated := *t
	updated.Status = current.Status
	updated.CreatedAt = current.CreatedAt
	updated.CreatedBy = current.CreatedBy
	r.s.data.tournaments[t.ID] = updated
	return nil
}

func (r memoryTournaments) Delete(ctx context.Context, id int) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.tournaments[id]; !ok {
		return ErrTournamentNotFound
	}
	for _, team := range r.s.data.teams {
		if team.TournamentID == id {
			return ErrTournamentInUse
		}
	}
	delete(r.s.data.tournaments, id)
	return nil
}

func (r memoryTournaments) LockForEnrollment(ctx context.Context, id int) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.tournaments[id]; !ok {
		return ErrTournamentNotFound
	}
	return nil
}

// --- teams ---

type memoryTeams struct{ s *MemoryStore }

func (r memoryTeams) CreateWithCaptain(ctx context.Context, team *models.Team) error {
	defer r.s.lock(ctx)()

	if strings.TrimSpace(team.Name) == "" {
		return ErrTeamInvalidFields
	}
	if _, ok := r.s.data.tournaments[team.TournamentID]; !ok {
		return ErrTeamReference
	}
	if _, ok := r.s.data.users[team.CaptainID]; !ok {
		return ErrTeamReference
	}

	now := r.s.now()
	r.s.data.nextTeamID++
	team.ID = r.s.data.nextTeamID
	team.CreatedAt = now
	r.s.data.teams[team.ID] = *team

	r.s.data.nextMemberID++
	r.s.data.members[r.s.data.nextMemberID] = models.TeamMember{
		ID:       r.s.data.nextMemberID,
		TeamID:   team.ID,
		UserID:   team.CaptainID,
		JoinedAt: now,
	}
	return nil
}

func (r memoryTeams) GetByID(ctx context.Context, id int) (*models.Team, error) {
	defer r.s.lock(ctx)()

	t, ok := r.s.data.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return &t, nil
}

func (r memoryTeams) ListByTournament(ctx context.Context, tournamentID int) ([]models.Team, error) {
	defer r.s.lock(ctx)()

	teams := make([]models.Team, 0)
	for _, t := range r.s.data.teams {
		if t.TournamentID == tournamentID {
			teams = append(teams, t)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

func (r memoryTeams) UpdateStatus(ctx context.Context, id int, from, to models.TeamStatus) error {
	defer r.s.lock(ctx)()

	t, ok := r.s.data.teams[id]
	if !ok {
		return ErrTeamNotFound
	}
	if t.Status != from {
		return ErrStatusConflict
	}
	t.Status = to
	r.s.data.teams[id] = t
	return nil
}

func (r memoryTeams) Delete(ctx context.Context, id int) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.teams[id]; !ok {
		return ErrTeamNotFound
	}
	r.s.deleteTeamLocked(id)
	return nil
}

// --- team members ---

type memoryMembers struct{ s *MemoryStore }

func (r memoryMembers) Add(ctx context.Context, member *models.TeamMember) error {
	defer r.s.lock(ctx)()

	if _, ok := r.s.data.teams[member.TeamID]; !ok {
		return ErrTeamNotFound
	}
	if _, ok := r.s.data.users[member.UserID]; !ok {
		return ErrUserNotFound
	}
	for _, m := range r.s.data.members {
		if m.TeamID == member.TeamID && m.UserID == member.UserID {
			return ErrTeamMemberConflict
		}
	}
	r.s.data.nextMemberID++
	member.ID = r.s.data.nextMemberID
	member.JoinedAt = r.s.now()
	stored := *member
	stored.User = nil
	r.s.data.members[member.ID] = stored
	return nil
}

func (r memoryMembers) Remove(ctx context.Context, teamID int, userID int64) error {
	defer r.s.lock(ctx)()

	for id, m := range r.s.data.members {
		if m.TeamID == teamID && m.UserID == userID {
			delete(r.s.data.members, id)
			return nil
		}
	}
	return ErrTeamMemberNotFound
}

func (r memoryMembers) ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	defer r.s.lock(ctx)()

	members := r.s.membersOfLocked(teamID)
	for i := range members {
		u := r.s.data.users[members[i].UserID]
		members[i].User = &u
	}
	return members, nil
}

func (r memoryMembers) Exists(ctx context.Context, teamID int, userID int64) (bool, error) {
	defer r.s.lock(ctx)()

	for _, m := range r.s.data.members {
		if m.TeamID == teamID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (r memoryMembers) FindEnrolledElsewhere(ctx context.Context, teamID int) (*models.User, error) {
	defer r.s.lock(ctx)()

	team, ok := r.s.data.teams[teamID]
	if !ok {
		return nil, ErrTeamNotFound
	}
	for _, m := range r.s.membersOfLocked(teamID) {
		for _, other := range r.s.data.members {
			if other.UserID != m.UserID || other.TeamID == teamID {
				continue
			}
			otherTeam := r.s.data.teams[other.TeamID]
			if otherTeam.TournamentID == team.TournamentID && otherTeam.Status == models.TeamStatusEnrolled {
				u := r.s.data.users[m.UserID]
				return &u, nil
			}
		}
	}
	return nil, nil
}

// --- conversations ---

type memoryConversations struct{ s *MemoryStore }

func (r memoryConversations) Get(ctx context.Context, chatID, userID int64) (*models.Conversation, error) {
	defer r.s.lock(ctx)()

	if c, ok := r.s.data.conversations[conversationKey{chatID, userID}]; ok {
		return &c, nil
	}
	return &models.Conversation{ChatID: chatID, UserID: userID}, nil
}

func (r memoryConversations) Save(ctx context.Context, conv *models.Conversation) error {
	defer r.s.lock(ctx)()

	conv.UpdatedAt = r.s.now()
	r.s.data.conversations[conversationKey{conv.ChatID, conv.UserID}] = *conv
	return nil
}

func (r memoryConversations) Delete(ctx context.Context, chatID, userID int64) error {
	defer r.s.lock(ctx)()

	delete(r.s.data.conversations, conversationKey{chatID, userID})
	return nil
}

func (r memoryConversations) DeleteIdleBefore(ctx context.Context, before time.Time) (int64, error) {
	defer r.s.lock(ctx)()

	var removed int64
	for k, c := range r.s.data.conversations {
		if c.State != models.StateIdle && c.UpdatedAt.Before(before) {
			delete(r.s.data.conversations, k)
			removed++
		}
	}
	return removed, nil
}
