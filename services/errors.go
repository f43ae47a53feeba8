package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-bot/repositories"
)

// ErrorKind - категория ошибки, по которой транспорт выбирает ответ пользователю.
type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindNotFound
	KindConstraintViolation
	KindPolicyViolation
	KindAccessDenied
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConstraintViolation:
		return "constraint_violation"
	case KindPolicyViolation:
		return "policy_violation"
	case KindAccessDenied:
		return "access_denied"
	default:
		return "internal"
	}
}

var (
	// Ресурс не найден
	ErrUserNotFound       = errors.New("user not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrMemberNotFound     = errors.New("member not found")

	// Нарушение ограничений данных
	ErrAlreadyRegistered      = errors.New("registration already exists for this user")
	ErrPhoneAlreadyUsed       = errors.New("phone number is already registered")
	ErrRegistrationIncomplete = errors.New("registration data is incomplete")
	ErrNameTooLong            = errors.New("name is too long")
	ErrUserAlreadyInTeam      = errors.New("user already in team")
	ErrTeamNameRequired       = errors.New("team name is required")
	ErrValidationFailed       = errors.New("validation failed")

	// Нарушение бизнес-правил
	ErrRosterTooSmall         = errors.New("not enough team members")
	ErrRosterTooLarge         = errors.New("too many team members")
	ErrCannotRemoveCaptain    = errors.New("cannot remove team captain")
	ErrNoMembersToRemove      = errors.New("no members to remove")
	ErrUserInAnotherTeam      = errors.New("user is already in another team")
	ErrCaptainActionForbidden = errors.New("only the team captain can perform this action")
	ErrUserNotActivated       = errors.New("user registration is not approved")
	ErrTeamAlreadyEnrolled    = errors.New("team is already enrolled")
	ErrRegistrationClosed     = errors.New("tournament is not accepting teams")
	ErrNotSoloTournament      = errors.New("tournament requires a team")
	ErrTournamentHasTeams     = errors.New("tournament has teams and cannot be deleted")
	ErrStatusChanged          = errors.New("request was already processed")
	ErrExportDisabled         = errors.New("roster export is not configured")

	// Доступ
	ErrAdminRequired = errors.New("admin access required")
)

var errorKinds = []struct {
	kind ErrorKind
	errs []error
}{
	{KindNotFound, []error{ErrUserNotFound, ErrTeamNotFound, ErrTournamentNotFound, ErrMemberNotFound}},
	{KindConstraintViolation, []error{
		ErrAlreadyRegistered, ErrPhoneAlreadyUsed, ErrRegistrationIncomplete, ErrNameTooLong,
		ErrUserAlreadyInTeam, ErrTeamNameRequired, ErrValidationFailed,
	}},
	{KindPolicyViolation, []error{
		ErrRosterTooSmall, ErrRosterTooLarge, ErrCannotRemoveCaptain, ErrNoMembersToRemove,
		ErrUserInAnotherTeam, ErrCaptainActionForbidden, ErrUserNotActivated, ErrTeamAlreadyEnrolled,
		ErrRegistrationClosed, ErrNotSoloTournament, ErrTournamentHasTeams, ErrStatusChanged, ErrExportDisabled,
	}},
	{KindAccessDenied, []error{ErrAdminRequired}},
}

// Kind классифицирует ошибку сервисного слоя. Неизвестные ошибки считаются внутренними.
func Kind(err error) ErrorKind {
	if err == nil {
		return KindInternal
	}
	for _, group := range errorKinds {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.kind
			}
		}
	}
	return KindInternal
}

// EnrollmentConflictError называет участника, уже заявленного в другой одобренной команде турнира.
type EnrollmentConflictError struct {
	UserID   int64
	UserName string
}

func (e *EnrollmentConflictError) Error() string {
	return fmt.Sprintf("User %s is already in another team", e.UserName)
}

func (e *EnrollmentConflictError) Unwrap() error {
	return ErrUserInAnotherTeam
}

// handleRepositoryError переводит ошибки репозиториев в ошибки сервисного слоя.
func handleRepositoryError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTournamentNotFound):
		return ErrTournamentNotFound
	case errors.Is(err, repositories.ErrTeamMemberNotFound):
		return ErrMemberNotFound
	case errors.Is(err, repositories.ErrUserConflict):
		return ErrAlreadyRegistered
	case errors.Is(err, repositories.ErrUserPhoneConflict):
		return ErrPhoneAlreadyUsed
	case errors.Is(err, repositories.ErrUserMissingFields):
		return ErrRegistrationIncomplete
	case errors.Is(err, repositories.ErrTeamMemberConflict):
		return ErrUserAlreadyInTeam
	case errors.Is(err, repositories.ErrTournamentInUse):
		return ErrTournamentHasTeams
	case errors.Is(err, repositories.ErrStatusConflict):
		return ErrStatusChanged
	case errors.Is(err, repositories.ErrTournamentInvalidFields),
		errors.Is(err, repositories.ErrTeamInvalidFields):
		return ErrValidationFailed
	case errors.Is(err, repositories.ErrTeamReference):
		return ErrTournamentNotFound
	}
	return err
}

// RosterSizeError сообщает нарушенную границу размера состава.
type RosterSizeError struct {
	Count   int
	Limit   int
	TooMany bool
}

func (e *RosterSizeError) Error() string {
	if e.TooMany {
		return fmt.Sprintf("Maximum %d members allowed", e.Limit)
	}
	return fmt.Sprintf("Need at least %d members", e.Limit)
}

func (e *RosterSizeError) Unwrap() error {
	if e.TooMany {
		return ErrRosterTooLarge
	}
	return ErrRosterTooSmall
}
