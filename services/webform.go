package services

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/Dosada05/tournament-bot/models"
)

const (
	ActionCreateTournament = "create_tournament"
	ActionUpdateTournament = "update_tournament"
	ActionGetTournament    = "get_tournament"

	ResponseTournamentCreated = "tournament_created"
	ResponseTournamentUpdated = "tournament_updated"
	ResponseTournamentData    = "tournament_data"
	ResponseError             = "error"
)

// WebFormRequest - сообщение редактора турниров.
type WebFormRequest struct {
	Action       string            `json:"action"`
	Data         TournamentPayload `json:"data"`
	TournamentID int               `json:"tournament_id,omitempty"`
}

// WebFormResponse - ответ редактору, различается по полю type.
type WebFormResponse struct {
	Type    string             `json:"type"`
	Data    *TournamentPayload `json:"data,omitempty"`
	Message string             `json:"message,omitempty"`
}

// TournamentObserver получает уведомления о сохранённых через форму турнирах.
type TournamentObserver interface {
	TournamentSaved(ctx context.Context, tournament *models.Tournament, created bool)
}

type WebFormService struct {
	tournaments *TournamentService
	admins      *AdminGate
	observer    TournamentObserver
	logger      *slog.Logger
}

func NewWebFormService(tournaments *TournamentService, admins *AdminGate, observer TournamentObserver, logger *slog.Logger) *WebFormService {
	return &WebFormService{tournaments: tournaments, admins: admins, observer: observer, logger: logger}
}

// HandleRaw разбирает JSON из веб-формы и обрабатывает его.
func (s *WebFormService) HandleRaw(ctx context.Context, principalID int64, raw []byte) WebFormResponse {
	var req WebFormRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return WebFormResponse{Type: ResponseError, Message: "malformed request: " + err.Error()}
	}
	return s.Handle(ctx, principalID, req)
}

// Handle выполняет действие формы. Любая ошибка возвращается как ответ с type=error.
func (s *WebFormService) Handle(ctx context.Context, principalID int64, req WebFormRequest) WebFormResponse {
	if err := s.admins.RequireAdmin(ctx, principalID); err != nil {
		return s.errorResponse(ctx, req.Action, err)
	}

	switch req.Action {
	case ActionCreateTournament:
		t, err := s.tournaments.Create(ctx, principalID, req.Data)
		if err != nil {
			return s.errorResponse(ctx, req.Action, err)
		}
		s.notify(ctx, t, true)
		return tournamentResponse(ResponseTournamentCreated, t)

	case ActionUpdateTournament:
		id := req.Data.ID
		if id == 0 {
			id = req.TournamentID
		}
		t, err := s.tournaments.Update(ctx, id, req.Data)
		if err != nil {
			return s.errorResponse(ctx, req.Action, err)
		}
		s.notify(ctx, t, false)
		return tournamentResponse(ResponseTournamentUpdated, t)

	case ActionGetTournament:
		id := req.TournamentID
		if id == 0 {
			id = req.Data.ID
		}
		t, err := s.tournaments.Get(ctx, id)
		if err != nil {
			return s.errorResponse(ctx, req.Action, err)
		}
		return tournamentResponse(ResponseTournamentData, t)
	}

	return WebFormResponse{Type: ResponseError, Message: "unknown action: " + req.Action}
}

func (s *WebFormService) notify(ctx context.Context, t *models.Tournament, created bool) {
	if s.observer != nil {
		s.observer.TournamentSaved(ctx, t, created)
	}
}

func tournamentResponse(kind string, t *models.Tournament) WebFormResponse {
	payload := PayloadFromTournament(t)
	return WebFormResponse{Type: kind, Data: &payload}
}

func (s *WebFormService) errorResponse(ctx context.Context, action string, err error) WebFormResponse {
	kind := Kind(err)
	if kind == KindInternal {
		s.logger.ErrorContext(ctx, "web form request failed", slog.String("action", action), slog.Any("error", err))
		return WebFormResponse{Type: ResponseError, Message: "internal error"}
	}
	return WebFormResponse{Type: ResponseError, Message: err.Error()}
}
