package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-bot/services"
)

type TournamentHandler struct {
	tournaments *services.TournamentService
	logger      *slog.Logger
}

func NewTournamentHandler(ts *services.TournamentService, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{tournaments: ts, logger: logger}
}

// ListHandler обрабатывает GET /tournaments
//
//	@Summary	Список турниров
//	@Tags		tournaments
//	@Produce	json
//	@Success	200	{object}	map[string][]services.TournamentPayload
//	@Router		/tournaments [get]
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.tournaments.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	payloads := make([]services.TournamentPayload, 0, len(list))
	for i := range list {
		payloads = append(payloads, services.PayloadFromTournament(&list[i]))
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": payloads}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}

// GetByIDHandler обрабатывает GET /tournaments/{tournamentID}
//
//	@Summary	Турнир по ID
//	@Tags		tournaments
//	@Produce	json
//	@Param		tournamentID	path		int	true	"ID турнира"
//	@Success	200				{object}	map[string]services.TournamentPayload
//	@Failure	404				{object}	map[string]string
//	@Router		/tournaments/{tournamentID} [get]
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	t, err := h.tournaments.Get(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": services.PayloadFromTournament(t)}, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}
