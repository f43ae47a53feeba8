package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/tournament-bot/middleware"
	"github.com/Dosada05/tournament-bot/services"
)

type WebAppHandler struct {
	webForm *services.WebFormService
	logger  *slog.Logger
}

func NewWebAppHandler(webForm *services.WebFormService, logger *slog.Logger) *WebAppHandler {
	return &WebAppHandler{webForm: webForm, logger: logger}
}

// SubmitHandler обрабатывает POST /webapp.
// Ответ всегда в формате веб-формы: ошибки приходят с type=error.
//
//	@Summary	Действие веб-формы турнира
//	@Tags		webapp
//	@Accept		json
//	@Produce	json
//	@Param		request	body		services.WebFormRequest	true	"create_tournament, update_tournament или get_tournament"
//	@Success	200		{object}	services.WebFormResponse
//	@Failure	400		{object}	map[string]string
//	@Failure	401		{string}	string
//	@Security	BearerAuth
//	@Router		/webapp [post]
func (h *WebAppHandler) SubmitHandler(w http.ResponseWriter, r *http.Request) {
	principalID, err := middleware.GetPrincipalIDFromContext(r.Context())
	if err != nil {
		errorResponse(w, r, h.logger, http.StatusUnauthorized, "authentication required")
		return
	}

	var req services.WebFormRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}

	resp := h.webForm.Handle(r.Context(), principalID, req)
	if err := writeJSON(w, http.StatusOK, resp, nil); err != nil {
		serverErrorResponse(w, r, h.logger, err)
	}
}
