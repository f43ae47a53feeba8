package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/tournament-bot/bot"
	"github.com/Dosada05/tournament-bot/realtime"
	"github.com/Dosada05/tournament-bot/services"
)

type WebSocketHandler struct {
	hub         *realtime.Hub
	tournaments *services.TournamentService
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewWebSocketHandler принимает список разрешенных Origin; пустой список разрешает все.
func NewWebSocketHandler(hub *realtime.Hub, ts *services.TournamentService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		tournaments: ts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

// ServeWs обрабатывает WebSocket запросы для конкретного турнира.
// Клиент должен подключаться к /ws/tournaments/{tournamentID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, h.logger, err)
		return
	}
	if _, err := h.tournaments.Get(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, r, h.logger, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту ошибкой.
		h.logger.Warn("websocket upgrade failed", slog.Int("tournament_id", id), slog.Any("error", err))
		return
	}

	client := realtime.NewClient(h.hub, conn, bot.TournamentRoom(id))
	if !h.hub.Register(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	go client.ReadPump()
}
