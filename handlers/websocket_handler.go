package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/hunt-reservation/notifications"
	"github.com/Dosada05/hunt-reservation/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене сюда нужна проверка Origin по списку доверенных доменов.
		return true
	},
}

type WebSocketHandler struct {
	hub           *notifications.Hub
	serverService services.ServerService
}

func NewWebSocketHandler(hub *notifications.Hub, serverService services.ServerService) *WebSocketHandler {
	return &WebSocketHandler{
		hub:           hub,
		serverService: serverService,
	}
}

// ServeWs подписывает клиента на события заявок конкретного сервера.
// Подключение: /ws/servers/{serverID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	serverID, err := getIDFromURL(r, "serverID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if _, err := h.serverService.GetByID(r.Context(), serverID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам отвечает клиенту HTTP-ошибкой.
		logger.Warn("failed to upgrade websocket connection",
			slog.Int("server_id", serverID), slog.Any("error", err))
		return
	}

	client := notifications.NewClient(h.hub, conn, serverID)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}
