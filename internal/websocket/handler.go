package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/lifeboard/lifeboard/internal/auth"
)

// HandleWebSocket upgrades an authenticated request and runs it as a Hub
// client of the caller. It must sit behind RequireAuth.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.UserID(r.Context())
		if userID == 0 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", "error", err)
			return
		}
		defer conn.CloseNow()

		logger.Debug("websocket connected", "user_id", userID)
		NewClient(hub, conn, userID).Run(r.Context())
		logger.Debug("websocket disconnected", "user_id", userID)
	}
}
