package server

import (
	"log/slog"

	"murmur/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler streams the caller's notifications. Must run after
// AuthRequired so accountID is set.
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		accountID, ok := conn.Locals("accountID").(uint)
		if !ok {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(accountID, conn)
		if err != nil {
			observability.GlobalLogger.Warn("websocket registration refused",
				slog.Uint64("account_id", uint64(accountID)), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		observability.GlobalLogger.Info("websocket connected", slog.Uint64("account_id", uint64(accountID)))
		go client.WriteLoop()
		client.ReadLoop()
		observability.GlobalLogger.Info("websocket disconnected", slog.Uint64("account_id", uint64(accountID)))
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return upgrade(c)
	}
}
