package httpserver

import (
	"log/slog"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/yukyra-eren/flarum-ext-money/internal/platform/errors"
)

// handleBalanceSocket upgrades the connection and registers it with the hub
// so the client receives live balance updates for the account.
func (s *Server) handleBalanceSocket(c echo.Context) error {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid account ID").WithField("id", c.Param("id"))
	}

	conn, err := s.upgrader.Upgrade(c.Response().Writer, c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		slog.Warn("Websocket upgrade failed", "account_id", accountID, "error", err)
		return nil
	}

	if err := s.hub.Register(accountID, conn); err != nil {
		slog.Warn("Websocket registration rejected", "account_id", accountID, "error", err)
		return nil
	}

	// Read loop to detect disconnects; clients are not expected to send data.
	go func() {
		defer s.hub.Unregister(accountID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	return nil
}
