package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/yukyra-eren/flarum-ext-money/internal/domain"
	apperrors "github.com/yukyra-eren/flarum-ext-money/internal/platform/errors"
)

// actorHeader identifies the forum user performing a balance edit. The forum
// backend is the only caller of this API and is trusted to set it correctly.
const actorHeader = "X-Actor-ID"

type balanceResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Username  string    `json:"username"`
	Balance   float64   `json:"balance"`
}

type editBalanceRequest struct {
	Balance float64 `json:"balance"`
}

func (s *Server) registerAPIRoutes() {
	s.echo.GET("/api/accounts/:id/balance", s.handleGetBalance)
	s.echo.PUT("/api/accounts/:id/balance", s.handleEditBalance)
}

func (s *Server) handleGetBalance(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid account ID").WithField("id", c.Param("id"))
	}

	account, err := s.app.GetBalance(ctx, accountID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return apperrors.NotFoundError("account not found").WithField("account_id", accountID.String())
	}
	if err != nil {
		return apperrors.InternalError("failed to load account", err).WithField("account_id", accountID.String())
	}

	if err := c.JSON(http.StatusOK, toBalanceResponse(account)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleEditBalance(c echo.Context) error {
	ctx := c.Request().Context()

	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperrors.ValidationError("invalid account ID").WithField("id", c.Param("id"))
	}

	actorID, err := uuid.Parse(c.Request().Header.Get(actorHeader))
	if err != nil {
		return apperrors.ValidationError("missing or invalid actor ID header").WithField("header", actorHeader)
	}

	var req editBalanceRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	account, err := s.app.EditBalance(ctx, actorID, accountID, req.Balance)
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return apperrors.ForbiddenError("actor may not edit this balance").
			WithField("actor_id", actorID.String()).
			WithField("account_id", accountID.String())
	case errors.Is(err, domain.ErrAccountNotFound):
		return apperrors.NotFoundError("account not found").WithField("account_id", accountID.String())
	case err != nil:
		return apperrors.InternalError("failed to edit balance", err).WithField("account_id", accountID.String())
	}

	if err := c.JSON(http.StatusOK, toBalanceResponse(account)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func toBalanceResponse(account *domain.Account) balanceResponse {
	return balanceResponse{
		AccountID: account.ID,
		Username:  account.Username,
		Balance:   account.Balance,
	}
}
