package server

import (
	"errors"
	"time"

	"murmur/internal/middleware"
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// statusFor maps an AppError code to its HTTP status.
func statusFor(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}

	switch appErr.Code {
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeValidation, models.CodeInvalidPassword,
		models.CodeUnknownPostKind, models.CodeInvalidDiscount:
		return fiber.StatusBadRequest
	case models.CodeNotAuthenticated, models.CodeWrongCredential, models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeDuplicateUsername, models.CodeDuplicateEdge, models.CodeMissingEdge,
		models.CodeAlreadyLiked, models.CodeNetworkConflict:
		return fiber.StatusConflict
	case models.CodeSelfReferenceRejected, models.CodeInvalidOperationForKind:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status its code maps to.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, statusFor(err), err)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// currentAccount returns the account stored by AuthRequired.
func currentAccount(c *fiber.Ctx) models.AccountView {
	account, _ := c.Locals("account").(models.AccountView)
	return account
}

func currentClaims(c *fiber.Ctx) middleware.TokenClaims {
	claims, _ := c.Locals("claims").(middleware.TokenClaims)
	return claims
}

func (s *Server) tokenTTL() time.Duration {
	if s.config.JWTTTLHours > 0 {
		return time.Duration(s.config.JWTTTLHours) * time.Hour
	}
	return defaultTokenTTL
}
