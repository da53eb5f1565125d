package server

import (
	"log/slog"
	"time"

	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/observability"

	"github.com/gofiber/fiber/v2"
)

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup handles POST /api/auth/signup
// @Summary Account signup
// @Description Register an account. The new account starts logged in.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Signup request"
// @Success 201 {object} object{token=string,account=models.AccountView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	account, err := s.network.SignUp(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}

	token, _, err := middleware.IssueToken(s.config.JWTSecret, s.network.InstanceID(), account.ID, account.Name, s.tokenTTL())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token":   token,
		"account": account,
	})
}

// Login handles POST /api/auth/login
// @Summary Account login
// @Description Authenticate an account and return a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Login credentials"
// @Success 200 {object} object{token=string,account=models.AccountView}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req credentialsRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.network.LogIn(c.UserContext(), req.Username, req.Password); err != nil {
		return respondError(c, err)
	}

	account, err := s.network.Account(req.Username)
	if err != nil {
		return respondError(c, err)
	}

	token, _, err := middleware.IssueToken(s.config.JWTSecret, s.network.InstanceID(), account.ID, account.Name, s.tokenTTL())
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token":   token,
		"account": account,
	})
}

// Logout handles POST /api/auth/logout
// @Summary Account logout
// @Description End the session and revoke the presented token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	account := currentAccount(c)
	if err := s.network.LogOut(c.UserContext(), account.Name); err != nil {
		return respondError(c, err)
	}

	s.revokeToken(c, currentClaims(c))

	return c.JSON(fiber.Map{
		"message": "Logged out",
	})
}

// revokeToken blacklists the token ID until it would have expired anyway, so
// it stays unusable after the account logs in again.
func (s *Server) revokeToken(c *fiber.Ctx, claims middleware.TokenClaims) {
	if s.redis == nil || claims.JTI == "" {
		return
	}
	ttl := time.Until(claims.ExpiresAt)
	if ttl <= 0 {
		return
	}
	if err := s.redis.Set(c.UserContext(), revokedKeyPrefix+claims.JTI, claims.AccountID, ttl).Err(); err != nil {
		observability.GlobalLogger.WarnContext(c.UserContext(), "failed to revoke token",
			slog.String("jti", claims.JTI), slog.String("error", err.Error()))
	}
}
