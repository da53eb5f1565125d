package server

import (
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary Notification log
// @Description The caller's in-memory notification log, oldest first
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Notification
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	entries, err := s.network.Notifications(currentAccount(c).Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// GetArchivedNotifications handles GET /api/notifications/archive
// @Summary Archived notifications
// @Description Notifications persisted by the archive sink
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum rows (default 50, max 200)"
// @Success 200 {object} object{notifications=[]models.NotificationRecord,total=int}
// @Failure 503 {object} models.ErrorResponse
// @Router /notifications/archive [get]
func (s *Server) GetArchivedNotifications(c *fiber.Ctx) error {
	if s.archive == nil {
		return models.RespondWithError(c, fiber.StatusServiceUnavailable,
			&models.AppError{Code: models.CodeInternal, Message: "notification archive is disabled"})
	}

	accountID := currentAccount(c).ID
	records, err := s.archive.ListByRecipient(c.UserContext(), accountID, c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, err)
	}
	total, err := s.archive.CountByRecipient(c.UserContext(), accountID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"notifications": records,
		"total":         total,
	})
}
