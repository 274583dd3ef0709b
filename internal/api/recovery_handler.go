package api

import (
	"log/slog"
	"net/http"

	"ironready/coach-api/internal/service"

	"github.com/gin-gonic/gin"
)

// RecoveryHandler serves recovery status and notifications.
type RecoveryHandler struct {
	recoveryService     service.RecoveryService
	notificationService service.NotificationService
	logger              *slog.Logger
}

func NewRecoveryHandler(recoveryService service.RecoveryService, notificationService service.NotificationService, logger *slog.Logger) *RecoveryHandler {
	return &RecoveryHandler{recoveryService: recoveryService, notificationService: notificationService, logger: logger}
}

// ListRecoveries godoc
// @Summary Recovery status per muscle group
// @Tags Recoveries
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.RecoveryRecord
// @Router /recoveries [get]
func (h *RecoveryHandler) ListRecoveries(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	records, err := h.recoveryService.List(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to retrieve recoveries.")
		return
	}
	c.JSON(http.StatusOK, records)
}

// BodyDiagram godoc
// @Summary Recovery status split into front and back of the body
// @Tags Recoveries
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.BodyDiagram
// @Router /recoveries/body-diagram [get]
func (h *RecoveryHandler) BodyDiagram(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	diagram, err := h.recoveryService.BodyDiagram(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to build body diagram.")
		return
	}
	c.JSON(http.StatusOK, diagram)
}

// ListNotifications godoc
// @Summary The caller's notifications, newest first
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param unread_only query bool false "Only unread notifications"
// @Success 200 {array} domain.Notification
// @Router /notifications [get]
func (h *RecoveryHandler) ListNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	unreadOnly := c.Query("unread_only") == "true"
	list, err := h.notificationService.List(c.Request.Context(), userID, unreadOnly)
	if err != nil {
		respondServiceError(c, h.logger, err, "Failed to retrieve notifications.")
		return
	}
	c.JSON(http.StatusOK, list)
}

// MarkNotificationRead godoc
// @Summary Mark one notification as read
// @Tags Notifications
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 404 {object} gin.H "Notification not found"
// @Router /notifications/{id}/read [patch]
func (h *RecoveryHandler) MarkNotificationRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	if err := h.notificationService.MarkRead(c.Request.Context(), userID, id); err != nil {
		respondServiceError(c, h.logger, err, "Failed to update notification.")
		return
	}
	c.Status(http.StatusNoContent)
}
