package delivery

import (
	"log"
	"net/http"

	"hndld-backend/internal/auth/repository"

	"github.com/gin-gonic/gin"
)

// DeviceHandler registers FCM device tokens for push notifications
type DeviceHandler struct {
	tokens repository.DeviceTokenRepository
}

func NewDeviceHandler(tokens repository.DeviceTokenRepository) *DeviceHandler {
	return &DeviceHandler{tokens: tokens}
}

type registerDeviceRequest struct {
	Token      string `json:"token" binding:"required"`
	DeviceInfo string `json:"device_info"`
}

// RegisterDevice stores the caller's FCM token
// POST /api/devices
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	var req registerDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.tokens.SaveToken(c.Request.Context(), userID, req.Token, req.DeviceInfo); err != nil {
		log.Printf("[Devices] Error saving token for user %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register device"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Device registered"})
}

// UnregisterDevice removes one of the caller's FCM tokens
// DELETE /api/devices/:token
func (h *DeviceHandler) UnregisterDevice(c *gin.Context) {
	userID := c.GetString(ContextUserID)

	if err := h.tokens.DeleteToken(c.Request.Context(), userID, c.Param("token")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device unregistered"})
}
