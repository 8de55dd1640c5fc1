package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/renovation-appeals/internal/repository"
)

// DeviceHandler registers FCM device tokens for the authenticated user.
type DeviceHandler struct {
	Devices *repository.DeviceTokenRepo
}

func NewDeviceHandler(d *repository.DeviceTokenRepo) *DeviceHandler {
	return &DeviceHandler{Devices: d}
}

type deviceReq struct {
	FCMToken   string `json:"fcm_token"`
	DeviceType string `json:"device_type"`
}

// Register handles POST /users/me/devices.  The operation is idempotent:
// re-posting a token the caller already owns changes nothing, posting a
// token that belongs to another account moves it to the caller (same
// phone, new login).  Only a first-time registration answers 201.
func (h *DeviceHandler) Register(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req deviceReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	token := strings.TrimSpace(req.FCMToken)
	if token == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fcm_token is required"})
	}
	deviceType := strings.ToLower(strings.TrimSpace(req.DeviceType))
	if deviceType == "" {
		deviceType = "unknown"
	}

	outcome, err := h.Devices.Register(c.Request().Context(), userID, token, deviceType)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "register device failed"})
	}
	switch outcome {
	case repository.RegisterNoop:
		return c.JSON(http.StatusOK, echo.Map{"message": "Device already registered"})
	case repository.RegisterReassigned:
		return c.JSON(http.StatusOK, echo.Map{"message": "Device registration updated"})
	default:
		return c.JSON(http.StatusCreated, echo.Map{"message": "Device registered successfully"})
	}
}
