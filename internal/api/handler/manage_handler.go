package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mfalicoff/kosync/internal/api/metrics"
	"github.com/mfalicoff/kosync/internal/core/domain"
	"github.com/mfalicoff/kosync/internal/core/ports"
)

// ManageHandler serves the administrator surface under /manage. Every route
// is gated by the admin policy in the router; target users are addressed by
// query parameter.
type ManageHandler struct {
	userService ports.UserService
}

func NewManageHandler(userService ports.UserService) *ManageHandler {
	return &ManageHandler{userService: userService}
}

type passwordChangeRequest struct {
	Password string `json:"password" validate:"required"`
}

// documentResponse mirrors the stored progress record for the management
// surface; timestamps stay RFC3339 here, unlike the device protocol.
type documentResponse struct {
	DocumentHash string      `json:"documentHash"`
	Progress     string      `json:"progress"`
	Percentage   json.Number `json:"percentage"`
	Device       string      `json:"device"`
	DeviceID     string      `json:"deviceId"`
	Timestamp    time.Time   `json:"timestamp"`
}

func requireUsernameParam(c echo.Context) (string, error) {
	username := c.QueryParam("username")
	if username == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "username is required")
	}
	return username, nil
}

// ListUsers handles GET /manage/users.
//
// @Summary      List users
// @Tags         manage
// @Produce      json
// @Success      200  {array}  domain.UserSummary
// @Router       /manage/users [get]
func (h *ManageHandler) ListUsers(c echo.Context) error {
	summaries, err := h.userService.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaries)
}

// CreateUser handles POST /manage/users. Unlike self-registration this path
// ignores the registration toggle and reports a duplicate as 409.
//
// @Summary      Create a user
// @Tags         manage
// @Accept       json
// @Produce      json
// @Param        body  body      createUserRequest  true  "Credentials"
// @Success      201   {object}  usernameResponse
// @Failure      409   {object}  map[string]string
// @Router       /manage/users [post]
func (h *ManageHandler) CreateUser(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.CreateUser(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}

	metrics.UsersCreatedTotal.WithLabelValues("admin").Inc()
	return c.JSON(http.StatusCreated, usernameResponse{Username: user.Username})
}

// DeleteUser handles DELETE /manage/users?username=.
//
// @Summary      Delete a user and all of their progress
// @Tags         manage
// @Produce      json
// @Param        username  query     string  true  "Target username"
// @Success      200       {object}  messageResponse
// @Failure      404       {object}  map[string]string
// @Router       /manage/users [delete]
func (h *ManageHandler) DeleteUser(c echo.Context) error {
	username, err := requireUsernameParam(c)
	if err != nil {
		return err
	}
	if err := h.userService.DeleteUser(c.Request().Context(), username); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Success"})
}

// SetActive handles PUT /manage/users/active?username=. Without an explicit
// active parameter the current flag is toggled.
//
// @Summary      Activate or deactivate a user
// @Tags         manage
// @Produce      json
// @Param        username  query     string  true   "Target username"
// @Param        active    query     bool    false  "Explicit state; toggles when omitted"
// @Success      200       {object}  messageResponse
// @Failure      403       {object}  map[string]string
// @Router       /manage/users/active [put]
func (h *ManageHandler) SetActive(c echo.Context) error {
	username, err := requireUsernameParam(c)
	if err != nil {
		return err
	}

	var user *domain.User
	if raw := c.QueryParam("active"); raw != "" {
		active, perr := strconv.ParseBool(raw)
		if perr != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "active must be a boolean")
		}
		user, err = h.userService.SetActive(c.Request().Context(), username, active)
	} else {
		user, err = h.userService.ToggleActive(c.Request().Context(), username)
	}
	if err != nil {
		return err
	}

	msg := "User marked as inactive"
	if user.IsActive {
		msg = "User marked as active"
	}
	return c.JSON(http.StatusOK, messageResponse{Message: msg})
}

// SetPassword handles PUT /manage/users/password?username= with body {password}.
//
// @Summary      Change a user's password
// @Tags         manage
// @Accept       json
// @Produce      json
// @Param        username  query     string                 true  "Target username"
// @Param        body      body      passwordChangeRequest  true  "New password"
// @Success      200       {object}  messageResponse
// @Failure      400       {object}  map[string]string
// @Router       /manage/users/password [put]
func (h *ManageHandler) SetPassword(c echo.Context) error {
	username, err := requireUsernameParam(c)
	if err != nil {
		return err
	}

	var req passwordChangeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := h.userService.SetPassword(c.Request().Context(), username, req.Password); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Password changed successfully"})
}

// ListDocuments handles GET /manage/users/documents?username=.
//
// @Summary      List a user's synced documents
// @Tags         manage
// @Produce      json
// @Param        username  query  string  true  "Target username"
// @Success      200  {array}   documentResponse
// @Failure      404  {object}  map[string]string
// @Router       /manage/users/documents [get]
func (h *ManageHandler) ListDocuments(c echo.Context) error {
	username, err := requireUsernameParam(c)
	if err != nil {
		return err
	}

	docs, err := h.userService.ListDocuments(c.Request().Context(), username)
	if err != nil {
		return err
	}

	out := make([]documentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse{
			DocumentHash: d.DocumentHash,
			Progress:     d.Progress,
			Percentage:   json.Number(d.Percentage.String()),
			Device:       d.Device,
			DeviceID:     d.DeviceID,
			Timestamp:    d.Timestamp,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// DeleteDocument handles DELETE /manage/users/documents?username=&documentHash=.
//
// @Summary      Delete one progress record
// @Tags         manage
// @Produce      json
// @Param        username      query     string  true  "Target username"
// @Param        documentHash  query     string  true  "Document hash"
// @Success      200           {object}  messageResponse
// @Failure      404           {object}  map[string]string
// @Router       /manage/users/documents [delete]
func (h *ManageHandler) DeleteDocument(c echo.Context) error {
	username, err := requireUsernameParam(c)
	if err != nil {
		return err
	}
	documentHash := c.QueryParam("documentHash")
	if documentHash == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "documentHash is required")
	}

	if err := h.userService.DeleteDocument(c.Request().Context(), username, documentHash); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Success"})
}
