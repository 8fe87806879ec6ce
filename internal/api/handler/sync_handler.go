package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/mfalicoff/kosync/internal/api/metrics"
	"github.com/mfalicoff/kosync/internal/core/domain"
	"github.com/mfalicoff/kosync/internal/core/ports"
)

// SyncHandler serves the progress endpoints of the device protocol.
type SyncHandler struct {
	syncService ports.SyncService
}

func NewSyncHandler(syncService ports.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

type progressRequest struct {
	Document   string          `json:"document" validate:"required"`
	Progress   string          `json:"progress"`
	Percentage decimal.Decimal `json:"percentage"`
	Device     string          `json:"device"`
	DeviceID   string          `json:"device_id"`
}

type updateProgressResponse struct {
	Document  string `json:"document"`
	Timestamp int64  `json:"timestamp"`
}

// progressResponse is the device wire format: the timestamp is Unix epoch
// seconds and the percentage is emitted as a raw JSON number.
type progressResponse struct {
	Device     string      `json:"device"`
	DeviceID   string      `json:"device_id"`
	Document   string      `json:"document"`
	Percentage json.Number `json:"percentage"`
	Progress   string      `json:"progress"`
	Timestamp  int64       `json:"timestamp"`
}

// UpdateProgress handles PUT /syncs/progress.
//
// @Summary      Push reading progress
// @Tags         syncs
// @Accept       json
// @Produce      json
// @Param        x-auth-user  header  string           true  "Username"
// @Param        x-auth-key   header  string           true  "Credential digest"
// @Param        body         body    progressRequest  true  "Progress payload"
// @Success      200  {object}  updateProgressResponse
// @Failure      401  {object}  map[string]string
// @Router       /syncs/progress [put]
func (h *SyncHandler) UpdateProgress(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req progressRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	input := ports.ProgressInput{
		Progress:   req.Progress,
		Percentage: req.Percentage,
		Device:     req.Device,
		DeviceID:   req.DeviceID,
	}

	progress, err := h.syncService.UpdateProgress(c.Request().Context(), claims.Username, req.Document, input)
	if err != nil {
		metrics.ProgressUpdatesTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.ProgressUpdatesTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, updateProgressResponse{
		Document:  progress.DocumentHash,
		Timestamp: progress.Timestamp.Unix(),
	})
}

// GetProgress handles GET /syncs/progress/:documentHash.
//
// A document that was never synced answers 502, not 404: KOReader treats 404
// as a protocol error but accepts 502 as "nothing on the server yet".
//
// @Summary      Pull reading progress
// @Tags         syncs
// @Produce      json
// @Param        x-auth-user   header  string  true  "Username"
// @Param        x-auth-key    header  string  true  "Credential digest"
// @Param        documentHash  path    string  true  "Document hash"
// @Success      200  {object}  progressResponse
// @Failure      502  {object}  messageResponse
// @Router       /syncs/progress/{documentHash} [get]
func (h *SyncHandler) GetProgress(c echo.Context) error {
	claims, err := ctxClaims(c)
	if err != nil {
		return err
	}

	documentHash := c.Param("documentHash")
	progress, err := h.syncService.GetProgress(c.Request().Context(), claims.Username, documentHash)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			metrics.ProgressReadsTotal.WithLabelValues("not_found").Inc()
			return c.JSON(http.StatusBadGateway, messageResponse{Message: "Document not found on server"})
		}
		metrics.ProgressReadsTotal.WithLabelValues("error").Inc()
		return err
	}

	metrics.ProgressReadsTotal.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, progressResponse{
		Device:     progress.Device,
		DeviceID:   progress.DeviceID,
		Document:   progress.DocumentHash,
		Percentage: json.Number(progress.Percentage.String()),
		Progress:   progress.Progress,
		Timestamp:  progress.Timestamp.Unix(),
	})
}
