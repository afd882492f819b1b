package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/AswanthManoj/stay-insight/internal/export"
	"github.com/AswanthManoj/stay-insight/internal/places"
	"github.com/AswanthManoj/stay-insight/internal/shared/server/middleware"
	"github.com/AswanthManoj/stay-insight/internal/shared/server/respond"
)

// Default search bias used when a suggestion request omits coordinates.
const (
	defaultLatitude  = 9.9185
	defaultLongitude = 76.2558
)

// Handler wires HTTP handlers to the task manager.
type Handler struct {
	Manager  *Manager
	Exporter export.Exporter
}

// NewHandler constructs a Handler.
func NewHandler(manager *Manager, exporter export.Exporter) *Handler {
	return &Handler{Manager: manager, Exporter: exporter}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/suggestions", h.suggestions)
	rg.POST("/analyze", h.analyze)
	rg.GET("/analysis/:token", h.analysisResult)
	rg.GET("/download/:token", h.downloadResult)
}

type suggestionRequest struct {
	Value     string   `json:"value"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (h *Handler) suggestions(c *gin.Context) {
	var req suggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.Value) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "value is required", nil)
		return
	}

	latitude := defaultLatitude
	if req.Latitude != nil {
		latitude = *req.Latitude
	}
	longitude := defaultLongitude
	if req.Longitude != nil {
		longitude = *req.Longitude
	}

	result, err := h.Manager.Autocomplete(requestCtx(c), req.Value, latitude, longitude, "")
	if err != nil {
		if errors.Is(err, places.ErrNoResults) {
			respond.Error(c, http.StatusNotFound, "not_found", "no suggestions found", nil)
			return
		}
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch suggestions", nil)
		return
	}
	respond.OK(c, result)
}

type analyzeRequest struct {
	DataID       string `json:"dataId"`
	AnalysisType string `json:"analysisType"`
}

func (h *Handler) analyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if strings.TrimSpace(req.DataID) == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "dataId is required", nil)
		return
	}
	c.Set("dataId", req.DataID)

	switch req.AnalysisType {
	case "instant":
		result, err := h.Manager.InstantAnalysis(requestCtx(c), req.DataID)
		if err != nil {
			if errors.Is(err, ErrNoReviews) {
				respond.OK(c, gin.H{"status": "no_reviews", "data_id": req.DataID})
				return
			}
			respond.Error(c, http.StatusInternalServerError, "internal_error", "instant analysis failed", nil)
			return
		}
		respond.OK(c, result)
	case "full":
		token, err := h.Manager.FullAnalysis(requestCtx(c), req.DataID)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to start full analysis", nil)
			return
		}
		c.Set("analysisToken", token)
		respond.OK(c, gin.H{"token": token})
	default:
		respond.Error(c, http.StatusBadRequest, "validation_error", "Invalid analysis type", nil)
	}
}

func (h *Handler) analysisResult(c *gin.Context) {
	token := c.Param("token")
	c.Set("analysisToken", token)

	view, err := h.Manager.GetResult(token)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "invalid or expired token", nil)
		return
	}

	switch view.Status {
	case StatusCompleted:
		respond.OK(c, view.Result)
	case StatusInProgress:
		respond.OK(c, gin.H{"status": StatusInProgress})
	default:
		respond.OK(c, gin.H{"status": StatusFailed, "error": view.Error})
	}
}

func (h *Handler) downloadResult(c *gin.Context) {
	token := c.Param("token")
	c.Set("analysisToken", token)

	view, err := h.Manager.GetResult(token)
	if err != nil {
		respond.Error(c, http.StatusNotFound, "not_found", "invalid or expired token", nil)
		return
	}
	if view.Status != StatusCompleted {
		respond.Error(c, http.StatusConflict, "conflict", "analysis not completed", gin.H{"status": view.Status})
		return
	}

	attachment, err := h.Exporter.Export(view.Result)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to export analysis", nil)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", attachment.Filename))
	c.Data(http.StatusOK, attachment.ContentType, attachment.Body)
}

func requestCtx(c *gin.Context) context.Context {
	return WithRequestID(c.Request.Context(), middleware.RequestIDFromContext(c))
}
