package api

import (
	"errors"
	"net/http"
	"strconv"

	"solar_planner/internal/domain"
	"solar_planner/internal/service"
	"solar_planner/internal/sizing"
	"solar_planner/internal/wizard"
	"solar_planner/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler handles HTTP requests for the project list and pure sizing
type Handler struct {
	svc *service.Service
}

// NewHandler creates a new handler
func NewHandler(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

type createProjectRequest struct {
	Name string `json:"name" binding:"max=200"`
}

type renameRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// GetCatalog handles GET /api/catalog
func (h *Handler) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Catalog())
}

// Derive handles POST /api/derive
func (h *Handler) Derive(c *gin.Context) {
	var record domain.ProjectRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	synced, metrics := h.svc.Derive(record)
	c.JSON(http.StatusOK, gin.H{
		"project": synced,
		"metrics": metrics,
	})
}

// Validate handles POST /api/validate?step=&new=
func (h *Handler) Validate(c *gin.Context) {
	step, err := wizard.ParseStep(c.Query("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	isNew, _ := strconv.ParseBool(c.DefaultQuery("new", "false"))

	var record domain.ProjectRecord
	if err := c.ShouldBindJSON(&record); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	synced, metrics := h.svc.Derive(record)
	c.JSON(http.StatusOK, wizard.ValidateStep(synced, metrics, step, isNew))
}

// GetStats handles GET /api/stats
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

// ListProjects handles GET /api/projects
func (h *Handler) ListProjects(c *gin.Context) {
	projects := h.svc.ListProjects()
	c.JSON(http.StatusOK, gin.H{
		"count":         len(projects),
		"projects":      projects,
		"pendingDelete": h.svc.Gateway().PendingDelete(),
	})
}

// CreateProject handles POST /api/projects
func (h *Handler) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	view, err := h.svc.CreateProject(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetProject handles GET /api/projects/:id
func (h *Handler) GetProject(c *gin.Context) {
	p, err := h.svc.GetProject(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"project": p,
		"metrics": sizing.Derive(p),
	})
}

// RenameProject handles PUT /api/projects/:id/name
func (h *Handler) RenameProject(c *gin.Context) {
	var req renameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.svc.RenameProject(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// OpenProject handles POST /api/projects/:id/open
func (h *Handler) OpenProject(c *gin.Context) {
	view, err := h.svc.OpenProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RequestDelete handles POST /api/projects/:id/delete
func (h *Handler) RequestDelete(c *gin.Context) {
	id := c.Param("id")
	if err := h.svc.RequestDelete(id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status":        "pending",
		"pendingDelete": id,
	})
}

// ConfirmDelete handles POST /api/delete/confirm
func (h *Handler) ConfirmDelete(c *gin.Context) {
	id, err := h.svc.ConfirmDelete(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "deleted",
		"deleted": id,
	})
}

// CancelDelete handles POST /api/delete/cancel
func (h *Handler) CancelDelete(c *gin.Context) {
	h.svc.CancelDelete()
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

// respondError maps service errors to HTTP status codes
func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("Request %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrProjectNotFound),
		errors.Is(err, service.ErrNoSession),
		errors.Is(err, sizing.ErrApplianceNotFound):
		return http.StatusNotFound
	case errors.Is(err, wizard.ErrStepBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, wizard.ErrAtLastStep),
		errors.Is(err, wizard.ErrUnknownStep),
		errors.Is(err, sizing.ErrUnknownField),
		errors.Is(err, sizing.ErrInvalidValue),
		errors.Is(err, service.ErrEmptyName),
		errors.Is(err, service.ErrNoPendingDelete):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
