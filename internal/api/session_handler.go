package api

import (
	"net/http"

	"solar_planner/internal/service"
	"solar_planner/internal/wizard"

	"github.com/gin-gonic/gin"
)

// SessionHandler serves the open project wizard
type SessionHandler struct {
	svc *service.Service
}

func NewSessionHandler(svc *service.Service) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type fieldsRequest struct {
	Updates []service.FieldUpdate `json:"updates" binding:"required,min=1,dive"`
}

// GetSession handles GET /api/session
func (h *SessionHandler) GetSession(c *gin.Context) {
	view, err := h.svc.Session()
	respondView(c, view, err)
}

// CloseSession handles DELETE /api/session
func (h *SessionHandler) CloseSession(c *gin.Context) {
	h.svc.CloseSession(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

// ApplyFields handles PATCH /api/session/fields
func (h *SessionHandler) ApplyFields(c *gin.Context) {
	var req fieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.svc.ApplyFields(req.Updates)
	respondView(c, view, err)
}

// AddAppliance handles POST /api/session/appliances
func (h *SessionHandler) AddAppliance(c *gin.Context) {
	view, err := h.svc.AddAppliance()
	if err == nil {
		c.JSON(http.StatusCreated, view)
		return
	}
	respondView(c, view, err)
}

// UpdateAppliance handles PATCH /api/session/appliances/:applianceId
func (h *SessionHandler) UpdateAppliance(c *gin.Context) {
	var req fieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.svc.UpdateAppliance(c.Param("applianceId"), req.Updates)
	respondView(c, view, err)
}

// RemoveAppliance handles DELETE /api/session/appliances/:applianceId
func (h *SessionHandler) RemoveAppliance(c *gin.Context) {
	view, err := h.svc.RemoveAppliance(c.Param("applianceId"))
	respondView(c, view, err)
}

// Next handles POST /api/session/next
func (h *SessionHandler) Next(c *gin.Context) {
	view, err := h.svc.Next()
	respondView(c, view, err)
}

// Back handles POST /api/session/back
func (h *SessionHandler) Back(c *gin.Context) {
	view, err := h.svc.Back()
	respondView(c, view, err)
}

// JumpTo handles POST /api/session/step/:step
func (h *SessionHandler) JumpTo(c *gin.Context) {
	step, err := wizard.ParseStep(c.Param("step"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.svc.JumpTo(step)
	respondView(c, view, err)
}

// respondView writes the session view. A failed edit on an open session
// still carries the unchanged view alongside the error.
func respondView(c *gin.Context, view service.SessionView, err error) {
	if err == nil {
		c.JSON(http.StatusOK, view)
		return
	}
	if view.Project.ID == "" {
		respondError(c, err)
		return
	}
	c.JSON(errorStatus(err), gin.H{
		"error":   err.Error(),
		"session": view,
	})
}
