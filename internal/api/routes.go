package api

import (
	"solar_planner/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, svc *service.Service) {
	h := NewHandler(svc)
	sh := NewSessionHandler(svc)

	api := r.Group("/api")
	{
		// Pure sizing
		api.GET("/catalog", h.GetCatalog)
		api.POST("/derive", h.Derive)
		api.POST("/validate", h.Validate)
		api.GET("/stats", h.GetStats)

		// Project list
		projects := api.Group("/projects")
		{
			projects.GET("", h.ListProjects)
			projects.POST("", h.CreateProject)
			projects.GET("/:id", h.GetProject)
			projects.PUT("/:id/name", h.RenameProject)
			projects.POST("/:id/open", h.OpenProject)
			projects.POST("/:id/delete", h.RequestDelete)
		}

		// Two-phase delete
		api.POST("/delete/confirm", h.ConfirmDelete)
		api.POST("/delete/cancel", h.CancelDelete)

		// Open project wizard
		session := api.Group("/session")
		{
			session.GET("", sh.GetSession)
			session.DELETE("", sh.CloseSession)
			session.PATCH("/fields", sh.ApplyFields)
			session.POST("/appliances", sh.AddAppliance)
			session.PATCH("/appliances/:applianceId", sh.UpdateAppliance)
			session.DELETE("/appliances/:applianceId", sh.RemoveAppliance)
			session.POST("/next", sh.Next)
			session.POST("/back", sh.Back)
			session.POST("/step/:step", sh.JumpTo)
		}
	}
}
