package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Handlers struct {
	Jobs       *JobHandler
	Webhook    *WebhookHandler
	Locations  *LocationHandler
	Admin      *AdminHandler
	DB         *gorm.DB
	AdminToken string
}

// RegisterRoutes mounts every endpoint under api (normally /api/v1).
func RegisterRoutes(api *gin.RouterGroup, h Handlers) {
	api.GET("/health", HealthCheck(h.DB))

	// Job Routes
	api.GET("/jobs", h.Jobs.ListJobs)
	api.GET("/jobs/stats", h.Jobs.JobStats)
	api.GET("/jobs/:id", h.Jobs.GetJob)
	api.POST("/jobs/ai-search", h.Jobs.AISearch)

	// Location Routes
	api.GET("/locations/popular", h.Locations.Popular)
	api.GET("/locations/search", h.Locations.Search)
	api.GET("/locations/stats", h.Locations.Stats)
	api.GET("/locations/:id", h.Locations.Get)

	// Provider callbacks
	api.GET("/webhook/apify", h.Webhook.Info)
	api.POST("/webhook/apify", h.Webhook.Receive)

	admin := api.Group("/admin", RequireAdmin(h.AdminToken))
	{
		admin.GET("/stats", h.Admin.ListingStats)
		admin.PATCH("/jobs/:id/status", h.Admin.SetJobStatus)
		admin.DELETE("/organizations/:id", h.Admin.DeleteOrganization)
		admin.DELETE("/locations/:id", h.Admin.DeleteLocation)
		admin.POST("/locations/:id/recount", h.Admin.RecountLocation)
		admin.POST("/maintenance/locations", h.Admin.RunLocationMaintenance)
	}
}
