package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobboard/internal/apperrors"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/services"
)

// AdminHandler serves moderation and maintenance routes. Mount it behind RequireAdmin.
type AdminHandler struct {
	Jobs          *services.JobService
	Organizations *services.OrganizationService
	Locations     *services.LocationService
	Stats         *services.StatsService
}

func NewAdminHandler(jobs *services.JobService, orgs *services.OrganizationService, locations *services.LocationService, stats *services.StatsService) *AdminHandler {
	return &AdminHandler{Jobs: jobs, Organizations: orgs, Locations: locations, Stats: stats}
}

// SetJobStatus is the PATCH /admin/jobs/:id/status endpoint
func (h *AdminHandler) SetJobStatus(c *gin.Context) {
	var req dtos.StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	status, err := models.ParseListingStatus(req.Status)
	if err != nil {
		respondError(c, apperrors.InvalidInput(err.Error(), err))
		return
	}
	job, err := h.Jobs.SetStatus(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *AdminHandler) DeleteOrganization(c *gin.Context) {
	removed, err := h.Organizations.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deletedListings": removed})
}

func (h *AdminHandler) DeleteLocation(c *gin.Context) {
	orphaned, err := h.Locations.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "unlinkedListings": orphaned})
}

// RecountLocation is the POST /admin/locations/:id/recount endpoint
func (h *AdminHandler) RecountLocation(c *gin.Context) {
	n, err := h.Locations.UpdateJobCount(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "jobCount": n})
}

// RunLocationMaintenance is the POST /admin/maintenance/locations endpoint
func (h *AdminHandler) RunLocationMaintenance(c *gin.Context) {
	res, err := h.Locations.AssignMissingLocations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *AdminHandler) ListingStats(c *gin.Context) {
	counts, err := h.Stats.CountsByStatus(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"byStatus": counts})
}
