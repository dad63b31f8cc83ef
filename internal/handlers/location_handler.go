package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobboard/internal/services"
)

const maxLocationSearch = 100

type LocationHandler struct {
	Locations    *services.LocationService
	PopularLimit int
}

func NewLocationHandler(locations *services.LocationService, popularLimit int) *LocationHandler {
	if popularLimit < 1 {
		popularLimit = 100
	}
	return &LocationHandler{Locations: locations, PopularLimit: popularLimit}
}

// Popular is the GET /locations/popular endpoint
func (h *LocationHandler) Popular(c *gin.Context) {
	locs, err := h.Locations.TopByJobCount(c.Request.Context(), h.PopularLimit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, locs)
}

// Search is the GET /locations/search endpoint
func (h *LocationHandler) Search(c *gin.Context) {
	limit := parseLimit(c.Query("limit"), 20, maxLocationSearch)
	locs, err := h.Locations.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, locs)
}

func (h *LocationHandler) Get(c *gin.Context) {
	loc, err := h.Locations.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

func (h *LocationHandler) Stats(c *gin.Context) {
	stats, err := h.Locations.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
