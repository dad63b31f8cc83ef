package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/services"
	"go.uber.org/zap"
)

// Matcher picks listing ids for a natural language request.
type Matcher interface {
	Match(ctx context.Context, prompt string, candidates []services.ListingSummary, maxResults int) ([]string, error)
}

type JobHandler struct {
	Listings      *services.ListingService
	Stats         *services.StatsService
	Matcher       Matcher
	MaxCandidates int
	AdminToken    string
	Log           *zap.Logger
}

// NewJobHandler creates the handler. matcher may be nil when no LLM is configured.
func NewJobHandler(listings *services.ListingService, stats *services.StatsService, matcher Matcher, maxCandidates int, adminToken string, log *zap.Logger) *JobHandler {
	if maxCandidates < 1 {
		maxCandidates = 100
	}
	return &JobHandler{
		Listings:      listings,
		Stats:         stats,
		Matcher:       matcher,
		MaxCandidates: maxCandidates,
		AdminToken:    adminToken,
		Log:           log,
	}
}

// ListJobs is the GET /jobs endpoint
func (h *JobHandler) ListJobs(c *gin.Context) {
	var q dtos.JobListQuery
	// Values are bound before validation runs, so a failed check is only
	// logged and the lenient parsing below still sees them.
	if err := c.ShouldBindQuery(&q); err != nil {
		h.Log.Debug("job list query partially bound", zap.String("query", c.Request.URL.RawQuery), zap.Error(err))
	}

	filter, page := ParseListingQuery(q)
	result, err := h.Listings.Query(c.Request.Context(), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.JobListResponse{
		Items:      result.Items,
		TotalCount: result.TotalCount,
		Page:       page,
		PageSize:   h.Listings.PageSize,
	})
}

// GetJob is the GET /jobs/:id endpoint
func (h *JobHandler) GetJob(c *gin.Context) {
	privileged := validAdminToken(c, h.AdminToken)
	job, err := h.Listings.GetListing(c.Request.Context(), c.Param("id"), privileged)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// AISearch is the POST /jobs/ai-search endpoint. Matcher failures yield an
// empty result, not an error.
func (h *JobHandler) AISearch(c *gin.Context) {
	var req dtos.AISearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format: " + err.Error()})
		return
	}
	if h.Matcher == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "AI search is not configured"})
		return
	}

	maxResults := req.MaxResults
	if maxResults < 1 || maxResults > h.Listings.PageSize {
		maxResults = h.Listings.PageSize
	}

	ctx := c.Request.Context()
	empty := dtos.JobListResponse{Items: []models.JobListing{}, Page: 1, PageSize: h.Listings.PageSize}

	candidates, err := h.Listings.Candidates(ctx, h.MaxCandidates)
	if err != nil {
		respondError(c, err)
		return
	}

	ids, err := h.Matcher.Match(ctx, req.Prompt, candidates, maxResults)
	if err != nil {
		h.Log.Warn("ai search failed, returning no results", zap.Error(err))
		c.JSON(http.StatusOK, empty)
		return
	}
	if len(ids) == 0 {
		c.JSON(http.StatusOK, empty)
		return
	}

	result, err := h.Listings.Query(ctx, services.ListingFilter{JobIDs: ids}, 1)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dtos.JobListResponse{
		Items:      orderByIDs(result.Items, ids),
		TotalCount: result.TotalCount,
		Page:       1,
		PageSize:   h.Listings.PageSize,
	})
}

// orderByIDs puts items in the matcher's ranking order.
func orderByIDs(items []models.JobListing, ids []string) []models.JobListing {
	byID := make(map[string]models.JobListing, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}
	out := make([]models.JobListing, 0, len(items))
	for _, id := range ids {
		if it, ok := byID[id]; ok {
			out = append(out, it)
		}
	}
	return out
}

// JobStats is the GET /jobs/stats endpoint
func (h *JobHandler) JobStats(c *gin.Context) {
	stats, err := h.Stats.PublicStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dtos.JobStatsResponse{TotalJobs: stats.TotalJobs}
	if stats.LastUpdated != nil {
		ts := stats.LastUpdated.UTC().Format(time.RFC3339)
		resp.LastUpdated = &ts
	}
	c.JSON(http.StatusOK, resp)
}
