package dtos

import "github.com/justsurfingit/jobboard/internal/models"

// JobListQuery is bound from the query string of GET /jobs. Every field is a
// raw string; values that do not parse are dropped instead of rejected.
type JobListQuery struct {
	Title               string   `form:"title" binding:"max=255"`
	City                string   `form:"city" binding:"max=255"`
	LocationID          string   `form:"locationId"`
	State               string   `form:"state"`
	Experience          string   `form:"experience"`
	LocationRequirement string   `form:"locationRequirement"`
	Type                string   `form:"type"`
	Page                string   `form:"page"`
	JobIDs              []string `form:"jobIds"`
	JobListingID        string   `form:"jobListingId"`
}

type JobListResponse struct {
	Items      []models.JobListing `json:"items"`
	TotalCount int64               `json:"totalCount"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"pageSize"`
}

type AISearchRequest struct {
	Prompt     string `json:"prompt" binding:"required"`
	MaxResults int    `json:"maxResults"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

type JobStatsResponse struct {
	TotalJobs   int64   `json:"totalJobs"`
	LastUpdated *string `json:"lastUpdated"`
}
