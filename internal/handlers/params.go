package handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/services"
)

// ParseListingQuery converts raw query parameters into a filter and page.
// Values that fail to parse are dropped; page falls back to 1.
func ParseListingQuery(q dtos.JobListQuery) (services.ListingFilter, int) {
	f := services.ListingFilter{
		Query:           strings.TrimSpace(q.Title),
		City:            strings.TrimSpace(q.City),
		Region:          strings.TrimSpace(q.State),
		ExperienceLevel: strings.TrimSpace(q.Experience),
		JobIDs:          ParseJobIDs(q.JobIDs),
		JobListingID:    strings.TrimSpace(q.JobListingID),
	}
	if loc := strings.TrimSpace(q.LocationID); loc != "" && loc != "any" {
		f.LocationID = loc
	}
	if wa, ok := models.ParseWorkArrangement(strings.TrimSpace(q.LocationRequirement)); ok {
		f.WorkArrangement = wa
	}
	if et, ok := models.ParseEmploymentType(strings.TrimSpace(q.Type)); ok {
		f.EmploymentType = et
	}
	return f, ParsePage(q.Page)
}

// ParsePage reads a 1-based page number. Values too large for an int
// saturate so they still address a page past the end.
func ParsePage(raw string) int {
	page, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) && page > 0 {
		return page
	}
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ParseJobIDs accepts repeated values and comma separated lists. Quotes
// are stripped and duplicates dropped, first occurrence wins.
func ParseJobIDs(values []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			id := strings.TrimSpace(strings.Trim(strings.TrimSpace(part), `"'`))
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func parseLimit(raw string, fallback, ceiling int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	if n > ceiling {
		return ceiling
	}
	return n
}
