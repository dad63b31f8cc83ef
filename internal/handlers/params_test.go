package handlers_test

import (
	"math"
	"reflect"
	"testing"

	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/handlers"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/services"
)

func TestParseListingQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    dtos.JobListQuery
		want     services.ListingFilter
		wantPage int
	}{
		{
			name:     "empty",
			query:    dtos.JobListQuery{},
			want:     services.ListingFilter{},
			wantPage: 1,
		},
		{
			name: "every filter",
			query: dtos.JobListQuery{
				Title:               " go ",
				City:                "Paris",
				LocationID:          "loc_france_paris",
				State:               "IDF",
				Experience:          "Senior",
				LocationRequirement: "Remote",
				Type:                "CONTRACT",
				Page:                "3",
				JobIDs:              []string{"a,b", "a"},
				JobListingID:        "job_apify_1",
			},
			want: services.ListingFilter{
				Query:           "go",
				City:            "Paris",
				LocationID:      "loc_france_paris",
				Region:          "IDF",
				ExperienceLevel: "Senior",
				WorkArrangement: models.WorkRemote,
				EmploymentType:  models.EmploymentContract,
				JobIDs:          []string{"a", "b"},
				JobListingID:    "job_apify_1",
			},
			wantPage: 3,
		},
		{
			name: "unparseable values are dropped",
			query: dtos.JobListQuery{
				LocationID:          "any",
				LocationRequirement: "remote",
				Type:                "full time",
				Page:                "two",
			},
			want:     services.ListingFilter{},
			wantPage: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, page := handlers.ParseListingQuery(tt.query)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("filter = %+v, want %+v", got, tt.want)
			}
			if page != tt.wantPage {
				t.Errorf("page = %d, want %d", page, tt.wantPage)
			}
		})
	}
}

func TestParsePage(t *testing.T) {
	tests := map[string]int{
		"": 1, "1": 1, " 4 ": 4, "0": 1, "-2": 1, "x": 1,
		"99999999999999999999":  math.MaxInt,
		"-99999999999999999999": 1,
	}
	for in, want := range tests {
		if got := handlers.ParsePage(in); got != want {
			t.Errorf("ParsePage(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestParseJobIDs(t *testing.T) {
	got := handlers.ParseJobIDs([]string{`"job_1", 'job_2'`, "job_1,,", " job_3 "})
	want := []string{"job_1", "job_2", "job_3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseJobIDs = %v, want %v", got, want)
	}
	if got := handlers.ParseJobIDs(nil); got != nil {
		t.Errorf("ParseJobIDs(nil) = %v, want nil", got)
	}
}
