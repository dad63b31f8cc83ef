package services_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/justsurfingit/jobboard/internal/apperrors"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/services"
	"github.com/justsurfingit/jobboard/internal/testutil"
)

func TestSlug(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Paris", "paris"},
		{" Saint-Étienne ", "saint_tienne"},
		{"New  York--City", "new_york_city"},
		{"__x__", "x"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := services.Slug(tt.in); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLocationID_Deterministic(t *testing.T) {
	a := services.LocationID("France", "Paris")
	b := services.LocationID("france", " Paris ")
	if a != b {
		t.Fatalf("LocationID differs: %q vs %q", a, b)
	}
	if a != "loc_france_paris" {
		t.Errorf("LocationID = %q, want loc_france_paris", a)
	}
	if services.LocationID("France", "Paris") != a {
		t.Error("LocationID is not stable across calls")
	}
}

func newLocationService(t *testing.T) *services.LocationService {
	t.Helper()
	return services.NewLocationService(testutil.NewDB(t), nil, zap.NewNop())
}

func TestFindOrCreate_Idempotent(t *testing.T) {
	svc := newLocationService(t)
	ctx := context.Background()

	first, err := svc.FindOrCreate(ctx, "Paris", "France")
	if err != nil {
		t.Fatalf("FindOrCreate: %v", err)
	}
	second, err := svc.FindOrCreate(ctx, " Paris ", "France")
	if err != nil {
		t.Fatalf("FindOrCreate again: %v", err)
	}
	if first.ID != second.ID || !first.CreatedAt.Equal(second.CreatedAt) {
		t.Errorf("got two different rows: %+v / %+v", first, second)
	}

	var n int64
	svc.DB.Model(&models.Location{}).Count(&n)
	if n != 1 {
		t.Errorf("locations = %d, want 1", n)
	}
	if first.City != "Paris" || first.Country != "France" || first.JobCount != 0 {
		t.Errorf("unexpected row %+v", first)
	}
}

func TestFindOrCreate_RequiresCityAndCountry(t *testing.T) {
	svc := newLocationService(t)
	for _, in := range [][2]string{{"", "France"}, {"Paris", "  "}} {
		_, err := svc.FindOrCreate(context.Background(), in[0], in[1])
		if !apperrors.Is(err, apperrors.ErrTypeInvalidInput) {
			t.Errorf("FindOrCreate(%q, %q) err = %v, want invalid input", in[0], in[1], err)
		}
	}
}

func TestGetByID_NotFound(t *testing.T) {
	svc := newLocationService(t)
	_, err := svc.GetByID(context.Background(), "loc_nowhere_x")
	if !apperrors.Is(err, apperrors.ErrTypeNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
}

func seedLocation(t *testing.T, svc *services.LocationService, id, city, country string, jobs int) models.Location {
	t.Helper()
	loc := models.Location{ID: id, City: city, Country: country, JobCount: jobs}
	if err := svc.DB.Create(&loc).Error; err != nil {
		t.Fatalf("seed location: %v", err)
	}
	return loc
}

func TestTopByJobCountAndSearch(t *testing.T) {
	svc := newLocationService(t)
	ctx := context.Background()
	seedLocation(t, svc, "loc_france_lyon", "Lyon", "France", 4)
	seedLocation(t, svc, "loc_france_paris", "Paris", "France", 9)
	seedLocation(t, svc, "loc_belgium_liege", "Liège", "Belgium", 1)

	top, err := svc.TopByJobCount(ctx, 2)
	if err != nil {
		t.Fatalf("TopByJobCount: %v", err)
	}
	if len(top) != 2 || top[0].City != "Paris" || top[1].City != "Lyon" {
		t.Errorf("TopByJobCount = %+v", top)
	}

	tests := []struct {
		q    string
		want []string
	}{
		{"LY", []string{"Lyon"}},
		{"france", []string{"Paris", "Lyon"}},
		{"%", nil},
		{"", nil},
	}
	for _, tt := range tests {
		got, err := svc.Search(ctx, tt.q, 0)
		if err != nil {
			t.Fatalf("Search(%q): %v", tt.q, err)
		}
		var cities []string
		for _, l := range got {
			cities = append(cities, l.City)
		}
		if len(cities) != len(tt.want) {
			t.Errorf("Search(%q) = %v, want %v", tt.q, cities, tt.want)
			continue
		}
		for i := range cities {
			if cities[i] != tt.want[i] {
				t.Errorf("Search(%q) = %v, want %v", tt.q, cities, tt.want)
				break
			}
		}
	}
}

func TestUpdateJobCount_ReplacesStaleValue(t *testing.T) {
	svc := newLocationService(t)
	ctx := context.Background()
	loc := seedLocation(t, svc, "loc_france_paris", "Paris", "France", 3)
	org := testutil.Org(t, svc.DB, "org_acme", "Acme")

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		status := models.StatusPublished
		if id == "e" {
			status = models.StatusDraft
		}
		testutil.Listing(t, svc.DB, org, id, func(j *models.JobListing) {
			j.LocationID = &loc.ID
			j.Status = status
		})
	}

	n, err := svc.UpdateJobCount(ctx, loc.ID)
	if err != nil {
		t.Fatalf("UpdateJobCount: %v", err)
	}
	if n != 5 {
		t.Errorf("count = %d, want 5 (every status counted)", n)
	}
	got, _ := svc.GetByID(ctx, loc.ID)
	if got.JobCount != 5 {
		t.Errorf("stored jobCount = %d, want 5", got.JobCount)
	}

	if _, err := svc.UpdateJobCount(ctx, "loc_missing"); !apperrors.Is(err, apperrors.ErrTypeNotFound) {
		t.Errorf("missing location err = %v, want not found", err)
	}
}

func TestUpdateAllJobCounts(t *testing.T) {
	svc := newLocationService(t)
	ctx := context.Background()
	paris := seedLocation(t, svc, "loc_france_paris", "Paris", "France", 42)
	seedLocation(t, svc, "loc_france_lyon", "Lyon", "France", 7)
	org := testutil.Org(t, svc.DB, "org_acme", "Acme")
	testutil.Listing(t, svc.DB, org, "a", func(j *models.JobListing) { j.LocationID = &paris.ID })

	rows, err := svc.UpdateAllJobCounts(ctx)
	if err != nil {
		t.Fatalf("UpdateAllJobCounts: %v", err)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}
	p, _ := svc.GetByID(ctx, "loc_france_paris")
	l, _ := svc.GetByID(ctx, "loc_france_lyon")
	if p.JobCount != 1 || l.JobCount != 0 {
		t.Errorf("job counts = %d/%d, want 1/0", p.JobCount, l.JobCount)
	}
}

func TestAssignMissingLocations(t *testing.T) {
	svc := newLocationService(t)
	ctx := context.Background()
	org := testutil.Org(t, svc.DB, "org_acme", "Acme")

	for _, id := range []string{"a", "b"} {
		testutil.Listing(t, svc.DB, org, id, func(j *models.JobListing) {
			j.City, j.Country = testutil.Ptr("Lyon"), testutil.Ptr("France")
		})
	}
	testutil.Listing(t, svc.DB, org, "c", func(j *models.JobListing) {
		j.City, j.Country = testutil.Ptr("Brussels"), testutil.Ptr("Belgium")
	})
	testutil.Listing(t, svc.DB, org, "no-city", func(j *models.JobListing) {
		j.Country = testutil.Ptr("France")
	})

	res, err := svc.AssignMissingLocations(ctx)
	if err != nil {
		t.Fatalf("AssignMissingLocations: %v", err)
	}
	if res.Pairs != 2 || res.ListingsLinked != 3 || res.Failed != 0 {
		t.Errorf("result = %+v", res)
	}

	lyon, err := svc.GetByID(ctx, "loc_france_lyon")
	if err != nil {
		t.Fatalf("lyon not created: %v", err)
	}
	if lyon.JobCount != 2 {
		t.Errorf("lyon jobCount = %d, want 2", lyon.JobCount)
	}

	var unlinked models.JobListing
	svc.DB.Where("id = ?", "no-city").Take(&unlinked)
	if unlinked.LocationID != nil {
		t.Errorf("listing without city got location %q", *unlinked.LocationID)
	}

	again, err := svc.AssignMissingLocations(ctx)
	if err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if again.Pairs != 0 || again.ListingsLinked != 0 {
		t.Errorf("second pass = %+v, want nothing to do", again)
	}
}

func TestLocationStats(t *testing.T) {
	svc := newLocationService(t)
	ctx := context.Background()

	empty, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if empty.TotalLocations != 0 || empty.TotalJobs != 0 || empty.TopLocation != nil {
		t.Errorf("empty stats = %+v", empty)
	}

	seedLocation(t, svc, "loc_france_lyon", "Lyon", "France", 4)
	seedLocation(t, svc, "loc_france_paris", "Paris", "France", 9)
	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalLocations != 2 || stats.TotalJobs != 13 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TopLocation == nil || stats.TopLocation.City != "Paris" {
		t.Errorf("top = %+v, want Paris", stats.TopLocation)
	}
}

func TestLocationDelete_OrphansListings(t *testing.T) {
	svc := newLocationService(t)
	ctx := context.Background()
	loc := seedLocation(t, svc, "loc_france_paris", "Paris", "France", 1)
	org := testutil.Org(t, svc.DB, "org_acme", "Acme")
	testutil.Listing(t, svc.DB, org, "a", func(j *models.JobListing) {
		j.LocationID = &loc.ID
		j.City = testutil.Ptr("Paris")
	})

	orphaned, err := svc.Delete(ctx, loc.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if orphaned != 1 {
		t.Errorf("orphaned = %d, want 1", orphaned)
	}

	var job models.JobListing
	if err := svc.DB.Where("id = ?", "a").Take(&job).Error; err != nil {
		t.Fatalf("listing removed with its location: %v", err)
	}
	if job.LocationID != nil || job.City == nil || *job.City != "Paris" {
		t.Errorf("listing after delete = location %v city %v", job.LocationID, job.City)
	}

	if _, err := svc.Delete(ctx, loc.ID); !apperrors.Is(err, apperrors.ErrTypeNotFound) {
		t.Errorf("second delete err = %v, want not found", err)
	}
}
