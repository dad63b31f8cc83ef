package services_test

import (
	"context"
	"testing"

	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/services"
	"github.com/justsurfingit/jobboard/internal/testutil"
)

func TestPublicStats(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewStatsService(db)
	ctx := context.Background()

	empty, err := svc.PublicStats(ctx)
	if err != nil {
		t.Fatalf("PublicStats: %v", err)
	}
	if empty.TotalJobs != 0 || empty.LastUpdated != nil {
		t.Errorf("empty stats = %+v", empty)
	}

	org := testutil.Org(t, db, "org_acme", "Acme")
	testutil.Listing(t, db, org, "a", nil)
	b := testutil.Listing(t, db, org, "b", nil)
	testutil.Listing(t, db, org, "draft", func(j *models.JobListing) { j.Status = models.StatusDraft })

	stats, err := svc.PublicStats(ctx)
	if err != nil {
		t.Fatalf("PublicStats: %v", err)
	}
	if stats.TotalJobs != 2 {
		t.Errorf("TotalJobs = %d, want 2", stats.TotalJobs)
	}
	if stats.LastUpdated == nil || stats.LastUpdated.Before(b.UpdatedAt.Add(-1)) {
		t.Errorf("LastUpdated = %v, want the latest published write %v", stats.LastUpdated, b.UpdatedAt)
	}
}

func TestCountsByStatus(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewStatsService(db)
	org := testutil.Org(t, db, "org_acme", "Acme")
	testutil.Listing(t, db, org, "a", nil)
	testutil.Listing(t, db, org, "b", nil)
	testutil.Listing(t, db, org, "c", func(j *models.JobListing) { j.Status = models.StatusDelisted })

	counts, err := svc.CountsByStatus(context.Background())
	if err != nil {
		t.Fatalf("CountsByStatus: %v", err)
	}
	want := map[models.ListingStatus]int64{
		models.StatusDraft:     0,
		models.StatusPublished: 2,
		models.StatusDelisted:  1,
	}
	for status, n := range want {
		if counts[status] != n {
			t.Errorf("%s = %d, want %d", status, counts[status], n)
		}
	}
}
