package services_test

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/justsurfingit/jobboard/internal/apperrors"
	"github.com/justsurfingit/jobboard/internal/config"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/services"
	"github.com/justsurfingit/jobboard/internal/testutil"
)

func scraped(id, title string) *models.JobListing {
	return &models.JobListing{
		ID:               id,
		OrganizationID:   "org_acme",
		OrganizationName: "Acme",
		Title:            title,
		URL:              "https://example.com/" + id,
		Status:           models.StatusPublished,
		KeySkills:        []string{},
		EmploymentTypes:  []models.EmploymentType{models.EmploymentFullTime},
	}
}

func TestUpsertListing_IgnoreMode(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewJobService(db, nil, zap.NewNop(), "")
	ctx := context.Background()

	out, err := svc.UpsertListing(ctx, scraped("job_apify_1", "First title"))
	if err != nil || out != services.OutcomeInserted {
		t.Fatalf("first upsert = %s, %v", out, err)
	}
	out, err = svc.UpsertListing(ctx, scraped("job_apify_1", "Corrected title"))
	if err != nil || out != services.OutcomeDuplicate {
		t.Fatalf("second upsert = %s, %v", out, err)
	}

	var job models.JobListing
	db.Where("id = ?", "job_apify_1").Take(&job)
	if job.Title != "First title" {
		t.Errorf("title = %q, first write must win", job.Title)
	}
}

func TestUpsertListing_UpdateMode(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewJobService(db, nil, zap.NewNop(), config.ConflictUpdate)
	ctx := context.Background()

	if out, err := svc.UpsertListing(ctx, scraped("job_apify_1", "First title")); err != nil || out != services.OutcomeInserted {
		t.Fatalf("first upsert = %s, %v", out, err)
	}
	// Moderation state set after the first scrape.
	db.Model(&models.JobListing{}).Where("id = ?", "job_apify_1").
		Updates(map[string]interface{}{"status": models.StatusDelisted, "is_featured": true})

	out, err := svc.UpsertListing(ctx, scraped("job_apify_1", "Corrected title"))
	if err != nil || out != services.OutcomeUpdated {
		t.Fatalf("second upsert = %s, %v", out, err)
	}

	var job models.JobListing
	db.Where("id = ?", "job_apify_1").Take(&job)
	if job.Title != "Corrected title" {
		t.Errorf("title = %q, want the corrected one", job.Title)
	}
	if job.Status != models.StatusDelisted || !job.IsFeatured {
		t.Errorf("moderation state overwritten: status %s featured %v", job.Status, job.IsFeatured)
	}

	var n int64
	db.Model(&models.JobListing{}).Count(&n)
	if n != 1 {
		t.Errorf("rows = %d, want 1", n)
	}
}

func TestSetStatus(t *testing.T) {
	db := testutil.NewDB(t)
	svc := services.NewJobService(db, nil, zap.NewNop(), "")
	ctx := context.Background()
	org := testutil.Org(t, db, "org_acme", "Acme")
	testutil.Listing(t, db, org, "a", nil)

	job, err := svc.SetStatus(ctx, "a", models.StatusDraft)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if job.Status != models.StatusDraft {
		t.Errorf("status = %s", job.Status)
	}

	tests := []struct {
		id     string
		status models.ListingStatus
		want   apperrors.ErrorType
	}{
		{"a", models.ListingStatus("ARCHIVED"), apperrors.ErrTypeInvalidInput},
		{"missing", models.StatusPublished, apperrors.ErrTypeNotFound},
	}
	for _, tt := range tests {
		if _, err := svc.SetStatus(ctx, tt.id, tt.status); !apperrors.Is(err, tt.want) {
			t.Errorf("SetStatus(%s, %s) err = %v, want %s", tt.id, tt.status, err, tt.want)
		}
	}
}
