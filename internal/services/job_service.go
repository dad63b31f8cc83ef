package services

import (
	"context"
	"fmt"

	"github.com/justsurfingit/jobboard/internal/apperrors"
	"github.com/justsurfingit/jobboard/internal/cache"
	"github.com/justsurfingit/jobboard/internal/config"
	"github.com/justsurfingit/jobboard/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UpsertOutcome string

const (
	OutcomeInserted  UpsertOutcome = "inserted"
	OutcomeUpdated   UpsertOutcome = "updated"
	OutcomeDuplicate UpsertOutcome = "duplicate"
)

// Columns a re-scrape may overwrite in update mode. Status and the featured
// flag belong to moderators and are never touched.
var scrapedColumns = []string{
	"organization_id", "organization_name", "organization_logo", "organization_url",
	"title", "url", "description_html",
	"city", "region", "country", "location", "location_id",
	"ai_salary_min_value", "ai_salary_max_value", "ai_salary_currency",
	"ai_experience_level", "ai_work_arrangement", "ai_key_skills", "ai_employment_type",
	"date_posted", "updated_at",
}

type JobService struct {
	DB           *gorm.DB
	Cache        cache.Cache
	Log          *zap.Logger
	ConflictMode string
}

func NewJobService(db *gorm.DB, c cache.Cache, log *zap.Logger, conflictMode string) *JobService {
	if conflictMode == "" {
		conflictMode = config.ConflictIgnore
	}
	return &JobService{
		DB:           db,
		Cache:        c,
		Log:          log,
		ConflictMode: conflictMode,
	}
}

// UpsertListing writes one listing keyed by its id. In ignore mode an
// existing row wins and the call reports a duplicate.
func (s *JobService) UpsertListing(ctx context.Context, job *models.JobListing) (UpsertOutcome, error) {
	db := s.DB.WithContext(ctx)

	if s.ConflictMode == config.ConflictUpdate {
		var existing int64
		if err := db.Model(&models.JobListing{}).Where("id = ?", job.ID).Count(&existing).Error; err != nil {
			return "", fmt.Errorf("checking listing %s: %w", job.ID, err)
		}
		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(scrapedColumns),
		}).Create(job).Error
		if err != nil {
			return "", fmt.Errorf("upserting listing %s: %w", job.ID, err)
		}
		if existing > 0 {
			return OutcomeUpdated, nil
		}
		return OutcomeInserted, nil
	}

	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(job)
	if res.Error != nil {
		return "", fmt.Errorf("inserting listing %s: %w", job.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return OutcomeDuplicate, nil
	}
	return OutcomeInserted, nil
}

// SetStatus moves a listing through draft/published/delisted.
func (s *JobService) SetStatus(ctx context.Context, id string, status models.ListingStatus) (*models.JobListing, error) {
	if _, err := models.ParseListingStatus(string(status)); err != nil {
		return nil, apperrors.InvalidInput(err.Error(), err)
	}
	db := s.DB.WithContext(ctx)

	res := db.Model(&models.JobListing{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return nil, fmt.Errorf("updating status of %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperrors.NotFound("job listing not found", nil)
	}

	var job models.JobListing
	if err := db.Where("id = ?", id).Take(&job).Error; err != nil {
		return nil, fmt.Errorf("reloading listing %s: %w", id, err)
	}
	invalidate(ctx, s.Cache, s.Log, TagListings, OrganizationTag(job.OrganizationID))
	return &job, nil
}
