package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/justsurfingit/jobboard/internal/models"
	"gorm.io/gorm"
)

type StatsService struct {
	DB *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{DB: db}
}

type JobStats struct {
	TotalJobs   int64      `json:"totalJobs"`
	LastUpdated *time.Time `json:"lastUpdated"`
}

// PublicStats counts published listings and reports the latest change among them.
func (s *StatsService) PublicStats(ctx context.Context) (*JobStats, error) {
	db := s.DB.WithContext(ctx)
	stats := &JobStats{}

	published := db.Model(&models.JobListing{}).Where("status = ?", string(models.StatusPublished))
	if err := published.Count(&stats.TotalJobs).Error; err != nil {
		return nil, fmt.Errorf("counting published listings: %w", err)
	}

	var latest models.JobListing
	err := db.Select("id", "updated_at").
		Where("status = ?", string(models.StatusPublished)).
		Order("updated_at DESC").
		Take(&latest).Error
	switch {
	case err == nil:
		stats.LastUpdated = &latest.UpdatedAt
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("loading last update: %w", err)
	}
	return stats, nil
}

// CountsByStatus returns one entry per lifecycle status, zero included.
func (s *StatsService) CountsByStatus(ctx context.Context) (map[models.ListingStatus]int64, error) {
	var rows []struct {
		Status models.ListingStatus
		Total  int64
	}
	err := s.DB.WithContext(ctx).Model(&models.JobListing{}).
		Select("status, COUNT(*) AS total").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting listings by status: %w", err)
	}

	counts := map[models.ListingStatus]int64{
		models.StatusDraft:     0,
		models.StatusPublished: 0,
		models.StatusDelisted:  0,
	}
	for _, r := range rows {
		counts[r.Status] = r.Total
	}
	return counts, nil
}
