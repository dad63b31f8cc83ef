package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/justsurfingit/jobboard/internal/apperrors"
	"github.com/justsurfingit/jobboard/internal/cache"
	"github.com/justsurfingit/jobboard/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const defaultSearchLimit = 20

var slugSeparators = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases s, collapses every run of non [a-z0-9] characters into
// one underscore and trims underscores at both ends.
func Slug(s string) string {
	s = slugSeparators.ReplaceAllString(strings.ToLower(s), "_")
	return strings.Trim(s, "_")
}

// LocationID is the deterministic key of a (country, city) pair.
// Distinct pairs that slug alike share an id; no collision check is made.
func LocationID(country, city string) string {
	return "loc_" + Slug(country) + "_" + Slug(city)
}

type LocationService struct {
	DB    *gorm.DB
	Cache cache.Cache
	Log   *zap.Logger
}

func NewLocationService(db *gorm.DB, c cache.Cache, log *zap.Logger) *LocationService {
	return &LocationService{DB: db, Cache: c, Log: log}
}

// FindOrCreate returns the Location for (city, country), inserting it on
// first use. Safe to call concurrently: a lost insert race reads the winner.
func (s *LocationService) FindOrCreate(ctx context.Context, city, country string) (*models.Location, error) {
	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	if city == "" || country == "" {
		return nil, apperrors.InvalidInput("city and country are required", nil)
	}
	return findOrCreateLocation(s.DB.WithContext(ctx), city, country)
}

func findOrCreateLocation(db *gorm.DB, city, country string) (*models.Location, error) {
	id := LocationID(country, city)

	var loc models.Location
	err := db.Where("id = ?", id).Take(&loc).Error
	if err == nil {
		return &loc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up location %s: %w", id, err)
	}

	loc = models.Location{ID: id, City: city, Country: country}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&loc).Error; err != nil {
		return nil, fmt.Errorf("creating location %s: %w", id, err)
	}
	if err := db.Where("id = ?", id).Take(&loc).Error; err != nil {
		return nil, fmt.Errorf("reading location %s: %w", id, err)
	}
	return &loc, nil
}

func (s *LocationService) GetByID(ctx context.Context, id string) (*models.Location, error) {
	var loc models.Location
	err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&loc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("location not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("loading location %s: %w", id, err)
	}
	return &loc, nil
}

func (s *LocationService) GetAll(ctx context.Context) ([]models.Location, error) {
	var locs []models.Location
	err := s.DB.WithContext(ctx).Order("country ASC, city ASC").Find(&locs).Error
	return locs, err
}

// TopByJobCount returns at most limit locations, busiest first.
func (s *LocationService) TopByJobCount(ctx context.Context, limit int) ([]models.Location, error) {
	if limit < 1 {
		limit = 100
	}
	locs := []models.Location{}
	err := s.DB.WithContext(ctx).
		Order("job_count DESC, city ASC").
		Limit(limit).
		Find(&locs).Error
	if err != nil {
		return nil, fmt.Errorf("listing popular locations: %w", err)
	}
	return locs, nil
}

// Search matches q as a case-insensitive substring of city or country.
func (s *LocationService) Search(ctx context.Context, q string, limit int) ([]models.Location, error) {
	if limit < 1 {
		limit = defaultSearchLimit
	}
	locs := []models.Location{}
	q = strings.TrimSpace(q)
	if q == "" {
		return locs, nil
	}
	pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
	err := s.DB.WithContext(ctx).
		Where("LOWER(city) LIKE ? ESCAPE '\\' OR LOWER(country) LIKE ? ESCAPE '\\'", pattern, pattern).
		Order("job_count DESC, city ASC").
		Limit(limit).
		Find(&locs).Error
	if err != nil {
		return nil, fmt.Errorf("searching locations: %w", err)
	}
	return locs, nil
}

// UpdateJobCount rewrites the aggregate of one location from the live
// listing count, every status included.
func (s *LocationService) UpdateJobCount(ctx context.Context, id string) (int64, error) {
	db := s.DB.WithContext(ctx)

	var n int64
	if err := db.Model(&models.JobListing{}).Where("location_id = ?", id).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("counting listings for %s: %w", id, err)
	}
	res := db.Model(&models.Location{}).Where("id = ?", id).Update("job_count", n)
	if res.Error != nil {
		return 0, fmt.Errorf("updating job count for %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, apperrors.NotFound("location not found", nil)
	}
	return n, nil
}

// UpdateAllJobCounts recomputes every location in one statement and returns
// the number of rows written.
func (s *LocationService) UpdateAllJobCounts(ctx context.Context) (int64, error) {
	res := s.DB.WithContext(ctx).Exec(
		`UPDATE locations SET job_count = (
			SELECT COUNT(*) FROM job_listings WHERE job_listings.location_id = locations.id
		), updated_at = ?`, time.Now().UTC())
	if res.Error != nil {
		return 0, fmt.Errorf("recomputing job counts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

type BackfillResult struct {
	Pairs          int   `json:"pairs"`
	ListingsLinked int64 `json:"listingsLinked"`
	Recounted      int64 `json:"recounted"`
	Failed         int   `json:"failed"`
}

// AssignMissingLocations links listings that have city and country text but
// no locationId, then recomputes every job count. Re-running is harmless.
func (s *LocationService) AssignMissingLocations(ctx context.Context) (*BackfillResult, error) {
	db := s.DB.WithContext(ctx)

	type pair struct {
		City    string
		Country string
	}
	var pairs []pair
	err := db.Model(&models.JobListing{}).
		Distinct("city", "country").
		Where("location_id IS NULL AND city IS NOT NULL AND city <> '' AND country IS NOT NULL AND country <> ''").
		Find(&pairs).Error
	if err != nil {
		return nil, fmt.Errorf("listing unlinked city/country pairs: %w", err)
	}

	result := &BackfillResult{Pairs: len(pairs)}
	for _, p := range pairs {
		if strings.TrimSpace(p.City) == "" || strings.TrimSpace(p.Country) == "" {
			continue
		}
		loc, err := findOrCreateLocation(db, strings.TrimSpace(p.City), strings.TrimSpace(p.Country))
		if err != nil {
			s.Log.Warn("location backfill: find or create failed",
				zap.String("city", p.City), zap.String("country", p.Country), zap.Error(err))
			result.Failed++
			continue
		}
		res := db.Model(&models.JobListing{}).
			Where("location_id IS NULL AND city = ? AND country = ?", p.City, p.Country).
			Update("location_id", loc.ID)
		if res.Error != nil {
			s.Log.Warn("location backfill: linking listings failed",
				zap.String("location_id", loc.ID), zap.Error(res.Error))
			result.Failed++
			continue
		}
		result.ListingsLinked += res.RowsAffected
	}

	recounted, err := s.UpdateAllJobCounts(ctx)
	if err != nil {
		return result, err
	}
	result.Recounted = recounted

	if result.ListingsLinked > 0 {
		invalidate(ctx, s.Cache, s.Log, TagListings)
	}
	s.Log.Info("location backfill finished",
		zap.Int("pairs", result.Pairs),
		zap.Int64("linked", result.ListingsLinked),
		zap.Int64("recounted", result.Recounted),
		zap.Int("failed", result.Failed))
	return result, nil
}

type LocationStats struct {
	TotalLocations int64            `json:"totalLocations"`
	TotalJobs      int64            `json:"totalJobs"`
	TopLocation    *models.Location `json:"topLocation"`
}

// Stats sums the stored aggregates; it does not recount listings.
func (s *LocationService) Stats(ctx context.Context) (*LocationStats, error) {
	db := s.DB.WithContext(ctx)
	stats := &LocationStats{}

	if err := db.Model(&models.Location{}).Count(&stats.TotalLocations).Error; err != nil {
		return nil, fmt.Errorf("counting locations: %w", err)
	}
	if err := db.Model(&models.Location{}).Select("COALESCE(SUM(job_count), 0)").Scan(&stats.TotalJobs).Error; err != nil {
		return nil, fmt.Errorf("summing job counts: %w", err)
	}

	var top models.Location
	err := db.Order("job_count DESC, city ASC").Take(&top).Error
	switch {
	case err == nil:
		stats.TopLocation = &top
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("loading top location: %w", err)
	}
	return stats, nil
}

// Delete removes a location. Listings pointing at it keep their text
// fields and lose the reference.
func (s *LocationService) Delete(ctx context.Context, id string) (int64, error) {
	var orphaned int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.JobListing{}).Where("location_id = ?", id).Update("location_id", nil)
		if res.Error != nil {
			return fmt.Errorf("unlinking listings from %s: %w", id, res.Error)
		}
		orphaned = res.RowsAffected

		res = tx.Where("id = ?", id).Delete(&models.Location{})
		if res.Error != nil {
			return fmt.Errorf("deleting location %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("location not found", nil)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if orphaned > 0 {
		invalidate(ctx, s.Cache, s.Log, TagListings)
	}
	return orphaned, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
