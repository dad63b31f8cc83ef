package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/justsurfingit/jobboard/internal/apperrors"
	"github.com/justsurfingit/jobboard/internal/cache"
	"github.com/justsurfingit/jobboard/internal/config"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/telemetry"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// listingOrder is total: featured first, newest first, then insertion order.
const listingOrder = "is_featured DESC, date_posted DESC NULLS LAST, created_at ASC, id ASC"

// ListingFilter is the parsed, validated filter set. Empty fields are absent.
type ListingFilter struct {
	Query           string                 `json:"q,omitempty"`
	WorkArrangement models.WorkArrangement `json:"wa,omitempty"`
	LocationID      string                 `json:"loc,omitempty"`
	City            string                 `json:"city,omitempty"`
	Region          string                 `json:"region,omitempty"`
	ExperienceLevel string                 `json:"exp,omitempty"`
	EmploymentType  models.EmploymentType  `json:"type,omitempty"`
	JobIDs          []string               `json:"ids,omitempty"`

	// JobListingID selects single-listing lookup: no pagination, every match returned.
	JobListingID string `json:"id,omitempty"`
}

type ListingPage struct {
	Items      []models.JobListing `json:"items"`
	TotalCount int64               `json:"totalCount"`
}

// ListingSummary is the compact view handed to the AI matcher.
type ListingSummary struct {
	ID               string                  `json:"id"`
	Title            string                  `json:"title"`
	OrganizationName string                  `json:"organizationName"`
	City             *string                 `json:"city,omitempty"`
	Country          *string                 `json:"country,omitempty"`
	SalaryMin        *int                    `json:"salaryMin,omitempty"`
	SalaryMax        *int                    `json:"salaryMax,omitempty"`
	ExperienceLevel  *string                 `json:"experienceLevel,omitempty"`
	WorkArrangement  *models.WorkArrangement `json:"workArrangement,omitempty"`
	KeySkills        []string                `json:"keySkills,omitempty"`
	EmploymentTypes  []models.EmploymentType `json:"employmentTypes,omitempty"`
}

type ListingService struct {
	DB           *gorm.DB
	Cache        cache.Cache
	Log          *zap.Logger
	PageSize     int
	IDFilterMode string
	CacheTTL     time.Duration
}

func NewListingService(db *gorm.DB, c cache.Cache, log *zap.Logger, pageSize int, idFilterMode string, ttl time.Duration) *ListingService {
	if pageSize < 1 {
		pageSize = 10
	}
	if idFilterMode == "" {
		idFilterMode = config.IDFilterOr
	}
	return &ListingService{
		DB:           db,
		Cache:        c,
		Log:          log,
		PageSize:     pageSize,
		IDFilterMode: idFilterMode,
		CacheTTL:     ttl,
	}
}

type condition struct {
	sql  string
	args []interface{}
}

func and(conds ...condition) condition {
	parts := make([]string, 0, len(conds))
	var args []interface{}
	for _, c := range conds {
		parts = append(parts, "("+c.sql+")")
		args = append(args, c.args...)
	}
	return condition{sql: strings.Join(parts, " AND "), args: args}
}

func or(a, b condition) condition {
	return condition{sql: "(" + a.sql + ") OR (" + b.sql + ")", args: append(append([]interface{}{}, a.args...), b.args...)}
}

var published = condition{sql: "status = ?", args: []interface{}{string(models.StatusPublished)}}

// filterConditions turns the filter into ANDed predicates, published excluded.
func (s *ListingService) filterConditions(f ListingFilter) []condition {
	var conds []condition

	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := "%" + escapeLike(strings.ToLower(q)) + "%"
		conds = append(conds, condition{
			sql:  `LOWER(title) LIKE ? ESCAPE '\' OR LOWER(organization_name) LIKE ? ESCAPE '\'`,
			args: []interface{}{pattern, pattern},
		})
	}
	if f.WorkArrangement != "" {
		conds = append(conds, condition{sql: "ai_work_arrangement = ?", args: []interface{}{string(f.WorkArrangement)}})
	}

	// A location reference supersedes the free-text city and region filters.
	if f.LocationID != "" {
		conds = append(conds, condition{sql: "location_id = ?", args: []interface{}{f.LocationID}})
	} else {
		if city := strings.TrimSpace(f.City); city != "" {
			conds = append(conds, condition{
				sql:  `LOWER(city) LIKE ? ESCAPE '\'`,
				args: []interface{}{"%" + escapeLike(strings.ToLower(city)) + "%"},
			})
		}
		if f.Region != "" {
			conds = append(conds, condition{sql: "region = ?", args: []interface{}{f.Region}})
		}
	}

	if f.ExperienceLevel != "" {
		conds = append(conds, condition{sql: "ai_experience_level = ?", args: []interface{}{f.ExperienceLevel}})
	}
	if f.EmploymentType != "" {
		conds = append(conds, s.employmentTypeCondition(f.EmploymentType))
	}
	if len(f.JobIDs) > 0 {
		conds = append(conds, condition{sql: "id IN ?", args: []interface{}{f.JobIDs}})
	}
	return conds
}

// employmentTypeCondition tests membership in the JSON employment type array.
func (s *ListingService) employmentTypeCondition(t models.EmploymentType) condition {
	if s.DB.Dialector.Name() == "postgres" {
		arr, _ := json.Marshal([]models.EmploymentType{t})
		return condition{sql: "ai_employment_type @> CAST(? AS jsonb)", args: []interface{}{string(arr)}}
	}
	return condition{
		sql:  "EXISTS (SELECT 1 FROM json_each(CAST(ai_employment_type AS TEXT)) WHERE json_each.value = ?)",
		args: []interface{}{string(t)},
	}
}

func (s *ListingService) where(f ListingFilter) condition {
	filtered := and(append([]condition{published}, s.filterConditions(f)...)...)
	if f.JobListingID == "" {
		return filtered
	}

	byID := and(published, condition{sql: "id = ?", args: []interface{}{f.JobListingID}})
	if s.IDFilterMode == config.IDFilterAnd {
		return and(filtered, condition{sql: "id = ?", args: []interface{}{f.JobListingID}})
	}
	if len(s.filterConditions(f)) == 0 {
		return byID
	}
	return or(byID, filtered)
}

// Query returns one page of published listings matching f, or every match
// when f.JobListingID is set. page below 1 is treated as 1.
func (s *ListingService) Query(ctx context.Context, f ListingFilter, page int) (*ListingPage, error) {
	ctx, span := tracer.Start(ctx, "ListingService.Query")
	defer span.End()

	if page < 1 {
		page = 1
	}
	single := f.JobListingID != ""
	span.SetAttributes(telemetry.Int("listing.page", page), telemetry.Bool("listing.single", single))

	key := s.cacheKey(f, page)
	if cached, ok := s.fromCache(ctx, key); ok {
		span.SetAttributes(telemetry.Bool("cache.hit", true))
		return cached, nil
	}

	gen, genOK := s.generation(ctx)

	cond := s.where(f)
	db := s.DB.WithContext(ctx)
	result := &ListingPage{Items: []models.JobListing{}}

	// Past math.MaxInt/PageSize the offset would overflow; no rows live there.
	if single || page <= math.MaxInt/s.PageSize {
		q := db.Preload("Organization").Where(cond.sql, cond.args...).Order(listingOrder)
		if !single {
			q = q.Limit(s.PageSize).Offset((page - 1) * s.PageSize)
		}
		if err := q.Find(&result.Items).Error; err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("querying listings: %w", err)
		}
	}

	if single {
		result.TotalCount = int64(len(result.Items))
	} else if err := db.Model(&models.JobListing{}).Where(cond.sql, cond.args...).Count(&result.TotalCount).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("counting listings: %w", err)
	}

	span.SetAttributes(telemetry.Int("listing.items", len(result.Items)))
	if genOK {
		s.toCache(ctx, key, result, gen)
	}
	return result, nil
}

// GetListing loads one listing by id. Unpublished listings are visible only
// to privileged callers.
func (s *ListingService) GetListing(ctx context.Context, id string, privileged bool) (*models.JobListing, error) {
	db := s.DB.WithContext(ctx).Preload("Organization").Where("id = ?", id)
	if !privileged {
		db = db.Where("status = ?", models.StatusPublished)
	}
	var job models.JobListing
	err := db.Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("job listing not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("loading listing %s: %w", id, err)
	}
	return &job, nil
}

// Candidates returns up to limit published listings in display order for
// the AI matcher.
func (s *ListingService) Candidates(ctx context.Context, limit int) ([]ListingSummary, error) {
	var jobs []models.JobListing
	err := s.DB.WithContext(ctx).
		Where(published.sql, published.args...).
		Order(listingOrder).
		Limit(limit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("loading match candidates: %w", err)
	}

	out := make([]ListingSummary, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, ListingSummary{
			ID:               j.ID,
			Title:            j.Title,
			OrganizationName: j.OrganizationName,
			City:             j.City,
			Country:          j.Country,
			SalaryMin:        j.SalaryMin,
			SalaryMax:        j.SalaryMax,
			ExperienceLevel:  j.ExperienceLevel,
			WorkArrangement:  j.WorkArrangement,
			KeySkills:        j.KeySkills,
			EmploymentTypes:  j.EmploymentTypes,
		})
	}
	return out, nil
}

func (s *ListingService) cacheKey(f ListingFilter, page int) string {
	raw, _ := json.Marshal(struct {
		F    ListingFilter `json:"f"`
		Page int           `json:"p"`
		Size int           `json:"s"`
		Mode string        `json:"m"`
	}{f, page, s.PageSize, s.IDFilterMode})
	sum := sha256.Sum256(raw)
	return "listings:" + hex.EncodeToString(sum[:])
}

func (s *ListingService) fromCache(ctx context.Context, key string) (*ListingPage, bool) {
	if s.Cache == nil {
		return nil, false
	}
	raw, err := s.Cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.Log.Warn("listing cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var page ListingPage
	if err := json.Unmarshal(raw, &page); err != nil {
		s.Log.Warn("listing cache entry unreadable", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &page, true
}

// generation reads the listings tag generation before a load. Every write
// invalidates that tag, so it is the only one checked.
func (s *ListingService) generation(ctx context.Context) (uint64, bool) {
	if s.Cache == nil {
		return 0, false
	}
	gen, err := s.Cache.Generation(ctx, TagListings)
	if err != nil {
		s.Log.Warn("listing cache generation read failed", zap.Error(err))
		return 0, false
	}
	return gen, true
}

// toCache stores the page under the global tag plus one tag per
// organization appearing in it. When an invalidation ran since gen was read
// the entry is removed again: it may predate that write.
func (s *ListingService) toCache(ctx context.Context, key string, page *ListingPage, gen uint64) {
	raw, err := json.Marshal(page)
	if err != nil {
		s.Log.Warn("listing cache encode failed", zap.Error(err))
		return
	}
	tags := []string{TagListings}
	seen := map[string]bool{}
	for _, item := range page.Items {
		if !seen[item.OrganizationID] {
			seen[item.OrganizationID] = true
			tags = append(tags, OrganizationTag(item.OrganizationID))
		}
	}
	if err := s.Cache.Put(ctx, key, raw, s.CacheTTL, tags...); err != nil {
		s.Log.Warn("listing cache write failed", zap.Error(err))
		return
	}
	if now, err := s.Cache.Generation(ctx, TagListings); err != nil || now != gen {
		if err := s.Cache.Delete(ctx, key); err != nil {
			s.Log.Warn("stale listing cache entry not removed", zap.String("key", key), zap.Error(err))
		}
	}
}
