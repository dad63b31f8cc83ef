package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/justsurfingit/jobboard/internal/apperrors"
	"github.com/justsurfingit/jobboard/internal/cache"
	"github.com/justsurfingit/jobboard/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const orgSlugLength = 20

type OrganizationService struct {
	DB    *gorm.DB
	Cache cache.Cache
	Log   *zap.Logger
}

func NewOrganizationService(db *gorm.DB, c cache.Cache, log *zap.Logger) *OrganizationService {
	return &OrganizationService{DB: db, Cache: c, Log: log}
}

// Resolve returns the organization named name, creating it when no exact
// match exists. Two concurrent first sightings of a name may both insert;
// the duplicates are left for cleanup.
func (s *OrganizationService) Resolve(ctx context.Context, name string, logo *string) (*models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.InvalidInput("organization name is required", nil)
	}
	db := s.DB.WithContext(ctx)

	var org models.Organization
	err := db.Where("name = ?", name).Order("created_at ASC").Take(&org).Error
	if err == nil {
		return &org, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("looking up organization %q: %w", name, err)
	}

	if logo == nil || *logo == "" {
		placeholder := placeholderLogo(name)
		logo = &placeholder
	}
	org = models.Organization{
		ID:      OrganizationID(name),
		Name:    name,
		LogoURL: logo,
	}
	if err := db.Create(&org).Error; err != nil {
		return nil, fmt.Errorf("creating organization %q: %w", name, err)
	}
	s.Log.Info("organization created", zap.String("organization_id", org.ID), zap.String("name", name))
	return &org, nil
}

// OrganizationID builds a readable id from the name plus a random suffix,
// so names that slug alike still get distinct rows.
func OrganizationID(name string) string {
	slug := Slug(name)
	if len(slug) > orgSlugLength {
		slug = strings.TrimRight(slug[:orgSlugLength], "_")
	}
	if slug == "" {
		slug = "org"
	}
	return "org_" + slug + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

func placeholderLogo(name string) string {
	initials := []rune(name)
	if len(initials) > 2 {
		initials = initials[:2]
	}
	return "https://via.placeholder.com/150?text=" + url.QueryEscape(string(initials))
}

func (s *OrganizationService) Get(ctx context.Context, id string) (*models.Organization, error) {
	var org models.Organization
	err := s.DB.WithContext(ctx).Where("id = ?", id).Take(&org).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFound("organization not found", err)
	}
	if err != nil {
		return nil, fmt.Errorf("loading organization %s: %w", id, err)
	}
	return &org, nil
}

// Delete removes an organization together with its listings and returns the
// number of listings removed. The listings are deleted explicitly so the
// cascade holds on stores that do not enforce foreign keys.
func (s *OrganizationService) Delete(ctx context.Context, id string) (int64, error) {
	var removed int64
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("organization_id = ?", id).Delete(&models.JobListing{})
		if res.Error != nil {
			return fmt.Errorf("deleting listings of %s: %w", id, res.Error)
		}
		removed = res.RowsAffected

		res = tx.Where("id = ?", id).Delete(&models.Organization{})
		if res.Error != nil {
			return fmt.Errorf("deleting organization %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.NotFound("organization not found", nil)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	invalidate(ctx, s.Cache, s.Log, TagListings, OrganizationTag(id))
	s.Log.Info("organization deleted", zap.String("organization_id", id), zap.Int64("listings", removed))
	return removed, nil
}
