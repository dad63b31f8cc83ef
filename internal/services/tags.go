package services

import (
	"context"

	"github.com/justsurfingit/jobboard/internal/cache"
	"github.com/justsurfingit/jobboard/internal/telemetry"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobboard/services")

// TagListings is carried by every cached listing query.
const TagListings = "job-listings"

func OrganizationTag(orgID string) string {
	return "organization-" + orgID
}

// invalidate drops cached queries. A cache failure is logged only; stale
// entries expire by TTL.
func invalidate(ctx context.Context, c cache.Cache, log *zap.Logger, tags ...string) {
	if c == nil || len(tags) == 0 {
		return
	}
	if err := c.Invalidate(ctx, tags...); err != nil {
		log.Warn("cache invalidation failed", zap.Strings("tags", tags), zap.Error(err))
	}
}
