package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/justsurfingit/jobboard/internal/apperrors"
	"github.com/justsurfingit/jobboard/internal/cache"
	"github.com/justsurfingit/jobboard/internal/dtos"
	"github.com/justsurfingit/jobboard/internal/models"
	"github.com/justsurfingit/jobboard/internal/telemetry"
	"go.uber.org/zap"
)

// BatchResult counts what happened to each record of one dataset.
type BatchResult struct {
	Total      int `json:"total"`
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Errored    int `json:"errored"`
}

// EventResult is the outcome of one webhook delivery.
type EventResult struct {
	EventType  string       `json:"eventType"`
	ActorRunID string       `json:"actorRunId"`
	DatasetID  string       `json:"datasetId"`
	Ignored    bool         `json:"ignored"`
	Batch      *BatchResult `json:"batch,omitempty"`
}

type IngestionService struct {
	Jobs      *JobService
	Orgs      *OrganizationService
	Locations *LocationService
	Datasets  DatasetFetcher
	Notifier  RunNotifier
	Cache     cache.Cache
	Log       *zap.Logger
	Extractor Extractor

	// AllowedUserID, when set, drops events sent on behalf of another account.
	AllowedUserID string
}

func NewIngestionService(
	jobs *JobService,
	orgs *OrganizationService,
	locations *LocationService,
	datasets DatasetFetcher,
	notifier RunNotifier,
	c cache.Cache,
	log *zap.Logger,
	allowedUserID string,
) *IngestionService {
	if notifier == nil {
		notifier = &LogNotifier{Log: log}
	}
	return &IngestionService{
		Jobs:          jobs,
		Orgs:          orgs,
		Locations:     locations,
		Datasets:      datasets,
		Notifier:      notifier,
		Cache:         c,
		Log:           log,
		Extractor:     DefaultExtractor(),
		AllowedUserID: allowedUserID,
	}
}

// HandleEvent validates a webhook delivery and runs it. Only succeeded runs
// touch data; failed and aborted runs are reported and dropped.
func (s *IngestionService) HandleEvent(ctx context.Context, ev *dtos.ApifyWebhookEvent) (*EventResult, error) {
	ctx, span := tracer.Start(ctx, "IngestionService.HandleEvent")
	defer span.End()

	if ev == nil || !ev.Valid() {
		return nil, apperrors.InvalidInput("Invalid Apify webhook format", nil)
	}

	res := &EventResult{
		EventType:  ev.EventType,
		ActorRunID: ev.RunID(),
		DatasetID:  ev.DatasetID(),
	}
	span.SetAttributes(
		telemetry.String("webhook.event_type", ev.EventType),
		telemetry.String("webhook.actor_run_id", res.ActorRunID),
	)

	if s.AllowedUserID != "" && ev.UserID != s.AllowedUserID {
		s.Log.Warn("webhook from unexpected user ignored",
			zap.String("user_id", ev.UserID), zap.String("actor_run_id", res.ActorRunID))
		res.Ignored = true
		return res, nil
	}

	switch ev.EventType {
	case dtos.EventRunSucceeded:
		items, err := s.Datasets.FetchItems(ctx, res.DatasetID)
		if err != nil {
			span.RecordError(err)
			s.Log.Error("dataset fetch failed, processing no items",
				zap.String("dataset_id", res.DatasetID), zap.Error(err))
			items = []Record{}
		}
		res.Batch = s.ProcessItems(ctx, items, res.ActorRunID)
		s.notify(ctx, "succeeded", ev, res.Batch)

	case dtos.EventRunFailed:
		s.notify(ctx, "failed", ev, nil)

	case dtos.EventRunAborted:
		s.notify(ctx, "aborted", ev, nil)

	default:
		return nil, apperrors.Unsupported(fmt.Sprintf("Unsupported Apify event type: %s", ev.EventType), nil)
	}
	return res, nil
}

func (s *IngestionService) notify(ctx context.Context, outcome string, ev *dtos.ApifyWebhookEvent, batch *BatchResult) {
	re := RunEvent{
		Outcome:    outcome,
		EventType:  ev.EventType,
		ActorRunID: ev.RunID(),
		DatasetID:  ev.DatasetID(),
		RunStatus:  ev.Resource.Status,
		ConsoleURL: ev.Resource.Links.ConsoleRunURL,
		Result:     batch,
		At:         time.Now().UTC(),
	}
	if err := s.Notifier.NotifyRun(ctx, re); err != nil {
		s.Log.Warn("run notification failed", zap.String("actor_run_id", re.ActorRunID), zap.Error(err))
	}
}

// ProcessItems persists every job-shaped record independently. A failing
// record is counted and never stops the rest of the batch; rows already
// written stay written.
func (s *IngestionService) ProcessItems(ctx context.Context, items []Record, runID string) *BatchResult {
	ctx, span := tracer.Start(ctx, "IngestionService.ProcessItems")
	defer span.End()

	if runID == "" {
		runID = strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	result := &BatchResult{Total: len(items)}
	touched := map[string]bool{}

	for i, item := range items {
		outcome, orgID, err := s.processRecord(ctx, item, fmt.Sprintf("%s_%d", runID, i), i)
		switch {
		case errors.Is(err, errSkipped):
			result.Skipped++
		case err != nil:
			result.Errored++
			s.Log.Error("record failed", zap.Int("record_index", i), zap.Error(err))
		case outcome == OutcomeInserted:
			result.Inserted++
			touched[orgID] = true
		case outcome == OutcomeUpdated:
			result.Updated++
			touched[orgID] = true
		case outcome == OutcomeDuplicate:
			result.Duplicates++
		}
	}

	if len(touched) > 0 {
		tags := []string{TagListings}
		for id := range touched {
			tags = append(tags, OrganizationTag(id))
		}
		invalidate(ctx, s.Cache, s.Log, tags...)
	}

	span.SetAttributes(
		telemetry.Int("batch.total", result.Total),
		telemetry.Int("batch.inserted", result.Inserted),
		telemetry.Int("batch.errored", result.Errored),
	)
	s.Log.Info("batch processed",
		zap.String("run_id", runID),
		zap.Int("total", result.Total),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("duplicates", result.Duplicates),
		zap.Int("skipped", result.Skipped),
		zap.Int("errored", result.Errored))
	return result
}

var errSkipped = errors.New("record skipped")

func (s *IngestionService) processRecord(ctx context.Context, item Record, fallbackID string, index int) (outcome UpsertOutcome, orgID string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing record: %v", r)
		}
	}()

	if kind := Classify(item); kind != KindJob {
		s.Log.Info("record skipped", zap.Int("record_index", index), zap.String("kind", string(kind)))
		return "", "", errSkipped
	}

	job, err := s.Extractor.Extract(item, fallbackID)
	if errors.Is(err, ErrMissingRequired) {
		s.Log.Info("record skipped", zap.Int("record_index", index), zap.String("kind", string(KindJob)), zap.Error(err))
		return "", "", errSkipped
	}
	if err != nil {
		return "", "", err
	}

	org, err := s.Orgs.Resolve(ctx, job.OrganizationName, job.OrganizationLogo)
	if err != nil {
		return "", "", fmt.Errorf("resolving organization: %w", err)
	}

	var locationID *string
	if job.City != nil && job.Country != nil {
		loc, err := s.Locations.FindOrCreate(ctx, *job.City, *job.Country)
		if err != nil {
			s.Log.Warn("location link skipped", zap.String("listing_id", job.ID), zap.Error(err))
		} else {
			locationID = &loc.ID
		}
	}

	listing := newListing(job, org, locationID)
	outcome, err = s.Jobs.UpsertListing(ctx, listing)
	if err != nil {
		return "", "", err
	}
	s.Log.Info("record stored",
		zap.Int("record_index", index),
		zap.String("kind", string(KindJob)),
		zap.String("listing_id", listing.ID),
		zap.String("outcome", string(outcome)))
	return outcome, org.ID, nil
}

func newListing(job *ExtractedJob, org *models.Organization, locationID *string) *models.JobListing {
	logo := job.OrganizationLogo
	if logo == nil {
		logo = org.LogoURL
	}
	posted := job.DatePosted
	return &models.JobListing{
		ID:               job.ID,
		OrganizationID:   org.ID,
		OrganizationName: org.Name,
		OrganizationLogo: logo,
		OrganizationURL:  job.OrganizationURL,
		Title:            job.Title,
		URL:              job.URL,
		DescriptionHTML:  job.DescriptionHTML,
		City:             job.City,
		Region:           job.Region,
		Country:          job.Country,
		Location:         job.Location,
		LocationID:       locationID,
		SalaryMin:        job.SalaryMin,
		SalaryMax:        job.SalaryMax,
		SalaryCurrency:   job.SalaryCurrency,
		ExperienceLevel:  job.ExperienceLevel,
		WorkArrangement:  job.WorkArrangement,
		KeySkills:        job.KeySkills,
		EmploymentTypes:  job.EmploymentTypes,
		Status:           models.StatusPublished,
		DatePosted:       &posted,
	}
}
