package dtos

const (
	EventRunSucceeded = "ACTOR.RUN.SUCCEEDED"
	EventRunFailed    = "ACTOR.RUN.FAILED"
	EventRunAborted   = "ACTOR.RUN.ABORTED"
)

// SupportedEvents lists the event types the webhook accepts.
var SupportedEvents = []string{EventRunSucceeded, EventRunFailed, EventRunAborted}

// ApifyWebhookEvent is the callback body posted when an actor run ends.
// EventData and Resource are pointers so a missing object can be told apart
// from an empty one.
type ApifyWebhookEvent struct {
	UserID    string       `json:"userId"`
	CreatedAt string       `json:"createdAt"`
	EventType string       `json:"eventType"`
	EventData *EventData   `json:"eventData"`
	Resource  *RunResource `json:"resource"`
}

type EventData struct {
	ActorID    string `json:"actorId"`
	ActorRunID string `json:"actorRunId"`
}

type RunResource struct {
	ID                     string   `json:"id"`
	ActID                  string   `json:"actId"`
	UserID                 string   `json:"userId"`
	StartedAt              string   `json:"startedAt"`
	FinishedAt             string   `json:"finishedAt"`
	Status                 string   `json:"status"`
	Stats                  RunStats `json:"stats"`
	DefaultDatasetID       string   `json:"defaultDatasetId"`
	DefaultKeyValueStoreID string   `json:"defaultKeyValueStoreId"`
	DefaultRequestQueueID  string   `json:"defaultRequestQueueId"`
	Links                  RunLinks `json:"links"`
}

type RunStats struct {
	InputBodyLen   int     `json:"inputBodyLen"`
	RestartCount   int     `json:"restartCount"`
	ResurrectCount int     `json:"resurrectCount"`
	ComputeUnits   float64 `json:"computeUnits"`
	RunTimeSecs    float64 `json:"runTimeSecs"`
	DurationMillis int64   `json:"durationMillis"`
}

type RunLinks struct {
	PublicRunURL  string `json:"publicRunUrl"`
	ConsoleRunURL string `json:"consoleRunUrl"`
	APIRunURL     string `json:"apiRunUrl"`
}

// Valid reports whether the structural fields the pipeline relies on exist.
func (e *ApifyWebhookEvent) Valid() bool {
	return e.EventType != "" && e.EventData != nil && e.Resource != nil
}

// RunID prefers the actor run id from eventData and falls back to the resource id.
func (e *ApifyWebhookEvent) RunID() string {
	if e.EventData != nil && e.EventData.ActorRunID != "" {
		return e.EventData.ActorRunID
	}
	if e.Resource != nil {
		return e.Resource.ID
	}
	return ""
}

func (e *ApifyWebhookEvent) DatasetID() string {
	if e.Resource == nil {
		return ""
	}
	return e.Resource.DefaultDatasetID
}

type WebhookResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	ActorRunID string `json:"actorRunId"`
	DatasetID  string `json:"datasetId"`
	Timestamp  string `json:"timestamp"`
}
