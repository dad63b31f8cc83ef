package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	datasetUserAgent  = "job-board-webhook/1.0"
	datasetMaxRetries = 3
	maxErrorBody      = 512
)

// DatasetFetcher loads the records a provider run produced.
type DatasetFetcher interface {
	FetchItems(ctx context.Context, datasetID string) ([]Record, error)
}

// DatasetClient reads dataset items from the provider REST API with a
// bearer token. Missing or forbidden datasets yield no items.
type DatasetClient struct {
	BaseURL       string
	Token         string
	RetryInterval time.Duration
	Log           *zap.Logger
	client        *http.Client
}

func NewDatasetClient(baseURL, token string, timeout time.Duration, log *zap.Logger) *DatasetClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DatasetClient{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		Token:         token,
		RetryInterval: backoff.DefaultInitialInterval,
		Log:           log,
		client:        &http.Client{Timeout: timeout},
	}
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("dataset API returned %d: %s", e.code, e.body)
}

// FetchItems retries transport failures and 5xx answers with exponential
// backoff. 401, 403 and 404 return an empty slice and no error.
func (c *DatasetClient) FetchItems(ctx context.Context, datasetID string) ([]Record, error) {
	ctx, span := tracer.Start(ctx, "DatasetClient.FetchItems")
	defer span.End()

	if datasetID == "" {
		return []Record{}, nil
	}
	endpoint := fmt.Sprintf("%s/v2/datasets/%s/items?format=json", c.BaseURL, url.PathEscape(datasetID))

	var items []Record
	op := func() error {
		var err error
		items, err = c.fetch(ctx, endpoint)
		if se, ok := err.(*statusError); ok && se.code < 500 {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.Log.Warn("dataset fetch failed, retrying",
			zap.String("dataset_id", datasetID), zap.Duration("wait", wait), zap.Error(err))
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.RetryInterval
	policy := backoff.WithContext(backoff.WithMaxRetries(expo, datasetMaxRetries), ctx)
	err := backoff.RetryNotify(op, policy, notify)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) {
			switch se.code {
			case http.StatusNotFound, http.StatusForbidden, http.StatusUnauthorized:
				c.Log.Warn("dataset not accessible, treating as empty",
					zap.String("dataset_id", datasetID), zap.Int("status", se.code))
				return []Record{}, nil
			}
		}
		span.RecordError(err)
		return nil, fmt.Errorf("fetching dataset %s: %w", datasetID, err)
	}
	return items, nil
}

func (c *DatasetClient) fetch(ctx context.Context, endpoint string) ([]Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", datasetUserAgent)
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http GET: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &statusError{code: resp.StatusCode, body: snippet}
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("json decode: %w", err))
	}
	items := make([]Record, len(raw))
	for i, elem := range raw {
		rec, err := decodeRecord(elem)
		if err != nil {
			// Left nil: the record classifies as unknown and is skipped.
			c.Log.Warn("dataset item is not an object", zap.Int("record_index", i), zap.Error(err))
			continue
		}
		items[i] = rec
	}
	return items, nil
}

func decodeRecord(elem json.RawMessage) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(elem))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}
