package services_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/justsurfingit/jobboard/internal/services"
)

func newTestDatasetClient(t *testing.T, h http.HandlerFunc) (*services.DatasetClient, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	c := services.NewDatasetClient(srv.URL+"/", "secret-token", 5*time.Second, zap.NewNop())
	c.RetryInterval = time.Millisecond
	return c, &calls
}

func TestFetchItems_Success(t *testing.T) {
	c, calls := newTestDatasetClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/datasets/ds-1/items" || r.URL.Query().Get("format") != "json" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret-token" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "job-board-webhook/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 1234567890123, "title": "Go dev"}, {"name": "Jane"}]`))
	})

	items, err := c.FetchItems(context.Background(), "ds-1")
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 2 || *calls != 1 {
		t.Fatalf("items = %d, calls = %d", len(items), *calls)
	}
	if n, ok := items[0]["id"].(json.Number); !ok || n.String() != "1234567890123" {
		t.Errorf("numeric id decoded as %T %v", items[0]["id"], items[0]["id"])
	}
	if got := services.ListingID(items[0], "x"); got != "job_apify_1234567890123" {
		t.Errorf("ListingID = %q", got)
	}
}

func TestFetchItems_InaccessibleIsEmpty(t *testing.T) {
	for _, code := range []int{http.StatusNotFound, http.StatusForbidden, http.StatusUnauthorized} {
		c, calls := newTestDatasetClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", code)
		})
		items, err := c.FetchItems(context.Background(), "ds-1")
		if err != nil {
			t.Errorf("%d: err = %v, want nil", code, err)
		}
		if items == nil || len(items) != 0 {
			t.Errorf("%d: items = %#v, want empty", code, items)
		}
		if *calls != 1 {
			t.Errorf("%d: calls = %d, 4xx must not be retried", code, *calls)
		}
	}
}

func TestFetchItems_RetriesServerErrors(t *testing.T) {
	var failures int32
	c, calls := newTestDatasetClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&failures, 1) <= 2 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`[{"title": "Go dev"}]`))
	})

	items, err := c.FetchItems(context.Background(), "ds-1")
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 1 || *calls != 3 {
		t.Errorf("items = %d, calls = %d, want 1 item after 3 calls", len(items), *calls)
	}
}

func TestFetchItems_GivesUpAfterRetries(t *testing.T) {
	c, calls := newTestDatasetClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	if _, err := c.FetchItems(context.Background(), "ds-1"); err == nil {
		t.Fatal("expected an error")
	}
	if *calls != 4 {
		t.Errorf("calls = %d, want the first attempt plus 3 retries", *calls)
	}
}

func TestFetchItems_EmptyDatasetID(t *testing.T) {
	c, calls := newTestDatasetClient(t, func(w http.ResponseWriter, r *http.Request) {})
	items, err := c.FetchItems(context.Background(), "")
	if err != nil || len(items) != 0 || *calls != 0 {
		t.Errorf("items = %v, err = %v, calls = %d", items, err, *calls)
	}
}

func TestFetchItems_NonObjectItemsStayInPlace(t *testing.T) {
	c, _ := newTestDatasetClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id": "a", "title": "Go dev"}, "junk", 42, null, {"id": "b"}]`))
	})

	items, err := c.FetchItems(context.Background(), "ds-1")
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("items = %d, want 5", len(items))
	}
	for _, i := range []int{1, 2, 3} {
		if items[i] != nil {
			t.Errorf("items[%d] = %v, want nil", i, items[i])
		}
	}
	if items[0].String("id") != "a" || items[4].String("id") != "b" {
		t.Errorf("object items = %v, %v", items[0], items[4])
	}
}
