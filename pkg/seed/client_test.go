package seed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jmverlaan/climogram/pkg/model"
)

func TestFetchDecodesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/temperature.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"t":"2020-07-04","v":23.456},{"t":"2020-07-05","v":19.1}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	records, err := c.Fetch(context.Background(), model.CategoryTemperature)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].T != "2020-07-04" || records[0].V != 23.456 {
		t.Errorf("first record = %+v", records[0])
	}
}

func TestFetchNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	if _, err := c.Fetch(context.Background(), model.CategoryPrecipitation); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("got %v, want ErrFetchFailed", err)
	}
}

func TestFetchMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	if _, err := c.Fetch(context.Background(), model.CategoryTemperature); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("got %v, want ErrFetchFailed", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, srv.Client())
	for i := 0; i < 10; i++ {
		if _, err := c.Fetch(context.Background(), model.CategoryTemperature); !errors.Is(err, ErrFetchFailed) {
			t.Fatalf("attempt %d: got %v, want ErrFetchFailed", i, err)
		}
	}
	// The breaker trips after five consecutive failures; later attempts
	// fail fast without reaching the server.
	if hits >= 10 {
		t.Errorf("breaker never opened: server saw %d requests", hits)
	}
}
