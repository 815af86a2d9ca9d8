package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ggfincke/swimmate/internal/models"
	"github.com/ggfincke/swimmate/internal/storage"
	"github.com/google/uuid"
)

// fakeStore is an in-memory Store for handler tests.
type fakeStore struct {
	swims     map[uuid.UUID]models.Swim
	templates []models.SetMessage
}

func newFakeStore() *fakeStore {
	return &fakeStore{swims: map[uuid.UUID]models.Swim{}}
}

func (f *fakeStore) InsertSwim(_ context.Context, swim models.Swim) (bool, error) {
	if _, ok := f.swims[swim.ID]; ok {
		return false, nil
	}
	f.swims[swim.ID] = swim
	return true, nil
}

func (f *fakeStore) QuerySwims(_ context.Context, start, end time.Time) ([]storage.SwimSummary, error) {
	var result []storage.SwimSummary
	for _, s := range f.swims {
		if s.StartTime.Before(start) || !s.StartTime.Before(end) {
			continue
		}
		result = append(result, storage.SwimSummary{
			ID: s.ID, StartTime: s.StartTime, EndTime: s.EndTime,
			LocationType: s.LocationType, LapCount: len(s.Laps),
		})
	}
	return result, nil
}

func (f *fakeStore) GetSwim(_ context.Context, id uuid.UUID) (*models.Swim, error) {
	s, ok := f.swims[id]
	if !ok {
		return nil, fmt.Errorf("swim %s not found", id)
	}
	return &s, nil
}

func (f *fakeStore) GetSwimStats(_ context.Context, _, _ time.Time) (*storage.SwimStats, error) {
	return &storage.SwimStats{SwimCount: len(f.swims)}, nil
}

func (f *fakeStore) InsertSetTemplate(_ context.Context, m models.SetMessage) error {
	f.templates = append(f.templates, m)
	return nil
}

func (f *fakeStore) QuerySetTemplates(_ context.Context) ([]models.SetMessage, error) {
	return f.templates, nil
}

func newTestServer(store Store) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, "test-key", log)
}

func testSwim() models.Swim {
	start := time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)
	free := models.StrokeFreestyle
	back := models.StrokeBackstroke
	return models.Swim{
		ID:           uuid.New(),
		StartTime:    start,
		EndTime:      start.Add(20 * time.Minute),
		LocationType: models.LocationPool,
		Laps: []models.Lap{
			{StartTime: start, EndTime: start.Add(45 * time.Second), StrokeStyle: &free},
			{StartTime: start.Add(48 * time.Second), EndTime: start.Add(93 * time.Second), StrokeStyle: &free},
			{StartTime: start.Add(5 * time.Minute), EndTime: start.Add(5*time.Minute + 50*time.Second), StrokeStyle: &back},
		},
	}
}

func postJSON(t *testing.T, srv *Server, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("X-API-Key", "test-key")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestIngestSwim(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)
	swim := testSwim()
	body, _ := json.Marshal(swim)

	rec := postJSON(t, srv, "/api/v1/ingest", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if len(store.swims) != 1 {
		t.Errorf("stored swims = %d, want 1", len(store.swims))
	}

	// Same ID again: accepted but not re-inserted.
	rec = postJSON(t, srv, "/api/v1/ingest", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["inserted"] != false {
		t.Errorf("inserted = %v, want false", resp["inserted"])
	}
}

func TestIngestSwimRejectsInvalid(t *testing.T) {
	srv := newTestServer(newFakeStore())

	swim := testSwim()
	swim.EndTime = swim.StartTime // violates duration invariant
	body, _ := json.Marshal(swim)

	rec := postJSON(t, srv, "/api/v1/ingest", body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestIngestSwimRequiresAPIKey(t *testing.T) {
	srv := newTestServer(newFakeStore())
	body, _ := json.Marshal(testSwim())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/ingest", bytes.NewReader(body))
	req.Header.Set("X-API-Key", "wrong")
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// TestIngestSetMessage: valid messages are stored; malformed ones are dropped
// with a 400 and never partially stored.
func TestIngestSetMessage(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)

	valid := `{"title":"Endurance 200s","strokeStyle":"freestyle","totalDistance":1600,"measureUnit":"meters","difficulty":"advanced"}`
	rec := postJSON(t, srv, "/api/v1/ingest/set", []byte(valid))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	if len(store.templates) != 1 {
		t.Fatalf("templates = %d, want 1", len(store.templates))
	}

	malformed := `{"strokeStyle":"freestyle","totalDistance":1600,"measureUnit":"meters","difficulty":"advanced"}`
	rec = postJSON(t, srv, "/api/v1/ingest/set", []byte(malformed))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(store.templates) != 1 {
		t.Errorf("templates = %d after malformed message, want 1", len(store.templates))
	}
}

func TestGetSwim(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)
	swim := testSwim()
	store.swims[swim.ID] = swim

	req := httptest.NewRequest(http.MethodGet, "/api/v1/swims/"+swim.ID.String(), nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got models.Swim
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != swim.ID || len(got.Laps) != 3 {
		t.Errorf("got swim %s with %d laps", got.ID, len(got.Laps))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/swims/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/swims/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad id status = %d, want 400", rec.Code)
	}
}

// TestSwimStructure: the structure endpoint segments the stored laps — two
// freestyle laps 3s apart form one swim, the backstroke lap minutes later
// opens a second set.
func TestSwimStructure(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)
	swim := testSwim()
	store.swims[swim.ID] = swim

	req := httptest.NewRequest(http.MethodGet, "/api/v1/swims/"+swim.ID.String()+"/structure", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp struct {
		SwimID uuid.UUID `json:"swimId"`
		Sets   []setView `json:"sets"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.SwimID != swim.ID {
		t.Errorf("swimId = %s", resp.SwimID)
	}
	if len(resp.Sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(resp.Sets))
	}
	first := resp.Sets[0]
	if len(first.Swims) != 1 || len(first.Swims[0].Laps) != 2 {
		t.Errorf("first set: want 1 swim of 2 laps")
	}
	if first.TotalSeconds != 90 {
		t.Errorf("first set totalSeconds = %v, want 90", first.TotalSeconds)
	}
	if first.StrokeStyle == nil || *first.StrokeStyle != models.StrokeFreestyle {
		t.Errorf("first set stroke = %v, want freestyle", first.StrokeStyle)
	}
}

func TestQuerySwims(t *testing.T) {
	store := newFakeStore()
	srv := newTestServer(store)
	swim := testSwim()
	store.swims[swim.ID] = swim

	req := httptest.NewRequest(http.MethodGet, "/api/v1/swims?start=2026-03-01&end=2026-04-01", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var got []storage.SwimSummary
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("swims = %d, want 1", len(got))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/swims?start=bogus", nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad range status = %d, want 400", rec.Code)
	}
}
