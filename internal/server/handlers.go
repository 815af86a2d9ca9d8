package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/ggfincke/swimmate/internal/models"
	"github.com/ggfincke/swimmate/internal/segment"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func (s *Server) handleIngestSwim(w http.ResponseWriter, r *http.Request) {
	var swim models.Swim
	if err := json.NewDecoder(r.Body).Decode(&swim); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := swim.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	inserted, err := s.db.InsertSwim(r.Context(), swim)
	if err != nil {
		s.log.Error("swim ingest error", "swim", swim.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"id": swim.ID, "inserted": inserted})
}

// handleIngestSet accepts a peer-device set definition. A malformed message
// is logged and dropped at the boundary; it never propagates further.
func (s *Server) handleIngestSet(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "reading body: " + err.Error()})
		return
	}

	msg, err := models.DecodeSetMessage(body)
	if err != nil {
		if errors.Is(err, models.ErrMalformedSetMessage) {
			s.log.Warn("set message dropped", "error", err)
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	if err := s.db.InsertSetTemplate(r.Context(), *msg); err != nil {
		s.log.Error("set template insert error", "title", msg.Title, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"title": msg.Title})
}

func (s *Server) handleQuerySwims(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	swims, err := s.db.QuerySwims(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, swims)
}

func (s *Server) handleGetSwim(w http.ResponseWriter, r *http.Request) {
	swim, ok := s.swimFromPath(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, swim)
}

// handleSwimStructure runs segmentation over a stored swim's laps and returns
// the repeat/set hierarchy with the derived aggregates at each level.
func (s *Server) handleSwimStructure(w http.ResponseWriter, r *http.Request) {
	swim, ok := s.swimFromPath(w, r)
	if !ok {
		return
	}

	sets, err := segment.Segment(swim.Laps)
	if err != nil {
		// Stored laps are written in order; this indicates a data bug.
		s.log.Error("segmentation failed", "swim", swim.ID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"swimId": swim.ID,
		"sets":   buildSetViews(sets),
	})
}

func (s *Server) handleSetTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.db.QuerySetTemplates(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	start, end, err := parseTimeRange(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	stats, err := s.db.GetSwimStats(r.Context(), start, end)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) swimFromPath(w http.ResponseWriter, r *http.Request) (*models.Swim, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid swim ID"})
		return nil, false
	}
	swim, err := s.db.GetSwim(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "swim not found"})
		return nil, false
	}
	return swim, true
}

// setView flattens a workout set's derived aggregates for the API.
type setView struct {
	SetNumber      int                 `json:"setNumber"`
	StrokeStyle    *models.StrokeStyle `json:"strokeStyle,omitempty"`
	TotalSeconds   float64             `json:"totalSeconds"`
	AverageSeconds float64             `json:"averageSeconds"`
	AverageSwolf   *float64            `json:"averageSwolf,omitempty"`
	Swims          []swimView          `json:"consecutiveSwims"`
}

type swimView struct {
	StartLapNumber   int                 `json:"startLapNumber"`
	StrokeStyle      *models.StrokeStyle `json:"strokeStyle,omitempty"`
	IndividualMedley bool                `json:"isIndividualMedley"`
	TotalSeconds     float64             `json:"totalSeconds"`
	AverageSeconds   float64             `json:"averageSeconds"`
	AverageSwolf     *float64            `json:"averageSwolf,omitempty"`
	Laps             []models.Lap        `json:"laps"`
}

func buildSetViews(sets []segment.WorkoutSet) []setView {
	views := make([]setView, 0, len(sets))
	for _, set := range sets {
		sv := setView{
			SetNumber:      set.SetNumber,
			StrokeStyle:    set.StrokeStyle(),
			TotalSeconds:   set.TotalTime().Seconds(),
			AverageSeconds: set.AverageTime().Seconds(),
			AverageSwolf:   set.AverageSwolf(),
		}
		for _, swim := range set.Swims {
			sv.Swims = append(sv.Swims, swimView{
				StartLapNumber:   swim.StartLapNumber,
				StrokeStyle:      swim.EffectiveStrokeStyle(),
				IndividualMedley: swim.IsIndividualMedley(),
				TotalSeconds:     swim.TotalTime().Seconds(),
				AverageSeconds:   swim.AverageTime().Seconds(),
				AverageSwolf:     swim.AverageSwolf(),
				Laps:             swim.Laps,
			})
		}
		views = append(views, sv)
	}
	return views
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func parseTimeRange(r *http.Request) (start, end time.Time, err error) {
	startStr := r.URL.Query().Get("start")
	endStr := r.URL.Query().Get("end")

	if startStr == "" {
		// Default: last 30 days
		end = time.Now()
		start = end.AddDate(0, 0, -30)
		return
	}

	start, err = parseFlexTime(startStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if endStr == "" {
		end = time.Now()
	} else {
		end, err = parseFlexTime(endStr)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	return
}

func parseFlexTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err == nil {
		return t, nil
	}
	t, err = time.Parse("2006-01-02", s)
	if err == nil {
		return t, nil
	}
	return time.Time{}, err
}
