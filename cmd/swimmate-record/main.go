package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ggfincke/swimmate/internal/models"
	"github.com/ggfincke/swimmate/internal/session"
)

// Replays a scripted workout through the live session state machine and emits
// the frozen swim as JSON. With -url the swim is also posted to a SwimMate
// server's ingest endpoint, so a recorded session lands in the same store as
// imported ones.
func main() {
	scriptPath := flag.String("script", "", "path to workout script JSON (required)")
	speed := flag.Float64("speed", 1, "time compression factor (60 = one scripted minute per second)")
	serverURL := flag.String("url", "", "SwimMate server base URL to post the swim to")
	apiKey := flag.String("api-key", "", "API key for the ingest endpoint")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *scriptPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: swimmate-record -script workout.json [-speed 60] [-url http://... -api-key KEY]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *speed <= 0 {
		log.Error("speed must be positive", "speed", *speed)
		os.Exit(1)
	}

	script, err := loadScript(*scriptPath)
	if err != nil {
		log.Error("failed to load script", "error", err)
		os.Exit(1)
	}

	swim, err := replay(script, *speed, log)
	if err != nil {
		log.Error("replay failed", "error", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(swim, "", "  ")
	if err != nil {
		log.Error("encoding swim failed", "error", err)
		os.Exit(1)
	}
	fmt.Println(string(out))

	if *serverURL != "" {
		if err := postSwim(*serverURL, *apiKey, out); err != nil {
			log.Error("posting swim failed", "error", err)
			os.Exit(1)
		}
		log.Info("swim posted", "id", swim.ID, "url", *serverURL)
	}
}

// Script is a recorded workout: the pool setup plus a timed event sequence.
type Script struct {
	Location   models.LocationType `json:"locationType"`
	PoolLength *float64            `json:"poolLength,omitempty"`
	PoolUnit   *models.PoolUnit    `json:"poolUnit,omitempty"`
	Events     []ScriptEvent       `json:"events"`
}

// ScriptEvent is one step. After is the scripted delay before it fires.
// Types: lap, sample, pause, resume.
type ScriptEvent struct {
	Type   string   `json:"type"`
	After  string   `json:"after"`
	Stroke string   `json:"stroke,omitempty"`
	Swolf  *float64 `json:"swolf,omitempty"`

	Sample  string   `json:"sample,omitempty"`
	Value   float64  `json:"value,omitempty"`
	Average *float64 `json:"average,omitempty"`
}

func loadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if s.Location == "" {
		s.Location = models.LocationPool
	}
	return &s, nil
}

// mailboxTracker acknowledges start/stop requests through the mailbox, the
// same asynchronous path a platform tracking service would use.
type mailboxTracker struct {
	mb *session.Mailbox
}

func (t *mailboxTracker) StartCollection(_ context.Context, _ session.Config) error {
	go t.mb.Deliver(session.Event{Kind: session.EventCollectionStarted})
	return nil
}

func (t *mailboxTracker) StopCollection(_ context.Context) error {
	go t.mb.Deliver(session.Event{Kind: session.EventCollectionStopped, Timestamp: time.Now()})
	return nil
}

func replay(script *Script, speed float64, log *slog.Logger) (*models.Swim, error) {
	tracker := &mailboxTracker{}
	sess := session.New(tracker, log)
	mb := session.NewMailbox(sess, 64)
	tracker.mb = mb

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mb.Start(ctx)

	cfg := session.Config{
		Location:   script.Location,
		PoolLength: script.PoolLength,
		PoolUnit:   script.PoolUnit,
	}
	if err := sess.Start(ctx, cfg); err != nil {
		return nil, err
	}
	if err := waitForState(sess, session.StateRunning); err != nil {
		return nil, err
	}

	for i, ev := range script.Events {
		if ev.After != "" {
			d, err := time.ParseDuration(ev.After)
			if err != nil {
				return nil, fmt.Errorf("event %d: bad duration %q: %w", i, ev.After, err)
			}
			time.Sleep(time.Duration(float64(d) / speed))
		}

		switch ev.Type {
		case "lap":
			var style *models.StrokeStyle
			if ev.Stroke != "" {
				parsed, err := models.ParseStrokeStyle(ev.Stroke)
				if err != nil {
					return nil, fmt.Errorf("event %d: %w", i, err)
				}
				style = &parsed
			}
			if err := mb.Deliver(session.Event{Kind: session.EventLap, StrokeStyle: style, EfficiencyScore: ev.Swolf}); err != nil {
				return nil, err
			}
		case "sample":
			sample := models.StatisticSample{
				Type:      models.SampleType(ev.Sample),
				Value:     ev.Value,
				Average:   ev.Average,
				Timestamp: time.Now(),
			}
			if err := mb.Deliver(session.Event{Kind: session.EventStatistic, Sample: sample}); err != nil {
				return nil, err
			}
		case "pause":
			sess.Pause()
		case "resume":
			sess.Resume()
		default:
			return nil, fmt.Errorf("event %d: unknown type %q", i, ev.Type)
		}
	}

	if err := sess.End(ctx); err != nil {
		return nil, err
	}
	if err := waitForState(sess, session.StateEnded); err != nil {
		return nil, err
	}

	swim, err := sess.Result()
	if err != nil {
		return swim, err
	}
	return swim, nil
}

// waitForState polls for an asynchronous transition; failure states surface
// the session's terminal error.
func waitForState(sess *session.Session, want session.State) error {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		switch sess.State() {
		case want:
			return nil
		case session.StateFailed:
			_, err := sess.Result()
			return err
		}
		time.Sleep(5 * time.Millisecond)
	}
	return fmt.Errorf("timed out waiting for state %v", want)
}

func postSwim(baseURL, apiKey string, body []byte) error {
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/v1/ingest", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ingest returned %d", resp.StatusCode)
	}
	return nil
}
