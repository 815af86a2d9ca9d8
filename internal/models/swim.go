package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StrokeStyle is the stroke classification attached to a lap. Styles arrive
// pre-classified from the platform tracking service; StrokeMixed is synthetic
// and only ever assigned by the segmenter to an individual-medley group.
type StrokeStyle string

const (
	StrokeUnknown      StrokeStyle = "unknown"
	StrokeMixed        StrokeStyle = "mixed"
	StrokeFreestyle    StrokeStyle = "freestyle"
	StrokeBackstroke   StrokeStyle = "backstroke"
	StrokeBreaststroke StrokeStyle = "breaststroke"
	StrokeButterfly    StrokeStyle = "butterfly"
	StrokeKickboard    StrokeStyle = "kickboard"
)

// ParseStrokeStyle validates a stroke style string.
func ParseStrokeStyle(s string) (StrokeStyle, error) {
	switch StrokeStyle(s) {
	case StrokeUnknown, StrokeMixed, StrokeFreestyle, StrokeBackstroke,
		StrokeBreaststroke, StrokeButterfly, StrokeKickboard:
		return StrokeStyle(s), nil
	}
	return "", fmt.Errorf("unknown stroke style %q", s)
}

// LocationType distinguishes pool swims from open-water swims.
type LocationType string

const (
	LocationPool      LocationType = "pool"
	LocationOpenWater LocationType = "openWater"
)

// PoolUnit is the measurement unit of a pool length.
type PoolUnit string

const (
	PoolMeters PoolUnit = "meters"
	PoolYards  PoolUnit = "yards"
)

// Lap is an immutable record of one completed length.
type Lap struct {
	StartTime       time.Time    `json:"startTime"`
	EndTime         time.Time    `json:"endTime"`
	StrokeStyle     *StrokeStyle `json:"strokeStyle,omitempty"`
	EfficiencyScore *float64     `json:"efficiencyScore,omitempty"`
}

// Duration returns the lap's elapsed time.
func (l Lap) Duration() time.Duration {
	return l.EndTime.Sub(l.StartTime)
}

// Swim is the finished-workout snapshot produced when a session ends.
// Immutable once returned; safe to share across goroutines.
type Swim struct {
	ID                uuid.UUID    `json:"id"`
	StartTime         time.Time    `json:"startTime"`
	EndTime           time.Time    `json:"endTime"`
	LocationType      LocationType `json:"locationType"`
	PoolLength        *float64     `json:"poolLength,omitempty"`
	PoolUnit          *PoolUnit    `json:"poolUnit,omitempty"`
	TotalDistance     *float64     `json:"totalDistance,omitempty"`
	TotalEnergyBurned *float64     `json:"totalEnergyBurned,omitempty"`
	Laps              []Lap        `json:"laps"`
}

// Duration returns the swim's elapsed time.
func (s Swim) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// Validate checks the structural invariants every ingest boundary relies on:
// positive swim duration, each lap's end after its start, and laps
// non-decreasing by start time.
func (s Swim) Validate() error {
	if s.ID == uuid.Nil {
		return fmt.Errorf("swim missing id")
	}
	if !s.EndTime.After(s.StartTime) {
		return fmt.Errorf("swim end %v not after start %v", s.EndTime, s.StartTime)
	}
	if s.LocationType != LocationPool && s.LocationType != LocationOpenWater {
		return fmt.Errorf("invalid location type %q", s.LocationType)
	}
	for i, lap := range s.Laps {
		if !lap.EndTime.After(lap.StartTime) {
			return fmt.Errorf("lap %d: end %v not after start %v", i+1, lap.EndTime, lap.StartTime)
		}
		if lap.StrokeStyle != nil {
			if _, err := ParseStrokeStyle(string(*lap.StrokeStyle)); err != nil {
				return fmt.Errorf("lap %d: %w", i+1, err)
			}
		}
		if i > 0 && lap.StartTime.Before(s.Laps[i-1].StartTime) {
			return fmt.Errorf("lap %d starts before lap %d", i+1, i)
		}
	}
	return nil
}
