package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedSetMessage marks a peer-device set message missing a required
// field. Receivers drop these at the boundary; they never reach the session.
var ErrMalformedSetMessage = errors.New("malformed set message")

// MeasureUnit is the distance unit of a trainable set definition.
type MeasureUnit string

const (
	UnitMeters MeasureUnit = "meters"
	UnitYards  MeasureUnit = "yards"
)

// Difficulty grades a trainable set definition.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// SetMessage is the peer-device (phone to watch) schema for a trainable set
// definition. Description and details are optional; everything else is
// required.
type SetMessage struct {
	Title         string      `json:"title"`
	StrokeStyle   StrokeStyle `json:"strokeStyle"`
	TotalDistance int         `json:"totalDistance"`
	MeasureUnit   MeasureUnit `json:"measureUnit"`
	Difficulty    Difficulty  `json:"difficulty"`
	Description   string      `json:"description"`
	Details       []string    `json:"details"`
}

// DecodeSetMessage parses and validates a peer-device message. A message
// missing any required field is rejected whole — never partially constructed.
func DecodeSetMessage(data []byte) (*SetMessage, error) {
	var m SetMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSetMessage, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks required fields and enum values.
func (m *SetMessage) Validate() error {
	if m.Title == "" {
		return fmt.Errorf("%w: missing title", ErrMalformedSetMessage)
	}
	if m.StrokeStyle == "" {
		return fmt.Errorf("%w: missing strokeStyle", ErrMalformedSetMessage)
	}
	if _, err := ParseStrokeStyle(string(m.StrokeStyle)); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSetMessage, err)
	}
	if m.TotalDistance <= 0 {
		return fmt.Errorf("%w: missing totalDistance", ErrMalformedSetMessage)
	}
	switch m.MeasureUnit {
	case UnitMeters, UnitYards:
	default:
		return fmt.Errorf("%w: invalid measureUnit %q", ErrMalformedSetMessage, m.MeasureUnit)
	}
	switch m.Difficulty {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
	default:
		return fmt.Errorf("%w: invalid difficulty %q", ErrMalformedSetMessage, m.Difficulty)
	}
	return nil
}
