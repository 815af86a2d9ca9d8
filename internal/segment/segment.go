// Package segment transforms the flat lap list of a finished swim into the
// repeat/set hierarchy used for display and analysis. The transformation is
// pure: it only reads a frozen lap slice and is safe to run from any
// goroutine.
package segment

import (
	"errors"
	"time"

	"github.com/ggfincke/swimmate/internal/models"
)

const (
	// ConsecutiveThreshold is the longest rest that still counts as the same
	// physical repeat (a tumble-turn pause, not a wall stop). Inclusive.
	ConsecutiveThreshold = 5 * time.Second

	// SetThreshold is the longest rest that still counts as the same training
	// set of repeats (e.g. a 1:00 rest interval). Inclusive.
	SetThreshold = 60 * time.Second
)

// ErrUnsortedLaps is returned when the input violates the sorted-by-start-time
// precondition. Callers own ordering; the segmenter fails fast instead of
// sorting so upstream ordering bugs surface during testing.
var ErrUnsortedLaps = errors.New("laps not sorted by start time")

// medleyOrder is the exact stroke sequence of an individual medley.
var medleyOrder = [4]models.StrokeStyle{
	models.StrokeButterfly,
	models.StrokeBackstroke,
	models.StrokeBreaststroke,
	models.StrokeFreestyle,
}

// ConsecutiveSwim is a run of laps separated by rests of at most
// ConsecutiveThreshold — one physical repeat. Produced only by Segment and
// never mutated afterward.
type ConsecutiveSwim struct {
	Laps           []models.Lap `json:"laps"`
	StartLapNumber int          `json:"startLapNumber"`
}

// StrokeStyle returns the first lap's stroke style.
func (c ConsecutiveSwim) StrokeStyle() *models.StrokeStyle {
	return c.Laps[0].StrokeStyle
}

// TotalTime sums lap durations only; rest between laps is excluded.
func (c ConsecutiveSwim) TotalTime() time.Duration {
	var total time.Duration
	for _, lap := range c.Laps {
		total += lap.Duration()
	}
	return total
}

// AverageTime returns the mean lap duration.
func (c ConsecutiveSwim) AverageTime() time.Duration {
	return c.TotalTime() / time.Duration(len(c.Laps))
}

// AverageSwolf returns the mean of the laps' efficiency scores, ignoring laps
// without one. Nil when no lap carries a score.
func (c ConsecutiveSwim) AverageSwolf() *float64 {
	var sum float64
	var n int
	for _, lap := range c.Laps {
		if lap.EfficiencyScore != nil {
			sum += *lap.EfficiencyScore
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// IsIndividualMedley reports whether this group is exactly the four-lap
// butterfly, backstroke, breaststroke, freestyle sequence. The check is
// exact-order: the same four strokes in any other order do not qualify.
func (c ConsecutiveSwim) IsIndividualMedley() bool {
	if len(c.Laps) != len(medleyOrder) {
		return false
	}
	for i, lap := range c.Laps {
		if lap.StrokeStyle == nil || *lap.StrokeStyle != medleyOrder[i] {
			return false
		}
	}
	return true
}

// EffectiveStrokeStyle is the style used for set grouping: mixed for an
// individual medley, otherwise the first lap's style. A medley is one
// four-stroke repeat semantically and must not merge with neighboring
// same-stroke swims under the generic stroke-equality rule.
func (c ConsecutiveSwim) EffectiveStrokeStyle() *models.StrokeStyle {
	if c.IsIndividualMedley() {
		mixed := models.StrokeMixed
		return &mixed
	}
	return c.StrokeStyle()
}

func (c ConsecutiveSwim) firstLap() models.Lap { return c.Laps[0] }
func (c ConsecutiveSwim) lastLap() models.Lap  { return c.Laps[len(c.Laps)-1] }

// WorkoutSet is a run of consecutive swims with matching effective stroke
// style and rests of at most SetThreshold — one training set of repeats.
type WorkoutSet struct {
	Swims     []ConsecutiveSwim `json:"consecutiveSwims"`
	SetNumber int               `json:"setNumber"`
}

// StrokeStyle returns the first swim's effective stroke style.
func (s WorkoutSet) StrokeStyle() *models.StrokeStyle {
	return s.Swims[0].EffectiveStrokeStyle()
}

// TotalTime sums the swims' total times.
func (s WorkoutSet) TotalTime() time.Duration {
	var total time.Duration
	for _, sw := range s.Swims {
		total += sw.TotalTime()
	}
	return total
}

// AverageTime returns the mean swim total time.
func (s WorkoutSet) AverageTime() time.Duration {
	return s.TotalTime() / time.Duration(len(s.Swims))
}

// AverageSwolf returns the mean of the per-swim average scores. Nil when no
// swim carries one.
func (s WorkoutSet) AverageSwolf() *float64 {
	var sum float64
	var n int
	for _, sw := range s.Swims {
		if avg := sw.AverageSwolf(); avg != nil {
			sum += *avg
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}

// Segment groups time-ordered laps into consecutive swims, then consecutive
// swims into workout sets. Every input lap lands in exactly one swim in
// exactly one set, in original order. Empty input yields empty output.
func Segment(laps []models.Lap) ([]WorkoutSet, error) {
	for i := 1; i < len(laps); i++ {
		if laps[i].StartTime.Before(laps[i-1].StartTime) {
			return nil, ErrUnsortedLaps
		}
	}
	if len(laps) == 0 {
		return nil, nil
	}
	return groupSets(groupConsecutive(laps)), nil
}

// groupConsecutive walks laps in order, closing the open group whenever the
// rest to the next lap exceeds ConsecutiveThreshold.
func groupConsecutive(laps []models.Lap) []ConsecutiveSwim {
	var swims []ConsecutiveSwim
	groupStart := 0
	for i := 1; i <= len(laps); i++ {
		if i < len(laps) {
			rest := laps[i].StartTime.Sub(laps[i-1].EndTime)
			if rest <= ConsecutiveThreshold {
				continue
			}
		}
		swims = append(swims, ConsecutiveSwim{
			Laps:           laps[groupStart:i],
			StartLapNumber: groupStart + 1,
		})
		groupStart = i
	}
	return swims
}

// groupSets walks the consecutive swims in order, closing the open set
// whenever the rest to the next swim exceeds SetThreshold or the effective
// stroke style changes. An unclassified (nil) style never merges, not even
// with another nil.
func groupSets(swims []ConsecutiveSwim) []WorkoutSet {
	var sets []WorkoutSet
	setStart := 0
	for i := 1; i <= len(swims); i++ {
		if i < len(swims) {
			rest := swims[i].firstLap().StartTime.Sub(swims[i-1].lastLap().EndTime)
			if rest <= SetThreshold && strokesMatch(swims[i-1].EffectiveStrokeStyle(), swims[i].EffectiveStrokeStyle()) {
				continue
			}
		}
		sets = append(sets, WorkoutSet{
			Swims:     swims[setStart:i],
			SetNumber: len(sets) + 1,
		})
		setStart = i
	}
	return sets
}

func strokesMatch(a, b *models.StrokeStyle) bool {
	return a != nil && b != nil && *a == *b
}
