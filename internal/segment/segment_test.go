package segment

import (
	"errors"
	"testing"
	"time"

	"github.com/ggfincke/swimmate/internal/models"
)

var base = time.Date(2026, 3, 14, 7, 0, 0, 0, time.UTC)

// lapSpec builds laps sequentially: each lap swims for dur, then rests for
// rest before the next one starts.
type lapSpec struct {
	style *models.StrokeStyle
	dur   time.Duration
	rest  time.Duration
	swolf *float64
}

func style(s models.StrokeStyle) *models.StrokeStyle { return &s }

func swolf(v float64) *float64 { return &v }

func buildLaps(specs []lapSpec) []models.Lap {
	laps := make([]models.Lap, 0, len(specs))
	t := base
	for _, sp := range specs {
		laps = append(laps, models.Lap{
			StartTime:       t,
			EndTime:         t.Add(sp.dur),
			StrokeStyle:     sp.style,
			EfficiencyScore: sp.swolf,
		})
		t = t.Add(sp.dur + sp.rest)
	}
	return laps
}

func TestSegmentEmpty(t *testing.T) {
	sets, err := Segment(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 0 {
		t.Errorf("sets = %d, want 0", len(sets))
	}
}

func TestSegmentUnsorted(t *testing.T) {
	laps := []models.Lap{
		{StartTime: base.Add(time.Minute), EndTime: base.Add(2 * time.Minute)},
		{StartTime: base, EndTime: base.Add(30 * time.Second)},
	}
	if _, err := Segment(laps); !errors.Is(err, ErrUnsortedLaps) {
		t.Fatalf("err = %v, want ErrUnsortedLaps", err)
	}
}

// TestSegmentSimpleSet: 4 freestyle laps of 45s with 3s rests form a single
// set with a single consecutive swim. Total time sums lap durations only.
func TestSegmentSimpleSet(t *testing.T) {
	laps := buildLaps([]lapSpec{
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 3 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 3 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 3 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second},
	})

	sets, err := Segment(laps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("sets = %d, want 1", len(sets))
	}
	set := sets[0]
	if set.SetNumber != 1 {
		t.Errorf("setNumber = %d, want 1", set.SetNumber)
	}
	if len(set.Swims) != 1 {
		t.Fatalf("swims = %d, want 1", len(set.Swims))
	}
	swim := set.Swims[0]
	if len(swim.Laps) != 4 {
		t.Errorf("laps = %d, want 4", len(swim.Laps))
	}
	if swim.StartLapNumber != 1 {
		t.Errorf("startLapNumber = %d, want 1", swim.StartLapNumber)
	}
	if got := swim.TotalTime(); got != 180*time.Second {
		t.Errorf("totalTime = %v, want 3m0s", got)
	}
	if got := swim.AverageTime(); got != 45*time.Second {
		t.Errorf("averageTime = %v, want 45s", got)
	}
	if got := set.StrokeStyle(); got == nil || *got != models.StrokeFreestyle {
		t.Errorf("set stroke = %v, want freestyle", got)
	}
}

// TestSegmentTwoSets: two freestyle laps split by a 90s rest exceed the 60s
// set threshold and land in separate sets.
func TestSegmentTwoSets(t *testing.T) {
	laps := buildLaps([]lapSpec{
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 90 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second},
	})

	sets, err := Segment(laps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(sets))
	}
	for i, set := range sets {
		if set.SetNumber != i+1 {
			t.Errorf("set %d: setNumber = %d", i, set.SetNumber)
		}
		if len(set.Swims) != 1 || len(set.Swims[0].Laps) != 1 {
			t.Errorf("set %d: want 1 swim of 1 lap", i)
		}
	}
	if sets[1].Swims[0].StartLapNumber != 2 {
		t.Errorf("second swim startLapNumber = %d, want 2", sets[1].Swims[0].StartLapNumber)
	}
}

// TestConsecutiveThresholdBoundary: rest of exactly 5s merges (inclusive
// threshold); a hair over does not.
func TestConsecutiveThresholdBoundary(t *testing.T) {
	tests := []struct {
		name      string
		rest      time.Duration
		wantSwims int
	}{
		{"exactly 5s merges", 5 * time.Second, 1},
		{"5.0001s splits", 5*time.Second + 100*time.Microsecond, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			laps := buildLaps([]lapSpec{
				{style: style(models.StrokeFreestyle), dur: 40 * time.Second, rest: tt.rest},
				{style: style(models.StrokeFreestyle), dur: 40 * time.Second},
			})
			sets, err := Segment(laps)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			total := 0
			for _, set := range sets {
				total += len(set.Swims)
			}
			if total != tt.wantSwims {
				t.Errorf("consecutive swims = %d, want %d", total, tt.wantSwims)
			}
		})
	}
}

// TestSetThresholdBoundary: a 60s rest between same-stroke swims still merges
// into one set.
func TestSetThresholdBoundary(t *testing.T) {
	laps := buildLaps([]lapSpec{
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 60 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second},
	})
	sets, err := Segment(laps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 1 {
		t.Fatalf("sets = %d, want 1", len(sets))
	}
	if len(sets[0].Swims) != 2 {
		t.Errorf("swims = %d, want 2", len(sets[0].Swims))
	}
}

// TestIndividualMedley: exactly fly-back-breast-free with short rests is one
// swim reporting mixed; the same strokes reordered report the first lap's
// style instead.
func TestIndividualMedley(t *testing.T) {
	im := buildLaps([]lapSpec{
		{style: style(models.StrokeButterfly), dur: 30 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeBackstroke), dur: 32 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeBreaststroke), dur: 35 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 28 * time.Second},
	})

	sets, err := Segment(im)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 1 || len(sets[0].Swims) != 1 {
		t.Fatalf("want 1 set with 1 swim, got %d sets", len(sets))
	}
	swim := sets[0].Swims[0]
	if !swim.IsIndividualMedley() {
		t.Error("IsIndividualMedley = false, want true")
	}
	if got := swim.EffectiveStrokeStyle(); got == nil || *got != models.StrokeMixed {
		t.Errorf("effective stroke = %v, want mixed", got)
	}

	// Reordered: back-fly-breast-free is not a medley (exact sequence, not a
	// multiset match).
	reordered := buildLaps([]lapSpec{
		{style: style(models.StrokeBackstroke), dur: 32 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeButterfly), dur: 30 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeBreaststroke), dur: 35 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 28 * time.Second},
	})
	sets, err = Segment(reordered)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	swim = sets[0].Swims[0]
	if swim.IsIndividualMedley() {
		t.Error("reordered group reported as medley")
	}
	if got := swim.EffectiveStrokeStyle(); got == nil || *got != models.StrokeBackstroke {
		t.Errorf("effective stroke = %v, want backstroke", got)
	}
}

// TestMedleyDoesNotMergeWithNeighbors: a medley swim next to a freestyle swim
// never shares a set, even within the rest threshold.
func TestMedleyDoesNotMergeWithNeighbors(t *testing.T) {
	laps := buildLaps([]lapSpec{
		{style: style(models.StrokeButterfly), dur: 30 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeBackstroke), dur: 32 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeBreaststroke), dur: 35 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 28 * time.Second, rest: 30 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second},
	})
	sets, err := Segment(laps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 2 {
		t.Fatalf("sets = %d, want 2", len(sets))
	}
	if got := sets[0].StrokeStyle(); got == nil || *got != models.StrokeMixed {
		t.Errorf("first set stroke = %v, want mixed", got)
	}
	if got := sets[1].StrokeStyle(); got == nil || *got != models.StrokeFreestyle {
		t.Errorf("second set stroke = %v, want freestyle", got)
	}
}

// TestNilStrokeNeverMerges: unclassified swims never merge across swims, not
// even with another unclassified swim.
func TestNilStrokeNeverMerges(t *testing.T) {
	laps := buildLaps([]lapSpec{
		{dur: 40 * time.Second, rest: 20 * time.Second},
		{dur: 40 * time.Second},
	})
	sets, err := Segment(laps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 2 {
		t.Errorf("sets = %d, want 2 (nil is not a wildcard)", len(sets))
	}
}

// TestStrokeChangeSplitsSet: stroke change within the rest threshold still
// starts a new set.
func TestStrokeChangeSplitsSet(t *testing.T) {
	laps := buildLaps([]lapSpec{
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 30 * time.Second},
		{style: style(models.StrokeBackstroke), dur: 50 * time.Second},
	})
	sets, err := Segment(laps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 2 {
		t.Errorf("sets = %d, want 2", len(sets))
	}
}

// TestSegmentPartition: every input lap appears exactly once, in order,
// across the set/swim hierarchy, and group numbering is sequential.
func TestSegmentPartition(t *testing.T) {
	laps := buildLaps([]lapSpec{
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 3 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 44 * time.Second, rest: 20 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 46 * time.Second, rest: 2 * time.Minute},
		{style: style(models.StrokeBackstroke), dur: 50 * time.Second, rest: 4 * time.Second},
		{style: style(models.StrokeBackstroke), dur: 52 * time.Second, rest: 10 * time.Minute},
		{dur: 60 * time.Second},
	})

	sets, err := Segment(laps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var flat []models.Lap
	for i, set := range sets {
		if set.SetNumber != i+1 {
			t.Errorf("set %d: setNumber = %d", i, set.SetNumber)
		}
		for _, swim := range set.Swims {
			if swim.StartLapNumber != len(flat)+1 {
				t.Errorf("swim startLapNumber = %d, want %d", swim.StartLapNumber, len(flat)+1)
			}
			flat = append(flat, swim.Laps...)
		}
	}
	if len(flat) != len(laps) {
		t.Fatalf("partition covers %d laps, want %d", len(flat), len(laps))
	}
	for i := range laps {
		if !flat[i].StartTime.Equal(laps[i].StartTime) {
			t.Errorf("lap %d out of order", i+1)
		}
	}
}

// TestSegmentIdempotent: re-flattening the output and segmenting again
// reproduces the same grouping.
func TestSegmentIdempotent(t *testing.T) {
	laps := buildLaps([]lapSpec{
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 3 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 44 * time.Second, rest: 90 * time.Second},
		{style: style(models.StrokeButterfly), dur: 30 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeBackstroke), dur: 32 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeBreaststroke), dur: 35 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 28 * time.Second},
	})

	first, err := Segment(laps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var flat []models.Lap
	for _, set := range first {
		for _, swim := range set.Swims {
			flat = append(flat, swim.Laps...)
		}
	}

	second, err := Segment(flat)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second) != len(first) {
		t.Fatalf("sets = %d, want %d", len(second), len(first))
	}
	for i := range first {
		if len(second[i].Swims) != len(first[i].Swims) {
			t.Errorf("set %d: swims = %d, want %d", i+1, len(second[i].Swims), len(first[i].Swims))
		}
	}
}

// TestAverageSwolf: swim average ignores laps without a score; set average is
// the mean of per-swim averages.
func TestAverageSwolf(t *testing.T) {
	laps := buildLaps([]lapSpec{
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 3 * time.Second, swolf: swolf(38)},
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 3 * time.Second},
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 30 * time.Second, swolf: swolf(42)},
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, swolf: swolf(50)},
	})
	sets, err := Segment(laps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 1 || len(sets[0].Swims) != 2 {
		t.Fatalf("want 1 set with 2 swims")
	}
	if got := sets[0].Swims[0].AverageSwolf(); got == nil || *got != 40 {
		t.Errorf("swim 1 swolf = %v, want 40", got)
	}
	if got := sets[0].Swims[1].AverageSwolf(); got == nil || *got != 50 {
		t.Errorf("swim 2 swolf = %v, want 50", got)
	}
	if got := sets[0].AverageSwolf(); got == nil || *got != 45 {
		t.Errorf("set swolf = %v, want 45", got)
	}
}

// TestIsolatedLaps: every lap isolated by long rest yields N singleton sets.
func TestIsolatedLaps(t *testing.T) {
	laps := buildLaps([]lapSpec{
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 5 * time.Minute},
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second, rest: 5 * time.Minute},
		{style: style(models.StrokeFreestyle), dur: 45 * time.Second},
	})
	sets, err := Segment(laps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sets) != 3 {
		t.Fatalf("sets = %d, want 3", len(sets))
	}
	for i, set := range sets {
		if len(set.Swims) != 1 || len(set.Swims[0].Laps) != 1 {
			t.Errorf("set %d is not a singleton", i+1)
		}
	}
}

// TestFourLapsWrongStyleNotMedley: four kickboard laps are not a medley.
func TestFourLapsWrongStyleNotMedley(t *testing.T) {
	laps := buildLaps([]lapSpec{
		{style: style(models.StrokeKickboard), dur: 40 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeKickboard), dur: 40 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeKickboard), dur: 40 * time.Second, rest: 2 * time.Second},
		{style: style(models.StrokeKickboard), dur: 40 * time.Second},
	})
	sets, err := Segment(laps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	swim := sets[0].Swims[0]
	if swim.IsIndividualMedley() {
		t.Error("kickboard group reported as medley")
	}
	if got := swim.EffectiveStrokeStyle(); got == nil || *got != models.StrokeKickboard {
		t.Errorf("effective stroke = %v, want kickboard", got)
	}
}
