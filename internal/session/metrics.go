package session

import "github.com/ggfincke/swimmate/internal/models"

// Metrics is a point-in-time snapshot of the aggregator. Nil fields have not
// been reported yet.
type Metrics struct {
	CurrentHeartRate *float64
	AverageHeartRate *float64
	ActiveEnergy     *float64
	Distance         *float64
}

// Aggregator folds the statistic sample stream into current/average values.
// It is a monotone-per-field projection of the most recent report: cumulative
// types replace the running total outright (the tracking service reports
// running sums, not deltas), instantaneous types update current and, when
// present, a separately-reported average. No rollback, no undo.
//
// Not safe for concurrent use on its own; the owning Session serializes
// access.
type Aggregator struct {
	currentHeartRate *float64
	averageHeartRate *float64
	activeEnergy     *float64
	distance         *float64
}

// Ingest applies one sample. Unknown sample types are ignored, not errors.
func (a *Aggregator) Ingest(s models.StatisticSample) {
	switch s.Type {
	case models.SampleHeartRate:
		v := s.Value
		a.currentHeartRate = &v
		if s.Average != nil {
			avg := *s.Average
			a.averageHeartRate = &avg
		}
	case models.SampleActiveEnergy:
		v := s.Value
		a.activeEnergy = &v
	case models.SampleDistance:
		v := s.Value
		a.distance = &v
	}
}

// Snapshot copies the current values.
func (a *Aggregator) Snapshot() Metrics {
	return Metrics{
		CurrentHeartRate: copyFloat(a.currentHeartRate),
		AverageHeartRate: copyFloat(a.averageHeartRate),
		ActiveEnergy:     copyFloat(a.activeEnergy),
		Distance:         copyFloat(a.distance),
	}
}

func (a *Aggregator) reset() {
	*a = Aggregator{}
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
