package models

import "time"

// SampleType identifies a statistic stream from the platform tracking service.
type SampleType string

const (
	SampleHeartRate    SampleType = "heart_rate"
	SampleActiveEnergy SampleType = "active_energy"
	SampleDistance     SampleType = "distance"
)

// StatisticSample is one typed statistic delivered asynchronously during a
// live session. Cumulative samples (energy, distance) carry a running total,
// not a delta. Instantaneous samples (heart rate) may also carry a
// separately-reported average.
type StatisticSample struct {
	Type       SampleType `json:"sampleType"`
	Value      float64    `json:"value"`
	Average    *float64   `json:"average,omitempty"`
	Cumulative bool       `json:"isCumulative"`
	Timestamp  time.Time  `json:"timestamp"`
}
