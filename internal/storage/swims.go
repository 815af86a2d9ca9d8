package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ggfincke/swimmate/internal/models"
	"github.com/google/uuid"
)

// SwimSummary is a swim row without its laps, for list views.
type SwimSummary struct {
	ID                uuid.UUID           `json:"id"`
	StartTime         time.Time           `json:"startTime"`
	EndTime           time.Time           `json:"endTime"`
	LocationType      models.LocationType `json:"locationType"`
	PoolLength        *float64            `json:"poolLength,omitempty"`
	PoolUnit          *models.PoolUnit    `json:"poolUnit,omitempty"`
	TotalDistance     *float64            `json:"totalDistance,omitempty"`
	TotalEnergyBurned *float64            `json:"totalEnergyBurned,omitempty"`
	LapCount          int                 `json:"lapCount"`
}

// InsertSwim inserts a swim and its laps. Re-inserting the same swim ID is a
// no-op, so imports are idempotent. Returns true when the swim was new.
func (db *DB) InsertSwim(ctx context.Context, swim models.Swim) (bool, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`INSERT INTO swims (id, start_time, end_time, location_type, pool_length,
		 pool_unit, total_distance, total_energy_burned)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8) ON CONFLICT (id) DO NOTHING`,
		swim.ID, swim.StartTime, swim.EndTime, swim.LocationType,
		swim.PoolLength, swim.PoolUnit, swim.TotalDistance, swim.TotalEnergyBurned)
	if err != nil {
		return false, fmt.Errorf("inserting swim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if len(swim.Laps) > 0 {
		query := `INSERT INTO swim_laps (swim_id, lap_number, start_time, end_time,
			stroke_style, efficiency_score) VALUES `
		args := make([]any, 0, len(swim.Laps)*6)
		valueStrings := make([]string, 0, len(swim.Laps))
		for i, lap := range swim.Laps {
			base := i * 6
			valueStrings = append(valueStrings, fmt.Sprintf(
				"($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6))
			args = append(args, swim.ID, i+1, lap.StartTime, lap.EndTime,
				lap.StrokeStyle, lap.EfficiencyScore)
		}
		query += strings.Join(valueStrings, ",")
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return false, fmt.Errorf("inserting laps: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing swim: %w", err)
	}
	return true, nil
}

// QuerySwims retrieves swim summaries in a time range, newest first.
func (db *DB) QuerySwims(ctx context.Context, start, end time.Time) ([]SwimSummary, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT s.id, s.start_time, s.end_time, s.location_type, s.pool_length,
		 s.pool_unit, s.total_distance, s.total_energy_burned,
		 (SELECT COUNT(*) FROM swim_laps l WHERE l.swim_id = s.id)
		 FROM swims s
		 WHERE s.start_time >= $1 AND s.start_time < $2
		 ORDER BY s.start_time DESC`,
		start, end)
	if err != nil {
		return nil, fmt.Errorf("querying swims: %w", err)
	}
	defer rows.Close()

	var result []SwimSummary
	for rows.Next() {
		var s SwimSummary
		if err := rows.Scan(&s.ID, &s.StartTime, &s.EndTime, &s.LocationType,
			&s.PoolLength, &s.PoolUnit, &s.TotalDistance, &s.TotalEnergyBurned,
			&s.LapCount); err != nil {
			return nil, fmt.Errorf("scanning swim: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// GetSwim retrieves a full swim with its laps in lap order.
func (db *DB) GetSwim(ctx context.Context, id uuid.UUID) (*models.Swim, error) {
	var swim models.Swim
	err := db.Pool.QueryRow(ctx,
		`SELECT id, start_time, end_time, location_type, pool_length, pool_unit,
		 total_distance, total_energy_burned FROM swims WHERE id = $1`, id).
		Scan(&swim.ID, &swim.StartTime, &swim.EndTime, &swim.LocationType,
			&swim.PoolLength, &swim.PoolUnit, &swim.TotalDistance, &swim.TotalEnergyBurned)
	if err != nil {
		return nil, fmt.Errorf("querying swim %s: %w", id, err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT start_time, end_time, stroke_style, efficiency_score
		 FROM swim_laps WHERE swim_id = $1 ORDER BY lap_number ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("querying laps for %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var lap models.Lap
		if err := rows.Scan(&lap.StartTime, &lap.EndTime, &lap.StrokeStyle,
			&lap.EfficiencyScore); err != nil {
			return nil, fmt.Errorf("scanning lap: %w", err)
		}
		swim.Laps = append(swim.Laps, lap)
	}
	return &swim, rows.Err()
}

// SwimStats aggregates swims over a time range.
type SwimStats struct {
	SwimCount     int      `json:"swimCount"`
	LapCount      int      `json:"lapCount"`
	TotalDistance *float64 `json:"totalDistance,omitempty"`
	TotalEnergy   *float64 `json:"totalEnergy,omitempty"`
	TotalSeconds  float64  `json:"totalSeconds"`
}

// GetSwimStats computes aggregate totals over a time range.
func (db *DB) GetSwimStats(ctx context.Context, start, end time.Time) (*SwimStats, error) {
	var stats SwimStats
	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*),
		 COALESCE((SELECT COUNT(*) FROM swim_laps l
		   JOIN swims s2 ON s2.id = l.swim_id
		   WHERE s2.start_time >= $1 AND s2.start_time < $2), 0),
		 SUM(total_distance), SUM(total_energy_burned),
		 COALESCE(SUM(EXTRACT(EPOCH FROM (end_time - start_time))), 0)
		 FROM swims WHERE start_time >= $1 AND start_time < $2`,
		start, end).
		Scan(&stats.SwimCount, &stats.LapCount, &stats.TotalDistance,
			&stats.TotalEnergy, &stats.TotalSeconds)
	if err != nil {
		return nil, fmt.Errorf("querying swim stats: %w", err)
	}
	return &stats, nil
}
