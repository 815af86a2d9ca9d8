package storage

import (
	"context"
	"fmt"

	"github.com/ggfincke/swimmate/internal/models"
)

// InsertSetTemplate stores an accepted peer-device set definition. Duplicate
// titles replace the previous definition; the phone is the source of truth.
func (db *DB) InsertSetTemplate(ctx context.Context, m models.SetMessage) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO set_templates (title, stroke_style, total_distance,
		 measure_unit, difficulty, description, details)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (title) DO UPDATE SET
		   stroke_style = EXCLUDED.stroke_style,
		   total_distance = EXCLUDED.total_distance,
		   measure_unit = EXCLUDED.measure_unit,
		   difficulty = EXCLUDED.difficulty,
		   description = EXCLUDED.description,
		   details = EXCLUDED.details`,
		m.Title, m.StrokeStyle, m.TotalDistance, m.MeasureUnit,
		m.Difficulty, m.Description, m.Details)
	if err != nil {
		return fmt.Errorf("inserting set template: %w", err)
	}
	return nil
}

// QuerySetTemplates lists stored set definitions by title.
func (db *DB) QuerySetTemplates(ctx context.Context) ([]models.SetMessage, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT title, stroke_style, total_distance, measure_unit, difficulty,
		 description, details FROM set_templates ORDER BY title ASC`)
	if err != nil {
		return nil, fmt.Errorf("querying set templates: %w", err)
	}
	defer rows.Close()

	var result []models.SetMessage
	for rows.Next() {
		var m models.SetMessage
		if err := rows.Scan(&m.Title, &m.StrokeStyle, &m.TotalDistance,
			&m.MeasureUnit, &m.Difficulty, &m.Description, &m.Details); err != nil {
			return nil, fmt.Errorf("scanning set template: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}
