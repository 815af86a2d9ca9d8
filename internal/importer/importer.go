package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ggfincke/swimmate/internal/models"
	"github.com/ggfincke/swimmate/internal/storage"
)

// SwimStore is the storage surface the importer needs. *storage.DB satisfies
// it; tests substitute a fake.
type SwimStore interface {
	InsertSwim(ctx context.Context, swim models.Swim) (bool, error)
}

var _ SwimStore = (*storage.DB)(nil)

// Stats tracks import progress.
type Stats struct {
	FilesProcessed int
	FilesSkipped   int
	FilesErrored   int

	SwimsInserted   int
	SwimsDuplicated int
	LapsInserted    int
}

// Importer reads swim export .json files from a directory and inserts them
// into the store. A SQLite state database records which files were already
// imported so repeat runs only pick up new exports.
type Importer struct {
	db     SwimStore
	state  *StateDB
	log    *slog.Logger
	dryRun bool
	stats  Stats
}

// New creates a new Importer. state may be nil, in which case every file is
// considered fresh.
func New(db SwimStore, state *StateDB, log *slog.Logger, dryRun bool) *Importer {
	return &Importer{db: db, state: state, log: log, dryRun: dryRun}
}

// Import processes all .json files under the given export directory.
func (imp *Importer) Import(ctx context.Context, exportDir string) (*Stats, error) {
	files, err := filepath.Glob(filepath.Join(exportDir, "*.json"))
	if err != nil {
		return &imp.stats, fmt.Errorf("listing %s: %w", exportDir, err)
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return &imp.stats, err
		}
		if err := imp.importFile(ctx, f); err != nil {
			return &imp.stats, err
		}
	}

	return &imp.stats, nil
}

func (imp *Importer) importFile(ctx context.Context, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		imp.log.Warn("stat failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	var hash string
	if imp.state != nil {
		hash, err = HashFile(path)
		if err != nil {
			imp.log.Warn("hash failed", "file", path, "error", err)
			imp.stats.FilesErrored++
			return nil
		}
		done, err := imp.state.IsImported(filepath.Base(path), info.Size(), hash)
		if err != nil {
			return fmt.Errorf("checking import state for %s: %w", path, err)
		}
		if done {
			imp.stats.FilesSkipped++
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		imp.log.Warn("read failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	var swim models.Swim
	if err := json.Unmarshal(data, &swim); err != nil {
		imp.log.Warn("parse failed", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}
	if err := swim.Validate(); err != nil {
		imp.log.Warn("invalid swim", "file", path, "error", err)
		imp.stats.FilesErrored++
		return nil
	}

	imp.stats.FilesProcessed++
	if imp.dryRun {
		imp.stats.SwimsInserted++
		imp.stats.LapsInserted += len(swim.Laps)
		return nil
	}

	inserted, err := imp.db.InsertSwim(ctx, swim)
	if err != nil {
		return fmt.Errorf("inserting swim %s from %s: %w", swim.ID, filepath.Base(path), err)
	}
	if inserted {
		imp.stats.SwimsInserted++
		imp.stats.LapsInserted += len(swim.Laps)
	} else {
		imp.stats.SwimsDuplicated++
	}

	if imp.state != nil {
		if err := imp.state.MarkImported(filepath.Base(path), info.Size(), hash); err != nil {
			return fmt.Errorf("marking %s imported: %w", path, err)
		}
	}
	return nil
}
