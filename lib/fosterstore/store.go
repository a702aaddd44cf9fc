// Package fosterstore keeps a per-run record of every foster parent's
// historical counts, so that experience and loss-rate trends survive
// between daily reports.
package fosterstore

import (
	"context"
	"database/sql"
	"time"

	"fosterassist/lib/timezone"

	_ "embed"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

type Store struct {
	db *sql.DB
}

func NewStore(database *sql.DB) Store {
	return Store{db: database}
}

type PersonSnapshot struct {
	PersonID             int
	FosterCount          int
	EuthanizedCount      int
	UnassistedDeathCount int
	LossRate             float64
}

type PushRequest struct {
	Time    time.Time
	Persons []PersonSnapshot
}

// Push records one snapshot per person for the given run. Re-running
// the report on the same day replaces that day's snapshots instead of
// stacking duplicates.
func (s Store) Push(ctx context.Context, req PushRequest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	startOfToday := time.Date(req.Time.Year(), req.Time.Month(), req.Time.Day(), 0, 0, 0, 0, timezone.Location).Unix()
	startOfTomorrow := time.Date(req.Time.Year(), req.Time.Month(), req.Time.Day()+1, 0, 0, 0, 0, timezone.Location).Unix()

	for _, p := range req.Persons {
		_, err = tx.ExecContext(
			ctx,
			`DELETE FROM history_snapshot WHERE person_id = ? AND time >= ? AND time < ?`,
			p.PersonID, startOfToday, startOfTomorrow,
		)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(
			ctx,
			`INSERT INTO history_snapshot
				(person_id, time, foster_count, euthanized_count, unassisted_death_count, loss_rate)
				VALUES (?, ?, ?, ?, ?, ?)`,
			p.PersonID, req.Time.Unix(), p.FosterCount, p.EuthanizedCount, p.UnassistedDeathCount, p.LossRate,
		)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

type Snapshot struct {
	Time                 time.Time
	FosterCount          int
	EuthanizedCount      int
	UnassistedDeathCount int
	LossRate             float64
}

func (s Store) Pull(ctx context.Context, personID int) ([]Snapshot, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT time, foster_count, euthanized_count, unassisted_death_count, loss_rate
			FROM history_snapshot WHERE person_id = ? ORDER BY time ASC`,
		personID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []Snapshot
	for rows.Next() {
		var unix int64
		var snap Snapshot
		err = rows.Scan(
			&unix,
			&snap.FosterCount,
			&snap.EuthanizedCount,
			&snap.UnassistedDeathCount,
			&snap.LossRate,
		)
		if err != nil {
			return nil, err
		}
		snap.Time = time.Unix(unix, 0)
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}
