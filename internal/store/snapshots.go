package store

import (
	"database/sql"
	"fmt"
	"strings"
)

const snapshotCols = `id, counter_id, count, recorded_at, target, edited_count`

func (s *Store) InsertSnapshot(sn Snapshot) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO snapshots (counter_id, count, recorded_at, target, edited_count) VALUES (?, ?, ?, ?, ?)`,
		sn.CounterID, sn.Count, sn.RecordedAt, sn.Target, sn.EditedCount,
	)
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return res.LastInsertId()
}

// ListSnapshots returns all snapshots for a counter in chronological order.
func (s *Store) ListSnapshots(counterID int64) ([]Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT `+snapshotCols+` FROM snapshots WHERE counter_id = ? ORDER BY recorded_at ASC`,
		counterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	return collectSnapshots(rows)
}

// ListSnapshotsForCadence returns snapshots of every counter with the given
// cadence, grouped by counter and chronological within each group. Used by the
// weekly cleanup pass.
func (s *Store) ListSnapshotsForCadence(cadence Cadence) ([]Snapshot, error) {
	rows, err := s.db.Query(
		`SELECT sn.id, sn.counter_id, sn.count, sn.recorded_at, sn.target, sn.edited_count
		 FROM snapshots sn
		 JOIN counters c ON c.id = sn.counter_id
		 WHERE c.cadence = ?
		 ORDER BY sn.counter_id, sn.recorded_at`,
		string(cadence),
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots for cadence %s: %w", cadence, err)
	}
	return collectSnapshots(rows)
}

// MostRecentSnapshot returns the latest snapshot for a counter, or nil when
// none has been recorded yet.
func (s *Store) MostRecentSnapshot(counterID int64) (*Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT `+snapshotCols+` FROM snapshots WHERE counter_id = ? ORDER BY recorded_at DESC LIMIT 1`,
		counterID,
	)
	sn, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("most recent snapshot: %w", err)
	}
	return sn, nil
}

// SnapshotByDay returns the snapshot recorded on the same UTC calendar day as
// the given instant, or nil.
func (s *Store) SnapshotByDay(counterID, dayMillis int64) (*Snapshot, error) {
	row := s.db.QueryRow(
		`SELECT `+snapshotCols+` FROM snapshots
		 WHERE counter_id = ?
		   AND strftime('%Y-%m-%d', recorded_at / 1000, 'unixepoch') = strftime('%Y-%m-%d', ? / 1000, 'unixepoch')`,
		counterID, dayMillis,
	)
	sn, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot by day: %w", err)
	}
	return sn, nil
}

// AdjustCurrentCount applies a +/- delta to the counter's most recent snapshot
// and refreshes its timestamp to now. No-op when the counter has no snapshot.
func (s *Store) AdjustCurrentCount(counterID int64, delta int, nowMillis int64) error {
	sn, err := s.MostRecentSnapshot(counterID)
	if err != nil {
		return err
	}
	if sn == nil {
		return nil
	}
	_, err = s.db.Exec(
		`UPDATE snapshots SET count = ?, recorded_at = ? WHERE id = ?`,
		sn.Value()+delta, nowMillis, sn.ID,
	)
	if err != nil {
		return fmt.Errorf("adjust count: %w", err)
	}
	// The delta applies on top of the effective value, so any correction is
	// now folded into count.
	_, err = s.db.Exec(`UPDATE snapshots SET edited_count = NULL WHERE id = ?`, sn.ID)
	return err
}

// UpdateSnapshotEditedCount sets (or clears, with nil) the user correction on
// the snapshot recorded on the given UTC day.
func (s *Store) UpdateSnapshotEditedCount(counterID, dayMillis int64, edited *int) error {
	_, err := s.db.Exec(
		`UPDATE snapshots SET edited_count = ?
		 WHERE counter_id = ?
		   AND strftime('%Y-%m-%d', recorded_at / 1000, 'unixepoch') = strftime('%Y-%m-%d', ? / 1000, 'unixepoch')`,
		edited, counterID, dayMillis,
	)
	if err != nil {
		return fmt.Errorf("update edited count: %w", err)
	}
	return nil
}

func (s *Store) DeleteSnapshot(id int64) error {
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE id = ?`, id)
	return err
}

// DeleteSnapshots removes a batch of snapshots by id.
func (s *Store) DeleteSnapshots(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.Exec(`DELETE FROM snapshots WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("delete snapshots: %w", err)
	}
	return nil
}

// DeleteSnapshotByDay removes the snapshot recorded on the given UTC day.
func (s *Store) DeleteSnapshotByDay(counterID, dayMillis int64) error {
	_, err := s.db.Exec(
		`DELETE FROM snapshots
		 WHERE counter_id = ?
		   AND strftime('%Y-%m-%d', recorded_at / 1000, 'unixepoch') = strftime('%Y-%m-%d', ? / 1000, 'unixepoch')`,
		counterID, dayMillis,
	)
	return err
}

// CleanupDailyZeroSnapshots deletes daily-cadence rows that carry no
// information (count 0, no correction), always keeping each counter's last
// remaining row.
func (s *Store) CleanupDailyZeroSnapshots() error {
	_, err := s.db.Exec(`
		DELETE FROM snapshots
		WHERE id IN (
			SELECT sn.id
			FROM snapshots sn
			JOIN counters c ON c.id = sn.counter_id
			WHERE c.cadence = 'daily'
			  AND sn.count = 0
			  AND (sn.edited_count = 0 OR sn.edited_count IS NULL)
			  AND EXISTS (
				SELECT 1 FROM snapshots other
				WHERE other.counter_id = sn.counter_id AND other.id != sn.id
			  )
		)`)
	if err != nil {
		return fmt.Errorf("cleanup daily snapshots: %w", err)
	}
	return nil
}

func collectSnapshots(rows *sql.Rows) ([]Snapshot, error) {
	defer rows.Close()
	var out []Snapshot
	for rows.Next() {
		sn, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sn)
	}
	return out, rows.Err()
}

func scanSnapshot(r rowScanner) (*Snapshot, error) {
	sn := &Snapshot{}
	var target, edited sql.NullInt64
	if err := r.Scan(&sn.ID, &sn.CounterID, &sn.Count, &sn.RecordedAt, &target, &edited); err != nil {
		return nil, err
	}
	if target.Valid {
		t := int(target.Int64)
		sn.Target = &t
	}
	if edited.Valid {
		e := int(edited.Int64)
		sn.EditedCount = &e
	}
	return sn, nil
}
