package store

import (
	"database/sql"
	"fmt"
)

func (s *Store) CreateCounter(name, icon string, cadence Cadence, target *int, createdAt int64) (*Counter, error) {
	res, err := s.db.Exec(
		`INSERT INTO counters (name, icon, cadence, target, created_at) VALUES (?, ?, ?, ?, ?)`,
		name, icon, string(cadence), target, createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert counter: %w", err)
	}
	id, _ := res.LastInsertId()
	return s.CounterByID(id)
}

func (s *Store) CounterByID(id int64) (*Counter, error) {
	row := s.db.QueryRow(
		`SELECT id, name, icon, cadence, target, archived, created_at FROM counters WHERE id = ?`, id,
	)
	c, err := scanCounter(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get counter %d: %w", id, err)
	}
	return c, nil
}

// ListCounters returns counters ordered by name. With activeOnly set, archived
// counters are excluded.
func (s *Store) ListCounters(activeOnly bool) ([]Counter, error) {
	query := `SELECT id, name, icon, cadence, target, archived, created_at FROM counters`
	if activeOnly {
		query += ` WHERE archived = 0`
	}
	query += ` ORDER BY name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list counters: %w", err)
	}
	defer rows.Close()

	var counters []Counter
	for rows.Next() {
		c, err := scanCounter(rows)
		if err != nil {
			return nil, err
		}
		counters = append(counters, *c)
	}
	return counters, rows.Err()
}

// ListCountersWithCount joins each counter with its most recent snapshot so
// the list view can show the live value without reconstructing history.
func (s *Store) ListCountersWithCount(includeArchived bool) ([]CounterWithCount, error) {
	query := `
		SELECT c.id, c.name, c.icon, c.cadence, c.target, c.archived, c.created_at,
		       sn.id, COALESCE(sn.edited_count, sn.count, 0)
		FROM counters c
		LEFT JOIN (
			SELECT counter_id, MAX(recorded_at) AS max_recorded
			FROM snapshots
			GROUP BY counter_id
		) latest ON latest.counter_id = c.id
		LEFT JOIN snapshots sn
			ON sn.counter_id = c.id AND sn.recorded_at = latest.max_recorded`
	if !includeArchived {
		query += ` WHERE c.archived = 0`
	}
	query += ` ORDER BY c.name`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list counters with count: %w", err)
	}
	defer rows.Close()

	var out []CounterWithCount
	for rows.Next() {
		var cw CounterWithCount
		var cadence string
		var target, snapshotID sql.NullInt64
		var count sql.NullInt64
		var archived int
		if err := rows.Scan(&cw.ID, &cw.Name, &cw.Icon, &cadence, &target, &archived, &cw.CreatedAt,
			&snapshotID, &count); err != nil {
			return nil, err
		}
		cw.Cadence, err = ParseCadence(cadence)
		if err != nil {
			return nil, err
		}
		cw.Archived = archived == 1
		if target.Valid {
			t := int(target.Int64)
			cw.Target = &t
		}
		if snapshotID.Valid {
			cw.SnapshotID = &snapshotID.Int64
		}
		cw.CurrentCount = int(count.Int64)
		out = append(out, cw)
	}
	return out, rows.Err()
}

// UpdateCounter edits name, icon and target. Cadence is immutable after
// creation; the most recent snapshot's target follows the counter's.
func (s *Store) UpdateCounter(id int64, name, icon string, target *int) error {
	if _, err := s.db.Exec(
		`UPDATE counters SET name = ?, icon = ?, target = ? WHERE id = ?`,
		name, icon, target, id,
	); err != nil {
		return fmt.Errorf("update counter %d: %w", id, err)
	}
	_, err := s.db.Exec(
		`UPDATE snapshots SET target = ?
		 WHERE counter_id = ? AND recorded_at = (
			SELECT MAX(recorded_at) FROM snapshots WHERE counter_id = ?
		 )`,
		target, id, id,
	)
	return err
}

func (s *Store) SetCounterArchived(id int64, archived bool) error {
	v := 0
	if archived {
		v = 1
	}
	_, err := s.db.Exec(`UPDATE counters SET archived = ? WHERE id = ?`, v, id)
	return err
}

// DeleteCounter removes the counter; snapshots and notes cascade.
func (s *Store) DeleteCounter(id int64) error {
	_, err := s.db.Exec(`DELETE FROM counters WHERE id = ?`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCounter(r rowScanner) (*Counter, error) {
	c := &Counter{}
	var cadence string
	var target sql.NullInt64
	var archived int
	if err := r.Scan(&c.ID, &c.Name, &c.Icon, &cadence, &target, &archived, &c.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	c.Cadence, err = ParseCadence(cadence)
	if err != nil {
		return nil, err
	}
	if target.Valid {
		t := int(target.Int64)
		c.Target = &t
	}
	c.Archived = archived == 1
	return c, nil
}
