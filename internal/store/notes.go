package store

import (
	"database/sql"
	"fmt"
)

// ListNotes returns all notes for a counter in chronological order.
func (s *Store) ListNotes(counterID int64) ([]Note, error) {
	rows, err := s.db.Query(
		`SELECT counter_id, recorded_at, body FROM notes WHERE counter_id = ? ORDER BY recorded_at`,
		counterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.CounterID, &n.RecordedAt, &n.Body); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// NoteByDay returns the note for the given UTC calendar day, or nil.
func (s *Store) NoteByDay(counterID, dayMillis int64) (*Note, error) {
	n := &Note{}
	err := s.db.QueryRow(
		`SELECT counter_id, recorded_at, body FROM notes
		 WHERE counter_id = ?
		   AND strftime('%Y-%m-%d', recorded_at / 1000, 'unixepoch') = strftime('%Y-%m-%d', ? / 1000, 'unixepoch')`,
		counterID, dayMillis,
	).Scan(&n.CounterID, &n.RecordedAt, &n.Body)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("note by day: %w", err)
	}
	return n, nil
}

// SaveNote inserts or updates the note for a day. An empty body deletes it, so
// at most one note exists per counter per day.
func (s *Store) SaveNote(counterID, dayMillis int64, body string) error {
	if body == "" {
		return s.DeleteNote(counterID, dayMillis)
	}
	existing, err := s.NoteByDay(counterID, dayMillis)
	if err != nil {
		return err
	}
	if existing != nil {
		_, err = s.db.Exec(
			`UPDATE notes SET body = ? WHERE counter_id = ? AND recorded_at = ?`,
			body, existing.CounterID, existing.RecordedAt,
		)
		return err
	}
	_, err = s.db.Exec(
		`INSERT INTO notes (counter_id, recorded_at, body) VALUES (?, ?, ?)`,
		counterID, dayMillis, body,
	)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// DeleteNote removes the note for the given UTC calendar day.
func (s *Store) DeleteNote(counterID, dayMillis int64) error {
	_, err := s.db.Exec(
		`DELETE FROM notes
		 WHERE counter_id = ?
		   AND strftime('%Y-%m-%d', recorded_at / 1000, 'unixepoch') = strftime('%Y-%m-%d', ? / 1000, 'unixepoch')`,
		counterID, dayMillis,
	)
	return err
}
