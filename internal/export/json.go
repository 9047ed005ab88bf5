package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/tally/internal/store"
)

type jsonExport struct {
	ExportedAt string         `json:"exported_at"`
	Count      int            `json:"count"`
	Snapshots  []jsonSnapshot `json:"snapshots"`
}

type jsonSnapshot struct {
	ID        int64  `json:"id"`
	Counter   string `json:"counter"`
	CounterID int64  `json:"counter_id"`
	Cadence   string `json:"cadence,omitempty"`
	Recorded  string `json:"recorded_at"`
	Count     int    `json:"count"`
	Edited    *int   `json:"edited_count,omitempty"`
	Target    *int   `json:"target,omitempty"`
}

func ToJSON(snapshots []store.Snapshot, counters map[int64]*store.Counter, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(snapshots),
	}

	for _, sn := range snapshots {
		counterName := "Unknown"
		cadence := ""
		if c, ok := counters[sn.CounterID]; ok {
			counterName = c.Name
			cadence = string(c.Cadence)
		}

		export.Snapshots = append(export.Snapshots, jsonSnapshot{
			ID:        sn.ID,
			Counter:   counterName,
			CounterID: sn.CounterID,
			Cadence:   cadence,
			Recorded:  formatTimestamp(sn.RecordedAt),
			Count:     sn.Count,
			Edited:    sn.EditedCount,
			Target:    sn.Target,
		})
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
