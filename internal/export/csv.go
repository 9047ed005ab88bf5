package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/tally/internal/store"
)

func ToCSV(snapshots []store.Snapshot, counters map[int64]*store.Counter, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	// Header
	if err := w.Write([]string{"ID", "Counter", "Cadence", "Recorded", "Count", "Edited", "Target"}); err != nil {
		return err
	}

	for _, sn := range snapshots {
		counterName := "Unknown"
		cadence := ""
		if c, ok := counters[sn.CounterID]; ok {
			counterName = c.Name
			cadence = c.Cadence.Label()
		}

		row := []string{
			strconv.FormatInt(sn.ID, 10),
			counterName,
			cadence,
			formatTimestamp(sn.RecordedAt),
			strconv.Itoa(sn.Count),
			formatOptional(sn.EditedCount),
			formatOptional(sn.Target),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	return w.Error()
}

func formatTimestamp(millis int64) string {
	return time.UnixMilli(millis).UTC().Format(time.RFC3339)
}

func formatOptional(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
