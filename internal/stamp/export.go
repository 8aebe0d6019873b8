package stamp

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"time"
)

// ExportFileName returns the backup file name for the given day and
// extension, e.g. PhilatelyAI_Backup_2026-10-19.json.
func ExportFileName(now time.Time, ext string) string {
	return fmt.Sprintf("PhilatelyAI_Backup_%s.%s", now.Format("2006-01-02"), ext)
}

// ExportJSON serializes the full collection as an indented JSON array.
func ExportJSON(stamps []Stamp) ([]byte, error) {
	if stamps == nil {
		stamps = []Stamp{}
	}
	data, err := json.MarshalIndent(stamps, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal collection: %w", err)
	}
	return data, nil
}

var csvHeader = []string{
	"id", "name", "origin", "year", "estimatedValue", "rarity", "condition", "description",
	"dateAdded", "expertStatus", "expertValuation", "expertNote", "album",
	"historicalContext", "printingMethod", "paperType", "cancellationType",
}

// ExportCSV serializes the collection without images, one row per stamp.
func ExportCSV(stamps []Stamp) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, s := range stamps {
		row := []string{
			s.ID, s.Name, s.Origin, s.Year, s.EstimatedValue, s.Rarity, s.Condition, s.Description,
			s.DateAdded.Format(time.RFC3339), string(s.ExpertStatus), s.ExpertValuation, s.ExpertNote, s.Album,
			Deref(s.HistoricalContext), Deref(s.PrintingMethod), Deref(s.PaperType), Deref(s.CancellationType),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row %s: %w", s.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
