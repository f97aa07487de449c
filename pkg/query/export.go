package query

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/snafflertools/consolidator/pkg/scanlog"
)

// ExportHeader is the fixed column header of every CSV export.
var ExportHeader = []string{
	"Timestamp",
	"Log Entry Type",
	"Triage Level",
	"Matched Rule Name",
	"R/RW",
	"File Size",
	"File Last Modified",
	"Server",
	"Full File Path",
	"Match Context",
}

// WriteCSV streams every record matching the triage filter to w as CSV, in
// store arrival order: the header once, then one row per match, flushed per
// row so transmission is incremental. Match context is written in full. A
// consumer that stops reading surfaces a write error, which stops the scan;
// no work continues past it.
func (h *Handler) WriteCSV(w io.Writer, filters []string) error {
	match := newTriageFilter(filters)
	cw := csv.NewWriter(w)

	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	rows := 0
	scanErr := h.store.Scan(func(rec *scanlog.Record) bool {
		if !match(rec.TriageLevel) {
			return true
		}
		if err := cw.Write(rec.CSVRow()); err != nil {
			return false
		}
		cw.Flush()
		if cw.Error() != nil {
			return false
		}
		rows++
		return true
	})
	if scanErr != nil {
		return scanErr
	}
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to stream export: %w", err)
	}

	if h.metric != nil {
		h.metric.AddExportRows(rows)
	}
	h.log.Info().Int("rows", rows).Msg("export streamed")
	return nil
}
