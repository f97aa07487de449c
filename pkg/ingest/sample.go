package ingest

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/snafflertools/consolidator/pkg/scanlog"
)

const rawPreviewLen = 300

// SampleLine pairs one raw input line with its parse outcome. Used to
// validate the grammar against a new log sample without a full ingest.
type SampleLine struct {
	LineNum int            `json:"line_num"`
	Raw     string         `json:"raw"`
	Parsed  *scanlog.Entry `json:"parsed"`
	Matched bool           `json:"matched"`
}

// Sample runs a diagnostic pass over the first maxLines lines of src
// (falling back to the configured depth when maxLines <= 0). Blank lines
// consume a slot but produce no result, matching a plain head-of-file view.
func (h *Handler) Sample(src io.Reader, maxLines int) ([]SampleLine, error) {
	if maxLines <= 0 {
		maxLines = h.config.SampleLines
	}

	results := make([]SampleLine, 0, maxLines)
	reader := bufio.NewReaderSize(src, h.config.ReadBufferBytes)
	for i := 0; i < maxLines; i++ {
		line, readErr := reader.ReadString('\n')
		if readErr != nil && readErr != io.EOF {
			return nil, fmt.Errorf("failed to read sample: %w", readErr)
		}
		if stripped := strings.TrimSpace(line); stripped != "" {
			var parsed *scanlog.Entry
			if rec := scanlog.Extract(scanlog.Classify(stripped), stripped); rec != nil {
				e := rec.Entry()
				parsed = &e
			}
			results = append(results, SampleLine{
				LineNum: i + 1,
				Raw:     scanlog.Truncate(stripped, rawPreviewLen),
				Parsed:  parsed,
				Matched: parsed != nil,
			})
		}
		if readErr == io.EOF {
			break
		}
	}
	return results, nil
}
