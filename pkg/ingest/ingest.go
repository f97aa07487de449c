package ingest

import (
	"bufio"
	"context"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/kumarabd/gokit/logger"
	"github.com/snafflertools/consolidator/internal/metrics"
	"github.com/snafflertools/consolidator/pkg/scanlog"
	"github.com/snafflertools/consolidator/pkg/store"
)

// Config contains configuration for the ingest pipeline.
type Config struct {
	ReadBufferBytes int `json:"read_buffer_bytes" yaml:"read_buffer_bytes" default:"65536"` // line reader buffer
	SampleLines     int `json:"sample_lines" yaml:"sample_lines" default:"50"`              // debug sample depth
}

// Skip reasons for lines dropped without producing a record. Ignored banners
// and truly unparseable lines are counted apart so format drift in the
// upstream tool shows up as a growing unrecognized count instead of silent
// data loss.
const (
	skipBanner       = "banner"
	skipUnrecognized = "unrecognized"
	skipMalformed    = "malformed"
)

// Handler runs ingest passes over uploaded scan logs.
type Handler struct {
	config *Config
	log    *logger.Handler
	metric *metrics.Handler
}

// NewHandler creates a new ingest handler.
func NewHandler(config *Config, log *logger.Handler, metric *metrics.Handler) (*Handler, error) {
	return &Handler{
		config: config,
		log:    log,
		metric: metric,
	}, nil
}

// Run streams src through the classifier and extractor, appending every
// extracted record to st in arrival order. size is the total source length
// in bytes and drives progress computation.
//
// Events are delivered on an unbuffered channel: production is fully
// demand-driven, and cancelling ctx (or abandoning the channel with ctx
// cancelled) stops the pass. The channel is closed after the single terminal
// event. The caller owns src's lifecycle; the pipeline only reads it, once.
func (h *Handler) Run(ctx context.Context, src io.Reader, size int64, st *store.Store) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		h.run(ctx, src, size, st, events)
	}()
	return events
}

type sessionCounts struct {
	lines        int
	entries      int
	banner       int
	unrecognized int
	malformed    int
	triage       map[string]int
}

func (h *Handler) run(ctx context.Context, src io.Reader, size int64, st *store.Store, events chan<- Event) {
	start := time.Now()

	w, err := st.Begin()
	if err != nil {
		emit(ctx, events, Failure{Error: err.Error()})
		return
	}

	counts := sessionCounts{triage: make(map[string]int)}
	var bytesRead int64
	lastProgress := -1

	reader := bufio.NewReaderSize(src, h.config.ReadBufferBytes)
	for {
		line, readErr := reader.ReadString('\n')
		if len(line) > 0 {
			counts.lines++
			bytesRead += int64(len(line))

			if err := h.processLine(line, w, &counts); err != nil {
				w.Close()
				h.log.Error().Err(err).Int("line", counts.lines).Msg("ingest aborted")
				emit(ctx, events, Failure{Error: err.Error()})
				return
			}

			if size > 0 {
				if p := int(bytesRead * 100 / size); p > lastProgress {
					lastProgress = p
					ev := Progress{Progress: p, Entries: counts.entries, Lines: counts.lines}
					if !emit(ctx, events, ev) {
						w.Close()
						return
					}
				}
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			w.Close()
			h.log.Error().Err(readErr).Int("line", counts.lines).Msg("ingest read failed")
			emit(ctx, events, Failure{Error: readErr.Error()})
			return
		}
	}

	if err := w.Close(); err != nil {
		emit(ctx, events, Failure{Error: err.Error()})
		return
	}

	levels := make([]string, 0, len(counts.triage))
	for level := range counts.triage {
		levels = append(levels, level)
	}
	sort.Strings(levels)

	if h.metric != nil {
		h.metric.AddLinesProcessed(counts.lines)
		h.metric.ObserveIngestDuration(time.Since(start))
	}
	h.log.Info().
		Int("lines", counts.lines).
		Int("entries", counts.entries).
		Int("banner_lines", counts.banner).
		Int("unrecognized_lines", counts.unrecognized).
		Int("malformed_lines", counts.malformed).
		Dur("elapsed", time.Since(start)).
		Msg("parse complete")

	emit(ctx, events, Summary{
		Done:         true,
		TotalEntries: counts.entries,
		TriageLevels: levels,
		TriageCounts: counts.triage,
	})
}

// processLine classifies and extracts one raw line, appending any resulting
// record. Parsing failures are data-level omissions, never errors; only
// store writes can fail.
func (h *Handler) processLine(line string, w *store.Writer, counts *sessionCounts) error {
	trimmed := strings.TrimSpace(line)

	class := scanlog.Classify(trimmed)
	switch class {
	case scanlog.ClassIgnore:
		if trimmed != "" {
			counts.banner++
			if h.metric != nil {
				h.metric.IncLinesSkipped(skipBanner)
			}
		}
		return nil
	case scanlog.ClassUnrecognized:
		counts.unrecognized++
		if h.metric != nil {
			h.metric.IncLinesSkipped(skipUnrecognized)
		}
		return nil
	}

	rec := scanlog.Extract(class, trimmed)
	if rec == nil {
		counts.malformed++
		if h.metric != nil {
			h.metric.IncLinesSkipped(skipMalformed)
		}
		return nil
	}

	if err := w.Append(rec); err != nil {
		return err
	}
	counts.entries++
	counts.triage[rec.TriageLevel]++
	if h.metric != nil {
		h.metric.IncRecordsExtracted(string(rec.Kind))
	}
	return nil
}

// emit delivers ev unless the consumer has gone away.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
