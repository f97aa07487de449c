package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/kumarabd/gokit/logger"
	"github.com/snafflertools/consolidator/internal/metrics"
	"github.com/snafflertools/consolidator/pkg/cache"
	"github.com/snafflertools/consolidator/pkg/scanlog"
	"github.com/snafflertools/consolidator/pkg/store"
)

// maxContextLen caps match-context text in query results. Export output is
// never truncated.
const maxContextLen = 200

// Handler serves read-only, arrival-ordered views over the intermediate
// store. It must not run concurrently with an ingest writing the same store;
// session coordination belongs to the caller.
type Handler struct {
	store  *store.Store
	cache  *cache.Handler
	log    *logger.Handler
	metric *metrics.Handler
}

// New creates a query handler over st. The cache holds built result pages
// for the current store generation.
func New(st *store.Store, c *cache.Handler, log *logger.Handler, metric *metrics.Handler) *Handler {
	return &Handler{
		store:  st,
		cache:  c,
		log:    log,
		metric: metric,
	}
}

// Result is one page of filtered records.
type Result struct {
	Entries    []scanlog.Entry `json:"entries"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
}

// Query scans the store in arrival order, counting every record matching the
// triage filter and materializing only the requested page, so memory stays
// O(perPage). An empty filter set matches everything. Non-positive paging
// inputs are clamped; rejecting them is the HTTP boundary's job.
func (h *Handler) Query(filters []string, page, perPage int) (*Result, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 1
	}

	key := cacheKey(filters, page, perPage)
	if h.cache != nil {
		if cached, ok := h.cache.Get(key); ok {
			if res, ok := cached.(*Result); ok {
				if h.metric != nil {
					h.metric.IncQueryCacheHit()
				}
				return res, nil
			}
		}
		if h.metric != nil {
			h.metric.IncQueryCacheMiss()
		}
	}

	match := newTriageFilter(filters)
	skip := (page - 1) * perPage
	res := &Result{
		Entries: make([]scanlog.Entry, 0, perPage),
		Page:    page,
		PerPage: perPage,
	}

	err := h.store.Scan(func(rec *scanlog.Record) bool {
		if !match(rec.TriageLevel) {
			return true
		}
		res.Total++
		if res.Total > skip && len(res.Entries) < perPage {
			e := rec.Entry()
			e.MatchContext = scanlog.Truncate(e.MatchContext, maxContextLen)
			res.Entries = append(res.Entries, e)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	res.TotalPages = 1
	if res.Total > 0 {
		res.TotalPages = (res.Total + perPage - 1) / perPage
	}

	if h.cache != nil {
		h.cache.Set(key, res)
	}
	return res, nil
}

// Invalidate drops all cached result pages. Called when the store generation
// changes (new ingest or clear).
func (h *Handler) Invalidate() {
	if h.cache != nil {
		h.cache.Flush()
	}
}

// newTriageFilter builds a membership predicate over triage levels. An empty
// set means no filtering.
func newTriageFilter(filters []string) func(string) bool {
	if len(filters) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(filters))
	for _, f := range filters {
		set[f] = struct{}{}
	}
	return func(level string) bool {
		_, ok := set[level]
		return ok
	}
}

// cacheKey derives a stable key from the filter set and paging window.
// Filters are sorted so equivalent sets share a key.
func cacheKey(filters []string, page, perPage int) string {
	sorted := make([]string, len(filters))
	copy(sorted, filters)
	sort.Strings(sorted)
	return strings.Join(sorted, "\x1f") + "|" + strconv.Itoa(page) + "|" + strconv.Itoa(perPage)
}
