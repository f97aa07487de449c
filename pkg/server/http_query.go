package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/snafflertools/consolidator/pkg/store"
)

const (
	defaultPage    = 1
	defaultPerPage = 100
)

// entriesHandler serves one filtered, paginated page of parsed records.
// Repeated triage parameters form the filter set; no parameters means no
// filtering.
func (s *HTTP) entriesHandler(c *gin.Context) {
	page, err := positiveIntQuery(c, "page", defaultPage)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
		return
	}
	perPage, err := positiveIntQuery(c, "per_page", defaultPerPage)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid per_page"})
		return
	}

	filters := c.QueryArray("triage")

	res, err := s.query.Query(filters, page, perPage)
	if err != nil {
		if errors.Is(err, store.ErrNoData) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No data loaded. Please parse a log file first."})
			return
		}
		_ = c.Error(err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	c.JSON(http.StatusOK, res)
}

// exportRequest is the body of POST /export.
type exportRequest struct {
	TriageLevels []string `json:"triage_levels"`
}

// exportHandler streams every matching record as a CSV attachment. The body
// is optional; an absent or empty filter list exports everything.
func (s *HTTP) exportHandler(c *gin.Context) {
	var req exportRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid export request"})
			return
		}
	}

	// Check before committing to streaming headers; mid-stream errors can
	// only be logged.
	if !s.store.Ready() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "No data loaded"})
		return
	}

	filename := fmt.Sprintf("snaffler_export_%s.csv", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Status(http.StatusOK)

	if err := s.query.WriteCSV(c.Writer, req.TriageLevels); err != nil {
		s.log.Error().Err(err).Msg("export stream failed")
	}
}

// positiveIntQuery parses a strictly positive integer query parameter.
func positiveIntQuery(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}
